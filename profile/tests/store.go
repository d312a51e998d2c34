package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/profile"
)

func RunStoreTests(t *testing.T, s profile.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s profile.Store){
		testStore,
		testUpdate,
		testDelete,
	} {
		tf(t, s)
		teardown()
	}
}

func newProfile(alias string) *profile.Profile {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &profile.Profile{
		UserID:    model.MustGenerateID(),
		Alias:     alias,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testStore(t *testing.T, s profile.Store) {
	ctx := context.Background()

	p := newProfile("my_name")

	_, err := s.GetProfile(ctx, p.UserID)
	require.ErrorIs(t, err, profile.ErrNotFound)

	require.NoError(t, s.CreateProfile(ctx, p))
	require.ErrorIs(t, s.CreateProfile(ctx, p), profile.ErrExists)

	got, err := s.GetProfile(ctx, p.UserID)
	require.NoError(t, err)
	require.Equal(t, p.UserID, got.UserID)
	require.Equal(t, "my_name", got.Alias)
	require.Empty(t, got.ProfileImage)
	require.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Second)
}

func testUpdate(t *testing.T, s profile.Store) {
	ctx := context.Background()

	alias := "other_name"
	_, err := s.UpdateProfile(ctx, model.MustGenerateID(), &profile.Update{Alias: &alias})
	require.ErrorIs(t, err, profile.ErrNotFound)

	p := newProfile("my_name")
	require.NoError(t, s.CreateProfile(ctx, p))

	updated, err := s.UpdateProfile(ctx, p.UserID, &profile.Update{Alias: &alias})
	require.NoError(t, err)
	require.Equal(t, "other_name", updated.Alias)
	require.Empty(t, updated.ProfileImage)

	image := "https://cdn.example.com/profiles/" + p.UserID + "/avatar.jpg"
	updated, err = s.UpdateProfile(ctx, p.UserID, &profile.Update{ProfileImage: &image})
	require.NoError(t, err)
	require.Equal(t, "other_name", updated.Alias)
	require.Equal(t, image, updated.ProfileImage)

	got, err := s.GetProfile(ctx, p.UserID)
	require.NoError(t, err)
	require.Equal(t, updated.Alias, got.Alias)
	require.Equal(t, updated.ProfileImage, got.ProfileImage)
	require.False(t, got.UpdatedAt.Before(p.UpdatedAt))

	// An empty image clears it
	empty := ""
	updated, err = s.UpdateProfile(ctx, p.UserID, &profile.Update{ProfileImage: &empty})
	require.NoError(t, err)
	require.Empty(t, updated.ProfileImage)
}

func testDelete(t *testing.T, s profile.Store) {
	ctx := context.Background()

	p := newProfile("my_name")
	require.ErrorIs(t, s.DeleteProfile(ctx, p.UserID), profile.ErrNotFound)

	require.NoError(t, s.CreateProfile(ctx, p))
	require.NoError(t, s.DeleteProfile(ctx, p.UserID))

	_, err := s.GetProfile(ctx, p.UserID)
	require.ErrorIs(t, err, profile.ErrNotFound)
}
