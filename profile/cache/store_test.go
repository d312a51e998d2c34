package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/profile"
	"github.com/edel-social/edel-server/profile/memory"
	"github.com/edel-social/edel-server/profile/tests"
)

func TestProfile_CacheStore(t *testing.T) {
	tests.RunStoreTests(t, NewInCache(memory.NewInMemory(), time.Minute), func() {})
}

func TestCache_ReadThrough(t *testing.T) {
	ctx := context.Background()

	db := memory.NewInMemory()
	c := NewInCache(db, time.Minute)

	userID := model.MustGenerateID()
	require.NoError(t, db.CreateProfile(ctx, &profile.Profile{UserID: userID, Alias: "cached", CreatedAt: time.Now()}))

	p, err := c.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "cached", p.Alias)

	// Mutating the result does not leak into the cache
	p.Alias = "mutated"

	// Writes that bypass the cache are not visible until the entry is evicted
	alias := "changed"
	_, err = db.UpdateProfile(ctx, userID, &profile.Update{Alias: &alias})
	require.NoError(t, err)

	p, err = c.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "cached", p.Alias)

	// Writes through the cache evict
	alias = "through_cache"
	_, err = c.UpdateProfile(ctx, userID, &profile.Update{Alias: &alias})
	require.NoError(t, err)

	p, err = c.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "through_cache", p.Alias)

	require.NoError(t, c.DeleteProfile(ctx, userID))
	_, err = c.GetProfile(ctx, userID)
	require.ErrorIs(t, err, profile.ErrNotFound)
}

// racingStore runs onWrite in the middle of each write, before it reaches the
// underlying store.
type racingStore struct {
	profile.Store
	onWrite func()
}

func (s *racingStore) UpdateProfile(ctx context.Context, userID string, update *profile.Update) (*profile.Profile, error) {
	s.onWrite()
	return s.Store.UpdateProfile(ctx, userID, update)
}

func (s *racingStore) DeleteProfile(ctx context.Context, userID string) error {
	s.onWrite()
	return s.Store.DeleteProfile(ctx, userID)
}

func TestCache_ReadDuringWrite(t *testing.T) {
	ctx := context.Background()

	db := &racingStore{Store: memory.NewInMemory()}
	c := NewInCache(db, time.Minute)

	userID := model.MustGenerateID()
	require.NoError(t, db.CreateProfile(ctx, &profile.Profile{UserID: userID, Alias: "before", CreatedAt: time.Now()}))

	db.onWrite = func() {
		p, err := c.GetProfile(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "before", p.Alias)
	}

	alias := "after"
	_, err := c.UpdateProfile(ctx, userID, &profile.Update{Alias: &alias})
	require.NoError(t, err)

	p, err := c.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "after", p.Alias)

	require.NoError(t, c.DeleteProfile(ctx, userID))
	_, err = c.GetProfile(ctx, userID)
	require.ErrorIs(t, err, profile.ErrNotFound)
}
