package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/account"
	"github.com/edel-social/edel-server/model"
)

func RunStoreTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testStore,
		testAdmin,
	} {
		tf(t, s)
		teardown()
	}
}

func newUser(email string) *account.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &account.User{
		ID:           model.MustGenerateID(),
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testStore(t *testing.T, s account.Store) {
	ctx := context.Background()

	user := newUser("someone@example.com")

	_, err := s.GetUser(ctx, user.ID)
	require.ErrorIs(t, err, account.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, user.Email)
	require.ErrorIs(t, err, account.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, user))

	actual, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, actual.ID)
	require.Equal(t, user.Email, actual.Email)
	require.Equal(t, user.PasswordHash, actual.PasswordHash)
	require.False(t, actual.IsAdmin)
	require.True(t, user.CreatedAt.Equal(actual.CreatedAt))

	actual, err = s.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.Equal(t, user.ID, actual.ID)

	// Email is unique
	require.ErrorIs(t, s.CreateUser(ctx, newUser(user.Email)), account.ErrExists)

	// So is the id
	dup := newUser("other@example.com")
	dup.ID = user.ID
	require.ErrorIs(t, s.CreateUser(ctx, dup), account.ErrExists)

	require.NoError(t, s.DeleteUser(ctx, user.ID))
	require.ErrorIs(t, s.DeleteUser(ctx, user.ID), account.ErrNotFound)

	_, err = s.GetUser(ctx, user.ID)
	require.ErrorIs(t, err, account.ErrNotFound)

	// The email can be reused once the account is gone
	require.NoError(t, s.CreateUser(ctx, newUser(user.Email)))
}

func testAdmin(t *testing.T, s account.Store) {
	ctx := context.Background()

	user := newUser("admin@example.com")

	isAdmin, err := s.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, isAdmin)

	require.ErrorIs(t, s.SetAdmin(ctx, user.ID, true), account.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.SetAdmin(ctx, user.ID, true))

	isAdmin, err = s.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, isAdmin)

	actual, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, actual.IsAdmin)

	require.NoError(t, s.SetAdmin(ctx, user.ID, false))
	isAdmin, err = s.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, isAdmin)
}
