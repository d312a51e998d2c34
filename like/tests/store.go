package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/like"
)

func RunStoreTests(t *testing.T, s like.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s like.Store){
		testAddAndRemove,
		testLikedPosts,
		testDeleteByUser,
	} {
		tf(t, s)
		teardown()
	}
}

func testAddAndRemove(t *testing.T, s like.Store) {
	ctx := context.Background()

	liked, err := s.HasLiked(ctx, "post", "user")
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, s.AddLike(ctx, "post", "user"))
	require.ErrorIs(t, s.AddLike(ctx, "post", "user"), like.ErrExists)

	liked, err = s.HasLiked(ctx, "post", "user")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = s.HasLiked(ctx, "post", "other")
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, s.RemoveLike(ctx, "post", "user"))
	require.ErrorIs(t, s.RemoveLike(ctx, "post", "user"), like.ErrNotFound)

	liked, err = s.HasLiked(ctx, "post", "user")
	require.NoError(t, err)
	assert.False(t, liked)
}

func testLikedPosts(t *testing.T, s like.Store) {
	ctx := context.Background()

	require.NoError(t, s.AddLike(ctx, "post1", "user"))
	require.NoError(t, s.AddLike(ctx, "post3", "user"))
	require.NoError(t, s.AddLike(ctx, "post2", "other"))

	liked, err := s.LikedPosts(ctx, "user", []string{"post1", "post2", "post3", "post4"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"post1": true, "post3": true}, liked)

	liked, err = s.LikedPosts(ctx, "user", nil)
	require.NoError(t, err)
	assert.Empty(t, liked)
}

func testDeleteByUser(t *testing.T, s like.Store) {
	ctx := context.Background()

	require.NoError(t, s.AddLike(ctx, "post1", "user"))
	require.NoError(t, s.AddLike(ctx, "post2", "user"))
	require.NoError(t, s.AddLike(ctx, "post1", "other"))

	require.NoError(t, s.DeleteByUser(ctx, "user"))

	liked, err := s.LikedPosts(ctx, "user", []string{"post1", "post2"})
	require.NoError(t, err)
	assert.Empty(t, liked)

	ok, err := s.HasLiked(ctx, "post1", "other")
	require.NoError(t, err)
	assert.True(t, ok)
}
