package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/comment"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/query"
)

func RunStoreTests(t *testing.T, s comment.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s comment.Store){
		testCreateAndGet,
		testListComments,
		testSoftDelete,
		testDeleteByUser,
	} {
		tf(t, s)
		teardown()
	}
}

func newComment(postID, userID string, createdAt time.Time) *comment.Comment {
	return &comment.Comment{
		ID:        model.MustGenerateID(),
		PostID:    postID,
		UserID:    userID,
		Alias:     "commenter",
		Content:   "nice post",
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}

func testCreateAndGet(t *testing.T, s comment.Store) {
	ctx := context.Background()

	_, err := s.GetComment(ctx, "missing")
	require.ErrorIs(t, err, comment.ErrNotFound)

	expected := newComment("post", "user", time.Now())
	require.NoError(t, s.CreateComment(ctx, expected))
	require.ErrorIs(t, s.CreateComment(ctx, expected), comment.ErrExists)

	actual, err := s.GetComment(ctx, expected.ID)
	require.NoError(t, err)
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.PostID, actual.PostID)
	assert.Equal(t, expected.UserID, actual.UserID)
	assert.Equal(t, expected.Alias, actual.Alias)
	assert.Equal(t, expected.Content, actual.Content)
	assert.False(t, actual.IsDeleted)
	assert.Nil(t, actual.DeletedAt)
	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt))
}

func testListComments(t *testing.T, s comment.Store) {
	ctx := context.Background()

	start := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		c := newComment("post", "user", start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.CreateComment(ctx, c))
		ids = append(ids, c.ID)
	}
	require.NoError(t, s.CreateComment(ctx, newComment("other-post", "user", start)))
	require.NoError(t, s.SoftDelete(ctx, ids[2]))

	comments, total, err := s.ListComments(ctx, "post", query.WithDescending())
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, comments, 4)
	assert.Equal(t, []string{ids[4], ids[3], ids[1], ids[0]}, commentIDs(comments))

	comments, total, err = s.ListComments(ctx, "post", query.WithPage(2), query.WithPageSize(3))
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{ids[4]}, commentIDs(comments))

	comments, total, err = s.ListComments(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, comments)
}

func testSoftDelete(t *testing.T, s comment.Store) {
	ctx := context.Background()

	require.ErrorIs(t, s.SoftDelete(ctx, "missing"), comment.ErrNotFound)

	c := newComment("post", "user", time.Now())
	require.NoError(t, s.CreateComment(ctx, c))
	require.NoError(t, s.SoftDelete(ctx, c.ID))
	require.ErrorIs(t, s.SoftDelete(ctx, c.ID), comment.ErrNotFound)

	actual, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, actual.IsDeleted)
	assert.NotNil(t, actual.DeletedAt)

	_, err = comment.GetLiveComment(ctx, s, c.ID)
	require.ErrorIs(t, err, comment.ErrNotFound)
}

func testDeleteByUser(t *testing.T, s comment.Store) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateComment(ctx, newComment("post", "user", time.Now())))
	}
	other := newComment("post", "other", time.Now())
	require.NoError(t, s.CreateComment(ctx, other))

	deleted, err := s.DeleteByUser(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	comments, total, err := s.ListComments(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{other.ID}, commentIDs(comments))
}

func commentIDs(comments []*comment.Comment) []string {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}
