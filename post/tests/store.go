package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/post"
	"github.com/edel-social/edel-server/query"
)

func RunStoreTests(t *testing.T, s post.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s post.Store){
		testCreateAndGet,
		testListPosts,
		testSoftDelete,
		testCountAndDeleteByUser,
		testAdjustCounts,
	} {
		tf(t, s)
		teardown()
	}
}

func newPost(userID, content string, createdAt time.Time) *post.Post {
	return &post.Post{
		ID:                  model.MustGenerateID(),
		UserID:              userID,
		Alias:               "anon_user",
		Content:             content,
		ModerationPassed:    true,
		ModerationFlaggedBy: []string{},
		CreatedAt:           createdAt.UTC().Truncate(time.Millisecond),
	}
}

func testCreateAndGet(t *testing.T, s post.Store) {
	ctx := context.Background()

	p := newPost(model.MustGenerateID(), "hello world", time.Now())
	p.ImageURL = "https://cdn.example.com/posts/a.jpg"
	p.ModerationFlaggedBy = []string{moderation.CheckerOpenAI}

	_, err := s.GetPost(ctx, p.ID)
	require.ErrorIs(t, err, post.ErrNotFound)

	require.NoError(t, s.CreatePost(ctx, p))
	require.ErrorIs(t, s.CreatePost(ctx, p), post.ErrExists)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.UserID, got.UserID)
	require.Equal(t, p.Alias, got.Alias)
	require.Equal(t, p.Content, got.Content)
	require.Equal(t, p.ImageURL, got.ImageURL)
	require.Zero(t, got.LikesCount)
	require.Zero(t, got.CommentsCount)
	require.False(t, got.IsDeleted)
	require.Nil(t, got.DeletedAt)
	require.True(t, got.ModerationPassed)
	require.Equal(t, []string{moderation.CheckerOpenAI}, got.ModerationFlaggedBy)
	require.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)

	// No image, no flaggers
	bare := newPost(p.UserID, "no image", time.Now())
	require.NoError(t, s.CreatePost(ctx, bare))

	got, err = s.GetPost(ctx, bare.ID)
	require.NoError(t, err)
	require.Empty(t, got.ImageURL)
	require.NotNil(t, got.ModerationFlaggedBy)
	require.Empty(t, got.ModerationFlaggedBy)
}

func testListPosts(t *testing.T, s post.Store) {
	ctx := context.Background()

	userID := model.MustGenerateID()
	start := time.Now().Add(-time.Hour)

	var ids []string
	for i := 0; i < 5; i++ {
		p := newPost(userID, "post", start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.CreatePost(ctx, p))
		ids = append(ids, p.ID)
	}

	// Deleted posts are excluded
	require.NoError(t, s.SoftDelete(ctx, ids[2]))

	posts, total, err := s.ListPosts(ctx, query.WithDescending(), query.WithPageSize(2))
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, posts, 2)
	require.Equal(t, ids[4], posts[0].ID)
	require.Equal(t, ids[3], posts[1].ID)

	posts, total, err = s.ListPosts(ctx, query.WithDescending(), query.WithPageSize(2), query.WithPage(2))
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, posts, 2)
	require.Equal(t, ids[1], posts[0].ID)
	require.Equal(t, ids[0], posts[1].ID)

	posts, _, err = s.ListPosts(ctx, query.WithDescending(), query.WithPageSize(2), query.WithPage(3))
	require.NoError(t, err)
	require.Empty(t, posts)

	posts, _, err = s.ListPosts(ctx, query.WithAscending())
	require.NoError(t, err)
	require.Len(t, posts, 4)
	require.Equal(t, ids[0], posts[0].ID)
	require.Equal(t, ids[4], posts[3].ID)
}

func testSoftDelete(t *testing.T, s post.Store) {
	ctx := context.Background()

	require.ErrorIs(t, s.SoftDelete(ctx, model.MustGenerateID()), post.ErrNotFound)

	p := newPost(model.MustGenerateID(), "to delete", time.Now())
	require.NoError(t, s.CreatePost(ctx, p))
	require.NoError(t, s.SoftDelete(ctx, p.ID))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)

	_, err = post.GetLivePost(ctx, s, p.ID)
	require.ErrorIs(t, err, post.ErrNotFound)

	// Already deleted
	require.ErrorIs(t, s.SoftDelete(ctx, p.ID), post.ErrNotFound)
}

func testCountAndDeleteByUser(t *testing.T, s post.Store) {
	ctx := context.Background()

	userID := model.MustGenerateID()
	otherID := model.MustGenerateID()

	var ids []string
	for i := 0; i < 3; i++ {
		p := newPost(userID, "mine", time.Now())
		require.NoError(t, s.CreatePost(ctx, p))
		ids = append(ids, p.ID)
	}
	other := newPost(otherID, "theirs", time.Now())
	require.NoError(t, s.CreatePost(ctx, other))

	require.NoError(t, s.SoftDelete(ctx, ids[0]))

	count, err := s.CountByUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Deleted posts are removed as well
	deleted, err := s.DeleteByUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	count, err = s.CountByUser(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, count)

	for _, id := range ids {
		_, err := s.GetPost(ctx, id)
		require.ErrorIs(t, err, post.ErrNotFound)
	}

	_, err = s.GetPost(ctx, other.ID)
	require.NoError(t, err)

	deleted, err = s.DeleteByUser(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func testAdjustCounts(t *testing.T, s post.Store) {
	ctx := context.Background()

	_, err := s.AdjustCounts(ctx, model.MustGenerateID(), 1, 0)
	require.ErrorIs(t, err, post.ErrNotFound)

	p := newPost(model.MustGenerateID(), "counted", time.Now())
	require.NoError(t, s.CreatePost(ctx, p))

	updated, err := s.AdjustCounts(ctx, p.ID, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 2, updated.LikesCount)
	require.Equal(t, 1, updated.CommentsCount)

	updated, err = s.AdjustCounts(ctx, p.ID, -1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, updated.LikesCount)
	require.Equal(t, 1, updated.CommentsCount)

	// Never below zero
	updated, err = s.AdjustCounts(ctx, p.ID, -5, -5)
	require.NoError(t, err)
	require.Zero(t, updated.LikesCount)
	require.Zero(t, updated.CommentsCount)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, got.LikesCount)
	require.Zero(t, got.CommentsCount)
}
