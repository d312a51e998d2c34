package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/notification"
)

func RunStoreTests(t *testing.T, s notification.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s notification.Store){
		testCreateAndGet,
		testList,
		testMarkRead,
		testDelete,
	} {
		tf(t, s)
		teardown()
	}
}

func newNotification(userID string, createdAt time.Time) *notification.Notification {
	return &notification.Notification{
		ID:        model.MustGenerateID(),
		UserID:    userID,
		Type:      notification.TypeLike,
		Title:     "New like on your post",
		Body:      "someone liked your post",
		Data:      map[string]string{"post_id": "post"},
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}

func testCreateAndGet(t *testing.T, s notification.Store) {
	ctx := context.Background()

	_, err := s.GetNotification(ctx, "missing")
	require.ErrorIs(t, err, notification.ErrNotFound)

	expected := newNotification("user", time.Now())
	require.NoError(t, s.CreateNotification(ctx, expected))
	require.ErrorIs(t, s.CreateNotification(ctx, expected), notification.ErrExists)

	actual, err := s.GetNotification(ctx, expected.ID)
	require.NoError(t, err)
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.UserID, actual.UserID)
	assert.Equal(t, expected.Type, actual.Type)
	assert.Equal(t, expected.Title, actual.Title)
	assert.Equal(t, expected.Body, actual.Body)
	assert.Equal(t, expected.Data, actual.Data)
	assert.False(t, actual.IsRead)
	assert.Nil(t, actual.ReadAt)
	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt))

	// Nil data round trips as empty
	empty := newNotification("user", time.Now())
	empty.Data = nil
	require.NoError(t, s.CreateNotification(ctx, empty))
	actual, err = s.GetNotification(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, actual.Data)
}

func testList(t *testing.T, s notification.Store) {
	ctx := context.Background()

	start := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		n := newNotification("user", start.Add(time.Duration(i)*time.Minute))
		n.Title = fmt.Sprintf("notification %d", i)
		require.NoError(t, s.CreateNotification(ctx, n))
		ids = append(ids, n.ID)
	}
	require.NoError(t, s.CreateNotification(ctx, newNotification("other", start)))

	all, total, err := s.ListNotifications(ctx, "user", notification.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, all, 5)
	for i, n := range all {
		// Newest first
		assert.Equal(t, ids[4-i], n.ID)
	}

	page, total, err := s.ListNotifications(ctx, "user", notification.ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	page, total, err = s.ListNotifications(ctx, "user", notification.ListOptions{Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)

	updated, err := s.MarkRead(ctx, "user", ids[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	unread, total, err := s.ListNotifications(ctx, "user", notification.ListOptions{UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, unread, 3)
	for _, n := range unread {
		assert.False(t, n.IsRead)
	}

	count, err := s.CountUnread(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	empty, total, err := s.ListNotifications(ctx, "nobody", notification.ListOptions{Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, empty)
}

func testMarkRead(t *testing.T, s notification.Store) {
	ctx := context.Background()

	mine := newNotification("user", time.Now())
	theirs := newNotification("other", time.Now())
	require.NoError(t, s.CreateNotification(ctx, mine))
	require.NoError(t, s.CreateNotification(ctx, theirs))

	updated, err := s.MarkRead(ctx, "user", []string{mine.ID, theirs.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	actual, err := s.GetNotification(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, actual.IsRead)
	assert.NotNil(t, actual.ReadAt)

	actual, err = s.GetNotification(ctx, theirs.ID)
	require.NoError(t, err)
	assert.False(t, actual.IsRead)

	updated, err = s.MarkRead(ctx, "user", nil)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func testDelete(t *testing.T, s notification.Store) {
	ctx := context.Background()

	require.ErrorIs(t, s.DeleteNotification(ctx, "missing"), notification.ErrNotFound)

	n := newNotification("user", time.Now())
	require.NoError(t, s.CreateNotification(ctx, n))
	require.NoError(t, s.DeleteNotification(ctx, n.ID))

	_, err := s.GetNotification(ctx, n.ID)
	require.ErrorIs(t, err, notification.ErrNotFound)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateNotification(ctx, newNotification("user", time.Now())))
	}
	other := newNotification("other", time.Now())
	require.NoError(t, s.CreateNotification(ctx, other))

	require.NoError(t, s.DeleteByUser(ctx, "user"))

	_, total, err := s.ListNotifications(ctx, "user", notification.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = s.GetNotification(ctx, other.ID)
	require.NoError(t, err)
}
