package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/event"
	"github.com/edel-social/edel-server/notification"
	"github.com/edel-social/edel-server/notification/memory"
	"github.com/edel-social/edel-server/notification/tests"
)

func TestNotifier_ActivityEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemory()
	pusher := &tests.RecordingPusher{}
	notifier := notification.NewNotifier(zap.NewNop(), store, pusher)

	bus := event.NewActivityBus()
	bus.AddHandler(notifier)

	require.NoError(t, bus.OnEvent("author", &event.ActivityEvent{
		Type:      event.ActivityLike,
		PostID:    "post",
		ActorID:   "fan",
		Alias:     "fan_alias",
		Timestamp: time.Now(),
	}))
	require.NoError(t, bus.OnEvent("author", &event.ActivityEvent{
		Type:      event.ActivityComment,
		PostID:    "post",
		ActorID:   "fan",
		Alias:     "fan_alias",
		CommentID: "comment",
		Timestamp: time.Now(),
	}))

	// Authors are never notified about their own activity
	require.NoError(t, bus.OnEvent("author", &event.ActivityEvent{
		Type:    event.ActivityLike,
		PostID:  "post",
		ActorID: "author",
		Alias:   "author_alias",
	}))
	bus.Wait()

	notifications, total, err := store.ListNotifications(ctx, "author", notification.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	byType := make(map[string]*notification.Notification)
	for _, n := range notifications {
		byType[n.Type] = n
	}

	like := byType[notification.TypeLike]
	require.NotNil(t, like)
	assert.Equal(t, "fan_alias liked your post", like.Body)
	assert.Equal(t, "post", like.Data["post_id"])
	assert.Equal(t, "fan", like.Data["user_id"])

	comment := byType[notification.TypeComment]
	require.NotNil(t, comment)
	assert.Equal(t, "fan_alias commented on your post", comment.Body)
	assert.Equal(t, "comment", comment.Data["comment_id"])

	pushes := pusher.Pushes()
	require.Len(t, pushes, 2)
	for _, p := range pushes {
		assert.Equal(t, []string{"author"}, p.UserIDs)
		assert.NotEmpty(t, p.Data["notification_id"])
	}
}

func TestNotifier_DefaultType(t *testing.T) {
	store := memory.NewInMemory()
	notifier := notification.NewNotifier(zap.NewNop(), store, &tests.RecordingPusher{})

	result, err := notifier.SendToUser(context.Background(), "user", "title", "body", nil, "")
	require.NoError(t, err)
	assert.True(t, result.PushSent)
	assert.Equal(t, notification.TypeGeneral, result.Notification.Type)
}
