package notification

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/edel-social/edel-server/event"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/push"
)

// Result describes the outcome of SendToUser. The notification is always
// persisted; PushSent reports whether delivery to devices also succeeded.
type Result struct {
	Notification *Notification
	PushSent     bool
}

type Notifier struct {
	log    *zap.Logger
	store  Store
	pusher push.Pusher
}

func NewNotifier(log *zap.Logger, store Store, pusher push.Pusher) *Notifier {
	return &Notifier{
		log:    log,
		store:  store,
		pusher: pusher,
	}
}

// SendToUser records a notification for userID and pushes it to the user's
// devices. Only a failure to record it is returned.
func (n *Notifier) SendToUser(ctx context.Context, userID, title, body string, data map[string]string, notificationType string) (*Result, error) {
	if notificationType == "" {
		notificationType = TypeGeneral
	}

	id, err := model.GenerateID()
	if err != nil {
		return nil, err
	}

	record := &Notification{
		ID:        id,
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Body:      body,
		Data:      maps.Clone(data),
		CreatedAt: time.Now(),
	}
	if err := n.store.CreateNotification(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	log := n.log.With(
		zap.String("user_id", userID),
		zap.String("notification_id", id),
		zap.String("type", notificationType),
	)

	payload := make(map[string]string, len(data)+2)
	maps.Copy(payload, data)
	payload["notification_id"] = id
	payload["type"] = notificationType

	result := &Result{Notification: record}
	if err := n.pusher.SendPushes(ctx, []string{userID}, title, body, payload); err != nil {
		log.Warn("Failed to push notification", zap.Error(err))
		return result, nil
	}

	log.Debug("Notification sent")
	result.PushSent = true
	return result, nil
}

// OnEvent notifies a post author about activity on their post.
func (n *Notifier) OnEvent(authorID string, e *event.ActivityEvent) {
	if authorID == "" || authorID == e.ActorID {
		return
	}

	var title, body string
	data := map[string]string{
		"post_id": e.PostID,
		"user_id": e.ActorID,
	}

	switch e.Type {
	case event.ActivityLike:
		title = "New like on your post"
		body = fmt.Sprintf("%s liked your post", e.Alias)
	case event.ActivityComment:
		title = "New comment on your post"
		body = fmt.Sprintf("%s commented on your post", e.Alias)
		data["comment_id"] = e.CommentID
	default:
		n.log.Warn("Unknown activity type", zap.String("type", string(e.Type)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := n.SendToUser(ctx, authorID, title, body, data, string(e.Type)); err != nil {
		n.log.Warn("Failed to notify post author",
			zap.String("user_id", authorID),
			zap.String("post_id", e.PostID),
			zap.Error(err),
		)
	}
}
