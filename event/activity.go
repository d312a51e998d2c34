package event

import (
	"time"
)

type ActivityType string

const (
	ActivityLike    ActivityType = "like"
	ActivityComment ActivityType = "comment"
)

// ActivityEvent is published when a user interacts with someone else's post.
// Bus keys are the id of the post author.
type ActivityEvent struct {
	Type      ActivityType
	PostID    string
	ActorID   string
	Alias     string
	CommentID string
	Timestamp time.Time
}

type ActivityBus = Bus[string, *ActivityEvent]

func NewActivityBus() *ActivityBus {
	return NewBus[string, *ActivityEvent]()
}
