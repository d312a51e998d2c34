package notification

import (
	"context"
	"errors"
	"maps"
	"time"
)

const (
	TypeGeneral = "general"
	TypeLike    = "like"
	TypeComment = "comment"

	MaxTitleLength = 100
	MaxBodyLength  = 500

	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrNotFound = errors.New("notification not found")
	ErrExists   = errors.New("notification already exists")
)

type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Body      string
	Data      map[string]string
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}

func (n *Notification) Clone() *Notification {
	cloned := *n
	cloned.Data = maps.Clone(n.Data)
	if n.ReadAt != nil {
		readAt := *n.ReadAt
		cloned.ReadAt = &readAt
	}
	return &cloned
}

type ListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

type Store interface {
	CreateNotification(ctx context.Context, n *Notification) error

	GetNotification(ctx context.Context, id string) (*Notification, error)

	// ListNotifications returns a user's notifications, newest first, along
	// with the number of notifications matching the filter.
	ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]*Notification, int, error)

	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead marks the notifications in ids owned by userID as read and
	// returns how many it touched. Ids owned by other users are ignored.
	MarkRead(ctx context.Context, userID string, ids []string) (int, error)

	DeleteNotification(ctx context.Context, id string) error

	// DeleteByUser removes every notification addressed to userID.
	DeleteByUser(ctx context.Context, userID string) error
}
