package like

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("like not found")
	ErrExists   = errors.New("like already exists")
)

type Like struct {
	PostID    string
	UserID    string
	CreatedAt time.Time
}

type Store interface {
	// AddLike records that userID likes postID. It returns ErrExists if the
	// like is already recorded.
	AddLike(ctx context.Context, postID, userID string) error

	// RemoveLike returns ErrNotFound if userID does not like postID.
	RemoveLike(ctx context.Context, postID, userID string) error

	HasLiked(ctx context.Context, postID, userID string) (bool, error)

	// LikedPosts reports which of postIDs userID has liked. Posts that are
	// not liked are absent from the result.
	LikedPosts(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)

	// DeleteByUser removes every like made by userID.
	DeleteByUser(ctx context.Context, userID string) error
}
