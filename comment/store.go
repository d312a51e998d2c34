package comment

import (
	"context"
	"errors"
	"time"

	"github.com/edel-social/edel-server/query"
)

const MaxContentLength = 500

var (
	ErrNotFound = errors.New("comment not found")
	ErrExists   = errors.New("comment already exists")
)

type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Alias     string
	Content   string
	IsDeleted bool
	DeletedAt *time.Time
	CreatedAt time.Time
}

func (c *Comment) Clone() *Comment {
	cloned := *c
	if c.DeletedAt != nil {
		deletedAt := *c.DeletedAt
		cloned.DeletedAt = &deletedAt
	}
	return &cloned
}

type Store interface {
	CreateComment(ctx context.Context, c *Comment) error

	// GetComment returns the comment even if it has been deleted.
	GetComment(ctx context.Context, id string) (*Comment, error)

	// ListComments returns a page of a post's live comments and the total
	// number of live comments on the post.
	ListComments(ctx context.Context, postID string, opts ...query.Option) ([]*Comment, int, error)

	// SoftDelete returns ErrNotFound if the comment is missing or already
	// deleted.
	SoftDelete(ctx context.Context, id string) error

	// DeleteByUser removes every comment written by userID.
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// GetLiveComment is GetComment, treating deleted comments as missing.
func GetLiveComment(ctx context.Context, s Store, id string) (*Comment, error) {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	return c, nil
}
