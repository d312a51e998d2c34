package post

import (
	"context"
	"errors"
	"time"

	"github.com/edel-social/edel-server/query"
)

var (
	ErrNotFound = errors.New("post not found")
	ErrExists   = errors.New("post already exists")
)

type Post struct {
	ID     string
	UserID string

	// Alias is the author's alias at the time of posting.
	Alias string

	Content  string
	ImageURL string

	LikesCount    int
	CommentsCount int

	IsDeleted bool
	DeletedAt *time.Time

	// The moderation verdict the post was accepted with.
	ModerationPassed    bool
	ModerationFlaggedBy []string

	CreatedAt time.Time
}

func (p *Post) Clone() *Post {
	cloned := *p
	cloned.ModerationFlaggedBy = append([]string{}, p.ModerationFlaggedBy...)
	if p.DeletedAt != nil {
		deletedAt := *p.DeletedAt
		cloned.DeletedAt = &deletedAt
	}
	return &cloned
}

type Store interface {
	// CreatePost stores a new post, or returns ErrExists.
	CreatePost(ctx context.Context, post *Post) error

	// GetPost returns the post with the given id, deleted or not, or ErrNotFound.
	GetPost(ctx context.Context, id string) (*Post, error)

	// ListPosts returns a page of posts that are not deleted, ordered by
	// creation time, along with the total number of such posts.
	ListPosts(ctx context.Context, opts ...query.Option) ([]*Post, int, error)

	// CountByUser returns the number of posts by userID that are not deleted.
	CountByUser(ctx context.Context, userID string) (int, error)

	// SoftDelete marks a post deleted. ErrNotFound is returned if the post
	// does not exist or is already deleted.
	SoftDelete(ctx context.Context, id string) error

	// DeleteByUser permanently removes every post by userID and returns how
	// many were removed.
	DeleteByUser(ctx context.Context, userID string) (int, error)

	// AdjustCounts adds the deltas to the like and comment counters, clamping
	// each at zero, and returns the updated post.
	AdjustCounts(ctx context.Context, id string, likesDelta, commentsDelta int) (*Post, error)
}

// GetLivePost returns the post if it exists and is not deleted, or
// ErrNotFound.
func GetLivePost(ctx context.Context, s Store, id string) (*Post, error) {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted {
		return nil, ErrNotFound
	}
	return p, nil
}
