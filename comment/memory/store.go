package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edel-social/edel-server/comment"
	"github.com/edel-social/edel-server/query"
)

type memory struct {
	sync.Mutex

	comments map[string]*comment.Comment
}

func NewInMemory() comment.Store {
	return &memory{
		comments: make(map[string]*comment.Comment),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.comments = make(map[string]*comment.Comment)
}

func (m *memory) CreateComment(_ context.Context, c *comment.Comment) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.comments[c.ID]; ok {
		return comment.ErrExists
	}
	m.comments[c.ID] = c.Clone()
	return nil
}

func (m *memory) GetComment(_ context.Context, id string) (*comment.Comment, error) {
	m.Lock()
	defer m.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, comment.ErrNotFound
	}
	return c.Clone(), nil
}

func (m *memory) ListComments(_ context.Context, postID string, opts ...query.Option) ([]*comment.Comment, int, error) {
	m.Lock()
	defer m.Unlock()

	queryOpts := query.ApplyOptions(opts...)

	var live []*comment.Comment
	for _, c := range m.comments {
		if c.PostID == postID && !c.IsDeleted {
			live = append(live, c)
		}
	}

	sort.Slice(live, func(i, j int) bool {
		a, b := live[i], live[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if queryOpts.Order == query.Descending {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if queryOpts.Order == query.Descending {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	start, end := queryOpts.Window(len(live))
	page := make([]*comment.Comment, 0, end-start)
	for _, c := range live[start:end] {
		page = append(page, c.Clone())
	}
	return page, len(live), nil
}

func (m *memory) SoftDelete(_ context.Context, id string) error {
	m.Lock()
	defer m.Unlock()

	c, ok := m.comments[id]
	if !ok || c.IsDeleted {
		return comment.ErrNotFound
	}

	now := time.Now()
	c.IsDeleted = true
	c.DeletedAt = &now
	return nil
}

func (m *memory) DeleteByUser(_ context.Context, userID string) (int, error) {
	m.Lock()
	defer m.Unlock()

	var count int
	for id, c := range m.comments {
		if c.UserID == userID {
			delete(m.comments, id)
			count++
		}
	}
	return count, nil
}
