package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edel-social/edel-server/post"
	"github.com/edel-social/edel-server/query"
)

type memory struct {
	sync.Mutex

	posts map[string]*post.Post
}

func NewInMemory() post.Store {
	return &memory{
		posts: make(map[string]*post.Post),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.posts = make(map[string]*post.Post)
}

func (m *memory) CreatePost(_ context.Context, p *post.Post) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.posts[p.ID]; ok {
		return post.ErrExists
	}
	m.posts[p.ID] = p.Clone()
	return nil
}

func (m *memory) GetPost(_ context.Context, id string) (*post.Post, error) {
	m.Lock()
	defer m.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, post.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memory) ListPosts(_ context.Context, opts ...query.Option) ([]*post.Post, int, error) {
	m.Lock()
	defer m.Unlock()

	queryOpts := query.ApplyOptions(opts...)

	var live []*post.Post
	for _, p := range m.posts {
		if !p.IsDeleted {
			live = append(live, p)
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
	page := make([]*post.Post, 0, end-start)
	for _, p := range live[start:end] {
		page = append(page, p.Clone())
	}
	return page, len(live), nil
}

func (m *memory) CountByUser(_ context.Context, userID string) (int, error) {
	m.Lock()
	defer m.Unlock()

	var count int
	for _, p := range m.posts {
		if p.UserID == userID && !p.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (m *memory) SoftDelete(_ context.Context, id string) error {
	m.Lock()
	defer m.Unlock()

	p, ok := m.posts[id]
	if !ok || p.IsDeleted {
		return post.ErrNotFound
	}

	now := time.Now()
	p.IsDeleted = true
	p.DeletedAt = &now
	return nil
}

func (m *memory) DeleteByUser(_ context.Context, userID string) (int, error) {
	m.Lock()
	defer m.Unlock()

	var count int
	for id, p := range m.posts {
		if p.UserID == userID {
			delete(m.posts, id)
			count++
		}
	}
	return count, nil
}

func (m *memory) AdjustCounts(_ context.Context, id string, likesDelta, commentsDelta int) (*post.Post, error) {
	m.Lock()
	defer m.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, post.ErrNotFound
	}

	p.LikesCount = max(p.LikesCount+likesDelta, 0)
	p.CommentsCount = max(p.CommentsCount+commentsDelta, 0)
	return p.Clone(), nil
}
