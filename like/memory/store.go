package memory

import (
	"context"
	"sync"
	"time"

	"github.com/edel-social/edel-server/like"
)

type key struct {
	postID string
	userID string
}

type memory struct {
	sync.RWMutex

	likes map[key]*like.Like
}

func NewInMemory() like.Store {
	return &memory{
		likes: make(map[key]*like.Like),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.likes = make(map[key]*like.Like)
}

func (m *memory) AddLike(_ context.Context, postID, userID string) error {
	m.Lock()
	defer m.Unlock()

	k := key{postID: postID, userID: userID}
	if _, ok := m.likes[k]; ok {
		return like.ErrExists
	}
	m.likes[k] = &like.Like{
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *memory) RemoveLike(_ context.Context, postID, userID string) error {
	m.Lock()
	defer m.Unlock()

	k := key{postID: postID, userID: userID}
	if _, ok := m.likes[k]; !ok {
		return like.ErrNotFound
	}
	delete(m.likes, k)
	return nil
}

func (m *memory) HasLiked(_ context.Context, postID, userID string) (bool, error) {
	m.RLock()
	defer m.RUnlock()

	_, ok := m.likes[key{postID: postID, userID: userID}]
	return ok, nil
}

func (m *memory) LikedPosts(_ context.Context, userID string, postIDs []string) (map[string]bool, error) {
	m.RLock()
	defer m.RUnlock()

	liked := make(map[string]bool)
	for _, postID := range postIDs {
		if _, ok := m.likes[key{postID: postID, userID: userID}]; ok {
			liked[postID] = true
		}
	}
	return liked, nil
}

func (m *memory) DeleteByUser(_ context.Context, userID string) error {
	m.Lock()
	defer m.Unlock()

	for k := range m.likes {
		if k.userID == userID {
			delete(m.likes, k)
		}
	}
	return nil
}
