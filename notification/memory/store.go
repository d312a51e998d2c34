package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edel-social/edel-server/notification"
)

type memory struct {
	sync.Mutex

	notifications map[string]*notification.Notification
}

func NewInMemory() notification.Store {
	return &memory{
		notifications: make(map[string]*notification.Notification),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.notifications = make(map[string]*notification.Notification)
}

func (m *memory) CreateNotification(_ context.Context, n *notification.Notification) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.notifications[n.ID]; ok {
		return notification.ErrExists
	}
	m.notifications[n.ID] = n.Clone()
	return nil
}

func (m *memory) GetNotification(_ context.Context, id string) (*notification.Notification, error) {
	m.Lock()
	defer m.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	return n.Clone(), nil
}

func (m *memory) ListNotifications(_ context.Context, userID string, opts notification.ListOptions) ([]*notification.Notification, int, error) {
	m.Lock()
	defer m.Unlock()

	var matching []*notification.Notification
	for _, n := range m.notifications {
		if n.UserID != userID || (opts.UnreadOnly && n.IsRead) {
			continue
		}
		matching = append(matching, n)
	}

	sort.Slice(matching, func(i, j int) bool {
		a, b := matching[i], matching[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := len(matching)
	start := min(opts.Offset, total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}

	page := make([]*notification.Notification, 0, end-start)
	for _, n := range matching[start:end] {
		page = append(page, n.Clone())
	}
	return page, total, nil
}

func (m *memory) CountUnread(_ context.Context, userID string) (int, error) {
	m.Lock()
	defer m.Unlock()

	var count int
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memory) MarkRead(_ context.Context, userID string, ids []string) (int, error) {
	m.Lock()
	defer m.Unlock()

	now := time.Now()
	seen := make(map[string]struct{}, len(ids))

	var updated int
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		n, ok := m.notifications[id]
		if !ok || n.UserID != userID {
			continue
		}

		n.IsRead = true
		readAt := now
		n.ReadAt = &readAt
		updated++
	}
	return updated, nil
}

func (m *memory) DeleteNotification(_ context.Context, id string) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.notifications[id]; !ok {
		return notification.ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *memory) DeleteByUser(_ context.Context, userID string) error {
	m.Lock()
	defer m.Unlock()

	for id, n := range m.notifications {
		if n.UserID == userID {
			delete(m.notifications, id)
		}
	}
	return nil
}
