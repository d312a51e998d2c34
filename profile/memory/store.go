package memory

import (
	"context"
	"sync"
	"time"

	"github.com/edel-social/edel-server/profile"
)

type Memory struct {
	sync.Mutex

	profiles map[string]*profile.Profile
}

func NewInMemory() profile.Store {
	return &Memory{
		profiles: make(map[string]*profile.Profile),
	}
}

func (m *Memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.profiles = make(map[string]*profile.Profile)
}

func (m *Memory) CreateProfile(_ context.Context, p *profile.Profile) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.profiles[p.UserID]; ok {
		return profile.ErrExists
	}

	m.profiles[p.UserID] = p.Clone()
	return nil
}

func (m *Memory) GetProfile(_ context.Context, userID string) (*profile.Profile, error) {
	m.Lock()
	defer m.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) UpdateProfile(_ context.Context, userID string, update *profile.Update) (*profile.Profile, error) {
	m.Lock()
	defer m.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}

	if update.Alias != nil {
		p.Alias = *update.Alias
	}
	if update.ProfileImage != nil {
		p.ProfileImage = *update.ProfileImage
	}
	p.UpdatedAt = time.Now()

	return p.Clone(), nil
}

func (m *Memory) DeleteProfile(_ context.Context, userID string) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.profiles[userID]; !ok {
		return profile.ErrNotFound
	}
	delete(m.profiles, userID)
	return nil
}
