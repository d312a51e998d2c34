package memory

import (
	"context"
	"sync"
	"time"

	"github.com/edel-social/edel-server/account"
)

type memory struct {
	sync.Mutex

	users map[string]*account.User

	// maps an email to the id of the user registered with it
	emails map[string]string
}

func NewInMemory() account.Store {
	return &memory{
		users:  make(map[string]*account.User),
		emails: make(map[string]string),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.users = make(map[string]*account.User)
	m.emails = make(map[string]string)
}

func (m *memory) CreateUser(_ context.Context, user *account.User) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return account.ErrExists
	}
	if _, ok := m.emails[user.Email]; ok {
		return account.ErrExists
	}

	m.users[user.ID] = user.Clone()
	m.emails[user.Email] = user.ID
	return nil
}

func (m *memory) GetUser(_ context.Context, id string) (*account.User, error) {
	m.Lock()
	defer m.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return user.Clone(), nil
}

func (m *memory) GetUserByEmail(_ context.Context, email string) (*account.User, error) {
	m.Lock()
	defer m.Unlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, account.ErrNotFound
	}
	return m.users[id].Clone(), nil
}

func (m *memory) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	m.Lock()
	defer m.Unlock()

	user, ok := m.users[id]
	if !ok {
		return account.ErrNotFound
	}
	user.IsAdmin = isAdmin
	user.UpdatedAt = time.Now()
	return nil
}

func (m *memory) IsAdmin(_ context.Context, id string) (bool, error) {
	m.Lock()
	defer m.Unlock()

	user, ok := m.users[id]
	if !ok {
		return false, nil
	}
	return user.IsAdmin, nil
}

func (m *memory) DeleteUser(_ context.Context, id string) error {
	m.Lock()
	defer m.Unlock()

	user, ok := m.users[id]
	if !ok {
		return account.ErrNotFound
	}
	delete(m.emails, user.Email)
	delete(m.users, id)
	return nil
}
