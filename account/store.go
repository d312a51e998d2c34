package account

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("account already exists")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) Clone() *User {
	cloned := *u
	return &cloned
}

type Store interface {
	// CreateUser stores a new user.
	//
	// ErrExists is returned if the id or email is already taken.
	CreateUser(ctx context.Context, user *User) error

	// GetUser returns the user with the given id, or ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail returns the user registered with email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetAdmin grants or revokes admin rights.
	SetAdmin(ctx context.Context, id string, isAdmin bool) error

	// IsAdmin returns whether or not a user is an admin. Unknown users are not.
	IsAdmin(ctx context.Context, id string) (bool, error)

	// DeleteUser removes the user, or returns ErrNotFound.
	DeleteUser(ctx context.Context, id string) error
}
