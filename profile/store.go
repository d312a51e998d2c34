package profile

import (
	"context"
	"errors"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	MinAliasLength = 3
	MaxAliasLength = 20
)

var (
	ErrNotFound     = errors.New("not found")
	ErrExists       = errors.New("profile already exists")
	ErrInvalidAlias = errors.New("invalid alias")
)

type Profile struct {
	UserID string
	Alias  string

	// ProfileImage is the public URL of the avatar, empty if none is set.
	ProfileImage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Profile) Clone() *Profile {
	cloned := *p
	return &cloned
}

// Update holds the fields to change. Nil fields are left untouched.
type Update struct {
	Alias        *string
	ProfileImage *string
}

func (u *Update) IsEmpty() bool {
	return u.Alias == nil && u.ProfileImage == nil
}

// Fields returns the names of the fields set on the update.
func (u *Update) Fields() []string {
	fields := make([]string, 0, 2)
	if u.Alias != nil {
		fields = append(fields, "alias")
	}
	if u.ProfileImage != nil {
		fields = append(fields, "profile_image")
	}
	return fields
}

type Store interface {
	// CreateProfile stores the profile of a new user.
	//
	// ErrExists is returned if the user already has a profile.
	CreateProfile(ctx context.Context, profile *Profile) error

	// GetProfile returns the user profile for a user, or ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// UpdateProfile applies update and returns the resulting profile, or
	// ErrNotFound.
	UpdateProfile(ctx context.Context, userID string, update *Update) (*Profile, error)

	// DeleteProfile removes the profile, or returns ErrNotFound.
	DeleteProfile(ctx context.Context, userID string) error
}

// ValidateAlias checks alias is 3 to 20 characters of letters, digits,
// underscores and hyphens.
func ValidateAlias(alias string) error {
	n := utf8.RuneCountInString(alias)
	if n < MinAliasLength || n > MaxAliasLength {
		return ErrInvalidAlias
	}

	for _, r := range alias {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidAlias
	}
	return nil
}
