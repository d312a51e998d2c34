package push

import (
	"context"
	"errors"
	"strings"
)

type TokenType int

const (
	TokenTypeUnknown TokenType = iota
	TokenTypeFCMAndroid
	TokenTypeFCMAPNS
)

var ErrInvalidTokenType = errors.New("invalid token type")

func (t TokenType) String() string {
	switch t {
	case TokenTypeFCMAndroid:
		return "android"
	case TokenTypeFCMAPNS:
		return "ios"
	default:
		return "unknown"
	}
}

// ParseTokenType maps a client platform name to a token type. An empty
// platform defaults to Android, which is what FCM registration tokens are
// unless the client says otherwise.
func ParseTokenType(platform string) (TokenType, error) {
	switch strings.ToLower(platform) {
	case "", "android", "fcm":
		return TokenTypeFCMAndroid, nil
	case "ios", "apns":
		return TokenTypeFCMAPNS, nil
	default:
		return TokenTypeUnknown, ErrInvalidTokenType
	}
}

// Token represents a push notification token.
//
// Tokens are bound to a (user, device) pair, identified by the AppInstallID.
type Token struct {
	UserID       string
	Type         TokenType
	Token        string
	AppInstallID string
}

type TokenStore interface {
	// GetTokens returns all tokens for a user.
	GetTokens(ctx context.Context, userID string) ([]Token, error)

	// GetTokensBatch returns all tokens for a set of users.
	GetTokensBatch(ctx context.Context, userIDs ...string) ([]Token, error)

	// AddToken adds a token for a user.
	//
	// If a token already exists for the same user and device, it will be updated.
	AddToken(ctx context.Context, userID, appInstallID string, tokenType TokenType, token string) error

	// DeleteToken deletes a token, regardless of which user it belongs to.
	DeleteToken(ctx context.Context, tokenType TokenType, token string) error

	// ClearTokens deletes all tokens for a user.
	ClearTokens(ctx context.Context, userID string) error
}
