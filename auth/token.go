package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/edel-social/edel-server/model"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("revoked token")
)

// Claims carried by every access token. The subject is the user id.
type Claims struct {
	Email   string `json:"email"`
	Alias   string `json:"alias"`
	IsAdmin bool   `json:"admin"`

	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	revoked *Revocations
}

func NewIssuer(secret string, ttl time.Duration, revoked *Revocations) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
	}
}

func (i *Issuer) Issue(userID, email, alias string, isAdmin bool) (string, error) {
	id, err := model.GenerateID()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		Email:   email,
		Alias:   alias,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and checks its signature, expiry and revocation.
func (i *Issuer) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	if i.revoked != nil && i.revoked.IsRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

// Revoke rejects the token identified by claims until it expires.
func (i *Issuer) Revoke(claims *Claims) {
	if i.revoked == nil || claims.ExpiresAt == nil {
		return
	}
	i.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
}
