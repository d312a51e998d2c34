package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edel-social/edel-server/httputil"
)

const (
	claimsKey = "auth.claims"
	bearer    = "Bearer "
)

// RequireAuth rejects requests without a valid, unrevoked bearer token.
func RequireAuth(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c, err)
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			unauthorized(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			if claims, err := issuer.Verify(token); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// MustClaims returns the claims set by RequireAuth. It panics if the route is
// not behind RequireAuth.
func MustClaims(c *gin.Context) *Claims {
	return c.MustGet(claimsKey).(*Claims)
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(header, bearer) {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearer))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func unauthorized(c *gin.Context, err error) {
	message := "invalid token"
	switch {
	case errors.Is(err, ErrMissingToken):
		message = "missing token"
	case errors.Is(err, ErrRevokedToken):
		message = "token has been revoked"
	}

	c.Header("WWW-Authenticate", "Bearer")
	httputil.JSONError(c, http.StatusUnauthorized, message)
}
