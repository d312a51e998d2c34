package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	revoked := NewRevocations()
	defer revoked.Close()

	issuer := NewIssuer("secret", time.Hour, revoked)

	token, err := issuer.Issue("user-1", "a@example.com", "anon_1", true)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID())
	require.Equal(t, "a@example.com", claims.Email)
	require.Equal(t, "anon_1", claims.Alias)
	require.True(t, claims.IsAdmin)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssuer_Revoke(t *testing.T) {
	revoked := NewRevocations()
	defer revoked.Close()

	issuer := NewIssuer("secret", time.Hour, revoked)

	first, err := issuer.Issue("user-1", "a@example.com", "anon_1", false)
	require.NoError(t, err)
	second, err := issuer.Issue("user-1", "a@example.com", "anon_1", false)
	require.NoError(t, err)

	claims, err := issuer.Verify(first)
	require.NoError(t, err)
	issuer.Revoke(claims)

	_, err = issuer.Verify(first)
	require.ErrorIs(t, err, ErrRevokedToken)

	// Only the revoked token is affected.
	_, err = issuer.Verify(second)
	require.NoError(t, err)
	require.Equal(t, 1, revoked.Count())
}

func TestIssuer_Invalid(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, nil)
	other := NewIssuer("other-secret", time.Hour, nil)

	_, err := issuer.Verify("")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = issuer.Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := other.Issue("user-1", "a@example.com", "anon_1", false)
	require.NoError(t, err)
	_, err = issuer.Verify(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewIssuer("secret", time.Nanosecond, nil)
	token, err := expired.Issue("user-1", "a@example.com", "anon_1", false)
	require.NoError(t, err)
	time.Sleep(time.Second)
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Tokens without an expiry are never accepted.
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ID: "id"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Verify(noExp)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Algorithm must be HS256.
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "id",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Verify(hs512)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevocations_Expired(t *testing.T) {
	revoked := NewRevocations()
	defer revoked.Close()

	revoked.Revoke("gone", time.Now().Add(-time.Minute))
	require.False(t, revoked.IsRevoked("gone"))

	revoked.Revoke("live", time.Now().Add(time.Minute))
	require.True(t, revoked.IsRevoked("live"))
}
