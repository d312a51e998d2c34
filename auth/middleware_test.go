package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter(issuer *Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/private", RequireAuth(issuer), func(c *gin.Context) {
		c.String(http.StatusOK, MustClaims(c).UserID())
	})
	r.GET("/public", OptionalAuth(issuer), func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, claims.UserID())
	})
	return r
}

func do(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	revoked := NewRevocations()
	defer revoked.Close()

	issuer := NewIssuer("secret", time.Hour, revoked)
	r := newRouter(issuer)

	token, err := issuer.Issue("user-1", "a@example.com", "anon_1", false)
	require.NoError(t, err)

	w := do(r, "/private", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user-1", w.Body.String())

	for _, header := range []string{"", "Bearer ", "Token " + token, "Bearer garbage"} {
		w := do(r, "/private", header)
		require.Equal(t, http.StatusUnauthorized, w.Code, header)
		require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	}

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	issuer.Revoke(claims)

	w = do(r, "/private", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"detail":"token has been revoked"}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, nil)
	r := newRouter(issuer)

	token, err := issuer.Issue("user-1", "a@example.com", "anon_1", false)
	require.NoError(t, err)

	require.Equal(t, "user-1", do(r, "/public", "Bearer "+token).Body.String())
	require.Equal(t, "anonymous", do(r, "/public", "").Body.String())
	require.Equal(t, "anonymous", do(r, "/public", "Bearer garbage").Body.String())
}
