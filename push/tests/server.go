package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/push"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s push.TokenStore, teardown func()) {
	for _, tf := range []func(t *testing.T, s push.TokenStore){
		testServer_AddToken,
		testServer_DeleteToken,
	} {
		tf(t, s)
		teardown()
	}
}

func newServer(t *testing.T, store push.TokenStore) (*testutil.Client, *auth.Issuer) {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	issuer := auth.NewIssuer("secret", time.Hour, revoked)
	serv := push.NewServer(zaptest.NewLogger(t), store, issuer)

	client := testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		serv.RegisterRoutes(r)
	}))
	return client, issuer
}

func clientFor(t *testing.T, client *testutil.Client, issuer *auth.Issuer, userID string) *testutil.Client {
	token, err := issuer.Issue(userID, userID+"@example.com", userID, false)
	require.NoError(t, err)
	return client.WithToken(token)
}

func testServer_AddToken(t *testing.T, store push.TokenStore) {
	ctx := context.Background()
	client, issuer := newServer(t, store)
	user := clientFor(t, client, issuer, "test-user")

	tests := []struct {
		name       string
		client     *testutil.Client
		body       any
		wantStatus int
	}{
		{
			name:       "unauthenticated",
			client:     client,
			body:       map[string]string{"token": "t"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing token",
			client:     user,
			body:       map[string]string{"app_install_id": "install"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid platform",
			client:     user,
			body:       map[string]string{"token": "t", "platform": "windows"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "success",
			client:     user,
			body:       map[string]string{"token": "test-token", "app_install_id": "test-install"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "success without install id",
			client:     user,
			body:       map[string]string{"token": "other-token", "platform": "ios"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.client.Post("/notifications/token", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode, string(resp.Body))
		})
	}

	tokens, err := store.GetTokens(ctx, "test-user")
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	byInstall := make(map[string]push.Token)
	for _, token := range tokens {
		byInstall[token.AppInstallID] = token
	}
	assert.Equal(t, "test-token", byInstall["test-install"].Token)
	assert.Equal(t, push.TokenTypeFCMAndroid, byInstall["test-install"].Type)
	assert.Equal(t, "other-token", byInstall["default"].Token)
	assert.Equal(t, push.TokenTypeFCMAPNS, byInstall["default"].Type)
}

func testServer_DeleteToken(t *testing.T, store push.TokenStore) {
	ctx := context.Background()
	client, issuer := newServer(t, store)
	user := clientFor(t, client, issuer, "test-user")
	other := clientFor(t, client, issuer, "other-user")

	require.NoError(t, store.AddToken(ctx, "test-user", "install", push.TokenTypeFCMAndroid, "test-token"))

	t.Run("not owner", func(t *testing.T) {
		resp := other.Delete("/notifications/token", map[string]string{"token": "test-token"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		tokens, err := store.GetTokens(ctx, "test-user")
		require.NoError(t, err)
		assert.Len(t, tokens, 1)
	})

	t.Run("owner", func(t *testing.T) {
		resp := user.Delete("/notifications/token", map[string]string{"token": "test-token"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		tokens, err := store.GetTokens(ctx, "test-user")
		require.NoError(t, err)
		assert.Empty(t, tokens)
	})

	t.Run("missing body", func(t *testing.T) {
		resp := user.Delete("/notifications/token", map[string]string{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
