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

	"github.com/edel-social/edel-server/account"
	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/comment"
	commentmemory "github.com/edel-social/edel-server/comment/memory"
	likememory "github.com/edel-social/edel-server/like/memory"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/notification"
	notificationmemory "github.com/edel-social/edel-server/notification/memory"
	"github.com/edel-social/edel-server/post"
	postmemory "github.com/edel-social/edel-server/post/memory"
	"github.com/edel-social/edel-server/profile"
	profilememory "github.com/edel-social/edel-server/profile/memory"
	"github.com/edel-social/edel-server/push"
	pushmemory "github.com/edel-social/edel-server/push/memory"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testRegisterAndLogin,
		testLogout,
		testDeleteAccount,
		testRequireAdmin,
	} {
		tf(t, s)
		teardown()
	}
}

type serverEnv struct {
	client   *testutil.Client
	issuer   *auth.Issuer
	profiles profile.Store
	content  account.UserContent
}

func newServerEnv(t *testing.T, s account.Store) *serverEnv {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	env := &serverEnv{
		issuer:   auth.NewIssuer("secret", time.Hour, revoked),
		profiles: profilememory.NewInMemory(),
		content: account.UserContent{
			Posts:         postmemory.NewInMemory(),
			Comments:      commentmemory.NewInMemory(),
			Likes:         likememory.NewInMemory(),
			Notifications: notificationmemory.NewInMemory(),
			PushTokens:    pushmemory.NewInMemory(),
		},
	}

	log := zaptest.NewLogger(t)
	serv := account.NewServer(log, s, env.profiles, env.content, env.issuer)
	authorizer := account.NewAuthorizer(log, s)
	env.client = testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		serv.RegisterRoutes(r)
		r.GET("/admin", auth.RequireAuth(env.issuer), authorizer.RequireAdmin(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}))
	return env
}

type loginBody struct {
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Alias   string `json:"alias"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func (e *serverEnv) register(t *testing.T, email, alias string) (loginBody, *testutil.Client) {
	resp := e.client.Post("/auth/register", map[string]any{
		"email":    email,
		"password": "secret-password",
		"alias":    alias,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	var body loginBody
	resp.Decode(t, &body)
	return body, e.client.WithToken(body.Token)
}

func testRegisterAndLogin(t *testing.T, s account.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	t.Run("Invalid Requests", func(t *testing.T) {
		for _, req := range []map[string]any{
			{"email": "not-an-email", "password": "secret-password", "alias": "someone"},
			{"email": "someone@example.com", "password": "short", "alias": "someone"},
			{"email": "someone@example.com", "password": "secret-password", "alias": "no"},
			{"email": "someone@example.com", "password": "secret-password", "alias": "has space"},
			{"email": "someone@example.com", "password": "secret-password"},
		} {
			resp := env.client.Post("/auth/register", req)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, req)
		}
	})

	var registered loginBody
	t.Run("Register", func(t *testing.T) {
		body, client := env.register(t, "Someone@Example.com", "someone")
		registered = body

		assert.NotEmpty(t, body.Token)
		assert.NotEmpty(t, body.UserID)
		assert.Equal(t, "someone", body.Alias)
		assert.Equal(t, "someone@example.com", body.Email)
		assert.False(t, body.IsAdmin)

		user, err := s.GetUser(ctx, body.UserID)
		require.NoError(t, err)
		assert.NotEqual(t, "secret-password", user.PasswordHash)
		assert.True(t, account.CheckPassword(user.PasswordHash, "secret-password"))

		p, err := env.profiles.GetProfile(ctx, body.UserID)
		require.NoError(t, err)
		assert.Equal(t, "someone", p.Alias)

		resp := client.Get("/auth/me")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var me struct {
			UserID       string  `json:"user_id"`
			Email        string  `json:"email"`
			Alias        string  `json:"alias"`
			IsAdmin      bool    `json:"is_admin"`
			ProfileImage *string `json:"profile_image"`
		}
		resp.Decode(t, &me)
		assert.Equal(t, body.UserID, me.UserID)
		assert.Equal(t, "someone@example.com", me.Email)
		assert.Equal(t, "someone", me.Alias)
		assert.Nil(t, me.ProfileImage)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		resp := env.client.Post("/auth/register", map[string]any{
			"email":    "someone@example.com",
			"password": "another-password",
			"alias":    "another",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Email is already registered", resp.Detail(t))
	})

	t.Run("Login", func(t *testing.T) {
		resp := env.client.Post("/auth/login", map[string]any{
			"email":    "someone@example.com",
			"password": "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = env.client.Post("/auth/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "secret-password",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		require.NoError(t, s.SetAdmin(ctx, registered.UserID, true))

		resp = env.client.Post("/auth/login", map[string]any{
			"email":    "someone@example.com",
			"password": "secret-password",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body loginBody
		resp.Decode(t, &body)
		assert.Equal(t, registered.UserID, body.UserID)
		assert.Equal(t, "someone", body.Alias)
		assert.True(t, body.IsAdmin)

		claims, err := env.issuer.Verify(body.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.UserID, claims.UserID())
		assert.True(t, claims.IsAdmin)
	})
}

func testLogout(t *testing.T, s account.Store) {
	env := newServerEnv(t, s)

	_, client := env.register(t, "someone@example.com", "someone")

	resp := client.Get("/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = client.Post("/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = client.Get("/auth/me")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.client.Post("/auth/logout", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func testDeleteAccount(t *testing.T, s account.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	user, client := env.register(t, "someone@example.com", "someone")
	other, _ := env.register(t, "other@example.com", "other")

	now := time.Now()
	var postIDs []string
	for range 2 {
		p := &post.Post{
			ID:               model.MustGenerateID(),
			UserID:           user.UserID,
			Alias:            user.Alias,
			Content:          "hello",
			ModerationPassed: true,
			CreatedAt:        now,
		}
		require.NoError(t, env.content.Posts.CreatePost(ctx, p))
		postIDs = append(postIDs, p.ID)
	}

	otherPost := &post.Post{
		ID:               model.MustGenerateID(),
		UserID:           other.UserID,
		Alias:            other.Alias,
		Content:          "hi",
		ModerationPassed: true,
		CreatedAt:        now,
	}
	require.NoError(t, env.content.Posts.CreatePost(ctx, otherPost))

	require.NoError(t, env.content.Comments.CreateComment(ctx, &comment.Comment{
		ID:        model.MustGenerateID(),
		PostID:    otherPost.ID,
		UserID:    user.UserID,
		Alias:     user.Alias,
		Content:   "nice",
		CreatedAt: now,
	}))
	require.NoError(t, env.content.Likes.AddLike(ctx, otherPost.ID, user.UserID))
	require.NoError(t, env.content.Notifications.CreateNotification(ctx, &notification.Notification{
		ID:        model.MustGenerateID(),
		UserID:    user.UserID,
		Type:      notification.TypeGeneral,
		Title:     "hello",
		Body:      "world",
		CreatedAt: now,
	}))
	require.NoError(t, env.content.PushTokens.AddToken(ctx, user.UserID, "install", push.TokenTypeFCMAndroid, "token"))

	resp := client.Delete("/auth/account", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var body struct {
		Message      string `json:"message"`
		UserID       string `json:"user_id"`
		PostsDeleted int    `json:"posts_deleted"`
	}
	resp.Decode(t, &body)
	assert.Equal(t, user.UserID, body.UserID)
	assert.Equal(t, 2, body.PostsDeleted)
	assert.Contains(t, body.Message, "someone")

	_, err := s.GetUser(ctx, user.UserID)
	require.ErrorIs(t, err, account.ErrNotFound)
	_, err = env.profiles.GetProfile(ctx, user.UserID)
	require.ErrorIs(t, err, profile.ErrNotFound)

	for _, id := range postIDs {
		_, err = env.content.Posts.GetPost(ctx, id)
		require.ErrorIs(t, err, post.ErrNotFound)
	}
	_, err = env.content.Posts.GetPost(ctx, otherPost.ID)
	require.NoError(t, err)

	_, total, err := env.content.Comments.ListComments(ctx, otherPost.ID)
	require.NoError(t, err)
	assert.Zero(t, total)

	liked, err := env.content.Likes.HasLiked(ctx, otherPost.ID, user.UserID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, total, err = env.content.Notifications.ListNotifications(ctx, user.UserID, notification.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)

	tokens, err := env.content.PushTokens.GetTokens(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	// The token used to delete the account is revoked
	resp = client.Get("/auth/me")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The email can be registered again
	env.register(t, "someone@example.com", "someone")
}

func testRequireAdmin(t *testing.T, s account.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	user, client := env.register(t, "someone@example.com", "someone")

	resp := env.client.Get("/admin")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = client.Get("/admin")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Admin privileges required", resp.Detail(t))

	// Promotion takes effect without a new token
	require.NoError(t, s.SetAdmin(ctx, user.UserID, true))
	resp = client.Get("/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Tokens claiming admin rights aren't trusted on their own
	token, err := env.issuer.Issue(model.MustGenerateID(), "fake@example.com", "fake", true)
	require.NoError(t, err)
	resp = env.client.WithToken(token).Get("/admin")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

}
