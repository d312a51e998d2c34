package tests

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/account"
	accountmemory "github.com/edel-social/edel-server/account/memory"
	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/blob"
	blobmemory "github.com/edel-social/edel-server/blob/memory"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	moderationmemory "github.com/edel-social/edel-server/moderation/memory"
	"github.com/edel-social/edel-server/profile"
	"github.com/edel-social/edel-server/s3"
	s3memory "github.com/edel-social/edel-server/s3/memory"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s profile.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s profile.Store){
		testGetProfile,
		testUpdateProfile,
		testUploadImage,
	} {
		tf(t, s)
		teardown()
	}
}

type postCounter map[string]int

func (c postCounter) CountByUser(_ context.Context, userID string) (int, error) {
	return c[userID], nil
}

type serverEnv struct {
	client  *testutil.Client
	issuer  *auth.Issuer
	store   profile.Store
	admins  account.Store
	objects s3.Store
	posts   postCounter
	images  *imageClient
}

// imageClient flags every image while flagged is set.
type imageClient struct {
	flagged atomic.Bool
}

func (c *imageClient) ClassifyImage(_ context.Context, _ string) (*moderation.Result, error) {
	if c.flagged.Load() {
		return &moderation.Result{Flagged: true, Reason: "image contains weapons"}, nil
	}
	return &moderation.Result{}, nil
}

const mediaBaseURL = "https://media.example.com/"

func newServerEnv(t *testing.T, s profile.Store) *serverEnv {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	env := &serverEnv{
		issuer:  auth.NewIssuer("secret", time.Hour, revoked),
		store:   s,
		admins:  accountmemory.NewInMemory(),
		objects: s3memory.NewInMemory(),
		posts:   postCounter{},
	}

	env.images = &imageClient{}
	moderator := moderation.NewModerator(zap.NewNop(), []moderation.Checker{{
		Name:    moderation.CheckerPurgoMalum,
		Reason:  moderationmemory.TextReason,
		Timeout: time.Second,
		Client:  moderationmemory.NewKeywordClient("", "shit"),
	}}, &moderation.ImageChecker{
		Name:    moderation.CheckerSightengine,
		Timeout: time.Second,
		Client:  env.images,
	})
	uploader := blob.NewUploader(zap.NewNop(), blobmemory.NewInMemory(), env.objects, s3.NewLocator(mediaBaseURL), moderator)

	serv := profile.NewServer(zap.Must(zap.NewDevelopment()), s, env.admins, env.posts, moderator, uploader, env.issuer)
	env.client = testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		serv.RegisterRoutes(r)
	}))
	return env
}

// newUser creates a user with a profile and returns its id and token.
func (e *serverEnv) newUser(t *testing.T, alias string, isAdmin bool) (string, string) {
	ctx := context.Background()
	now := time.Now()

	userID := model.MustGenerateID()
	email := alias + "@example.com"
	require.NoError(t, e.admins.CreateUser(ctx, &account.User{
		ID:           userID,
		Email:        email,
		PasswordHash: "hash",
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
	require.NoError(t, e.store.CreateProfile(ctx, &profile.Profile{
		UserID:    userID,
		Alias:     alias,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	token, err := e.issuer.Issue(userID, email, alias, isAdmin)
	require.NoError(t, err)
	return userID, token
}

type profileBody struct {
	UserID       string  `json:"user_id"`
	Email        string  `json:"email"`
	Alias        string  `json:"alias"`
	ProfileImage *string `json:"profile_image"`
	IsAdmin      bool    `json:"is_admin"`
	PostsCount   int     `json:"posts_count"`
}

func testGetProfile(t *testing.T, s profile.Store) {
	env := newServerEnv(t, s)

	userID, token := env.newUser(t, "anon_user", false)
	adminID, _ := env.newUser(t, "the_admin", true)
	env.posts[userID] = 3

	t.Run("Me", func(t *testing.T) {
		resp := env.client.WithToken(token).Get("/profile/me")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body profileBody
		resp.Decode(t, &body)
		require.Equal(t, userID, body.UserID)
		require.Equal(t, "anon_user@example.com", body.Email)
		require.Equal(t, "anon_user", body.Alias)
		require.Nil(t, body.ProfileImage)
		require.False(t, body.IsAdmin)
		require.Equal(t, 3, body.PostsCount)
	})

	t.Run("Me Unauthenticated", func(t *testing.T) {
		resp := env.client.Get("/profile/me")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Public", func(t *testing.T) {
		resp := env.client.Get("/profile/" + adminID)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body profileBody
		resp.Decode(t, &body)
		require.Equal(t, adminID, body.UserID)
		require.Empty(t, body.Email)
		require.Equal(t, "the_admin", body.Alias)
		require.True(t, body.IsAdmin)
		require.Zero(t, body.PostsCount)
	})

	t.Run("Not Found", func(t *testing.T) {
		resp := env.client.Get("/profile/" + model.MustGenerateID())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "User not found", resp.Detail(t))
	})
}

func testUpdateProfile(t *testing.T, s profile.Store) {
	env := newServerEnv(t, s)

	userID, token := env.newUser(t, "anon_user", false)
	client := env.client.WithToken(token)

	t.Run("Empty", func(t *testing.T) {
		resp := client.Put("/profile/me", map[string]any{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "At least one field must be provided", resp.Detail(t))
	})

	t.Run("Invalid Alias", func(t *testing.T) {
		for _, alias := range []string{"ab", "has spaces", "waaaaaaaaaaaaaaaaaaaaaaaay_too_long"} {
			resp := client.Put("/profile/me", map[string]any{"alias": alias})
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, alias)
		}
	})

	t.Run("Invalid Image", func(t *testing.T) {
		resp := client.Put("/profile/me", map[string]any{"profile_image": "ftp://example.com/a.jpg"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Moderated Alias", func(t *testing.T) {
		resp := client.Put("/profile/me", map[string]any{"alias": "bull_shit"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		rejection := resp.Rejection(t)
		require.Equal(t, moderationmemory.TextReason, rejection.Reason)
		require.Equal(t, []string{moderation.CheckerPurgoMalum}, rejection.FlaggedBy)

		p, err := s.GetProfile(context.Background(), userID)
		require.NoError(t, err)
		require.Equal(t, "anon_user", p.Alias)
	})

	t.Run("Allowed", func(t *testing.T) {
		resp := client.Put("/profile/me", map[string]any{
			"alias":         "new_alias",
			"profile_image": "https://cdn.example.com/me.jpg",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Message       string   `json:"message"`
			UserID        string   `json:"user_id"`
			UpdatedFields []string `json:"updated_fields"`
		}
		resp.Decode(t, &body)
		require.Equal(t, userID, body.UserID)
		require.Equal(t, []string{"alias", "profile_image"}, body.UpdatedFields)

		p, err := s.GetProfile(context.Background(), userID)
		require.NoError(t, err)
		require.Equal(t, "new_alias", p.Alias)
		require.Equal(t, "https://cdn.example.com/me.jpg", p.ProfileImage)
	})

	t.Run("Clear Image", func(t *testing.T) {
		resp := client.Put("/profile/me", map[string]any{"profile_image": ""})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		p, err := s.GetProfile(context.Background(), userID)
		require.NoError(t, err)
		require.Empty(t, p.ProfileImage)
	})
}

func testUploadImage(t *testing.T, s profile.Store) {
	env := newServerEnv(t, s)

	userID, token := env.newUser(t, "anon_user", false)
	client := env.client.WithToken(token)

	t.Run("Not An Image", func(t *testing.T) {
		resp := client.Upload("/profile/me/image", nil, &testutil.File{
			Field:       "image",
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Data:        []byte("hello"),
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing File", func(t *testing.T) {
		resp := client.Upload("/profile/me/image", nil, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	upload := func(t *testing.T) *testutil.Response {
		return client.Upload("/profile/me/image", nil, &testutil.File{
			Field:       "image",
			Filename:    "me.png",
			ContentType: "image/png",
			Data:        testutil.GeneratePNG(t, 64, 64),
		})
	}

	var first string

	t.Run("Allowed", func(t *testing.T) {
		resp := upload(t)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			ProfileImage string `json:"profile_image"`
		}
		resp.Decode(t, &body)
		require.True(t, strings.HasPrefix(body.ProfileImage, mediaBaseURL+s3.ProfileImagePrefix+userID+"/"))
		first = body.ProfileImage

		p, err := s.GetProfile(context.Background(), userID)
		require.NoError(t, err)
		require.Equal(t, body.ProfileImage, p.ProfileImage)

		_, err = env.objects.Download(context.Background(), strings.TrimPrefix(body.ProfileImage, mediaBaseURL))
		require.NoError(t, err)
	})

	t.Run("Rejected Keeps Current", func(t *testing.T) {
		env.images.flagged.Store(true)
		defer env.images.flagged.Store(false)

		resp := upload(t)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		p, err := s.GetProfile(context.Background(), userID)
		require.NoError(t, err)
		require.Equal(t, first, p.ProfileImage)

		_, err = env.objects.Download(context.Background(), strings.TrimPrefix(first, mediaBaseURL))
		require.NoError(t, err)
		require.Len(t, s3memory.Keys(env.objects), 1)
	})

	t.Run("Replaced", func(t *testing.T) {
		resp := upload(t)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			ProfileImage string `json:"profile_image"`
		}
		resp.Decode(t, &body)
		require.NotEqual(t, first, body.ProfileImage)

		_, err := env.objects.Download(context.Background(), strings.TrimPrefix(first, mediaBaseURL))
		require.ErrorIs(t, err, s3.ErrNotFound)
		require.Len(t, s3memory.Keys(env.objects), 1)
	})
}
