package tests

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/comment"
	"github.com/edel-social/edel-server/event"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	moderationmemory "github.com/edel-social/edel-server/moderation/memory"
	"github.com/edel-social/edel-server/post"
	postmemory "github.com/edel-social/edel-server/post/memory"
	"github.com/edel-social/edel-server/profile"
	profilememory "github.com/edel-social/edel-server/profile/memory"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s comment.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s comment.Store){
		testCreateComment,
		testListAndGet,
		testDeleteComment,
	} {
		tf(t, s)
		teardown()
	}
}

type serverEnv struct {
	client   *testutil.Client
	issuer   *auth.Issuer
	posts    post.Store
	profiles profile.Store
	bus      *event.ActivityBus

	mu     sync.Mutex
	events []*event.ActivityEvent
}

func newServerEnv(t *testing.T, s comment.Store) *serverEnv {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	env := &serverEnv{
		issuer:   auth.NewIssuer("secret", time.Hour, revoked),
		posts:    postmemory.NewInMemory(),
		profiles: profilememory.NewInMemory(),
		bus:      event.NewActivityBus(),
	}
	env.bus.AddHandler(event.HandlerFunc[string, *event.ActivityEvent](func(_ string, e *event.ActivityEvent) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.events = append(env.events, e)
	}))

	moderator := moderationmemory.NewModerator(moderationmemory.NewKeywordClient("", "shit"), nil)
	serv := comment.NewServer(zaptest.NewLogger(t), s, env.posts, env.profiles, moderator, env.bus, env.issuer)
	env.client = testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		serv.RegisterRoutes(r)
	}))
	return env
}

func (e *serverEnv) newUser(t *testing.T, alias string) (string, *testutil.Client) {
	userID := model.MustGenerateID()
	now := time.Now()
	require.NoError(t, e.profiles.CreateProfile(context.Background(), &profile.Profile{
		UserID:    userID,
		Alias:     alias,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	token, err := e.issuer.Issue(userID, alias+"@example.com", alias, false)
	require.NoError(t, err)
	return userID, e.client.WithToken(token)
}

func (e *serverEnv) newPost(t *testing.T, userID string) *post.Post {
	p := &post.Post{
		ID:               model.MustGenerateID(),
		UserID:           userID,
		Alias:            "author",
		Content:          "hello",
		ModerationPassed: true,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, e.posts.CreatePost(context.Background(), p))
	return p
}

func (e *serverEnv) received() []*event.ActivityEvent {
	e.bus.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*event.ActivityEvent(nil), e.events...)
}

type commentBody struct {
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	Alias     string `json:"alias"`
	Content   string `json:"content"`
	IsDeleted bool   `json:"is_deleted"`
}

type listBody struct {
	Comments []commentBody `json:"comments"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
}

func testCreateComment(t *testing.T, s comment.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	authorID, author := env.newUser(t, "author")
	fanID, fan := env.newUser(t, "fan")
	p := env.newPost(t, authorID)
	path := "/comments/posts/" + p.ID

	t.Run("Unauthenticated", func(t *testing.T) {
		resp := env.client.Post(path, map[string]string{"content": "hi"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Invalid Content", func(t *testing.T) {
		for _, content := range []string{"", "   ", strings.Repeat("a", comment.MaxContentLength+1)} {
			resp := fan.Post(path, map[string]string{"content": content})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		}
	})

	t.Run("Missing Post", func(t *testing.T) {
		resp := fan.Post("/comments/posts/missing", map[string]string{"content": "hi"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Rejected", func(t *testing.T) {
		resp := fan.Post(path, map[string]string{"content": "this is shit"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		rejection := resp.Rejection(t)
		assert.Equal(t, "Comment rejected by automatic moderation", rejection.Message)
		assert.Equal(t, []string{moderation.CheckerPurgoMalum}, rejection.FlaggedBy)

		_, total, err := s.ListComments(ctx, p.ID)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("Success", func(t *testing.T) {
		resp := fan.Post(path, map[string]string{"content": "  great post  "})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

		var body commentBody
		resp.Decode(t, &body)
		assert.NotEmpty(t, body.CommentID)
		assert.Equal(t, p.ID, body.PostID)
		assert.Equal(t, fanID, body.UserID)
		assert.Equal(t, "fan", body.Alias)
		assert.Equal(t, "great post", body.Content)

		stored, err := env.posts.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.CommentsCount)

		events := env.received()
		require.Len(t, events, 1)
		assert.Equal(t, event.ActivityComment, events[0].Type)
		assert.Equal(t, body.CommentID, events[0].CommentID)
	})

	t.Run("Own Post", func(t *testing.T) {
		resp := author.Post(path, map[string]string{"content": "thanks"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Len(t, env.received(), 1)
	})
}

func testListAndGet(t *testing.T, s comment.Store) {
	env := newServerEnv(t, s)

	authorID, _ := env.newUser(t, "author")
	_, fan := env.newUser(t, "fan")
	p := env.newPost(t, authorID)

	var ids []string
	for _, content := range []string{"first", "second", "third"} {
		resp := fan.Post("/comments/posts/"+p.ID, map[string]string{"content": content})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body commentBody
		resp.Decode(t, &body)
		ids = append(ids, body.CommentID)

		// Keep creation times distinct
		time.Sleep(2 * time.Millisecond)
	}

	t.Run("List", func(t *testing.T) {
		resp := env.client.Get("/comments/posts/" + p.ID + "?page_size=2")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body listBody
		resp.Decode(t, &body)
		assert.Equal(t, 3, body.Total)
		assert.Equal(t, 1, body.Page)
		assert.Equal(t, 2, body.PageSize)
		assert.True(t, body.HasMore)
		require.Len(t, body.Comments, 2)
		assert.Equal(t, "third", body.Comments[0].Content)
		assert.Equal(t, "second", body.Comments[1].Content)

		resp = env.client.Get("/comments/posts/" + p.ID + "?page=2&page_size=2")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Decode(t, &body)
		assert.False(t, body.HasMore)
		require.Len(t, body.Comments, 1)
		assert.Equal(t, "first", body.Comments[0].Content)
	})

	t.Run("List Invalid", func(t *testing.T) {
		resp := env.client.Get("/comments/posts/" + p.ID + "?page=0")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = env.client.Get("/comments/posts/" + p.ID + "?page=9223372036854775807")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = env.client.Get("/comments/posts/missing")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Get", func(t *testing.T) {
		resp := env.client.Get("/comments/" + ids[0])
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body commentBody
		resp.Decode(t, &body)
		assert.Equal(t, "first", body.Content)

		resp = env.client.Get("/comments/missing")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func testDeleteComment(t *testing.T, s comment.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	authorID, author := env.newUser(t, "author")
	_, fan := env.newUser(t, "fan")
	p := env.newPost(t, authorID)

	resp := fan.Post("/comments/posts/"+p.ID, map[string]string{"content": "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created commentBody
	resp.Decode(t, &created)

	resp = author.Delete("/comments/"+created.CommentID, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = fan.Delete("/comments/"+created.CommentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	stored, err := env.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.CommentsCount)

	resp = fan.Delete("/comments/"+created.CommentID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.client.Get("/comments/" + created.CommentID)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
