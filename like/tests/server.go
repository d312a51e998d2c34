package tests

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/event"
	"github.com/edel-social/edel-server/like"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/post"
	postmemory "github.com/edel-social/edel-server/post/memory"
	"github.com/edel-social/edel-server/profile"
	profilememory "github.com/edel-social/edel-server/profile/memory"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s like.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s like.Store){
		testLikeAndUnlike,
		testMissingPost,
	} {
		tf(t, s)
		teardown()
	}
}

type received struct {
	key   string
	event *event.ActivityEvent
}

type serverEnv struct {
	client   *testutil.Client
	issuer   *auth.Issuer
	posts    post.Store
	profiles profile.Store
	bus      *event.ActivityBus

	mu     sync.Mutex
	events []received
}

func newServerEnv(t *testing.T, s like.Store) *serverEnv {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	env := &serverEnv{
		issuer:   auth.NewIssuer("secret", time.Hour, revoked),
		posts:    postmemory.NewInMemory(),
		profiles: profilememory.NewInMemory(),
		bus:      event.NewActivityBus(),
	}
	env.bus.AddHandler(event.HandlerFunc[string, *event.ActivityEvent](func(key string, e *event.ActivityEvent) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.events = append(env.events, received{key: key, event: e})
	}))

	serv := like.NewServer(zaptest.NewLogger(t), s, env.posts, env.profiles, env.bus, env.issuer)
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

func (e *serverEnv) received() []received {
	e.bus.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]received(nil), e.events...)
}

type likeBody struct {
	Message    string `json:"message"`
	PostID     string `json:"post_id"`
	LikesCount int    `json:"likes_count"`
	UserLiked  bool   `json:"user_liked"`
}

func testLikeAndUnlike(t *testing.T, s like.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	authorID, author := env.newUser(t, "author")
	fanID, fan := env.newUser(t, "fan")
	p := env.newPost(t, authorID)

	path := "/likes/posts/" + p.ID

	t.Run("Unauthenticated", func(t *testing.T) {
		resp := env.client.Post(path, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Like", func(t *testing.T) {
		resp := fan.Post(path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body likeBody
		resp.Decode(t, &body)
		assert.Equal(t, p.ID, body.PostID)
		assert.Equal(t, 1, body.LikesCount)
		assert.True(t, body.UserLiked)

		events := env.received()
		require.Len(t, events, 1)
		assert.Equal(t, authorID, events[0].key)
		assert.Equal(t, event.ActivityLike, events[0].event.Type)
		assert.Equal(t, fanID, events[0].event.ActorID)
		assert.Equal(t, "fan", events[0].event.Alias)
	})

	t.Run("Like Twice", func(t *testing.T) {
		resp := fan.Post(path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body likeBody
		resp.Decode(t, &body)
		assert.Equal(t, 1, body.LikesCount)
		assert.True(t, body.UserLiked)
		assert.Len(t, env.received(), 1)
	})

	t.Run("Self Like", func(t *testing.T) {
		resp := author.Post(path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body likeBody
		resp.Decode(t, &body)
		assert.Equal(t, 2, body.LikesCount)

		// Authors aren't notified about their own likes
		assert.Len(t, env.received(), 1)
	})

	t.Run("Status", func(t *testing.T) {
		resp := fan.Get(path + "/status")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body likeBody
		resp.Decode(t, &body)
		assert.True(t, body.UserLiked)
		assert.Equal(t, 2, body.LikesCount)
	})

	t.Run("Unlike", func(t *testing.T) {
		resp := fan.Delete(path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body likeBody
		resp.Decode(t, &body)
		assert.Equal(t, 1, body.LikesCount)
		assert.False(t, body.UserLiked)

		// Unliking again doesn't go below the real count
		resp = fan.Delete(path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Decode(t, &body)
		assert.Equal(t, 1, body.LikesCount)

		stored, err := env.posts.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.LikesCount)

		resp = fan.Get(path + "/status")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Decode(t, &body)
		assert.False(t, body.UserLiked)
	})
}

func testMissingPost(t *testing.T, s like.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	authorID, _ := env.newUser(t, "author")
	_, fan := env.newUser(t, "fan")

	deleted := env.newPost(t, authorID)
	require.NoError(t, env.posts.SoftDelete(ctx, deleted.ID))

	for _, id := range []string{"missing", deleted.ID} {
		path := "/likes/posts/" + id

		resp := fan.Post(path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = fan.Delete(path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = fan.Get(path + "/status")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}
