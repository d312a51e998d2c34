package tests

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/edel-social/edel-server/notification"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s notification.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s notification.Store){
		testSend,
		testListNotifications,
		testMarkAsRead,
		testDeleteNotification,
	} {
		tf(t, s)
		teardown()
	}
}

// Push is a single recorded SendPushes call.
type Push struct {
	UserIDs []string
	Title   string
	Body    string
	Data    map[string]string
}

// RecordingPusher records pushes and optionally fails them.
type RecordingPusher struct {
	sync.Mutex

	Err    error
	pushes []Push
}

func (p *RecordingPusher) SendPushes(_ context.Context, userIDs []string, title, body string, data map[string]string) error {
	p.Lock()
	defer p.Unlock()

	p.pushes = append(p.pushes, Push{UserIDs: userIDs, Title: title, Body: body, Data: data})
	return p.Err
}

func (p *RecordingPusher) Pushes() []Push {
	p.Lock()
	defer p.Unlock()
	return append([]Push(nil), p.pushes...)
}

type serverEnv struct {
	client *testutil.Client
	issuer *auth.Issuer
	pusher *RecordingPusher
}

func newServerEnv(t *testing.T, s notification.Store) *serverEnv {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	env := &serverEnv{
		issuer: auth.NewIssuer("secret", time.Hour, revoked),
		pusher: &RecordingPusher{},
	}

	log := zaptest.NewLogger(t)
	notifier := notification.NewNotifier(log, s, env.pusher)
	serv := notification.NewServer(log, s, notifier, env.issuer)

	env.client = testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		serv.RegisterRoutes(r)
	}))
	return env
}

func (e *serverEnv) as(t *testing.T, userID string) *testutil.Client {
	token, err := e.issuer.Issue(userID, userID+"@example.com", userID, false)
	require.NoError(t, err)
	return e.client.WithToken(token)
}

type sendBody struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	NotificationID string `json:"notification_id"`
	PushSent       bool   `json:"push_sent"`
}

type notificationBody struct {
	NotificationID string            `json:"notification_id"`
	UserID         string            `json:"user_id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data"`
	IsRead         bool              `json:"is_read"`
	Type           string            `json:"type"`
}

type listBody struct {
	Notifications []notificationBody `json:"notifications"`
	Total         int                `json:"total"`
	UnreadCount   int                `json:"unread_count"`
}

func testSend(t *testing.T, s notification.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)
	sender := env.as(t, "sender")

	t.Run("Unauthenticated", func(t *testing.T) {
		resp := env.client.Post("/notifications/send", map[string]any{"user_id": "u", "title": "t", "body": "b"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, body := range []map[string]any{
			{"title": "t", "body": "b"},
			{"user_id": "u", "title": strings.Repeat("a", notification.MaxTitleLength+1), "body": "b"},
		} {
			resp := sender.Post("/notifications/send", body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(resp.Body))
		}
	})

	t.Run("Success", func(t *testing.T) {
		resp := sender.Post("/notifications/send", map[string]any{
			"user_id": "recipient",
			"title":   "Hello",
			"body":    "World",
			"data":    map[string]any{"type": "admin", "post_id": "post", "count": 3},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body sendBody
		resp.Decode(t, &body)
		assert.True(t, body.Success)
		assert.True(t, body.PushSent)
		require.NotEmpty(t, body.NotificationID)

		stored, err := s.GetNotification(ctx, body.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, "recipient", stored.UserID)
		assert.Equal(t, "admin", stored.Type)
		assert.Equal(t, "3", stored.Data["count"])

		pushes := env.pusher.Pushes()
		require.Len(t, pushes, 1)
		assert.Equal(t, []string{"recipient"}, pushes[0].UserIDs)
		assert.Equal(t, "Hello", pushes[0].Title)
		assert.Equal(t, body.NotificationID, pushes[0].Data["notification_id"])
		assert.Equal(t, "admin", pushes[0].Data["type"])
	})

	t.Run("Push Failure", func(t *testing.T) {
		env.pusher.Lock()
		env.pusher.Err = errors.New("fcm unavailable")
		env.pusher.Unlock()

		resp := sender.Post("/notifications/send", map[string]any{
			"user_id": "recipient",
			"title":   "Hello",
			"body":    "Again",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body sendBody
		resp.Decode(t, &body)
		assert.True(t, body.Success)
		assert.False(t, body.PushSent)

		stored, err := s.GetNotification(ctx, body.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notification.TypeGeneral, stored.Type)
	})
}

func seed(t *testing.T, s notification.Store, userID string, count int) []string {
	start := time.Now().Add(-time.Hour)

	var ids []string
	for i := 0; i < count; i++ {
		n := newNotification(userID, start.Add(time.Duration(i)*time.Minute))
		n.Title = fmt.Sprintf("notification %d", i)
		require.NoError(t, s.CreateNotification(context.Background(), n))
		ids = append(ids, n.ID)
	}
	return ids
}

func testListNotifications(t *testing.T, s notification.Store) {
	env := newServerEnv(t, s)
	user := env.as(t, "user")

	ids := seed(t, s, "user", 5)
	seed(t, s, "other", 2)

	_, err := s.MarkRead(context.Background(), "user", ids[:1])
	require.NoError(t, err)

	t.Run("Default", func(t *testing.T) {
		resp := user.Get("/notifications")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body listBody
		resp.Decode(t, &body)
		assert.Equal(t, 5, body.Total)
		assert.Equal(t, 4, body.UnreadCount)
		require.Len(t, body.Notifications, 5)
		assert.Equal(t, ids[4], body.Notifications[0].NotificationID)
		for _, n := range body.Notifications {
			assert.Equal(t, "user", n.UserID)
		}
	})

	t.Run("Paged", func(t *testing.T) {
		resp := user.Get("/notifications?limit=2&offset=3")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body listBody
		resp.Decode(t, &body)
		assert.Equal(t, 5, body.Total)
		require.Len(t, body.Notifications, 2)
		assert.Equal(t, ids[1], body.Notifications[0].NotificationID)
		assert.Equal(t, ids[0], body.Notifications[1].NotificationID)
	})

	t.Run("Unread Only", func(t *testing.T) {
		resp := user.Get("/notifications?unread_only=true")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body listBody
		resp.Decode(t, &body)
		assert.Equal(t, 4, body.Total)
		assert.Equal(t, 4, body.UnreadCount)
		for _, n := range body.Notifications {
			assert.False(t, n.IsRead)
		}
	})

	t.Run("Invalid Query", func(t *testing.T) {
		for _, q := range []string{"limit=0", "limit=101", "offset=-1", "unread_only=maybe", "limit=abc"} {
			resp := user.Get("/notifications?" + q)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		}
	})
}

func testMarkAsRead(t *testing.T, s notification.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)
	user := env.as(t, "user")

	mine := seed(t, s, "user", 2)
	theirs := seed(t, s, "other", 1)

	resp := user.Put("/notifications/mark-as-read", map[string]any{
		"notification_ids": append(mine, theirs...),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var body struct {
		UpdatedCount int `json:"updated_count"`
	}
	resp.Decode(t, &body)
	assert.Equal(t, 2, body.UpdatedCount)

	n, err := s.GetNotification(ctx, theirs[0])
	require.NoError(t, err)
	assert.False(t, n.IsRead)

	unread, err := s.CountUnread(ctx, "user")
	require.NoError(t, err)
	assert.Zero(t, unread)

	resp = user.Put("/notifications/mark-as-read", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func testDeleteNotification(t *testing.T, s notification.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)
	user := env.as(t, "user")
	other := env.as(t, "other")

	ids := seed(t, s, "user", 1)

	resp := user.Delete("/notifications/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = other.Delete("/notifications/"+ids[0], nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = user.Delete("/notifications/"+ids[0], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	_, err := s.GetNotification(ctx, ids[0])
	require.ErrorIs(t, err, notification.ErrNotFound)
}
