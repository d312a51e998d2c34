package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edel-social/edel-server/account"
	accountmemory "github.com/edel-social/edel-server/account/memory"
	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/post"
	postmemory "github.com/edel-social/edel-server/post/memory"
	"github.com/edel-social/edel-server/report"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s report.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s report.Store){
		testCreateReport,
		testReview,
	} {
		tf(t, s)
		teardown()
	}
}

type serverEnv struct {
	client   *testutil.Client
	issuer   *auth.Issuer
	accounts account.Store
	posts    post.Store
}

func newServerEnv(t *testing.T, s report.Store) *serverEnv {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	env := &serverEnv{
		issuer:   auth.NewIssuer("secret", time.Hour, revoked),
		accounts: accountmemory.NewInMemory(),
		posts:    postmemory.NewInMemory(),
	}

	log := zaptest.NewLogger(t)
	serv := report.NewServer(log, s, env.posts, account.NewAuthorizer(log, env.accounts), env.issuer)
	env.client = testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		serv.RegisterRoutes(r)
	}))
	return env
}

func (e *serverEnv) newUser(t *testing.T, isAdmin bool) (string, *testutil.Client) {
	ctx := context.Background()

	id := model.MustGenerateID()
	email := id + "@example.com"
	now := time.Now()
	require.NoError(t, e.accounts.CreateUser(ctx, &account.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	token, err := e.issuer.Issue(id, email, "someone", isAdmin)
	require.NoError(t, err)
	return id, e.client.WithToken(token)
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

type reportBody struct {
	ReportID    string     `json:"report_id"`
	PostID      string     `json:"post_id"`
	ReportedBy  string     `json:"reported_by"`
	Reason      string     `json:"reason"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewedBy  *string    `json:"reviewed_by"`
}

type listBody struct {
	Reports      []reportBody `json:"reports"`
	Total        int          `json:"total"`
	PendingCount int          `json:"pending_count"`
}

func testCreateReport(t *testing.T, s report.Store) {
	ctx := context.Background()
	env := newServerEnv(t, s)

	authorID, _ := env.newUser(t, false)
	reporterID, reporter := env.newUser(t, false)
	p := env.newPost(t, authorID)

	path := "/reports/posts/" + p.ID

	t.Run("Unauthenticated", func(t *testing.T) {
		resp := env.client.Post(path, map[string]any{"reason": "spam"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Invalid Reason", func(t *testing.T) {
		resp := reporter.Post(path, map[string]any{"reason": "boring"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, resp.Detail(t), "hate_speech")
	})

	t.Run("Description Too Long", func(t *testing.T) {
		resp := reporter.Post(path, map[string]any{
			"reason":      "other",
			"description": strings.Repeat("a", report.MaxDescriptionLength+1),
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing Post", func(t *testing.T) {
		resp := reporter.Post("/reports/posts/"+model.MustGenerateID(), map[string]any{"reason": "spam"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Post not found", resp.Detail(t))
	})

	t.Run("Deleted Post", func(t *testing.T) {
		deleted := env.newPost(t, authorID)
		require.NoError(t, env.posts.SoftDelete(ctx, deleted.ID))

		resp := reporter.Post("/reports/posts/"+deleted.ID, map[string]any{"reason": "spam"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Report", func(t *testing.T) {
		resp := reporter.Post(path, map[string]any{
			"reason":      "harassment",
			"description": "  rude  ",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

		var body reportBody
		resp.Decode(t, &body)
		assert.NotEmpty(t, body.ReportID)
		assert.Equal(t, p.ID, body.PostID)
		assert.Equal(t, reporterID, body.ReportedBy)
		assert.Equal(t, report.ReasonHarassment, body.Reason)
		require.NotNil(t, body.Description)
		assert.Equal(t, "rude", *body.Description)
		assert.Equal(t, report.StatusPending, body.Status)
		assert.Nil(t, body.ReviewedAt)
		assert.Nil(t, body.ReviewedBy)

		stored, err := s.GetReport(ctx, body.ReportID)
		require.NoError(t, err)
		assert.Equal(t, report.StatusPending, stored.Status)
	})

	t.Run("Duplicate", func(t *testing.T) {
		resp := reporter.Post(path, map[string]any{"reason": "spam"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "You have already reported this post", resp.Detail(t))
	})
}

func testReview(t *testing.T, s report.Store) {
	env := newServerEnv(t, s)

	authorID, _ := env.newUser(t, false)
	_, reporter := env.newUser(t, false)
	adminID, admin := env.newUser(t, true)

	first := env.newPost(t, authorID)
	second := env.newPost(t, authorID)

	var reportIDs []string
	for _, p := range []*post.Post{first, second} {
		resp := reporter.Post("/reports/posts/"+p.ID, map[string]any{"reason": "spam"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body reportBody
		resp.Decode(t, &body)
		reportIDs = append(reportIDs, body.ReportID)
		time.Sleep(2 * time.Millisecond)
	}

	t.Run("Non Admin", func(t *testing.T) {
		for _, resp := range []*testutil.Response{
			reporter.Get("/reports"),
			reporter.Get("/reports/" + reportIDs[0]),
			reporter.Put("/reports/"+reportIDs[0]+"/status", map[string]any{"status": "reviewed"}),
		} {
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "Admin privileges required", resp.Detail(t))
		}
	})

	t.Run("List", func(t *testing.T) {
		resp := admin.Get("/reports")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var body listBody
		resp.Decode(t, &body)
		require.Len(t, body.Reports, 2)
		assert.Equal(t, 2, body.Total)
		assert.Equal(t, 2, body.PendingCount)
		assert.Equal(t, reportIDs[1], body.Reports[0].ReportID)
		assert.Equal(t, reportIDs[0], body.Reports[1].ReportID)

		resp = admin.Get("/reports?status=closed")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Get", func(t *testing.T) {
		resp := admin.Get("/reports/" + reportIDs[0])
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body reportBody
		resp.Decode(t, &body)
		assert.Equal(t, first.ID, body.PostID)

		resp = admin.Get("/reports/" + model.MustGenerateID())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Update Status", func(t *testing.T) {
		path := "/reports/" + reportIDs[0] + "/status"

		resp := admin.Put(path, map[string]any{"status": "pending"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = admin.Put("/reports/"+model.MustGenerateID()+"/status", map[string]any{"status": "reviewed"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = admin.Put(path, map[string]any{"status": "resolved"})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

		var updated struct {
			ReportID  string `json:"report_id"`
			NewStatus string `json:"new_status"`
		}
		resp.Decode(t, &updated)
		assert.Equal(t, reportIDs[0], updated.ReportID)
		assert.Equal(t, report.StatusResolved, updated.NewStatus)

		resp = admin.Get("/reports/" + reportIDs[0])
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body reportBody
		resp.Decode(t, &body)
		assert.Equal(t, report.StatusResolved, body.Status)
		assert.NotNil(t, body.ReviewedAt)
		require.NotNil(t, body.ReviewedBy)
		assert.Equal(t, adminID, *body.ReviewedBy)
	})

	t.Run("Filtered List", func(t *testing.T) {
		resp := admin.Get("/reports?status=pending")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body listBody
		resp.Decode(t, &body)
		require.Len(t, body.Reports, 1)
		assert.Equal(t, reportIDs[1], body.Reports[0].ReportID)
		assert.Equal(t, 1, body.Total)
		assert.Equal(t, 1, body.PendingCount)
	})

	t.Run("Revoked Admin", func(t *testing.T) {
		require.NoError(t, env.accounts.SetAdmin(context.Background(), adminID, false))

		resp := admin.Get("/reports")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
