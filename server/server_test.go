package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	s3memory "github.com/edel-social/edel-server/s3/memory"
)

type testRoutes struct{}

func (testRoutes) RegisterRoutes(r gin.IRouter) {
	r.GET("/panic", func(*gin.Context) {
		panic("boom")
	})
	r.GET("/items/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	srv := httptest.NewServer(New(zaptest.NewLogger(t), []Routes{testRoutes{}}, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestServer_Info(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info map[string]string
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, Name, info["message"])
	assert.Equal(t, "running", info["status"])

	resp, body = get(t, srv.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "healthy", info["status"])
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/items/abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"abc"}`, string(body))

	resp, body = get(t, srv.URL+"/missing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Not found"}`, string(body))

	resp, body = get(t, srv.URL+"/panic")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, string(body))
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t)

	get(t, srv.URL+"/items/abc")

	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{code="200",method="GET",path="/items/:id"}`)
}

func TestServer_CORS(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/items/abc", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	req.Header.Set("Access-Control-Request-Headers", "authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Equal(t, "authorization", resp.Header.Get("Access-Control-Allow-Headers"))

	resp2, _ := get(t, srv.URL+"/items/abc")
	assert.Equal(t, "*", resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Objects(t *testing.T) {
	objects := s3memory.NewInMemory()
	require.NoError(t, objects.Upload(context.Background(), "posts/user/image.txt", []byte("hello"), "text/plain"))

	srv := newTestServer(t, WithObjects(objects))

	resp, body := get(t, srv.URL+"/objects/posts/user/image.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))

	resp, _ = get(t, srv.URL+"/objects/posts/user/missing.jpg")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Not served unless enabled
	plain := newTestServer(t)
	resp, _ = get(t, plain.URL+"/objects/posts/user/image.txt")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
