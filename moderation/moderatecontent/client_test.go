package moderatecontent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/moderation/tests"
)

func createMockServer(t *testing.T, status int, response any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ratingPath, r.URL.Path)
		assert.Equal(t, "dummy-api-key", r.Header.Get("API-KEY"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body["text"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
	}))
}

func TestMockModerateContentClient(t *testing.T) {
	flaggedServer := createMockServer(t, http.StatusOK, map[string]any{"rating": "adult"})
	defer flaggedServer.Close()

	unflaggedServer := createMockServer(t, http.StatusOK, map[string]any{"rating": "safe"})
	defer unflaggedServer.Close()

	tests.RunFlaggedModerationTests(t, NewClient("dummy-api-key", flaggedServer.URL), func() {})
	tests.RunUnflaggedModerationTests(t, NewClient("dummy-api-key", unflaggedServer.URL), func() {})

	result, err := NewClient("dummy-api-key", flaggedServer.URL).ClassifyText(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "adult", result.Reason)
}

func TestMockModerateContentClient_MissingRatingIsSafe(t *testing.T) {
	server := createMockServer(t, http.StatusOK, map[string]any{"error": ""})
	defer server.Close()

	result, err := NewClient("dummy-api-key", server.URL).ClassifyText(context.Background(), "hello")
	require.NoError(t, err)
	require.False(t, result.Flagged)
}

func TestMockModerateContentClient_Errors(t *testing.T) {
	server := createMockServer(t, http.StatusUnauthorized, map[string]any{"error": "invalid key"})
	defer server.Close()

	result, err := NewClient("dummy-api-key", server.URL).ClassifyText(context.Background(), "hello")
	require.Error(t, err)
	require.Nil(t, result)
}

// Test the real thing, requires a ModerateContent API key
func TestModerateContentClient(t *testing.T) {
	_ = godotenv.Load()

	apiKey := os.Getenv("MODERATECONTENT_API_KEY")
	if apiKey == "" {
		t.Skip("MODERATECONTENT_API_KEY is not set, skipping integration test")
	}

	client := NewClient(apiKey)

	tests.RunFlaggedModerationTests(t, client, func() {})
	tests.RunUnflaggedModerationTests(t, client, func() {})
}
