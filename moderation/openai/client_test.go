package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/moderation/tests"
)

func createMockServer(status int, response any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
	}))
}

func TestMockOpenAIClient(t *testing.T) {
	// create two mock servers that simulate the OpenAI moderation API.

	flaggedServer := createMockServer(http.StatusOK, map[string]any{
		"id":    "modr-1234567890",
		"model": "omni-moderation-latest",
		"results": []map[string]any{
			{"flagged": true, "categories": map[string]bool{"violence": true, "harassment": true}},
		},
	})
	defer flaggedServer.Close()

	unflaggedServer := createMockServer(http.StatusOK, map[string]any{
		"id":    "modr-0987654321",
		"model": "omni-moderation-latest",
		"results": []map[string]any{
			{"flagged": false}, // Never flagged
		},
	})
	defer unflaggedServer.Close()

	flaggedClient := NewClient("dummy-api-key", flaggedServer.URL)
	unflaggedClient := NewClient("dummy-api-key", unflaggedServer.URL)

	tests.RunFlaggedModerationTests(t, flaggedClient, func() {})
	tests.RunUnflaggedModerationTests(t, unflaggedClient, func() {})

	result, err := flaggedClient.ClassifyText(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, "violence", result.Reason)
}

func TestMockOpenAIClient_Request(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"flagged": false}}})
	}))
	defer server.Close()

	_, err := NewClient("secret", server.URL).ClassifyText(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "/v1/moderations", gotPath)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "omni-moderation-latest", gotBody["model"])
}

func TestMockOpenAIClient_Errors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		status   int
		response any
	}{
		{"non-200", http.StatusTooManyRequests, map[string]any{"error": "rate limited"}},
		{"empty results", http.StatusOK, map[string]any{"results": []any{}}},
		{"malformed", http.StatusOK, "not an object"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := createMockServer(tc.status, tc.response)
			defer server.Close()

			result, err := NewClient("dummy-api-key", server.URL).ClassifyText(context.Background(), "hello")
			require.Error(t, err)
			require.Nil(t, result)
		})
	}
}

// Test the real thing, requires an OpenAI API key
func TestOpenAIClient(t *testing.T) {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY is not set, skipping integration test")
	}

	client := NewClient(apiKey)

	tests.RunFlaggedModerationTests(t, client, func() {})
	tests.RunUnflaggedModerationTests(t, client, func() {})
}
