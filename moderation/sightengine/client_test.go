package sightengine

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
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/moderation/tests"
)

func createMockServer(t *testing.T, textResponse, imageResponse any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "user", q.Get("api_user"))
		assert.Equal(t, "secret", q.Get("api_secret"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case textPath:
			assert.Equal(t, textCategories, q.Get("categories"))
			assert.Equal(t, textLanguages, q.Get("lang"))
			json.NewEncoder(w).Encode(textResponse)
		case imagePath:
			assert.Equal(t, imageModels, q.Get("models"))
			assert.NotEmpty(t, q.Get("url"))
			json.NewEncoder(w).Encode(imageResponse)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

var (
	safeText = map[string]any{
		"status":    "success",
		"profanity": map[string]any{"matches": []any{}},
		"personal":  map[string]any{"matches": []any{}},
	}
	profaneText = map[string]any{
		"status": "success",
		"profanity": map[string]any{"matches": []any{
			map[string]any{"type": "inappropriate", "match": "shit", "intensity": "medium"},
		}},
		"personal": map[string]any{"matches": []any{}},
	}
	safeImage = map[string]any{
		"status":    "success",
		"nudity":    map[string]any{"sexual_activity": 0.01, "sexual_display": 0.01},
		"weapon":    0.01,
		"offensive": map[string]any{"prob": 0.01},
		"gore":      map[string]any{"prob": 0.01},
	}
	goreImage = map[string]any{
		"status":    "success",
		"nudity":    map[string]any{"sexual_activity": 0.01, "sexual_display": 0.01},
		"weapon":    0.2,
		"offensive": map[string]any{"prob": 0.1},
		"gore":      map[string]any{"prob": 0.93},
	}
)

func TestMockSightengineClient(t *testing.T) {
	flaggedServer := createMockServer(t, profaneText, goreImage)
	defer flaggedServer.Close()

	unflaggedServer := createMockServer(t, safeText, safeImage)
	defer unflaggedServer.Close()

	flaggedClient := NewClient(zap.NewNop(), "user", "secret", flaggedServer.URL)
	unflaggedClient := NewClient(zap.NewNop(), "user", "secret", unflaggedServer.URL)

	tests.RunFlaggedModerationTests(t, flaggedClient, func() {})
	tests.RunFlaggedImageTests(t, flaggedClient, func() {})
	tests.RunUnflaggedModerationTests(t, unflaggedClient, func() {})
	tests.RunUnflaggedImageTests(t, unflaggedClient, func() {})

	result, err := flaggedClient.ClassifyImage(context.Background(), tests.FlaggedImageURL)
	require.NoError(t, err)
	require.Equal(t, ReasonGore, result.Reason)
}

func TestMockSightengineClient_PersonalInfoIsNotFlagged(t *testing.T) {
	server := createMockServer(t, map[string]any{
		"status":    "success",
		"profanity": map[string]any{"matches": []any{}},
		"personal": map[string]any{"matches": []any{
			map[string]any{"type": "email", "match": "someone@example.com"},
		}},
	}, safeImage)
	defer server.Close()

	result, err := NewClient(zap.NewNop(), "user", "secret", server.URL).ClassifyText(context.Background(), "mail me at someone@example.com")
	require.NoError(t, err)
	require.False(t, result.Flagged)
}

func TestMockSightengineClient_Errors(t *testing.T) {
	failure := map[string]any{
		"status": "failure",
		"error":  map[string]any{"type": "usage_limit", "message": "daily usage limit reached"},
	}
	server := createMockServer(t, failure, failure)
	defer server.Close()

	client := NewClient(zap.NewNop(), "user", "secret", server.URL)

	_, err := client.ClassifyText(context.Background(), "hello")
	require.ErrorContains(t, err, "daily usage limit reached")

	_, err = client.ClassifyImage(context.Background(), tests.UnflaggedImageURL)
	require.ErrorContains(t, err, "daily usage limit reached")

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	_, err = NewClient(zap.NewNop(), "user", "secret", down.URL).ClassifyText(context.Background(), "hello")
	require.Error(t, err)
}

// Test the real thing, requires Sightengine credentials
func TestSightengineClient(t *testing.T) {
	_ = godotenv.Load()

	apiUser := os.Getenv("SIGHTENGINE_API_USER")
	apiSecret := os.Getenv("SIGHTENGINE_API_SECRET")
	if apiUser == "" || apiSecret == "" {
		t.Skip("SIGHTENGINE_API_USER or SIGHTENGINE_API_SECRET is not set, skipping integration test")
	}

	client := NewClient(zap.Must(zap.NewDevelopment()), apiUser, apiSecret)

	tests.RunFlaggedModerationTests(t, client, func() {})
	tests.RunUnflaggedModerationTests(t, client, func() {})
	tests.RunUnflaggedImageTests(t, client, func() {})
}
