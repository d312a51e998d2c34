package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/moderation"
)

func purgoMalumServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text := strings.ToLower(r.URL.Query().Get("text"))
		fmt.Fprint(w, strings.Contains(text, "shit"))
	}))
}

func TestNew_Enablement(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cfg      moderation.Config
		expected []string
		image    bool
	}{
		{
			name:     "no credentials",
			expected: []string{moderation.CheckerPurgoMalum},
		},
		{
			name: "all credentials",
			cfg: moderation.Config{
				ModerateContentAPIKey: "mc",
				OpenAIAPIKey:          "oa",
				SightengineAPIUser:    "user",
				SightengineAPISecret:  "secret",
			},
			expected: []string{
				moderation.CheckerPurgoMalum,
				moderation.CheckerModerateContent,
				moderation.CheckerOpenAI,
				moderation.CheckerSightengine,
			},
			image: true,
		},
		{
			name:     "sightengine needs both user and secret",
			cfg:      moderation.Config{OpenAIAPIKey: "oa", SightengineAPIUser: "user"},
			expected: []string{moderation.CheckerPurgoMalum, moderation.CheckerOpenAI},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := New(zap.NewNop(), tc.cfg)
			require.Equal(t, tc.expected, m.Checkers())
			require.Equal(t, tc.image, m.ImageEnabled())
		})
	}
}

func TestModerateText_OnlyPurgoMalum(t *testing.T) {
	server := purgoMalumServer(t)
	defer server.Close()

	m := New(zap.NewNop(), moderation.Config{PurgoMalumURL: server.URL})

	verdict := m.ModerateText(context.Background(), "this is shit")
	require.False(t, verdict.IsSafe)
	require.Equal(t, []string{moderation.CheckerPurgoMalum}, verdict.FlaggedBy)
	require.Equal(t, ReasonPurgoMalum, verdict.Reason)

	verdict = m.ModerateText(context.Background(), "buy cheap pills now")
	require.True(t, verdict.IsSafe)
	require.Empty(t, verdict.FlaggedBy)
	require.Empty(t, verdict.Reason)
}

func TestModerateText_AllVendors(t *testing.T) {
	purgo := purgoMalumServer(t)
	defer purgo.Close()

	moderateContent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer moderateContent.Close()

	openAI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"flagged": true}}})
	}))
	defer openAI.Close()

	sightengine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "success",
			"profanity": map[string]any{"matches": []any{map[string]any{"type": "inappropriate"}}},
		})
	}))
	defer sightengine.Close()

	m := New(zap.NewNop(), moderation.Config{
		ModerateContentAPIKey: "mc",
		OpenAIAPIKey:          "oa",
		SightengineAPIUser:    "user",
		SightengineAPISecret:  "secret",
		PurgoMalumURL:         purgo.URL,
		ModerateContentURL:    moderateContent.URL,
		OpenAIURL:             openAI.URL,
		SightengineURL:        sightengine.URL,
	})

	// ModerateContent is down and fails open, PurgoMalum finds nothing.
	verdict := m.ModerateText(context.Background(), "hello there")
	require.False(t, verdict.IsSafe)
	require.Equal(t, []string{moderation.CheckerOpenAI, moderation.CheckerSightengine}, verdict.FlaggedBy)
	require.Equal(t, ReasonOpenAI, verdict.Reason)
}

func TestModerateImage_Unavailable(t *testing.T) {
	m := New(zap.NewNop(), moderation.Config{})

	verdict := m.ModerateImage(context.Background(), "https://cdn.example.com/posts/u/1.jpg")
	require.True(t, verdict.IsSafe)
	require.Equal(t, moderation.ReasonImageModerationUnavailable, verdict.Reason)
	require.NotNil(t, verdict.FlaggedBy)
	require.Empty(t, verdict.FlaggedBy)
}

func TestModerateImage_Sightengine(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"nudity": map[string]any{"sexual_activity": 0.02, "sexual_display": 0.01},
			"weapon": 0.95,
		})
	}))
	defer server.Close()

	m := New(zap.NewNop(), moderation.Config{
		SightengineAPIUser:   "user",
		SightengineAPISecret: "secret",
		SightengineURL:       server.URL,
	})

	verdict := m.ModerateImage(context.Background(), "https://cdn.example.com/posts/u/1.jpg")
	require.False(t, verdict.IsSafe)
	require.Equal(t, []string{moderation.CheckerSightengine}, verdict.FlaggedBy)
	require.Equal(t, "image contains weapons", verdict.Reason)
	require.EqualValues(t, 1, calls.Load())
}
