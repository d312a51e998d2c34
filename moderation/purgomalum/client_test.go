package purgomalum

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/moderation/tests"
)

var profanity = []string{"shit", "fuck", "asshole"}

// createMockServer answers like PurgoMalum for a small fixed word list.
func createMockServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, checkPath, r.URL.Path)

		text := strings.ToLower(r.URL.Query().Get("text"))
		for _, word := range profanity {
			if strings.Contains(text, word) {
				fmt.Fprint(w, "true")
				return
			}
		}
		fmt.Fprint(w, "false\n")
	}))
}

func TestMockPurgoMalumClient(t *testing.T) {
	server := createMockServer(t)
	defer server.Close()

	client := NewClient(server.URL)

	tests.RunFlaggedModerationTests(t, client, func() {})
	tests.RunUnflaggedModerationTests(t, client, func() {})

	result, err := client.ClassifyText(context.Background(), "buy cheap pills now")
	require.NoError(t, err)
	require.False(t, result.Flagged)
}

func TestMockPurgoMalumClient_Errors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "oops"},
		{"unexpected body", http.StatusOK, "<html>maintenance</html>"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			result, err := NewClient(server.URL).ClassifyText(context.Background(), "hello")
			require.Error(t, err)
			require.Nil(t, result)
		})
	}
}

// Test the real thing, opt in since it needs network access.
func TestPurgoMalumClient(t *testing.T) {
	if os.Getenv("PURGOMALUM_LIVE_TEST") == "" {
		t.Skip("PURGOMALUM_LIVE_TEST is not set, skipping integration test")
	}

	client := NewClient()

	tests.RunFlaggedModerationTests(t, client, func() {})
	tests.RunUnflaggedModerationTests(t, client, func() {})
}
