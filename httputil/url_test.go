package httputil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsHTTPURL(t *testing.T) {
	for _, valid := range []string{"http://example.com/a.jpg", "https://cdn.example.com/posts/1.jpg?x=1"} {
		require.True(t, IsHTTPURL(valid), valid)
	}
	for _, invalid := range []string{"", "example.com/a.jpg", "ftp://example.com/a.jpg", "https://", "javascript:alert(1)"} {
		require.False(t, IsHTTPURL(invalid), invalid)
	}
}
