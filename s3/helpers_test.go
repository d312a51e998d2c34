package s3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	require.Equal(t, "posts/user-1/img-1.jpg", PostImageKey("user-1", "img-1"))
	require.Equal(t, "profiles/user-1/img-1.jpg", ProfileImageKey("user-1", "img-1"))
	require.Equal(t, "https://bucket.s3.us-east-1.amazonaws.com/", AWSBaseURL("bucket", "us-east-1"))
}

func TestLocator(t *testing.T) {
	l := NewLocator("https://cdn.example.com/media")
	require.Equal(t, "https://cdn.example.com/media/", l.BaseURL())

	u := l.URLForKey("posts/user 1/img.jpg")
	require.Equal(t, "https://cdn.example.com/media/posts/user%201/img.jpg", u)

	key, ok := l.KeyFromURL(u)
	require.True(t, ok)
	require.Equal(t, "posts/user 1/img.jpg", key)

	_, ok = l.KeyFromURL("https://elsewhere.example.com/posts/a.jpg")
	require.False(t, ok)

	_, ok = l.KeyFromURL("https://cdn.example.com/media/")
	require.False(t, ok)
}
