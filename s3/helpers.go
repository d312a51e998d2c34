package s3

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	PostImagePrefix    = "posts/"
	ProfileImagePrefix = "profiles/"
)

// PostImageKey is the object key of a post image.
func PostImageKey(userID, imageID string) string {
	return fmt.Sprintf("%s%s/%s.jpg", PostImagePrefix, userID, imageID)
}

// ProfileImageKey is the object key of one of a user's avatars. Each upload
// gets its own key so the current avatar survives a rejected replacement.
func ProfileImageKey(userID, imageID string) string {
	return fmt.Sprintf("%s%s/%s.jpg", ProfileImagePrefix, userID, imageID)
}

// AWSBaseURL is the public virtual-hosted URL of a bucket.
func AWSBaseURL(bucket, region string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region)
}

// Locator maps object keys to public URLs and back.
type Locator struct {
	baseURL string
}

func NewLocator(baseURL string) Locator {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return Locator{baseURL: baseURL}
}

func (l Locator) BaseURL() string {
	return l.baseURL
}

// URLForKey returns the public URL of key, escaping each path segment.
func (l Locator) URLForKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return l.baseURL + strings.Join(segments, "/")
}

// KeyFromURL returns the object key of a URL produced by URLForKey. It
// reports false for URLs outside the bucket.
func (l Locator) KeyFromURL(u string) (string, bool) {
	if !strings.HasPrefix(u, l.baseURL) {
		return "", false
	}

	key, err := url.PathUnescape(strings.TrimPrefix(u, l.baseURL))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
