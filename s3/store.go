package s3

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

// Store uploads and manages objects in a bucket.
type Store interface {
	// Upload stores data at key, replacing any existing object.
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Download returns the object stored at key, or ErrNotFound.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
