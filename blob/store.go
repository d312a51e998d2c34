package blob

import (
	"context"
	"errors"
	"time"
)

var (
	ErrExists   = errors.New("blob already exists")
	ErrNotFound = errors.New("blob not found")
)

type Type int

const (
	TypeUnknown Type = iota
	TypeImage
)

func (t Type) String() string {
	switch t {
	case TypeImage:
		return "image"
	default:
		return "unknown"
	}
}

// Blob is the record of an object uploaded to object storage.
type Blob struct {
	ID     string
	UserID string
	Type   Type

	// Key is the object key, URL its public location.
	Key string
	URL string

	Size     int64
	Width    int
	Height   int
	BlurHash string

	CreatedAt time.Time
}

// Clone creates a deep copy
func (b *Blob) Clone() *Blob {
	cloned := *b
	return &cloned
}

// Store is an interface for blob operations
type Store interface {
	// CreateBlob returns ErrExists if a blob with the same id or url exists.
	CreateBlob(ctx context.Context, blob *Blob) error

	GetBlob(ctx context.Context, id string) (*Blob, error)

	GetBlobByURL(ctx context.Context, url string) (*Blob, error)

	// DeleteBlob returns ErrNotFound if there is no such blob.
	DeleteBlob(ctx context.Context, id string) error
}
