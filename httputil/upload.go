package httputil

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxImageSize bounds image uploads.
const MaxImageSize = 5 << 20

var (
	ErrMissingFile = errors.New("file is required")
	ErrNotAnImage  = errors.New("file must be an image")
	ErrTooLarge    = errors.New("image cannot be larger than 5MB")
)

// ReadImage reads the multipart file in field, enforcing an image/* content
// type and maxSize.
func ReadImage(c *gin.Context, field string, maxSize int64) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, ErrMissingFile
	}

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return nil, ErrNotAnImage
	}
	if header.Size > maxSize {
		return nil, ErrTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// IsUploadError reports whether err is a client error from ReadImage.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrMissingFile) || errors.Is(err, ErrNotAnImage) || errors.Is(err, ErrTooLarge)
}
