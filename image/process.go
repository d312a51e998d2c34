package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // Register GIF format
	"image/jpeg"
	_ "image/png" // Register PNG format

	"github.com/buckket/go-blurhash"
	"github.com/nfnt/resize"
)

const (
	// Define BlurHash components (commonly 4x4 or 9x4)
	componentsX = 4
	componentsY = 4

	// MaxDimension bounds the long edge of a processed image.
	MaxDimension = 1920
	JPEGQuality  = 85

	ContentType = "image/jpeg"
)

var (
	ErrEmpty             = errors.New("image data is empty")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Info describes a processed image.
type Info struct {
	Width    int
	Height   int
	BlurHash string

	// SourceFormat is the format the upload was decoded from.
	SourceFormat string
}

type Processed struct {
	Data []byte
	Info Info
}

// Process decodes imageData, downscales it so neither edge exceeds
// MaxDimension, flattens any transparency onto white and re-encodes it as
// JPEG.
func Process(imageData []byte) (*Processed, error) {
	if len(imageData) == 0 {
		return nil, ErrEmpty
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedFormat
	} else if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = fit(img, MaxDimension)
	img = flatten(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	blurhashStr, err := blurhash.Encode(componentsX, componentsY, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode blurhash: %w", err)
	}

	bounds := img.Bounds()
	return &Processed{
		Data: buf.Bytes(),
		Info: Info{
			Width:        bounds.Dx(),
			Height:       bounds.Dy(),
			BlurHash:     blurhashStr,
			SourceFormat: format,
		},
	}, nil
}

// fit scales img down, preserving aspect ratio, so its long edge is at most
// maxDim. Smaller images are returned as is.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img
	}

	if width >= height {
		return resize.Resize(uint(maxDim), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(maxDim), img, resize.Lanczos3)
}

func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}
