package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateJPEG returns a width x height gradient encoded as JPEG.
func GenerateJPEG(t *testing.T, width, height int) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(width, height), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// GeneratePNG returns a width x height gradient encoded as PNG.
func GeneratePNG(t *testing.T, width, height int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(width, height)))
	return buf.Bytes()
}

func gradient(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(255 * x / max(width, 1)),
				G: uint8(255 * y / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}
