package image

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/testutil"
)

func TestProcess_Downscale(t *testing.T) {
	for _, tc := range []struct {
		name           string
		width, height  int
		expectedWidth  int
		expectedHeight int
	}{
		{"landscape", 3840, 2160, 1920, 1080},
		{"portrait", 1000, 4000, 480, 1920},
		{"small", 640, 480, 640, 480},
		{"exact", 1920, 1920, 1920, 1920},
	} {
		t.Run(tc.name, func(t *testing.T) {
			processed, err := Process(testutil.GeneratePNG(t, tc.width, tc.height))
			require.NoError(t, err)

			require.Equal(t, tc.expectedWidth, processed.Info.Width)
			require.Equal(t, tc.expectedHeight, processed.Info.Height)
			require.Equal(t, "png", processed.Info.SourceFormat)
			require.NotEmpty(t, processed.Info.BlurHash)

			decoded, format, err := image.Decode(bytes.NewReader(processed.Data))
			require.NoError(t, err)
			require.Equal(t, "jpeg", format)
			require.Equal(t, tc.expectedWidth, decoded.Bounds().Dx())
			require.Equal(t, tc.expectedHeight, decoded.Bounds().Dy())
		})
	}
}

func TestProcess_JPEG(t *testing.T) {
	processed, err := Process(testutil.GenerateJPEG(t, 100, 50))
	require.NoError(t, err)
	require.Equal(t, "jpeg", processed.Info.SourceFormat)
	require.Equal(t, 100, processed.Info.Width)

	_, err = jpeg.Decode(bytes.NewReader(processed.Data))
	require.NoError(t, err)
}

func TestProcess_Transparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{A: 0})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	processed, err := Process(buf.Bytes())
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(processed.Data))
	require.NoError(t, err)

	// Fully transparent pixels become white, not black.
	r, g, b, _ := decoded.At(4, 4).RGBA()
	require.Greater(t, r>>8, uint32(240))
	require.Greater(t, g>>8, uint32(240))
	require.Greater(t, b>>8, uint32(240))
}

func TestProcess_Invalid(t *testing.T) {
	_, err := Process(nil)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Process([]byte("definitely not an image"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
