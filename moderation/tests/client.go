package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/moderation"
)

const (
	// Using the "Cain slaying Abel" painting by Peter Paul Rubens
	// as a test image for violence
	// https://en.wikipedia.org/wiki/Violence
	FlaggedImageURL = "https://upload.wikimedia.org/wikipedia/commons/5/51/Peter_Paul_Rubens_-_Cain_slaying_Abel_%28Courtauld_Institute%29.jpg"

	// Using the "standard" test image "Lenna"
	// https://en.wikipedia.org/wiki/Lenna
	UnflaggedImageURL = "https://upload.wikimedia.org/wikipedia/en/7/7d/Lenna_%28test_image%29.png"
)

func RunFlaggedModerationTests(t *testing.T, client moderation.Client, teardown func()) {
	for _, tf := range []func(t *testing.T, client moderation.Client){
		testFlaggedTextClassification,
	} {
		tf(t, client)
		teardown()
	}
}

func RunUnflaggedModerationTests(t *testing.T, client moderation.Client, teardown func()) {
	for _, tf := range []func(t *testing.T, client moderation.Client){
		testUnflaggedTextClassification,
	} {
		tf(t, client)
		teardown()
	}
}

func RunFlaggedImageTests(t *testing.T, client moderation.ImageClient, teardown func()) {
	for _, tf := range []func(t *testing.T, client moderation.ImageClient){
		testFlaggedImageClassification,
	} {
		tf(t, client)
		teardown()
	}
}

func RunUnflaggedImageTests(t *testing.T, client moderation.ImageClient, teardown func()) {
	for _, tf := range []func(t *testing.T, client moderation.ImageClient){
		testUnflaggedImageClassification,
	} {
		tf(t, client)
		teardown()
	}
}

func testFlaggedTextClassification(t *testing.T, client moderation.Client) {
	t.Run("Flagged text", func(t *testing.T) {
		result, err := client.ClassifyText(context.Background(), "I am going to kill you, you worthless shit.")
		require.NoError(t, err)
		require.True(t, result.Flagged, "expected text to be flagged")
	})
}

func testUnflaggedTextClassification(t *testing.T, client moderation.Client) {
	t.Run("Non-flagged text", func(t *testing.T) {
		result, err := client.ClassifyText(context.Background(), "This is a friendly text.")
		require.NoError(t, err)
		require.False(t, result.Flagged, "expected text not to be flagged")
	})
}

func testFlaggedImageClassification(t *testing.T, client moderation.ImageClient) {
	t.Run("Flagged image", func(t *testing.T) {
		result, err := client.ClassifyImage(context.Background(), FlaggedImageURL)
		require.NoError(t, err)
		require.True(t, result.Flagged, "expected image to be flagged")
	})
}

func testUnflaggedImageClassification(t *testing.T, client moderation.ImageClient) {
	t.Run("Non-flagged image", func(t *testing.T) {
		result, err := client.ClassifyImage(context.Background(), UnflaggedImageURL)
		require.NoError(t, err)
		require.False(t, result.Flagged, "expected image not to be flagged")
	})
}
