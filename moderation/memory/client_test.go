package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/moderation/tests"
)

func TestMemoryClient(t *testing.T) {
	client := NewClient(true) // Always flagged
	tests.RunFlaggedModerationTests(t, client, func() {
		// No teardown logic needed
	})
	tests.RunFlaggedImageTests(t, client, func() {})

	client = NewClient(false) // Never flagged
	tests.RunUnflaggedModerationTests(t, client, func() {
		// No teardown logic needed
	})
	tests.RunUnflaggedImageTests(t, client, func() {})

	require.Equal(t, 2, client.Calls())
}

func TestFailingClient(t *testing.T) {
	client := NewFailingClient(errors.New("vendor down"))

	_, err := client.ClassifyText(context.Background(), "hello")
	require.EqualError(t, err, "vendor down")
}

func TestSlowClient(t *testing.T) {
	client := NewSlowClient(true, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.ClassifyText(ctx, "hello")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeywordClient(t *testing.T) {
	client := NewKeywordClient("profanity", "Shit", "damn")

	result, err := client.ClassifyText(context.Background(), "well DAMN")
	require.NoError(t, err)
	require.True(t, result.Flagged)
	require.Equal(t, "profanity", result.Reason)

	result, err = client.ClassifyText(context.Background(), "hello there")
	require.NoError(t, err)
	require.False(t, result.Flagged)

	result, err = client.ClassifyImage(context.Background(), "https://cdn.example.com/shit.jpg")
	require.NoError(t, err)
	require.True(t, result.Flagged)

	require.Equal(t, 3, client.Calls())
}
