package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/blob"
	"github.com/edel-social/edel-server/model"
)

func RunStoreTests(t *testing.T, s blob.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s blob.Store){
		testCreateAndGet,
		testCreateDuplicate,
		testDelete,
	} {
		tf(t, s)
		teardown()
	}
}

func newBlob(userID string) *blob.Blob {
	id := model.MustGenerateID()
	key := "posts/" + userID + "/" + id + ".jpg"
	return &blob.Blob{
		ID:        id,
		UserID:    userID,
		Type:      blob.TypeImage,
		Key:       key,
		URL:       "https://bucket.example.com/" + key,
		Size:      12345,
		Width:     640,
		Height:    480,
		BlurHash:  "LEHV6nWB2yk8pyo0adR*.7kCMdnj",
		CreatedAt: time.Now(),
	}
}

func testCreateAndGet(t *testing.T, s blob.Store) {
	ctx := context.Background()

	testBlob := newBlob(model.MustGenerateID())

	// Attempt to retrieve a non-existent blob
	_, err := s.GetBlob(ctx, testBlob.ID)
	require.ErrorIs(t, err, blob.ErrNotFound)
	_, err = s.GetBlobByURL(ctx, testBlob.URL)
	require.ErrorIs(t, err, blob.ErrNotFound)

	require.NoError(t, s.CreateBlob(ctx, testBlob))

	// Retrieve and verify
	got, err := s.GetBlob(ctx, testBlob.ID)
	require.NoError(t, err)
	require.Equal(t, testBlob.UserID, got.UserID)
	require.Equal(t, testBlob.Type, got.Type)
	require.Equal(t, testBlob.Key, got.Key)
	require.Equal(t, testBlob.URL, got.URL)
	require.Equal(t, testBlob.Size, got.Size)
	require.Equal(t, testBlob.Width, got.Width)
	require.Equal(t, testBlob.Height, got.Height)
	require.Equal(t, testBlob.BlurHash, got.BlurHash)
	require.WithinDuration(t, testBlob.CreatedAt, got.CreatedAt, time.Second)

	byURL, err := s.GetBlobByURL(ctx, testBlob.URL)
	require.NoError(t, err)
	require.Equal(t, testBlob.ID, byURL.ID)
}

func testCreateDuplicate(t *testing.T, s blob.Store) {
	ctx := context.Background()

	testBlob := newBlob(model.MustGenerateID())
	require.NoError(t, s.CreateBlob(ctx, testBlob))

	// Creating again with the same ID should fail
	err := s.CreateBlob(ctx, testBlob)
	require.ErrorIs(t, err, blob.ErrExists)

	// As should another record for the same URL
	other := newBlob(testBlob.UserID)
	other.URL = testBlob.URL
	require.ErrorIs(t, s.CreateBlob(ctx, other), blob.ErrExists)
}

func testDelete(t *testing.T, s blob.Store) {
	ctx := context.Background()

	testBlob := newBlob(model.MustGenerateID())
	require.ErrorIs(t, s.DeleteBlob(ctx, testBlob.ID), blob.ErrNotFound)

	require.NoError(t, s.CreateBlob(ctx, testBlob))
	require.NoError(t, s.DeleteBlob(ctx, testBlob.ID))

	_, err := s.GetBlob(ctx, testBlob.ID)
	require.ErrorIs(t, err, blob.ErrNotFound)
	require.ErrorIs(t, s.DeleteBlob(ctx, testBlob.ID), blob.ErrNotFound)
}
