package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/s3"
)

func RunStoreTests(t *testing.T, s s3.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s s3.Store){
		testUploadAndDownload,
		testDownloadNonExistentKey,
		testOverwriteUpload,
		testDelete,
	} {
		tf(t, s)
		teardown()
	}
}

func testUploadAndDownload(t *testing.T, s s3.Store) {
	ctx := context.Background()

	key := s3.PostImageKey("user", "image")
	data := []byte("testData")

	err := s.Upload(ctx, key, data, "image/jpeg")
	require.NoError(t, err, "Upload should not return an error")

	retrievedData, err := s.Download(ctx, key)
	require.NoError(t, err, "Download should not return an error")
	require.Equal(t, data, retrievedData, "Downloaded data should match uploaded data")
}

func testDownloadNonExistentKey(t *testing.T, s s3.Store) {
	ctx := context.Background()

	data, err := s.Download(ctx, "nonExistentKey")
	require.ErrorIs(t, err, s3.ErrNotFound)
	require.Nil(t, data, "Downloaded data should be nil for non-existent key")
}

func testOverwriteUpload(t *testing.T, s s3.Store) {
	ctx := context.Background()

	key := s3.ProfileImageKey("user", "avatar")
	initialData := []byte("initialData")
	newData := []byte("newData")

	require.NoError(t, s.Upload(ctx, key, initialData, "image/jpeg"))
	require.NoError(t, s.Upload(ctx, key, newData, "image/jpeg"))

	retrievedData, err := s.Download(ctx, key)
	require.NoError(t, err, "Download after overwrite should not return an error")
	require.Equal(t, newData, retrievedData, "Downloaded data should match the new uploaded data")
}

func testDelete(t *testing.T, s s3.Store) {
	ctx := context.Background()

	key := s3.PostImageKey("user", "to-delete")
	require.NoError(t, s.Upload(ctx, key, []byte("data"), "image/jpeg"))

	require.NoError(t, s.Delete(ctx, key))

	_, err := s.Download(ctx, key)
	require.ErrorIs(t, err, s3.ErrNotFound)

	// Idempotent
	require.NoError(t, s.Delete(ctx, key))
}
