package blob_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/blob"
	blobmemory "github.com/edel-social/edel-server/blob/memory"
	"github.com/edel-social/edel-server/image"
	"github.com/edel-social/edel-server/moderation"
	moderationmemory "github.com/edel-social/edel-server/moderation/memory"
	"github.com/edel-social/edel-server/s3"
	s3memory "github.com/edel-social/edel-server/s3/memory"
	"github.com/edel-social/edel-server/testutil"
)

type env struct {
	store    blob.Store
	objects  s3.Store
	locator  s3.Locator
	uploader *blob.Uploader
}

func newEnv(imageClient moderation.ImageClient) *env {
	var checker *moderation.ImageChecker
	if imageClient != nil {
		checker = &moderation.ImageChecker{
			Name:    moderation.CheckerSightengine,
			Timeout: time.Second,
			Client:  imageClient,
		}
	}

	e := &env{
		store:   blobmemory.NewInMemory(),
		objects: s3memory.NewInMemory(),
		locator: s3.NewLocator("https://media.example.com/"),
	}
	moderator := moderation.NewModerator(zap.NewNop(), nil, checker)
	e.uploader = blob.NewUploader(zap.NewNop(), e.store, e.objects, e.locator, moderator)
	return e
}

func TestUploadImage_Approved(t *testing.T) {
	ctx := context.Background()
	e := newEnv(moderationmemory.NewClient(false))

	key := s3.PostImageKey("user-1", "img-1")
	b, verdict, err := e.uploader.UploadImage(ctx, "user-1", key, testutil.GeneratePNG(t, 2400, 1200))
	require.NoError(t, err)
	require.True(t, verdict.IsSafe)
	require.NotNil(t, b)

	require.Equal(t, "user-1", b.UserID)
	require.Equal(t, blob.TypeImage, b.Type)
	require.Equal(t, key, b.Key)
	require.Equal(t, "https://media.example.com/posts/user-1/img-1.jpg", b.URL)
	require.Equal(t, image.MaxDimension, b.Width)
	require.Equal(t, 960, b.Height)
	require.NotEmpty(t, b.BlurHash)

	stored, err := e.objects.Download(ctx, key)
	require.NoError(t, err)
	require.EqualValues(t, len(stored), b.Size)

	got, err := e.store.GetBlobByURL(ctx, b.URL)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
}

func TestUploadImage_RejectedIsRemoved(t *testing.T) {
	ctx := context.Background()
	e := newEnv(moderationmemory.NewFlaggingClient("image contains weapons"))

	key := s3.PostImageKey("user-1", "img-2")
	b, verdict, err := e.uploader.UploadImage(ctx, "user-1", key, testutil.GenerateJPEG(t, 100, 100))
	require.NoError(t, err)
	require.Nil(t, b)
	require.False(t, verdict.IsSafe)
	require.Equal(t, "image contains weapons", verdict.Reason)
	require.Equal(t, []string{moderation.CheckerSightengine}, verdict.FlaggedBy)

	_, err = e.objects.Download(ctx, key)
	require.ErrorIs(t, err, s3.ErrNotFound)
	require.Empty(t, s3memory.Keys(e.objects))

	_, err = e.store.GetBlobByURL(ctx, e.locator.URLForKey(key))
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestUploadImage_ModerationUnavailable(t *testing.T) {
	e := newEnv(nil)

	b, verdict, err := e.uploader.UploadImage(context.Background(), "user-1", s3.ProfileImageKey("user-1", "avatar"), testutil.GenerateJPEG(t, 10, 10))
	require.NoError(t, err)
	require.NotNil(t, b)
	require.True(t, verdict.IsSafe)
	require.Equal(t, moderation.ReasonImageModerationUnavailable, verdict.Reason)
}

func TestUploadImage_ReusedKey(t *testing.T) {
	ctx := context.Background()
	e := newEnv(moderationmemory.NewClient(false))

	key := s3.ProfileImageKey("user-1", "avatar")
	first, _, err := e.uploader.UploadImage(ctx, "user-1", key, testutil.GenerateJPEG(t, 10, 10))
	require.NoError(t, err)

	second, _, err := e.uploader.UploadImage(ctx, "user-1", key, testutil.GenerateJPEG(t, 20, 20))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, first.URL, second.URL)

	_, err = e.store.GetBlob(ctx, first.ID)
	require.ErrorIs(t, err, blob.ErrNotFound)
	require.Len(t, s3memory.Keys(e.objects), 1)
}

func TestRemoveByURL(t *testing.T) {
	ctx := context.Background()
	e := newEnv(moderationmemory.NewClient(false))

	b, _, err := e.uploader.UploadImage(ctx, "user-1", s3.ProfileImageKey("user-1", "old"), testutil.GenerateJPEG(t, 10, 10))
	require.NoError(t, err)

	e.uploader.RemoveByURL(ctx, "https://elsewhere.example.com/me.jpg")
	require.Len(t, s3memory.Keys(e.objects), 1)

	e.uploader.RemoveByURL(ctx, b.URL)
	require.Empty(t, s3memory.Keys(e.objects))

	_, err = e.store.GetBlob(ctx, b.ID)
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestUploadImage_InvalidData(t *testing.T) {
	e := newEnv(moderationmemory.NewClient(false))

	_, _, err := e.uploader.UploadImage(context.Background(), "user-1", "posts/user-1/x.jpg", []byte("not an image"))
	require.ErrorIs(t, err, image.ErrUnsupportedFormat)

	_, _, err = e.uploader.UploadImage(context.Background(), "user-1", "posts/user-1/x.jpg", nil)
	require.ErrorIs(t, err, image.ErrEmpty)
	require.Empty(t, s3memory.Keys(e.objects))
}

func TestServer_GetInfo(t *testing.T) {
	e := newEnv(moderationmemory.NewClient(false))

	b, _, err := e.uploader.UploadImage(context.Background(), "user-1", s3.PostImageKey("user-1", "img"), testutil.GenerateJPEG(t, 64, 32))
	require.NoError(t, err)

	server := blob.NewServer(zap.NewNop(), e.store)
	client := testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		server.RegisterRoutes(r)
	}))

	resp := client.Get("/media/" + b.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID       string `json:"id"`
		UserID   string `json:"user_id"`
		Type     string `json:"type"`
		URL      string `json:"url"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		BlurHash string `json:"blur_hash"`
	}
	resp.Decode(t, &body)
	require.Equal(t, b.ID, body.ID)
	require.Equal(t, "user-1", body.UserID)
	require.Equal(t, "image", body.Type)
	require.Equal(t, b.URL, body.URL)
	require.Equal(t, 64, body.Width)
	require.Equal(t, 32, body.Height)
	require.Equal(t, b.BlurHash, body.BlurHash)

	resp = client.Get("/media/missing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Media not found", resp.Detail(t))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(moderationmemory.NewClient(false))

	b, _, err := e.uploader.UploadImage(ctx, "user-1", s3.PostImageKey("user-1", "img"), testutil.GenerateJPEG(t, 10, 10))
	require.NoError(t, err)

	e.uploader.Remove(ctx, b)
	require.Empty(t, s3memory.Keys(e.objects))

	_, err = e.store.GetBlob(ctx, b.ID)
	require.ErrorIs(t, err, blob.ErrNotFound)

	// Removing twice only logs
	e.uploader.Remove(ctx, b)
}
