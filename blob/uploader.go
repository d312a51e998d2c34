package blob

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edel-social/edel-server/image"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/s3"
)

// Uploader normalises images, stores them and runs image moderation on the
// stored copy.
type Uploader struct {
	log       *zap.Logger
	store     Store
	objects   s3.Store
	locator   s3.Locator
	moderator moderation.Service
}

func NewUploader(log *zap.Logger, store Store, objects s3.Store, locator s3.Locator, moderator moderation.Service) *Uploader {
	return &Uploader{
		log:       log,
		store:     store,
		objects:   objects,
		locator:   locator,
		moderator: moderator,
	}
}

// UploadImage processes raw, uploads it at key and moderates it. A rejected
// image is removed again and only the verdict is returned. Errors from
// image.Process are returned unwrapped so callers can map them.
func (u *Uploader) UploadImage(ctx context.Context, userID, key string, raw []byte) (*Blob, *moderation.Verdict, error) {
	processed, err := image.Process(raw)
	if err != nil {
		return nil, nil, err
	}

	if err := u.objects.Upload(ctx, key, processed.Data, image.ContentType); err != nil {
		return nil, nil, err
	}

	url := u.locator.URLForKey(key)

	// A reused key replaces the object, so the previous record for the URL goes.
	if existing, err := u.store.GetBlobByURL(ctx, url); err == nil {
		if err := u.store.DeleteBlob(ctx, existing.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, nil, err
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	id, err := model.GenerateID()
	if err != nil {
		return nil, nil, err
	}

	b := &Blob{
		ID:        id,
		UserID:    userID,
		Type:      TypeImage,
		Key:       key,
		URL:       url,
		Size:      int64(len(processed.Data)),
		Width:     processed.Info.Width,
		Height:    processed.Info.Height,
		BlurHash:  processed.Info.BlurHash,
		CreatedAt: time.Now(),
	}
	if err := u.store.CreateBlob(ctx, b); err != nil {
		u.removeObject(ctx, key)
		return nil, nil, err
	}

	verdict := u.moderator.ModerateImage(ctx, url)
	if !verdict.IsSafe {
		u.log.Info("Removing rejected image",
			zap.String("user_id", userID),
			zap.String("key", key),
			zap.String("reason", verdict.Reason),
		)
		u.removeObject(ctx, key)
		if err := u.store.DeleteBlob(ctx, b.ID); err != nil {
			u.log.Warn("Failed to delete rejected image record", zap.String("blob_id", b.ID), zap.Error(err))
		}
		return nil, verdict, nil
	}

	return b, verdict, nil
}

func (u *Uploader) removeObject(ctx context.Context, key string) {
	if err := u.objects.Delete(ctx, key); err != nil {
		u.log.Warn("Failed to delete object", zap.String("key", key), zap.Error(err))
	}
}

// Remove deletes an uploaded blob and its object. Failures are logged.
func (u *Uploader) Remove(ctx context.Context, b *Blob) {
	u.removeObject(ctx, b.Key)
	if err := u.store.DeleteBlob(ctx, b.ID); err != nil && !errors.Is(err, ErrNotFound) {
		u.log.Warn("Failed to delete image record", zap.String("blob_id", b.ID), zap.Error(err))
	}
}

// RemoveByURL removes the blob served at url. URLs that were not uploaded
// through the Uploader are ignored.
func (u *Uploader) RemoveByURL(ctx context.Context, url string) {
	b, err := u.store.GetBlobByURL(ctx, url)
	if errors.Is(err, ErrNotFound) {
		return
	} else if err != nil {
		u.log.Warn("Failed to get image record", zap.String("url", url), zap.Error(err))
		return
	}
	u.Remove(ctx, b)
}
