package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/blob"
)

const (
	blobTable = "edel_blobs"

	allBlobFields = `"id", "user_id", "type", "key", "url", "size", "width", "height", "blur_hash", "created_at"`
)

type blobModel struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Type      int       `db:"type"`
	Key       string    `db:"key"`
	URL       string    `db:"url"`
	Size      int64     `db:"size"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	BlurHash  string    `db:"blur_hash"`
	CreatedAt time.Time `db:"created_at"`
}

func toBlobModel(b *blob.Blob) *blobModel {
	return &blobModel{
		ID:        b.ID,
		UserID:    b.UserID,
		Type:      int(b.Type),
		Key:       b.Key,
		URL:       b.URL,
		Size:      b.Size,
		Width:     b.Width,
		Height:    b.Height,
		BlurHash:  b.BlurHash,
		CreatedAt: b.CreatedAt,
	}
}

func fromBlobModel(m *blobModel) *blob.Blob {
	return &blob.Blob{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      blob.Type(m.Type),
		Key:       m.Key,
		URL:       m.URL,
		Size:      m.Size,
		Width:     m.Width,
		Height:    m.Height,
		BlurHash:  m.BlurHash,
		CreatedAt: m.CreatedAt,
	}
}

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) blob.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + blobTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) CreateBlob(ctx context.Context, b *blob.Blob) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO `+blobTable+` (`+allBlobFields+`)
		VALUES (:id, :user_id, :type, :key, :url, :size, :width, :height, :blur_hash, :created_at)
	`, toBlobModel(b))
	if pg.IsUniqueViolation(err) {
		return blob.ErrExists
	}
	return err
}

func (s *store) GetBlob(ctx context.Context, id string) (*blob.Blob, error) {
	return s.getBy(ctx, `"id"`, id)
}

func (s *store) GetBlobByURL(ctx context.Context, url string) (*blob.Blob, error) {
	return s.getBy(ctx, `"url"`, url)
}

func (s *store) getBy(ctx context.Context, column, value string) (*blob.Blob, error) {
	var m blobModel
	err := s.db.GetContext(ctx, &m, `SELECT `+allBlobFields+` FROM `+blobTable+` WHERE `+column+` = $1`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blob.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromBlobModel(&m), nil
}

func (s *store) DeleteBlob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+blobTable+` WHERE "id" = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return blob.ErrNotFound
	}
	return nil
}
