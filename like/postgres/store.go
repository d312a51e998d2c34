package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/like"
)

const likeTable = "edel_likes"

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) like.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + likeTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) AddLike(ctx context.Context, postID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+likeTable+` ("post_id", "user_id", "created_at") VALUES ($1, $2, $3)
	`, postID, userID, time.Now())
	if pg.IsUniqueViolation(err) {
		return like.ErrExists
	}
	return err
}

func (s *store) RemoveLike(ctx context.Context, postID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM `+likeTable+` WHERE "post_id" = $1 AND "user_id" = $2
	`, postID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return like.ErrNotFound
	}
	return nil
}

func (s *store) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM `+likeTable+` WHERE "post_id" = $1 AND "user_id" = $2)
	`, postID, userID)
	return exists, err
}

func (s *store) LikedPosts(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if len(postIDs) == 0 {
		return liked, nil
	}

	q, args, err := sqlx.In(`
		SELECT "post_id" FROM `+likeTable+` WHERE "user_id" = ? AND "post_id" IN (?)
	`, userID, postIDs)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (s *store) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+likeTable+` WHERE "user_id" = $1`, userID)
	return err
}
