package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/comment"
	"github.com/edel-social/edel-server/query"
)

const (
	commentTable = "edel_comments"

	allCommentFields = `"id", "post_id", "user_id", "alias", "content", "is_deleted", "deleted_at", "created_at"`
)

type commentModel struct {
	ID        string       `db:"id"`
	PostID    string       `db:"post_id"`
	UserID    string       `db:"user_id"`
	Alias     string       `db:"alias"`
	Content   string       `db:"content"`
	IsDeleted bool         `db:"is_deleted"`
	DeletedAt sql.NullTime `db:"deleted_at"`
	CreatedAt time.Time    `db:"created_at"`
}

func toCommentModel(c *comment.Comment) *commentModel {
	return &commentModel{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Alias:     c.Alias,
		Content:   c.Content,
		IsDeleted: c.IsDeleted,
		DeletedAt: pg.NullTime(c.DeletedAt),
		CreatedAt: c.CreatedAt,
	}
}

func fromCommentModel(m *commentModel) *comment.Comment {
	return &comment.Comment{
		ID:        m.ID,
		PostID:    m.PostID,
		UserID:    m.UserID,
		Alias:     m.Alias,
		Content:   m.Content,
		IsDeleted: m.IsDeleted,
		DeletedAt: pg.FromNullTime(m.DeletedAt),
		CreatedAt: m.CreatedAt,
	}
}

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) comment.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + commentTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) CreateComment(ctx context.Context, c *comment.Comment) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO `+commentTable+` (`+allCommentFields+`)
		VALUES (:id, :post_id, :user_id, :alias, :content, :is_deleted, :deleted_at, :created_at)
	`, toCommentModel(c))
	if pg.IsUniqueViolation(err) {
		return comment.ErrExists
	}
	return err
}

func (s *store) GetComment(ctx context.Context, id string) (*comment.Comment, error) {
	var m commentModel
	err := s.db.GetContext(ctx, &m, `SELECT `+allCommentFields+` FROM `+commentTable+` WHERE "id" = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comment.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromCommentModel(&m), nil
}

func (s *store) ListComments(ctx context.Context, postID string, opts ...query.Option) ([]*comment.Comment, int, error) {
	queryOpts := query.ApplyOptions(opts...)

	order := `ASC`
	if queryOpts.Order == query.Descending {
		order = `DESC`
	}

	var total int
	err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM `+commentTable+` WHERE "post_id" = $1 AND "is_deleted" = FALSE
	`, postID)
	if err != nil {
		return nil, 0, err
	}

	var models []*commentModel
	err = s.db.SelectContext(ctx, &models, `
		SELECT `+allCommentFields+` FROM `+commentTable+`
		WHERE "post_id" = $1 AND "is_deleted" = FALSE
		ORDER BY "created_at" `+order+`, "id" `+order+`
		LIMIT $2 OFFSET $3
	`, postID, queryOpts.PageSize, queryOpts.Offset())
	if err != nil {
		return nil, 0, err
	}

	comments := make([]*comment.Comment, 0, len(models))
	for _, m := range models {
		comments = append(comments, fromCommentModel(m))
	}
	return comments, total, nil
}

func (s *store) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+commentTable+` SET "is_deleted" = TRUE, "deleted_at" = $1 WHERE "id" = $2 AND "is_deleted" = FALSE`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return comment.ErrNotFound
	}
	return nil
}

func (s *store) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+commentTable+` WHERE "user_id" = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
