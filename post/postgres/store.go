package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/post"
	"github.com/edel-social/edel-server/query"
)

const (
	postTable = "edel_posts"

	allPostFields = `"id", "user_id", "alias", "content", "image_url", "likes_count", "comments_count", "is_deleted", "deleted_at", "moderation_passed", "moderation_flagged_by", "created_at"`
)

type postModel struct {
	ID                  string         `db:"id"`
	UserID              string         `db:"user_id"`
	Alias               string         `db:"alias"`
	Content             string         `db:"content"`
	ImageURL            sql.NullString `db:"image_url"`
	LikesCount          int            `db:"likes_count"`
	CommentsCount       int            `db:"comments_count"`
	IsDeleted           bool           `db:"is_deleted"`
	DeletedAt           sql.NullTime   `db:"deleted_at"`
	ModerationPassed    bool           `db:"moderation_passed"`
	ModerationFlaggedBy pq.StringArray `db:"moderation_flagged_by"`
	CreatedAt           time.Time      `db:"created_at"`
}

func toPostModel(p *post.Post) *postModel {
	flaggedBy := pq.StringArray(p.ModerationFlaggedBy)
	if flaggedBy == nil {
		flaggedBy = pq.StringArray{}
	}

	return &postModel{
		ID:                  p.ID,
		UserID:              p.UserID,
		Alias:               p.Alias,
		Content:             p.Content,
		ImageURL:            pg.NullStringIfEmpty(p.ImageURL),
		LikesCount:          p.LikesCount,
		CommentsCount:       p.CommentsCount,
		IsDeleted:           p.IsDeleted,
		DeletedAt:           pg.NullTime(p.DeletedAt),
		ModerationPassed:    p.ModerationPassed,
		ModerationFlaggedBy: flaggedBy,
		CreatedAt:           p.CreatedAt,
	}
}

func fromPostModel(m *postModel) *post.Post {
	return &post.Post{
		ID:                  m.ID,
		UserID:              m.UserID,
		Alias:               m.Alias,
		Content:             m.Content,
		ImageURL:            m.ImageURL.String,
		LikesCount:          m.LikesCount,
		CommentsCount:       m.CommentsCount,
		IsDeleted:           m.IsDeleted,
		DeletedAt:           pg.FromNullTime(m.DeletedAt),
		ModerationPassed:    m.ModerationPassed,
		ModerationFlaggedBy: append([]string{}, m.ModerationFlaggedBy...),
		CreatedAt:           m.CreatedAt,
	}
}

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) post.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + postTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) CreatePost(ctx context.Context, p *post.Post) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO `+postTable+` (`+allPostFields+`)
		VALUES (:id, :user_id, :alias, :content, :image_url, :likes_count, :comments_count, :is_deleted, :deleted_at, :moderation_passed, :moderation_flagged_by, :created_at)
	`, toPostModel(p))
	if pg.IsUniqueViolation(err) {
		return post.ErrExists
	}
	return err
}

func (s *store) GetPost(ctx context.Context, id string) (*post.Post, error) {
	var m postModel
	err := s.db.GetContext(ctx, &m, `SELECT `+allPostFields+` FROM `+postTable+` WHERE "id" = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, post.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromPostModel(&m), nil
}

func (s *store) ListPosts(ctx context.Context, opts ...query.Option) ([]*post.Post, int, error) {
	queryOpts := query.ApplyOptions(opts...)

	order := `ASC`
	if queryOpts.Order == query.Descending {
		order = `DESC`
	}

	var total int
	err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM `+postTable+` WHERE "is_deleted" = FALSE`)
	if err != nil {
		return nil, 0, err
	}

	var models []*postModel
	err = s.db.SelectContext(ctx, &models, `
		SELECT `+allPostFields+` FROM `+postTable+`
		WHERE "is_deleted" = FALSE
		ORDER BY "created_at" `+order+`, "id" `+order+`
		LIMIT $1 OFFSET $2
	`, queryOpts.PageSize, queryOpts.Offset())
	if err != nil {
		return nil, 0, err
	}

	posts := make([]*post.Post, 0, len(models))
	for _, m := range models {
		posts = append(posts, fromPostModel(m))
	}
	return posts, total, nil
}

func (s *store) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+postTable+` WHERE "user_id" = $1 AND "is_deleted" = FALSE`, userID)
	return count, err
}

func (s *store) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+postTable+` SET "is_deleted" = TRUE, "deleted_at" = $1 WHERE "id" = $2 AND "is_deleted" = FALSE`,
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
		return post.ErrNotFound
	}
	return nil
}

func (s *store) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+postTable+` WHERE "user_id" = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *store) AdjustCounts(ctx context.Context, id string, likesDelta, commentsDelta int) (*post.Post, error) {
	var m postModel
	err := s.db.GetContext(ctx, &m, `
		UPDATE `+postTable+` SET
			"likes_count" = GREATEST("likes_count" + $1, 0),
			"comments_count" = GREATEST("comments_count" + $2, 0)
		WHERE "id" = $3
		RETURNING `+allPostFields,
		likesDelta, commentsDelta, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, post.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromPostModel(&m), nil
}
