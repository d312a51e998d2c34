package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/notification"
)

const (
	notificationTable = "edel_notifications"

	allNotificationFields = `"id", "user_id", "type", "title", "body", "data", "is_read", "read_at", "created_at"`
)

type notificationModel struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Type      string         `db:"type"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	Data      types.JSONText `db:"data"`
	IsRead    bool           `db:"is_read"`
	ReadAt    sql.NullTime   `db:"read_at"`
	CreatedAt time.Time      `db:"created_at"`
}

func toNotificationModel(n *notification.Notification) (*notificationModel, error) {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &notificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Data:      types.JSONText(encoded),
		IsRead:    n.IsRead,
		ReadAt:    pg.NullTime(n.ReadAt),
		CreatedAt: n.CreatedAt,
	}, nil
}

func fromNotificationModel(m *notificationModel) (*notification.Notification, error) {
	var data map[string]string
	if len(m.Data) > 0 {
		if err := m.Data.Unmarshal(&data); err != nil {
			return nil, err
		}
	}

	return &notification.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		Body:      m.Body,
		Data:      data,
		IsRead:    m.IsRead,
		ReadAt:    pg.FromNullTime(m.ReadAt),
		CreatedAt: m.CreatedAt,
	}, nil
}

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) notification.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + notificationTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	m, err := toNotificationModel(n)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO `+notificationTable+` (`+allNotificationFields+`)
		VALUES (:id, :user_id, :type, :title, :body, :data, :is_read, :read_at, :created_at)
	`, m)
	if pg.IsUniqueViolation(err) {
		return notification.ErrExists
	}
	return err
}

func (s *store) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	var m notificationModel
	err := s.db.GetContext(ctx, &m, `
		SELECT `+allNotificationFields+` FROM `+notificationTable+` WHERE "id" = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notification.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromNotificationModel(&m)
}

func (s *store) ListNotifications(ctx context.Context, userID string, opts notification.ListOptions) ([]*notification.Notification, int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM `+notificationTable+`
		WHERE "user_id" = $1 AND (NOT $2 OR NOT "is_read")
	`, userID, opts.UnreadOnly)
	if err != nil {
		return nil, 0, err
	}

	limit := sql.NullInt64{Int64: int64(opts.Limit), Valid: opts.Limit > 0}

	var models []*notificationModel
	err = s.db.SelectContext(ctx, &models, `
		SELECT `+allNotificationFields+` FROM `+notificationTable+`
		WHERE "user_id" = $1 AND (NOT $2 OR NOT "is_read")
		ORDER BY "created_at" DESC, "id" DESC
		LIMIT $3 OFFSET $4
	`, userID, opts.UnreadOnly, limit, max(opts.Offset, 0))
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]*notification.Notification, 0, len(models))
	for _, m := range models {
		n, err := fromNotificationModel(m)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	return notifications, total, nil
}

func (s *store) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM `+notificationTable+` WHERE "user_id" = $1 AND NOT "is_read"
	`, userID)
	return count, err
}

func (s *store) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In(`
		UPDATE `+notificationTable+` SET "is_read" = TRUE, "read_at" = ?
		WHERE "user_id" = ? AND "id" IN (?)
	`, time.Now(), userID, ids)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	updated, err := res.RowsAffected()
	return int(updated), err
}

func (s *store) DeleteNotification(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+notificationTable+` WHERE "id" = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (s *store) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+notificationTable+` WHERE "user_id" = $1`, userID)
	return err
}
