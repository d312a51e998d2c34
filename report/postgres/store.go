package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/report"
)

const (
	reportTable = "edel_reports"

	allReportFields = `"id", "post_id", "reporter_id", "reason", "description", "status", "reviewed_at", "reviewed_by", "created_at"`
)

type reportModel struct {
	ID          string         `db:"id"`
	PostID      string         `db:"post_id"`
	ReporterID  string         `db:"reporter_id"`
	Reason      string         `db:"reason"`
	Description sql.NullString `db:"description"`
	Status      string         `db:"status"`
	ReviewedAt  sql.NullTime   `db:"reviewed_at"`
	ReviewedBy  sql.NullString `db:"reviewed_by"`
	CreatedAt   time.Time      `db:"created_at"`
}

func toReportModel(r *report.Report) *reportModel {
	return &reportModel{
		ID:          r.ID,
		PostID:      r.PostID,
		ReporterID:  r.ReporterID,
		Reason:      r.Reason,
		Description: pg.NullStringIfEmpty(r.Description),
		Status:      r.Status,
		ReviewedAt:  pg.NullTime(r.ReviewedAt),
		ReviewedBy:  pg.NullStringIfEmpty(r.ReviewedBy),
		CreatedAt:   r.CreatedAt,
	}
}

func fromReportModel(m *reportModel) *report.Report {
	return &report.Report{
		ID:          m.ID,
		PostID:      m.PostID,
		ReporterID:  m.ReporterID,
		Reason:      m.Reason,
		Description: m.Description.String,
		Status:      m.Status,
		ReviewedAt:  pg.FromNullTime(m.ReviewedAt),
		ReviewedBy:  m.ReviewedBy.String,
		CreatedAt:   m.CreatedAt,
	}
}

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) report.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + reportTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) CreateReport(ctx context.Context, r *report.Report) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO `+reportTable+` (`+allReportFields+`)
		VALUES (:id, :post_id, :reporter_id, :reason, :description, :status, :reviewed_at, :reviewed_by, :created_at)
	`, toReportModel(r))
	if pg.IsUniqueViolation(err) {
		return report.ErrExists
	}
	return err
}

func (s *store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var m reportModel
	err := s.db.GetContext(ctx, &m, `SELECT `+allReportFields+` FROM `+reportTable+` WHERE "id" = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromReportModel(&m), nil
}

func (s *store) ListReports(ctx context.Context, status string) ([]*report.Report, error) {
	var models []*reportModel
	err := s.db.SelectContext(ctx, &models, `
		SELECT `+allReportFields+` FROM `+reportTable+`
		WHERE ($1 = '' OR "status" = $1)
		ORDER BY "created_at" DESC, "id" DESC
	`, status)
	if err != nil {
		return nil, err
	}

	reports := make([]*report.Report, 0, len(models))
	for _, m := range models {
		reports = append(reports, fromReportModel(m))
	}
	return reports, nil
}

func (s *store) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+reportTable+` WHERE "status" = $1`, status)
	return count, err
}

func (s *store) UpdateStatus(ctx context.Context, id, status, reviewerID string) (*report.Report, error) {
	var m reportModel
	err := s.db.GetContext(ctx, &m, `
		UPDATE `+reportTable+` SET "status" = $1, "reviewed_at" = $2, "reviewed_by" = $3
		WHERE "id" = $4
		RETURNING `+allReportFields,
		status, time.Now(), reviewerID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromReportModel(&m), nil
}
