package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/profile"
)

const (
	profileTable = "edel_profiles"

	allProfileFields = `"user_id", "alias", "profile_image", "created_at", "updated_at"`
)

type profileModel struct {
	UserID       string         `db:"user_id"`
	Alias        string         `db:"alias"`
	ProfileImage sql.NullString `db:"profile_image"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func toProfileModel(p *profile.Profile) *profileModel {
	return &profileModel{
		UserID:       p.UserID,
		Alias:        p.Alias,
		ProfileImage: pg.NullStringIfEmpty(p.ProfileImage),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromProfileModel(m *profileModel) *profile.Profile {
	return &profile.Profile{
		UserID:       m.UserID,
		Alias:        m.Alias,
		ProfileImage: m.ProfileImage.String,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) profile.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + profileTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) CreateProfile(ctx context.Context, p *profile.Profile) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO `+profileTable+` (`+allProfileFields+`)
		VALUES (:user_id, :alias, :profile_image, :created_at, :updated_at)
	`, toProfileModel(p))
	if pg.IsUniqueViolation(err) {
		return profile.ErrExists
	}
	return err
}

func (s *store) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	return getProfile(ctx, s.db, userID)
}

func getProfile(ctx context.Context, q sqlx.QueryerContext, userID string) (*profile.Profile, error) {
	var m profileModel
	err := sqlx.GetContext(ctx, q, &m, `SELECT `+allProfileFields+` FROM `+profileTable+` WHERE "user_id" = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromProfileModel(&m), nil
}

func (s *store) UpdateProfile(ctx context.Context, userID string, update *profile.Update) (*profile.Profile, error) {
	sets := []string{`"updated_at" = $1`}
	args := []any{time.Now()}

	if update.Alias != nil {
		args = append(args, *update.Alias)
		sets = append(sets, fmt.Sprintf(`"alias" = $%d`, len(args)))
	}
	if update.ProfileImage != nil {
		args = append(args, pg.NullStringIfEmpty(*update.ProfileImage))
		sets = append(sets, fmt.Sprintf(`"profile_image" = $%d`, len(args)))
	}
	args = append(args, userID)

	var updated *profile.Profile
	err := pg.ExecuteInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + profileTable + ` SET ` + strings.Join(sets, ", ") + fmt.Sprintf(` WHERE "user_id" = $%d`, len(args))
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return profile.ErrNotFound
		}

		updated, err = getProfile(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *store) DeleteProfile(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+profileTable+` WHERE "user_id" = $1`, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrNotFound
	}
	return nil
}
