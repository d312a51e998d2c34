package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/edel-social/edel-server/database/postgres"

	"github.com/edel-social/edel-server/account"
)

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) account.Store {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + userTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) CreateUser(ctx context.Context, user *account.User) error {
	m := toUserModel(user)

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO `+userTable+` (`+allUserFields+`)
		VALUES (:id, :email, :password_hash, :is_admin, :created_at, :updated_at)
	`, m)
	if pg.IsUniqueViolation(err) {
		return account.ErrExists
	}
	return err
}

func (s *store) GetUser(ctx context.Context, id string) (*account.User, error) {
	return s.getBy(ctx, `"id"`, id)
}

func (s *store) GetUserByEmail(ctx context.Context, email string) (*account.User, error) {
	return s.getBy(ctx, `"email"`, email)
}

func (s *store) getBy(ctx context.Context, column, value string) (*account.User, error) {
	var m userModel
	query := `SELECT ` + allUserFields + ` FROM ` + userTable + ` WHERE ` + column + ` = $1`
	err := s.db.GetContext(ctx, &m, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return fromUserModel(&m), nil
}

func (s *store) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+userTable+` SET "is_admin" = $1, "updated_at" = $2 WHERE "id" = $3`,
		isAdmin, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *store) IsAdmin(ctx context.Context, id string) (bool, error) {
	var isAdmin bool
	err := s.db.GetContext(ctx, &isAdmin, `SELECT "is_admin" FROM `+userTable+` WHERE "id" = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return isAdmin, err
}

func (s *store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+userTable+` WHERE "id" = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}
