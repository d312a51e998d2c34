package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edel-social/edel-server/push"
)

const (
	tokenTable = "edel_push_tokens"

	allTokenFields = `"user_id", "token", "type", "app_install_id", "created_at"`
)

type tokenModel struct {
	UserID       string    `db:"user_id"`
	Token        string    `db:"token"`
	Type         int       `db:"type"`
	AppInstallID string    `db:"app_install_id"`
	CreatedAt    time.Time `db:"created_at"`
}

func fromTokenModel(m *tokenModel) push.Token {
	return push.Token{
		UserID:       m.UserID,
		Type:         push.TokenType(m.Type),
		Token:        m.Token,
		AppInstallID: m.AppInstallID,
	}
}

type store struct {
	db *sqlx.DB
}

func NewInPostgres(db *sqlx.DB) push.TokenStore {
	return &store{
		db: db,
	}
}

func (s *store) reset() {
	_, err := s.db.Exec(`DELETE FROM ` + tokenTable)
	if err != nil {
		panic(err)
	}
}

func (s *store) GetTokens(ctx context.Context, userID string) ([]push.Token, error) {
	var models []*tokenModel
	err := s.db.SelectContext(ctx, &models, `
		SELECT `+allTokenFields+` FROM `+tokenTable+`
		WHERE "user_id" = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return fromTokenModels(models), nil
}

func (s *store) GetTokensBatch(ctx context.Context, userIDs ...string) ([]push.Token, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	q, args, err := sqlx.In(`
		SELECT `+allTokenFields+` FROM `+tokenTable+`
		WHERE "user_id" IN (?)
	`, userIDs)
	if err != nil {
		return nil, err
	}

	var models []*tokenModel
	if err := s.db.SelectContext(ctx, &models, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return fromTokenModels(models), nil
}

func (s *store) AddToken(ctx context.Context, userID, appInstallID string, tokenType push.TokenType, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+tokenTable+` (`+allTokenFields+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ("user_id", "app_install_id")
		DO UPDATE SET "token" = EXCLUDED."token", "type" = EXCLUDED."type"
	`, userID, token, int(tokenType), appInstallID, time.Now())
	return err
}

func (s *store) DeleteToken(ctx context.Context, tokenType push.TokenType, token string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM `+tokenTable+` WHERE "type" = $1 AND "token" = $2
	`, int(tokenType), token)
	return err
}

func (s *store) ClearTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+tokenTable+` WHERE "user_id" = $1`, userID)
	return err
}

func fromTokenModels(models []*tokenModel) []push.Token {
	tokens := make([]push.Token, len(models))
	for i, m := range models {
		tokens[i] = fromTokenModel(m)
	}
	return tokens
}
