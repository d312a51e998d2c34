package pg

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	require.True(t, IsUniqueViolation(unique))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", unique)))

	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	require.False(t, IsUniqueViolation(errors.New("unique_violation")))
	require.False(t, IsUniqueViolation(nil))
}

func TestNullHelpers(t *testing.T) {
	require.False(t, NullString(nil).Valid)

	s := "hello"
	require.Equal(t, "hello", NullString(&s).String)
	require.True(t, NullString(&s).Valid)

	require.False(t, NullStringIfEmpty("").Valid)
	require.True(t, NullStringIfEmpty("x").Valid)

	require.False(t, NullTime(nil).Valid)
	require.Nil(t, FromNullTime(NullTime(nil)))

	now := time.Now()
	require.Equal(t, now, *FromNullTime(NullTime(&now)))
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{
		"edel_users",
		"edel_profiles",
		"edel_posts",
		"edel_likes",
		"edel_comments",
		"edel_reports",
		"edel_notifications",
		"edel_push_tokens",
		"edel_blobs",
	} {
		require.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
