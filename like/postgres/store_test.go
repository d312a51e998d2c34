//go:build integration

package postgres

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	postgrestest "github.com/edel-social/edel-server/database/postgres/test"

	"github.com/edel-social/edel-server/like/tests"
)

var databaseUrl string

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	_, url, cleanup, err := postgrestest.StartMigratedPostgresDB()
	if err != nil {
		log.WithError(err).Error("Error starting postgres")
		os.Exit(1)
	}
	databaseUrl = url

	code := m.Run()
	cleanup()
	os.Exit(code)
}

func TestLike_PostgresStore(t *testing.T) {
	testStore := NewInPostgres(postgrestest.OpenTestDB(t, databaseUrl))
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunStoreTests(t, testStore, teardown)
}

func TestLike_PostgresServer(t *testing.T) {
	testStore := NewInPostgres(postgrestest.OpenTestDB(t, databaseUrl))
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunServerTests(t, testStore, teardown)
}
