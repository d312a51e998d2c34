package test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	pg "github.com/edel-social/edel-server/database/postgres"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	containerName     = "postgres"
	containerVersion  = "16-alpine"
	containerAutoKill = 120 // seconds

	port     = 5432
	user     = "edel"
	password = "edel"
	database = "edel"
)

// StartPostgresDB starts a throwaway postgres container and returns its
// connection url and a cleanup function.
func StartPostgresDB(pool *dockertest.Pool) (databaseUrl string, cleanup func(), err error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: containerName,
		Tag:        containerVersion,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + database,
		},
		ExposedPorts: []string{fmt.Sprintf("%d/tcp", port)},
	}, func(config *docker.HostConfig) {
		// Enable AutoRemove and disable Restart
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "could not start postgres container")
	}

	// Set a timeout to automatically kill the container
	resource.Expire(containerAutoKill)

	hostAndPort := resource.GetHostPort(fmt.Sprintf("%d/tcp", port))
	databaseUrl = fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, hostAndPort, database)

	cleanup = func() {
		if err := pool.Purge(resource); err != nil {
			fmt.Printf("Could not purge resource: %s\n", err)
		}
	}

	return databaseUrl, cleanup, nil
}

// WaitForConnection retries until the database accepts connections. The
// returned database is closed by disconnect, or immediately when closeAfter
// is set.
func WaitForConnection(pool *dockertest.Pool, databaseUrl string, closeAfter bool) (db *sql.DB, disconnect func(), err error) {
	err = pool.Retry(func() error {
		db, err = sql.Open("pgx", databaseUrl)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "database never became ready")
	}

	disconnect = func() {
		_ = db.Close()
	}

	if closeAfter {
		disconnect()
		return nil, func() {}, nil
	}
	return db, disconnect, nil
}

// StartMigratedPostgresDB starts a container, waits for it and applies the
// schema. It is meant to be called from TestMain.
func StartMigratedPostgresDB() (pool *dockertest.Pool, databaseUrl string, cleanup func(), err error) {
	pool, err = dockertest.NewPool("")
	if err != nil {
		return nil, "", nil, errors.Wrap(err, "could not connect to docker")
	}
	pool.MaxWait = 2 * time.Minute

	databaseUrl, cleanup, err = StartPostgresDB(pool)
	if err != nil {
		return nil, "", nil, err
	}

	db, disconnect, err := WaitForConnection(pool, databaseUrl, false)
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	defer disconnect()

	if err := pg.Migrate(context.Background(), pg.Wrap(db)); err != nil {
		cleanup()
		return nil, "", nil, errors.Wrap(err, "error applying schema")
	}

	return pool, databaseUrl, cleanup, nil
}

// OpenTestDB connects to databaseUrl for the duration of the test.
func OpenTestDB(t *testing.T, databaseUrl string) *sqlx.DB {
	db, err := pg.Open(context.Background(), databaseUrl)
	if err != nil {
		t.Fatalf("Error connecting to database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
