// Package testdb opens a migrated PostgreSQL database for integration tests.
// Tests are skipped unless TRACKER_TEST_DATABASE_URL is set.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// EnvURL names the variable holding the test database URL.
const EnvURL = "TRACKER_TEST_DATABASE_URL"

// Timeout bounds setup against the test database.
const Timeout = 30 * time.Second

// URL returns the configured test database URL, or "".
func URL() string {
	return os.Getenv(EnvURL)
}

// Open connects to the test database, applies every migration and closes the
// pool when the test ends. It skips the test when no URL is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	url := URL()
	if url == "" {
		t.Skipf("%s not set, skipping integration test", EnvURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := postgres.Open(ctx, config.DatabaseConfig{URL: url, MaxOpenConns: 4}, log)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, log), "failed to migrate test database")
	return db
}

// WithTx runs fn in a transaction that is always rolled back, so tests leave
// no rows behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Errorf("failed to roll back test transaction: %v", err)
		}
	}()
	fn(t, tx)
}
