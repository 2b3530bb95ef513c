package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMillis is how long a connection waits on a locked database
// before returning SQLITE_BUSY.
const busyTimeoutMillis = 5000

// Connect opens the SQLite database at path and configures the pool.
//
// SQLite allows a single writer, so the pool is capped at one connection;
// concurrent requests queue in database/sql instead of failing with
// SQLITE_BUSY. Foreign keys are enabled on every connection via the DSN,
// and transactions take the write lock when they begin.
func Connect(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate",
		path, busyTimeoutMillis)

	pool, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	pool.SetMaxOpenConns(1)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.InfoContext(ctx, "Connected to database", "db.path", path)
	return pool, nil
}
