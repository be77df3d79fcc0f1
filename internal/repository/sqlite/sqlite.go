// Package sqlite provides a single-file SQLite record store. It backs local
// runs and the unit tests; production deployments use the PostgreSQL
// repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	username    TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
	created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exercises (
	user_id      TEXT NOT NULL REFERENCES users (id),
	seq          INTEGER NOT NULL CHECK (seq > 0),
	description  TEXT NOT NULL,
	duration     INTEGER NOT NULL,
	date_ms      INTEGER NOT NULL,
	PRIMARY KEY (user_id, seq)
);
`

// Store implements the record store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens the database at path, enables WAL and foreign keys and creates
// the schema if missing. The "sqlite://" prefix is stripped, so a
// DATABASE_URL can be passed through unchanged.
func New(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("open database: empty path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite allows a single writer, and :memory:
	// databases are per-connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
