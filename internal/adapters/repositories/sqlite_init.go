package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	createSessionsQuery := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		origin_lat REAL,
		origin_lng REAL,
		destination_lat REAL,
		destination_lng REAL,
		route_status TEXT NOT NULL,
		route_payload BLOB,
		permissions TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
        cache_key TEXT PRIMARY KEY,
        payload BLOB NOT NULL,
        cached_at INTEGER NOT NULL
    );
	`

	return execSchema(db, []string{createSessionsQuery, createRouteCacheQuery})
}

// Initialize the Postgres schema used by SQLSessionRepository.
func InitPostgresSchema(db *sql.DB) error {
	createSessionsQuery := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		origin_lat DOUBLE PRECISION,
		origin_lng DOUBLE PRECISION,
		destination_lat DOUBLE PRECISION,
		destination_lng DOUBLE PRECISION,
		route_status TEXT NOT NULL,
		route_payload JSONB,
		permissions TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at
    ON sessions(updated_at);
	`

	return execSchema(db, []string{createSessionsQuery, createIndexQuery})
}

func execSchema(db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
