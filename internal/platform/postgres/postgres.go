// Package postgres opens the service database and owns its schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"ledgerguard/internal/platform/config"
)

// Schema creates the tables used by the key store and the audit sink.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_keys (
	key_id     TEXT PRIMARY KEY,
	key_type   TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	public_key BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS verification_keys_owner_idx ON verification_keys (owner_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id            UUID PRIMARY KEY,
	action        TEXT NOT NULL,
	document_type TEXT NOT NULL,
	decision      TEXT NOT NULL,
	reason        TEXT NOT NULL,
	request_id    TEXT NOT NULL,
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
`

// Open connects to Postgres and pings it. Returns nil if the URL is empty
// (database not configured).
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Migrate applies Schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
