package db

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates every table the agent needs if it does not already
// exist.  Schema creation is idempotent so the agent can be restarted (or
// pointed at a fresh file) without any migration step.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS identities (
  attendance_id TEXT PRIMARY KEY,
  remote_id     INTEGER NOT NULL,
  full_name     TEXT NOT NULL,
  country       TEXT NOT NULL DEFAULT '',
  tag           TEXT NOT NULL,
  session_ids   TEXT NOT NULL DEFAULT '[]',
  photo         BLOB,
  country_image BLOB
);`,
		`CREATE INDEX IF NOT EXISTS idx_identities_tag ON identities(tag);`,

		`CREATE TABLE IF NOT EXISTS audit_log (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  written_at_ms INTEGER NOT NULL,
  tag           TEXT NOT NULL,
  device_id     TEXT NOT NULL,
  session_id    TEXT NOT NULL DEFAULT '',
  synced        INTEGER NOT NULL DEFAULT 0
);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_synced ON audit_log(synced, id);`,

		// Singleton watermark row for bulk reconciliation.
		`CREATE TABLE IF NOT EXISTS sync_cursor (
  id             INTEGER PRIMARY KEY CHECK (id = 1),
  last_remote_id INTEGER NOT NULL DEFAULT 0
);`,
		`INSERT OR IGNORE INTO sync_cursor(id, last_remote_id) VALUES (1, 0);`,
	}

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
