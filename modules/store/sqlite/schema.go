package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// Timestamps are stored as integer unix nanoseconds so the dirty-session
// query can compare them in SQL.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS turns (
		user_id    TEXT    NOT NULL,
		session_id TEXT    NOT NULL,
		role       TEXT    NOT NULL,
		text       TEXT    NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(user_id, session_id, rowid)`,

	`CREATE TABLE IF NOT EXISTS facts (
		id           TEXT PRIMARY KEY,
		user_id      TEXT    NOT NULL,
		fact         TEXT    NOT NULL,
		context      TEXT    NOT NULL DEFAULT '',
		importance   INTEGER NOT NULL DEFAULT 0,
		session_id   TEXT    NOT NULL DEFAULT '',
		extracted_at INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_facts_user ON facts(user_id, rowid)`,

	`CREATE TABLE IF NOT EXISTS extraction_marks (
		user_id      TEXT    NOT NULL,
		session_id   TEXT    NOT NULL,
		extracted_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, session_id)
	)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
