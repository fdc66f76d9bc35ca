package store

import (
	"context"
	"database/sql"
)

// schema holds the DDL. Each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		program     TEXT NOT NULL,
		machine     TEXT NOT NULL,
		status      TEXT NOT NULL,
		moves       INTEGER NOT NULL DEFAULT 0,
		length      INTEGER NOT NULL DEFAULT 0,
		schedule    TEXT NOT NULL DEFAULT 'null',
		stats       TEXT NOT NULL DEFAULT '{}',
		error       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_program ON runs(program)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
