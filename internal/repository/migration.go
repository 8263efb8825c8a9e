package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; every statement is IF NOT EXISTS so repeated runs
// are safe.
const schema = `
CREATE TABLE IF NOT EXISTS attachments (
	id          BIGINT PRIMARY KEY,
	source_path TEXT NOT NULL,
	mime_type   TEXT NOT NULL DEFAULT '',
	metadata    JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS synced_items (
	attachment_id BIGINT NOT NULL,
	source_path   TEXT NOT NULL,
	remote_key    TEXT NOT NULL,
	bucket        TEXT NOT NULL,
	region        TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	synced_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (attachment_id, source_path)
);

CREATE INDEX IF NOT EXISTS idx_synced_items_source_path ON synced_items (source_path);
CREATE INDEX IF NOT EXISTS idx_synced_items_remote_key ON synced_items (remote_key);
`

// Migrate applies the ledger schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// TableExists reports whether a table is present in the public schema.
func TableExists(ctx context.Context, pool *pgxpool.Pool, table string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		table,
	).Scan(&exists)
	return exists, err
}

// TableCount returns the row count of a known table.
func TableCount(ctx context.Context, pool *pgxpool.Pool, table string) (int64, error) {
	switch table {
	case "attachments", "synced_items":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var count int64
	err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	return count, err
}
