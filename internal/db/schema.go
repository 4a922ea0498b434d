package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaTemplates are executed in order by EnsureSchema. Every table name
// carries the backup version suffix so a new version starts from a clean
// inventory without touching earlier runs.
var schemaTemplates = []string{
	`CREATE TABLE IF NOT EXISTS recording_inventory_%[1]s (
	id BIGSERIAL PRIMARY KEY,
	kind TEXT NOT NULL,
	recording_id TEXT NOT NULL,
	file_id TEXT NOT NULL,
	meeting_id TEXT NOT NULL DEFAULT '',
	principal_email TEXT NOT NULL,
	topic TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ NOT NULL,
	duration INTEGER NOT NULL DEFAULT 0,
	file_type TEXT NOT NULL DEFAULT '',
	file_extension TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	download_url TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'found',
	attempt_count INTEGER NOT NULL DEFAULT 0,
	found_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	downloaded_at TIMESTAMPTZ,
	last_error TEXT,
	raw JSONB,
	UNIQUE (recording_id, file_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_recording_inventory_%[1]s_status
	ON recording_inventory_%[1]s (status)`,
	`CREATE INDEX IF NOT EXISTS idx_recording_inventory_%[1]s_email
	ON recording_inventory_%[1]s (principal_email)`,
	`CREATE INDEX IF NOT EXISTS idx_recording_inventory_%[1]s_start
	ON recording_inventory_%[1]s (start_time)`,

	`CREATE TABLE IF NOT EXISTS meeting_recordings_%[1]s (
	id BIGSERIAL PRIMARY KEY,
	meeting_id TEXT NOT NULL,
	recording_id TEXT NOT NULL,
	file_id TEXT NOT NULL,
	topic TEXT NOT NULL DEFAULT '',
	host_id TEXT NOT NULL DEFAULT '',
	host_email TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ NOT NULL,
	duration INTEGER NOT NULL DEFAULT 0,
	file_type TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	recording_type TEXT NOT NULL DEFAULT '',
	download_url TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL,
	unprocessed JSONB,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (recording_id, file_id)
)`,
	`CREATE TABLE IF NOT EXISTS webinar_recordings_%[1]s (
	id BIGSERIAL PRIMARY KEY,
	meeting_id TEXT NOT NULL,
	recording_id TEXT NOT NULL,
	file_id TEXT NOT NULL,
	topic TEXT NOT NULL DEFAULT '',
	host_id TEXT NOT NULL DEFAULT '',
	host_email TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ NOT NULL,
	duration INTEGER NOT NULL DEFAULT 0,
	file_type TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	recording_type TEXT NOT NULL DEFAULT '',
	download_url TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL,
	unprocessed JSONB,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (recording_id, file_id)
)`,
	`CREATE TABLE IF NOT EXISTS phone_recordings_%[1]s (
	id BIGSERIAL PRIMARY KEY,
	recording_id TEXT NOT NULL,
	call_id TEXT NOT NULL DEFAULT '',
	caller_number TEXT NOT NULL DEFAULT '',
	callee_number TEXT NOT NULL DEFAULT '',
	caller_name TEXT NOT NULL DEFAULT '',
	callee_name TEXT NOT NULL DEFAULT '',
	direction TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	duration INTEGER NOT NULL DEFAULT 0,
	file_type TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	download_url TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL,
	owner_id TEXT NOT NULL DEFAULT '',
	owner_email TEXT NOT NULL DEFAULT '',
	unprocessed JSONB,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (recording_id)
)`,
	`CREATE TABLE IF NOT EXISTS backup_runs_%[1]s (
	id UUID PRIMARY KEY,
	phase TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ,
	items_processed INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL DEFAULT 'running',
	detail TEXT
)`,
}

// EnsureSchema creates the versioned tables if needed. Keeping the migration
// in code means a fresh database needs no external bootstrap step.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, version string) error {
	for _, tmpl := range schemaTemplates {
		if _, err := pool.Exec(ctx, fmt.Sprintf(tmpl, version)); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
