package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE agent_session_status AS ENUM ('running', 'completed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS agent_sessions (
		id UUID PRIMARY KEY,
		room_id TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status agent_session_status NOT NULL DEFAULT 'running',
		stop_reason TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_sessions_running ON agent_sessions (room_id) WHERE status = 'running'`,
	`CREATE TABLE IF NOT EXISTS transcript_records (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES agent_sessions(id) ON DELETE CASCADE,
		participant TEXT NOT NULL,
		content TEXT NOT NULL,
		seq INTEGER NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL,
		transcribed_at TIMESTAMPTZ NOT NULL,
		UNIQUE(session_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcript_records_session ON transcript_records (session_id, captured_at)`,
	`CREATE TABLE IF NOT EXISTS session_summaries (
		session_id UUID PRIMARY KEY REFERENCES agent_sessions(id) ON DELETE CASCADE,
		generated_by TEXT NOT NULL,
		summary JSONB NOT NULL,
		persisted BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
