package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool returns a live connection pool for the given DSN.
func NewPgxPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the pipeline tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS conversations (
  id          TEXT PRIMARY KEY,
  external_id TEXT UNIQUE,
  thread_id   TEXT,
  text        TEXT NOT NULL,
  raw         JSONB,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conversations_thread_id ON conversations (thread_id);
CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations (created_at);

CREATE TABLE IF NOT EXISTS insights (
  id                 TEXT PRIMARY KEY,
  conversation_id    TEXT NOT NULL REFERENCES conversations(id),
  summary            TEXT,
  sentiment          TEXT NOT NULL DEFAULT 'neutral',
  topics             JSONB,
  tokens_used        INTEGER NOT NULL DEFAULT 0,
  estimated_cost     DOUBLE PRECISION NOT NULL DEFAULT 0,
  processing_time_ms INTEGER NOT NULL DEFAULT 0,
  model              TEXT,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_insights_conversation_id ON insights (conversation_id);
CREATE INDEX IF NOT EXISTS idx_insights_sentiment ON insights (sentiment);
CREATE INDEX IF NOT EXISTS idx_insights_created_at ON insights (created_at);

CREATE TABLE IF NOT EXISTS analysis_cache (
  id         TEXT PRIMARY KEY,
  text_hash  TEXT NOT NULL UNIQUE,
  insight_id TEXT NOT NULL REFERENCES insights(id),
  hit_count  BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS processing_log (
  id              TEXT PRIMARY KEY,
  conversation_id TEXT,
  kind            TEXT NOT NULL,
  status          TEXT NOT NULL,
  detail          TEXT,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_processing_log_conversation_id ON processing_log (conversation_id);
CREATE INDEX IF NOT EXISTS idx_processing_log_kind ON processing_log (kind);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
