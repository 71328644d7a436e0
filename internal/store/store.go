// Package store keeps an audit trail of scrape runs in Postgres. It records
// what happened to each request, never transcript content.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS scrape_runs (
	id             uuid PRIMARY KEY,
	url            text        NOT NULL,
	platform       text        NOT NULL DEFAULT '',
	outcome        text        NOT NULL,
	error_code     text        NOT NULL DEFAULT '',
	title          text        NOT NULL DEFAULT '',
	message_count  integer     NOT NULL DEFAULT 0,
	unknown_roles  integer     NOT NULL DEFAULT 0,
	strategy       text        NOT NULL DEFAULT '',
	duration_ms    bigint      NOT NULL,
	started_at     timestamptz NOT NULL,
	created_at     timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS scrape_runs_platform_started_idx ON scrape_runs (platform, started_at DESC);
`

// EnsureSchema creates the audit table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
