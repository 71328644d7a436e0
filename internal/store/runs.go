package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sharescrape/internal/scraper"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

// Run is one row of scrape_runs.
type Run struct {
	ID           uuid.UUID
	URL          string
	Platform     string
	Outcome      string
	ErrorCode    string
	Title        string
	MessageCount int
	UnknownRoles int
	Strategy     string
	DurationMS   int64
	StartedAt    time.Time
}

// RunFromOutcome flattens an outcome into a row.
func RunFromOutcome(o scraper.Outcome) Run {
	r := Run{
		ID:         o.ID,
		URL:        o.URL,
		Platform:   string(o.Platform),
		Outcome:    "ok",
		DurationMS: o.Duration.Milliseconds(),
		StartedAt:  o.Started,
	}
	if o.Err != nil {
		r.Outcome = o.Kind().String()
		r.ErrorCode = o.Kind().Code()
		return r
	}
	if o.Result != nil {
		r.Title = o.Result.Title
		r.MessageCount = len(o.Result.Messages)
		r.UnknownRoles = o.Result.CountRole(transcript.RoleUnknown)
		if strategy, ok := o.Result.Metadata["strategy"].(string); ok {
			r.Strategy = strategy
		}
	}
	return r
}

func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_runs (id, url, platform, outcome, error_code, title, message_count, unknown_roles, strategy, duration_ms, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.URL, r.Platform, r.Outcome, r.ErrorCode, r.Title, r.MessageCount, r.UnknownRoles, r.Strategy, r.DurationMS, r.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scrape run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var r Run
	err := s.pool.QueryRow(ctx, `
		SELECT id, url, platform, outcome, error_code, title, message_count, unknown_roles, strategy, duration_ms, started_at
		FROM scrape_runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.URL, &r.Platform, &r.Outcome, &r.ErrorCode, &r.Title, &r.MessageCount, &r.UnknownRoles, &r.Strategy, &r.DurationMS, &r.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("get scrape run %s: %w", id, err)
	}
	return &r, nil
}

// FailureCounts returns failures per platform and outcome since t. A rising
// layout_changed count is the signal that a platform's selectors are stale.
func (s *Store) FailureCounts(ctx context.Context, since time.Time) (map[string]map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT platform, outcome, count(*)
		FROM scrape_runs
		WHERE outcome <> 'ok' AND started_at >= $1
		GROUP BY platform, outcome`, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query failure counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var platform, outcome string
		var n int
		if err := rows.Scan(&platform, &outcome, &n); err != nil {
			return nil, fmt.Errorf("scan failure count: %w", err)
		}
		if out[platform] == nil {
			out[platform] = make(map[string]int)
		}
		out[platform][outcome] = n
	}
	return out, rows.Err()
}

// AuditSink records every outcome. It implements scraper.Sink.
type AuditSink struct {
	store  *Store
	logger *slog.Logger
}

func NewAuditSink(s *Store, logger *slog.Logger) *AuditSink {
	return &AuditSink{store: s, logger: logger}
}

func (a *AuditSink) Record(ctx context.Context, o scraper.Outcome) {
	if err := a.store.RecordRun(ctx, RunFromOutcome(o)); err != nil {
		a.logger.Warn("failed to record scrape run", "scrape_id", o.ID, "error", err)
	}
}
