package hermes

import (
	"context"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/sharescrape/internal/scraper"
)

const (
	SubjectScrapeCompleted = "swarm.sharescrape.scrape.completed"
	SubjectScrapeFailed    = "swarm.sharescrape.scrape.failed"
	SubjectRegistered      = "swarm.agent.sharescrape.registered"
)

// ScrapeEvent is published once per scrape. It carries counts, never
// message content.
type ScrapeEvent struct {
	ScrapeID   string         `json:"scrape_id"`
	URL        string         `json:"url"`
	Platform   string         `json:"platform,omitempty"`
	Title      string         `json:"title,omitempty"`
	Messages   int            `json:"messages"`
	Roles      map[string]int `json:"roles,omitempty"`
	Kind       string         `json:"kind,omitempty"`
	Code       string         `json:"code,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Timestamp  string         `json:"timestamp"`
}

// NewScrapeEvent summarises o. The subject depends on whether it failed.
func NewScrapeEvent(o scraper.Outcome) (string, ScrapeEvent) {
	evt := ScrapeEvent{
		ScrapeID:   o.ID.String(),
		URL:        o.URL,
		Platform:   string(o.Platform),
		DurationMS: o.Duration.Milliseconds(),
		Timestamp:  o.Started.UTC().Format(time.RFC3339),
	}
	if o.Err != nil {
		evt.Kind = o.Kind().String()
		evt.Code = o.Kind().Code()
		return SubjectScrapeFailed, evt
	}
	if o.Result != nil {
		evt.Title = o.Result.Title
		evt.Messages = len(o.Result.Messages)
		evt.Roles = make(map[string]int)
		for _, m := range o.Result.Messages {
			evt.Roles[string(m.Role)]++
		}
	}
	return SubjectScrapeCompleted, evt
}

// Publisher is satisfied by *Client.
type Publisher interface {
	Publish(subject string, data any) error
}

// EventSink publishes scrape outcomes. It implements scraper.Sink.
type EventSink struct {
	pub    Publisher
	logger *slog.Logger
}

func NewEventSink(pub Publisher, logger *slog.Logger) *EventSink {
	return &EventSink{pub: pub, logger: logger}
}

func (s *EventSink) Record(_ context.Context, o scraper.Outcome) {
	subject, evt := NewScrapeEvent(o)
	if err := s.pub.Publish(subject, evt); err != nil {
		s.logger.Warn("failed to publish scrape event", "subject", subject, "scrape_id", evt.ScrapeID, "error", err)
	}
}
