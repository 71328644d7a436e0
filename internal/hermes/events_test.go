package hermes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sharescrape/internal/scraper"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

type capturePublisher struct {
	subjects []string
	payloads []any
	err      error
}

func (c *capturePublisher) Publish(subject string, data any) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return c.err
}

func TestNewScrapeEvent_Completed(t *testing.T) {
	id := uuid.New()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	subject, evt := NewScrapeEvent(scraper.Outcome{
		ID:       id,
		URL:      "https://chatgpt.com/share/abc",
		Platform: transcript.PlatformChatGPT,
		Result: &transcript.Result{
			Title: "Trip",
			Messages: []transcript.Message{
				{Role: transcript.RoleUser, Content: "secret question"},
				{Role: transcript.RoleAssistant, Content: "answer"},
				{Role: transcript.RoleUser, Content: "follow up"},
			},
		},
		Started:  started,
		Duration: 1500 * time.Millisecond,
	})

	if subject != SubjectScrapeCompleted {
		t.Errorf("expected completed subject, got %s", subject)
	}
	if evt.ScrapeID != id.String() {
		t.Errorf("expected scrape id %s, got %s", id, evt.ScrapeID)
	}
	if evt.Messages != 3 || evt.Roles["user"] != 2 || evt.Roles["assistant"] != 1 {
		t.Errorf("unexpected counts %+v", evt)
	}
	if evt.DurationMS != 1500 {
		t.Errorf("expected 1500ms, got %d", evt.DurationMS)
	}
	if evt.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("unexpected timestamp %s", evt.Timestamp)
	}
	if evt.Kind != "" || evt.Code != "" {
		t.Errorf("completed event must not carry a failure kind: %+v", evt)
	}
}

func TestNewScrapeEvent_Failed(t *testing.T) {
	subject, evt := NewScrapeEvent(scraper.Outcome{
		ID:       uuid.New(),
		URL:      "https://gemini.google.com/share/x",
		Platform: transcript.PlatformGemini,
		Err:      transcript.NavigationTimeout(context.DeadlineExceeded),
	})

	if subject != SubjectScrapeFailed {
		t.Errorf("expected failed subject, got %s", subject)
	}
	if evt.Kind != "navigation_timeout" || evt.Code != "E_NAVIGATION_TIMEOUT" {
		t.Errorf("unexpected failure fields %+v", evt)
	}
	if evt.Messages != 0 || evt.Roles != nil {
		t.Errorf("failed event must not carry counts %+v", evt)
	}
}

func TestEventSink_PublishFailureIsSwallowed(t *testing.T) {
	pub := &capturePublisher{err: errors.New("nats: connection closed")}
	sink := NewEventSink(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sink.Record(context.Background(), scraper.Outcome{ID: uuid.New(), Err: transcript.InvalidInput("url is required")})

	if len(pub.subjects) != 1 || pub.subjects[0] != SubjectScrapeFailed {
		t.Errorf("unexpected publishes %v", pub.subjects)
	}
	if _, ok := pub.payloads[0].(ScrapeEvent); !ok {
		t.Errorf("expected a ScrapeEvent payload, got %T", pub.payloads[0])
	}
}
