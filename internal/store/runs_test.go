package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sharescrape/internal/scraper"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

func TestRunFromOutcome_Success(t *testing.T) {
	id := uuid.New()
	started := time.Now()
	r := RunFromOutcome(scraper.Outcome{
		ID:       id,
		URL:      "https://gemini.google.com/share/x",
		Platform: transcript.PlatformGemini,
		Result: &transcript.Result{
			Title: "RAG",
			Messages: []transcript.Message{
				{Role: transcript.RoleUnknown, Content: "q"},
				{Role: transcript.RoleUnknown, Content: "a"},
			},
			Metadata: map[string]any{"strategy": "message-content"},
		},
		Started:  started,
		Duration: 3 * time.Second,
	})

	if r.ID != id || r.Outcome != "ok" || r.ErrorCode != "" {
		t.Errorf("unexpected row %+v", r)
	}
	if r.MessageCount != 2 || r.UnknownRoles != 2 {
		t.Errorf("expected 2 messages and 2 unknown roles, got %d/%d", r.MessageCount, r.UnknownRoles)
	}
	if r.Strategy != "message-content" {
		t.Errorf("expected strategy, got %q", r.Strategy)
	}
	if r.DurationMS != 3000 || !r.StartedAt.Equal(started) {
		t.Errorf("unexpected timing %d %v", r.DurationMS, r.StartedAt)
	}
}

func TestRunFromOutcome_Failure(t *testing.T) {
	r := RunFromOutcome(scraper.Outcome{
		ID:       uuid.New(),
		URL:      "https://example.com",
		Err:      transcript.UnsupportedPlatform("https://example.com"),
		Duration: time.Millisecond,
	})

	if r.Outcome != "unsupported_platform" || r.ErrorCode != "E_UNSUPPORTED_PLATFORM" {
		t.Errorf("unexpected failure row %+v", r)
	}
	if r.Platform != "" || r.MessageCount != 0 {
		t.Errorf("failure row must not carry result fields %+v", r)
	}
}
