package extractor

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

// parseFunc is the browser-free half of an extractor: a pure function from
// a DOM snapshot to messages, plus the name of the strategy that matched.
type parseFunc func(doc *goquery.Document) ([]transcript.Message, string)

type renderWait struct {
	selector string
	timeout  time.Duration
}

// extractWith runs the shared extraction sequence: wait for the platform's
// render marker, snapshot the DOM, parse it and reject empty transcripts.
func extractWith(ctx context.Context, page browser.Page, url string, platform transcript.Platform, wait renderWait, parse parseFunc) (*transcript.Result, error) {
	waitCtx, cancel := context.WithTimeout(ctx, wait.timeout)
	waitErr := page.WaitElement(waitCtx, wait.selector)
	cancel()
	// Expiry of our own wait is fine, the page may have rendered before we
	// started waiting. Cancellation of the request is not.
	if waitErr != nil && ctx.Err() != nil {
		return nil, transcript.Wrap("wait for render", platform, ctx.Err())
	}

	snapshot, err := page.HTML(ctx)
	if err != nil {
		return nil, transcript.Wrap("snapshot dom", platform, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return nil, transcript.Wrap("parse dom", platform, err)
	}

	messages, strategy := parse(doc)
	if len(messages) == 0 {
		return nil, transcript.LayoutChanged(platform)
	}

	title, err := page.Title(ctx)
	if err != nil {
		return nil, transcript.Wrap("read title", platform, err)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	result := &transcript.Result{
		Platform: platform,
		URL:      url,
		Title:    title,
		Messages: messages,
	}
	result.Metadata = map[string]any{
		"strategy":      strategy,
		"render_marker": waitErr == nil,
		"unknown_roles": result.CountRole(transcript.RoleUnknown),
	}
	return result, nil
}

// collect builds messages from nodes in document order, skipping nodes
// without any rendered text.
func collect(nodes *goquery.Selection, role func(*goquery.Selection) transcript.Role, content func(*goquery.Selection) string) []transcript.Message {
	var out []transcript.Message
	nodes.Each(func(_ int, s *goquery.Selection) {
		text := content(s)
		if text == "" {
			return
		}
		out = append(out, transcript.Message{
			Role:      role(s),
			Content:   text,
			Timestamp: timestampOf(s),
		})
	})
	return out
}
