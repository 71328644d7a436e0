package extractor

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

const (
	claudeWaitSelector     = `.font-user-message, .font-claude-message`
	claudeMessageSelector  = `.font-user-message, .font-claude-message, .font-claude-response, [data-testid="user-message"]`
	claudeMarkdownSelector = `.standard-markdown, .progressive-markdown, .markdown`
)

// Claude extracts claude.ai share pages. Claude renders slower than the
// others, hence the longer render wait.
type Claude struct {
	WaitTimeout time.Duration
}

func NewClaude() *Claude {
	return &Claude{WaitTimeout: 15 * time.Second}
}

func (c *Claude) Platform() transcript.Platform { return transcript.PlatformClaude }

func (c *Claude) CanHandle(url string) bool {
	return containsAny(url, "claude.ai")
}

func (c *Claude) Extract(ctx context.Context, page browser.Page, url string) (*transcript.Result, error) {
	wait := renderWait{selector: claudeWaitSelector, timeout: c.WaitTimeout}
	return extractWith(ctx, page, url, c.Platform(), wait, ParseClaude)
}

// ParseClaude reads the typography-classed message blocks. The font classes
// sometimes sit on an inner span as well, so only outermost matches count.
func ParseClaude(doc *goquery.Document) ([]transcript.Message, string) {
	nodes := outermost(doc.Find(claudeMessageSelector))
	return collect(nodes, claudeRole, claudeContent), "font-class"
}

// claudeRole: data-testid attribute, then the font-* class convention.
func claudeRole(s *goquery.Selection) transcript.Role {
	if id, _ := s.Attr("data-testid"); id == "user-message" {
		return transcript.RoleUser
	}
	switch {
	case s.HasClass("font-user-message"):
		return transcript.RoleUser
	case s.HasClass("font-claude-message"), s.HasClass("font-claude-response"):
		return transcript.RoleAssistant
	}
	return transcript.RoleUnknown
}

func claudeContent(s *goquery.Selection) string {
	return contentOf(s, claudeMarkdownSelector)
}
