package extractor

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

const (
	geminiMessageSelector  = `message-content, [role="article"]`
	geminiHeaderSelector   = `h2, .role-label, .author-name`
	geminiMarkdownSelector = `.markdown`
)

// Gemini extracts gemini.google.com / g.co/gemini share pages.
type Gemini struct {
	WaitTimeout time.Duration
}

func NewGemini() *Gemini {
	return &Gemini{WaitTimeout: 10 * time.Second}
}

func (g *Gemini) Platform() transcript.Platform { return transcript.PlatformGemini }

func (g *Gemini) CanHandle(url string) bool {
	return containsAny(url, "gemini.google.com", "g.co/gemini")
}

func (g *Gemini) Extract(ctx context.Context, page browser.Page, url string) (*transcript.Result, error) {
	wait := renderWait{selector: geminiMessageSelector, timeout: g.WaitTimeout}
	return extractWith(ctx, page, url, g.Platform(), wait, ParseGemini)
}

// ParseGemini reads <message-content> components and ARIA articles.
func ParseGemini(doc *goquery.Document) ([]transcript.Message, string) {
	nodes := outermost(doc.Find(geminiMessageSelector))
	return collect(nodes, geminiRole, geminiContent), "message-content"
}

// geminiRole: enclosing user-query / model-response component, then a
// header inside the turn container. Share pages do not always label turns;
// without a label the role stays unknown rather than being guessed from
// position.
func geminiRole(s *goquery.Selection) transcript.Role {
	if s.Closest("user-query").Length() > 0 {
		return transcript.RoleUser
	}
	if s.Closest("model-response").Length() > 0 {
		return transcript.RoleAssistant
	}

	container := s.Closest(".conversation-turn")
	if container.Length() == 0 {
		container = s.Parent()
	}
	header := container.Find(geminiHeaderSelector).First()
	if header.Length() == 0 {
		return transcript.RoleUnknown
	}

	text := strings.ToLower(renderedText(header))
	role := transcript.RoleUnknown
	if containsAny(text, "gemini", "model") {
		role = transcript.RoleAssistant
	}
	if containsAny(text, "user", "you") {
		role = transcript.RoleUser
	}
	return role
}

func geminiContent(s *goquery.Selection) string {
	return contentOf(s, geminiMarkdownSelector)
}
