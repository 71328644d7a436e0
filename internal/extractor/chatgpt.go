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
	chatgptTurnSelector     = `[data-testid^="conversation-turn-"]`
	chatgptGenericSelector  = `main div.text-base`
	chatgptRoleSelector     = `[data-message-author-role]`
	chatgptMarkdownSelector = `.markdown`
	chatgptHeadingSelector  = `.sr-only`
)

// ChatGPT extracts chatgpt.com / openai.com share pages.
type ChatGPT struct {
	WaitTimeout time.Duration
}

func NewChatGPT() *ChatGPT {
	return &ChatGPT{WaitTimeout: 10 * time.Second}
}

func (c *ChatGPT) Platform() transcript.Platform { return transcript.PlatformChatGPT }

func (c *ChatGPT) CanHandle(url string) bool {
	return containsAny(url, "chatgpt.com", "openai.com")
}

func (c *ChatGPT) Extract(ctx context.Context, page browser.Page, url string) (*transcript.Result, error) {
	wait := renderWait{selector: chatgptTurnSelector, timeout: c.WaitTimeout}
	return extractWith(ctx, page, url, c.Platform(), wait, ParseChatGPT)
}

// ParseChatGPT tries, in order: conversation-turn containers, generic
// text-base blocks under <main>, then bare author-role nodes.
func ParseChatGPT(doc *goquery.Document) ([]transcript.Message, string) {
	if turns := doc.Find(chatgptTurnSelector); turns.Length() > 0 {
		return collect(turns, chatgptRole, chatgptContent), "conversation-turn"
	}
	if blocks := outermost(doc.Find(chatgptGenericSelector)); blocks.Length() > 0 {
		return collect(blocks, chatgptRole, chatgptContent), "text-base"
	}
	nodes := outermost(doc.Find(chatgptRoleSelector))
	return collect(nodes, chatgptRole, chatgptContent), "author-role"
}

// chatgptRole: author-role attribute on the node or a descendant, then the
// screen-reader heading ("You said:" / "ChatGPT said:").
func chatgptRole(s *goquery.Selection) transcript.Role {
	attr, ok := s.Attr("data-message-author-role")
	if !ok {
		attr, ok = s.Find(chatgptRoleSelector).First().Attr("data-message-author-role")
	}
	if ok {
		switch strings.ToLower(strings.TrimSpace(attr)) {
		case "user":
			return transcript.RoleUser
		case "assistant":
			return transcript.RoleAssistant
		case "system":
			return transcript.RoleSystem
		}
	}

	heading := strings.ToLower(renderedText(s.Find(chatgptHeadingSelector).First()))
	switch {
	case strings.HasPrefix(heading, "you said"):
		return transcript.RoleUser
	case strings.Contains(heading, "chatgpt said"):
		return transcript.RoleAssistant
	}
	return transcript.RoleUnknown
}

func chatgptContent(s *goquery.Selection) string {
	if md := outermost(s.Find(chatgptMarkdownSelector)); md.Length() > 0 {
		if text := renderedText(md); text != "" {
			return text
		}
	}
	return textWithout(s, chatgptHeadingSelector)
}
