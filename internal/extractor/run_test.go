package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

// fixturePage serves a fixed DOM snapshot.
type fixturePage struct {
	html     string
	title    string
	waitErr  error
	htmlErr  error
	titleErr error
	waited   []string
}

func (p *fixturePage) Navigate(context.Context, string) error { return nil }

func (p *fixturePage) WaitElement(ctx context.Context, selector string) error {
	p.waited = append(p.waited, selector)
	if p.waitErr != nil {
		return p.waitErr
	}
	return ctx.Err()
}

func (p *fixturePage) HTML(context.Context) (string, error)  { return p.html, p.htmlErr }
func (p *fixturePage) Title(context.Context) (string, error) { return p.title, p.titleErr }

const emptyShell = `<html><head><title>Shared chat</title></head><body><main><div id="root"></div></main></body></html>`

func TestExtract_ZeroMessagesIsLayoutChanged(t *testing.T) {
	for _, ext := range DefaultRegistry().extractors {
		t.Run(string(ext.Platform()), func(t *testing.T) {
			page := &fixturePage{html: emptyShell, title: "Shared chat"}

			res, err := ext.Extract(context.Background(), page, "https://example.test/share/1")
			assert.Nil(t, res)
			require.Error(t, err)
			assert.Equal(t, transcript.KindLayoutChanged, transcript.KindOf(err))
		})
	}
}

func TestExtract_WhitespaceOnlyNodesAreLayoutChanged(t *testing.T) {
	page := &fixturePage{html: `<html><body>
		<div class="font-user-message">   </div>
		<div class="font-claude-message">
		</div>
	</body></html>`}

	_, err := NewClaude().Extract(context.Background(), page, "https://claude.ai/share/x")
	assert.Equal(t, transcript.KindLayoutChanged, transcript.KindOf(err))
}

func TestExtract_RenderWaitTimeoutIsNotFatal(t *testing.T) {
	page := &fixturePage{
		html:    chatgptFixture,
		title:   "Trip planning",
		waitErr: context.DeadlineExceeded,
	}
	ext := &ChatGPT{WaitTimeout: time.Millisecond}

	res, err := ext.Extract(context.Background(), page, "https://chatgpt.com/share/abc")
	require.NoError(t, err)
	assert.Len(t, res.Messages, 4)
	assert.Equal(t, false, res.Metadata["render_marker"])
	assert.Equal(t, []string{chatgptTurnSelector}, page.waited)
}

func TestExtract_CancelledRequestFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page := &fixturePage{html: chatgptFixture}

	_, err := NewChatGPT().Extract(ctx, page, "https://chatgpt.com/share/abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, transcript.KindUnknown, transcript.KindOf(err))
}

func TestExtract_SnapshotErrorPropagates(t *testing.T) {
	page := &fixturePage{htmlErr: errors.New("eval: execution context was destroyed")}

	_, err := NewGemini().Extract(context.Background(), page, "https://gemini.google.com/share/x")
	require.Error(t, err)
	assert.Equal(t, transcript.KindUnknown, transcript.KindOf(err))
	assert.ErrorContains(t, err, "execution context was destroyed")
}

func TestExtract_TitleErrorPropagates(t *testing.T) {
	page := &fixturePage{html: claudeFixture, titleErr: errors.New("target closed")}

	_, err := NewClaude().Extract(context.Background(), page, "https://claude.ai/share/x")
	assert.ErrorContains(t, err, "target closed")
}

func TestExtract_TitleFallsBackToDocument(t *testing.T) {
	page := &fixturePage{html: `<html><head><title>From DOM</title></head><body>
		<div class="font-user-message">hi</div></body></html>`}

	res, err := NewClaude().Extract(context.Background(), page, "https://claude.ai/share/x")
	require.NoError(t, err)
	assert.Equal(t, "From DOM", res.Title)
}
