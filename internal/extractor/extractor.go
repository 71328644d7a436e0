// Package extractor turns a navigated share page into a normalized
// transcript. Each supported platform is an independent Extractor; the
// Registry picks one by URL without touching the network.
package extractor

import (
	"context"
	"strings"

	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

// Extractor recovers a transcript from one platform's share pages.
type Extractor interface {
	Platform() transcript.Platform
	// CanHandle reports whether url belongs to this platform. It must not
	// perform I/O.
	CanHandle(url string) bool
	// Extract reads an already navigated page.
	Extract(ctx context.Context, page browser.Page, url string) (*transcript.Result, error)
}

// Registry is an ordered, read-only set of extractors.
type Registry struct {
	extractors []Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: append([]Extractor(nil), extractors...)}
}

// DefaultRegistry holds the ChatGPT, Claude and Gemini extractors, in that order.
func DefaultRegistry() *Registry {
	return NewRegistry(NewChatGPT(), NewClaude(), NewGemini())
}

// Select returns the first extractor, in registration order, that accepts url.
func (r *Registry) Select(url string) (Extractor, error) {
	for _, e := range r.extractors {
		if e.CanHandle(url) {
			return e, nil
		}
	}
	return nil, transcript.UnsupportedPlatform(url)
}

// Platforms lists the registered platforms in selection order.
func (r *Registry) Platforms() []transcript.Platform {
	out := make([]transcript.Platform, len(r.extractors))
	for i, e := range r.extractors {
		out[i] = e.Platform()
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
