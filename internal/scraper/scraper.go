// Package scraper is the single entry point for turning a share URL into a
// transcript: validate, select an extractor, then drive one browser through
// navigate and extract, always releasing it.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
	"github.com/MikeSquared-Agency/sharescrape/internal/extractor"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

// Browsers is the acquire/release half of browser.Manager.
type Browsers interface {
	Acquire(ctx context.Context) (browser.Browser, error)
	Release(b browser.Browser)
}

// Outcome describes one finished scrape, successful or not.
type Outcome struct {
	ID       uuid.UUID
	URL      string
	Platform transcript.Platform
	Result   *transcript.Result
	Err      error
	Started  time.Time
	Duration time.Duration
}

func (o Outcome) Kind() transcript.Kind {
	return transcript.KindOf(o.Err)
}

// Sink observes outcomes. Implementations handle their own failures; a sink
// never changes what the caller gets back.
type Sink interface {
	Record(ctx context.Context, o Outcome)
}

// Limiter gates browser launches. *rate.Limiter satisfies it.
type Limiter interface {
	Allow() bool
}

// NewLaunchLimiter is a global token bucket of perSecond launches with the
// given burst. A non-positive rate disables limiting.
func NewLaunchLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type Options struct {
	NavigationTimeout time.Duration
	ExtractTimeout    time.Duration

	// Launches is consulted only once a request is known to need a
	// browser. Nil means unlimited.
	Launches Limiter
}

func DefaultOptions() Options {
	return Options{
		NavigationTimeout: 30 * time.Second,
		ExtractTimeout:    45 * time.Second,
	}
}

type Service struct {
	registry *extractor.Registry
	browsers Browsers
	opts     Options
	sinks    []Sink
	logger   *slog.Logger
}

func New(registry *extractor.Registry, browsers Browsers, opts Options, logger *slog.Logger, sinks ...Sink) *Service {
	return &Service{
		registry: registry,
		browsers: browsers,
		opts:     opts,
		sinks:    sinks,
		logger:   logger,
	}
}

// Platforms lists the platforms this service can scrape.
func (s *Service) Platforms() []transcript.Platform {
	return s.registry.Platforms()
}

// Scrape runs the full pipeline for rawURL. Failures are *transcript.Error
// values; use transcript.KindOf to classify them.
func (s *Service) Scrape(ctx context.Context, rawURL string) (*transcript.Result, error) {
	o := Outcome{ID: uuid.New(), URL: strings.TrimSpace(rawURL), Started: time.Now()}
	log := s.logger.With("scrape_id", o.ID, "url", o.URL)
	log.Info("scrape started")

	o.Result, o.Err = s.run(ctx, &o)
	o.Duration = time.Since(o.Started)

	if o.Err != nil {
		attrs := []any{"platform", o.Platform, "kind", o.Kind().String(), "duration", o.Duration, "error", o.Err}
		if o.Kind().ClientError() || o.Kind() == transcript.KindRateLimited {
			log.Warn("scrape rejected", attrs...)
		} else {
			log.Error("scrape failed", attrs...)
		}
	} else {
		log.Info("scrape finished",
			"platform", o.Platform,
			"messages", len(o.Result.Messages),
			"duration", o.Duration,
		)
	}

	s.record(o)
	return o.Result, o.Err
}

func (s *Service) run(ctx context.Context, o *Outcome) (*transcript.Result, error) {
	if err := ValidateURL(o.URL); err != nil {
		return nil, err
	}

	ext, err := s.registry.Select(o.URL)
	if err != nil {
		return nil, err
	}
	o.Platform = ext.Platform()

	if s.opts.Launches != nil && !s.opts.Launches.Allow() {
		return nil, transcript.RateLimited(o.Platform)
	}

	b, err := s.browsers.Acquire(ctx)
	if err != nil {
		return nil, transcript.Wrap("launch browser", o.Platform, err)
	}
	defer s.browsers.Release(b)

	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, transcript.Wrap("open page", o.Platform, err)
	}

	if err := s.navigate(ctx, page, o.URL); err != nil {
		return nil, transcript.Wrap("navigate", o.Platform, err)
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.opts.ExtractTimeout)
	defer cancel()
	res, err := ext.Extract(extractCtx, page, o.URL)
	if err != nil {
		return nil, transcript.Wrap("extract", o.Platform, err)
	}
	return res, nil
}

// navigate bounds page load by the navigation budget. Only expiry of that
// budget is a NavigationTimeout; cancellation by the caller is not.
func (s *Service) navigate(ctx context.Context, page browser.Page, rawURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	defer cancel()

	err := page.Navigate(navCtx, rawURL)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && (errors.Is(navCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)) {
		return transcript.NavigationTimeout(err)
	}
	return err
}

// record fans the outcome out on a context detached from the request, so a
// disconnected client still gets its run accounted for.
func (s *Service) record(o Outcome) {
	if len(s.sinks) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, sink := range s.sinks {
		sink.Record(ctx, o)
	}
}

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return transcript.InvalidInput("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return transcript.InvalidInput("url is not valid")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return transcript.InvalidInput("url must be an absolute http or https URL")
	}
	return nil
}
