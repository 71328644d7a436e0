// Package browser owns the headless browser lifecycle: one process per
// scrape, launched by a strategy chosen once at startup.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Page is a single navigated tab. Extractors only see this interface.
type Page interface {
	// Navigate loads url and returns once the document is DOM-ready.
	Navigate(ctx context.Context, url string) error
	// WaitElement blocks until selector matches or ctx is done.
	WaitElement(ctx context.Context, selector string) error
	// HTML returns a serialized snapshot of the rendered document.
	HTML(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
}

// Browser is an exclusively owned browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Launcher is the environment-specific launch strategy.
type Launcher interface {
	Mode() Mode
	Launch(ctx context.Context) (Browser, error)
}

// Gauge is the subset of prometheus.Gauge the manager reports to.
type Gauge interface {
	Inc()
	Dec()
}

// Manager hands out browsers. There is no pooling: every Acquire spawns a
// process and every Release tears it down.
type Manager struct {
	launcher Launcher
	logger   *slog.Logger
	active   Gauge
}

func NewManager(l Launcher, logger *slog.Logger) *Manager {
	return &Manager{launcher: l, logger: logger}
}

// WithActiveGauge reports the number of live browser processes to g.
func (m *Manager) WithActiveGauge(g Gauge) *Manager {
	m.active = g
	return m
}

func (m *Manager) Mode() Mode {
	return m.launcher.Mode()
}

// Acquire launches a fresh, stealth-configured browser.
func (m *Manager) Acquire(ctx context.Context) (Browser, error) {
	start := time.Now()
	b, err := m.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire browser: %w", err)
	}
	if m.active != nil {
		m.active.Inc()
	}
	m.logger.Debug("browser launched", "mode", m.launcher.Mode(), "took", time.Since(start))
	return b, nil
}

// Release closes b. It is safe to call with nil.
func (m *Manager) Release(b Browser) {
	if b == nil {
		return
	}
	if err := b.Close(); err != nil {
		m.logger.Warn("browser close failed", "error", err)
	}
	if m.active != nil {
		m.active.Dec()
	}
	m.logger.Debug("browser released", "mode", m.launcher.Mode())
}
