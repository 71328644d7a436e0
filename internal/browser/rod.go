package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodLauncher starts Chromium through rod's launcher and connects over CDP.
type RodLauncher struct {
	cfg    LaunchConfig
	logger *slog.Logger
}

// NewRodLauncher resolves the browser binary up front so a missing
// installation is reported at startup rather than on the first request.
func NewRodLauncher(cfg LaunchConfig, logger *slog.Logger) (*RodLauncher, error) {
	switch cfg.Mode {
	case ModeServerless:
		if cfg.Bin == "" {
			return nil, ErrNoBrowserBinary
		}
		if _, err := os.Stat(cfg.Bin); err != nil {
			return nil, fmt.Errorf("serverless browser binary %s: %w", cfg.Bin, err)
		}
	case ModeLocal:
		if cfg.Bin == "" {
			bin, ok := launcher.LookPath()
			if !ok {
				return nil, fmt.Errorf("%w: install Chrome or Chromium, or set CHROMIUM_PATH", ErrBrowserNotInstalled)
			}
			cfg.Bin = bin
		} else if _, err := os.Stat(cfg.Bin); err != nil {
			return nil, fmt.Errorf("%w: CHROMIUM_PATH %s: %v", ErrBrowserNotInstalled, cfg.Bin, err)
		}
	default:
		return nil, fmt.Errorf("unknown browser mode %q", cfg.Mode)
	}

	logger.Info("browser strategy selected",
		"mode", cfg.Mode,
		"bin", cfg.Bin,
		"headless", cfg.Headless,
		"viewport", fmt.Sprintf("%dx%d", cfg.Viewport.Width, cfg.Viewport.Height),
	)
	return &RodLauncher{cfg: cfg, logger: logger}, nil
}

func (r *RodLauncher) Mode() Mode { return r.cfg.Mode }

func (r *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		Bin(r.cfg.Bin).
		Headless(r.cfg.Headless).
		Leakless(r.cfg.Mode == ModeLocal)
	for _, f := range r.cfg.Flags {
		name, value, ok := splitFlag(f)
		if ok {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("launch %s browser: %w", r.cfg.Mode, err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	return &rodBrowser{browser: b, launcher: l, viewport: r.cfg.Viewport}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	viewport Viewport
}

// NewPage opens a page with the stealth evasions installed before any
// navigation happens.
func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	p, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("open stealth page: %w", err)
	}
	err = p.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.viewport.Width,
		Height:            b.viewport.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	return &rodPage{page: p}, nil
}

// Close shuts the browser down over CDP, then makes sure the process and
// its profile directory are gone.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	// DOM-ready only: chat apps keep long-lived connections open, so the
	// load event may never settle.
	return page.Wait(rod.Eval(`() => document.readyState !== "loading"`))
}

func (p *rodPage) WaitElement(ctx context.Context, selector string) error {
	_, err := p.page.Context(ctx).Element(selector)
	return err
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}
