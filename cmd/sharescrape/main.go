package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/sharescrape/internal/api"
	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
	"github.com/MikeSquared-Agency/sharescrape/internal/config"
	"github.com/MikeSquared-Agency/sharescrape/internal/extractor"
	"github.com/MikeSquared-Agency/sharescrape/internal/hermes"
	"github.com/MikeSquared-Agency/sharescrape/internal/metrics"
	"github.com/MikeSquared-Agency/sharescrape/internal/scraper"
	"github.com/MikeSquared-Agency/sharescrape/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("ignoring .env", "error", err)
	}
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("sharescrape starting", "port", cfg.Port, "browser_mode", cfg.BrowserMode)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Browser strategy is chosen once; a missing local browser is fatal.
	launcher, err := browser.NewRodLauncher(cfg.LaunchConfig(), slog.Default())
	if err != nil {
		slog.Error("browser unavailable", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	browsers := browser.NewManager(launcher, slog.Default()).WithActiveGauge(m.BrowsersActive)
	sinks := []scraper.Sink{m}

	// Database (optional audit trail)
	var db *store.Store
	if cfg.DatabaseURL != "" {
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare database", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, store.NewAuditSink(db, slog.Default()))
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, running without scrape audit")
	}

	// NATS/Hermes (optional outcome events)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		sinks = append(sinks, hermes.NewEventSink(hermesClient, slog.Default()))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	svc := scraper.New(extractor.DefaultRegistry(), browsers, scraper.Options{
		NavigationTimeout: cfg.NavigationTimeout,
		ExtractTimeout:    cfg.ExtractTimeout,
		Launches:          scraper.NewLaunchLimiter(cfg.RateLimit, cfg.RateBurst),
	}, slog.Default(), sinks...)

	// HTTP API
	opts := api.Options{
		Port:     cfg.Port,
		APIToken: cfg.APIToken,
		Metrics:  m.Handler(),
	}
	if db != nil {
		opts.Failures = db
	}
	srv := api.NewServer(opts, svc, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Announce registration
	if hermesClient != nil {
		if err := hermesClient.Publish(hermes.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"platforms": svc.Platforms(),
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("sharescrape ready", "port", cfg.Port, "platforms", svc.Platforms())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	// In-flight scrapes finish and release their browsers before exit.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.NavigationTimeout+cfg.ExtractTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	cancel()
	slog.Info("sharescrape stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
