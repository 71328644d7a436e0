// Command scrape extracts one share page and prints the transcript as JSON.
//
//	scrape [-pretty] <url>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
	"github.com/MikeSquared-Agency/sharescrape/internal/config"
	"github.com/MikeSquared-Agency/sharescrape/internal/extractor"
	"github.com/MikeSquared-Agency/sharescrape/internal/scraper"
	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	pretty := fs.Bool("pretty", false, "indent the JSON output")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: scrape [-pretty] <url>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	_ = config.LoadDotEnv(".env")
	cfg := config.Load()
	// Logs go to stderr so stdout stays valid JSON.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	launcher, err := browser.NewRodLauncher(cfg.LaunchConfig(), logger)
	if err != nil {
		logger.Error("browser unavailable", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := scraper.New(extractor.DefaultRegistry(), browser.NewManager(launcher, logger), scraper.Options{
		NavigationTimeout: cfg.NavigationTimeout,
		ExtractTimeout:    cfg.ExtractTimeout,
	}, logger)

	res, err := svc.Scrape(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "scrape failed (%s): %v\n", transcript.KindOf(err).Code(), err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(os.Stderr, "write result: %v\n", err)
		return 1
	}
	return 0
}

func logLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
