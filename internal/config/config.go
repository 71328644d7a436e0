package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MikeSquared-Agency/sharescrape/internal/browser"
)

type Config struct {
	Port              int
	LogLevel          string
	BrowserMode       browser.Mode
	ChromiumPath      string
	BrowserHeadless   bool
	NavigationTimeout time.Duration
	ExtractTimeout    time.Duration
	RateLimit         float64
	RateBurst         int
	APIToken          string
	DatabaseURL       string
	NatsURL           string
	NatsToken         string

	modeErr error
}

// LoadDotEnv reads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	mode, modeErr := deriveMode()
	return Config{
		Port:              envInt("SHARESCRAPE_PORT", 8760),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		BrowserMode:       mode,
		ChromiumPath:      envStr("CHROMIUM_PATH", ""),
		BrowserHeadless:   envBool("BROWSER_HEADLESS", mode == browser.ModeServerless),
		NavigationTimeout: envDuration("NAVIGATION_TIMEOUT", 30*time.Second),
		ExtractTimeout:    envDuration("EXTRACT_TIMEOUT", 45*time.Second),
		RateLimit:         envFloat("SCRAPE_RATE_LIMIT", 2),
		RateBurst:         envInt("SCRAPE_RATE_BURST", 4),
		APIToken:          envStr("SHARESCRAPE_API_TOKEN", ""),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		NatsURL:           envStr("NATS_URL", ""),
		NatsToken:         envStr("NATS_TOKEN", ""),
		modeErr:           modeErr,
	}
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.modeErr != nil {
		errs = append(errs, fmt.Errorf("BROWSER_MODE: %w", c.modeErr))
	}
	if c.BrowserMode == browser.ModeServerless && c.ChromiumPath == "" {
		errs = append(errs, errors.New("CHROMIUM_PATH is required in serverless mode"))
	}
	if c.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("NAVIGATION_TIMEOUT must be positive"))
	}
	if c.ExtractTimeout <= 0 {
		errs = append(errs, errors.New("EXTRACT_TIMEOUT must be positive"))
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		errs = append(errs, errors.New("SCRAPE_RATE_LIMIT and SCRAPE_RATE_BURST must be positive"))
	}
	return errors.Join(errs...)
}

// LaunchConfig turns the browser settings into a launch strategy.
func (c Config) LaunchConfig() browser.LaunchConfig {
	if c.BrowserMode == browser.ModeServerless {
		return browser.ServerlessConfig(c.ChromiumPath)
	}
	return browser.LocalConfig(c.ChromiumPath, c.BrowserHeadless)
}

// deriveMode honours an explicit BROWSER_MODE, otherwise treats known
// hosted runtimes and production environments as serverless. An
// unparseable BROWSER_MODE falls back to the derived mode and is returned
// for Validate to report.
func deriveMode() (browser.Mode, error) {
	var parseErr error
	if v := envStr("BROWSER_MODE", ""); v != "" {
		m, err := browser.ParseMode(v)
		if err == nil {
			return m, nil
		}
		parseErr = err
	}
	if envStr("VERCEL", "") != "" || envStr("AWS_LAMBDA_FUNCTION_NAME", "") != "" {
		return browser.ModeServerless, parseErr
	}
	if envStr("NODE_ENV", "") == "production" || envStr("APP_ENV", "") == "production" {
		return browser.ModeServerless, parseErr
	}
	return browser.ModeLocal, parseErr
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("30s") or plain milliseconds ("30000").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
