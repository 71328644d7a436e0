package browser

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the launch strategy.
type Mode string

const (
	// ModeServerless runs an externally provided, minimized binary headless
	// with aggressive flags.
	ModeServerless Mode = "serverless"
	// ModeLocal runs the locally installed browser, visible by default.
	ModeLocal Mode = "local"
)

var (
	ErrBrowserNotInstalled = errors.New("no local Chrome/Chromium installation found")
	ErrNoBrowserBinary     = errors.New("serverless mode requires an explicit browser binary path")
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeServerless:
		return ModeServerless, nil
	case ModeLocal:
		return ModeLocal, nil
	}
	return "", fmt.Errorf("unknown browser mode %q (want serverless or local)", s)
}

// Viewport is the fixed window size of every page in a mode.
type Viewport struct {
	Width  int
	Height int
}

// LaunchConfig describes how a browser process is started.
type LaunchConfig struct {
	Mode     Mode
	Bin      string
	Headless bool
	Viewport Viewport

	// Flags are command-line switches without leading dashes, optionally
	// with a value: "no-sandbox", "disable-blink-features=AutomationControlled".
	Flags []string
}

// stealthFlags are applied in every mode.
var stealthFlags = []string{
	"disable-blink-features=AutomationControlled",
}

// ServerlessConfig is the constrained-environment strategy.
func ServerlessConfig(bin string) LaunchConfig {
	return LaunchConfig{
		Mode:     ModeServerless,
		Bin:      bin,
		Headless: true,
		Viewport: Viewport{Width: 1920, Height: 1080},
		Flags: append([]string{
			"no-sandbox",
			"disable-setuid-sandbox",
			"disable-dev-shm-usage",
			"disable-gpu",
			"single-process",
			"no-zygote",
			"no-first-run",
			"hide-scrollbars",
			"disable-web-security",
			"mute-audio",
		}, stealthFlags...),
	}
}

// LocalConfig is the development strategy. bin may be empty to look up an
// installed browser.
func LocalConfig(bin string, headless bool) LaunchConfig {
	return LaunchConfig{
		Mode:     ModeLocal,
		Bin:      bin,
		Headless: headless,
		Viewport: Viewport{Width: 1280, Height: 800},
		Flags: append([]string{
			"no-sandbox",
			"disable-setuid-sandbox",
		}, stealthFlags...),
	}
}

func splitFlag(f string) (name string, value string, hasValue bool) {
	f = strings.TrimLeft(f, "-")
	return strings.Cut(f, "=")
}
