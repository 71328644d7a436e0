package transcript

import (
	"errors"
	"fmt"
)

// Kind classifies a scrape failure so the boundary can map it to a status.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindUnsupportedPlatform
	KindNavigationTimeout
	KindLayoutChanged
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnsupportedPlatform:
		return "unsupported_platform"
	case KindNavigationTimeout:
		return "navigation_timeout"
	case KindLayoutChanged:
		return "layout_changed"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Code is the stable machine-readable code returned to clients.
func (k Kind) Code() string {
	switch k {
	case KindInvalidInput:
		return "E_INVALID_INPUT"
	case KindUnsupportedPlatform:
		return "E_UNSUPPORTED_PLATFORM"
	case KindNavigationTimeout:
		return "E_NAVIGATION_TIMEOUT"
	case KindLayoutChanged:
		return "E_LAYOUT_CHANGED"
	case KindRateLimited:
		return "E_RATE_LIMITED"
	default:
		return "E_UNKNOWN"
	}
}

// ClientError reports whether the failure was caused by the request itself.
func (k Kind) ClientError() bool {
	return k == KindInvalidInput || k == KindUnsupportedPlatform
}

// Error is a classified scrape failure.
type Error struct {
	Kind     Kind
	Op       string
	Platform Platform
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.Code()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Platform != "" {
		msg += " (" + string(e.Platform) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func InvalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Op: "validate", Err: fmt.Errorf(format, args...)}
}

func UnsupportedPlatform(url string) error {
	return &Error{Kind: KindUnsupportedPlatform, Op: "select extractor", Err: fmt.Errorf("no extractor found for URL: %s", url)}
}

func NavigationTimeout(err error) error {
	return &Error{Kind: KindNavigationTimeout, Op: "navigate", Err: err}
}

func LayoutChanged(p Platform) error {
	return &Error{Kind: KindLayoutChanged, Op: "extract", Platform: p, Err: errors.New("could not extract any messages")}
}

// RateLimited means the browser launch budget is exhausted for now.
func RateLimited(p Platform) error {
	return &Error{Kind: KindRateLimited, Op: "acquire browser", Platform: p, Err: errors.New("browser launch budget exhausted")}
}

// Wrap classifies err as unknown unless it already carries a kind.
func Wrap(op string, p Platform, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindUnknown, Op: op, Platform: p, Err: err}
}
