// Package fetch retrieves pages from scraping targets while evading bot
// detection. Four interchangeable strategies implement the same Fetcher
// contract: plain rotated-header HTTP, TLS-fingerprint impersonation, a
// stealth headless browser, and undetected full-browser automation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Page represents a fetched page.
type Page struct {
	URL        string
	FinalURL   string // after redirects; equal to URL when none occurred
	HTML       string
	StatusCode int
	FetchedAt  time.Time
}

// Options controls a single fetch.
type Options struct {
	// WaitSelector is a CSS selector the browser strategies wait for
	// before capturing HTML. Ignored by the HTTP strategies.
	WaitSelector string
	// WaitDuration is an additional settle time after load.
	WaitDuration time.Duration
	// Headers are merged over the strategy's default header set.
	Headers map[string]string
	// AcceptInterstitial makes browser strategies click through a
	// disclaimer/interstitial form if one is detected after navigation.
	AcceptInterstitial bool
	// LongPause inserts a long randomized pause before the navigation to
	// mimic human pacing between major page loads.
	LongPause bool
}

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves a page. A non-2xx status or transport failure is an
	// error; retry and rate limiting happen inside the strategy.
	Fetch(ctx context.Context, url string, opts Options) (Page, error)

	// Close releases sessions and browser processes.
	Close() error

	// Name identifies the strategy in logs.
	Name() string
}

// Strategy selects a fetch implementation.
type Strategy string

const (
	StrategyStatic      Strategy = "static"
	StrategyImpersonate Strategy = "impersonate"
	StrategyBrowser     Strategy = "browser"
	StrategyUndetected  Strategy = "undetected"
)

// ErrBlocked indicates the target answered with a bot challenge rather
// than content.
var ErrBlocked = errors.New("blocked by bot protection")

// ErrBrowserUnavailable indicates the strategy could not acquire its
// browser session at all. Unlike a failed fetch it is not retried, and
// batch lookups stop issuing requests for the source when they see it.
var ErrBrowserUnavailable = errors.New("browser unavailable")

// Config holds behavior shared by all strategies.
type Config struct {
	UserAgents        []string
	RequestsPerSecond float64
	MaxRetries        int
	RetryBackoff      time.Duration
	Timeout           time.Duration
	PageLoadTimeout   time.Duration
	Headless          bool
	// LongPauseMin/Max bound the randomized pause between major browser
	// navigations when Options.LongPause is set.
	LongPauseMin time.Duration
	LongPauseMax time.Duration
}

// DefaultConfig returns the defaults used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		UserAgents:        defaultUserAgents,
		RequestsPerSecond: 1.0,
		MaxRetries:        3,
		RetryBackoff:      2 * time.Second,
		Timeout:           30 * time.Second,
		PageLoadTimeout:   60 * time.Second,
		Headless:          true,
		LongPauseMin:      10 * time.Second,
		LongPauseMax:      30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.UserAgents) == 0 {
		c.UserAgents = def.UserAgents
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = def.RequestsPerSecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = def.PageLoadTimeout
	}
	if c.LongPauseMin <= 0 {
		c.LongPauseMin = def.LongPauseMin
	}
	if c.LongPauseMax <= c.LongPauseMin {
		c.LongPauseMax = c.LongPauseMin + 20*time.Second
	}
	return c
}

// New creates a fetcher for the given strategy.
func New(strategy Strategy, cfg Config) (Fetcher, error) {
	switch strategy {
	case StrategyStatic:
		return NewStaticFetcher(cfg), nil
	case StrategyImpersonate:
		return NewImpersonateFetcher(cfg)
	case StrategyBrowser:
		return NewBrowserFetcher(cfg)
	case StrategyUndetected:
		return NewUndetectedFetcher(cfg), nil
	default:
		return nil, fmt.Errorf("unknown fetch strategy: %s", strategy)
	}
}
