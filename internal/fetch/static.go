package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"lienwatch/internal/logger"
)

// StaticFetcher performs plain HTTP fetches with a rotated user agent and
// browser-shaped headers. Cheapest strategy; first choice for targets
// without TLS fingerprinting.
type StaticFetcher struct {
	config Config
	pacer  *pacer
}

// NewStaticFetcher creates a static fetcher.
func NewStaticFetcher(cfg Config) *StaticFetcher {
	cfg = cfg.withDefaults()
	return &StaticFetcher{
		config: cfg,
		pacer:  newPacer(cfg.RequestsPerSecond),
	}
}

// Fetch retrieves a page, retrying transient failures with backoff.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Page, error) {
	var page Page

	err := withRetry(ctx, f.config.MaxRetries, f.config.RetryBackoff, func() error {
		if err := f.pacer.wait(ctx); err != nil {
			return err
		}
		p, err := f.fetchOnce(ctx, targetURL, opts)
		if err != nil {
			logger.Debug("static fetch attempt failed", "url", targetURL, "error", err)
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return Page{URL: targetURL}, err
	}
	return page, nil
}

func (f *StaticFetcher) fetchOnce(ctx context.Context, targetURL string, opts Options) (Page, error) {
	page := Page{
		URL:       targetURL,
		FinalURL:  targetURL,
		FetchedAt: time.Now(),
	}

	ua := pickUserAgent(f.config.UserAgents)

	// New collector per request, the cheapest way to keep cookies and
	// visited-URL state from leaking between retries.
	c := colly.NewCollector(colly.UserAgent(ua))
	c.SetRequestTimeout(f.config.Timeout)

	headers := baseHeaders(ua)
	for k, v := range opts.Headers {
		headers[k] = v
	}
	c.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	})

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.HTML = string(r.Body)
		if r.Request != nil && r.Request.URL != nil {
			page.FinalURL = r.Request.URL.String()
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			page.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(targetURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return page, fmt.Errorf("GET %s: %w", targetURL, fetchErr)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return page, fmt.Errorf("GET %s: unexpected status %d", targetURL, page.StatusCode)
	}
	if looksBlocked(page.HTML, page.StatusCode) {
		return page, fmt.Errorf("GET %s: %w", targetURL, ErrBlocked)
	}

	logger.Debug("static fetch complete", "url", targetURL, "status", page.StatusCode, "bytes", len(page.HTML))
	return page, nil
}

// Close releases resources. The static fetcher holds none.
func (f *StaticFetcher) Close() error {
	return nil
}

// Name identifies the strategy.
func (f *StaticFetcher) Name() string {
	return string(StrategyStatic)
}

// looksBlocked checks a 2xx body for challenge-page markers. Some
// protections serve the challenge with status 200.
func looksBlocked(html string, status int) bool {
	if status == 403 || status == 429 {
		return true
	}
	if len(html) > 20000 {
		// Challenge pages are small; a full page is content.
		return false
	}
	lower := strings.ToLower(html)
	for _, marker := range []string{
		"access to this page has been denied",
		"verify you are a human",
		"px-captcha",
		"cf-challenge",
		"checking your browser",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
