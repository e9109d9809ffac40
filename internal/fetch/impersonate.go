package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"lienwatch/internal/logger"
)

// ImpersonateFetcher fetches over a client whose transport mimics a real
// browser fingerprint. Cookies persist across requests within the session
// so challenge clearances earned on one request carry to the next.
type ImpersonateFetcher struct {
	config Config
	client *resty.Client
	pacer  *pacer
}

// NewImpersonateFetcher creates an impersonating fetcher.
func NewImpersonateFetcher(cfg Config) (*ImpersonateFetcher, error) {
	cfg = cfg.withDefaults()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetTimeout(cfg.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	return &ImpersonateFetcher{
		config: cfg,
		client: client,
		pacer:  newPacer(cfg.RequestsPerSecond),
	}, nil
}

// Fetch retrieves a page, retrying transient failures with backoff. Every
// attempt, retries included, waits on the pacer so the request ceiling
// holds across the whole retry sequence.
func (f *ImpersonateFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Page, error) {
	var page Page

	err := withRetry(ctx, f.config.MaxRetries, f.config.RetryBackoff, func() error {
		if err := f.pacer.wait(ctx); err != nil {
			return err
		}
		p, err := f.fetchOnce(ctx, targetURL, opts)
		if err != nil {
			logger.Debug("impersonate fetch attempt failed", "url", targetURL, "error", err)
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

func (f *ImpersonateFetcher) fetchOnce(ctx context.Context, targetURL string, opts Options) (Page, error) {
	page := Page{URL: targetURL, FinalURL: targetURL}

	ua := pickUserAgent(f.config.UserAgents)
	headers := chromeHeaders(ua)
	for k, v := range opts.Headers {
		headers[k] = v
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(targetURL)
	if err != nil {
		return page, fmt.Errorf("GET %s: %w", targetURL, err)
	}

	page.StatusCode = resp.StatusCode()
	page.HTML = string(resp.Body())
	page.FetchedAt = time.Now()
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		page.FinalURL = raw.Request.URL.String()
	}

	if page.StatusCode < 200 || page.StatusCode > 299 {
		if page.StatusCode == http.StatusForbidden || page.StatusCode == http.StatusTooManyRequests {
			return page, fmt.Errorf("GET %s: status %d: %w", targetURL, page.StatusCode, ErrBlocked)
		}
		return page, fmt.Errorf("GET %s: unexpected status %d", targetURL, page.StatusCode)
	}
	if looksBlocked(page.HTML, page.StatusCode) {
		return page, fmt.Errorf("GET %s: %w", targetURL, ErrBlocked)
	}

	logger.Debug("impersonate fetch complete", "url", targetURL, "status", page.StatusCode, "bytes", len(page.HTML))
	return page, nil
}

// Close releases the HTTP session.
func (f *ImpersonateFetcher) Close() error {
	f.client.GetClient().CloseIdleConnections()
	return nil
}

// Name identifies the strategy.
func (f *ImpersonateFetcher) Name() string {
	return string(StrategyImpersonate)
}
