package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"lienwatch/internal/logger"
)

// UndetectedFetcher drives a real Chrome instance through rod with the
// stealth page patches applied. Last resort for targets that defeat the
// chromedp strategy.
type UndetectedFetcher struct {
	config Config
	pacer  *pacer

	mu      sync.Mutex
	browser *rod.Browser
}

// NewUndetectedFetcher creates the fetcher. The browser launches lazily
// on first fetch so construction never fails when Chrome is absent.
func NewUndetectedFetcher(cfg Config) *UndetectedFetcher {
	cfg = cfg.withDefaults()
	return &UndetectedFetcher{
		config: cfg,
		pacer:  newPacer(cfg.RequestsPerSecond),
	}
}

func (f *UndetectedFetcher) getBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	path, _ := launcher.LookPath()
	u, err := launcher.New().
		Bin(path).
		Headless(f.config.Headless).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch chrome: %v", ErrBrowserUnavailable, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect to chrome: %v", ErrBrowserUnavailable, err)
	}

	f.browser = browser
	return browser, nil
}

// Fetch retrieves a page through a fresh stealth tab. A browser that
// cannot be acquired fails immediately with ErrBrowserUnavailable; no
// amount of retrying fixes a missing Chrome.
func (f *UndetectedFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Page, error) {
	browser, err := f.getBrowser()
	if err != nil {
		return Page{URL: targetURL}, err
	}

	var page Page
	err = withRetry(ctx, f.config.MaxRetries, f.config.RetryBackoff, func() error {
		if err := f.pacer.wait(ctx); err != nil {
			return err
		}
		if opts.LongPause {
			if err := longPause(ctx, f.config.LongPauseMin, f.config.LongPauseMax); err != nil {
				return err
			}
		}
		p, err := f.fetchOnce(ctx, browser, targetURL, opts)
		if err != nil {
			logger.Debug("undetected fetch attempt failed", "url", targetURL, "error", err)
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

func (f *UndetectedFetcher) fetchOnce(ctx context.Context, browser *rod.Browser, targetURL string, opts Options) (Page, error) {
	page := Page{URL: targetURL, FinalURL: targetURL}

	tab, err := stealth.Page(browser)
	if err != nil {
		return page, fmt.Errorf("open stealth page: %w", err)
	}
	defer tab.Close()

	tab = tab.Context(ctx).Timeout(f.config.PageLoadTimeout)

	if err := tab.Navigate(targetURL); err != nil {
		return page, fmt.Errorf("navigate %s: %w", targetURL, err)
	}
	if err := tab.WaitLoad(); err != nil {
		return page, fmt.Errorf("wait for %s: %w", targetURL, err)
	}
	if opts.WaitDuration > 0 {
		time.Sleep(opts.WaitDuration)
	}

	html, err := tab.HTML()
	if err != nil {
		return page, fmt.Errorf("read html from %s: %w", targetURL, err)
	}

	if opts.AcceptInterstitial && hasInterstitial(html) {
		if f.clickThroughInterstitial(tab) {
			logger.Info("accepted disclaimer page", "url", targetURL)
			time.Sleep(2 * time.Second)
			if html, err = tab.HTML(); err != nil {
				return page, fmt.Errorf("read html after disclaimer: %w", err)
			}
		}
	}

	if info, err := tab.Info(); err == nil && info.URL != "" {
		page.FinalURL = info.URL
	}

	page.HTML = html
	page.StatusCode = 200
	page.FetchedAt = time.Now()

	if looksBlocked(html, page.StatusCode) {
		return page, fmt.Errorf("navigate %s: %w", targetURL, ErrBlocked)
	}

	logger.Debug("undetected fetch complete", "url", targetURL, "bytes", len(html))
	return page, nil
}

// clickThroughInterstitial works the checkbox/submit selector guesses in
// priority order. Reports whether a submit control was clicked.
func (f *UndetectedFetcher) clickThroughInterstitial(tab *rod.Page) bool {
	for _, sel := range checkboxSelectors {
		has, el, err := tab.Has(sel)
		if err != nil || !has {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			break
		}
	}
	for _, sel := range submitSelectors {
		has, el, err := tab.Has(sel)
		if err != nil || !has {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return true
		}
	}
	return false
}

// Close stops the browser process.
func (f *UndetectedFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		err := f.browser.Close()
		f.browser = nil
		return err
	}
	return nil
}

// Name identifies the strategy.
func (f *UndetectedFetcher) Name() string {
	return string(StrategyUndetected)
}
