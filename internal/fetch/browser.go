package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"lienwatch/internal/logger"
)

// BrowserFetcher drives headless Chrome with automation indicators
// suppressed. Needed for targets that render content with JavaScript or
// inspect the runtime for webdriver fingerprints.
type BrowserFetcher struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
	pacer     *pacer
}

// NewBrowserFetcher launches the browser allocator. Tabs are created per
// fetch; the allocator lives until Close.
func NewBrowserFetcher(cfg Config) (*BrowserFetcher, error) {
	cfg = cfg.withDefaults()

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), stealthAllocatorOptions(cfg)...)

	return &BrowserFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancel,
		pacer:     newPacer(cfg.RequestsPerSecond),
	}, nil
}

// Fetch navigates a fresh tab to the target and captures its HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Page, error) {
	var page Page

	err := withRetry(ctx, f.config.MaxRetries, f.config.RetryBackoff, func() error {
		if err := f.pacer.wait(ctx); err != nil {
			return err
		}
		if opts.LongPause {
			if err := longPause(ctx, f.config.LongPauseMin, f.config.LongPauseMax); err != nil {
				return err
			}
		}
		p, err := f.fetchOnce(targetURL, opts)
		if err != nil {
			logger.Debug("browser fetch attempt failed", "url", targetURL, "error", err)
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

func (f *BrowserFetcher) fetchOnce(targetURL string, opts Options) (Page, error) {
	page := Page{URL: targetURL, FinalURL: targetURL}

	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, f.config.PageLoadTimeout)
	defer cancelTimeout()

	waitSelector := "body"
	if opts.WaitSelector != "" {
		waitSelector = opts.WaitSelector
	}

	actions := []chromedp.Action{
		injectStealthScript(),
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible(waitSelector, chromedp.ByQuery),
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}

	var html string
	actions = append(actions,
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&page.FinalURL),
	)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return page, fmt.Errorf("navigate %s: %w", targetURL, err)
	}

	if opts.AcceptInterstitial && hasInterstitial(html) {
		accepted, err := f.acceptInterstitial(timeoutCtx)
		if err != nil {
			logger.Warn("could not accept disclaimer", "url", targetURL, "error", err)
		} else if accepted {
			logger.Info("accepted disclaimer page", "url", targetURL)
			// Re-capture after the post-submit navigation settles.
			if err := chromedp.Run(timeoutCtx,
				chromedp.Sleep(2*time.Second),
				chromedp.OuterHTML("html", &html),
				chromedp.Location(&page.FinalURL),
			); err != nil {
				return page, fmt.Errorf("capture after disclaimer: %w", err)
			}
		}
	}

	page.HTML = html
	page.StatusCode = 200 // chromedp does not surface document status
	page.FetchedAt = time.Now()

	if looksBlocked(html, page.StatusCode) {
		return page, fmt.Errorf("navigate %s: %w", targetURL, ErrBlocked)
	}

	logger.Debug("browser fetch complete", "url", targetURL, "bytes", len(html))
	return page, nil
}

func (f *BrowserFetcher) acceptInterstitial(ctx context.Context) (bool, error) {
	var clicked bool
	err := chromedp.Run(ctx, chromedp.Evaluate(acceptInterstitialScript(), &clicked))
	return clicked, err
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Name identifies the strategy.
func (f *BrowserFetcher) Name() string {
	return string(StrategyBrowser)
}
