package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetryRecoversAfterFailure(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errors.New("permanent")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("expected ErrRetriesExhausted, got %v", err)
	}
	if !strings.Contains(err.Error(), "permanent") {
		t.Errorf("final error should carry the last failure, got %v", err)
	}
}

func TestWithRetryHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 5, 50*time.Millisecond, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancel stopped retries, got %d", calls)
	}
}

func TestPacerSpacesRequests(t *testing.T) {
	p := newPacer(10) // 100ms between starts
	p.jitterMin = 0
	p.jitterMax = 0

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	// First call is immediate; the next two must each wait ~100ms.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("3 requests at 10 rps finished too fast: %v", elapsed)
	}
}

func TestPacerWaitCancelled(t *testing.T) {
	p := newPacer(0.1)
	p.jitterMin = 0
	p.jitterMax = 0

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	cancel()
	if err := p.wait(ctx); err == nil {
		t.Error("expected error from cancelled wait")
	}
}

func TestPickUserAgentStaysInPool(t *testing.T) {
	pool := []string{"agent-a", "agent-b"}
	for i := 0; i < 20; i++ {
		ua := pickUserAgent(pool)
		if ua != "agent-a" && ua != "agent-b" {
			t.Fatalf("user agent %q not from pool", ua)
		}
	}
}

func TestLooksBlocked(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		status int
		want   bool
	}{
		{"forbidden status", "<html>ok</html>", 403, true},
		{"rate limited status", "<html>ok</html>", 429, true},
		{"challenge body", "<html>Checking your browser before accessing</html>", 200, true},
		{"captcha body", "<div id='px-captcha'></div>", 200, true},
		{"normal page", "<html><body>case roster</body></html>", 200, false},
		{"large page with marker", strings.Repeat("x", 30000) + "px-captcha", 200, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksBlocked(tt.html, tt.status); got != tt.want {
				t.Errorf("looksBlocked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasInterstitial(t *testing.T) {
	if !hasInterstitial("<p>Read this Disclaimer before continuing</p>") {
		t.Error("disclaimer page not detected")
	}
	if !hasInterstitial("<p>You must accept the terms of use</p>") {
		t.Error("terms page not detected")
	}
	if hasInterstitial("<table><tr><td>2024CP4600123</td></tr></table>") {
		t.Error("roster content misdetected as interstitial")
	}
}

func TestAcceptInterstitialScriptShape(t *testing.T) {
	script := acceptInterstitialScript()
	if !strings.HasPrefix(script, "(function()") {
		t.Errorf("script should be an IIFE, got prefix %q", script[:20])
	}
	for _, sel := range checkboxSelectors {
		if !strings.Contains(script, sel) {
			t.Errorf("script missing checkbox selector %q", sel)
		}
	}
	for _, sel := range submitSelectors {
		if !strings.Contains(script, sel) {
			t.Errorf("script missing submit selector %q", sel)
		}
	}
}

func fastConfig() Config {
	return Config{
		RequestsPerSecond: 100,
		MaxRetries:        2,
		RetryBackoff:      time.Millisecond,
		Timeout:           5 * time.Second,
	}
}

func TestStaticFetcherFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html><body>roster content</body></html>")
	}))
	defer srv.Close()

	f := NewStaticFetcher(fastConfig())
	defer f.Close()

	page, err := f.Fetch(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.StatusCode != 200 {
		t.Errorf("status = %d, want 200", page.StatusCode)
	}
	if !strings.Contains(page.HTML, "roster content") {
		t.Errorf("body not captured: %q", page.HTML)
	}
	if page.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}

	found := false
	for _, ua := range defaultUserAgents {
		if gotUA == ua {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("user agent %q not from default pool", gotUA)
	}
}

func TestStaticFetcherCustomHeaders(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom")
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	f := NewStaticFetcher(fastConfig())
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL, Options{
		Headers: map[string]string{"X-Custom": "value"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotHeader != "value" {
		t.Errorf("custom header = %q, want %q", gotHeader, "value")
	}
}

func TestStaticFetcherRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<html>recovered</html>")
	}))
	defer srv.Close()

	f := NewStaticFetcher(fastConfig())
	defer f.Close()

	page, err := f.Fetch(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if !strings.Contains(page.HTML, "recovered") {
		t.Errorf("unexpected body: %q", page.HTML)
	}
}

func TestStaticFetcherReportsBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewStaticFetcher(fastConfig())
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL, Options{})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("expected ErrRetriesExhausted, got %v", err)
	}
}

func TestChromeHeadersAgreeWithIdentity(t *testing.T) {
	h := chromeHeaders("test-agent")
	if h["User-Agent"] != "test-agent" {
		t.Errorf("User-Agent = %q", h["User-Agent"])
	}
	for _, key := range []string{"Sec-Ch-Ua", "Sec-Fetch-Mode", "Sec-Fetch-Site", "Accept-Language"} {
		if h[key] == "" {
			t.Errorf("missing header %s", key)
		}
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	if _, err := New(Strategy("carrier-pigeon"), Config{}); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.RequestsPerSecond != 1.0 {
		t.Errorf("RequestsPerSecond = %v", cfg.RequestsPerSecond)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if len(cfg.UserAgents) == 0 {
		t.Error("no default user agents")
	}
	if cfg.LongPauseMax <= cfg.LongPauseMin {
		t.Error("long pause bounds inverted")
	}
}

func TestImpersonateFetcherPacesRetries(t *testing.T) {
	var mu sync.Mutex
	var starts []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts = append(starts, time.Now())
		n := len(starts)
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<html>recovered</html>")
	}))
	defer srv.Close()

	f, err := NewImpersonateFetcher(Config{
		RequestsPerSecond: 10, // 100ms minimum between attempt starts
		MaxRetries:        3,
		RetryBackoff:      time.Millisecond,
		Timeout:           5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	defer f.Close()
	f.pacer.jitterMin = 0
	f.pacer.jitterMax = 0

	page, err := f.Fetch(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(page.HTML, "recovered") {
		t.Errorf("unexpected body: %q", page.HTML)
	}
	if len(starts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(starts))
	}
	// Retry attempts must respect the request ceiling like first
	// attempts do.
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < 80*time.Millisecond {
			t.Errorf("attempts %d and %d started %v apart, want >= 100ms", i-1, i, gap)
		}
	}
}

func TestImpersonateFetcherExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f, err := NewImpersonateFetcher(fastConfig())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	defer f.Close()
	f.pacer.jitterMin = 0
	f.pacer.jitterMax = 0

	_, err = f.Fetch(context.Background(), srv.URL, Options{})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("err = %v, want ErrRetriesExhausted", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
