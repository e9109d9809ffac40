package fetch

import (
	"math/rand"
	"sync"
)

// defaultUserAgents is the rotation pool applied when config supplies none.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

var uaMu sync.Mutex

// pickUserAgent returns a random entry from the pool.
func pickUserAgent(pool []string) string {
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	uaMu.Lock()
	defer uaMu.Unlock()
	return pool[rand.Intn(len(pool))]
}

// baseHeaders returns the header set every HTTP request carries.
func baseHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}
}

// chromeHeaders returns the fuller Chrome-shaped header set used by the
// impersonating strategy. Sites cross-check these against the TLS
// fingerprint, so they must agree with a Chrome identity.
func chromeHeaders(userAgent string) map[string]string {
	h := baseHeaders(userAgent)
	h["Accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	h["Accept-Language"] = "en-US,en;q=0.9"
	h["Cache-Control"] = "max-age=0"
	h["Sec-Ch-Ua"] = `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`
	h["Sec-Ch-Ua-Mobile"] = "?0"
	h["Sec-Ch-Ua-Platform"] = `"macOS"`
	h["Sec-Fetch-Dest"] = "document"
	h["Sec-Fetch-Mode"] = "navigate"
	h["Sec-Fetch-Site"] = "none"
	h["Sec-Fetch-User"] = "?1"
	return h
}
