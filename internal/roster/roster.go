// Package roster scrapes foreclosure cases from the county court
// roster. The roster site sits behind an acknowledgement interstitial
// and renders cases as table rows; pagination links chain the pages.
package roster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lienwatch/internal/extract"
	"lienwatch/internal/fetch"
	"lienwatch/internal/logger"
	"lienwatch/internal/models"
)

// DefaultMaxPages bounds pagination so a malformed "next" chain cannot
// loop forever.
const DefaultMaxPages = 10

// Scraper walks the court roster and returns foreclosure cases.
type Scraper struct {
	baseURL  string
	fetcher  fetch.Fetcher
	maxPages int

	// FilterForeclosure drops rows whose text carries no foreclosure
	// marker. Off by default for rosters that are already filtered.
	FilterForeclosure bool

	// FollowDetails fetches each case's detail page to fill in fields
	// the roster row omits (property address, attorneys, filing date).
	// Off by default; it multiplies the request count per roster page.
	FollowDetails bool
}

// New creates a roster scraper. It owns the fetcher and releases it on
// Close.
func New(fetcher fetch.Fetcher, baseURL string) *Scraper {
	return &Scraper{
		baseURL:  strings.TrimRight(baseURL, "/"),
		fetcher:  fetcher,
		maxPages: DefaultMaxPages,
	}
}

// Close releases the underlying fetch session.
func (s *Scraper) Close() error {
	return s.fetcher.Close()
}

// Scrape fetches the roster and every linked continuation page, parsing
// cases out of each. Rows that cannot be parsed are skipped silently;
// a page that fails to fetch ends pagination with the cases gathered so
// far.
func (s *Scraper) Scrape(ctx context.Context) ([]models.ForeclosureCase, error) {
	var cases []models.ForeclosureCase
	seen := map[string]bool{}
	pageURL := s.baseURL

	for page := 0; page < s.maxPages && pageURL != ""; page++ {
		if seen[pageURL] {
			break
		}
		seen[pageURL] = true

		logger.Info("fetching roster page", "url", pageURL, "page", page+1)
		fetched, err := s.fetcher.Fetch(ctx, pageURL, fetch.Options{
			AcceptInterstitial: true,
			WaitSelector:       "table",
		})
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("fetching roster: %w", err)
			}
			logger.Warn("roster page unavailable, stopping pagination", "url", pageURL, "error", err)
			break
		}

		src := extract.NewSource(fetched.FinalURL, fetched.HTML)
		pageCases := s.parsePage(ctx, src)
		logger.Info("parsed roster page", "url", pageURL, "cases", len(pageCases))
		cases = append(cases, pageCases...)

		pageURL = s.nextPageURL(src)
	}

	if s.FilterForeclosure {
		cases = filterForeclosure(cases)
	}
	return cases, nil
}

// AvailableDates lists the roster dates offered on the index page,
// gathered from date-picker options and dated roster links. Order
// follows the page; duplicates are dropped.
func (s *Scraper) AvailableDates(ctx context.Context) ([]string, error) {
	fetched, err := s.fetcher.Fetch(ctx, s.baseURL, fetch.Options{AcceptInterstitial: true})
	if err != nil {
		return nil, fmt.Errorf("fetching roster index: %w", err)
	}

	src := extract.NewSource(fetched.FinalURL, fetched.HTML)
	doc := src.Doc()
	if doc == nil {
		return nil, nil
	}

	var dates []string
	seen := map[string]bool{}
	add := func(text string) {
		d := datePattern.FindString(text)
		if d != "" && !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	doc.Find("select option").Each(func(_ int, opt *goquery.Selection) {
		add(opt.Text())
		if v, ok := opt.Attr("value"); ok {
			add(v)
		}
	})
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		add(a.Text())
	})
	return dates, nil
}

// parsePage extracts every case row on one roster page.
func (s *Scraper) parsePage(ctx context.Context, src *extract.Source) []models.ForeclosureCase {
	doc := src.Doc()
	if doc == nil {
		return nil
	}

	table := findRosterTable(doc)
	if table == nil {
		logger.Debug("no roster table found", "url", src.URL)
		return nil
	}

	var cases []models.ForeclosureCase
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		c, ok := parseRow(row)
		if !ok {
			return
		}
		if s.FollowDetails {
			s.followDetail(ctx, &c, row)
		}
		c.SourceURL = src.URL
		c.ScrapedAt = time.Now()
		cases = append(cases, c)
	})
	return cases
}

// followDetail fetches the row's case-detail link, when it has one, and
// fills fields the roster row left empty. Detail fetch failures leave
// the row as parsed.
func (s *Scraper) followDetail(ctx context.Context, c *models.ForeclosureCase, row *goquery.Selection) {
	href := detailLink(row, c.CaseNumber)
	if href == "" {
		return
	}
	detailURL := s.resolveURL(href)
	if detailURL == "" {
		return
	}

	fetched, err := s.fetcher.Fetch(ctx, detailURL, fetch.Options{AcceptInterstitial: true})
	if err != nil {
		logger.Warn("case detail unavailable", "case", c.CaseNumber, "url", detailURL, "error", err)
		return
	}
	fillFromDetail(c, extract.NewSource(fetched.FinalURL, fetched.HTML))
}

// findRosterTable locates the table holding case rows: the one whose
// body text contains a case number.
func findRosterTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if caseNumberPattern.MatchString(table.Text()) || altCasePattern.MatchString(table.Text()) {
			found = table
			return false
		}
		return true
	})
	return found
}

// nextPageURL resolves the pagination link, if any.
func (s *Scraper) nextPageURL(src *extract.Source) string {
	doc := src.Doc()
	if doc == nil {
		return ""
	}

	href := ""
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		if text == "next" || text == "next >" || text == "next page" || text == ">" {
			href, _ = a.Attr("href")
			return href == ""
		}
		return true
	})
	if href == "" {
		href = extract.FirstAttr(doc, "href", "a[rel='next']", "a.next", ".pagination a.next")
	}
	return s.resolveURL(href)
}

// resolveURL turns a page-relative href into an absolute URL on the
// roster host. Script links and fragments resolve to "".
func (s *Scraper) resolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "javascript:") || href == "#" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		base := s.baseURL
		if i := strings.Index(base, "://"); i >= 0 {
			if j := strings.Index(base[i+3:], "/"); j >= 0 {
				base = base[:i+3+j]
			}
		}
		return base + href
	}
	return s.baseURL + "/" + href
}

// filterForeclosure keeps cases whose type or caption mentions a
// foreclosure marker.
func filterForeclosure(cases []models.ForeclosureCase) []models.ForeclosureCase {
	kept := cases[:0]
	for _, c := range cases {
		text := strings.ToLower(c.CaseType + " " + c.PlaintiffName + " " + c.DefendantFullName())
		for _, kw := range []string{"foreclosure", "mortgage", "default", "lien"} {
			if strings.Contains(text, kw) {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}
