package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lienwatch/internal/extract"
	"lienwatch/internal/fetch"
	"lienwatch/internal/logger"
	"lienwatch/internal/models"
)

// Zillow looks up property valuations by address. A search lands either
// directly on a detail page or on a results page whose first card links
// to one.
type Zillow struct {
	baseURL string
	fetcher fetch.Fetcher
}

// NewZillow creates the orchestrator. It owns the fetcher and releases
// it on Close.
func NewZillow(fetcher fetch.Fetcher, baseURL string) *Zillow {
	if baseURL == "" {
		baseURL = "https://www.zillow.com"
	}
	return &Zillow{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// Close releases the underlying fetch session.
func (z *Zillow) Close() error {
	return z.fetcher.Close()
}

func (z *Zillow) searchURL(address string) string {
	return fmt.Sprintf("%s/homes/%s_rb/", z.baseURL, url.QueryEscape(address))
}

var zpidPattern = regexp.MustCompile(`/(\d+)_zpid`)

var detailLinkPattern = regexp.MustCompile(`href="(/homedetails/[^"]+)"`)

// LookupOne resolves one address to a listing. An empty address
// short-circuits to (nil, nil) without fetching. A target that stays
// unreachable after retries also yields (nil, nil) - enrichment is best
// effort and the batch must go on. A fetcher whose browser session
// could not be acquired is the exception: that error propagates so the
// batch can stop.
func (z *Zillow) LookupOne(ctx context.Context, address models.Address) (*models.PropertyListing, error) {
	key := address.FullAddress()
	if address.IsEmpty() || key == "" {
		return nil, nil
	}

	logger.Info("zillow lookup", "address", key)

	page, err := z.fetcher.Fetch(ctx, z.searchURL(key), fetch.Options{LongPause: true})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, fetch.ErrBrowserUnavailable) {
			return nil, err
		}
		logger.Warn("zillow search unavailable", "address", key, "error", err)
		return nil, nil
	}

	detailURL := z.resolveDetailURL(page)
	if detailURL == "" {
		logger.Debug("zillow no result", "address", key)
		return nil, nil
	}

	// A search that redirected straight to the detail page already holds
	// the content; anything else needs one more fetch.
	if detailURL != page.FinalURL {
		page, err = z.fetcher.Fetch(ctx, detailURL, fetch.Options{LongPause: true})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, fetch.ErrBrowserUnavailable) {
				return nil, err
			}
			logger.Warn("zillow detail unavailable", "url", detailURL, "error", err)
			return nil, nil
		}
	}

	listing := z.extractListing(extract.NewSource(detailURL, page.HTML))
	listing.ListingURL = detailURL
	listing.ScrapedAt = time.Now()
	if m := zpidPattern.FindStringSubmatch(detailURL); len(m) > 1 {
		listing.ZPID = m[1]
	}
	return &listing, nil
}

// LookupAll resolves addresses with bounded concurrency, preserving
// input order in the result slice.
func (z *Zillow) LookupAll(ctx context.Context, addresses []models.Address, maxConcurrent int) []*models.PropertyListing {
	return All(ctx, addresses, maxConcurrent, "zillow", z.LookupOne)
}

// resolveDetailURL decides where the property detail page lives after a
// search: the landing URL itself, or the first result-card link.
func (z *Zillow) resolveDetailURL(page fetch.Page) string {
	if strings.Contains(page.FinalURL, "/homedetails/") {
		return page.FinalURL
	}

	src := extract.NewSource(page.FinalURL, page.HTML)
	href := extract.FirstAttr(src.Doc(), "href",
		"article[data-test='property-card'] a[href*='homedetails']",
		".property-card a[href*='homedetails']",
		".list-card a[href*='homedetails']",
		"a[href*='homedetails']",
	)
	if href == "" {
		if m := detailLinkPattern.FindStringSubmatch(page.HTML); len(m) > 1 {
			href = m[1]
		}
	}
	if href == "" {
		return ""
	}
	if !strings.HasPrefix(href, "http") {
		href = z.baseURL + href
	}
	return href
}

// extractListing folds the extraction stages in priority order:
// structured metadata, hydration JSON, CSS selectors, raw-text regex.
func (z *Zillow) extractListing(src *extract.Source) models.PropertyListing {
	return extract.Fold(src, mergeListing,
		zillowSchemaStage,
		zillowHydrationStage,
		zillowSelectorStage,
		zillowTextStage,
	)
}

// mergeListing fills dst fields that are still unset. Earlier stages win.
func mergeListing(dst *models.PropertyListing, p models.PropertyListing) {
	if dst.Address == "" {
		dst.Address = p.Address
	}
	if dst.ZPID == "" {
		dst.ZPID = p.ZPID
	}
	if dst.Price == nil {
		dst.Price = p.Price
	}
	if dst.Zestimate == nil {
		dst.Zestimate = p.Zestimate
	}
	if dst.RentZestimate == nil {
		dst.RentZestimate = p.RentZestimate
	}
	if dst.Bedrooms == nil {
		dst.Bedrooms = p.Bedrooms
	}
	if dst.Bathrooms == nil {
		dst.Bathrooms = p.Bathrooms
	}
	if dst.Sqft == nil {
		dst.Sqft = p.Sqft
	}
	if dst.LotSize == "" {
		dst.LotSize = p.LotSize
	}
	if dst.YearBuilt == nil {
		dst.YearBuilt = p.YearBuilt
	}
	if dst.PropertyType == "" {
		dst.PropertyType = p.PropertyType
	}
	if dst.Status == "" {
		dst.Status = p.Status
	}
	if dst.DaysOnMarket == nil {
		dst.DaysOnMarket = p.DaysOnMarket
	}
	if dst.ImageURL == "" {
		dst.ImageURL = p.ImageURL
	}
}

// zillowSchemaStage reads the schema.org JSON-LD blocks.
func zillowSchemaStage(src *extract.Source) models.PropertyListing {
	var p models.PropertyListing

	extract.EachJSONLD(src, func(item map[string]any) {
		switch extract.SchemaType(item) {
		case "SingleFamilyResidence", "House", "Apartment", "RealEstateListing":
			if p.Address == "" {
				p.Address = extract.SchemaAddress(item["address"])
			}
			if p.Sqft == nil {
				if fs, ok := item["floorSize"].(map[string]any); ok {
					p.Sqft = extract.AsInt(fs["value"])
				} else {
					p.Sqft = extract.AsInt(item["floorSize"])
				}
			}
			if p.Bedrooms == nil {
				p.Bedrooms = extract.AsInt(item["numberOfRooms"])
			}
			if p.Bathrooms == nil {
				p.Bathrooms = extract.AsFloat(item["numberOfBathroomsTotal"])
			}
			if p.YearBuilt == nil {
				p.YearBuilt = extract.AsInt(item["yearBuilt"])
			}
		}

		if offers, ok := item["offers"].(map[string]any); ok && p.Price == nil {
			p.Price = extract.AsFloat(offers["price"])
		} else if extract.SchemaType(item) == "Offer" && p.Price == nil {
			p.Price = extract.AsFloat(item["price"])
		}
	})

	return p
}

// Key patterns for the fields the hydration blob reliably carries even
// when its overall shape shifts between page versions.
var (
	zpidJSONPattern      = regexp.MustCompile(`"zpid"\s*:\s*"?(\d+)"?`)
	zestimateJSONPattern = regexp.MustCompile(`"zestimate"\s*:\s*(\d+)`)
	rentZestimatePattern = regexp.MustCompile(`"rentZestimate"\s*:\s*(\d+)`)
	livingAreaPattern    = regexp.MustCompile(`"livingArea"\s*:\s*(\d+)`)
	homeStatusPattern    = regexp.MustCompile(`"homeStatus"\s*:\s*"([^"]+)"`)
	daysOnZillowPattern  = regexp.MustCompile(`"daysOnZillow"\s*:\s*(\d+)`)
)

// zillowHydrationStage reads the embedded application-state JSON.
func zillowHydrationStage(src *extract.Source) models.PropertyListing {
	var p models.PropertyListing

	if data := extract.HydrationJSON(src); data != nil {
		if zpid := extract.DigString(data, "props", "pageProps", "zpid"); zpid != "" {
			p.ZPID = zpid
		}
	}

	if m := zpidJSONPattern.FindStringSubmatch(src.HTML); len(m) > 1 && p.ZPID == "" {
		p.ZPID = m[1]
	}
	if m := zestimateJSONPattern.FindStringSubmatch(src.HTML); len(m) > 1 {
		p.Zestimate = extract.ParsePrice(m[1])
	}
	if m := rentZestimatePattern.FindStringSubmatch(src.HTML); len(m) > 1 {
		p.RentZestimate = extract.ParsePrice(m[1])
	}
	if m := livingAreaPattern.FindStringSubmatch(src.HTML); len(m) > 1 {
		p.Sqft = extract.ParseInt(m[1])
	}
	if m := homeStatusPattern.FindStringSubmatch(src.HTML); len(m) > 1 {
		p.Status = m[1]
	}
	if m := daysOnZillowPattern.FindStringSubmatch(src.HTML); len(m) > 1 {
		p.DaysOnMarket = extract.ParseInt(m[1])
	}

	return p
}

// zillowSelectorStage walks the CSS fallback chains per field.
func zillowSelectorStage(src *extract.Source) models.PropertyListing {
	var p models.PropertyListing
	doc := src.Doc()
	if doc == nil {
		return p
	}

	if text := extract.FirstText(doc,
		"[data-test='property-value']",
		"span[data-testid='price']",
		".ds-value",
		".home-price",
		".price",
	); text != "" {
		p.Price = extract.ParsePrice(text)
	}

	if text := extract.FirstText(doc, "[data-testid='zestimate-value']", ".zestimate"); text != "" {
		p.Zestimate = extract.ParsePrice(text)
	}

	p.Address = extract.FirstText(doc,
		"[data-testid='bdp-header-address']",
		"h1.ds-address-container",
		".property-address",
	)

	if summary := extract.FirstText(doc, ".ds-bed-bath-living-area", ".bdp-summary"); summary != "" {
		p.Bedrooms = extract.Beds(summary)
		p.Bathrooms = extract.Baths(summary)
		p.Sqft = extract.Sqft(summary)
	}

	p.PropertyType = extract.FirstText(doc, "[data-testid='home-type']", ".property-type")
	p.Status = extract.FirstText(doc, "[data-testid='listing-status']", ".listing-status")

	doc.Find(".ds-home-fact-list-item, .fact-item, dt + dd").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(strings.ToLower(text), "built") {
			if m := extract.YearPattern.FindString(text); m != "" {
				p.YearBuilt = extract.ParseInt(m)
				return false
			}
		}
		return true
	})

	p.ImageURL = extract.FirstAttr(doc, "src",
		"picture img",
		".media-stream-tile img",
		"[data-testid='hero-image']",
	)

	return p
}

// zillowTextStage regex-scrapes the flattened page text.
func zillowTextStage(src *extract.Source) models.PropertyListing {
	var p models.PropertyListing
	text := src.Text()

	if m := pricePattern.FindString(text); m != "" {
		p.Price = extract.ParsePrice(m)
	}
	p.Bedrooms = extract.Beds(text)
	p.Bathrooms = extract.Baths(text)
	p.Sqft = extract.Sqft(text)

	return p
}

var pricePattern = regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?`)
