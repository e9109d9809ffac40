package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lienwatch/internal/extract"
	"lienwatch/internal/fetch"
	"lienwatch/internal/logger"
	"lienwatch/internal/models"
)

// Dealio looks up distressed-property deal listings by address.
type Dealio struct {
	baseURL string
	fetcher fetch.Fetcher
}

// NewDealio creates the orchestrator. It owns the fetcher and releases
// it on Close.
func NewDealio(fetcher fetch.Fetcher, baseURL string) *Dealio {
	return &Dealio{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// Close releases the underlying fetch session.
func (d *Dealio) Close() error {
	return d.fetcher.Close()
}

func (d *Dealio) searchURL(address string) string {
	return fmt.Sprintf("%s/search?q=%s", d.baseURL, url.QueryEscape(address))
}

// LookupOne resolves one address to a deal listing. An empty address
// short-circuits to (nil, nil) without fetching, and a missing or
// unreachable listing is not an error.
func (d *Dealio) LookupOne(ctx context.Context, address models.Address) (*models.DealListing, error) {
	key := address.FullAddress()
	if address.IsEmpty() || key == "" {
		return nil, nil
	}

	logger.Info("dealio lookup", "address", key)

	page, err := d.fetcher.Fetch(ctx, d.searchURL(key), fetch.Options{})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, fetch.ErrBrowserUnavailable) {
			return nil, err
		}
		logger.Warn("dealio search unavailable", "address", key, "error", err)
		return nil, nil
	}

	detailURL := d.resolveDetailURL(page)
	if detailURL == "" {
		logger.Debug("dealio no result", "address", key)
		return nil, nil
	}

	if detailURL != page.FinalURL {
		page, err = d.fetcher.Fetch(ctx, detailURL, fetch.Options{})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, fetch.ErrBrowserUnavailable) {
				return nil, err
			}
			logger.Warn("dealio detail unavailable", "url", detailURL, "error", err)
			return nil, nil
		}
	}

	deal := d.extractDeal(extract.NewSource(detailURL, page.HTML))
	deal.ListingURL = detailURL
	deal.ScrapedAt = time.Now()
	if deal.DiscountPercent == nil && deal.Price != nil && deal.OriginalPrice != nil && *deal.OriginalPrice > 0 {
		pct := (1 - *deal.Price / *deal.OriginalPrice) * 100
		deal.DiscountPercent = &pct
	}
	return &deal, nil
}

// LookupAll resolves addresses with bounded concurrency, preserving
// input order in the result slice.
func (d *Dealio) LookupAll(ctx context.Context, addresses []models.Address, maxConcurrent int) []*models.DealListing {
	return All(ctx, addresses, maxConcurrent, "dealio", d.LookupOne)
}

func (d *Dealio) resolveDetailURL(page fetch.Page) string {
	src := extract.NewSource(page.FinalURL, page.HTML)
	doc := src.Doc()
	if doc == nil {
		return ""
	}

	// A search page with no result cards usually means the address went
	// straight to a listing page.
	if doc.Find(".listing-card, .deal-card, .property-card, .search-result").Length() == 0 {
		if doc.Find("h1").Length() > 0 && !strings.Contains(page.FinalURL, "/search") {
			return page.FinalURL
		}
	}

	href := extract.FirstAttr(doc, "href",
		".listing-card a",
		".deal-card a",
		".property-card a",
		".search-result a",
	)
	if href == "" {
		return ""
	}
	if !strings.HasPrefix(href, "http") {
		href = d.baseURL + href
	}
	return href
}

func (d *Dealio) extractDeal(src *extract.Source) models.DealListing {
	return extract.Fold(src, mergeDeal,
		dealSchemaStage,
		dealSelectorStage,
		dealContactStage,
	)
}

func mergeDeal(dst *models.DealListing, p models.DealListing) {
	if dst.Title == "" {
		dst.Title = p.Title
	}
	if dst.Description == "" {
		dst.Description = p.Description
	}
	if dst.Address == "" {
		dst.Address = p.Address
	}
	if dst.Price == nil {
		dst.Price = p.Price
	}
	if dst.OriginalPrice == nil {
		dst.OriginalPrice = p.OriginalPrice
	}
	if dst.DiscountPercent == nil {
		dst.DiscountPercent = p.DiscountPercent
	}
	if dst.OfferDescription == "" {
		dst.OfferDescription = p.OfferDescription
	}
	if dst.ContactName == "" {
		dst.ContactName = p.ContactName
	}
	if dst.ContactPhone == "" {
		dst.ContactPhone = p.ContactPhone
	}
	if dst.ContactEmail == "" {
		dst.ContactEmail = p.ContactEmail
	}
}

func dealSchemaStage(src *extract.Source) models.DealListing {
	var p models.DealListing

	extract.EachJSONLD(src, func(item map[string]any) {
		switch extract.SchemaType(item) {
		case "Product", "Offer", "RealEstateListing":
			if name, ok := item["name"].(string); ok && p.Title == "" {
				p.Title = name
			}
			if desc, ok := item["description"].(string); ok && p.Description == "" {
				p.Description = desc
			}
			if p.Address == "" {
				p.Address = extract.SchemaAddress(item["address"])
			}
			if offers, ok := item["offers"].(map[string]any); ok {
				if p.Price == nil {
					p.Price = extract.AsFloat(offers["price"])
				}
				if p.OriginalPrice == nil {
					p.OriginalPrice = extract.AsFloat(offers["highPrice"])
				}
			}
			if p.Price == nil {
				p.Price = extract.AsFloat(item["price"])
			}
		}
	})

	return p
}

func dealSelectorStage(src *extract.Source) models.DealListing {
	var p models.DealListing
	doc := src.Doc()
	if doc == nil {
		return p
	}

	p.Title = extract.FirstText(doc, "h1.listing-title", "h1.deal-title", "h1")
	p.Description = extract.FirstText(doc, ".listing-description", ".deal-description", ".description")
	p.Address = extract.FirstText(doc, ".listing-address", ".deal-address", ".property-address", "address")

	if text := extract.FirstText(doc, ".price", ".deal-price", ".listing-price"); text != "" {
		p.Price = extract.ParsePrice(text)
	}
	if text := extract.FirstText(doc, ".original-price", ".was-price", "del", "s"); text != "" {
		p.OriginalPrice = extract.ParsePrice(text)
	}

	p.OfferDescription = extract.FirstText(doc, ".offer-details", ".offer-description", ".deal-terms")

	return p
}

// dealContactStage pulls contact details: explicit tel/mailto links
// first, then labeled elements, then a page-wide regex sweep.
func dealContactStage(src *extract.Source) models.DealListing {
	var p models.DealListing
	doc := src.Doc()

	if doc != nil {
		if href := extract.FirstAttr(doc, "href", "a[href^='tel:']"); href != "" {
			p.ContactPhone = strings.TrimPrefix(href, "tel:")
		}
		if href := extract.FirstAttr(doc, "href", "a[href^='mailto:']"); href != "" {
			p.ContactEmail = strings.TrimPrefix(href, "mailto:")
		}
		p.ContactName = extract.FirstText(doc, ".contact-name", ".agent-name", ".seller-name")
		if p.ContactPhone == "" {
			p.ContactPhone = extract.FirstText(doc, ".contact-phone", ".agent-phone")
		}
		if p.ContactEmail == "" {
			p.ContactEmail = extract.FirstText(doc, ".contact-email", ".agent-email")
		}
	}

	text := src.Text()
	if p.ContactPhone == "" {
		p.ContactPhone = extract.Phone(text)
	}
	if p.ContactEmail == "" {
		p.ContactEmail = extract.Email(text)
	}

	return p
}
