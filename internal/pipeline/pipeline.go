// Package pipeline chains the scraping stages: pull cases from the
// court roster, enrich each property address from the valuation and
// deals sources, and hand the joined records to storage and export.
// Sources fail independently; a dead enrichment source degrades the
// records but never aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"lienwatch/internal/logger"
	"lienwatch/internal/models"
)

// RosterSource produces foreclosure cases.
type RosterSource interface {
	Scrape(ctx context.Context) ([]models.ForeclosureCase, error)
}

// PropertySource enriches addresses with valuation listings.
type PropertySource interface {
	LookupAll(ctx context.Context, addresses []models.Address, maxConcurrent int) []*models.PropertyListing
}

// DealSource enriches addresses with deal listings.
type DealSource interface {
	LookupAll(ctx context.Context, addresses []models.Address, maxConcurrent int) []*models.DealListing
}

// Sink receives the finished records.
type Sink interface {
	SaveAll(recs []models.FlatRecord) error
}

// Pipeline wires the stages together. Zillow, Dealio and Store are
// optional; a nil stage is skipped.
type Pipeline struct {
	Roster RosterSource
	Zillow PropertySource
	Dealio DealSource
	Store  Sink

	// MaxConcurrent bounds simultaneous lookups per enrichment source.
	MaxConcurrent int

	// TargetZips, when non-empty, limits enrichment to properties in
	// these zip codes. Cases outside the list still flow through the
	// pipeline unenriched.
	TargetZips []string
}

// Result summarizes one pipeline run.
type Result struct {
	Records  []models.Record
	Cases    int
	Enriched int
	Duration time.Duration
}

// Run executes the full pipeline. It fails only when the roster stage
// produces nothing usable; enrichment and storage problems are recorded
// per case and logged.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	cases, err := p.Roster.Scrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("roster stage: %w", err)
	}
	cases = dedupeCases(cases)
	logger.Info("roster stage complete", "cases", len(cases))

	addresses := make([]models.Address, len(cases))
	for i, c := range cases {
		if p.inTargetZips(c.PropertyAddress.ZipCode) {
			addresses[i] = c.PropertyAddress
		}
	}

	var properties []*models.PropertyListing
	if p.Zillow != nil {
		properties = p.Zillow.LookupAll(ctx, addresses, p.MaxConcurrent)
	}
	var deals []*models.DealListing
	if p.Dealio != nil {
		deals = p.Dealio.LookupAll(ctx, addresses, p.MaxConcurrent)
	}

	result := &Result{Cases: len(cases)}
	now := time.Now()
	for i, c := range cases {
		rec := models.Record{Case: c, ProcessedAt: now}
		if properties != nil && properties[i] != nil {
			rec.Property = properties[i]
		}
		if deals != nil && deals[i] != nil {
			rec.Deal = deals[i]
		}
		if !addresses[i].IsEmpty() && rec.Property == nil && p.Zillow != nil {
			rec.Errors = append(rec.Errors, "zillow: no listing found")
		}
		if !addresses[i].IsEmpty() && rec.Deal == nil && p.Dealio != nil {
			rec.Errors = append(rec.Errors, "dealio: no listing found")
		}
		if rec.Property != nil || rec.Deal != nil {
			result.Enriched++
		}
		result.Records = append(result.Records, rec)
	}

	if p.Store != nil {
		flat := make([]models.FlatRecord, len(result.Records))
		for i, rec := range result.Records {
			flat[i] = rec.Flatten()
		}
		if err := p.Store.SaveAll(flat); err != nil {
			logger.Error("storage stage failed", "error", err)
		} else {
			logger.Info("storage stage complete", "records", len(flat))
		}
	}

	result.Duration = time.Since(start)
	logger.Info("pipeline complete",
		"cases", result.Cases,
		"enriched", result.Enriched,
		"duration", result.Duration)
	return result, nil
}

func (p *Pipeline) inTargetZips(zip string) bool {
	if len(p.TargetZips) == 0 {
		return true
	}
	for _, z := range p.TargetZips {
		if z == zip {
			return true
		}
	}
	return false
}

// dedupeCases collapses duplicate case numbers, keeping the last
// occurrence. Input order is otherwise preserved.
func dedupeCases(cases []models.ForeclosureCase) []models.ForeclosureCase {
	last := make(map[string]int, len(cases))
	for i, c := range cases {
		last[c.CaseNumber] = i
	}

	out := make([]models.ForeclosureCase, 0, len(last))
	for i, c := range cases {
		if last[c.CaseNumber] == i {
			out = append(out, c)
		}
	}
	return out
}
