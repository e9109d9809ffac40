package pipeline

import (
	"context"
	"errors"
	"testing"

	"lienwatch/internal/models"
)

type fakeRoster struct {
	cases []models.ForeclosureCase
	err   error
}

func (f *fakeRoster) Scrape(ctx context.Context) ([]models.ForeclosureCase, error) {
	return f.cases, f.err
}

type fakeProperties struct {
	byStreet map[string]*models.PropertyListing
}

func (f *fakeProperties) LookupAll(ctx context.Context, addrs []models.Address, max int) []*models.PropertyListing {
	out := make([]*models.PropertyListing, len(addrs))
	for i, a := range addrs {
		out[i] = f.byStreet[a.Street]
	}
	return out
}

type fakeDeals struct {
	byStreet map[string]*models.DealListing
}

func (f *fakeDeals) LookupAll(ctx context.Context, addrs []models.Address, max int) []*models.DealListing {
	out := make([]*models.DealListing, len(addrs))
	for i, a := range addrs {
		out[i] = f.byStreet[a.Street]
	}
	return out
}

type fakeSink struct {
	saved []models.FlatRecord
	err   error
}

func (f *fakeSink) SaveAll(recs []models.FlatRecord) error {
	f.saved = append(f.saved, recs...)
	return f.err
}

func caseWithAddr(num, street string) models.ForeclosureCase {
	return models.ForeclosureCase{
		CaseNumber: num,
		PropertyAddress: models.Address{
			Street: street,
			City:   "Rock Hill",
			State:  "SC",
		},
	}
}

func TestRunJoinsEnrichment(t *testing.T) {
	price := 250000.0
	p := &Pipeline{
		Roster: &fakeRoster{cases: []models.ForeclosureCase{
			caseWithAddr("2024CP4600001", "1 First St"),
			caseWithAddr("2024CP4600002", "2 Second St"),
		}},
		Zillow: &fakeProperties{byStreet: map[string]*models.PropertyListing{
			"1 First St": {Price: &price},
		}},
		Dealio: &fakeDeals{byStreet: map[string]*models.DealListing{
			"2 Second St": {Title: "deal"},
		}},
	}

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Cases != 2 {
		t.Errorf("Cases = %d", result.Cases)
	}
	if result.Enriched != 2 {
		t.Errorf("Enriched = %d", result.Enriched)
	}

	first := result.Records[0]
	if first.Property == nil || first.Property.Price == nil || *first.Property.Price != price {
		t.Errorf("first record property = %+v", first.Property)
	}
	if first.Deal != nil {
		t.Error("first record should have no deal")
	}
	// The source that found nothing leaves a per-record note.
	if len(first.Errors) != 1 {
		t.Errorf("first record errors = %v", first.Errors)
	}

	second := result.Records[1]
	if second.Deal == nil || second.Deal.Title != "deal" {
		t.Errorf("second record deal = %+v", second.Deal)
	}
	if second.Property != nil {
		t.Error("second record should have no property")
	}
}

func TestRunTargetZipsLimitEnrichment(t *testing.T) {
	inside := caseWithAddr("2024CP4600001", "1 First St")
	inside.PropertyAddress.ZipCode = "29732"
	outside := caseWithAddr("2024CP4600002", "2 Second St")
	outside.PropertyAddress.ZipCode = "29678"

	price := 250000.0
	p := &Pipeline{
		Roster: &fakeRoster{cases: []models.ForeclosureCase{inside, outside}},
		Zillow: &fakeProperties{byStreet: map[string]*models.PropertyListing{
			"1 First St":  {Price: &price},
			"2 Second St": {Price: &price},
		}},
		TargetZips: []string{"29732"},
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Records[0].Property == nil {
		t.Error("in-zip case should be enriched")
	}
	if result.Records[1].Property != nil {
		t.Error("out-of-zip case should not be enriched")
	}
	// Filtered cases still appear in the output, without error notes.
	if len(result.Records[1].Errors) != 0 {
		t.Errorf("filtered record errors = %v", result.Records[1].Errors)
	}
}

func TestRunRosterFailureIsFatal(t *testing.T) {
	p := &Pipeline{Roster: &fakeRoster{err: errors.New("site down")}}
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("expected error when the roster stage fails")
	}
}

func TestRunDedupesLastWins(t *testing.T) {
	first := caseWithAddr("2024CP4600001", "1 First St")
	first.CaseType = "Civil"
	updated := caseWithAddr("2024CP4600001", "1 First St")
	updated.CaseType = "Foreclosure"

	p := &Pipeline{
		Roster: &fakeRoster{cases: []models.ForeclosureCase{first, updated}},
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record after dedupe, got %d", len(result.Records))
	}
	if result.Records[0].Case.CaseType != "Foreclosure" {
		t.Errorf("kept case = %q, want the later occurrence", result.Records[0].Case.CaseType)
	}
}

func TestRunNilStagesAreSkipped(t *testing.T) {
	p := &Pipeline{
		Roster: &fakeRoster{cases: []models.ForeclosureCase{caseWithAddr("2024CP4600001", "1 First St")}},
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	rec := result.Records[0]
	if rec.Property != nil || rec.Deal != nil {
		t.Error("skipped stages must not produce enrichment")
	}
	if len(rec.Errors) != 0 {
		t.Errorf("skipped stages must not record errors, got %v", rec.Errors)
	}
}

func TestRunStoresFlattenedRecords(t *testing.T) {
	sink := &fakeSink{}
	p := &Pipeline{
		Roster: &fakeRoster{cases: []models.ForeclosureCase{caseWithAddr("2024CP4600001", "1 First St")}},
		Store:  sink,
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.saved) != 1 {
		t.Fatalf("expected 1 saved record, got %d", len(sink.saved))
	}
	if sink.saved[0].CaseNumber != "2024CP4600001" {
		t.Errorf("saved case = %q", sink.saved[0].CaseNumber)
	}
	if sink.saved[0].PropertyFullAddress != "1 First St, Rock Hill, SC" {
		t.Errorf("saved address = %q", sink.saved[0].PropertyFullAddress)
	}
}

func TestRunStorageFailureIsNotFatal(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	p := &Pipeline{
		Roster: &fakeRoster{cases: []models.ForeclosureCase{caseWithAddr("2024CP4600001", "1 First St")}},
		Store:  sink,
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("storage failure must not abort the run: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("records lost on storage failure")
	}
}

func TestDedupeCases(t *testing.T) {
	cases := []models.ForeclosureCase{
		{CaseNumber: "A", CaseType: "old"},
		{CaseNumber: "B"},
		{CaseNumber: "A", CaseType: "new"},
	}
	out := dedupeCases(cases)
	if len(out) != 2 {
		t.Fatalf("expected 2, got %d", len(out))
	}
	if out[0].CaseNumber != "B" || out[1].CaseNumber != "A" || out[1].CaseType != "new" {
		t.Errorf("dedupe result = %+v", out)
	}
}
