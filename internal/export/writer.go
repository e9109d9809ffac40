// Package export serializes flattened foreclosure records to files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lienwatch/internal/models"
)

// Format represents export format types.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a format name, falling back to the path's
// extension when the name is empty.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	switch f := Format(strings.ToLower(name)); f {
	case FormatCSV, FormatJSON, FormatJSONL, FormatYAML, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", name)
	}
}

// Writer handles record serialization. Records buffer until Flush.
type Writer interface {
	// Write buffers a single record.
	Write(rec models.FlatRecord) error

	// WriteAll buffers multiple records.
	WriteAll(recs []models.FlatRecord) error

	// Flush ensures all buffered records are written out.
	Flush() error

	// Close releases resources.
	Close() error
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w, true, "  "), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatXLSX:
		return NewXLSXWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ToFile writes all records to path in the given format.
func ToFile(path string, format Format, recs []models.FlatRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	w, err := NewWriter(f, format)
	if err != nil {
		return err
	}
	if err := w.WriteAll(recs); err != nil {
		return err
	}
	// Close flushes; calling both would emit buffered formats twice.
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// headers is the column order shared by the tabular formats.
var headers = []string{
	"case_number", "case_type", "filing_date", "hearing_date", "court_room",
	"plaintiff_name", "plaintiff_attorney_name", "plaintiff_attorney_phone",
	"defendant_first_name", "defendant_last_name", "defendant_full_name",
	"defendant_attorney_name", "defendant_attorney_phone",
	"property_street", "property_city", "property_state", "property_zip", "property_full_address",
	"zillow_price", "zillow_zestimate", "zillow_bedrooms", "zillow_bathrooms",
	"zillow_sqft", "zillow_year_built", "zillow_status", "zillow_url",
	"dealio_price", "dealio_offer", "dealio_contact_phone", "dealio_contact_email", "dealio_url",
	"source_url", "scraped_at",
}

// row renders one record in headers order.
func row(r models.FlatRecord) []string {
	return []string{
		r.CaseNumber, r.CaseType, r.FilingDate, r.HearingDate, r.CourtRoom,
		r.PlaintiffName, r.PlaintiffAttorneyName, r.PlaintiffAttorneyPhone,
		r.DefendantFirstName, r.DefendantLastName, r.DefendantFullName,
		r.DefendantAttorneyName, r.DefendantAttorneyPhone,
		r.PropertyStreet, r.PropertyCity, r.PropertyState, r.PropertyZip, r.PropertyFullAddress,
		fmtFloat(r.ZillowPrice), fmtFloat(r.ZillowZestimate), fmtInt(r.ZillowBedrooms), fmtFloat(r.ZillowBathrooms),
		fmtInt(r.ZillowSqft), fmtInt(r.ZillowYearBuilt), r.ZillowStatus, r.ZillowURL,
		fmtFloat(r.DealioPrice), r.DealioOffer, r.DealioContactPhone, r.DealioContactEmail, r.DealioURL,
		r.SourceURL, r.ScrapedAt.Format("2006-01-02 15:04:05"),
	}
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
