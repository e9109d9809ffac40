// Package store persists scraped foreclosure records in SQLite. Records
// are keyed by case number; saving an existing case replaces the old
// row, so re-running the pipeline refreshes rather than duplicates.
package store

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"lienwatch/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store wraps sqlx.DB with application-specific methods.
type Store struct {
	*sqlx.DB
}

// Open connects to the database at dbPath, creating the file and its
// directory as needed, and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db}, nil
}

func migrate(db *sqlx.DB) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

const upsertQuery = `
INSERT INTO foreclosures (
    case_number, case_type, filing_date, hearing_date, court_room,
    plaintiff_name, plaintiff_attorney_name, plaintiff_attorney_phone,
    defendant_first_name, defendant_last_name, defendant_full_name,
    defendant_attorney_name, defendant_attorney_phone,
    property_street, property_city, property_state, property_zip, property_full_address,
    zillow_price, zillow_zestimate, zillow_bedrooms, zillow_bathrooms,
    zillow_sqft, zillow_year_built, zillow_status, zillow_url,
    dealio_price, dealio_offer, dealio_contact_phone, dealio_contact_email, dealio_url,
    source_url, scraped_at
) VALUES (
    :case_number, :case_type, :filing_date, :hearing_date, :court_room,
    :plaintiff_name, :plaintiff_attorney_name, :plaintiff_attorney_phone,
    :defendant_first_name, :defendant_last_name, :defendant_full_name,
    :defendant_attorney_name, :defendant_attorney_phone,
    :property_street, :property_city, :property_state, :property_zip, :property_full_address,
    :zillow_price, :zillow_zestimate, :zillow_bedrooms, :zillow_bathrooms,
    :zillow_sqft, :zillow_year_built, :zillow_status, :zillow_url,
    :dealio_price, :dealio_offer, :dealio_contact_phone, :dealio_contact_email, :dealio_url,
    :source_url, :scraped_at
)
ON CONFLICT(case_number) DO UPDATE SET
    case_type = excluded.case_type,
    filing_date = excluded.filing_date,
    hearing_date = excluded.hearing_date,
    court_room = excluded.court_room,
    plaintiff_name = excluded.plaintiff_name,
    plaintiff_attorney_name = excluded.plaintiff_attorney_name,
    plaintiff_attorney_phone = excluded.plaintiff_attorney_phone,
    defendant_first_name = excluded.defendant_first_name,
    defendant_last_name = excluded.defendant_last_name,
    defendant_full_name = excluded.defendant_full_name,
    defendant_attorney_name = excluded.defendant_attorney_name,
    defendant_attorney_phone = excluded.defendant_attorney_phone,
    property_street = excluded.property_street,
    property_city = excluded.property_city,
    property_state = excluded.property_state,
    property_zip = excluded.property_zip,
    property_full_address = excluded.property_full_address,
    zillow_price = excluded.zillow_price,
    zillow_zestimate = excluded.zillow_zestimate,
    zillow_bedrooms = excluded.zillow_bedrooms,
    zillow_bathrooms = excluded.zillow_bathrooms,
    zillow_sqft = excluded.zillow_sqft,
    zillow_year_built = excluded.zillow_year_built,
    zillow_status = excluded.zillow_status,
    zillow_url = excluded.zillow_url,
    dealio_price = excluded.dealio_price,
    dealio_offer = excluded.dealio_offer,
    dealio_contact_phone = excluded.dealio_contact_phone,
    dealio_contact_email = excluded.dealio_contact_email,
    dealio_url = excluded.dealio_url,
    source_url = excluded.source_url,
    scraped_at = excluded.scraped_at`

// Save upserts one record by case number.
func (s *Store) Save(rec models.FlatRecord) error {
	if _, err := s.NamedExec(upsertQuery, rec); err != nil {
		return fmt.Errorf("saving case %s: %w", rec.CaseNumber, err)
	}
	return nil
}

// SaveAll upserts records one at a time inside a transaction. A single
// bad record aborts the batch.
func (s *Store) SaveAll(recs []models.FlatRecord) error {
	tx, err := s.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	for _, rec := range recs {
		if _, err := tx.NamedExec(upsertQuery, rec); err != nil {
			tx.Rollback()
			return fmt.Errorf("saving case %s: %w", rec.CaseNumber, err)
		}
	}
	return tx.Commit()
}

// All returns every stored record ordered by case number.
func (s *Store) All() ([]models.FlatRecord, error) {
	var recs []models.FlatRecord
	err := s.Select(&recs, `
		SELECT case_number, case_type, filing_date, hearing_date, court_room,
		       plaintiff_name, plaintiff_attorney_name, plaintiff_attorney_phone,
		       defendant_first_name, defendant_last_name, defendant_full_name,
		       defendant_attorney_name, defendant_attorney_phone,
		       property_street, property_city, property_state, property_zip, property_full_address,
		       zillow_price, zillow_zestimate, zillow_bedrooms, zillow_bathrooms,
		       zillow_sqft, zillow_year_built, zillow_status, zillow_url,
		       dealio_price, dealio_offer, dealio_contact_phone, dealio_contact_email, dealio_url,
		       source_url, scraped_at
		FROM foreclosures ORDER BY case_number`)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	return recs, nil
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.Get(&n, `SELECT COUNT(*) FROM foreclosures`); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
