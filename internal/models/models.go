// Package models defines the data types shared across the pipeline.
package models

import (
	"strings"
	"time"
)

// DefaultState is the jurisdiction abbreviation applied when an address
// does not carry an explicit state.
const DefaultState = "SC"

// Address is a property address parsed from free text.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// FullAddress returns the comma-joined projection used as the lookup key
// for enrichment sources. Empty components are skipped.
func (a Address) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// IsEmpty reports whether the address has no street component. An address
// without a street is useless as an enrichment key.
func (a Address) IsEmpty() bool {
	return strings.TrimSpace(a.Street) == ""
}

// Attorney holds counsel contact details for one party.
type Attorney struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Firm  string `json:"firm"`
}

// ForeclosureCase is one row scraped from the county court roster.
// Created once per roster row and never mutated afterwards; enrichment
// attaches to the surrounding Record instead.
type ForeclosureCase struct {
	CaseNumber  string `json:"case_number"`
	CaseType    string `json:"case_type"`
	FilingDate  string `json:"filing_date,omitempty"`
	HearingDate string `json:"hearing_date,omitempty"`
	CourtRoom   string `json:"court_room,omitempty"`

	PlaintiffName     string   `json:"plaintiff_name"`
	PlaintiffAttorney Attorney `json:"plaintiff_attorney"`

	DefendantFirstName string   `json:"defendant_first_name"`
	DefendantLastName  string   `json:"defendant_last_name"`
	DefendantAttorney  Attorney `json:"defendant_attorney"`

	PropertyAddress Address `json:"property_address"`

	SourceURL string    `json:"source_url"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// DefendantFullName joins the defendant name parts.
func (c ForeclosureCase) DefendantFullName() string {
	return strings.TrimSpace(c.DefendantFirstName + " " + c.DefendantLastName)
}

// PropertyListing is property data scraped from the valuation source.
// Every field is optional; absence is the normal case.
type PropertyListing struct {
	Address string `json:"address,omitempty"`
	ZPID    string `json:"zpid,omitempty"`

	Price         *float64 `json:"price,omitempty"`
	Zestimate     *float64 `json:"zestimate,omitempty"`
	RentZestimate *float64 `json:"rent_zestimate,omitempty"`

	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	Sqft         *int     `json:"sqft,omitempty"`
	LotSize      string   `json:"lot_size,omitempty"`
	YearBuilt    *int     `json:"year_built,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`

	Status       string `json:"status,omitempty"`
	DaysOnMarket *int   `json:"days_on_market,omitempty"`

	ListingURL string `json:"listing_url,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`

	ScrapedAt time.Time `json:"scraped_at"`
}

// DealListing is property-deal data scraped from the deals source.
type DealListing struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`

	Price           *float64 `json:"price,omitempty"`
	OriginalPrice   *float64 `json:"original_price,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`

	OfferDescription string `json:"offer_description,omitempty"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`

	ListingURL string    `json:"listing_url,omitempty"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// Record combines a roster case with whatever enrichment succeeded.
// Keyed by case number; the latest record for a key supersedes earlier
// ones when stored.
type Record struct {
	Case     ForeclosureCase  `json:"case"`
	Property *PropertyListing `json:"property,omitempty"`
	Deal     *DealListing     `json:"deal,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
	Errors      []string  `json:"errors,omitempty"`
}

// FlatRecord is the flattened projection written to storage and file
// exports. Pointer fields stay nil when the source never produced a value.
type FlatRecord struct {
	CaseNumber  string `db:"case_number" json:"case_number"`
	CaseType    string `db:"case_type" json:"case_type"`
	FilingDate  string `db:"filing_date" json:"filing_date"`
	HearingDate string `db:"hearing_date" json:"hearing_date"`
	CourtRoom   string `db:"court_room" json:"court_room"`

	PlaintiffName          string `db:"plaintiff_name" json:"plaintiff_name"`
	PlaintiffAttorneyName  string `db:"plaintiff_attorney_name" json:"plaintiff_attorney_name"`
	PlaintiffAttorneyPhone string `db:"plaintiff_attorney_phone" json:"plaintiff_attorney_phone"`

	DefendantFirstName     string `db:"defendant_first_name" json:"defendant_first_name"`
	DefendantLastName      string `db:"defendant_last_name" json:"defendant_last_name"`
	DefendantFullName      string `db:"defendant_full_name" json:"defendant_full_name"`
	DefendantAttorneyName  string `db:"defendant_attorney_name" json:"defendant_attorney_name"`
	DefendantAttorneyPhone string `db:"defendant_attorney_phone" json:"defendant_attorney_phone"`

	PropertyStreet      string `db:"property_street" json:"property_street"`
	PropertyCity        string `db:"property_city" json:"property_city"`
	PropertyState       string `db:"property_state" json:"property_state"`
	PropertyZip         string `db:"property_zip" json:"property_zip"`
	PropertyFullAddress string `db:"property_full_address" json:"property_full_address"`

	ZillowPrice     *float64 `db:"zillow_price" json:"zillow_price,omitempty"`
	ZillowZestimate *float64 `db:"zillow_zestimate" json:"zillow_zestimate,omitempty"`
	ZillowBedrooms  *int     `db:"zillow_bedrooms" json:"zillow_bedrooms,omitempty"`
	ZillowBathrooms *float64 `db:"zillow_bathrooms" json:"zillow_bathrooms,omitempty"`
	ZillowSqft      *int     `db:"zillow_sqft" json:"zillow_sqft,omitempty"`
	ZillowYearBuilt *int     `db:"zillow_year_built" json:"zillow_year_built,omitempty"`
	ZillowStatus    string   `db:"zillow_status" json:"zillow_status"`
	ZillowURL       string   `db:"zillow_url" json:"zillow_url"`

	DealioPrice        *float64 `db:"dealio_price" json:"dealio_price,omitempty"`
	DealioOffer        string   `db:"dealio_offer" json:"dealio_offer"`
	DealioContactPhone string   `db:"dealio_contact_phone" json:"dealio_contact_phone"`
	DealioContactEmail string   `db:"dealio_contact_email" json:"dealio_contact_email"`
	DealioURL          string   `db:"dealio_url" json:"dealio_url"`

	SourceURL string    `db:"source_url" json:"source_url"`
	ScrapedAt time.Time `db:"scraped_at" json:"scraped_at"`
}

// Flatten projects the record for database and file export.
func (r Record) Flatten() FlatRecord {
	flat := FlatRecord{
		CaseNumber:  r.Case.CaseNumber,
		CaseType:    r.Case.CaseType,
		FilingDate:  r.Case.FilingDate,
		HearingDate: r.Case.HearingDate,
		CourtRoom:   r.Case.CourtRoom,

		PlaintiffName:          r.Case.PlaintiffName,
		PlaintiffAttorneyName:  r.Case.PlaintiffAttorney.Name,
		PlaintiffAttorneyPhone: r.Case.PlaintiffAttorney.Phone,

		DefendantFirstName:     r.Case.DefendantFirstName,
		DefendantLastName:      r.Case.DefendantLastName,
		DefendantFullName:      r.Case.DefendantFullName(),
		DefendantAttorneyName:  r.Case.DefendantAttorney.Name,
		DefendantAttorneyPhone: r.Case.DefendantAttorney.Phone,

		PropertyStreet:      r.Case.PropertyAddress.Street,
		PropertyCity:        r.Case.PropertyAddress.City,
		PropertyState:       r.Case.PropertyAddress.State,
		PropertyZip:         r.Case.PropertyAddress.ZipCode,
		PropertyFullAddress: r.Case.PropertyAddress.FullAddress(),

		SourceURL: r.Case.SourceURL,
		ScrapedAt: r.Case.ScrapedAt,
	}

	if p := r.Property; p != nil {
		flat.ZillowPrice = p.Price
		flat.ZillowZestimate = p.Zestimate
		flat.ZillowBedrooms = p.Bedrooms
		flat.ZillowBathrooms = p.Bathrooms
		flat.ZillowSqft = p.Sqft
		flat.ZillowYearBuilt = p.YearBuilt
		flat.ZillowStatus = p.Status
		flat.ZillowURL = p.ListingURL
	}
	if d := r.Deal; d != nil {
		flat.DealioPrice = d.Price
		flat.DealioOffer = d.OfferDescription
		flat.DealioContactPhone = d.ContactPhone
		flat.DealioContactEmail = d.ContactEmail
		flat.DealioURL = d.ListingURL
	}

	return flat
}
