package extract

import "regexp"

// Last-resort patterns applied to the flattened page text when the
// structured stages left a field empty.
var (
	PhonePattern = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	EmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	ZipPattern   = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	YearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	bedPattern  = regexp.MustCompile(`(?i)(\d+)\s*(?:bd|bed|bedroom)`)
	bathPattern = regexp.MustCompile(`(?i)([\d.]+)\s*(?:ba|bath|bathroom)`)
	sqftPattern = regexp.MustCompile(`(?i)([\d,]+)\s*(?:sqft|sq\s*ft|square)`)
)

// Beds extracts a bedroom count from free text.
func Beds(text string) *int {
	if m := bedPattern.FindStringSubmatch(text); len(m) > 1 {
		return ParseInt(m[1])
	}
	return nil
}

// Baths extracts a bathroom count from free text.
func Baths(text string) *float64 {
	if m := bathPattern.FindStringSubmatch(text); len(m) > 1 {
		return ParseFloat(m[1])
	}
	return nil
}

// Sqft extracts a floor area from free text.
func Sqft(text string) *int {
	if m := sqftPattern.FindStringSubmatch(text); len(m) > 1 {
		return ParseInt(m[1])
	}
	return nil
}

// Phone returns the first phone-shaped token in text, or "".
func Phone(text string) string {
	return PhonePattern.FindString(text)
}

// Email returns the first email-shaped token in text, or "".
func Email(text string) string {
	return EmailPattern.FindString(text)
}
