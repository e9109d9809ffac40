package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^\d.]`)

// ParsePrice parses a currency string ("$1,234,500", "1.2M" stays out of
// scope) into a float. Thousands separators and currency symbols are
// stripped first. Returns nil when nothing numeric remains.
func ParsePrice(s string) *float64 {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt parses an integer out of a label like "1,824 sqft".
func ParseInt(s string) *int {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	// Drop a decimal tail so "2.0" still parses as 2.
	if i := strings.IndexByte(cleaned, '.'); i >= 0 {
		cleaned = cleaned[:i]
	}
	if cleaned == "" {
		return nil
	}
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &v
}

// ParseFloat parses a bare decimal like "2.5" from a bath count.
func ParseFloat(s string) *float64 {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// AsFloat coerces the loosely-typed values JSON blobs carry for numbers.
func AsFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		return ParsePrice(n)
	}
	return nil
}

// AsInt coerces a JSON value to an int.
func AsInt(v any) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	case string:
		return ParseInt(n)
	}
	return nil
}
