package roster

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lienwatch/internal/extract"
	"lienwatch/internal/models"
)

var (
	// Primary case-number form: year, two-letter court code, serial.
	caseNumberPattern = regexp.MustCompile(`\b\d{4}[A-Z]{2}\d{7,}\b`)
	// Hyphenated fallback used by some roster layouts.
	altCasePattern = regexp.MustCompile(`\b\d{2,4}-[A-Z]{1,4}-\d{3,}\b`)

	// Caption split: "Plaintiff VS Defendant". The defendant capture
	// stops before trailing digits so a hearing date glued onto the
	// caption does not bleed into the name.
	captionPattern = regexp.MustCompile(`(?i)(.+?)\s+(?:vs?\.?|versus)\s+(.+?)(?:\s*$|\s+\d)`)

	datePattern = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`)

	// Street line recogniser for address fallback when the roster does
	// not label the property address.
	streetPattern = regexp.MustCompile(`(?i)\b\d+\s+[\w\s.]+?\b(?:st|street|rd|road|ave|avenue|dr|drive|ln|lane|ct|court|cir|circle|way|blvd|boulevard|pl|place|hwy|highway|trl|trail)\b\.?`)

	courtRoomPattern = regexp.MustCompile(`(?i)(?:court\s*room|ctrm|room)\s*[:#]?\s*([\w-]+)`)

	// "et al" tail on a defendant caption, with or without punctuation.
	// Anchored behind a separator so names like "Petal" survive.
	etAlPattern = regexp.MustCompile(`(?i)[,\s]+et\.?\s*al\.?\s*$`)
)

// parseRow builds a case from one roster table row. Rows without a
// case number are not case rows (headers, separators, notes) and are
// skipped.
func parseRow(row *goquery.Selection) (models.ForeclosureCase, bool) {
	var c models.ForeclosureCase

	text := strings.Join(strings.Fields(row.Text()), " ")
	if text == "" {
		return c, false
	}

	c.CaseNumber = caseNumberPattern.FindString(text)
	if c.CaseNumber == "" {
		c.CaseNumber = altCasePattern.FindString(text)
	}
	if c.CaseNumber == "" {
		return c, false
	}

	if m := findCaption(row, text); len(m) > 2 {
		c.PlaintiffName = cleanParty(m[1], c.CaseNumber)
		first, last := splitDefendant(cleanParty(m[2], c.CaseNumber))
		c.DefendantFirstName = first
		c.DefendantLastName = last
	}

	dates := datePattern.FindAllString(text, 2)
	if len(dates) > 0 {
		c.HearingDate = dates[0]
	}
	if len(dates) > 1 {
		c.FilingDate = dates[1]
	}

	if m := courtRoomPattern.FindStringSubmatch(text); len(m) > 1 {
		c.CourtRoom = m[1]
	}

	c.CaseType = caseType(text)
	c.PropertyAddress = parseAddress(row, text)

	return c, true
}

// findCaption locates the "Plaintiff VS Defendant" caption. The caption
// lives in its own cell on most layouts; matching the cell first keeps
// neighboring columns out of the defendant capture.
func findCaption(row *goquery.Selection, rowText string) []string {
	var m []string
	row.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.Join(strings.Fields(cell.Text()), " ")
		if got := captionPattern.FindStringSubmatch(text); len(got) > 2 {
			m = got
			return false
		}
		return true
	})
	if m == nil {
		m = captionPattern.FindStringSubmatch(rowText)
	}
	return m
}

// detailLink finds the row's link to its case detail page: an anchor
// whose text is the case number, or failing that one whose href
// mentions the case or a detail endpoint.
func detailLink(row *goquery.Selection, caseNumber string) string {
	href := ""
	row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h, ok := a.Attr("href")
		if !ok || h == "" || h == "#" || strings.HasPrefix(h, "javascript:") {
			return true
		}
		text := strings.TrimSpace(a.Text())
		lower := strings.ToLower(h)
		if text == caseNumber || strings.Contains(h, caseNumber) ||
			strings.Contains(lower, "casedetail") || strings.Contains(lower, "case-detail") {
			href = h
			return false
		}
		return true
	})
	return href
}

// fillFromDetail copies labeled fields from a case detail page into the
// slots the roster row left empty. Already populated fields are kept.
func fillFromDetail(c *models.ForeclosureCase, src *extract.Source) {
	doc := src.Doc()
	if doc == nil {
		return
	}

	if c.PropertyAddress.IsEmpty() {
		if v := labeledValue(doc, "property address"); v != "" {
			c.PropertyAddress = splitAddress(v)
		}
	}
	if c.CourtRoom == "" {
		if m := courtRoomPattern.FindStringSubmatch(src.Text()); len(m) > 1 {
			c.CourtRoom = m[1]
		}
	}
	if c.FilingDate == "" {
		if v := labeledValue(doc, "date filed", "filing date"); v != "" {
			c.FilingDate = datePattern.FindString(v)
		}
	}
	if c.PlaintiffAttorney.Name == "" {
		c.PlaintiffAttorney = parseAttorney(labeledValue(doc,
			"attorney for plaintiff", "plaintiff's attorney", "plaintiff attorney"))
	}
	if c.DefendantAttorney.Name == "" {
		c.DefendantAttorney = parseAttorney(labeledValue(doc,
			"attorney for defendant", "defendant's attorney", "defendant attorney"))
	}
}

// labeledValue returns the text following a label on the page. When
// several elements carry the label the shortest remainder wins, which
// favors the innermost cell over enclosing containers.
func labeledValue(doc *goquery.Document, labels ...string) string {
	val := ""
	doc.Find("tr, td, th, span, div, dd, li, p").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		lower := strings.ToLower(text)
		for _, label := range labels {
			idx := strings.Index(lower, label)
			if idx < 0 {
				continue
			}
			rest := strings.Trim(text[idx+len(label):], " :")
			if rest != "" && (val == "" || len(rest) < len(val)) {
				val = rest
			}
		}
	})
	return val
}

// parseAttorney splits an attorney cell into name and contact parts.
func parseAttorney(v string) models.Attorney {
	a := models.Attorney{Name: v}
	if p := extract.Phone(v); p != "" {
		a.Phone = p
		a.Name = strings.Replace(a.Name, p, "", 1)
	}
	if e := extract.Email(v); e != "" {
		a.Email = e
		a.Name = strings.Replace(a.Name, e, "", 1)
	}
	a.Name = strings.Trim(strings.Join(strings.Fields(a.Name), " "), " ,-")
	return a
}

// cleanParty strips the case number and stray separators from a party
// caption fragment.
func cleanParty(s, caseNumber string) string {
	s = strings.ReplaceAll(s, caseNumber, "")
	s = strings.Trim(s, " ,-")
	return strings.Join(strings.Fields(s), " ")
}

// splitDefendant separates a defendant name into first and last. "Last,
// First" order is honored when a comma is present; otherwise the final
// token is the last name. Suffix tokens like "et al" are dropped.
func splitDefendant(name string) (first, last string) {
	name = strings.TrimSpace(name)
	name = strings.TrimRight(strings.TrimSpace(etAlPattern.ReplaceAllString(name, "")), ",")
	if name == "" {
		return "", ""
	}

	if comma := strings.Index(name, ","); comma >= 0 {
		last = strings.TrimSpace(name[:comma])
		first = strings.TrimSpace(name[comma+1:])
		return first, last
	}

	parts := strings.Fields(name)
	if len(parts) == 1 {
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// caseType classifies the row by its keywords.
func caseType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "foreclosure"):
		return "Foreclosure"
	case strings.Contains(lower, "mortgage"):
		return "Mortgage"
	case strings.Contains(lower, "lien"):
		return "Lien"
	case strings.Contains(lower, "default"):
		return "Default Judgment"
	default:
		return "Civil"
	}
}

// parseAddress extracts the property address: a labeled element when
// the roster carries one, otherwise a street-shaped line in the row
// text.
func parseAddress(row *goquery.Selection, text string) models.Address {
	var addr models.Address

	labeled := ""
	row.Find("span, td, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if idx := strings.Index(strings.ToLower(t), "property address:"); idx >= 0 {
			labeled = strings.TrimSpace(t[idx+len("property address:"):])
			return false
		}
		return true
	})

	source := labeled
	if source == "" {
		if idx := strings.Index(strings.ToLower(text), "property address:"); idx >= 0 {
			source = strings.TrimSpace(text[idx+len("property address:"):])
		}
	}
	if source == "" {
		source = streetPattern.FindString(text)
		if source == "" {
			return addr
		}
	}

	return splitAddress(source)
}

// splitAddress parses "street, city, ST zip" shaped text, tolerating
// missing tail components. The state defaults to the jurisdiction's.
func splitAddress(s string) models.Address {
	addr := models.Address{State: models.DefaultState}

	if m := extract.ZipPattern.FindStringSubmatch(s); len(m) > 1 {
		addr.ZipCode = m[1]
	}

	parts := strings.Split(s, ",")
	addr.Street = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		addr.City = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		tail := strings.Fields(strings.TrimSpace(parts[2]))
		if len(tail) > 0 && len(tail[0]) == 2 {
			addr.State = strings.ToUpper(tail[0])
		}
	}

	// A zip glued onto the city field stays out of the city name.
	if addr.City != "" {
		addr.City = strings.TrimSpace(extract.ZipPattern.ReplaceAllString(addr.City, ""))
	}

	return addr
}
