package roster

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"lienwatch/internal/fetch"
	"lienwatch/internal/models"
)

func rowSelection(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + html + "</table>"))
	if err != nil {
		t.Fatalf("parsing row: %v", err)
	}
	return doc.Find("tr").First()
}

func TestParseRowFullCase(t *testing.T) {
	row := rowSelection(t, `<tr>
		<td>2024CP4600123</td>
		<td>First National Bank VS John Smith</td>
		<td>Foreclosure</td>
		<td>03/15/2024</td>
		<td>01/10/2024</td>
		<td>Courtroom: 2B</td>
		<td><span>Property Address: 123 Main St, Rock Hill, SC 29732</span></td>
	</tr>`)

	c, ok := parseRow(row)
	if !ok {
		t.Fatal("row not recognized as a case")
	}
	if c.CaseNumber != "2024CP4600123" {
		t.Errorf("CaseNumber = %q", c.CaseNumber)
	}
	if c.PlaintiffName != "First National Bank" {
		t.Errorf("PlaintiffName = %q", c.PlaintiffName)
	}
	if c.DefendantFirstName != "John" || c.DefendantLastName != "Smith" {
		t.Errorf("defendant = %q %q", c.DefendantFirstName, c.DefendantLastName)
	}
	if c.CaseType != "Foreclosure" {
		t.Errorf("CaseType = %q", c.CaseType)
	}
	if c.HearingDate != "03/15/2024" {
		t.Errorf("HearingDate = %q", c.HearingDate)
	}
	if c.FilingDate != "01/10/2024" {
		t.Errorf("FilingDate = %q", c.FilingDate)
	}
	if c.PropertyAddress.Street != "123 Main St" {
		t.Errorf("Street = %q", c.PropertyAddress.Street)
	}
	if c.PropertyAddress.City != "Rock Hill" {
		t.Errorf("City = %q", c.PropertyAddress.City)
	}
	if c.PropertyAddress.State != "SC" {
		t.Errorf("State = %q", c.PropertyAddress.State)
	}
	if c.PropertyAddress.ZipCode != "29732" {
		t.Errorf("ZipCode = %q", c.PropertyAddress.ZipCode)
	}
}

func TestParseRowSkipsNonCaseRows(t *testing.T) {
	for _, html := range []string{
		`<tr><th>Case</th><th>Caption</th></tr>`,
		`<tr><td>Continued from previous session</td></tr>`,
		`<tr><td></td></tr>`,
	} {
		if _, ok := parseRow(rowSelection(t, html)); ok {
			t.Errorf("row %q should be skipped", html)
		}
	}
}

func TestParseRowHyphenatedCaseNumber(t *testing.T) {
	row := rowSelection(t, `<tr><td>2024-CP-00456 Lender LLC vs. Jane Q Doe</td></tr>`)
	c, ok := parseRow(row)
	if !ok {
		t.Fatal("row not recognized")
	}
	if c.CaseNumber != "2024-CP-00456" {
		t.Errorf("CaseNumber = %q", c.CaseNumber)
	}
	if c.DefendantLastName != "Doe" {
		t.Errorf("DefendantLastName = %q", c.DefendantLastName)
	}
	if c.DefendantFirstName != "Jane Q" {
		t.Errorf("DefendantFirstName = %q", c.DefendantFirstName)
	}
}

func TestSplitDefendant(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"John Smith", "John", "Smith"},
		{"Smith, John", "John", "Smith"},
		{"Mary Anne Jones", "Mary Anne", "Jones"},
		{"Smith", "", "Smith"},
		{"John Smith et al", "John", "Smith"},
		{"Smith, John, et al.", "John", "Smith"},
		{"John Smith et. al.", "John", "Smith"},
		{"John Smith etal", "John", "Smith"},
		{"Petal Smith", "Petal", "Smith"},
		{"John Petal", "John", "Petal"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitDefendant(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("splitDefendant(%q) = %q, %q; want %q, %q", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestSplitAddressDefaultsState(t *testing.T) {
	addr := splitAddress("456 Oak Ave, Fort Mill")
	if addr.Street != "456 Oak Ave" {
		t.Errorf("Street = %q", addr.Street)
	}
	if addr.City != "Fort Mill" {
		t.Errorf("City = %q", addr.City)
	}
	if addr.State != models.DefaultState {
		t.Errorf("State = %q, want default", addr.State)
	}
}

func TestSplitAddressZipGluedToCity(t *testing.T) {
	addr := splitAddress("789 Pine Rd, York 29745")
	if addr.City != "York" {
		t.Errorf("City = %q", addr.City)
	}
	if addr.ZipCode != "29745" {
		t.Errorf("ZipCode = %q", addr.ZipCode)
	}
}

// pageFetcher serves canned pages by URL.
type pageFetcher struct {
	pages  map[string]string
	visits []string
}

func (f *pageFetcher) Fetch(ctx context.Context, url string, opts fetch.Options) (fetch.Page, error) {
	f.visits = append(f.visits, url)
	html, ok := f.pages[url]
	if !ok {
		return fetch.Page{}, context.DeadlineExceeded
	}
	return fetch.Page{URL: url, FinalURL: url, HTML: html, StatusCode: 200}, nil
}

func (f *pageFetcher) Close() error { return nil }
func (f *pageFetcher) Name() string { return "fake" }

func TestScrapeFollowsPagination(t *testing.T) {
	page1 := `<html><body><table>
		<tr><td>2024CP4600001 Bank One VS Alice Adams 02/01/2024 Foreclosure</td></tr>
	</table><a href="https://example.com/roster/page2">Next</a></body></html>`
	page2 := `<html><body><table>
		<tr><td>2024CP4600002 Bank Two VS Bob Brown 02/02/2024 Foreclosure</td></tr>
	</table></body></html>`

	f := &pageFetcher{pages: map[string]string{
		"https://example.com/roster":       page1,
		"https://example.com/roster/page2": page2,
	}}
	s := New(f, "https://example.com/roster")

	cases, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].CaseNumber != "2024CP4600001" || cases[1].CaseNumber != "2024CP4600002" {
		t.Errorf("case numbers = %q, %q", cases[0].CaseNumber, cases[1].CaseNumber)
	}
	if cases[0].SourceURL != "https://example.com/roster" {
		t.Errorf("SourceURL = %q", cases[0].SourceURL)
	}
	if len(f.visits) != 2 {
		t.Errorf("expected 2 fetches, got %d: %v", len(f.visits), f.visits)
	}
}

func TestScrapeStopsOnRepeatedPage(t *testing.T) {
	// A page linking to itself must not loop.
	page := `<html><body><table>
		<tr><td>2024CP4600003 Bank VS Carol Clark 02/03/2024</td></tr>
	</table><a href="https://example.com/roster">Next</a></body></html>`

	f := &pageFetcher{pages: map[string]string{"https://example.com/roster": page}}
	s := New(f, "https://example.com/roster")

	cases, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(cases) != 1 {
		t.Errorf("expected 1 case, got %d", len(cases))
	}
	if len(f.visits) != 1 {
		t.Errorf("expected 1 fetch, got %d", len(f.visits))
	}
}

func TestScrapeFirstPageFailureIsFatal(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{}}
	s := New(f, "https://example.com/roster")

	if _, err := s.Scrape(context.Background()); err == nil {
		t.Error("expected error when the roster itself is unreachable")
	}
}

func TestFilterForeclosure(t *testing.T) {
	cases := []models.ForeclosureCase{
		{CaseNumber: "1", CaseType: "Foreclosure"},
		{CaseNumber: "2", CaseType: "Civil", PlaintiffName: "Mortgage Corp"},
		{CaseNumber: "3", CaseType: "Civil", PlaintiffName: "Neighbor"},
	}
	kept := filterForeclosure(cases)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(kept))
	}
	if kept[0].CaseNumber != "1" || kept[1].CaseNumber != "2" {
		t.Errorf("kept = %v", kept)
	}
}

func TestScrapeFollowsDetailPages(t *testing.T) {
	rosterPage := `<html><body><table>
		<tr><td><a href="/casedetail?id=1">2024CP4600001</a></td>
		<td>Bank One VS Alice Adams</td><td>02/01/2024 Foreclosure</td></tr>
	</table></body></html>`
	detailPage := `<html><body><table>
		<tr><td>Property Address:</td><td>55 Oak St, Rock Hill, SC 29732</td></tr>
		<tr><td>Attorney for Plaintiff:</td><td>Carol Counsel (803) 555-0100</td></tr>
		<tr><td>Date Filed:</td><td>01/15/2024</td></tr>
	</table></body></html>`

	f := &pageFetcher{pages: map[string]string{
		"https://example.com/roster":          rosterPage,
		"https://example.com/casedetail?id=1": detailPage,
	}}
	s := New(f, "https://example.com/roster")
	s.FollowDetails = true

	cases, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(cases))
	}

	c := cases[0]
	if c.PropertyAddress.Street != "55 Oak St" || c.PropertyAddress.ZipCode != "29732" {
		t.Errorf("address = %+v", c.PropertyAddress)
	}
	if c.PlaintiffAttorney.Name != "Carol Counsel" {
		t.Errorf("attorney name = %q", c.PlaintiffAttorney.Name)
	}
	if c.PlaintiffAttorney.Phone != "(803) 555-0100" {
		t.Errorf("attorney phone = %q", c.PlaintiffAttorney.Phone)
	}
	if c.FilingDate != "01/15/2024" {
		t.Errorf("filing date = %q", c.FilingDate)
	}
	if len(f.visits) != 2 {
		t.Errorf("visits = %v", f.visits)
	}
}

func TestScrapeDetailFailureKeepsRow(t *testing.T) {
	rosterPage := `<html><body><table>
		<tr><td><a href="/casedetail?id=1">2024CP4600001</a></td>
		<td>Bank One VS Alice Adams</td></tr>
	</table></body></html>`

	f := &pageFetcher{pages: map[string]string{
		"https://example.com/roster": rosterPage,
	}}
	s := New(f, "https://example.com/roster")
	s.FollowDetails = true

	cases, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(cases) != 1 || cases[0].CaseNumber != "2024CP4600001" {
		t.Fatalf("cases = %+v", cases)
	}
}

func TestAvailableDates(t *testing.T) {
	index := `<html><body>
		<select name="rosterDate">
			<option value="02/01/2024">February 1</option>
			<option value="02/08/2024">February 8</option>
			<option value="02/01/2024">February 1 again</option>
		</select>
		<a href="/roster?d=1">Roster for 02/15/2024</a>
	</body></html>`

	f := &pageFetcher{pages: map[string]string{
		"https://example.com/roster": index,
	}}
	s := New(f, "https://example.com/roster")

	dates, err := s.AvailableDates(context.Background())
	if err != nil {
		t.Fatalf("available dates: %v", err)
	}
	want := []string{"02/01/2024", "02/08/2024", "02/15/2024"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v", dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %q, want %q", i, dates[i], want[i])
		}
	}
}

func TestDetailLink(t *testing.T) {
	row := rowSelection(t, `<tr>
		<td><a href="#">sort</a></td>
		<td><a href="javascript:void(0)">expand</a></td>
		<td><a href="/casedetail?id=7">2024CP4600007</a></td>
	</tr>`)
	if got := detailLink(row, "2024CP4600007"); got != "/casedetail?id=7" {
		t.Errorf("detailLink = %q", got)
	}
	if got := detailLink(row, "2099CP0000000"); got != "/casedetail?id=7" {
		t.Errorf("detail endpoint match = %q", got)
	}
}
