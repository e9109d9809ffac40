// Package extract pulls typed fields out of scraped pages. Extraction
// runs an ordered list of stages; each stage returns a partial result and
// a field set by an earlier stage is never overwritten by a later one.
// Extraction never fails outright: an unparseable page yields an empty
// result, which callers treat as "not found".
package extract

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Source wraps one fetched page. The goquery document and the flattened
// text projection are parsed lazily and cached, since the regex fallback
// stages only run when earlier stages left gaps.
type Source struct {
	URL  string
	HTML string

	docOnce  sync.Once
	doc      *goquery.Document
	docErr   error
	textOnce sync.Once
	text     string
}

// NewSource wraps raw page HTML.
func NewSource(url, html string) *Source {
	return &Source{URL: url, HTML: html}
}

// Doc returns the parsed document, or nil when the HTML does not parse.
func (s *Source) Doc() *goquery.Document {
	s.docOnce.Do(func() {
		s.doc, s.docErr = goquery.NewDocumentFromReader(strings.NewReader(s.HTML))
	})
	if s.docErr != nil {
		return nil
	}
	return s.doc
}

// Text returns the page's visible text with scripts and styles removed
// and whitespace collapsed.
func (s *Source) Text() string {
	s.textOnce.Do(func() {
		doc := s.Doc()
		if doc == nil {
			s.text = s.HTML
			return
		}
		clone := doc.Clone()
		clone.Find("script, style, noscript").Remove()
		s.text = strings.Join(strings.Fields(clone.Text()), " ")
	})
	return s.text
}

// Stage produces a partial result from a source. Stages must be pure:
// no side effects beyond reading the source.
type Stage[T any] func(src *Source) T

// Fold runs stages in priority order and merges each partial into the
// accumulated result. merge must only fill fields that are still unset,
// which gives the first (highest-priority) stage to produce a value the
// final say.
func Fold[T any](src *Source, merge func(dst *T, partial T), stages ...Stage[T]) T {
	var result T
	for _, stage := range stages {
		merge(&result, stage(src))
	}
	return result
}

// FirstText returns the trimmed text of the first selector that matches
// a non-empty element, walking the fallback chain in order.
func FirstText(doc *goquery.Document, selectors ...string) string {
	if doc == nil {
		return ""
	}
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// FirstAttr returns the named attribute of the first selector that
// matches an element carrying it.
func FirstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	if doc == nil {
		return ""
	}
	for _, sel := range selectors {
		if val, ok := doc.Find(sel).First().Attr(attr); ok && val != "" {
			return val
		}
	}
	return ""
}
