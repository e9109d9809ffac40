package extract

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// EachJSONLD invokes fn for every object found in the page's JSON-LD
// script blocks. Top-level arrays are flattened; blocks that fail to
// parse are skipped.
func EachJSONLD(src *Source, fn func(item map[string]any)) {
	doc := src.Doc()
	if doc == nil {
		return
	}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := s.Text()
		if raw == "" {
			return
		}

		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			fn(single)
			return
		}

		var list []map[string]any
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			for _, item := range list {
				fn(item)
			}
		}
	})
}

// SchemaType returns the @type of a JSON-LD item, or "".
func SchemaType(item map[string]any) string {
	t, _ := item["@type"].(string)
	return t
}

// SchemaAddress joins the parts of a schema.org PostalAddress. Accepts
// either an object or a plain string.
func SchemaAddress(v any) string {
	switch addr := v.(type) {
	case string:
		return addr
	case map[string]any:
		joined := ""
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
			if part, _ := addr[key].(string); part != "" {
				if joined != "" {
					joined += ", "
				}
				joined += part
			}
		}
		return joined
	}
	return ""
}
