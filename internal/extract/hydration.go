package extract

import (
	"encoding/json"
	"regexp"
)

// Hydration blobs: single-page apps serialize their initial state into a
// script tag. The patterns cover Next.js and the generic variants.
var hydrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<script[^>]*id="__NEXT_DATA__"[^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)<script[^>]*id="hdpApolloPreloadedData"[^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});?\s*</script>`),
}

// HydrationJSON returns the first parseable application-state blob
// embedded in the page, or nil.
func HydrationJSON(src *Source) map[string]any {
	for _, pat := range hydrationPatterns {
		m := pat.FindStringSubmatch(src.HTML)
		if len(m) < 2 {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(m[1]), &data); err == nil {
			return data
		}
	}
	return nil
}

// Dig walks nested maps by key. Returns nil when any step is missing or
// not an object.
func Dig(data map[string]any, keys ...string) any {
	var cur any = data
	for _, key := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// DigString is Dig with a string assertion.
func DigString(data map[string]any, keys ...string) string {
	s, _ := Dig(data, keys...).(string)
	return s
}
