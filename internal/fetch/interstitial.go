package fetch

import "strings"

// Court and records sites gate content behind a one-time disclaimer form.
// The selectors below are ordered guesses; the first one that matches a
// live element wins.

// checkboxSelectors locate the acknowledgement checkbox.
var checkboxSelectors = []string{
	"input[type='checkbox']",
	"#disclaimer",
	"[name='accept']",
	"[name='disclaimer']",
}

// submitSelectors locate the continue/accept control.
var submitSelectors = []string{
	"input[type='submit']",
	"button[type='submit']",
	"input[value*='Continue']",
	"input[value*='Accept']",
	"input[value*='Enter']",
}

// hasInterstitial reports whether a page body looks like a disclaimer
// gate rather than content.
func hasInterstitial(html string) bool {
	lower := strings.ToLower(html)
	return strings.Contains(lower, "disclaimer") ||
		(strings.Contains(lower, "accept") && strings.Contains(lower, "terms"))
}

// acceptInterstitialScript is evaluated in-page: it ticks the first
// matching checkbox and clicks the first matching submit control,
// returning whether anything was clicked.
func acceptInterstitialScript() string {
	var b strings.Builder
	b.WriteString("(function() {\n  let clicked = false;\n")
	b.WriteString("  const checkboxes = [")
	b.WriteString(quoteList(checkboxSelectors))
	b.WriteString("];\n  for (const sel of checkboxes) {\n")
	b.WriteString("    const el = document.querySelector(sel);\n")
	b.WriteString("    if (el) { if (!el.checked) { el.click(); } break; }\n  }\n")
	b.WriteString("  const submits = [")
	b.WriteString(quoteList(submitSelectors))
	b.WriteString("];\n  for (const sel of submits) {\n")
	b.WriteString("    const el = document.querySelector(sel);\n")
	b.WriteString("    if (el) { el.click(); clicked = true; break; }\n  }\n")
	b.WriteString("  return clicked;\n})()")
	return b.String()
}

func quoteList(selectors []string) string {
	quoted := make([]string, len(selectors))
	for i, s := range selectors {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}
