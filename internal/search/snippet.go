package search

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/searchindex"
)

// snippetWindow is the character budget of a rendered snippet. The
// window starts a quarter of its width before the first matched term,
// clamped to the text bounds.
const snippetWindow = 160

// snippet picks the snippet source text for a hit and renders it:
// section matches quote the first section whose text contains the
// query; everything else quotes the body, falling back to the title.
func snippet(query, field string, entry catalog.MapEntry, body string) string {
	var text string
	if field == searchindex.FieldSections {
		lower := strings.ToLower(query)
		for _, s := range entry.Sections {
			if strings.Contains(strings.ToLower(s.Text), lower) {
				text = s.Text
				break
			}
		}
	}
	if text == "" {
		// Body fallback also covers fuzzy section matches where no
		// section contains the query verbatim.
		text = body
	}
	if text == "" {
		text = entry.Title
	}
	return highlight(window(text, query), query)
}

// window cuts the fixed-budget snippet window out of text, positioned
// around the first case-insensitive occurrence of the query's first
// term, with ellipses marking cut edges. The budget counts runes, so
// the cut never lands inside a multi-byte character.
func window(text, query string) string {
	runes := []rune(text)
	if len(runes) <= snippetWindow {
		return text
	}

	at := 0
	lower := strings.ToLower(text)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if i := strings.Index(lower, term); i >= 0 {
			at = utf8.RuneCountInString(lower[:i])
			break
		}
	}

	start := at - snippetWindow/4
	if start > len(runes)-snippetWindow {
		start = len(runes) - snippetWindow
	}
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > len(runes) {
		end = len(runes)
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}

// highlight wraps every case-insensitive occurrence of each query term
// longer than one character in <mark> tags, preserving the original
// casing of the matched text.
func highlight(text, query string) string {
	for _, term := range strings.Fields(query) {
		if len(term) <= 1 {
			continue
		}
		text = markAll(text, term)
	}
	return text
}

func markAll(text, term string) string {
	lower := strings.ToLower(text)
	term = strings.ToLower(term)

	var b strings.Builder
	for {
		i := strings.Index(lower, term)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString("<mark>")
		b.WriteString(text[i : i+len(term)])
		b.WriteString("</mark>")
		text = text[i+len(term):]
		lower = lower[i+len(term):]
	}
}
