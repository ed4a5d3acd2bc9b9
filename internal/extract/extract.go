// Package extract finds video URLs, a thumbnail, a title and a description
// in scraped HTML. Every function is pure: no I/O, no shared mutable state.
package extract

import (
	"unicode/utf8"

	"leech/internal/media"
)

// MaxHTMLBytes caps how much markup is scanned. Longer input is truncated.
const MaxHTMLBytes = 5 << 20

// Extractor turns scraped markup into an extraction result.
type Extractor interface {
	Extract(doc media.Document) media.Result
}

// New returns the HTML extractor with the default input cap.
func New() Extractor {
	return htmlExtractor{maxBytes: MaxHTMLBytes}
}

type htmlExtractor struct {
	maxBytes int
}

func (e htmlExtractor) Extract(doc media.Document) media.Result {
	return extract(truncate(doc.HTML, e.maxBytes))
}

// Extract runs every discovery step over html.
func Extract(html string) media.Result {
	return extract(truncate(html, MaxHTMLBytes))
}

// ExtractDocument is Extract for a scraped document.
func ExtractDocument(doc media.Document) media.Result {
	return Extract(doc.HTML)
}

func extract(html string) media.Result {
	p := newPage(html)
	candidates := discoverURLs(p)
	if candidates == nil {
		candidates = []media.Candidate{}
	}
	return media.Result{
		Candidates:  candidates,
		Thumbnail:   discoverThumbnail(p),
		Title:       DiscoverTitle(html),
		Description: DiscoverDescription(html),
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
