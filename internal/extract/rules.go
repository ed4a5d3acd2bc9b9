package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// scanKind selects how a rule reads the page.
type scanKind int

const (
	// scanAttr reads attributes of elements matched by a CSS selector.
	scanAttr scanKind = iota
	// scanText runs a regexp over the raw markup.
	scanText
	// scanJSON runs a regexp over "key": "value" pairs and unescapes the value.
	scanJSON
)

// rule is one row of a discovery table. Patterns capture the value in group 1;
// when group 1 is absent or empty the whole match is used.
type rule struct {
	name     string
	scan     scanKind
	selector string         // scanAttr
	attrs    []string       // scanAttr, checked in order on each element
	pattern  *regexp.Regexp // scanText, scanJSON
	gate     []string       // scanText, scanJSON: skip unless the lowered markup contains one
	keep     func(string) bool
}

// page is the per-call view of one HTML document. It parses the DOM at most
// once and memoizes regexp scans so rules sharing a pattern read the text once.
type page struct {
	html    string
	lower   string
	doc     *goquery.Document
	parsed  bool
	matches map[*regexp.Regexp][]string
}

func newPage(html string) *page {
	return &page{html: html, matches: make(map[*regexp.Regexp][]string)}
}

// dom returns the parsed document, or nil if the markup could not be read.
// Scripting is off so <noscript> children are elements, not text.
func (p *page) dom() *goquery.Document {
	if !p.parsed {
		p.parsed = true
		root, err := html.ParseWithOptions(strings.NewReader(p.html), html.ParseOptionEnableScripting(false))
		if err == nil {
			p.doc = goquery.NewDocumentFromNode(root)
		}
	}
	return p.doc
}

// mentions reports whether the markup contains any of subs, which must be
// lower case.
func (p *page) mentions(subs []string) bool {
	if p.lower == "" {
		p.lower = strings.ToLower(p.html)
	}
	for _, sub := range subs {
		if strings.Contains(p.lower, sub) {
			return true
		}
	}
	return false
}

// find returns the captured values of re over the raw markup, in order.
func (p *page) find(re *regexp.Regexp) []string {
	if vals, ok := p.matches[re]; ok {
		return vals
	}
	var vals []string
	for _, m := range re.FindAllStringSubmatch(p.html, -1) {
		v := m[0]
		if len(m) > 1 && m[1] != "" {
			v = m[1]
		}
		vals = append(vals, v)
	}
	p.matches[re] = vals
	return vals
}

// values evaluates r against p and returns the raw strings that pass its filter.
func (r rule) values(p *page) []string {
	if r.scan != scanAttr && len(r.gate) > 0 && !p.mentions(r.gate) {
		return nil
	}

	var raw []string

	switch r.scan {
	case scanAttr:
		doc := p.dom()
		if doc == nil {
			return nil
		}
		doc.Find(r.selector).Each(func(_ int, s *goquery.Selection) {
			for _, attr := range r.attrs {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
					raw = append(raw, v)
				}
			}
		})

	case scanText:
		for _, v := range p.find(r.pattern) {
			raw = append(raw, decodeEntities(v))
		}

	case scanJSON:
		for _, v := range p.find(r.pattern) {
			raw = append(raw, unescapeJSON(v))
		}
	}

	if r.keep == nil {
		return raw
	}
	kept := raw[:0]
	for _, v := range raw {
		if r.keep(normalizeOrRaw(v)) {
			kept = append(kept, v)
		}
	}
	return kept
}

// normalizeOrRaw lets filters see the absolute form when there is one.
func normalizeOrRaw(v string) string {
	if u := normalizeURL(v); u != "" {
		return u
	}
	return strings.TrimSpace(v)
}

// unescapeJSON undoes the escaping script-embedded JSON applies to URLs.
func unescapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\/`, "/")
	s = strings.ReplaceAll(s, "\\u002F", "/")
	s = strings.ReplaceAll(s, "\\u002f", "/")
	s = strings.ReplaceAll(s, "\\u0026", "&")
	return s
}

// containsAny reports whether s contains any of subs, ignoring case.
func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
