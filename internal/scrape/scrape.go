// Package scrape fetches the raw HTML of a page through one of several
// backends: the hosted Firecrawl API, a direct HTTP fetch, or a headless browser.
package scrape

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxBodyBytes caps how much of a page a backend will read.
const MaxBodyBytes = 10 * 1024 * 1024

var (
	// ErrRateLimited is returned when the local limiter or the upstream
	// refuses a request because of request rate.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmptyPage is returned when a backend succeeds but yields no HTML.
	ErrEmptyPage = errors.New("page has no html")
)

// Options tunes a single scrape. The zero value asks for the full page.
type Options struct {
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
	WaitFor         int      `json:"waitFor,omitempty"` // milliseconds
}

// Page is the result of one scrape.
type Page struct {
	URL   string
	HTML  string
	Links []string
}

// Scraper fetches a page's HTML.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, pageURL string, opts Options) (*Page, error)
	Close() error
}

// linksFromHTML returns the absolute http(s) targets of every a[href] in html,
// resolved against pageURL, in document order without duplicates.
func linksFromHTML(pageURL, html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link := resolveLink(base, href); link != "" && !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links
}

// resolveLink makes href absolute against base and drops non-http targets.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}
