package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"leech/internal/httputil"
)

// Direct fetches pages itself with a colly collector. It does not run scripts,
// so players assembled client-side may be missed.
type Direct struct {
	userAgent string
	transport http.RoundTripper
	timeout   time.Duration
}

// NewDirect returns a Direct backend using the hardened transport.
func NewDirect(userAgent string) *Direct {
	if userAgent == "" {
		userAgent = httputil.DefaultUserAgent
	}
	return &Direct{
		userAgent: userAgent,
		transport: httputil.NewClient().Transport,
		timeout:   30 * time.Second,
	}
}

// Name returns "direct".
func (d *Direct) Name() string { return "direct" }

// Scrape fetches pageURL once and collects its links. Options are ignored
// except that WaitFor has no meaning without a browser.
func (d *Direct) Scrape(ctx context.Context, pageURL string, _ Options) (*Page, error) {
	if err := httputil.ValidatePageURL(pageURL); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(d.userAgent),
		colly.MaxBodySize(MaxBodyBytes),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.WithTransport(d.transport)
	c.SetRequestTimeout(d.timeout)

	page := &Page{URL: pageURL}
	seen := make(map[string]bool)
	var scrapeErr error

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.5")
	})

	c.OnResponse(func(r *colly.Response) {
		page.URL = r.Request.URL.String()
		page.HTML = string(r.Body)
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := resolveLink(e.Request.URL, e.Attr("href"))
		if link != "" && !seen[link] {
			seen[link] = true
			page.Links = append(page.Links, link)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode == http.StatusTooManyRequests {
			scrapeErr = fmt.Errorf("fetching %s: %w", pageURL, ErrRateLimited)
			return
		}
		if r != nil && r.StatusCode != 0 {
			scrapeErr = fmt.Errorf("fetching %s: status %d", pageURL, r.StatusCode)
			return
		}
		scrapeErr = fmt.Errorf("fetching %s: %w", pageURL, err)
	})

	visitErr := c.Visit(pageURL)
	if scrapeErr != nil {
		return nil, scrapeErr
	}
	if visitErr != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, visitErr)
	}

	if page.HTML == "" {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, ErrEmptyPage)
	}
	return page, nil
}

// Close is a no-op.
func (d *Direct) Close() error { return nil }
