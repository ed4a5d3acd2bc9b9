package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"leech/internal/httputil"
)

// DefaultFirecrawlURL is the hosted Firecrawl API.
const DefaultFirecrawlURL = "https://api.firecrawl.dev"

// Firecrawl scrapes through the Firecrawl v1 API.
type Firecrawl struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewFirecrawl returns a Firecrawl backend. An empty baseURL selects the hosted API.
func NewFirecrawl(client *http.Client, baseURL, apiKey string) (*Firecrawl, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("firecrawl API key is not configured")
	}
	if baseURL == "" {
		baseURL = DefaultFirecrawlURL
	}
	if err := httputil.ValidateURL(baseURL); err != nil {
		return nil, fmt.Errorf("firecrawl base URL: %w", err)
	}
	if client == nil {
		client = httputil.NewClient()
	}
	return &Firecrawl{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

// Name returns "firecrawl".
func (f *Firecrawl) Name() string { return "firecrawl" }

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	WaitFor         int      `json:"waitFor,omitempty"`
}

type firecrawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		HTML    string   `json:"html"`
		RawHTML string   `json:"rawHtml"`
		Links   []string `json:"links"`
	} `json:"data"`
}

// Scrape asks Firecrawl for the page. Raw HTML is preferred over the cleaned
// variant since embeds often live in script tags Firecrawl strips.
func (f *Firecrawl) Scrape(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{"rawHtml", "links"}
	}

	var out firecrawlResponse
	err := httputil.PostJSON(ctx, f.client, f.baseURL+"/v1/scrape",
		map[string]string{"Authorization": "Bearer " + f.apiKey},
		firecrawlRequest{
			URL:             pageURL,
			Formats:         formats,
			OnlyMainContent: opts.OnlyMainContent,
			WaitFor:         opts.WaitFor,
		}, &out)
	if err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) {
			switch se.Code {
			case http.StatusTooManyRequests:
				return nil, fmt.Errorf("firecrawl: %w", ErrRateLimited)
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, fmt.Errorf("firecrawl: invalid API key (status %d)", se.Code)
			case http.StatusPaymentRequired:
				return nil, fmt.Errorf("firecrawl: credits exhausted")
			}
		}
		return nil, fmt.Errorf("firecrawl scrape: %w", err)
	}

	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("firecrawl: %s", msg)
	}

	html := out.Data.RawHTML
	if html == "" {
		html = out.Data.HTML
	}
	if html == "" {
		return nil, fmt.Errorf("firecrawl: %w", ErrEmptyPage)
	}

	links := out.Data.Links
	if len(links) == 0 {
		links = linksFromHTML(pageURL, html)
	}

	return &Page{URL: pageURL, HTML: html, Links: links}, nil
}

// Close is a no-op; the HTTP client holds no per-backend resources.
func (f *Firecrawl) Close() error { return nil }
