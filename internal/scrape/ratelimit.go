package scrape

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"leech/internal/httputil"
)

// DomainLimiter provides per-domain rate limiting using token buckets.
// Requests to different hosts never wait on each other.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// per host with a burst of 1.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

func (d *DomainLimiter) limiter(domain string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[domain]
	if !ok {
		l = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = l
	}
	return l
}

// Wait blocks until domain may be requested. It fails with ErrRateLimited
// when ctx ends, or its deadline is too close, before a token is available.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if err := d.limiter(domain).Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRateLimited, domain, err)
	}
	return nil
}

// Limited wraps a Scraper so every scrape first waits on a DomainLimiter.
type Limited struct {
	Scraper
	limiter *DomainLimiter
}

// WithLimiter returns s rate limited per target host.
func WithLimiter(s Scraper, l *DomainLimiter) *Limited {
	return &Limited{Scraper: s, limiter: l}
}

// Scrape waits for the page's host and then delegates.
func (l *Limited) Scrape(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	if err := l.limiter.Wait(ctx, httputil.Host(pageURL)); err != nil {
		return nil, err
	}
	return l.Scraper.Scrape(ctx, pageURL, opts)
}
