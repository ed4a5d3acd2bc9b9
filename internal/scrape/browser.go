package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"leech/internal/httputil"
)

// Browser renders pages in headless Chrome so players built by scripts are
// present in the HTML. It is safe for concurrent use.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewBrowser launches headless Chrome (downloading it if needed).
// Close must be called to release the process.
func NewBrowser() (*Browser, error) {
	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &Browser{browser: browser, launcher: l, timeout: 45 * time.Second}, nil
}

// Name returns "browser".
func (b *Browser) Name() string { return "browser" }

// Scrape navigates to pageURL, waits for load plus opts.WaitFor, and returns
// the rendered document.
func (b *Browser) Scrape(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	if err := httputil.ValidatePageURL(pageURL); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout+time.Duration(opts.WaitFor)*time.Millisecond)
	defer cancel()

	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", pageURL, err)
	}

	if opts.WaitFor > 0 {
		select {
		case <-time.After(time.Duration(opts.WaitFor) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}
	if html == "" {
		return nil, fmt.Errorf("reading %s: %w", pageURL, ErrEmptyPage)
	}
	if len(html) > MaxBodyBytes {
		html = html[:MaxBodyBytes]
	}

	finalURL := pageURL
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &Page{URL: finalURL, HTML: html, Links: linksFromHTML(finalURL, html)}, nil
}

// Close shuts the browser down and kills its process.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}
