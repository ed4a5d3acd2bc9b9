// Package leech turns a scraped page into catalog videos: it fetches and
// extracts a page, lays the candidates out for review and imports the
// selected ones.
package leech

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"leech/internal/extract"
	"leech/internal/media"
	"leech/internal/scrape"
)

// UntitledVideo is stored when an item reaches import with no title.
const UntitledVideo = "Untitled Video"

// DefaultScrapeOptions are the options the admin import flow scrapes with.
var DefaultScrapeOptions = scrape.Options{
	Formats:         []string{"rawHtml", "links"},
	OnlyMainContent: false,
	WaitFor:         5000,
}

// Fetch scrapes pageURL with s and runs the extractor over the markup.
func Fetch(ctx context.Context, s scrape.Scraper, pageURL string, opts scrape.Options) (*scrape.Page, media.Result, error) {
	page, err := s.Scrape(ctx, pageURL, opts)
	if err != nil {
		return nil, media.Result{}, err
	}
	res := extract.ExtractDocument(media.Document{HTML: page.HTML, SourceURL: pageURL})
	return page, res, nil
}

// Item is one candidate laid out for review.
type Item struct {
	URL         string          `json:"url"`
	Kind        media.Kind      `json:"kind"`
	VideoType   media.VideoType `json:"video_type"`
	Title       string          `json:"title"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Description string          `json:"description,omitempty"`
	SourceURL   string          `json:"source_url,omitempty"`
	Selected    bool            `json:"selected"`
}

// Review builds one selected Item per candidate. Every item shares the
// page's thumbnail and description; the title falls back to "Video N".
func Review(res media.Result, sourceURL string) []Item {
	items := make([]Item, 0, len(res.Candidates))
	for i, c := range res.Candidates {
		title := res.Title
		if title == "" {
			title = fmt.Sprintf("Video %d", i+1)
		}
		items = append(items, Item{
			URL:         c.URL,
			Kind:        c.Kind,
			VideoType:   media.VideoTypeFor(c.Kind),
			Title:       title,
			Thumbnail:   res.Thumbnail,
			Description: res.Description,
			SourceURL:   sourceURL,
			Selected:    true,
		})
	}
	return items
}

// Selected returns the items still marked for import.
func Selected(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// Catalog is the part of the video store Import needs.
type Catalog interface {
	ExistsByVideoURL(ctx context.Context, videoURL string) (bool, error)
	Insert(ctx context.Context, v *media.Video) error
}

// Options are the catalog flags applied to every imported video.
type Options struct {
	CategoryID   string
	IsVIP        bool
	IsVietsub    bool
	IsUncensored bool
	UploadedBy   string
}

// Report tallies an import.
type Report struct {
	Imported []media.Video `json:"imported"`
	Skipped  []string      `json:"skipped"` // video URLs already in the catalog
	Failed   []error       `json:"-"`
}

// Import stores every selected item as an approved public video. A row that
// fails is recorded in Report.Failed and does not stop the rest.
func Import(ctx context.Context, c Catalog, items []Item, opts Options) (Report, error) {
	var r Report
	for _, it := range Selected(items) {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		exists, err := c.ExistsByVideoURL(ctx, it.URL)
		if err != nil {
			r.Failed = append(r.Failed, fmt.Errorf("%s: %w", it.URL, err))
			continue
		}
		if exists {
			r.Skipped = append(r.Skipped, it.URL)
			continue
		}

		v := toVideo(it, opts)
		if err := c.Insert(ctx, &v); err != nil {
			r.Failed = append(r.Failed, fmt.Errorf("%s: %w", it.URL, err))
			continue
		}
		r.Imported = append(r.Imported, v)
	}
	return r, nil
}

func toVideo(it Item, opts Options) media.Video {
	title := plainText(it.Title)
	if title == "" {
		title = UntitledVideo
	}
	vt := it.VideoType
	if vt == "" {
		vt = media.VideoTypeFor(it.Kind)
	}
	return media.Video{
		Title:        title,
		Description:  plainText(it.Description),
		ThumbnailURL: it.Thumbnail,
		VideoURL:     it.URL,
		VideoType:    vt,
		CategoryID:   opts.CategoryID,
		IsVIP:        opts.IsVIP,
		IsVietsub:    opts.IsVietsub,
		IsUncensored: opts.IsUncensored,
		Status:       media.StatusApproved,
		Visibility:   media.VisibilityPublic,
		UploadedBy:   opts.UploadedBy,
		SourceURL:    it.SourceURL,
	}
}

var strict = bluemonday.StrictPolicy()

// plainText strips markup from scraped text. The policy escapes what it
// keeps, so the result is unescaped again before storing.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
