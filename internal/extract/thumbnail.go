package extract

import (
	"path"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

var jsonThumbnailPattern = regexp.MustCompile(`(?i)["'](?:thumbnail|thumb|poster|preview|image)(?:_url|Url)?["']\s*:\s*["']([^"'\s<>]+)["']`)

func hasImageExtension(u string) bool {
	return imageExtensions[path.Ext(urlPath(u))]
}

// thumbnailRules are tried in order. The first value that normalizes to an
// image URL wins.
var thumbnailRules = []rule{
	{name: "og:image", scan: scanAttr, selector: `meta[property="og:image"], meta[name="og:image"], meta[property="og:image:url"]`, attrs: []string{"content"}},
	{name: "twitter:image", scan: scanAttr, selector: `meta[name="twitter:image"], meta[property="twitter:image"], meta[name="twitter:image:src"]`, attrs: []string{"content"}},
	{name: "poster", scan: scanAttr, selector: "video[poster]", attrs: []string{"poster"}},
	{
		name:     "data-image",
		scan:     scanAttr,
		selector: "[data-poster], [data-thumb], [data-thumbnail], [data-preview], [data-image]",
		attrs:    []string{"data-poster", "data-thumb", "data-thumbnail", "data-preview", "data-image"},
	},
	{name: "data-src-image", scan: scanAttr, selector: "[data-src]", attrs: []string{"data-src"}, keep: hasImageExtension},
	{name: "json-image", scan: scanJSON, pattern: jsonThumbnailPattern, gate: []string{"thumb", "poster", "preview", "image"}},
	{
		name:     "img-class",
		scan:     scanAttr,
		selector: "img[class*=thumb], img[class*=poster], img[class*=preview], img[class*=cover], img[class*=featured]",
		attrs:    []string{"src", "data-src"},
	},
}

// DiscoverThumbnail returns the best preview image URL in html, or "".
func DiscoverThumbnail(html string) string {
	return discoverThumbnail(newPage(html))
}

func discoverThumbnail(p *page) string {
	for _, r := range thumbnailRules {
		for _, v := range r.values(p) {
			if u := normalizeURL(v); u != "" && isImageURL(u) {
				return u
			}
		}
	}
	if u := platformThumbnail(p); u != "" {
		return u
	}
	return fallbackImage(p)
}

// Keywords that mark page chrome rather than content images.
var chromeImageHints = []string{
	"icon", "logo", "sprite", "nav", "social", "avatar", "emoji",
	"pixel", "blank", "spacer", "loading", "badge", "button",
}

var largeImageHints = []string{"large", "big", "full", "hd", "1080", "720", "poster", "thumb"}

var (
	dimensionPattern = regexp.MustCompile(`(\d{2,4})x(\d{2,4})`)
	sizeParamPattern = regexp.MustCompile(`(?i)[?&](?:w|width|h|height)=(\d{2,4})`)
)

const (
	tinyImageSide  = 100
	largeImageSide = 400
)

// fallbackImage scans every <img> and returns a large-looking content image,
// else the first one that is not page chrome.
func fallbackImage(p *page) string {
	doc := p.dom()
	if doc == nil {
		return ""
	}

	var first, large string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		u := normalizeURL(src)
		if u == "" || containsAny(urlPath(u), chromeImageHints...) || isTinyImage(u) {
			return true
		}
		if first == "" {
			first = u
		}
		if looksLarge(u) {
			large = u
			return false
		}
		return true
	})

	if large != "" {
		return large
	}
	return first
}

func isTinyImage(u string) bool {
	for _, m := range dimensionPattern.FindAllStringSubmatch(u, -1) {
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		if w <= tinyImageSide && h <= tinyImageSide {
			return true
		}
	}
	return false
}

func looksLarge(u string) bool {
	if containsAny(urlPath(u), largeImageHints...) {
		return true
	}
	for _, m := range dimensionPattern.FindAllStringSubmatch(u, -1) {
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		if w >= largeImageSide || h >= largeImageSide {
			return true
		}
	}
	for _, m := range sizeParamPattern.FindAllStringSubmatch(u, -1) {
		if n, _ := strconv.Atoi(m[1]); n >= largeImageSide {
			return true
		}
	}
	return false
}
