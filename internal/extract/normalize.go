package extract

import (
	"net/url"
	"path"
	"strings"

	"leech/internal/media"
)

// videoExtensions are the path suffixes that make a URL a playable file.
var videoExtensions = map[string]bool{
	".mp4": true, ".m3u8": true, ".webm": true, ".ogg": true,
	".flv": true, ".avi": true, ".mov": true, ".mkv": true,
}

// imageExtensions are the path suffixes accepted as thumbnails.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".avif": true, ".bmp": true,
}

// imageHostSuffixes are CDNs that serve images without telling extensions.
var imageHostSuffixes = []string{
	"ytimg.com", "vimeocdn.com", "dmcdn.net", "twimg.com", "fbcdn.net",
	"cdninstagram.com", "imgur.com", "cloudinary.com", "imgix.net",
	"googleusercontent.com", "wp.com", "b-cdn.net",
}

// entityReplacer decodes only the handful of entities scraped titles usually carry.
// Anything else is left as written.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// normalizeURL turns a raw discovered string into an absolute http(s) URL.
// The scheme is lower-cased. It returns "" when the string cannot be an
// absolute URL; relative paths are not resolved.
func normalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	for _, scheme := range []string{"https://", "http://"} {
		if len(u) > len(scheme) && strings.EqualFold(u[:len(scheme)], scheme) {
			return scheme + u[len(scheme):]
		}
	}
	return ""
}

// urlPath returns the lower-cased path of u, tolerating unparseable input.
func urlPath(u string) string {
	if parsed, err := url.Parse(u); err == nil {
		return strings.ToLower(parsed.Path)
	}
	if i := strings.IndexAny(u, "?#"); i != -1 {
		u = u[:i]
	}
	return strings.ToLower(u)
}

// urlHost returns the lower-cased host of u, or "".
func urlHost(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// isVideoFile reports whether the URL path ends in a video file extension.
func isVideoFile(u string) bool {
	return videoExtensions[path.Ext(urlPath(u))]
}

// isImageURL reports whether u plausibly points at an image.
func isImageURL(u string) bool {
	p := urlPath(u)
	if imageExtensions[path.Ext(p)] {
		return true
	}
	if strings.Contains(p, "image") || strings.Contains(p, "img.") {
		return true
	}
	host := urlHost(u)
	if strings.HasPrefix(host, "img.") || strings.HasPrefix(host, "image.") || strings.HasPrefix(host, "images.") {
		return true
	}
	for _, suffix := range imageHostSuffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// classify derives the candidate kind from the URL alone, so the same URL is
// always typed the same way whichever pass found it.
func classify(u string) media.Kind {
	if isVideoFile(u) {
		return media.KindFile
	}
	return media.KindFrame
}

// candidateSet accumulates candidates in discovery order without duplicates.
type candidateSet struct {
	seen map[string]bool
	list []media.Candidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]bool)}
}

// add normalizes raw and appends it unless it is invalid or already present.
func (s *candidateSet) add(raw string) bool {
	u := normalizeURL(raw)
	if u == "" || s.seen[u] {
		return false
	}
	s.seen[u] = true
	s.list = append(s.list, media.Candidate{URL: u, Kind: classify(u)})
	return true
}
