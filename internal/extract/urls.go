package extract

import (
	"regexp"

	"leech/internal/media"
)

// absoluteURLPattern matches http(s) and scheme-relative URLs in free text.
// Go regexps are RE2, so every scan is linear in the input length.
var absoluteURLPattern = regexp.MustCompile(`(?i)(?:https?:)?//[^\s"'<>()\\` + "`" + `]+`)

var (
	platformEmbedPattern = regexp.MustCompile(`(?i)(?:https?:)?//(?:www\.)?(?:youtube\.com/embed/|youtube-nocookie\.com/embed/|player\.vimeo\.com/video/|dailymotion\.com/embed/|geo\.dailymotion\.com/player|ok\.ru/videoembed/|vk\.com/video_ext\.php|streamable\.com/[oe]/|facebook\.com/plugins/video\.php|tiktok\.com/embed/|player\.twitch\.tv/|player\.bilibili\.com/|xvideos\.com/embedframe/|xnxx\.com/embedframe/|pornhub\.com/embed/)[^\s"'<>()\\]+`)

	streamCDNPattern = regexp.MustCompile(`(?i)(?:https?:)?//(?:iframe\.mediadelivery\.net|video\.bunnycdn\.com|[a-z0-9-]+\.b-cdn\.net|video-[a-z0-9-]+\.xx\.fbcdn\.net|[a-z0-9-]+\.googlevideo\.com|[a-z0-9-]+\.cloudfront\.net|[a-z0-9-]+\.akamaihd\.net|[a-z0-9-]+\.jwplatform\.com|cdn\.jwplayer\.com)/[^\s"'<>()\\]+`)

	m3u8LiteralPattern = regexp.MustCompile(`["']([^"'\s<>]*\.m3u8[^"'\s<>]*)["']`)

	m3u8KeyedPattern = regexp.MustCompile(`(?i)(?:source|file|src|hls|url|stream)["']?\s*[:=]\s*["']([^"'\s<>]+\.m3u8[^"'\s<>]*)["']`)

	mp4LiteralPattern = regexp.MustCompile(`(?i)["']([^"'\s<>]*\.(?:mp4|webm)[^"'\s<>]*)["']`)

	jsonVideoKeyPattern = regexp.MustCompile(`(?i)"(?:video_url|videoUrl|src|file|source|stream|hls|mp4)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// frameHostHints mark iframe sources that are plausibly video players.
var frameHostHints = []string{
	"youtube.com", "youtu.be", "youtube-nocookie.com", "vimeo.com", "dailymotion.com",
	"ok.ru", "vk.com", "streamable.com", "twitch.tv", "bilibili.com", "tiktok.com",
	"facebook.com/plugins/video", "mediadelivery.net", "bunnycdn.com", "b-cdn.net",
	"googlevideo.com", "jwplayer.com", "jwplatform.com",
	"embed", "/video/", "player.", "stream",
}

// segmentHints are path segments that mark a generic player or stream URL.
var segmentHints = []string{"/stream/", "/player/", "/video/", "/embed/"}

func isVideoHost(u string) bool {
	return isVideoFile(u) || containsAny(u, frameHostHints...)
}

func hasPlayerSegment(u string) bool {
	return containsAny(urlPath(u)+"/", segmentHints...)
}

func notImageReference(u string) bool {
	return !containsAny(u, "poster", "thumb", "preview")
}

// Substrings every match of the text rules must contain.
var (
	m3u8Gate = []string{".m3u8"}
	mp4Gate  = []string{".mp4", ".webm"}
	urlGate  = []string{"//"}
	jsonGate = []string{`"video_url"`, `"videourl"`, `"src"`, `"file"`, `"source"`, `"stream"`, `"hls"`, `"mp4"`}
)

// urlRules is the ordered discovery table. Later rows only add URLs the
// earlier rows did not already produce.
var urlRules = []rule{
	// Structural tags.
	{name: "iframe", scan: scanAttr, selector: "iframe", attrs: []string{"src", "data-src"}, keep: isVideoHost},

	// Media tags: being inside <video>/<source> is evidence enough.
	{name: "media", scan: scanAttr, selector: "video, source", attrs: []string{"src"}},

	// Data attributes used by lazy players.
	{
		name:     "data-attr",
		scan:     scanAttr,
		selector: "[data-src], [data-video], [data-stream], [data-file], [data-url], [data-source]",
		attrs:    []string{"data-src", "data-video", "data-stream", "data-file", "data-url", "data-source"},
		keep:     isVideoFile,
	},

	// Inline script literals.
	{name: "m3u8-literal", scan: scanText, pattern: m3u8LiteralPattern, gate: m3u8Gate},
	{name: "m3u8-keyed", scan: scanText, pattern: m3u8KeyedPattern, gate: m3u8Gate},
	{name: "mp4-literal", scan: scanText, pattern: mp4LiteralPattern, gate: mp4Gate, keep: notImageReference},

	// Known platform and CDN hosts.
	{name: "platform-embed", scan: scanText, pattern: platformEmbedPattern, gate: urlGate},
	{name: "video-file", scan: scanText, pattern: absoluteURLPattern, gate: urlGate, keep: isVideoFile},
	{name: "stream-cdn", scan: scanText, pattern: streamCDNPattern, gate: urlGate},
	{name: "player-segment", scan: scanText, pattern: absoluteURLPattern, gate: urlGate, keep: hasPlayerSegment},

	// Structured data in scripts.
	{name: "json-key", scan: scanJSON, pattern: jsonVideoKeyPattern, gate: jsonGate},
}

// DiscoverURLs returns every video candidate in html, in discovery order.
func DiscoverURLs(html string) []media.Candidate {
	return discoverURLs(newPage(html))
}

func discoverURLs(p *page) []media.Candidate {
	set := newCandidateSet()
	for _, r := range urlRules {
		for _, v := range r.values(p) {
			set.add(v)
		}
	}
	return set.list
}
