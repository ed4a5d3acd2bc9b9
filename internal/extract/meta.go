package extract

import (
	"regexp"
	"strings"
)

// metaPatterns returns two patterns for a <meta> tag whose key attribute is
// one of keys: one with the key before content, one with it after.
// Only the second may end the key at '>'; the first must stay inside the tag.
func metaPatterns(keys ...string) []*regexp.Regexp {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	key := `\s(?:property|name)\s*=\s*["']?(?:` + strings.Join(quoted, "|") + `)`
	content := `\scontent\s*=\s*(?:"([^"]*)"|'([^']*)')`
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]*?` + key + `["'\s/][^>]*?` + content),
		regexp.MustCompile(`(?i)<meta[^>]*?` + content + `[^>]*?` + key + `["'\s/>]`),
	}
}

var (
	ogTitlePatterns       = metaPatterns("og:title")
	ogDescriptionPatterns = metaPatterns("og:description")
	descriptionPatterns   = metaPatterns("description")

	titleTagPattern = regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`)
	h1Pattern       = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
)

// DiscoverTitle returns the page title, or "".
func DiscoverTitle(html string) string {
	if t := metaContent(html, ogTitlePatterns); t != "" {
		return t
	}
	if m := titleTagPattern.FindStringSubmatch(html); m != nil {
		if t := cleanText(m[1]); t != "" {
			return t
		}
	}
	if m := h1Pattern.FindStringSubmatch(html); m != nil {
		return cleanText(tagPattern.ReplaceAllString(m[1], ""))
	}
	return ""
}

// DiscoverDescription returns the page description, or "".
func DiscoverDescription(html string) string {
	if d := metaContent(html, ogDescriptionPatterns); d != "" {
		return d
	}
	return metaContent(html, descriptionPatterns)
}

// metaContent returns the first non-empty content matched by patterns.
func metaContent(html string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			v := m[1]
			if v == "" {
				v = m[2]
			}
			if t := cleanText(v); t != "" {
				return t
			}
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.TrimSpace(decodeEntities(s))
}
