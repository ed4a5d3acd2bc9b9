package extract

import (
	"fmt"
	"regexp"
)

// platform maps a video ID found in the page to the platform's own thumbnail.
type platform struct {
	name     string
	id       *regexp.Regexp // group 1 is the video ID
	template string         // fmt verb %s receives the ID
}

// platforms is checked in order; the first ID found wins.
var platforms = []platform{
	{
		name:     "youtube",
		id:       regexp.MustCompile(`(?i:youtube(?:-nocookie)?\.com/(?:embed/|watch\?v=|v/|shorts/)|youtu\.be/)([A-Za-z0-9_-]{11})`),
		template: "https://img.youtube.com/vi/%s/hqdefault.jpg",
	},
	{
		name:     "vimeo",
		id:       regexp.MustCompile(`(?i:(?:player\.)?vimeo\.com/(?:video/)?)([0-9]{6,12})`),
		template: "https://vumbnail.com/%s.jpg",
	},
	{
		name:     "dailymotion",
		id:       regexp.MustCompile(`(?i:dailymotion\.com/(?:embed/)?video/|dai\.ly/)([A-Za-z0-9]{5,12})`),
		template: "https://www.dailymotion.com/thumbnail/video/%s",
	},
}

// platformThumbnail synthesizes a thumbnail URL from the first recognizable
// platform video ID in the page. No request is made.
func platformThumbnail(p *page) string {
	for _, pl := range platforms {
		for _, id := range p.find(pl.id) {
			if id != "" {
				return fmt.Sprintf(pl.template, id)
			}
		}
	}
	return ""
}
