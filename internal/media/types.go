// Package media defines shared types for the leech application.
package media

import (
	"encoding/json"
	"time"
)

// Kind tells how a discovered video URL is played back.
type Kind int

const (
	// KindFrame is a URL that must be embedded in a third-party player.
	KindFrame Kind = iota
	// KindFile is a URL that points straight at a video byte stream.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindFrame:
		return "frame"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as "frame" or "file".
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Document is one scraped HTML page.
type Document struct {
	HTML      string // Pre-decoded UTF-8 markup, possibly malformed
	SourceURL string // Page the markup was fetched from
}

// Candidate is a URL found in a page that plausibly plays video.
type Candidate struct {
	URL  string `json:"url"`
	Kind Kind   `json:"kind"`
}

// Result is everything extracted from one page.
// Empty Thumbnail, Title and Description mean "not found".
type Result struct {
	Candidates  []Candidate
	Thumbnail   string
	Title       string
	Description string
}

// MarshalJSON writes absent text fields as null.
func (r Result) MarshalJSON() ([]byte, error) {
	candidates := r.Candidates
	if candidates == nil {
		candidates = []Candidate{}
	}
	return json.Marshal(struct {
		Candidates  []Candidate `json:"candidates"`
		Thumbnail   *string     `json:"thumbnail"`
		Title       *string     `json:"title"`
		Description *string     `json:"description"`
	}{candidates, nullable(r.Thumbnail), nullable(r.Title), nullable(r.Description)})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// VideoType is the playback mechanism stored with a catalog video.
type VideoType string

const (
	VideoIframe VideoType = "iframe" // Embedded third-party player
	VideoUpload VideoType = "upload" // Direct media URL
	VideoBunny  VideoType = "bunny"  // File uploaded to the CDN by a user
)

// VideoTypeFor maps a candidate kind to the catalog video type.
func VideoTypeFor(k Kind) VideoType {
	if k == KindFile {
		return VideoUpload
	}
	return VideoIframe
}

// Status is the moderation state of a catalog video.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Visibility controls who can see a catalog video.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Video is a row in the video catalog.
type Video struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	VideoURL     string     `json:"video_url"`
	VideoType    VideoType  `json:"video_type"`
	CategoryID   string     `json:"category_id,omitempty"`
	IsVIP        bool       `json:"is_vip"`
	IsVietsub    bool       `json:"is_vietsub"`
	IsUncensored bool       `json:"is_uncensored"`
	Status       Status     `json:"status"`
	Visibility   Visibility `json:"visibility"`
	UploadedBy   string     `json:"uploaded_by,omitempty"`
	SourceURL    string     `json:"source_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ScrapeEntry is one line of the scrape history.
type ScrapeEntry struct {
	ScrapedAt  time.Time `json:"scraped_at"`
	URL        string    `json:"url"`
	Candidates int       `json:"candidates"` // number of video candidates found
	Title      string    `json:"title,omitempty"`
}
