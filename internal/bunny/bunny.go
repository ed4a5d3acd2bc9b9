// Package bunny talks to Bunny.net edge storage: uploading objects and
// checking that a storage zone's credentials work.
package bunny

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"leech/internal/httputil"
)

// DefaultHosts are the storage endpoints tried by TestHosts.
var DefaultHosts = []string{"storage.bunnycdn.com", "sg.storage.bunnycdn.com"}

// Folders inside the storage zone.
const (
	VideoFolder     = "videos"
	ThumbnailFolder = "thumbnails"
)

// maxTitleRunes bounds the title part of object names.
const maxTitleRunes = 50

// Client uploads to one storage zone.
type Client struct {
	http   *http.Client
	zone   string
	apiKey string
	host   string
}

// New returns a Client for zone. An empty host selects the main storage region.
func New(client *http.Client, zone, apiKey, host string) (*Client, error) {
	if zone == "" || apiKey == "" {
		return nil, fmt.Errorf("bunny storage zone and API key are required")
	}
	if host == "" {
		host = DefaultHosts[0]
	}
	if client == nil {
		client = httputil.NewClient()
	}
	return &Client{http: client, zone: zone, apiKey: apiKey, host: host}, nil
}

// Zone returns the storage zone name.
func (c *Client) Zone() string { return c.zone }

// storageURL is the API URL for objectPath on host.
func (c *Client) storageURL(host, objectPath string) string {
	segments := append([]string{c.zone}, strings.Split(objectPath, "/")...)
	return httputil.BuildURL("https://"+host, segments...)
}

// Upload streams body to objectPath (e.g. "videos/123_title.mp4").
// size may be -1 when unknown.
func (c *Client) Upload(ctx context.Context, objectPath string, body io.Reader, size int64) error {
	u := c.storageURL(c.host, objectPath)
	if err := httputil.ValidateURL(u); err != nil {
		return fmt.Errorf("invalid storage URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, body)
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httputil.StatusError{Code: resp.StatusCode, URL: objectPath, Body: httputil.Snippet(strings.TrimSpace(string(msg)), 200)}
	}
	return nil
}

// PublicURL is the pull-zone URL that serves objectPath.
func (c *Client) PublicURL(objectPath string) string {
	return fmt.Sprintf("https://%s.b-cdn.net/%s", c.zone, strings.TrimLeft(objectPath, "/"))
}

// ObjectName builds "{unixMillis}_{title}.{ext}" with the title reduced to
// [A-Za-z0-9_] and at most 50 characters.
func ObjectName(title, ext string, now time.Time) string {
	return fmt.Sprintf("%s.%s", objectStem(title, now), cleanExt(ext, "mp4"))
}

// ThumbnailName is ObjectName for the thumbnail uploaded alongside a video.
func ThumbnailName(title, ext string, now time.Time) string {
	return fmt.Sprintf("%s_thumb.%s", objectStem(title, now), cleanExt(ext, "jpg"))
}

func objectStem(title string, now time.Time) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), httputil.SanitizeObjectName(title, maxTitleRunes))
}

// ExtFromFilename returns the extension of an uploaded file's name without the dot.
func ExtFromFilename(name string) string {
	return strings.TrimPrefix(path.Ext(httputil.SanitizeFilename(name)), ".")
}

// cleanExt keeps an extension only if it is short and alphanumeric.
func cleanExt(ext, fallback string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || len(ext) > 8 {
		return fallback
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fallback
		}
	}
	return ext
}

// Preview masks an API key as "abcd...wxyz".
func Preview(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// HostResult is the outcome of probing one storage host.
type HostResult struct {
	Host    string `json:"host"`
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

// Report summarizes a credential check.
type Report struct {
	HasAPIKey       bool         `json:"hasApiKey"`
	HasStorageZone  bool         `json:"hasStorageZone"`
	StorageZoneName *string      `json:"storageZoneName"`
	APIKeyLength    int          `json:"apiKeyLength"`
	APIKeyPreview   *string      `json:"apiKeyPreview"`
	HostTests       []HostResult `json:"hostTests"`
	RecommendedHost *string      `json:"recommendedHost"`
}

// Check tries every host concurrently with zone and apiKey and reports which
// ones accept them. Missing credentials yield a report with a single N/A row.
func Check(ctx context.Context, client *http.Client, zone, apiKey string, hosts []string) Report {
	zone = strings.TrimSpace(zone)
	apiKey = strings.TrimSpace(apiKey)

	r := Report{
		HasAPIKey:      apiKey != "",
		HasStorageZone: zone != "",
		APIKeyLength:   len(apiKey),
		HostTests:      []HostResult{},
	}
	if zone != "" {
		r.StorageZoneName = &zone
	}
	if apiKey != "" {
		p := Preview(apiKey)
		r.APIKeyPreview = &p
	}

	if apiKey == "" || zone == "" {
		var missing []string
		if apiKey == "" {
			missing = append(missing, "API key")
		}
		if zone == "" {
			missing = append(missing, "storage zone")
		}
		r.HostTests = []HostResult{{Host: "N/A", Message: "Missing credentials: " + strings.Join(missing, ", ")}}
		return r
	}

	if client == nil {
		client = httputil.NewClient()
	}
	c := &Client{http: client, zone: zone, apiKey: apiKey}
	r.HostTests = c.TestHosts(ctx, hosts)
	for _, h := range r.HostTests {
		if h.Success {
			host := h.Host
			r.RecommendedHost = &host
			break
		}
	}
	return r
}

// TestHosts lists the zone root on each host in parallel. Results keep the
// order of hosts; one host failing never cancels the others.
func (c *Client) TestHosts(ctx context.Context, hosts []string) []HostResult {
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	results := make([]HostResult, len(hosts))

	var g errgroup.Group
	for i, host := range hosts {
		g.Go(func() error {
			results[i] = c.testHost(ctx, host)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Client) testHost(ctx context.Context, host string) HostResult {
	res := HostResult{Host: host}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httputil.BuildURL("https://"+host, c.zone)+"/", nil)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	res.Status = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		res.Success = true
		res.Message = "Connection successful!"
	case resp.StatusCode == http.StatusUnauthorized:
		res.Message = "Invalid API Key (Password)"
	case resp.StatusCode == http.StatusNotFound:
		res.Message = "Storage zone not found"
	default:
		res.Message = fmt.Sprintf("Error %d", resp.StatusCode)
	}
	return res
}
