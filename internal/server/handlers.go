package server

import (
	"errors"
	"log"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"leech/internal/bunny"
	"leech/internal/config"
	"leech/internal/extract"
	"leech/internal/httputil"
	"leech/internal/leech"
	"leech/internal/media"
	"leech/internal/scrape"
)

var (
	videoTypes = []string{"video/mp4", "video/webm", "video/quicktime"}
	imageTypes = []string{"image/jpeg", "image/png", "image/webp"}
)

// maxFormOverhead covers the non-video parts of an upload form.
const maxFormOverhead = 20 << 20

type scrapeRequest struct {
	URL     string          `json:"url"`
	Options *scrape.Options `json:"options"`
}

type extractRequest struct {
	HTML    string          `json:"html"`
	URL     string          `json:"url"`
	Options *scrape.Options `json:"options"`
}

type credentialsRequest struct {
	StorageZone string `json:"storageZone"`
	APIKey      string `json:"apiKey"`
}

// normalizePageURL trims raw and assumes https when no scheme is given.
func normalizePageURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", errors.New("URL is required")
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	if err := httputil.ValidatePageURL(u); err != nil {
		return "", err
	}
	return u, nil
}

// scrapeOptions overlays the request's options on the configured defaults.
func (s *Server) scrapeOptions(req *scrape.Options) (scrape.Options, error) {
	opts := s.opts.ScrapeDefaults
	if req != nil {
		if len(req.Formats) > 0 {
			opts.Formats = req.Formats
		}
		if req.OnlyMainContent {
			opts.OnlyMainContent = true
		}
		if req.WaitFor != 0 {
			opts.WaitFor = req.WaitFor
		}
	}
	if opts.WaitFor < 0 || opts.WaitFor > config.MaxWaitFor {
		return opts, errors.New("waitFor out of range")
	}
	return opts, nil
}

func (s *Server) handleScrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	pageURL, err := normalizePageURL(req.URL)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := s.scrapeOptions(req.Options)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("[server] scraping %s via %s", pageURL, s.opts.Scraper.Name())
	page, err := s.opts.Scraper.Scrape(c.Request.Context(), pageURL, opts)
	if err != nil {
		log.Printf("[server] scrape %s failed: %v", pageURL, err)
		fail(c, scrapeStatus(err), err.Error())
		return
	}

	links := page.Links
	if links == nil {
		links = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"html": page.HTML, "links": links},
		"html":    page.HTML,
	})
}

func (s *Server) handleExtract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*extract.MaxHTMLBytes)

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		res     media.Result
		pageURL string
	)
	switch {
	case req.HTML != "":
		pageURL = strings.TrimSpace(req.URL)
		res = extract.Extract(req.HTML)
	case req.URL != "":
		u, err := normalizePageURL(req.URL)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		opts, err := s.scrapeOptions(req.Options)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		_, res, err = leech.Fetch(c.Request.Context(), s.opts.Scraper, u, opts)
		if err != nil {
			log.Printf("[server] scrape %s failed: %v", u, err)
			fail(c, scrapeStatus(err), err.Error())
			return
		}
		pageURL = u
	default:
		fail(c, http.StatusBadRequest, "html or url is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  res,
		"items":   leech.Review(res, pageURL),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+maxFormOverhead)

	video, err := c.FormFile("video")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusBadRequest, "Video file too large. Maximum size is 500MB")
			return
		}
		fail(c, http.StatusBadRequest, "Video file and title are required")
		return
	}
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		fail(c, http.StatusBadRequest, "Video file and title are required")
		return
	}
	if !slices.Contains(videoTypes, video.Header.Get("Content-Type")) {
		fail(c, http.StatusBadRequest, "Invalid video format. Allowed: MP4, WebM, MOV")
		return
	}
	if video.Size > MaxUploadBytes {
		fail(c, http.StatusBadRequest, "Video file too large. Maximum size is 500MB")
		return
	}
	if s.opts.Storage == nil || s.opts.Catalog == nil {
		log.Printf("[server] upload rejected: CDN storage or catalog not configured")
		fail(c, http.StatusInternalServerError, "Server configuration error")
		return
	}

	ctx := c.Request.Context()
	now := s.now()

	videoPath := path.Join(bunny.VideoFolder, bunny.ObjectName(title, bunny.ExtFromFilename(video.Filename), now))
	f, err := video.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "Could not read video file")
		return
	}
	defer f.Close()

	log.Printf("[server] uploading video %s", videoPath)
	if err := s.opts.Storage.Upload(ctx, videoPath, f, video.Size); err != nil {
		log.Printf("[server] video upload failed: %v", err)
		fail(c, http.StatusInternalServerError, "Failed to upload video to storage")
		return
	}

	v := &media.Video{
		Title:       title,
		Description: strings.TrimSpace(c.PostForm("description")),
		VideoURL:    s.opts.Storage.PublicURL(videoPath),
		VideoType:   media.VideoBunny,
		CategoryID:  strings.TrimSpace(c.PostForm("category_id")),
		Status:      media.StatusPending,
		Visibility:  media.VisibilityPublic,
		UploadedBy:  strings.TrimSpace(c.PostForm("uploaded_by")),
		CreatedAt:   now.UTC(),
	}
	v.ThumbnailURL = s.uploadThumbnail(c, title, now)

	if err := s.opts.Catalog.Insert(ctx, v); err != nil {
		log.Printf("[server] saving video failed: %v", err)
		fail(c, http.StatusInternalServerError, "Failed to save video information")
		return
	}

	log.Printf("[server] video uploaded: %s", v.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Video uploaded successfully. Waiting for admin approval.",
		"video":   v,
	})
}

// uploadThumbnail stores the optional thumbnail part and returns its public
// URL, or "" when there is none or it could not be stored. Its name carries
// the same timestamp as the video's.
func (s *Server) uploadThumbnail(c *gin.Context, title string, now time.Time) string {
	thumb, err := c.FormFile("thumbnail")
	if err != nil || !slices.Contains(imageTypes, thumb.Header.Get("Content-Type")) {
		return ""
	}
	f, err := thumb.Open()
	if err != nil {
		return ""
	}
	defer f.Close()

	thumbPath := path.Join(bunny.ThumbnailFolder, bunny.ThumbnailName(title, bunny.ExtFromFilename(thumb.Filename), now))
	if err := s.opts.Storage.Upload(c.Request.Context(), thumbPath, f, thumb.Size); err != nil {
		log.Printf("[server] thumbnail upload failed: %v", err)
		return ""
	}
	return s.opts.Storage.PublicURL(thumbPath)
}

func (s *Server) handleTestBunny(c *gin.Context) {
	r := bunny.Check(c.Request.Context(), s.opts.HTTPClient, s.opts.BunnyZone, s.opts.BunnyAPIKey, s.opts.BunnyHosts)
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleSaveBunnyCredentials(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	zone := strings.TrimSpace(req.StorageZone)
	key := strings.TrimSpace(req.APIKey)
	if zone == "" || key == "" {
		fail(c, http.StatusBadRequest, "Missing storageZone or apiKey")
		return
	}

	r := bunny.Check(c.Request.Context(), s.opts.HTTPClient, zone, key, s.opts.BunnyHosts)
	c.JSON(http.StatusOK, struct {
		bunny.Report
		Note string `json:"note"`
	}{r, "API key is not stored. If tests pass, update the server configuration to use the same values."})
}
