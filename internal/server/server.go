// Package server exposes the privileged admin operations over HTTP: scraping
// through the configured backend, running the extractor, uploading videos to
// the CDN and checking CDN credentials.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"leech/internal/media"
	"leech/internal/scrape"
)

// MaxUploadBytes is the largest video the upload endpoint accepts.
const MaxUploadBytes = 500 << 20

// Catalog records uploaded videos.
type Catalog interface {
	Insert(ctx context.Context, v *media.Video) error
}

// Storage is the CDN the upload endpoint writes to.
type Storage interface {
	Upload(ctx context.Context, objectPath string, body io.Reader, size int64) error
	PublicURL(objectPath string) string
}

// Options wires a Server. Scraper and AdminToken are required; a nil Storage
// or Catalog disables uploads.
type Options struct {
	Scraper        scrape.Scraper
	Catalog        Catalog
	Storage        Storage
	AdminToken     string
	AllowedOrigins []string
	ScrapeDefaults scrape.Options

	BunnyZone   string
	BunnyAPIKey string
	BunnyHosts  []string     // hosts tried by the credential checks
	HTTPClient  *http.Client // used for credential checks
}

// Server is the admin operations service.
type Server struct {
	opts Options
	now  func() time.Time
}

// New validates opts and returns a Server.
func New(opts Options) (*Server, error) {
	if opts.Scraper == nil {
		return nil, fmt.Errorf("server needs a scraper")
	}
	if opts.AdminToken == "" {
		return nil, fmt.Errorf("server needs an admin token")
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{opts: opts, now: time.Now}, nil
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), s.cors)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": s.opts.Scraper.Name()})
	})

	fn := router.Group("/functions/v1", s.requireAdmin)
	fn.POST("/firecrawl-scrape", s.handleScrape)
	fn.POST("/extract", s.handleExtract)
	fn.POST("/upload-video", s.handleUpload)
	fn.POST("/test-bunny", s.handleTestBunny)
	fn.POST("/save-bunny-credentials", s.handleSaveBunnyCredentials)

	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

const allowHeaders = "authorization, x-client-info, apikey, content-type"

func (s *Server) cors(c *gin.Context) {
	origin := c.GetHeader("Origin")
	switch {
	case slices.Contains(s.opts.AllowedOrigins, "*"):
		c.Header("Access-Control-Allow-Origin", "*")
	case origin != "" && slices.Contains(s.opts.AllowedOrigins, origin):
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
	}
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", allowHeaders)

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		fail(c, http.StatusUnauthorized, "Missing authorization header")
		return
	}
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AdminToken)) != 1 {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	c.Next()
}

// fail aborts with the {success:false,error} envelope.
func fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": msg})
}

// scrapeStatus maps a backend error to the status the caller sees.
func scrapeStatus(err error) int {
	if errors.Is(err, scrape.ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}
