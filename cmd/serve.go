package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"leech/internal/bunny"
	"leech/internal/httputil"
	"leech/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin operations service",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	if cfg.Server.AdminToken == "" {
		return fmt.Errorf("server.admin_token (or LEECH_ADMIN_TOKEN) must be set")
	}
	addr := cfg.Server.Listen
	if flagListen != "" {
		addr = flagListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newScraper()
	if err != nil {
		return fmt.Errorf("creating scraper: %w", err)
	}
	defer s.Close()

	catalog, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer catalog.Close()

	opts := server.Options{
		Scraper:        s,
		Catalog:        catalog,
		AdminToken:     cfg.Server.AdminToken,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ScrapeDefaults: scrapeOptions(),
		BunnyZone:      cfg.Bunny.StorageZone,
		BunnyAPIKey:    cfg.Bunny.APIKey,
		BunnyHosts:     bunny.DefaultHosts,
		HTTPClient:     httputil.NewClient(),
	}
	if storage, err := newBunny(); err == nil {
		opts.Storage = storage
	} else {
		log.Printf("uploads disabled: %v", err)
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	return srv.Run(ctx, addr)
}
