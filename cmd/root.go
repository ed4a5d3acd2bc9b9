// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leech/internal/config"
	"leech/internal/httputil"
	"leech/internal/leech"
	"leech/internal/scrape"
	"leech/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig  string
	flagBackend string
	flagWaitFor int
	flagJSON    bool
	flagDebug   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leech",
	Short: "Find, review and import videos from web pages",
	Long: `Leech scrapes a page, finds the videos embedded in it and imports the ones
you pick into the video catalog. It also runs the admin operations service
and uploads files to the CDN.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/leech/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagBackend, "backend", "b", "", "Scrape backend: firecrawl | direct | browser")
	rootCmd.PersistentFlags().IntVar(&flagWaitFor, "wait-for", -1, "Milliseconds to let the page render before capture")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(bunnyCmd)
	rootCmd.AddCommand(videosCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("leech", Version)
	},
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if flagWaitFor >= 0 {
		cfg.WaitFor = flagWaitFor
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.SetOutput(os.Stderr)
	if cfg.Debug {
		log.SetPrefix("[leech] ")
	} else {
		log.SetFlags(0)
	}

	return nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		log.Printf(format, args...)
	}
}

// newScraper builds the configured backend, rate limited per host.
func newScraper() (scrape.Scraper, error) {
	var s scrape.Scraper
	switch strings.ToLower(cfg.Backend) {
	case "firecrawl":
		// waitFor can be a minute on its own
		client := httputil.NewClientWithTimeout(time.Duration(config.MaxWaitFor)*time.Millisecond + 60*time.Second)
		f, err := scrape.NewFirecrawl(client, cfg.Firecrawl.BaseURL, cfg.Firecrawl.APIKey)
		if err != nil {
			return nil, err
		}
		s = f
	case "browser":
		b, err := scrape.NewBrowser()
		if err != nil {
			return nil, err
		}
		s = b
	default:
		s = scrape.NewDirect(cfg.UserAgent)
	}
	debugf("scrape backend: %s (%.2g req/s per host)", s.Name(), cfg.RateLimit)
	return scrape.WithLimiter(s, scrape.NewDomainLimiter(cfg.RateLimit)), nil
}

// scrapeOptions are the per-scrape options from config.
func scrapeOptions() scrape.Options {
	opts := leech.DefaultScrapeOptions
	opts.OnlyMainContent = cfg.OnlyMainContent
	opts.WaitFor = cfg.WaitFor
	return opts
}

// openStore opens and migrates the video catalog.
func openStore(ctx context.Context) (*store.Store, error) {
	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		return nil, err
	}
	debugf("catalog: %s", cfg.Database.Driver)
	s, err := store.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
