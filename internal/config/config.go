// Package config handles TOML-based configuration loading and validation.
// Secrets may also come from LEECH_* environment variables so they stay out
// of the config file.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// MaxWaitFor is the longest a scrape backend may wait for client-side rendering.
const MaxWaitFor = 60000

// Config holds all application configuration.
type Config struct {
	Backend         string  `toml:"backend"`
	WaitFor         int     `toml:"wait_for"` // milliseconds
	OnlyMainContent bool    `toml:"only_main_content"`
	RateLimit       float64 `toml:"rate_limit"` // requests per second per domain
	UserAgent       string  `toml:"user_agent"`
	History         bool    `toml:"history"`
	Debug           bool    `toml:"debug"`

	Firecrawl Firecrawl `toml:"firecrawl"`
	Bunny     Bunny     `toml:"bunny"`
	Database  Database  `toml:"database"`
	Server    Server    `toml:"server"`
}

// Firecrawl configures the hosted scraping backend.
type Firecrawl struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Bunny configures the CDN storage zone used for uploads.
type Bunny struct {
	StorageZone string `toml:"storage_zone"`
	APIKey      string `toml:"api_key"`
	Host        string `toml:"host"`
}

// Database selects the video catalog backend.
type Database struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Server configures the privileged operations service.
type Server struct {
	Listen         string   `toml:"listen"`
	AdminToken     string   `toml:"admin_token"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend:   "direct",
		WaitFor:   5000,
		RateLimit: 1,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0",
		History:   true,
		Firecrawl: Firecrawl{
			BaseURL: "https://api.firecrawl.dev",
		},
		Bunny: Bunny{
			Host: "storage.bunnycdn.com",
		},
		Database: Database{
			Driver: "sqlite",
		},
		Server: Server{
			Listen:         "127.0.0.1:8787",
			AllowedOrigins: []string{"*"},
		},
	}
}

// envOverrides maps environment variables to the fields they set.
var envOverrides = []struct {
	name string
	set  func(*Config, string)
}{
	{"LEECH_FIRECRAWL_API_KEY", func(c *Config, v string) { c.Firecrawl.APIKey = v }},
	{"LEECH_BUNNY_STORAGE_ZONE", func(c *Config, v string) { c.Bunny.StorageZone = v }},
	{"LEECH_BUNNY_API_KEY", func(c *Config, v string) { c.Bunny.APIKey = v }},
	{"LEECH_ADMIN_TOKEN", func(c *Config, v string) { c.Server.AdminToken = v }},
	{"LEECH_DATABASE_DSN", func(c *Config, v string) { c.Database.DSN = v }},
}

func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "leech"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "leech"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path (or the XDG default when path is empty),
// merges it over the defaults and applies environment overrides.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.set(c, v)
		}
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validBackends := map[string]bool{
		"firecrawl": true, "direct": true, "browser": true,
	}
	if !validBackends[strings.ToLower(c.Backend)] {
		return fmt.Errorf("unsupported backend %q (valid: firecrawl, direct, browser)", c.Backend)
	}

	validDrivers := map[string]bool{
		"sqlite": true, "postgres": true,
	}
	if !validDrivers[strings.ToLower(c.Database.Driver)] {
		return fmt.Errorf("unsupported database driver %q (valid: sqlite, postgres)", c.Database.Driver)
	}
	if strings.EqualFold(c.Database.Driver, "postgres") && c.Database.DSN == "" {
		return fmt.Errorf("postgres driver requires database.dsn")
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive, got %v", c.RateLimit)
	}

	if c.WaitFor < 0 || c.WaitFor > MaxWaitFor {
		return fmt.Errorf("wait_for must be between 0 and %d ms, got %d", MaxWaitFor, c.WaitFor)
	}

	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Server.Listen, err)
	}

	if c.Firecrawl.BaseURL != "" && !strings.HasPrefix(c.Firecrawl.BaseURL, "https://") {
		return fmt.Errorf("firecrawl base_url must use https, got %q", c.Firecrawl.BaseURL)
	}

	return nil
}

func dataDir() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "leech"), nil
}

// HistoryPath returns the path to the scrape history file.
func HistoryPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.tsv"), nil
}

// DatabaseDSN returns the configured DSN, defaulting the sqlite catalog to
// a file under the XDG data directory.
func (c *Config) DatabaseDSN() (string, error) {
	if c.Database.DSN != "" {
		return c.Database.DSN, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "videos.db"), nil
}
