package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Backend != "direct" {
		t.Errorf("default backend = %q, want direct", cfg.Backend)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Bunny.Host != "storage.bunnycdn.com" {
		t.Errorf("default bunny host = %q", cfg.Bunny.Host)
	}
	if !cfg.History {
		t.Error("default history should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid backend", func(c *Config) { c.Backend = "curl" }, true},
		{"valid firecrawl", func(c *Config) { c.Backend = "Firecrawl" }, false},
		{"valid browser", func(c *Config) { c.Backend = "browser" }, false},
		{"invalid driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"postgres with dsn", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "postgres://u:p@localhost/videos"
		}, false},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, true},
		{"negative wait", func(c *Config) { c.WaitFor = -1 }, true},
		{"wait too long", func(c *Config) { c.WaitFor = 60001 }, true},
		{"max wait", func(c *Config) { c.WaitFor = 60000 }, false},
		{"bad listen", func(c *Config) { c.Server.Listen = "8787" }, true},
		{"plain http firecrawl", func(c *Config) { c.Firecrawl.BaseURL = "http://api.firecrawl.dev" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	content := `
backend = "browser"
wait_for = 3000
rate_limit = 0.5
history = false

[bunny]
storage_zone = "phimzone"

[server]
listen = ":9000"
allowed_origins = ["https://admin.example.com"]
`
	leechDir := filepath.Join(tmpDir, "leech")
	if err := os.MkdirAll(leechDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(leechDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend != "browser" {
		t.Errorf("backend = %q, want browser", cfg.Backend)
	}
	if cfg.WaitFor != 3000 {
		t.Errorf("wait_for = %d, want 3000", cfg.WaitFor)
	}
	if cfg.RateLimit != 0.5 {
		t.Errorf("rate_limit = %v, want 0.5", cfg.RateLimit)
	}
	if cfg.History {
		t.Error("history should be false")
	}
	if cfg.Bunny.StorageZone != "phimzone" {
		t.Errorf("storage_zone = %q, want phimzone", cfg.Bunny.StorageZone)
	}
	if cfg.Bunny.Host != "storage.bunnycdn.com" {
		t.Errorf("unset bunny host should keep default, got %q", cfg.Bunny.Host)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("listen = %q, want :9000", cfg.Server.Listen)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://admin.example.com" {
		t.Errorf("allowed_origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte(`backend = "firecrawl"`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}
	if cfg.Backend != "firecrawl" {
		t.Errorf("backend = %q, want firecrawl", cfg.Backend)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() should fail for a missing explicit path")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Backend != "direct" {
		t.Errorf("missing file should return defaults, got backend = %q", cfg.Backend)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte(`rate_limit = -2`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject a negative rate_limit")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LEECH_BUNNY_API_KEY", "secret-key")
	t.Setenv("LEECH_ADMIN_TOKEN", "admin-token")
	t.Setenv("LEECH_FIRECRAWL_API_KEY", "fc-123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Bunny.APIKey != "secret-key" {
		t.Errorf("bunny api key = %q", cfg.Bunny.APIKey)
	}
	if cfg.Server.AdminToken != "admin-token" {
		t.Errorf("admin token = %q", cfg.Server.AdminToken)
	}
	if cfg.Firecrawl.APIKey != "fc-123" {
		t.Errorf("firecrawl key = %q", cfg.Firecrawl.APIKey)
	}
}

func TestDataPaths(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	hp, err := HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dataHome, "leech", "history.tsv"); hp != want {
		t.Errorf("HistoryPath() = %q, want %q", hp, want)
	}

	cfg := Default()
	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dataHome, "leech", "videos.db"); dsn != want {
		t.Errorf("DatabaseDSN() = %q, want %q", dsn, want)
	}

	cfg.Database.DSN = "/tmp/other.db"
	if dsn, _ := cfg.DatabaseDSN(); dsn != "/tmp/other.db" {
		t.Errorf("explicit DSN ignored, got %q", dsn)
	}
}
