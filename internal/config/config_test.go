package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  port: 9000
market:
  file: testdata/gifts.json
images:
  base_url: https://img.example.com
  batch_size: 4
export:
  output_dir: /tmp/heatmaps
  redraw_delay: 250ms
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Market.File != "testdata/gifts.json" {
		t.Errorf("Market.File = %q, want %q", cfg.Market.File, "testdata/gifts.json")
	}
	if cfg.Images.BaseURL != "https://img.example.com" {
		t.Errorf("Images.BaseURL = %q, want %q", cfg.Images.BaseURL, "https://img.example.com")
	}
	if cfg.Export.RedrawDelay != 250*time.Millisecond {
		t.Errorf("Export.RedrawDelay = %v, want %v", cfg.Export.RedrawDelay, 250*time.Millisecond)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123:abc")
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
database:
  postgres:
    host: localhost
    name: gifts
    user: heatmap
    password: ${TEST_DB_PASSWORD}
telegram:
  bot_token: ${TEST_BOT_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("Telegram.BotToken = %q, want %q", cfg.Telegram.BotToken, "123:abc")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
database:
  postgres:
    host: localhost
    name: gifts
    user: heatmap
    password: pass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Market.Table != DefaultMarketTable {
		t.Errorf("Market.Table = %q, want default %q", cfg.Market.Table, DefaultMarketTable)
	}
	if cfg.Images.CacheTTL != DefaultCacheTTL {
		t.Errorf("Images.CacheTTL = %v, want default %v", cfg.Images.CacheTTL, DefaultCacheTTL)
	}
	if cfg.Export.StandaloneWidth != DefaultStandaloneWidth || cfg.Export.StandaloneHeight != DefaultStandaloneHeight {
		t.Errorf("Export standalone = %dx%d, want %dx%d",
			cfg.Export.StandaloneWidth, cfg.Export.StandaloneHeight, DefaultStandaloneWidth, DefaultStandaloneHeight)
	}
	if cfg.Export.RedrawPasses != DefaultRedrawPasses {
		t.Errorf("Export.RedrawPasses = %d, want default %d", cfg.Export.RedrawPasses, DefaultRedrawPasses)
	}
	if cfg.Delivery.MaxRetries != DefaultDeliveryMaxRetries {
		t.Errorf("Delivery.MaxRetries = %d, want default %d", cfg.Delivery.MaxRetries, DefaultDeliveryMaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Market.File = "gifts.json"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "no market source",
			mutate:  func(c *Config) { c.Market.File = "" },
			wantErr: "market.file or database.postgres.host is required",
		},
		{
			name: "missing postgres password",
			mutate: func(c *Config) {
				c.Database.Postgres = DBConfig{Host: "localhost", Name: "db", User: "user", MaxConns: 5}
			},
			wantErr: "database.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.Postgres = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Images.BatchSize = 0 },
			wantErr: "images.batch_size must be >= 1",
		},
		{
			name:    "quality out of range",
			mutate:  func(c *Config) { c.Export.Quality = 101 },
			wantErr: "export.quality must be between 1 and 100, got 101",
		},
		{
			name:    "single redraw pass",
			mutate:  func(c *Config) { c.Export.RedrawPasses = 1 },
			wantErr: "export.redraw_passes must be >= 2",
		},
		{
			name:    "delivery without bot token",
			mutate:  func(c *Config) { c.Delivery.BaseURL = "https://bot.example.com" },
			wantErr: "telegram.bot_token is required when delivery.base_url is set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
