package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !c.Database.Enabled() && c.Market.File == "" {
		return errors.New("market.file or database.postgres.host is required")
	}
	if c.Database.Enabled() {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}
	if c.Market.ReloadInterval < 0 {
		return errors.New("market.reload_interval must be >= 0")
	}

	if c.Images.BatchSize < 1 {
		return errors.New("images.batch_size must be >= 1")
	}
	if c.Images.MemoryEntries < 1 {
		return errors.New("images.memory_entries must be >= 1")
	}

	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be between 1 and 100, got %d", c.Export.Quality)
	}
	if c.Export.FallbackQuality < 1 || c.Export.FallbackQuality > 100 {
		return fmt.Errorf("export.fallback_quality must be between 1 and 100, got %d", c.Export.FallbackQuality)
	}
	if c.Export.RedrawPasses < 2 {
		return errors.New("export.redraw_passes must be >= 2")
	}
	if c.Export.StandaloneWidth < 1 || c.Export.StandaloneHeight < 1 {
		return errors.New("export.standalone_width and export.standalone_height must be >= 1")
	}
	if c.Export.EmbeddedWidth < 1 || c.Export.EmbeddedHeight < 1 {
		return errors.New("export.embedded_width and export.embedded_height must be >= 1")
	}

	if c.Delivery.MaxRetries < 0 {
		return errors.New("delivery.max_retries must be >= 0")
	}
	if c.Delivery.BaseURL != "" && c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required when delivery.base_url is set")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
