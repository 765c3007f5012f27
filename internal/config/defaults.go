package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerPort         = 8080
	DefaultServerMode         = "release"
	DefaultReadTimeout        = 30 * time.Second
	DefaultWriteTimeout       = 2 * time.Minute
	DefaultShutdownTimeout    = 15 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 5
	DefaultMinConns           = 1
	DefaultMarketTable        = "gift_market"
	DefaultReloadInterval     = 5 * time.Minute
	DefaultLoadTimeout        = 30 * time.Second
	DefaultImageBaseURL       = "https://www.channelsseller.site"
	DefaultImageProviderURL   = "https://giftcharts.com/gifts"
	DefaultFetchTimeout       = 20 * time.Second
	DefaultAlternateTimeout   = 2 * time.Second
	DefaultImageBatchSize     = 10
	DefaultMemoryEntries      = 100
	DefaultCacheTTL           = 7 * 24 * time.Hour
	DefaultWatermark          = "@Novachartbot"
	DefaultPreviewWidth       = 1200
	DefaultPreviewHeight      = 675
	DefaultPreviewWait        = 1500 * time.Millisecond
	DefaultOutputDir          = "exports"
	DefaultStandaloneWidth    = 3840
	DefaultStandaloneHeight   = 2160
	DefaultStandaloneScale    = 2.0
	DefaultEmbeddedWidth      = 1920
	DefaultEmbeddedHeight     = 1080
	DefaultEmbeddedScale      = 1.25
	DefaultQuality            = 95
	DefaultFallbackQuality    = 80
	DefaultRedrawPasses       = 2
	DefaultRedrawDelay        = 150 * time.Millisecond
	DefaultImageTimeout       = 20 * time.Second
	DefaultDeliveryTimeout    = 30 * time.Second
	DefaultDeliveryMaxRetries = 3
	DefaultRetryWait          = 1 * time.Second
	DefaultRetryMaxWait       = 5 * time.Second
	DefaultTelegramURL        = "https://api.telegram.org"
	DefaultInitDataMaxAge     = time.Hour
)

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.Mode == "" {
		c.Server.Mode = DefaultServerMode
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Database defaults
	if c.Database.Enabled() {
		applyDBDefaults(&c.Database.Postgres)
	}

	// Market defaults
	if c.Market.Table == "" {
		c.Market.Table = DefaultMarketTable
	}
	if c.Market.ReloadInterval == 0 {
		c.Market.ReloadInterval = DefaultReloadInterval
	}
	if c.Market.LoadTimeout == 0 {
		c.Market.LoadTimeout = DefaultLoadTimeout
	}

	// Images defaults
	if c.Images.BaseURL == "" {
		c.Images.BaseURL = DefaultImageBaseURL
	}
	if c.Images.ProviderURL == "" {
		c.Images.ProviderURL = DefaultImageProviderURL
	}
	if c.Images.FetchTimeout == 0 {
		c.Images.FetchTimeout = DefaultFetchTimeout
	}
	if c.Images.AlternateTimeout == 0 {
		c.Images.AlternateTimeout = DefaultAlternateTimeout
	}
	if c.Images.BatchSize == 0 {
		c.Images.BatchSize = DefaultImageBatchSize
	}
	if c.Images.MemoryEntries == 0 {
		c.Images.MemoryEntries = DefaultMemoryEntries
	}
	if c.Images.CacheTTL == 0 {
		c.Images.CacheTTL = DefaultCacheTTL
	}

	// Render defaults
	if c.Render.Watermark == "" {
		c.Render.Watermark = DefaultWatermark
	}
	if c.Render.PreviewWidth == 0 {
		c.Render.PreviewWidth = DefaultPreviewWidth
	}
	if c.Render.PreviewHeight == 0 {
		c.Render.PreviewHeight = DefaultPreviewHeight
	}
	if c.Render.PreviewWait == 0 {
		c.Render.PreviewWait = DefaultPreviewWait
	}

	// Export defaults
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = DefaultOutputDir
	}
	if c.Export.StandaloneWidth == 0 {
		c.Export.StandaloneWidth = DefaultStandaloneWidth
	}
	if c.Export.StandaloneHeight == 0 {
		c.Export.StandaloneHeight = DefaultStandaloneHeight
	}
	if c.Export.StandaloneScale == 0 {
		c.Export.StandaloneScale = DefaultStandaloneScale
	}
	if c.Export.EmbeddedWidth == 0 {
		c.Export.EmbeddedWidth = DefaultEmbeddedWidth
	}
	if c.Export.EmbeddedHeight == 0 {
		c.Export.EmbeddedHeight = DefaultEmbeddedHeight
	}
	if c.Export.EmbeddedScale == 0 {
		c.Export.EmbeddedScale = DefaultEmbeddedScale
	}
	if c.Export.Quality == 0 {
		c.Export.Quality = DefaultQuality
	}
	if c.Export.FallbackQuality == 0 {
		c.Export.FallbackQuality = DefaultFallbackQuality
	}
	if c.Export.RedrawPasses == 0 {
		c.Export.RedrawPasses = DefaultRedrawPasses
	}
	if c.Export.RedrawDelay == 0 {
		c.Export.RedrawDelay = DefaultRedrawDelay
	}
	if c.Export.ImageTimeout == 0 {
		c.Export.ImageTimeout = DefaultImageTimeout
	}

	// Delivery defaults
	if c.Delivery.Timeout == 0 {
		c.Delivery.Timeout = DefaultDeliveryTimeout
	}
	if c.Delivery.MaxRetries == 0 {
		c.Delivery.MaxRetries = DefaultDeliveryMaxRetries
	}
	if c.Delivery.RetryWait == 0 {
		c.Delivery.RetryWait = DefaultRetryWait
	}
	if c.Delivery.RetryMaxWait == 0 {
		c.Delivery.RetryMaxWait = DefaultRetryMaxWait
	}

	// Telegram defaults
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = DefaultTelegramURL
	}
	if c.Telegram.InitDataMaxAge == 0 {
		c.Telegram.InitDataMaxAge = DefaultInitDataMaxAge
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
