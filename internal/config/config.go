package config

import "time"

// Config is the root configuration for the heatmap service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Market   MarketConfig   `yaml:"market"`
	Images   ImagesConfig   `yaml:"images"`
	Render   RenderConfig   `yaml:"render"`
	Export   ExportConfig   `yaml:"export"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Mode            string        `yaml:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds the optional PostgreSQL market source.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// Enabled reports whether a PostgreSQL source is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Postgres.Host != ""
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MarketConfig holds market registry settings.
type MarketConfig struct {
	File           string        `yaml:"file"`  // JSON records, used when no database is configured
	Table          string        `yaml:"table"` // PostgreSQL table
	ReloadInterval time.Duration `yaml:"reload_interval"`
	LoadTimeout    time.Duration `yaml:"load_timeout"`
}

// ImagesConfig holds image resolution and caching settings.
type ImagesConfig struct {
	BaseURL          string        `yaml:"base_url"`
	ProviderURL      string        `yaml:"provider_url"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	AlternateTimeout time.Duration `yaml:"alternate_timeout"`
	BatchSize        int           `yaml:"batch_size"`
	MemoryEntries    int           `yaml:"memory_entries"`
	CachePath        string        `yaml:"cache_path"` // empty disables the persistent tier
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	WarmInterval     time.Duration `yaml:"warm_interval"` // 0 disables the warmer
}

// RenderConfig holds drawing settings.
type RenderConfig struct {
	Watermark     string        `yaml:"watermark"`
	PreviewWidth  int           `yaml:"preview_width"`
	PreviewHeight int           `yaml:"preview_height"`
	PreviewWait   time.Duration `yaml:"preview_wait"` // image wait before a preview draws
}

// ExportConfig holds export pipeline settings.
type ExportConfig struct {
	OutputDir        string        `yaml:"output_dir"`
	StandaloneWidth  int           `yaml:"standalone_width"`
	StandaloneHeight int           `yaml:"standalone_height"`
	StandaloneScale  float64       `yaml:"standalone_scale"`
	EmbeddedWidth    int           `yaml:"embedded_width"`
	EmbeddedHeight   int           `yaml:"embedded_height"`
	EmbeddedScale    float64       `yaml:"embedded_scale"`
	Quality          int           `yaml:"quality"`
	FallbackQuality  int           `yaml:"fallback_quality"`
	RedrawPasses     int           `yaml:"redraw_passes"`
	RedrawDelay      time.Duration `yaml:"redraw_delay"`
	ImageTimeout     time.Duration `yaml:"image_timeout"`
}

// DeliveryConfig holds send-image client settings.
type DeliveryConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryWait    time.Duration `yaml:"retry_wait"`
	RetryMaxWait time.Duration `yaml:"retry_max_wait"`
}

// TelegramConfig holds bot settings for identity checks and the relay.
type TelegramConfig struct {
	BotToken       string        `yaml:"bot_token"`
	APIURL         string        `yaml:"api_url"`
	InitDataMaxAge time.Duration `yaml:"init_data_max_age"`
}
