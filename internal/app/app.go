package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/gift-heatmap/internal/config"
	"github.com/rickgao/gift-heatmap/internal/database"
	"github.com/rickgao/gift-heatmap/internal/delivery"
	"github.com/rickgao/gift-heatmap/internal/export"
	"github.com/rickgao/gift-heatmap/internal/imagecache"
	"github.com/rickgao/gift-heatmap/internal/images"
	"github.com/rickgao/gift-heatmap/internal/market"
	"github.com/rickgao/gift-heatmap/internal/render"
	"github.com/rickgao/gift-heatmap/internal/treemap"
)

// App holds the wired components.
type App struct {
	Config   *config.Config
	Pool     *pgxpool.Pool          // nil without a database
	Store    *market.PostgresSource // nil without a database
	Source   market.Source
	Registry *market.Registry
	Cache    *imagecache.SQLite // nil without a cache path
	Resolver *images.Resolver
	Fonts    *render.FontCache
	Pipeline *export.Pipeline
}

// New connects storage and builds every component. Nothing is started.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg}

	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.Pool = pool
		if err := database.EnsureSchema(ctx, pool, cfg.Market.Table); err != nil {
			a.Close()
			return nil, err
		}
		a.Store = market.NewPostgresSource(pool, cfg.Market.Table)
		a.Source = a.Store
	} else {
		a.Source = market.FileSource{Path: cfg.Market.File}
	}

	a.Registry = market.NewRegistry(market.Config{
		ReloadInterval: cfg.Market.ReloadInterval,
		LoadTimeout:    cfg.Market.LoadTimeout,
	}, a.Source, logger)

	tiers := []imagecache.Cache{imagecache.NewMemory(cfg.Images.MemoryEntries, cfg.Images.CacheTTL)}
	if cfg.Images.CachePath != "" {
		sc, err := imagecache.NewSQLite(cfg.Images.CachePath, cfg.Images.CacheTTL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open image cache: %w", err)
		}
		a.Cache = sc
		tiers = append(tiers, sc)
	}

	a.Resolver = images.NewResolver(images.Config{
		BaseURL:          cfg.Images.BaseURL,
		ProviderURL:      cfg.Images.ProviderURL,
		AlternateTimeout: cfg.Images.AlternateTimeout,
		BatchSize:        cfg.Images.BatchSize,
	}, imagecache.NewTiered(tiers...), images.NewHTTPFetcher(cfg.Images.FetchTimeout), logger)

	a.Fonts = render.NewFontCache()

	opts := []export.Option{export.WithLogger(logger), export.WithFonts(a.Fonts)}
	if cfg.Delivery.BaseURL != "" {
		client := delivery.NewClient(cfg.Delivery.BaseURL,
			delivery.WithTimeout(cfg.Delivery.Timeout),
			delivery.WithRetries(cfg.Delivery.MaxRetries, cfg.Delivery.RetryWait, cfg.Delivery.RetryMaxWait),
			delivery.WithLogger(logger),
		)
		opts = append(opts, export.WithSender(client))
	}
	a.Pipeline = export.NewPipeline(ExportConfig(cfg), a.Resolver, treemap.Squarify{},
		export.FileDownloader{Dir: cfg.Export.OutputDir}, opts...)

	return a, nil
}

// ExportConfig maps configuration onto pipeline settings.
func ExportConfig(cfg *config.Config) export.Config {
	return export.Config{
		Standalone: export.Tier{
			Width:  cfg.Export.StandaloneWidth,
			Height: cfg.Export.StandaloneHeight,
			Scale:  cfg.Export.StandaloneScale,
		},
		Embedded: export.Tier{
			Width:  cfg.Export.EmbeddedWidth,
			Height: cfg.Export.EmbeddedHeight,
			Scale:  cfg.Export.EmbeddedScale,
		},
		Preview: export.Tier{
			Width:  cfg.Render.PreviewWidth,
			Height: cfg.Render.PreviewHeight,
			Scale:  1,
		},
		RedrawPasses:    cfg.Export.RedrawPasses,
		RedrawDelay:     cfg.Export.RedrawDelay,
		Quality:         cfg.Export.Quality,
		FallbackQuality: cfg.Export.FallbackQuality,
		ImageTimeout:    cfg.Export.ImageTimeout,
		PreviewWait:     cfg.Render.PreviewWait,
		Watermark:       cfg.Render.Watermark,
	}
}

// Close releases storage handles.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	return errors.Join(errs...)
}
