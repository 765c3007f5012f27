// Command heatmap renders gift heatmaps from the command line.
//
// Usage:
//
//	heatmap [flags] preview   write a preview PNG
//	heatmap [flags] export    run a standalone export into the output directory
//	heatmap [flags] import    upsert the records file into PostgreSQL
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rickgao/gift-heatmap/internal/app"
	"github.com/rickgao/gift-heatmap/internal/config"
	"github.com/rickgao/gift-heatmap/internal/export"
	"github.com/rickgao/gift-heatmap/internal/market"
	"github.com/rickgao/gift-heatmap/internal/model"
	"github.com/rickgao/gift-heatmap/internal/report"
	"github.com/rickgao/gift-heatmap/internal/transform"
	"github.com/rickgao/gift-heatmap/internal/version"
)

type options struct {
	configPath string
	records    string
	outDir     string
	xlsx       string
	chart      string
	gap        string
	currency   string
	source     string
	top        int
	width      int
	height     int
	debug      bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to config file (optional)")
	flag.StringVar(&o.records, "records", "", "JSON records file (overrides market.file)")
	flag.StringVar(&o.outDir, "out", "", "output directory (overrides export.output_dir)")
	flag.StringVar(&o.xlsx, "xlsx", "", "also write the chart cells to this xlsx file")
	flag.StringVar(&o.chart, "chart", "movement", "chart type: movement or capitalization")
	flag.StringVar(&o.gap, "gap", "24h", "time gap: 24h, 1w or 1m")
	flag.StringVar(&o.currency, "currency", "ton", "currency: ton or usd")
	flag.StringVar(&o.source, "source", "market", "data source: market, regular or all")
	flag.IntVar(&o.top, "top", 0, "keep the top N gifts (0 keeps all)")
	flag.IntVar(&o.width, "width", 0, "preview width")
	flag.IntVar(&o.height, "height", 0, "preview height")
	flag.BoolVar(&o.debug, "debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Debug("heatmap", version.Attrs()...)
	if err := run(ctx, flag.Arg(0), o, logger); err != nil {
		logger.Error("heatmap failed", "version", version.Version, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, o options, logger *slog.Logger) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "", "preview":
		return preview(ctx, a, o, logger)
	case "export":
		return runExport(ctx, a, o, logger)
	case "import":
		return runImport(ctx, a, o, logger)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func loadConfig(o options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.LoadWithDefaults(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.records != "" {
		cfg.Market.File = o.records
	}
	if o.outDir != "" {
		cfg.Export.OutputDir = o.outDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func selection(o options) (transform.SelectOptions, error) {
	sel := transform.SelectOptions{Top: o.top}
	var err error
	if sel.ChartType, err = model.ParseChartType(o.chart); err != nil {
		return sel, err
	}
	if sel.TimeGap, err = model.ParseTimeGap(o.gap); err != nil {
		return sel, err
	}
	if sel.Currency, err = model.ParseCurrency(o.currency); err != nil {
		return sel, err
	}
	if sel.Source, err = model.ParseDataSource(o.source); err != nil {
		return sel, err
	}
	return sel, nil
}

func buildRequest(ctx context.Context, a *app.App, o options) (export.Request, transform.SelectOptions, error) {
	sel, err := selection(o)
	if err != nil {
		return export.Request{}, sel, err
	}
	if err := a.Registry.Reload(ctx); err != nil {
		return export.Request{}, sel, fmt.Errorf("load records: %w", err)
	}
	return export.Request{
		Records: transform.Select(a.Registry.Records(), sel),
		Options: transform.OptionsFor(sel, a.Registry.Reference()),
	}, sel, nil
}

func preview(ctx context.Context, a *app.App, o options, logger *slog.Logger) error {
	req, sel, err := buildRequest(ctx, a, o)
	if err != nil {
		return err
	}
	data, err := a.Pipeline.Preview(ctx, req, o.width, o.height)
	if err != nil {
		return err
	}
	path, err := export.FileDownloader{Dir: a.Config.Export.OutputDir}.
		Save(fmt.Sprintf("preview-%d.png", time.Now().UnixMilli()), data)
	if err != nil {
		return err
	}
	logger.Info("preview written", "path", path, "bytes", len(data), "gifts", len(req.Records))
	return writeXLSX(req, sel, o, logger)
}

func runExport(ctx context.Context, a *app.App, o options, logger *slog.Logger) error {
	req, sel, err := buildRequest(ctx, a, o)
	if err != nil {
		return err
	}
	job, err := a.Pipeline.Export(ctx, req)
	if err != nil {
		return err
	}
	logger.Info("export written",
		"path", job.Artifact,
		"bytes", job.ArtifactSize,
		"size", fmt.Sprintf("%dx%d", job.TargetWidth, job.TargetHeight),
	)
	return writeXLSX(req, sel, o, logger)
}

func runImport(ctx context.Context, a *app.App, o options, logger *slog.Logger) error {
	if a.Store == nil {
		return errors.New("import requires database.postgres in the config")
	}
	if o.records == "" {
		return errors.New("import requires -records")
	}
	records, err := market.FileSource{Path: o.records}.LoadRecords(ctx)
	if err != nil {
		return err
	}
	n, err := a.Store.Upsert(ctx, records)
	if err != nil {
		return err
	}
	logger.Info("records imported", "file", o.records, "rows", n)
	return nil
}

func writeXLSX(req export.Request, sel transform.SelectOptions, o options, logger *slog.Logger) error {
	if o.xlsx == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(o.xlsx), 0o755); err != nil {
		return err
	}
	f, err := os.Create(o.xlsx)
	if err != nil {
		return err
	}
	items := transform.Transform(req.Records, req.Options)
	werr := report.Write(f, items, report.Options{
		ChartType:   sel.ChartType,
		TimeGap:     sel.TimeGap,
		Currency:    req.Options.Currency,
		GeneratedAt: time.Now(),
	})
	if err := errors.Join(werr, f.Close()); err != nil {
		return fmt.Errorf("write %s: %w", o.xlsx, err)
	}
	logger.Info("workbook written", "path", o.xlsx, "rows", len(items))
	return nil
}
