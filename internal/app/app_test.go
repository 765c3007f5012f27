package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rickgao/gift-heatmap/internal/config"
	"github.com/rickgao/gift-heatmap/internal/export"
	"github.com/rickgao/gift-heatmap/internal/market"
)

func TestExportConfig(t *testing.T) {
	cfg := config.Default()
	got := ExportConfig(cfg)

	if got.Standalone != (export.Tier{Width: 3840, Height: 2160, Scale: 2}) {
		t.Errorf("Standalone = %+v", got.Standalone)
	}
	if got.Embedded != (export.Tier{Width: 1920, Height: 1080, Scale: 1.25}) {
		t.Errorf("Embedded = %+v", got.Embedded)
	}
	if got.RedrawPasses != 2 || got.RedrawDelay != 150*time.Millisecond {
		t.Errorf("redraw = %d x %v", got.RedrawPasses, got.RedrawDelay)
	}
	if got.PreviewWait != config.DefaultPreviewWait {
		t.Errorf("PreviewWait = %v, want %v", got.PreviewWait, config.DefaultPreviewWait)
	}
	if got.Watermark != config.DefaultWatermark {
		t.Errorf("Watermark = %q", got.Watermark)
	}
}

func TestNewWithFileSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gifts.json")
	if err := os.WriteFile(file, []byte(`[{"name":"Plush Pepe","priceTon":1}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Market.File = file
	cfg.Images.CachePath = filepath.Join(dir, "images.db")
	cfg.Export.OutputDir = filepath.Join(dir, "out")

	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Source.(market.FileSource); !ok {
		t.Errorf("Source = %T, want FileSource", a.Source)
	}
	if a.Pool != nil || a.Store != nil {
		t.Error("database components should be nil without a database")
	}
	if a.Cache == nil {
		t.Error("Cache should be opened when a cache path is set")
	}
	if err := a.Registry.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(a.Registry.Records()) != 1 {
		t.Errorf("records = %d, want 1", len(a.Registry.Records()))
	}
}
