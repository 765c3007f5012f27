package warmer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/gift-heatmap/internal/images"
	"github.com/rickgao/gift-heatmap/internal/model"
)

// RecordSource provides the records whose images should stay warm.
type RecordSource interface {
	Records() []model.GiftMarketRecord
}

// Preloader resolves a set of images.
type Preloader interface {
	PreloadMany(ctx context.Context, reqs []images.Request, timeout time.Duration) images.Summary
}

// Purger removes expired cache entries.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Config holds warmer configuration.
type Config struct {
	Interval time.Duration // Warm interval (default: 5m)
	Timeout  time.Duration // Per-image timeout (default: 20s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Minute,
		Timeout:  images.ExportTimeout,
	}
}

// Warmer periodically preloads market images.
type Warmer struct {
	cfg       Config
	records   RecordSource
	preloader Preloader
	purger    Purger
	updates   <-chan struct{}
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithPurger purges expired cache rows every cycle.
func WithPurger(p Purger) Option {
	return func(w *Warmer) { w.purger = p }
}

// WithUpdates triggers an extra cycle whenever updates fires.
func WithUpdates(ch <-chan struct{}) Option {
	return func(w *Warmer) { w.updates = ch }
}

// New creates a new Warmer.
func New(cfg Config, records RecordSource, preloader Preloader, logger *slog.Logger, opts ...Option) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	w := &Warmer{
		cfg:       cfg,
		records:   records,
		preloader: preloader,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the warm loop.
func (w *Warmer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("image warmer started", "interval", w.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the warmer.
func (w *Warmer) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("image warmer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main warm loop.
func (w *Warmer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// Warm immediately on start.
	w.WarmOnce(w.ctx)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.WarmOnce(w.ctx)
		case <-w.updates:
			w.WarmOnce(w.ctx)
		}
	}
}

// WarmOnce runs a single cycle and returns its summary.
func (w *Warmer) WarmOnce(ctx context.Context) images.Summary {
	start := time.Now()

	if w.purger != nil {
		if n, err := w.purger.PurgeExpired(ctx); err != nil {
			w.logger.Warn("image cache purge failed", "err", err)
		} else if n > 0 {
			w.logger.Debug("image cache purged", "rows", n)
		}
	}

	records := w.records.Records()
	if len(records) == 0 {
		w.logger.Debug("no records to warm")
		return images.Summary{}
	}

	reqs := make([]images.Request, 0, len(records))
	for _, r := range records {
		reqs = append(reqs, images.Request{Ref: r.Image, Name: r.Name})
	}
	sum := w.preloader.PreloadMany(ctx, reqs, w.cfg.Timeout)

	w.logger.Info("warm cycle complete",
		"records", len(records),
		"loaded", sum.Loaded,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"duration", time.Since(start),
	)
	return sum
}
