package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/gift-heatmap/internal/model"
	"github.com/rickgao/gift-heatmap/internal/transform"
)

// Config holds Registry configuration.
type Config struct {
	ReloadInterval time.Duration // 0 disables periodic reloads
	LoadTimeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReloadInterval: 5 * time.Minute,
		LoadTimeout:    30 * time.Second,
	}
}

// ErrEmptyBatch is returned when a source yields no records.
var ErrEmptyBatch = errors.New("market source returned no records")

// Registry holds the most recent batch of records.
type Registry struct {
	cfg    Config
	source Source
	logger *slog.Logger

	mu        sync.RWMutex
	records   []model.GiftMarketRecord
	reference map[string]model.GiftMarketRecord
	loadedAt  time.Time

	subMu sync.Mutex
	subs  []chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a registry reading from source.
func NewRegistry(cfg Config, source Source, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultConfig().LoadTimeout
	}
	return &Registry{
		cfg:       cfg,
		source:    source,
		logger:    logger,
		reference: map[string]model.GiftMarketRecord{},
	}
}

// Start performs the initial load (blocking) and begins periodic reloads.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.Reload(ctx); err != nil {
		return fmt.Errorf("initial market load: %w", err)
	}

	ctx, r.cancel = context.WithCancel(ctx)
	if r.cfg.ReloadInterval > 0 {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.reloadLoop(ctx)
		}()
	}

	r.logger.Info("market registry started",
		"records", len(r.Records()),
		"reload_interval", r.cfg.ReloadInterval,
	)
	return nil
}

// Stop gracefully shuts down.
func (r *Registry) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("market registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload fetches a new batch and swaps it in. On error the previous batch is kept.
func (r *Registry) Reload(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.LoadTimeout)
	defer cancel()

	records, err := r.source.LoadRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrEmptyBatch
	}
	ref := transform.BuildReference(records)

	r.mu.Lock()
	r.records = records
	r.reference = ref
	r.loadedAt = time.Now()
	r.mu.Unlock()

	r.logger.Debug("market records loaded",
		"records", len(records),
		"reference", len(ref),
		"duration", time.Since(start),
	)
	r.notify()
	return nil
}

// Records returns the current batch. Callers must not modify it.
func (r *Registry) Records() []model.GiftMarketRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records
}

// Reference returns upgraded gifts keyed by name, for regular holding values.
func (r *Registry) Reference() map[string]model.GiftMarketRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reference
}

// LoadedAt returns when the current batch was loaded.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// Subscribe returns a channel signalled after each successful load. Signals
// coalesce: a slow reader sees at most one pending signal.
func (r *Registry) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	r.subMu.Lock()
	r.subs = append(r.subs, ch)
	r.subMu.Unlock()
	return ch
}

func (r *Registry) notify() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// reloadLoop periodically refreshes the batch.
func (r *Registry) reloadLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Reload(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("market reload failed", "err", err)
			}
		}
	}
}
