package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/rickgao/gift-heatmap/internal/imagecache"
	"github.com/rickgao/gift-heatmap/internal/model"
)

// Defaults for resolver configuration.
const (
	DefaultAlternateTimeout = 2 * time.Second
	DefaultBatchSize        = 10
	PreviewTimeout          = 15 * time.Second
	ExportTimeout           = 20 * time.Second
)

// Config configures a Resolver.
type Config struct {
	BaseURL          string
	ProviderURL      string
	AlternateTimeout time.Duration
	BatchSize        int
}

// Request names one image to resolve. Name is used to derive alternates.
type Request struct {
	Ref  string
	Name string
}

// RequestsFor builds resolve requests for every item.
func RequestsFor(items []model.VisualizationItem) []Request {
	reqs := make([]Request, 0, len(items))
	for _, it := range items {
		reqs = append(reqs, Request{Ref: it.ImageRef, Name: it.Name})
	}
	return reqs
}

// Summary reports the outcome of a preload.
type Summary struct {
	Requested int
	Loaded    int
	Failed    int
	Skipped   int // not started, or still loading, when the context ended
}

// Resolver resolves image references through the cache and network.
// It is safe for concurrent use.
type Resolver struct {
	cfg     Config
	cache   imagecache.Cache
	fetcher Fetcher
	logger  *slog.Logger

	group     singleflight.Group
	flightsMu sync.Mutex
	flights   map[string]*flight

	mu      sync.RWMutex
	entries map[string]model.ResolvedImage
}

// NewResolver creates a resolver. A nil cache disables byte caching.
func NewResolver(cfg Config, cache imagecache.Cache, fetcher Fetcher, logger *slog.Logger) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.AlternateTimeout <= 0 {
		cfg.AlternateTimeout = DefaultAlternateTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cfg:     cfg,
		cache:   cache,
		fetcher: fetcher,
		logger:  logger,
		entries: make(map[string]model.ResolvedImage),
		flights: make(map[string]*flight),
	}
}

// Key returns the cache key for a reference.
func (r *Resolver) Key(ref string) string {
	return NormalizeURL(r.cfg.BaseURL, ref)
}

// Lookup returns the current state of a reference without blocking.
// Unknown references report Pending.
func (r *Resolver) Lookup(ref string) model.ResolvedImage {
	key := r.Key(ref)
	if key == "" {
		return model.ResolvedImage{Status: model.ImageFailed, Err: ErrNoReference}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[key]; ok {
		return e
	}
	return model.ResolvedImage{Key: key, Status: model.ImagePending}
}

// Resolve loads one image, waiting at most timeout for the primary fetch.
// Loaded results are reused; failed ones are retried on the next call.
//
// Concurrent calls for the same key share one load. The load runs detached
// from every caller: a caller whose ctx ends gets a Pending result back
// while the load finishes and is stored for later lookups. Joining with a
// longer timeout extends the shared primary deadline.
func (r *Resolver) Resolve(ctx context.Context, req Request, timeout time.Duration) model.ResolvedImage {
	key := r.Key(req.Ref)
	if key == "" {
		return model.ResolvedImage{Status: model.ImageFailed, Err: ErrNoReference}
	}

	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if ok && e.Loaded() {
		return e
	}

	r.join(key, timeout)
	ch := r.group.DoChan(key, func() (any, error) {
		return r.run(context.WithoutCancel(ctx), key, req.Name), nil
	})

	select {
	case res := <-ch:
		return res.Val.(model.ResolvedImage)
	case <-ctx.Done():
		return model.ResolvedImage{Key: key, Status: model.ImagePending, Err: ctx.Err()}
	}
}

// flight is the shared state of one in-progress load.
type flight struct {
	mu       sync.Mutex
	deadline time.Time
	timer    *time.Timer
}

func (f *flight) extend(d time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !d.After(f.deadline) {
		return
	}
	f.deadline = d
	if f.timer != nil {
		f.timer.Reset(time.Until(d))
	}
}

// primary returns a context that ends at the flight deadline, including
// extensions made while it is running.
func (f *flight) primary(base context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	f.mu.Lock()
	f.timer = time.AfterFunc(time.Until(f.deadline), cancel)
	f.mu.Unlock()
	return ctx, func() {
		f.mu.Lock()
		f.timer.Stop()
		f.mu.Unlock()
		cancel()
	}
}

// join registers a caller's primary budget for key.
func (r *Resolver) join(key string, timeout time.Duration) {
	d := time.Now().Add(timeout)
	r.flightsMu.Lock()
	defer r.flightsMu.Unlock()
	if f, ok := r.flights[key]; ok {
		f.extend(d)
		return
	}
	r.flights[key] = &flight{deadline: d}
}

func (r *Resolver) run(ctx context.Context, key, name string) model.ResolvedImage {
	r.flightsMu.Lock()
	f, ok := r.flights[key]
	if !ok {
		f = &flight{deadline: time.Now().Add(ExportTimeout)}
		r.flights[key] = f
	}
	r.flightsMu.Unlock()

	defer func() {
		r.flightsMu.Lock()
		if r.flights[key] == f {
			delete(r.flights, key)
		}
		r.flightsMu.Unlock()
	}()

	r.store(model.ResolvedImage{Key: key, Status: model.ImagePending})
	res := r.load(ctx, f, key, name)
	r.store(res)
	return res
}

// Preload resolves one reference with the preview timeout.
func (r *Resolver) Preload(ctx context.Context, req Request) model.ResolvedImage {
	return r.Resolve(ctx, req, PreviewTimeout)
}

// PreloadMany resolves references in batches of BatchSize. Each batch runs
// concurrently and completes before the next begins. Duplicate keys are
// resolved once. When ctx ends, remaining batches are skipped.
func (r *Resolver) PreloadMany(ctx context.Context, reqs []Request, timeout time.Duration) Summary {
	seen := make(map[string]bool, len(reqs))
	unique := make([]Request, 0, len(reqs))
	for _, req := range reqs {
		key := r.Key(req.Ref)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, req)
	}

	var (
		mu  sync.Mutex
		sum = Summary{Requested: len(unique)}
	)

	for start := 0; start < len(unique); start += r.cfg.BatchSize {
		if ctx.Err() != nil {
			sum.Skipped += len(unique) - start
			break
		}

		end := min(start+r.cfg.BatchSize, len(unique))
		var g errgroup.Group
		for _, req := range unique[start:end] {
			req := req
			g.Go(func() error {
				res := r.Resolve(ctx, req, timeout)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case res.Loaded():
					sum.Loaded++
				case res.Status == model.ImagePending:
					sum.Skipped++ // ctx ended while the load continues
				default:
					sum.Failed++
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	r.logger.Debug("preload finished",
		"requested", sum.Requested,
		"loaded", sum.Loaded,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
	)
	return sum
}

func (r *Resolver) store(res model.ResolvedImage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.entries[res.Key]; ok && prev.Loaded() && !res.Loaded() {
		return
	}
	r.entries[res.Key] = res
}

func (r *Resolver) load(ctx context.Context, f *flight, key, name string) model.ResolvedImage {
	if strings.HasPrefix(key, "data:") {
		data, err := decodeDataURL(key)
		if err != nil {
			return failed(key, err)
		}
		return r.decoded(key, data, model.FromNetwork)
	}

	if r.cache != nil {
		if data, ok := r.cache.Get(ctx, key); ok {
			res := r.decoded(key, data, model.FromCache)
			if res.Loaded() {
				return res
			}
			r.logger.Warn("cached image undecodable", "url", key, "error", res.Err)
		}
	}

	pctx, cancel := f.primary(ctx)
	res, primaryErr := r.fetchInto(pctx, ctx, key, key)
	cancel()
	if primaryErr == nil {
		return res
	}

	for _, alt := range Alternates(key, name, r.cfg.BaseURL, r.cfg.ProviderURL) {
		actx, cancel := context.WithTimeout(ctx, r.cfg.AlternateTimeout)
		res, err := r.fetchInto(actx, ctx, key, alt)
		cancel()
		if err == nil {
			r.logger.Debug("image resolved from alternate", "url", key, "alternate", alt)
			res.Source = model.FromAlternate
			return res
		}
	}

	r.logger.Debug("image failed", "url", key, "error", primaryErr)
	return failed(key, fmt.Errorf("all sources failed: %w", primaryErr))
}

// fetchInto fetches url within fctx and, on success, caches the bytes
// under key using ctx.
func (r *Resolver) fetchInto(fctx, ctx context.Context, key, url string) (model.ResolvedImage, error) {
	if r.fetcher == nil {
		return model.ResolvedImage{}, errors.New("no fetcher configured")
	}

	data, err := r.fetcher.Fetch(fctx, url)
	if err != nil {
		return model.ResolvedImage{}, err
	}

	res := r.decoded(key, data, model.FromNetwork)
	if !res.Loaded() {
		return model.ResolvedImage{}, res.Err
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, key, data); err != nil {
			r.logger.Debug("image cache write failed", "url", key, "error", err)
		}
	}
	return res, nil
}

func (r *Resolver) decoded(key string, data []byte, src model.ImageSource) model.ResolvedImage {
	img, err := Decode(data)
	if err != nil {
		return failed(key, err)
	}
	b := img.Bounds()
	return model.ResolvedImage{
		Key:    key,
		Image:  img,
		Status: model.ImageLoaded,
		Source: src,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

func failed(key string, err error) model.ResolvedImage {
	return model.ResolvedImage{Key: key, Status: model.ImageFailed, Err: err}
}
