package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/gift-heatmap/internal/images"
	"github.com/rickgao/gift-heatmap/internal/model"
	"github.com/rickgao/gift-heatmap/internal/render"
	"github.com/rickgao/gift-heatmap/internal/transform"
)

var (
	// ErrExportInProgress rejects an export while another is running.
	ErrExportInProgress = errors.New("export already in progress")

	// ErrNoUserID fails an embedded export whose host has no user identifier.
	ErrNoUserID = errors.New("host did not provide a user id")

	errNoSender = errors.New("no sender configured")
)

// Tier is an export resolution.
type Tier struct {
	Width  int
	Height int
	Scale  float64
}

// Config configures a Pipeline.
type Config struct {
	Standalone      Tier
	Embedded        Tier
	Preview         Tier
	RedrawPasses    int
	RedrawDelay     time.Duration
	Quality         int
	FallbackQuality int
	ImageTimeout    time.Duration
	PreviewWait     time.Duration // how long a preview waits for images before drawing
	Watermark       string
}

// DefaultPreviewWait bounds how long a preview waits for pending images.
const DefaultPreviewWait = 1500 * time.Millisecond

// DefaultConfig returns the production export settings.
func DefaultConfig() Config {
	return Config{
		Standalone:      Tier{Width: 3840, Height: 2160, Scale: 2},
		Embedded:        Tier{Width: 1920, Height: 1080, Scale: 1.25},
		Preview:         Tier{Width: 1200, Height: 675, Scale: 1},
		RedrawPasses:    2,
		RedrawDelay:     150 * time.Millisecond,
		Quality:         95,
		FallbackQuality: 80,
		ImageTimeout:    images.ExportTimeout,
		PreviewWait:     DefaultPreviewWait,
		Watermark:       "@Novachartbot",
	}
}

// ImageResolver resolves images ahead of a render and serves them during it.
type ImageResolver interface {
	render.ImageSource
	PreloadMany(ctx context.Context, reqs []images.Request, timeout time.Duration) images.Summary
}

// Request is one export or preview.
type Request struct {
	Records []model.GiftMarketRecord // already selected and ordered
	Options transform.Options
	Host    Host // nil for standalone
}

// Pipeline runs exports one at a time.
type Pipeline struct {
	cfg         Config
	resolver    ImageResolver
	fonts       *render.FontCache
	partitioner render.Partitioner
	downloader  Downloader
	sender      Sender
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time

	mu    sync.Mutex
	busy  bool
	state model.ExportState

	exporting  atomic.Int32 // live export canvases
	previewing atomic.Int32 // live preview canvases
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSender sets the embedded delivery channel.
func WithSender(s Sender) Option {
	return func(p *Pipeline) { p.sender = s }
}

// WithNotifier sets where user-facing messages go.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithFonts shares a font cache with other renderers.
func WithFonts(f *render.FontCache) Option {
	return func(p *Pipeline) { p.fonts = f }
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg Config, resolver ImageResolver, partitioner render.Partitioner, downloader Downloader, opts ...Option) *Pipeline {
	if cfg.RedrawPasses < 2 {
		cfg.RedrawPasses = 2
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 95
	}
	if cfg.FallbackQuality <= 0 || cfg.FallbackQuality > 100 {
		cfg.FallbackQuality = 80
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = images.ExportTimeout
	}
	if cfg.PreviewWait <= 0 {
		cfg.PreviewWait = DefaultPreviewWait
	}

	p := &Pipeline{
		cfg:         cfg,
		resolver:    resolver,
		partitioner: partitioner,
		downloader:  downloader,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fonts == nil {
		p.fonts = render.NewFontCache()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.notifier == nil {
		p.notifier = LogNotifier{Logger: p.logger}
	}
	return p
}

// State returns the current state; Idle when no export runs.
func (p *Pipeline) State() model.ExportState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ActiveCanvases returns the number of live export canvases.
func (p *Pipeline) ActiveCanvases() int {
	return int(p.exporting.Load())
}

// PreviewCanvases returns the number of live preview canvases.
func (p *Pipeline) PreviewCanvases() int {
	return int(p.previewing.Load())
}

// Export renders the request at export resolution and delivers it.
// The returned job is in a terminal state. The error is non-nil for
// FailedTerminal jobs and for rejected requests (nil job).
func (p *Pipeline) Export(ctx context.Context, req Request) (*model.ExportJob, error) {
	if !p.begin() {
		return nil, ErrExportInProgress
	}
	defer p.end()

	job := p.newJob(req.Host)
	if h, ok := req.Host.(HapticHost); ok {
		h.Haptic()
	}
	p.logger.Info("export started",
		"job_id", job.ID,
		"platform", job.Platform,
		"width", job.TargetWidth,
		"height", job.TargetHeight,
		"records", len(req.Records),
	)

	p.enter(job, model.ExportPreparing)
	items := transform.Transform(req.Records, req.Options)
	sum := p.resolver.PreloadMany(ctx, images.RequestsFor(items), p.cfg.ImageTimeout)
	p.logger.Debug("export images resolved", "job_id", job.ID, "loaded", sum.Loaded, "failed", sum.Failed)

	p.enter(job, model.ExportRendering)
	canvas, err := p.newCanvas(job.TargetWidth, job.TargetHeight, &p.exporting)
	if err != nil {
		return p.fail(job, fmt.Errorf("create canvas: %w", err))
	}
	defer p.releaseCanvas(canvas, &p.exporting)

	if err := p.draw(ctx, canvas, items, req.Options, p.tierFor(job.Platform).Scale, p.cfg.RedrawPasses); err != nil {
		return p.fail(job, err)
	}

	p.enter(job, model.ExportEncoding)
	data, err := canvas.EncodeJPEG(p.cfg.Quality)
	if err != nil {
		return p.fail(job, err)
	}

	p.enter(job, model.ExportDelivering)
	return p.deliver(ctx, job, canvas, data, req.Host)
}

// Preview renders a single pass at preview resolution and returns a PNG.
// Previews do not wait for the export lock. Image loads get at most
// PreviewWait; images still loading after that are drawn as placeholders
// and keep loading in the background for later renders.
func (p *Pipeline) Preview(ctx context.Context, req Request, width, height int) ([]byte, error) {
	tier := p.cfg.Preview
	if width > 0 && height > 0 {
		tier.Width, tier.Height = width, height
	}
	if tier.Scale <= 0 {
		tier.Scale = 1
	}

	items := transform.Transform(req.Records, req.Options)
	if err := p.warm(ctx, images.RequestsFor(items)); err != nil {
		return nil, err
	}

	canvas, err := p.newCanvas(tier.Width, tier.Height, &p.previewing)
	if err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	defer p.releaseCanvas(canvas, &p.previewing)

	if err := p.draw(ctx, canvas, items, req.Options, tier.Scale, 1); err != nil {
		return nil, err
	}
	return canvas.EncodePNG()
}

// warm starts loading reqs detached from ctx and waits until they finish,
// PreviewWait elapses or ctx ends.
func (p *Pipeline) warm(ctx context.Context, reqs []images.Request) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.resolver.PreloadMany(context.WithoutCancel(ctx), reqs, images.PreviewTimeout)
	}()

	t := time.NewTimer(p.cfg.PreviewWait)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		p.logger.Debug("preview drawing before images finished", "images", len(reqs))
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (p *Pipeline) deliver(ctx context.Context, job *model.ExportJob, canvas *render.Canvas, data []byte, host Host) (*model.ExportJob, error) {
	if job.Platform == model.PlatformStandalone {
		path, err := p.downloader.Save(FileName(p.now()), data)
		if err != nil {
			return p.fail(job, fmt.Errorf("save artifact: %w", err))
		}
		job.Artifact, job.ArtifactSize = path, len(data)
		return p.finish(job, model.ExportSucceeded, LevelInfo, "Heatmap saved"), nil
	}

	userID, ok := host.UserID()
	if !ok {
		return p.fail(job, ErrNoUserID)
	}

	sendErr := errNoSender
	if p.sender != nil {
		sendErr = p.sender.Send(ctx, userID, base64.StdEncoding.EncodeToString(data))
	}
	if sendErr == nil {
		job.ArtifactSize = len(data)
		return p.finish(job, model.ExportSucceeded, LevelInfo, "Heatmap sent to your chat"), nil
	}

	p.logger.Warn("export send failed, falling back to download", "job_id", job.ID, "error", sendErr)
	job.Err = sendErr

	low, err := canvas.EncodeJPEG(p.cfg.FallbackQuality)
	if err != nil {
		return p.fail(job, errors.Join(sendErr, err))
	}
	path, err := p.downloader.Save(FileName(p.now()), low)
	if err != nil {
		return p.fail(job, errors.Join(sendErr, err))
	}
	job.Delivery = model.DeliveryLocalDownload
	job.Artifact, job.ArtifactSize = path, len(low)
	return p.finish(job, model.ExportFailedWithFallback, LevelWarn, "Sending failed, the heatmap was downloaded instead"), nil
}

// draw renders passes times onto canvas, waiting RedrawDelay between passes.
func (p *Pipeline) draw(ctx context.Context, canvas *render.Canvas, items []model.VisualizationItem, opts transform.Options, scale float64, passes int) error {
	cells := render.Cells(p.partitioner, items, canvas.Bounds())
	chart := render.ChartOptions{
		Layout: render.LayoutOptions{
			Scale:     scale,
			ChartType: opts.ChartType,
			Currency:  opts.Currency,
			Fonts:     p.fonts,
		},
		Watermark: p.cfg.Watermark,
		Logger:    p.logger,
	}

	for pass := 0; pass < passes; pass++ {
		if pass > 0 {
			t := time.NewTimer(p.cfg.RedrawDelay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
		canvas.Clear(render.ColorBackground)
		stats := render.RenderChart(canvas, cells, p.resolver, chart)
		p.logger.Debug("render pass",
			"pass", pass+1,
			"cells", stats.Cells,
			"images", stats.Images,
			"placeholders", stats.Placeholders,
			"failed", stats.Failed,
		)
	}
	return nil
}

func (p *Pipeline) tierFor(platform model.Platform) Tier {
	if platform == model.PlatformHostEmbedded {
		return p.cfg.Embedded
	}
	return p.cfg.Standalone
}

func (p *Pipeline) newJob(host Host) *model.ExportJob {
	job := &model.ExportJob{
		ID:        uuid.New(),
		Platform:  model.PlatformStandalone,
		Delivery:  model.DeliveryLocalDownload,
		State:     model.ExportIdle,
		StartedAt: p.now(),
	}
	if host != nil {
		job.Platform = model.PlatformHostEmbedded
		job.Delivery = model.DeliveryRemoteSend
	}
	tier := p.tierFor(job.Platform)
	job.TargetWidth, job.TargetHeight = tier.Width, tier.Height
	return job
}

func (p *Pipeline) newCanvas(w, h int, count *atomic.Int32) (*render.Canvas, error) {
	c, err := render.NewCanvas(w, h, p.fonts)
	if err != nil {
		return nil, err
	}
	count.Add(1)
	return c, nil
}

func (p *Pipeline) releaseCanvas(c *render.Canvas, count *atomic.Int32) {
	c.Release()
	count.Add(-1)
}

func (p *Pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return false
	}
	p.busy = true
	return true
}

func (p *Pipeline) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false
	p.state = model.ExportIdle
}

func (p *Pipeline) enter(job *model.ExportJob, s model.ExportState) {
	job.State = s
	job.History = append(job.History, s)
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) finish(job *model.ExportJob, s model.ExportState, level Level, msg string) *model.ExportJob {
	p.enter(job, s)
	job.FinishedAt = p.now()
	p.logger.Info("export finished",
		"job_id", job.ID,
		"state", s,
		"artifact", job.Artifact,
		"bytes", job.ArtifactSize,
		"duration", job.FinishedAt.Sub(job.StartedAt),
	)
	p.notifier.Notify(Notification{JobID: job.ID, Level: level, State: s, Message: msg})
	return job
}

func (p *Pipeline) fail(job *model.ExportJob, err error) (*model.ExportJob, error) {
	job.Err = err
	p.logger.Error("export failed", "job_id", job.ID, "error", err)
	msg := "Export failed, please try again"
	if errors.Is(err, ErrNoUserID) {
		msg = "Could not identify your account, open the heatmap from the bot and try again"
	}
	p.finish(job, model.ExportFailedTerminal, LevelError, msg)
	return job, err
}
