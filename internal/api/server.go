package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/gift-heatmap/internal/auth"
	"github.com/rickgao/gift-heatmap/internal/delivery"
	"github.com/rickgao/gift-heatmap/internal/export"
	"github.com/rickgao/gift-heatmap/internal/model"
)

// InitDataHeader carries Telegram WebApp launch parameters.
const InitDataHeader = "X-Telegram-Init-Data"

// Preview bounds.
const (
	MaxPreviewWidth  = 3840
	MaxPreviewHeight = 2160
)

// Records provides the current market batch.
type Records interface {
	Records() []model.GiftMarketRecord
	Reference() map[string]model.GiftMarketRecord
}

// Exporter renders previews and exports.
type Exporter interface {
	Export(ctx context.Context, req export.Request) (*model.ExportJob, error)
	Preview(ctx context.Context, req export.Request, width, height int) ([]byte, error)
	State() model.ExportState
}

// Verifier checks Telegram initData.
type Verifier interface {
	Verify(initData string) (auth.Identity, error)
}

// Relay forwards images to Telegram users.
type Relay interface {
	Relay(ctx context.Context, req delivery.SendRequest) error
}

// Config holds handler settings.
type Config struct {
	OutputDir     string
	PreviewWidth  int
	PreviewHeight int
}

// Handler serves the heatmap routes.
type Handler struct {
	cfg      Config
	records  Records
	exporter Exporter
	verifier Verifier // nil disables embedded exports
	relay    Relay    // nil disables /api/send-image
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithVerifier enables embedded exports for verified Telegram users.
func WithVerifier(v Verifier) Option {
	return func(h *Handler) { h.verifier = v }
}

// WithRelay enables the send-image endpoint.
func WithRelay(r Relay) Option {
	return func(h *Handler) { h.relay = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a handler.
func NewHandler(cfg Config, records Records, exporter Exporter, opts ...Option) *Handler {
	if cfg.PreviewWidth <= 0 || cfg.PreviewHeight <= 0 {
		cfg.PreviewWidth, cfg.PreviewHeight = 1200, 675
	}
	h := &Handler{
		cfg:      cfg,
		records:  records,
		exporter: exporter,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetupRoutes registers the API routes on r.
func (h *Handler) SetupRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/heatmap", h.Preview)
		v1.POST("/heatmap/export", h.Export)
		v1.GET("/heatmap/items.xlsx", h.Items)
		v1.GET("/exports/:name", h.Artifact)
	}

	r.POST("/api/send-image", h.SendImage)
}

// NewRouter returns a gin engine with logging, recovery, CORS and the API routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger), cors())
	h.SetupRoutes(r)
	return r
}

// Health reports liveness and the export pipeline state.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"records": len(h.records.Records()),
		"export":  h.exporter.State().String(),
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+InitDataHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
