package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rickgao/gift-heatmap/internal/api"
	"github.com/rickgao/gift-heatmap/internal/app"
	"github.com/rickgao/gift-heatmap/internal/auth"
	"github.com/rickgao/gift-heatmap/internal/config"
	"github.com/rickgao/gift-heatmap/internal/delivery"
	"github.com/rickgao/gift-heatmap/internal/version"
	"github.com/rickgao/gift-heatmap/internal/warmer"
)

func main() {
	configPath := flag.String("config", "configs/heatmapd.yaml", "path to config file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Set up structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load env file", "path", *envFile, "error", err)
	}

	logger.Info("starting heatmapd", append(version.Attrs(), "config", *configPath)...)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Start market registry (initial load)
	if err := a.Registry.Start(ctx); err != nil {
		logger.Error("failed to start market registry", "error", err)
		os.Exit(1)
	}
	defer stop("market registry", a.Registry.Stop, logger)

	// Start image warmer
	if cfg.Images.WarmInterval > 0 {
		opts := []warmer.Option{warmer.WithUpdates(a.Registry.Subscribe())}
		if a.Cache != nil {
			opts = append(opts, warmer.WithPurger(a.Cache))
		}
		w := warmer.New(warmer.Config{
			Interval: cfg.Images.WarmInterval,
			Timeout:  cfg.Export.ImageTimeout,
		}, a.Registry, a.Resolver, logger, opts...)
		if err := w.Start(ctx); err != nil {
			logger.Error("failed to start image warmer", "error", err)
			os.Exit(1)
		}
		defer stop("image warmer", w.Stop, logger)
	}

	// HTTP API
	gin.SetMode(cfg.Server.Mode)
	handlerOpts := []api.Option{api.WithLogger(logger)}
	if cfg.Telegram.BotToken != "" {
		handlerOpts = append(handlerOpts,
			api.WithVerifier(auth.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.InitDataMaxAge)),
			api.WithRelay(delivery.NewTelegramRelay(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Delivery.Timeout, logger)),
		)
	} else {
		logger.Warn("telegram bot token not set, embedded exports and send-image are disabled")
	}
	handler := api.NewHandler(api.Config{
		OutputDir:     cfg.Export.OutputDir,
		PreviewWidth:  cfg.Render.PreviewWidth,
		PreviewHeight: cfg.Render.PreviewHeight,
	}, a.Registry, a.Pipeline, handlerOpts...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("heatmapd running",
		"records", len(a.Registry.Records()),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}

	logger.Info("heatmapd stopped")
}

func stop(name string, fn func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error("failed to stop "+name, "error", err)
	}
}
