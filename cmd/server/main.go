package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvparser/internal/config"
	"github.com/JonMunkholm/csvparser/internal/core"
	"github.com/JonMunkholm/csvparser/internal/encoding"
	"github.com/JonMunkholm/csvparser/internal/logging"
	"github.com/JonMunkholm/csvparser/internal/middleware"
	"github.com/JonMunkholm/csvparser/internal/web"
)

func main() {
	// Load .env file if it exists; variables already set take precedence
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"encoding_mode", cfg.CSV.EncodingMode,
		"pipeline_file", cfg.CSV.PipelineFile,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	opts, err := parserOptions(cfg, logger)
	if err != nil {
		slog.Error("failed to configure parser", "error", err)
		os.Exit(1)
	}

	// Build once at startup so a bad dialect fails fast
	if _, err := core.NewParser(opts...); err != nil {
		slog.Error("invalid CSV dialect", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, opts...)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("conversions did not complete in time", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// parserOptions turns the CSV section into the parser defaults every
// request starts from.
func parserOptions(cfg *config.Config, logger *slog.Logger) ([]core.Option, error) {
	conv, err := encoding.ConverterFor(cfg.CSV.EncodingMode, logger)
	if err != nil {
		return nil, err
	}

	opts := []core.Option{
		core.WithDialect(core.Dialect{
			Delimiter:     cfg.CSV.Delimiter(),
			Enclosure:     cfg.CSV.Enclosure(),
			LineDelimiter: cfg.CSV.Line(),
		}),
		core.WithConverter(conv),
		core.WithLogger(logger),
	}

	if cfg.CSV.PipelineFile == "" {
		return opts, nil
	}

	specs, err := middleware.LoadSpecs(cfg.CSV.PipelineFile)
	if err != nil {
		return nil, err
	}
	pipeline, err := middleware.BuildPipeline(specs, logger)
	if err != nil {
		return nil, err
	}
	slog.Info("middleware pipeline loaded", "file", cfg.CSV.PipelineFile, "units", pipeline.Len())
	return append(opts, core.WithMiddleware(pipeline)), nil
}
