// Package main is the entry point for the inventory catalog server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/inventory-catalog/internal/config"
	"github.com/vyrodovalexey/inventory-catalog/internal/handler"
	"github.com/vyrodovalexey/inventory-catalog/internal/model"
	"github.com/vyrodovalexey/inventory-catalog/internal/server"
	"github.com/vyrodovalexey/inventory-catalog/internal/store"
	"github.com/vyrodovalexey/inventory-catalog/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		// Use a basic logger for startup errors
		basicLogger, _ := zap.NewProduction()
		basicLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Bool("tracing_enabled", cfg.TracingEnabled()),
		zap.Bool("seed_items", cfg.SeedItems),
		zap.String("env_file", cfg.EnvFile),
	)

	if cfg.TracingEnabled() {
		shutdownTracing, err := telemetry.InitTracerProvider(
			context.Background(), cfg.OTLPEndpoint, server.ServiceName, handler.Version,
		)
		if err != nil {
			logger.Error("failed to initialize tracing", zap.Error(err))
			return 1
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				logger.Warn("tracer provider shutdown failed", zap.Error(err))
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	itemStore, err := buildStore(cfg, reg)
	if err != nil {
		logger.Error("failed to create item store", zap.Error(err))
		return 1
	}

	srv, err := server.New(cfg, logger, itemStore, reg)
	if err != nil {
		logger.Error("failed to create server", zap.Error(err))
		return 1
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return 1
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// buildStore creates the in-memory catalog, seeded with the default items
// unless disabled, and instruments it when metrics are enabled.
func buildStore(cfg *config.Config, reg prometheus.Registerer) (store.Store, error) {
	var seed []model.Item
	if cfg.SeedItems {
		seed = model.DefaultItems()
	}

	var itemStore store.Store = store.NewMemoryStore(seed...)
	if !cfg.MetricsEnabled {
		return itemStore, nil
	}

	instrumented, err := store.NewInstrumentedStore(itemStore, reg)
	if err != nil {
		return nil, fmt.Errorf("instrumenting item store: %w", err)
	}
	return instrumented, nil
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}
