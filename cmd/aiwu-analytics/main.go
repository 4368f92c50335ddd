package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/api"
	"github.com/platinummonkey/aiwu-analytics/pkg/app"
	"github.com/platinummonkey/aiwu-analytics/pkg/config"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("AIWU analytics service failed")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Catalog.Watch {
		if err := application.Catalogs.Watch(ctx); err != nil {
			logger.WithError(err).Warn("Catalog hot reload disabled")
		}
	}
	application.ReportDBStats(ctx, 15*time.Second)

	var apiKeys []string
	if !cfg.Auth.Disabled {
		apiKeys = cfg.Auth.APIKeys
	} else {
		logger.Warn("API key authentication is disabled")
	}

	handler := api.NewServer(api.RouterOptions{
		Source:        application.Source(),
		Logger:        logger,
		Health:        application.HealthChecker(version),
		Metrics:       application.Metrics,
		Registry:      application.Registry,
		APIKeys:       apiKeys,
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		RateLimiter:   application.RateLimiter(),
		ReportTimeout: cfg.Server.ReportTimeout,
	})
	httpServer := api.NewHTTPServer(cfg.Server, handler)

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.Register("app", func(context.Context) error { return application.Close() })
	shutdown.Register("otel", providers.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    httpServer.Addr,
			"version": version,
		}).Info("AIWU analytics listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		_ = application.Close()
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutdown requested, stopping gracefully")
	return shutdown.Shutdown()
}
