// Package app assembles the components shared by the service binaries from
// a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
	"github.com/platinummonkey/aiwu-analytics/pkg/archive"
	"github.com/platinummonkey/aiwu-analytics/pkg/cache"
	"github.com/platinummonkey/aiwu-analytics/pkg/catalog"
	"github.com/platinummonkey/aiwu-analytics/pkg/config"
	"github.com/platinummonkey/aiwu-analytics/pkg/middleware"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
	"github.com/platinummonkey/aiwu-analytics/pkg/storage/sqlstore"
)

// App holds the wired components. Optional parts are nil when disabled.
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Store    storage.EventStore
	Catalogs *catalog.Store
	Engine   *analytics.Engine

	Redis  *redis.Client
	Cache  *cache.ReportCache
	Cached *cache.CachedSource

	Archiver *archive.S3Archiver

	closers []func() error
}

// New opens the event store and builds everything on top of it. A Redis
// outage at startup leaves the cache in process-only mode.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	a := &App{Config: cfg, Logger: logger}

	if cfg.Observability.MetricsEnabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.Metrics = observability.NewMetrics(a.Registry)
	}

	var storeOpts []sqlstore.Option
	if a.Metrics != nil {
		storeOpts = append(storeOpts, sqlstore.WithObserver(a.Metrics))
	}
	store, err := sqlstore.OpenEventStore(cfg.Storage, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)
	logger.WithFields(logrus.Fields{
		"driver": cfg.Storage.Driver,
		"prefix": cfg.Storage.TablePrefix,
	}).Info("Event store opened")

	catalogs, err := catalog.NewStore(cfg.Catalog.Path, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	a.Catalogs = catalogs

	engineOpts := []analytics.Option{
		analytics.WithLogger(logger),
		analytics.WithLocation(cfg.Engine.Location),
	}
	if a.Metrics != nil {
		engineOpts = append(engineOpts, analytics.WithMetrics(a.Metrics))
	}
	a.Engine = analytics.NewEngine(store, catalogs, engineOpts...)

	if cfg.Cache.Enabled {
		a.setupCache(ctx)
	}

	if cfg.Archive.Enabled {
		var recorder archive.Recorder
		if a.Metrics != nil {
			recorder = a.Metrics
		}
		archiver, err := archive.NewS3Archiver(ctx, cfg.Archive.S3, recorder)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create archiver: %w", err)
		}
		a.Archiver = archiver
	}

	return a, nil
}

func (a *App) setupCache(ctx context.Context) {
	cfg := a.Config.Cache
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.Logger.WithError(err).Warn("Redis unavailable, caching reports in process only")
		} else {
			a.Redis = client
			a.closers = append(a.closers, client.Close)
		}
	}

	var metrics cache.Metrics
	if a.Metrics != nil {
		metrics = a.Metrics
	}
	a.Cache = cache.New(cfg.Report, a.Redis, a.Logger, metrics)
	a.Cached = cache.NewCachedSource(a.Engine, a.Cache)
}

// Source is the report source handlers should use: the cache when enabled,
// the engine otherwise.
func (a *App) Source() analytics.ReportSource {
	if a.Cached != nil {
		return a.Cached
	}
	return a.Engine
}

// HealthChecker probes the event store and, when configured, Redis.
func (a *App) HealthChecker(version string) *observability.HealthChecker {
	return observability.NewHealthChecker(a.Store, a.Redis, version)
}

// RateLimiter returns the configured limiter, shared through Redis when a
// client is available, or nil when rate limiting is off.
func (a *App) RateLimiter() middleware.Limiter {
	if !a.Config.RateLimit.Enabled {
		return nil
	}
	if a.Redis != nil {
		return middleware.NewDistributedRateLimiter(a.Redis, a.Config.RateLimit.Limits, "")
	}
	return middleware.NewRateLimiter(a.Config.RateLimit.Limits)
}

// ReportDBStats copies connection pool statistics into the metrics every
// interval until ctx is done. It is a no-op for stores without a pool.
func (a *App) ReportDBStats(ctx context.Context, interval time.Duration) {
	sqlStore, ok := a.Store.(*sqlstore.Store)
	if !ok || a.Metrics == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.Metrics.RecordDBStats(sqlStore.DB().Stats())
			}
		}
	}()
}

// Close releases the store and Redis connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
