package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
	"github.com/platinummonkey/aiwu-analytics/pkg/archive"
	"github.com/platinummonkey/aiwu-analytics/pkg/cache"
	"github.com/platinummonkey/aiwu-analytics/pkg/config"
	"github.com/platinummonkey/aiwu-analytics/pkg/middleware"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"events": [{"id": 1, "email": "a@x.com", "created": "2025-03-01T10:00:00Z", "mode": 1, "is_pro": false}],
		"details": []
	}`), 0o644))

	storageCfg := storage.DefaultConfig()
	storageCfg.Driver = "memory"
	storageCfg.FixturePath = path

	return &config.Config{
		Storage: storageCfg,
		Cache:   config.CacheConfig{Enabled: true, Report: cache.DefaultConfig()},
		RateLimit: config.RateLimitConfig{
			Limits: middleware.DefaultRateLimitConfig(),
		},
		Engine:        config.EngineConfig{Timezone: "UTC", Location: time.UTC},
		Observability: config.ObservabilityConfig{MetricsEnabled: true},
	}
}

func TestNew_MemoryStoreWithCache(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Registry)
	assert.NotNil(t, a.Metrics)
	assert.Nil(t, a.Redis, "no redis URL configured")
	assert.Nil(t, a.Archiver)
	assert.Same(t, a.Cached, a.Source())

	report, err := a.Source().ComputeDashboard(context.Background(), analytics.Request{DateFrom: "2025-03-01", DateTo: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), report.KPI.NewFreeInstallations.Value)
	assert.Equal(t, 1, a.Cache.Len())

	status := a.HealthChecker("test").Check(context.Background())
	assert.Equal(t, observability.StatusHealthy, status.Status)
	assert.Nil(t, a.RateLimiter(), "rate limiting is off by default")
}

func TestNew_CacheDisabledUsesEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	cfg.Observability.MetricsEnabled = false

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Cache)
	assert.Nil(t, a.Metrics)
	assert.Same(t, a.Engine, a.Source())
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.Redis = cache.RedisOptions{URL: "redis://" + mr.Addr() + "/0"}
	cfg.RateLimit.Enabled = true

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Redis)
	_, distributed := a.RateLimiter().(*middleware.DistributedRateLimiter)
	assert.True(t, distributed)

	_, err = a.Source().ComputeDashboard(context.Background(), analytics.Request{})
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys(), "report written to redis")
}

func TestNew_RedisDownFallsBackToProcessCache(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Cache.Redis = cache.RedisOptions{URL: "redis://" + addr + "/0", MaxRetries: -1}
	cfg.RateLimit.Enabled = true

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Redis)
	assert.NotNil(t, a.Cache)
	_, local := a.RateLimiter().(*middleware.RateLimiter)
	assert.True(t, local)
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing fixture", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.FixturePath = filepath.Join(t.TempDir(), "missing.json")
		_, err := New(context.Background(), cfg, quietLogger())
		assert.ErrorContains(t, err, "failed to open event store")
	})

	t.Run("bad catalog", func(t *testing.T) {
		cfg := testConfig(t)
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("features:\n  - key: chatbots\n    label: Bots\n"), 0o644))
		cfg.Catalog.Path = path
		_, err := New(context.Background(), cfg, quietLogger())
		assert.ErrorContains(t, err, "failed to load catalog")
	})

	t.Run("archive without bucket", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Archive = config.ArchiveConfig{Enabled: true, S3: archive.Config{Region: "us-east-1"}}
		_, err := New(context.Background(), cfg, quietLogger())
		assert.ErrorContains(t, err, "failed to create archiver")
	})
}

func TestNew_Archiver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive = config.ArchiveConfig{Enabled: true, S3: archive.Config{
		Bucket:    "reports",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	}}

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.Archiver)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), quietLogger())
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
