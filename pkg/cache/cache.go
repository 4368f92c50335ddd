package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
)

// Tier labels used for metrics.
const (
	TierL1 = "l1"
	TierL2 = "l2"
)

// Config holds cache configuration
type Config struct {
	L1Size    int           // max reports kept in process
	L1TTL     time.Duration // TTL for L1 entries
	L2TTL     time.Duration // TTL for Redis entries
	KeyPrefix string
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		L1Size:    128,
		L1TTL:     time.Minute,
		L2TTL:     10 * time.Minute,
		KeyPrefix: "aiwu:report:",
	}
}

// Metrics receives cache events. *observability.Metrics satisfies it.
type Metrics interface {
	CacheHit(tier string)
	CacheMiss(tier string)
	CacheError(tier, operation string)
}

type nopMetrics struct{}

func (nopMetrics) CacheHit(string)           {}
func (nopMetrics) CacheMiss(string)          {}
func (nopMetrics) CacheError(string, string) {}

// ReportCache stores reports in an expirable LRU and, when a Redis client
// is configured, in Redis. Cached reports are shared between callers and
// must not be mutated.
type ReportCache struct {
	config  Config
	l1      *lru.LRU[string, *analytics.DashboardReport]
	redis   *redis.Client
	logger  *logrus.Logger
	metrics Metrics
}

// New creates a report cache. client may be nil for an L1-only cache.
func New(config Config, client *redis.Client, logger *logrus.Logger, metrics Metrics) *ReportCache {
	def := DefaultConfig()
	if config.L1Size <= 0 {
		config.L1Size = def.L1Size
	}
	if config.L1TTL <= 0 {
		config.L1TTL = def.L1TTL
	}
	if config.L2TTL <= 0 {
		config.L2TTL = def.L2TTL
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = def.KeyPrefix
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ReportCache{
		config:  config,
		l1:      lru.NewLRU[string, *analytics.DashboardReport](config.L1Size, nil, config.L1TTL),
		redis:   client,
		logger:  logger,
		metrics: metrics,
	}
}

// Prefix returns the key prefix of this cache.
func (c *ReportCache) Prefix() string { return c.config.KeyPrefix }

// Get looks a report up in L1, then L2. An L2 hit is promoted to L1.
// Returns ErrMiss when neither tier has it.
func (c *ReportCache) Get(ctx context.Context, key string) (*analytics.DashboardReport, error) {
	if report, ok := c.l1.Get(key); ok {
		c.metrics.CacheHit(TierL1)
		return report, nil
	}
	c.metrics.CacheMiss(TierL1)

	if c.redis == nil {
		return nil, ErrMiss
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.metrics.CacheMiss(TierL2)
		return nil, ErrMiss
	} else if err != nil {
		c.metrics.CacheError(TierL2, "get")
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var report analytics.DashboardReport
	if err := json.Unmarshal(data, &report); err != nil {
		c.metrics.CacheError(TierL2, "decode")
		// Delete the corrupt entry so the next request recomputes it.
		c.redis.Del(ctx, key)
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	c.metrics.CacheHit(TierL2)
	c.l1.Add(key, &report)
	return &report, nil
}

// Set stores a report in both tiers. An L2 failure is returned after the
// L1 entry has been written.
func (c *ReportCache) Set(ctx context.Context, key string, report *analytics.DashboardReport) error {
	c.l1.Add(key, report)
	if c.redis == nil {
		return nil
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.config.L2TTL).Err(); err != nil {
		c.metrics.CacheError(TierL2, "set")
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Purge drops every L1 entry and every Redis key under the prefix.
func (c *ReportCache) Purge(ctx context.Context) error {
	c.l1.Purge()
	if c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			c.metrics.CacheError(TierL2, "purge")
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		c.metrics.CacheError(TierL2, "purge")
		return fmt.Errorf("scan failed for prefix %s: %w", c.config.KeyPrefix, err)
	}
	return nil
}

// Len is the number of L1 entries.
func (c *ReportCache) Len() int { return c.l1.Len() }

// lookup is Get with L2 failures logged and reported as a miss.
func (c *ReportCache) lookup(ctx context.Context, key string) (*analytics.DashboardReport, bool) {
	report, err := c.Get(ctx, key)
	switch {
	case err == nil:
		return report, true
	case errors.Is(err, ErrMiss):
	default:
		c.logger.WithError(err).WithField("key", key).Warn("Report cache lookup failed, recomputing")
	}
	return nil, false
}
