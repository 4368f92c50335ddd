package cache

import (
	"context"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
)

// NormalizingSource is a report source that can resolve requests to their
// effective form. *analytics.Engine implements it.
type NormalizingSource interface {
	analytics.ReportSource
	Normalize(req analytics.Request) analytics.Request
}

// CachedSource serves reports from a ReportCache and computes misses from
// the wrapped source. Cache failures never fail a request.
type CachedSource struct {
	source NormalizingSource
	cache  *ReportCache
}

// NewCachedSource wraps source with cache.
func NewCachedSource(source NormalizingSource, cache *ReportCache) *CachedSource {
	return &CachedSource{source: source, cache: cache}
}

// KeyFor returns the cache key a request is stored under.
func (s *CachedSource) KeyFor(req analytics.Request) string {
	norm := s.source.Normalize(req)
	defaulted := req.DateFrom != norm.DateFrom || req.DateTo != norm.DateTo
	return Key(s.cache.Prefix(), norm, defaulted)
}

// ComputeDashboard implements analytics.ReportSource.
func (s *CachedSource) ComputeDashboard(ctx context.Context, req analytics.Request) (*analytics.DashboardReport, error) {
	key := s.KeyFor(req)
	if report, ok := s.cache.lookup(ctx, key); ok {
		return report, nil
	}
	return s.compute(ctx, key, req)
}

// Refresh recomputes a report and overwrites its cache entry.
func (s *CachedSource) Refresh(ctx context.Context, req analytics.Request) (*analytics.DashboardReport, error) {
	return s.compute(ctx, s.KeyFor(req), req)
}

func (s *CachedSource) compute(ctx context.Context, key string, req analytics.Request) (*analytics.DashboardReport, error) {
	report, err := s.source.ComputeDashboard(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, report); err != nil {
		s.cache.logger.WithError(err).WithField("key", key).Warn("Failed to store report in cache")
	}
	return report, nil
}
