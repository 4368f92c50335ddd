package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Store metrics
	StoreQueriesTotal  *prometheus.CounterVec
	StoreQueryDuration *prometheus.HistogramVec

	// Report metrics
	ReportsComputedTotal  *prometheus.CounterVec
	ReportComputeDuration prometheus.Histogram
	RateClampedTotal      *prometheus.CounterVec
	UsersTracked          prometheus.Gauge

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Archive metrics
	ArchiveUploadsTotal *prometheus.CounterVec

	// Database pool metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aiwu_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aiwu_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		StoreQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_store_queries_total",
				Help: "Total number of event store queries",
			},
			[]string{"query", "status"},
		),
		StoreQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aiwu_store_query_duration_seconds",
				Help:    "Event store query duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"query"},
		),

		ReportsComputedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_reports_computed_total",
				Help: "Total number of dashboard reports computed",
			},
			[]string{"status"},
		),
		ReportComputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aiwu_report_compute_duration_seconds",
				Help:    "Dashboard report computation time in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		RateClampedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_rate_clamped_total",
				Help: "Rates that exceeded 100 percent and were clamped",
			},
			[]string{"metric"},
		),
		UsersTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aiwu_users_tracked",
				Help: "Distinct installation emails seen in the last computed report",
			},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_cache_hits_total",
				Help: "Total number of report cache hits",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_cache_misses_total",
				Help: "Total number of report cache misses",
			},
			[]string{"tier"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_cache_errors_total",
				Help: "Total number of report cache backend errors",
			},
			[]string{"tier", "operation"},
		),

		ArchiveUploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aiwu_archive_uploads_total",
				Help: "Total number of report snapshot uploads",
			},
			[]string{"status"},
		),

		DBConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aiwu_db_connections_open",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsInUse: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aiwu_db_connections_in_use",
				Help: "Number of database connections in use",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aiwu_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.StoreQueriesTotal,
		m.StoreQueryDuration,
		m.ReportsComputedTotal,
		m.ReportComputeDuration,
		m.RateClampedTotal,
		m.UsersTracked,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		m.ArchiveUploadsTotal,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
	)

	return m
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveQuery records one event store query.
func (m *Metrics) ObserveQuery(name string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreQueriesTotal.WithLabelValues(name, statusLabel(err)).Inc()
	m.StoreQueryDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveReport records one dashboard computation.
func (m *Metrics) ObserveReport(duration time.Duration, users int, err error) {
	if m == nil {
		return
	}
	m.ReportsComputedTotal.WithLabelValues(statusLabel(err)).Inc()
	m.ReportComputeDuration.Observe(duration.Seconds())
	if err == nil {
		m.UsersTracked.Set(float64(users))
	}
}

// RateClamped counts a rate that had to be clamped to 100.
func (m *Metrics) RateClamped(metric string) {
	if m == nil {
		return
	}
	m.RateClampedTotal.WithLabelValues(metric).Inc()
}

// CacheHit counts a hit on the given tier.
func (m *Metrics) CacheHit(tier string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(tier).Inc()
}

// CacheMiss counts a miss on the given tier.
func (m *Metrics) CacheMiss(tier string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(tier).Inc()
}

// CacheError counts a backend failure on the given tier.
func (m *Metrics) CacheError(tier, operation string) {
	if m == nil {
		return
	}
	m.CacheErrorsTotal.WithLabelValues(tier, operation).Inc()
}

// ObserveArchive records one snapshot upload.
func (m *Metrics) ObserveArchive(err error) {
	if m == nil {
		return
	}
	m.ArchiveUploadsTotal.WithLabelValues(statusLabel(err)).Inc()
}

// RecordDBStats copies connection pool statistics into the gauges.
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel uses the mux route template to keep label cardinality bounded.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
