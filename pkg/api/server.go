package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
	"github.com/platinummonkey/aiwu-analytics/pkg/config"
	"github.com/platinummonkey/aiwu-analytics/pkg/httputil"
	"github.com/platinummonkey/aiwu-analytics/pkg/middleware"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
)

// Paths served without authentication or rate limiting.
const (
	LivenessPath  = "/healthz"
	ReadinessPath = "/readyz"
	MetricsPath   = "/metrics"
)

// RouterOptions wires the HTTP surface. Only Source is required.
type RouterOptions struct {
	Source analytics.ReportSource
	Logger *logrus.Logger

	Health   *observability.HealthChecker
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	// APIKeys are the accepted bearer tokens. Empty disables authentication.
	APIKeys      []string
	CORSOrigins  []string
	MaxBodyBytes int64
	RateLimiter  middleware.Limiter

	ReportTimeout time.Duration
}

// Server is the dashboard HTTP handler.
type Server struct {
	router  *mux.Router
	handler http.Handler
}

// NewServer builds the router and its middleware chain.
func NewServer(opts RouterOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := mux.NewRouter()
	router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))

	if opts.Health != nil {
		router.HandleFunc(LivenessPath, opts.Health.Liveness).Methods(http.MethodGet)
		router.HandleFunc(ReadinessPath, opts.Health.Readiness).Methods(http.MethodGet)
	}
	if opts.Registry != nil {
		router.Handle(MetricsPath, observability.MetricsHandler(opts.Registry)).Methods(http.MethodGet)
	}

	NewDashboardHandlers(opts.Source, opts.ReportTimeout).RegisterRoutes(router)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteFailure(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	open := []string{LivenessPath, ReadinessPath, MetricsPath}
	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware(logger),
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
		httputil.CORSMiddleware(opts.CORSOrigins),
		httputil.APIKeyMiddleware(opts.APIKeys, open...),
	}
	if opts.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(opts.RateLimiter, open...))
	}
	if opts.MaxBodyBytes > 0 {
		chain = append(chain, httputil.MaxBytesMiddleware(opts.MaxBodyBytes))
	}

	handler := httputil.Chain(chain...)(router)
	return &Server{
		router:  router,
		handler: otelhttp.NewHandler(handler, "aiwu-analytics"),
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router for route inspection.
func (s *Server) Router() *mux.Router {
	return s.router
}

// NewHTTPServer applies the configured timeouts to an *http.Server.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
