// Package observability provides logrus logging, Prometheus metrics,
// OpenTelemetry setup, health probes and graceful shutdown.
//
// # Structured Logging
//
//	logger := observability.NewLogger(logrus.InfoLevel, observability.JSONFormat, nil)
//	ctx = observability.WithLogger(observability.WithRequestID(ctx, id), logger)
//	observability.FromContext(ctx).WithField("date_from", from).Info("Computing report")
//
// # Prometheus Metrics
//
// Metrics methods are safe on a nil receiver, so components take an
// optional *Metrics:
//
//	metrics := observability.NewMetrics(registry)
//	metrics.ObserveQuery("list_events", d, err)
//	metrics.RateClamped("churn_rate")
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(store, redisClient, version)
//	router.HandleFunc("/readyz", checker.Readiness)
package observability
