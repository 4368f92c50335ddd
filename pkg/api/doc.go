// Package api provides the HTTP surface of the analytics service.
//
// # Endpoints
//
//	GET|POST /api/v1/dashboard   dashboard report (date_from, date_to, plan, feature, page, per_page)
//	GET      /healthz            liveness
//	GET      /readyz             event store and redis readiness
//	GET      /metrics            Prometheus exposition
//
// Every JSON response uses the envelope from pkg/httputil:
//
//	{"success": true,  "data": {...report...}}
//	{"success": false, "data": "reason"}
//
// # Usage
//
//	srv := api.NewServer(api.RouterOptions{
//		Source:  cachedSource,
//		Logger:  logger,
//		APIKeys: cfg.Auth.APIKeys,
//	})
//	http.ListenAndServe(":8080", srv)
//
// The dashboard route requires a bearer API key when keys are configured.
// Health and metrics routes are always open.
package api
