// Package analytics computes the AIWU usage dashboard from the telemetry
// event log.
//
// # Overview
//
// The event log is reduced to one ordered Timeline per installation email
// (see pkg/telemetry). Every metric is then derived from those timelines,
// never from unscoped aggregates, so "current state" always means the
// latest event of that user.
//
// # Key Metrics
//
// Headline KPIs, each paired with the previous window of equal length and a
// mini-trend (daily up to 30 days, weekly beyond):
//   - New Free and Pro installations
//   - Active Free-only and Pro users
//   - Conversion rate against the Free cohort at the start of the window
//   - Churn rate against the users active at the start of the window
//
// Breakdowns:
//   - Feature adoption by users and by tokens, API provider keys
//   - Feature to conversion correlation
//   - Time to conversion histogram and recent conversions
//   - Deactivation reasons, churn timeline and churn by plan
//   - Engagement segments and multi-feature usage from the latest ping
//   - Paginated user activity with masked emails
//
// # Usage Example
//
//	engine := analytics.NewEngine(store, catalogStore,
//		analytics.WithLogger(logger),
//		analytics.WithMetrics(metrics),
//	)
//	report, err := engine.ComputeDashboard(ctx, analytics.Request{
//		DateFrom: "2025-01-01",
//		DateTo:   "2025-01-31",
//	})
//
// Rates are percentages rounded to two decimals and clamped to [0,100]. A
// clamp is logged and counted, since it points at inconsistent upstream
// data.
//
// # Related Packages
//
//   - pkg/cache: report caching in front of the engine
//   - pkg/archive: report snapshots in object storage
package analytics
