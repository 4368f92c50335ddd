// Package middleware provides HTTP rate limiting for the dashboard API.
//
// Two limiters implement the Limiter interface:
//
//	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
//	// or, shared across instances:
//	limiter := middleware.NewDistributedRateLimiter(redisClient, cfg, "aiwu:ratelimit")
//
//	router.Use(middleware.RateLimit(limiter, "/healthz", "/readyz", "/metrics"))
//
// Rejected requests receive 429 with the standard failure envelope and a
// Retry-After header. A Redis outage lets requests through.
package middleware
