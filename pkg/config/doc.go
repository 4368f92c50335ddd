// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from AIWU_ANALYTICS_*
// environment variables with sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	AIWU_ANALYTICS_HOST="0.0.0.0"
//	AIWU_ANALYTICS_PORT="8080"
//	AIWU_ANALYTICS_READ_TIMEOUT="15s"
//	AIWU_ANALYTICS_WRITE_TIMEOUT="60s"
//	AIWU_ANALYTICS_REPORT_TIMEOUT="45s"  # must be below the write timeout
//	AIWU_ANALYTICS_CORS_ORIGINS="https://admin.example.com"
//
// Event store settings:
//
//	AIWU_ANALYTICS_DB_DRIVER="mysql"  # mysql, postgres, sqlite3, memory
//	AIWU_ANALYTICS_DB_DSN="wp:secret@tcp(db:3306)/wordpress"
//	AIWU_ANALYTICS_TABLE_PREFIX="wp_"
//	AIWU_ANALYTICS_FIXTURE_PATH="testdata/events.json"  # memory driver
//
// Cache settings:
//
//	AIWU_ANALYTICS_CACHE_ENABLED="true"
//	AIWU_ANALYTICS_CACHE_L1_TTL="1m"
//	AIWU_ANALYTICS_REDIS_URL="redis://localhost:6379/0"
//
// Archive settings:
//
//	AIWU_ANALYTICS_ARCHIVE_ENABLED="true"
//	AIWU_ANALYTICS_S3_BUCKET="aiwu-reports"
//	AIWU_ANALYTICS_S3_ENDPOINT="http://minio:9000"
//
// Engine and auth settings:
//
//	AIWU_ANALYTICS_TIMEZONE="Europe/Berlin"
//	AIWU_ANALYTICS_CATALOG_PATH="/etc/aiwu/catalog.yaml"
//	AIWU_ANALYTICS_API_KEYS="key-one,key-two"
//	AIWU_ANALYTICS_RATE_LIMIT_ENABLED="true"
//	AIWU_ANALYTICS_RATE_LIMIT_REQUESTS="60"  # per window, per API key
//	AIWU_ANALYTICS_RATE_LIMIT_WINDOW="1m"
//
// Observability settings:
//
//	AIWU_ANALYTICS_LOG_LEVEL="info"  # debug, info, warn, error
//	AIWU_ANALYTICS_LOG_FORMAT="json" # json, text
//	AIWU_ANALYTICS_METRICS_ENABLED="true"
//	AIWU_ANALYTICS_OTEL_ENABLED="true"
//	AIWU_ANALYTICS_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Listening on %s\n", cfg.Server.Addr())
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/cache, pkg/archive: Use cache and archive configuration
//   - pkg/observability: Uses observability configuration
package config
