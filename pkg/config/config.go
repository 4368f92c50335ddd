package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/archive"
	"github.com/platinummonkey/aiwu-analytics/pkg/cache"
	"github.com/platinummonkey/aiwu-analytics/pkg/middleware"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
)

const envPrefix = "AIWU_ANALYTICS_"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Event store configuration
	Storage storage.Config

	// Report cache configuration
	Cache CacheConfig

	// Snapshot archive configuration
	Archive ArchiveConfig

	Catalog   CatalogConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Engine    EngineConfig
	Worker    WorkerConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// ReportTimeout bounds one dashboard computation. It must stay below
	// WriteTimeout so a slow report still gets its 503 written.
	ReportTimeout   time.Duration
	MaxBodyBytes    int64
	CORSOrigins     []string
}

// CacheConfig holds report cache settings. Redis is used only when a URL
// is set.
type CacheConfig struct {
	Enabled bool
	Report  cache.Config
	Redis   cache.RedisOptions
}

// ArchiveConfig holds snapshot export settings.
type ArchiveConfig struct {
	Enabled bool
	S3      archive.Config
}

// CatalogConfig points at an optional YAML vocabulary file.
type CatalogConfig struct {
	Path  string
	Watch bool
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	Disabled bool
	APIKeys  []string
}

// RateLimitConfig limits dashboard requests per API key. Redis backs the
// limiter when the cache has a Redis URL.
type RateLimitConfig struct {
	Enabled bool
	Limits  middleware.RateLimitConfig
}

// EngineConfig holds metrics engine settings.
type EngineConfig struct {
	Timezone string
	Location *time.Location
}

// WorkerConfig holds cron settings for the background worker.
type WorkerConfig struct {
	WarmSchedule    string
	ArchiveSchedule string
	// WarmWindows are the trailing window lengths, in days, kept warm.
	WarmWindows []int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  logrus.Level
	LogFormat observability.LogFormat

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// LoadConfig loads the HTTP service configuration from environment variables
func LoadConfig() (*Config, error) {
	return load(true)
}

// LoadWorkerConfig loads configuration for processes that serve no API, so
// no API keys are required.
func LoadWorkerConfig() (*Config, error) {
	return load(false)
}

func load(serving bool) (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Cache:         loadCacheConfig(),
		Archive:       loadArchiveConfig(),
		Catalog:       loadCatalogConfig(),
		Auth:          loadAuthConfig(),
		RateLimit:     loadRateLimitConfig(),
		Engine:        EngineConfig{Timezone: getEnv(envPrefix+"TIMEZONE", "UTC")},
		Worker:        loadWorkerConfig(),
		Observability: loadObservabilityConfig(),
	}

	if !serving {
		cfg.Auth.Disabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv(envPrefix+"HOST", "0.0.0.0"),
		Port:            getEnv(envPrefix+"PORT", "8080"),
		ReadTimeout:     getEnvDuration(envPrefix+"READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration(envPrefix+"WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvDuration(envPrefix+"IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration(envPrefix+"SHUTDOWN_TIMEOUT", 30*time.Second),
		ReportTimeout:   getEnvDuration(envPrefix+"REPORT_TIMEOUT", 45*time.Second),
		MaxBodyBytes:    getEnvInt64(envPrefix+"MAX_BODY_BYTES", 1<<20),
		CORSOrigins:     getEnvList(envPrefix+"CORS_ORIGINS"),
	}
}

// loadStorageConfig loads event store configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if driver := getEnv(envPrefix+"DB_DRIVER", ""); driver != "" {
		cfg.Driver = strings.ToLower(driver)
	}
	cfg.DSN = getEnv(envPrefix+"DB_DSN", "")
	cfg.TablePrefix = getEnv(envPrefix+"TABLE_PREFIX", cfg.TablePrefix)
	cfg.FixturePath = getEnv(envPrefix+"FIXTURE_PATH", "")

	if maxOpen := getEnvInt(envPrefix+"DB_MAX_OPEN_CONNS", 0); maxOpen > 0 {
		cfg.MaxOpenConns = maxOpen
	}
	if maxIdle := getEnvInt(envPrefix+"DB_MAX_IDLE_CONNS", -1); maxIdle >= 0 {
		cfg.MaxIdleConns = maxIdle
	}
	if lifetime := getEnvDuration(envPrefix+"DB_CONN_MAX_LIFETIME", 0); lifetime > 0 {
		cfg.ConnMaxLifetime = lifetime
	}
	if idle := getEnvDuration(envPrefix+"DB_CONN_MAX_IDLE_TIME", 0); idle > 0 {
		cfg.ConnMaxIdleTime = idle
	}
	if timeout := getEnvDuration(envPrefix+"DB_QUERY_TIMEOUT", 0); timeout > 0 {
		cfg.QueryTimeout = timeout
	}
	if timeout := getEnvDuration(envPrefix+"DB_CONNECT_TIMEOUT", 0); timeout > 0 {
		cfg.ConnectTimeout = timeout
	}

	return cfg
}

func loadCacheConfig() CacheConfig {
	report := cache.DefaultConfig()
	if size := getEnvInt(envPrefix+"CACHE_SIZE", 0); size > 0 {
		report.L1Size = size
	}
	report.L1TTL = getEnvDuration(envPrefix+"CACHE_L1_TTL", report.L1TTL)
	report.L2TTL = getEnvDuration(envPrefix+"CACHE_L2_TTL", report.L2TTL)
	report.KeyPrefix = getEnv(envPrefix+"CACHE_KEY_PREFIX", report.KeyPrefix)

	return CacheConfig{
		Enabled: getEnvBool(envPrefix+"CACHE_ENABLED", true),
		Report:  report,
		Redis: cache.RedisOptions{
			URL:        getEnv(envPrefix+"REDIS_URL", ""),
			Password:   getEnv(envPrefix+"REDIS_PASSWORD", ""),
			DB:         getEnvInt(envPrefix+"REDIS_DB", 0),
			PoolSize:   getEnvInt(envPrefix+"REDIS_POOL_SIZE", 0),
			MaxRetries: getEnvInt(envPrefix+"REDIS_MAX_RETRIES", 0),
		},
	}
}

func loadArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Enabled: getEnvBool(envPrefix+"ARCHIVE_ENABLED", false),
		S3: archive.Config{
			Bucket:       getEnv(envPrefix+"S3_BUCKET", ""),
			Prefix:       getEnv(envPrefix+"S3_PREFIX", "dashboard"),
			Region:       getEnv(envPrefix+"S3_REGION", "us-east-1"),
			Endpoint:     getEnv(envPrefix+"S3_ENDPOINT", ""),
			AccessKey:    getEnv(envPrefix+"S3_ACCESS_KEY", ""),
			SecretKey:    getEnv(envPrefix+"S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool(envPrefix+"S3_USE_PATH_STYLE", false),
			CreateBucket: getEnvBool(envPrefix+"S3_CREATE_BUCKET", false),
		},
	}
}

func loadCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Path:  getEnv(envPrefix+"CATALOG_PATH", ""),
		Watch: getEnvBool(envPrefix+"CATALOG_WATCH", true),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Disabled: getEnvBool(envPrefix+"AUTH_DISABLED", false),
		APIKeys:  getEnvList(envPrefix + "API_KEYS"),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	limits := middleware.DefaultRateLimitConfig()
	return RateLimitConfig{
		Enabled: getEnvBool(envPrefix+"RATE_LIMIT_ENABLED", false),
		Limits: middleware.RateLimitConfig{
			RequestsPerWindow: getEnvInt(envPrefix+"RATE_LIMIT_REQUESTS", limits.RequestsPerWindow),
			WindowDuration:    getEnvDuration(envPrefix+"RATE_LIMIT_WINDOW", limits.WindowDuration),
			BurstSize:         getEnvInt(envPrefix+"RATE_LIMIT_BURST", limits.BurstSize),
		},
	}
}

func loadWorkerConfig() WorkerConfig {
	cfg := WorkerConfig{
		WarmSchedule:    getEnv(envPrefix+"WARM_SCHEDULE", "*/5 * * * *"),
		ArchiveSchedule: getEnv(envPrefix+"ARCHIVE_SCHEDULE", "15 0 * * *"),
		WarmWindows:     []int{30},
	}
	if raw := getEnvList(envPrefix + "WARM_WINDOWS"); len(raw) > 0 {
		cfg.WarmWindows = cfg.WarmWindows[:0]
		for _, s := range raw {
			if days, err := strconv.Atoi(s); err == nil && days >= 0 {
				cfg.WarmWindows = append(cfg.WarmWindows, days)
			}
		}
	}
	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLevel(getEnv(envPrefix+"LOG_LEVEL", "info")),
		LogFormat:          observability.LogFormat(strings.ToLower(getEnv(envPrefix+"LOG_FORMAT", "json"))),
		MetricsEnabled:     getEnvBool(envPrefix+"METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool(envPrefix+"OTEL_ENABLED", false),
		OTelEndpoint:       getEnv(envPrefix+"OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv(envPrefix+"OTEL_SERVICE_NAME", "aiwu-analytics"),
		OTelServiceVersion: getEnv(envPrefix+"OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool(envPrefix+"OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat(envPrefix+"OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid. It also resolves the
// engine time zone.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.WriteTimeout > 0 && c.Server.ReportTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("report timeout (%s) must be below write timeout (%s)", c.Server.ReportTimeout, c.Server.WriteTimeout)
	}

	switch c.Storage.Driver {
	case "mysql", "postgres", "sqlite3":
		if c.Storage.DSN == "" {
			return fmt.Errorf("database DSN is required for %s storage", c.Storage.Driver)
		}
	case "memory":
		if c.Storage.FixturePath == "" {
			return fmt.Errorf("fixture path is required for memory storage")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be mysql, postgres, sqlite3, or memory)", c.Storage.Driver)
	}

	if c.Archive.Enabled && c.Archive.S3.Bucket == "" {
		return fmt.Errorf("S3 bucket is required when archiving is enabled")
	}

	if !c.Auth.Disabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required unless auth is disabled")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Limits.RequestsPerWindow <= 0 || c.RateLimit.Limits.WindowDuration <= 0) {
		return fmt.Errorf("rate limit requests and window must be positive")
	}

	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Engine.Timezone, err)
	}
	c.Engine.Location = loc

	for name, spec := range map[string]string{
		"warm":    c.Worker.WarmSchedule,
		"archive": c.Worker.ArchiveSchedule,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// Addr is the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
