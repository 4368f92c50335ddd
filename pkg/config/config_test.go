package config

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{name: "returns true for 'true'", envValue: "true", want: true},
		{name: "returns true for '1'", envValue: "1", want: true},
		{name: "returns true for 'TRUE'", envValue: "TRUE", want: true},
		{name: "returns false for 'false'", defaultValue: true, envValue: "false", want: false},
		{name: "returns false for garbage", defaultValue: true, envValue: "yes please", want: false},
		{name: "returns default when unset", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvNumbers tests the numeric and duration helpers
func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_INT64", "1048576")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BAD_DURATION", "ninety")

	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt() = %v, want 42", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt() with invalid value = %v, want default 7", got)
	}
	if got := getEnvInt64("TEST_INT64", 0); got != 1048576 {
		t.Errorf("getEnvInt64() = %v, want 1048576", got)
	}
	if got := getEnvFloat("TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("getEnvFloat() = %v, want 0.25", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 90s", got)
	}
	if got := getEnvDuration("TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() with invalid value = %v, want default", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " a, ,b ,c,")
	got := getEnvList("TEST_LIST")
	if strings.Join(got, "|") != "a|b|c" {
		t.Errorf("getEnvList() = %q, want [a b c]", got)
	}
	if got := getEnvList("TEST_LIST_UNSET"); len(got) != 0 {
		t.Errorf("getEnvList() on unset = %q, want empty", got)
	}
}

// setRequiredEnv sets the minimum environment for LoadConfig to succeed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AIWU_ANALYTICS_DB_DSN", "wp:secret@tcp(localhost:3306)/wordpress")
	t.Setenv("AIWU_ANALYTICS_API_KEYS", "k1, k2")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Storage.Driver != "mysql" || cfg.Storage.TablePrefix != "wp_" {
		t.Errorf("storage defaults = %+v", cfg.Storage)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Redis.URL != "" {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.Cache.Report.KeyPrefix != "aiwu:report:" {
		t.Errorf("cache key prefix = %q", cfg.Cache.Report.KeyPrefix)
	}
	if cfg.Archive.Enabled {
		t.Error("archive should be disabled by default")
	}
	if cfg.Server.ReportTimeout != 45*time.Second || cfg.Server.ReportTimeout >= cfg.Server.WriteTimeout {
		t.Errorf("report timeout = %s, write timeout = %s", cfg.Server.ReportTimeout, cfg.Server.WriteTimeout)
	}
		if cfg.RateLimit.Enabled || cfg.RateLimit.Limits.RequestsPerWindow != 60 {
		t.Errorf("rate limit defaults = %+v", cfg.RateLimit)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[1] != "k2" {
		t.Errorf("api keys = %q", cfg.Auth.APIKeys)
	}
	if cfg.Engine.Location != time.UTC {
		t.Errorf("engine location = %v, want UTC", cfg.Engine.Location)
	}
	if len(cfg.Worker.WarmWindows) != 1 || cfg.Worker.WarmWindows[0] != 30 {
		t.Errorf("warm windows = %v", cfg.Worker.WarmWindows)
	}
	if cfg.Observability.LogLevel != logrus.InfoLevel {
		t.Errorf("log level = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFormat != observability.JSONFormat {
		t.Errorf("log format = %v", cfg.Observability.LogFormat)
	}
	if cfg.Observability.OTelServiceName != "aiwu-analytics" {
		t.Errorf("otel service name = %q", cfg.Observability.OTelServiceName)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AIWU_ANALYTICS_PORT", "9000")
	t.Setenv("AIWU_ANALYTICS_DB_DRIVER", "POSTGRES")
	t.Setenv("AIWU_ANALYTICS_TABLE_PREFIX", "site2_")
	t.Setenv("AIWU_ANALYTICS_DB_MAX_OPEN_CONNS", "25")
	t.Setenv("AIWU_ANALYTICS_DB_MAX_IDLE_CONNS", "0")
	t.Setenv("AIWU_ANALYTICS_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("AIWU_ANALYTICS_CACHE_L2_TTL", "30m")
	t.Setenv("AIWU_ANALYTICS_ARCHIVE_ENABLED", "true")
	t.Setenv("AIWU_ANALYTICS_S3_BUCKET", "reports")
	t.Setenv("AIWU_ANALYTICS_S3_USE_PATH_STYLE", "true")
	t.Setenv("AIWU_ANALYTICS_TIMEZONE", "Europe/Berlin")
	t.Setenv("AIWU_ANALYTICS_WARM_WINDOWS", "7,30,90,bad")
	t.Setenv("AIWU_ANALYTICS_LOG_LEVEL", "debug")
	t.Setenv("AIWU_ANALYTICS_LOG_FORMAT", "TEXT")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.TablePrefix != "site2_" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.MaxOpenConns != 25 || cfg.Storage.MaxIdleConns != 0 {
		t.Errorf("pool = %d/%d", cfg.Storage.MaxOpenConns, cfg.Storage.MaxIdleConns)
	}
	if cfg.Cache.Redis.URL != "redis://cache:6379/2" || cfg.Cache.Report.L2TTL != 30*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if !cfg.Archive.Enabled || cfg.Archive.S3.Bucket != "reports" || !cfg.Archive.S3.UsePathStyle {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if cfg.Engine.Location.String() != "Europe/Berlin" {
		t.Errorf("location = %v", cfg.Engine.Location)
	}
	if got := cfg.Worker.WarmWindows; len(got) != 3 || got[2] != 90 {
		t.Errorf("warm windows = %v", got)
	}
	if cfg.Observability.LogLevel != logrus.DebugLevel || cfg.Observability.LogFormat != observability.TextFormat {
		t.Errorf("logging = %v/%v", cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	}
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Storage: loadStorageConfig(),
		Auth:    AuthConfig{APIKeys: []string{"k"}},
		Engine:  EngineConfig{Timezone: "UTC"},
		Worker:  WorkerConfig{WarmSchedule: "*/5 * * * *", ArchiveSchedule: "@daily"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) { c.Storage.DSN = "dsn" }},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "server port is required"},
		{name: "missing dsn", mutate: func(c *Config) {}, wantErr: "database DSN is required"},
		{
			name:    "memory without fixture",
			mutate:  func(c *Config) { c.Storage.Driver = "memory" },
			wantErr: "fixture path is required",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "oracle" },
			wantErr: "invalid storage driver",
		},
		{
			name: "archive without bucket",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Archive.Enabled = true
			},
			wantErr: "S3 bucket is required",
		},
		{
			name: "no api keys",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Auth.APIKeys = nil
			},
			wantErr: "at least one API key",
		},
		{
			name: "auth disabled without keys",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Auth = AuthConfig{Disabled: true}
			},
		},
		{
			name: "report timeout not below write timeout",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Server.WriteTimeout = 30 * time.Second
				c.Server.ReportTimeout = 30 * time.Second
			},
			wantErr: "report timeout (30s) must be below write timeout (30s)",
		},
		{
			name: "report timeout below write timeout",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Server.WriteTimeout = 30 * time.Second
				c.Server.ReportTimeout = 20 * time.Second
			},
		},
		{
			name: "rate limit without budget",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.RateLimit = RateLimitConfig{Enabled: true}
			},
			wantErr: "rate limit requests and window must be positive",
		},
		{
			name: "bad timezone",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Engine.Timezone = "Mars/Olympus"
			},
			wantErr: "invalid timezone",
		},
		{
			name: "bad schedule",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Worker.WarmSchedule = "every minute"
			},
			wantErr: "invalid warm schedule",
		},
		{
			name: "otel without endpoint",
			mutate: func(c *Config) {
				c.Storage.DSN = "dsn"
				c.Observability.OTelEnabled = true
				c.Observability.OTelServiceName = "svc"
			},
			wantErr: "OpenTelemetry endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFailsValidation(t *testing.T) {
	t.Setenv("AIWU_ANALYTICS_DB_DRIVER", "memory")
	t.Setenv("AIWU_ANALYTICS_API_KEYS", "k")

	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Fatalf("LoadConfig() error = %v, want validation failure", err)
	}
}

func TestLoadWorkerConfigSkipsAPIKeys(t *testing.T) {
	t.Setenv("AIWU_ANALYTICS_DB_DSN", "wp:secret@tcp(localhost:3306)/wordpress")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() without API keys should fail")
	}
	cfg, err := LoadWorkerConfig()
	if err != nil {
		t.Fatalf("LoadWorkerConfig() error = %v", err)
	}
	if !cfg.Auth.Disabled {
		t.Error("worker config should not require auth")
	}
}
