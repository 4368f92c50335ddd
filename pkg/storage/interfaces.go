package storage

import (
	"context"
	"time"

	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

// EventReader reads the telemetry log. Implementations never write.
type EventReader interface {
	// ListEvents returns every event ordered by email, created, id.
	ListEvents(ctx context.Context) ([]telemetry.Event, error)
	// ListDetails returns every detail row attached to an existing event.
	ListDetails(ctx context.Context) ([]telemetry.Detail, error)
}

// HealthChecker reports backend reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventStore is the read-only store consumed by the metrics engine.
type EventStore interface {
	EventReader
	HealthChecker
	Close() error
}

// Config for the event store
type Config struct {
	Driver      string // "postgres", "mysql", "sqlite3", "memory"
	DSN         string
	TablePrefix string

	// Memory backend fixture (JSON)
	FixturePath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
	ConnectTimeout  time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Driver:          "mysql",
		TablePrefix:     "wp_",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		QueryTimeout:    30 * time.Second,
		ConnectTimeout:  5 * time.Second,
	}
}
