// Package sqlstore reads the telemetry tables through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

var tracer = otel.Tracer("aiwu/storage/sqlstore")

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// QueryObserver receives the outcome of every query.
type QueryObserver interface {
	ObserveQuery(name string, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveQuery(string, time.Duration, error) {}

// Store implements storage.EventStore over {prefix}lms_stats and
// {prefix}lms_stats_details.
type Store struct {
	db           *sql.DB
	driver       string
	statsTable   string
	detailsTable string
	queryTimeout time.Duration
	observer     QueryObserver
}

// Option configures a Store.
type Option func(*Store)

// WithObserver reports query durations and failures to o.
func WithObserver(o QueryObserver) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// Open connects to the configured database and verifies it with a ping.
func Open(cfg storage.Config, opts ...Option) (*Store, error) {
	switch cfg.Driver {
	case "postgres", "mysql", "sqlite3":
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnsupportedDriver, cfg.Driver)
	}

	dsn := cfg.DSN
	if cfg.Driver == "mysql" {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	s, err := New(db, cfg.Driver, cfg.TablePrefix, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.queryTimeout = cfg.QueryTimeout
	return s, nil
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	mcfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	mcfg.ParseTime = true
	return mcfg.FormatDSN(), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, driver, tablePrefix string, opts ...Option) (*Store, error) {
	if !prefixPattern.MatchString(tablePrefix) {
		return nil, fmt.Errorf("invalid table prefix %q", tablePrefix)
	}
	s := &Store{
		db:           db,
		driver:       driver,
		statsTable:   tablePrefix + "lms_stats",
		detailsTable: tablePrefix + "lms_stats_details",
		observer:     noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB returns the underlying pool for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ListEvents returns every event ordered by email, created, id.
func (s *Store) ListEvents(ctx context.Context) ([]telemetry.Event, error) {
	query := fmt.Sprintf(
		"SELECT id, email, created, mode, is_pro FROM %s ORDER BY email, created, id",
		s.statsTable,
	)

	var events []telemetry.Event
	err := s.run(ctx, "list_events", query, func(rows *sql.Rows) error {
		for rows.Next() {
			var (
				ev    telemetry.Event
				mode  int
				isPro int
			)
			if err := rows.Scan(&ev.ID, &ev.Email, &ev.Created, &mode, &isPro); err != nil {
				return fmt.Errorf("failed to scan event: %w", err)
			}
			ev.Mode = telemetry.Mode(mode)
			ev.IsPro = isPro == 1
			events = append(events, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListDetails returns detail rows joined to an existing event.
func (s *Store) ListDetails(ctx context.Context) ([]telemetry.Detail, error) {
	query := fmt.Sprintf(
		"SELECT d.st_id, d.name, d.val_int FROM %s d JOIN %s s ON d.st_id = s.id ORDER BY d.st_id",
		s.detailsTable, s.statsTable,
	)

	var details []telemetry.Detail
	err := s.run(ctx, "list_details", query, func(rows *sql.Rows) error {
		for rows.Next() {
			var (
				d   telemetry.Detail
				val sql.NullInt64
			)
			if err := rows.Scan(&d.EventID, &d.Name, &val); err != nil {
				return fmt.Errorf("failed to scan detail: %w", err)
			}
			d.Value = val.Int64
			details = append(details, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) run(ctx context.Context, name, query string, scan func(*sql.Rows) error) (err error) {
	ctx, span := tracer.Start(ctx, "SQL."+name,
		trace.WithAttributes(
			attribute.String("db.system", s.driver),
			attribute.String("db.statement", query),
		),
	)
	start := time.Now()
	defer func() {
		s.observer.ObserveQuery(name, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, name+" failed")
		}
		span.End()
	}()

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s query failed: %w", name, err)
	}
	defer rows.Close()

	if err := scan(rows); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
