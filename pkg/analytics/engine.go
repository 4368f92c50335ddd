package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/aiwu-analytics/pkg/catalog"
	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

var tracer = otel.Tracer("aiwu/analytics")

const (
	// DefaultPerPage is the user listing page size when none is requested.
	DefaultPerPage = 50
	// MaxPerPage bounds the user listing page size.
	MaxPerPage = 500
	// MaxPage bounds the page number so the listing offset always fits an int.
	MaxPage = math.MaxInt/MaxPerPage + 1
	// RecentConversionsLimit is the length of the recent conversions list.
	RecentConversionsLimit = 20
)

// Request holds the dashboard filters as received from a caller.
type Request struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Plan     string `json:"plan"`
	Feature  string `json:"feature"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
}

// ReportSource produces dashboard reports. The engine and the report cache
// both implement it.
type ReportSource interface {
	ComputeDashboard(ctx context.Context, req Request) (*DashboardReport, error)
}

// CatalogSource supplies the catalog in effect for one computation.
type CatalogSource interface {
	Current() *catalog.Catalog
}

type staticCatalog struct{ c *catalog.Catalog }

func (s staticCatalog) Current() *catalog.Catalog { return s.c }

// StaticCatalog wraps a fixed catalog as a CatalogSource.
func StaticCatalog(c *catalog.Catalog) CatalogSource {
	return staticCatalog{c: c}
}

// Recorder receives engine measurements. *observability.Metrics satisfies it.
type Recorder interface {
	RateClamped(metric string)
	ObserveReport(duration time.Duration, users int, err error)
}

type nopRecorder struct{}

func (nopRecorder) RateClamped(string)                      {}
func (nopRecorder) ObserveReport(time.Duration, int, error) {}

// Engine computes dashboard reports from a read-only event store. It keeps
// no state between calls and is safe for concurrent use.
type Engine struct {
	store    storage.EventReader
	catalogs CatalogSource
	logger   *logrus.Logger
	recorder Recorder
	now      func() time.Time
	loc      *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for anomalies.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the measurement recorder.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithClock overrides the time source used for default windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone that defines day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an engine. A nil catalog source uses catalog.Default.
func NewEngine(store storage.EventReader, catalogs CatalogSource, opts ...Option) *Engine {
	if catalogs == nil {
		catalogs = StaticCatalog(catalog.Default())
	}
	e := &Engine{
		store:    store,
		catalogs: catalogs,
		logger:   logrus.StandardLogger(),
		recorder: nopRecorder{},
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the time zone used for day boundaries.
func (e *Engine) Location() *time.Location { return e.loc }

// Normalize resolves a request to its effective form: concrete dates, a
// canonical plan, a known feature or none, and bounded paging. Equal
// normalized requests always produce equal reports for one snapshot.
func (e *Engine) Normalize(req Request) Request {
	return e.normalize(req, e.now())
}

func (e *Engine) normalize(req Request, now time.Time) Request {
	period, _ := ResolvePeriod(req.DateFrom, req.DateTo, now, e.loc)
	out := Request{
		DateFrom: period.FromDate(),
		DateTo:   period.ToDate(),
		Plan:     string(telemetry.ParsePlanFilter(req.Plan)),
		Page:     req.Page,
		PerPage:  req.PerPage,
	}
	if feature := strings.TrimSpace(req.Feature); feature != "" {
		if !strings.HasPrefix(feature, telemetry.FeatureDetailPfx) {
			feature = telemetry.FeatureDetailPfx + feature
		}
		if e.catalogs.Current().HasFeature(feature) {
			out.Feature = feature
		}
	}
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PerPage < 1 {
		out.PerPage = DefaultPerPage
	}
	if out.PerPage > MaxPerPage {
		out.PerPage = MaxPerPage
	}
	if out.Page > MaxPage {
		out.Page = MaxPage
	}
	return out
}

// ComputeDashboard loads the event log and projects it into a report.
func (e *Engine) ComputeDashboard(ctx context.Context, req Request) (report *DashboardReport, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "analytics.ComputeDashboard")
	defer span.End()

	users := 0
	defer func() {
		e.recorder.ObserveReport(time.Since(start), users, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	now := e.now()
	period, defaulted := ResolvePeriod(req.DateFrom, req.DateTo, now, e.loc)
	norm := e.normalize(req, now)
	span.SetAttributes(
		attribute.String("date_from", norm.DateFrom),
		attribute.String("date_to", norm.DateTo),
		attribute.String("plan", norm.Plan),
		attribute.String("feature", norm.Feature),
	)

	var (
		events  []telemetry.Event
		details []telemetry.Detail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = e.store.ListEvents(gctx)
		if err != nil {
			return fmt.Errorf("failed to load events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		details, err = e.store.ListDetails(gctx)
		if err != nil {
			return fmt.Errorf("failed to load event details: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := newDataset(ctx, telemetry.BuildTimelines(events, details), e.catalogs.Current(), e.loc)
	users = len(ds.emails)
	span.SetAttributes(attribute.Int("users", users), attribute.Int("events", len(events)))

	prev := period.Previous()
	report = &DashboardReport{
		Filters: Filters{
			DateFrom:     period.FromDate(),
			DateTo:       period.ToDate(),
			PrevDateFrom: prev.FromDate(),
			PrevDateTo:   prev.ToDate(),
			Plan:         norm.Plan,
			Feature:      norm.Feature,
			Defaulted:    defaulted,
		},
		GeneratedAt: now.UTC(),
	}

	rates := &rater{logger: e.logger, recorder: e.recorder}
	plan := telemetry.PlanFilter(norm.Plan)

	// Each section writes only its own field of report.
	sections := []func(){
		func() { report.KPI = ds.kpis(period, rates) },
		func() { report.Trends = ds.trends(period) },
		func() { report.Conversion = ds.conversion(period, norm.Feature, rates) },
		func() { report.Features = ds.features() },
		func() { report.Churn = ds.churn(period, rates) },
		func() { report.Engagement = ds.engagement() },
		func() { report.Users = ds.users(plan, norm.Feature, norm.Page, norm.PerPage) },
	}
	sg, sctx := errgroup.WithContext(ctx)
	for _, section := range sections {
		section := section
		sg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("dashboard section panicked: %v", r)
				}
			}()
			if err := sctx.Err(); err != nil {
				return err
			}
			section()
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard computation aborted: %w", err)
	}
	// Sections stop visiting users once ctx is done, so a late cancel leaves
	// a partial report behind.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dashboard computation aborted: %w", err)
	}

	return report, nil
}

// rater computes clamped rates and reports clamps as anomalies.
type rater struct {
	logger   *logrus.Logger
	recorder Recorder
}

func (r *rater) rate(metric string, numerator, denominator int) float64 {
	v, clamped := Rate(numerator, denominator)
	if clamped {
		r.recorder.RateClamped(metric)
		r.logger.WithFields(logrus.Fields{
			"metric":      metric,
			"numerator":   numerator,
			"denominator": denominator,
		}).Warn("Rate exceeded 100%, clamped")
	}
	return v
}
