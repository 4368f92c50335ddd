// Package worker runs the scheduled background jobs: keeping dashboard
// reports warm in the cache and archiving daily snapshots.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
	"github.com/platinummonkey/aiwu-analytics/pkg/archive"
)

// Refresher recomputes a report and overwrites its cache entry.
// *cache.CachedSource implements it.
type Refresher interface {
	Refresh(ctx context.Context, req analytics.Request) (*analytics.DashboardReport, error)
}

// Archiver stores a report snapshot. *archive.S3Archiver implements it.
type Archiver interface {
	Archive(ctx context.Context, report *analytics.DashboardReport) (*archive.Snapshot, error)
}

// Jobs holds the job dependencies. Either of refresher and archiver may be
// nil, which disables the matching job.
type Jobs struct {
	source    analytics.ReportSource
	refresher Refresher
	archiver  Archiver
	windows   []int
	loc       *time.Location
	logger    *logrus.Logger
	now       func() time.Time
}

// NewJobs creates the jobs. windows are trailing window lengths in days,
// each ending today in loc.
func NewJobs(source analytics.ReportSource, refresher Refresher, archiver Archiver, windows []int, loc *time.Location, logger *logrus.Logger) *Jobs {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Jobs{
		source:    source,
		refresher: refresher,
		archiver:  archiver,
		windows:   windows,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// WarmRequests lists the requests kept warm: the dashboard's first load,
// which uses the default window, then each explicit trailing window.
func (j *Jobs) WarmRequests() []analytics.Request {
	reqs := []analytics.Request{{Plan: "all", Page: 1, PerPage: analytics.DefaultPerPage}}

	today := j.now().In(j.loc)
	to := today.Format(analytics.DateLayout)
	for _, days := range j.windows {
		reqs = append(reqs, analytics.Request{
			DateFrom: today.AddDate(0, 0, -days).Format(analytics.DateLayout),
			DateTo:   to,
			Plan:     "all",
			Page:     1,
			PerPage:  analytics.DefaultPerPage,
		})
	}
	return reqs
}

// Warm refreshes every warm request. It keeps going after a failure and
// returns all errors joined.
func (j *Jobs) Warm(ctx context.Context) error {
	if j.refresher == nil {
		return nil
	}

	var errs []error
	for _, req := range j.WarmRequests() {
		start := time.Now()
		log := j.logger.WithFields(logrus.Fields{"date_from": req.DateFrom, "date_to": req.DateTo})
		if _, err := j.refresher.Refresh(ctx, req); err != nil {
			log.WithError(err).Error("Cache warm failed")
			errs = append(errs, fmt.Errorf("warm %s..%s: %w", req.DateFrom, req.DateTo, err))
			continue
		}
		log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Report cache warmed")
	}
	return errors.Join(errs...)
}

// Archive uploads a snapshot of yesterday's default-window report, the
// last complete day.
func (j *Jobs) Archive(ctx context.Context) error {
	if j.archiver == nil {
		return nil
	}

	yesterday := j.now().In(j.loc).AddDate(0, 0, -1)
	req := analytics.Request{
		DateFrom: yesterday.AddDate(0, 0, -analytics.DefaultWindowDays).Format(analytics.DateLayout),
		DateTo:   yesterday.Format(analytics.DateLayout),
		Plan:     "all",
		Page:     1,
		PerPage:  analytics.MaxPerPage,
	}

	report, err := j.source.ComputeDashboard(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to compute snapshot: %w", err)
	}
	snap, err := j.archiver.Archive(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}

	j.logger.WithFields(logrus.Fields{
		"bucket": snap.Bucket,
		"key":    snap.Key,
		"size":   snap.Size,
	}).Info("Report snapshot archived")
	return nil
}

// RunOnce warms the cache and archives a snapshot, for backfills and tests.
func (j *Jobs) RunOnce(ctx context.Context) error {
	return errors.Join(j.Warm(ctx), j.Archive(ctx))
}

// Schedule registers the jobs on c. Empty specs skip a job. Each run gets
// its own timeout.
func (j *Jobs) Schedule(ctx context.Context, c *cron.Cron, warmSpec, archiveSpec string, timeout time.Duration) error {
	add := func(name, spec string, job func(context.Context) error) error {
		if spec == "" {
			return nil
		}
		_, err := c.AddFunc(spec, func() {
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := job(runCtx); err != nil {
				j.logger.WithError(err).WithField("job", name).Error("Scheduled job failed")
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", name, err)
		}
		j.logger.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Job scheduled")
		return nil
	}

	if j.refresher != nil {
		if err := add("warm", warmSpec, j.Warm); err != nil {
			return err
		}
	}
	if j.archiver != nil {
		if err := add("archive", archiveSpec, j.Archive); err != nil {
			return err
		}
	}
	return nil
}

// NewCron builds a scheduler in loc that logs through logger, recovers
// from panics and skips a run while the previous one is still going.
func NewCron(loc *time.Location, logger *logrus.Logger) *cron.Cron {
	cronLogger := cron.PrintfLogger(logger)
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}
