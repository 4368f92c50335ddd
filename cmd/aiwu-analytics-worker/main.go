package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/app"
	"github.com/platinummonkey/aiwu-analytics/pkg/config"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
	"github.com/platinummonkey/aiwu-analytics/pkg/worker"
)

var (
	warmSchedule    = flag.String("warm-schedule", "", "Cron schedule for cache warming (default: AIWU_ANALYTICS_WARM_SCHEDULE)")
	archiveSchedule = flag.String("archive-schedule", "", "Cron schedule for snapshot archiving (default: AIWU_ANALYTICS_ARCHIVE_SCHEDULE)")
	jobTimeout      = flag.Duration("job-timeout", 5*time.Minute, "Maximum duration of one job run")
	runOnce         = flag.Bool("run-once", false, "Warm the cache and archive one snapshot, then exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *warmSchedule != "" {
		cfg.Worker.WarmSchedule = *warmSchedule
	}
	if *archiveSchedule != "" {
		cfg.Worker.ArchiveSchedule = *archiveSchedule
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("AIWU analytics worker failed")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	// A worker without Redis warms nothing anyone else can read.
	var refresher worker.Refresher
	if application.Cached != nil && application.Redis != nil {
		refresher = application.Cached
	} else {
		logger.Warn("Shared Redis cache unavailable, cache warming disabled")
	}
	var archiver worker.Archiver
	if application.Archiver != nil {
		archiver = application.Archiver
	}

	jobs := worker.NewJobs(application.Engine, refresher, archiver, cfg.Worker.WarmWindows, cfg.Engine.Location, logger)

	if *runOnce {
		runCtx, cancel := context.WithTimeout(ctx, *jobTimeout)
		defer cancel()
		if err := jobs.RunOnce(runCtx); err != nil {
			return err
		}
		logger.Info("Worker run completed successfully")
		return nil
	}

	c := worker.NewCron(cfg.Engine.Location, logger)
	if err := jobs.Schedule(ctx, c, cfg.Worker.WarmSchedule, cfg.Worker.ArchiveSchedule, *jobTimeout); err != nil {
		return err
	}

	c.Start()
	logger.Info("AIWU analytics worker started")

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	stopped := c.Stop()
	<-stopped.Done()

	logger.Info("Worker stopped")
	return nil
}
