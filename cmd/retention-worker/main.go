package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rcastellanos/modemtrack-backend/internal/audit"
	"github.com/rcastellanos/modemtrack-backend/pkg/config"
	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/metrics"
	"github.com/rcastellanos/modemtrack-backend/pkg/migrate"
)

const jobName = "audit_retention"

// Prunes intermediate audit rows for units that already reached a terminal
// phase, keeping the first and last row per unit. Runs on a fixed interval
// and deletes in bounded batches so the line is never starved of locks.
func main() {
	logg := logger.New(logger.Options{ServiceName: "retention-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "retention-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	auditRepo := audit.NewRepository(dbClient.DB())
	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Retention.Interval.String(),
	})
	logg.Info(ctx, "starting retention worker")

	runOnce(ctx, logg, auditRepo, jobMetrics, cfg.Retention.BatchSize)

	ticker := time.NewTicker(cfg.Retention.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "retention worker stopped unexpectedly", err)
				os.Exit(1)
			}
			logg.Info(ctx, "retention worker shutting down gracefully")
			return
		case <-ticker.C:
			runOnce(ctx, logg, auditRepo, jobMetrics, cfg.Retention.BatchSize)
		}
	}
}

func runOnce(ctx context.Context, logg *logger.Logger, repo audit.Repository, jobMetrics *metrics.CronJobMetrics, batchSize int) {
	start := time.Now()
	var total int64
	for {
		pruned, err := repo.PruneIntermediate(ctx, batchSize)
		if err != nil {
			jobMetrics.IncFailure(jobName)
			logg.Error(ctx, "audit retention pass failed", err)
			return
		}
		total += pruned
		if pruned < int64(batchSize) {
			break
		}
	}
	jobMetrics.ObserveDuration(jobName, time.Since(start))
	jobMetrics.IncSuccess(jobName)
	logg.Info(logg.WithFields(ctx, map[string]any{
		"pruned":   total,
		"duration": time.Since(start).String(),
	}), "audit retention pass complete")
}
