package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rcastellanos/modemtrack-backend/api/routes"
	"github.com/rcastellanos/modemtrack-backend/internal/audit"
	"github.com/rcastellanos/modemtrack-backend/internal/batches"
	"github.com/rcastellanos/modemtrack-backend/internal/catalog"
	"github.com/rcastellanos/modemtrack-backend/internal/engine"
	"github.com/rcastellanos/modemtrack-backend/internal/notifications"
	"github.com/rcastellanos/modemtrack-backend/internal/transitions"
	"github.com/rcastellanos/modemtrack-backend/internal/units"
	"github.com/rcastellanos/modemtrack-backend/pkg/config"
	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/metrics"
	"github.com/rcastellanos/modemtrack-backend/pkg/migrate"
	"github.com/rcastellanos/modemtrack-backend/pkg/pubsub"
	"github.com/rcastellanos/modemtrack-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// Notifications are fire-and-forget: when pub/sub is unavailable the
	// line keeps running and moves are only logged.
	var pubsubP routes.PubSubPinger
	var notifier engine.Notifier = notifications.NewPubSubNotifier(nil, logg)
	psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Warn(context.Background(), "pub/sub unavailable, unit move events will not be published")
	} else {
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pub/sub", err)
			}
		}()
		pubsubP = psClient
		notifier = notifications.NewPubSubNotifier(psClient.ActionsPublisher(), logg)
	}

	unitsRepo := units.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	rulesRepo := transitions.NewRepository(dbClient.DB())
	auditRepo := audit.NewRepository(dbClient.DB())
	batchesRepo := batches.NewRepository(dbClient.DB())

	batchSvc, err := batches.NewService(batchesRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create batch service", err)
		os.Exit(1)
	}
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	unitsSvc, err := units.NewService(unitsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create units service", err)
		os.Exit(1)
	}
	rulesSvc, err := transitions.NewService(rulesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create transitions service", err)
		os.Exit(1)
	}

	engineSvc, err := engine.NewService(
		unitsRepo,
		catalogRepo,
		rulesRepo,
		auditRepo,
		batchSvc,
		dbClient,
		logg,
		engine.Options{
			Notifier: notifier,
			Metrics:  metrics.NewTransitionMetrics(prometheus.DefaultRegisterer),
			Debounce: cfg.Engine.ScanDebounce,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create transition engine", err)
		os.Exit(1)
	}

	// Fail fast on a broken rule table rather than rejecting scans later.
	states, err := catalogSvc.ListStates(context.Background())
	if err != nil {
		logg.Error(context.Background(), "failed to load process states", err)
		os.Exit(1)
	}
	if err := rulesSvc.ValidateGraph(context.Background(), states); err != nil {
		logg.Error(context.Background(), "transition rule table is invalid", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, pubsubP, engineSvc, unitsSvc, batchSvc, catalogSvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
