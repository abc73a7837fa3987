package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/internal/catalog"
	"github.com/rcastellanos/modemtrack-backend/internal/transitions"
	"github.com/rcastellanos/modemtrack-backend/pkg/config"
	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/migrate"
)

// Seeds the process state catalog and the transition rule table, then
// validates the resulting graph. Safe to re-run: both seeders upsert.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
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

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "seeding catalog and transition rules")

	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := catalog.Seed(ctx, tx); err != nil {
			return err
		}
		return transitions.Seed(ctx, tx)
	})
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	rulesSvc, err := transitions.NewService(transitions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create transitions service", err)
		os.Exit(1)
	}

	states, err := catalogSvc.ListStates(ctx)
	if err != nil {
		logg.Error(ctx, "failed to load process states", err)
		os.Exit(1)
	}
	if err := rulesSvc.ValidateGraph(ctx, states); err != nil {
		logg.Error(ctx, "seeded rule table is invalid", err)
		os.Exit(1)
	}

	logg.Info(ctx, "seed complete")
}
