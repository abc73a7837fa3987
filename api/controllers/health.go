package controllers

import (
	"context"
	"net/http"

	"github.com/rcastellanos/modemtrack-backend/api/responses"
	"github.com/rcastellanos/modemtrack-backend/pkg/config"
	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/redis"
)

type pubsubPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ModemTrack-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every hard dependency. Pub/Sub is optional: notifications
// are fire and forget, so a nil client does not fail readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, psP pubsubPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ModemTrack-Env", cfg.App.Env)

		checks := map[string]string{}
		failed := false

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = err.Error()
				failed = true
			} else {
				checks["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = err.Error()
				failed = true
			} else {
				checks["redis"] = "ok"
			}
		}
		if psP != nil {
			if err := psP.Ping(r.Context()); err != nil {
				checks["pubsub"] = err.Error()
			} else {
				checks["pubsub"] = "ok"
			}
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
