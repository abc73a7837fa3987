package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcastellanos/modemtrack-backend/api/controllers"
	"github.com/rcastellanos/modemtrack-backend/api/middleware"
	"github.com/rcastellanos/modemtrack-backend/internal/batches"
	"github.com/rcastellanos/modemtrack-backend/internal/catalog"
	"github.com/rcastellanos/modemtrack-backend/internal/engine"
	"github.com/rcastellanos/modemtrack-backend/internal/units"
	"github.com/rcastellanos/modemtrack-backend/pkg/config"
	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/redis"
)

// PubSubPinger is the health-check surface of the optional Pub/Sub client.
type PubSubPinger interface {
	Ping(ctx context.Context) error
}

// operatorRoles are the roles allowed to mutate units and batches. Viewers
// read only; the warehouse admin passes every gate.
var operatorRoles = []enums.OperatorRole{
	enums.OperatorRoleRegistration,
	enums.OperatorRoleInitialTest,
	enums.OperatorRoleAssembly,
	enums.OperatorRoleRetest,
	enums.OperatorRolePackaging,
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pubsubP PubSubPinger,
	engineSvc engine.Service,
	unitsSvc units.Service,
	batchSvc batches.Service,
	catalogSvc catalog.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	scanPolicy := middleware.NewScanRateLimitPolicy(
		"scan",
		cfg.ScanRateLimit.Window,
		cfg.ScanRateLimit.IPLimit,
		cfg.ScanRateLimit.OperatorLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, pubsubP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/units", func(r chi.Router) {
			r.Get("/", controllers.UnitList(unitsSvc, logg))
			r.With(
				middleware.RequireRole(logg, enums.OperatorRoleRegistration),
				middleware.ScanRateLimit(scanPolicy, redisClient, logg),
			).Post("/", controllers.UnitRegister(engineSvc, logg))
			r.Route("/{serial}", func(r chi.Router) {
				r.Get("/", controllers.UnitDetail(unitsSvc, logg))
				r.Get("/history", controllers.UnitHistory(engineSvc, logg))
				r.Get("/transitions", controllers.UnitAvailableTransitions(engineSvc, logg))
				r.With(middleware.RequireRole(logg)).Post("/deactivate", controllers.UnitDeactivate(unitsSvc, logg))
				r.With(middleware.RequireRole(logg)).Post("/reactivate", controllers.UnitReactivate(unitsSvc, logg))
			})
		})

		r.With(
			middleware.RequireRole(logg, operatorRoles...),
			middleware.ScanRateLimit(scanPolicy, redisClient, logg),
		).Post("/transitions", controllers.TransitionApply(engineSvc, redisClient, cfg.Engine.ScanDebounce, logg))

		r.Route("/scrap", func(r chi.Router) {
			r.Use(
				middleware.RequireRole(logg, operatorRoles...),
				middleware.ScanRateLimit(scanPolicy, redisClient, logg),
			)
			r.Post("/", controllers.ScrapRecord(engineSvc, logg))
			r.Post("/exit", controllers.ScrapExit(engineSvc, logg))
		})

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", controllers.BatchList(batchSvc, logg))
			r.Get("/{loteId}", controllers.BatchDetail(batchSvc, logg))
			r.With(middleware.RequireRole(logg, operatorRoles...)).Post("/confirm", controllers.BatchConfirm(batchSvc, logg))
			r.With(middleware.RequireRole(logg, operatorRoles...)).Post("/{loteId}/close", controllers.BatchClose(batchSvc, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/skus", controllers.SkuList(catalogSvc, logg))
			r.With(middleware.RequireRole(logg)).Post("/skus", controllers.SkuCreate(catalogSvc, logg))
			r.With(middleware.RequireRole(logg)).Patch("/skus/{skuId}/active", controllers.SkuSetActive(catalogSvc, logg))
			r.Get("/states", controllers.StateList(catalogSvc, logg))
		})
	})

	return r
}
