package controllers

import (
	"net/http"

	"github.com/rcastellanos/modemtrack-backend/api/middleware"
	"github.com/rcastellanos/modemtrack-backend/api/responses"
	"github.com/rcastellanos/modemtrack-backend/api/validators"
	"github.com/rcastellanos/modemtrack-backend/internal/engine"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
)

type scrapRequest struct {
	Serial     string `json:"serial" validate:"required"`
	ReasonText string `json:"reason_text" validate:"required"`
	DetailText string `json:"detail_text"`
}

// ScrapRecord rejects a unit out of its current phase. The reason free text
// is classified server side.
func ScrapRecord(svc engine.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engine service unavailable"))
			return
		}

		var payload scrapRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordScrap(r.Context(), engine.RecordScrapInput{
			Serial:     payload.Serial,
			ReasonText: payload.ReasonText,
			DetailText: payload.DetailText,
			Operator:   middleware.OperatorFromContext(r.Context()),
			Role:       middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transitionResponseFromResult(result))
	}
}

type scrapExitRequest struct {
	Serial string `json:"serial" validate:"required"`
}

// ScrapExit moves an already scrapped unit into the outbound scrap batch for
// its reason.
func ScrapExit(svc engine.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engine service unavailable"))
			return
		}

		var payload scrapExitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ScrapExit(r.Context(), engine.ScrapExitInput{
			Serial:   payload.Serial,
			Operator: middleware.OperatorFromContext(r.Context()),
			Role:     middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transitionResponseFromResult(result))
	}
}
