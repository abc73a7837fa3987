package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/api/middleware"
	"github.com/rcastellanos/modemtrack-backend/api/responses"
	"github.com/rcastellanos/modemtrack-backend/api/validators"
	"github.com/rcastellanos/modemtrack-backend/internal/engine"
	"github.com/rcastellanos/modemtrack-backend/internal/units"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
)

// debounceGuard is the Redis-backed pre-check against double scans. The
// authoritative window lives inside the engine transaction; this one only
// sheds the obvious duplicates before they hit the database.
type debounceGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	DebounceKey(serial, event string) string
}

type transitionRequest struct {
	Serial     string  `json:"serial" validate:"required"`
	Event      string  `json:"event" validate:"required"`
	ReasonText string  `json:"reason_text"`
	DetailText string  `json:"detail_text"`
	RepairCode *string `json:"repair_code"`
	Notes      *string `json:"notes"`
}

type transitionResponse struct {
	Unit          unitResponse       `json:"unit"`
	PreviousPhase enums.ProcessPhase `json:"previous_phase"`
	NewPhase      enums.ProcessPhase `json:"new_phase"`
	LoteID        *uuid.UUID         `json:"lote_id,omitempty"`
}

// TransitionApply fires one transition event for a scanned serial.
func TransitionApply(svc engine.Service, guard debounceGuard, debounce time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engine service unavailable"))
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		serial := units.NormalizeSerial(payload.Serial)
		var guardKey string
		if guard != nil && debounce > 0 {
			guardKey = guard.DebounceKey(serial, payload.Event)
			// Redis being down must not block the line; errors fall through to
			// the in-transaction check.
			if ok, err := guard.SetNX(r.Context(), guardKey, 1, debounce); err == nil && !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "duplicate scan"))
				return
			}
		}

		result, err := svc.ApplyTransition(r.Context(), engine.ApplyTransitionInput{
			Serial:     serial,
			Event:      payload.Event,
			Operator:   middleware.OperatorFromContext(r.Context()),
			Role:       middleware.RoleFromContext(r.Context()),
			ReasonText: payload.ReasonText,
			DetailText: payload.DetailText,
			RepairCode: payload.RepairCode,
			Notes:      payload.Notes,
		})
		if err != nil {
			// a rejected transition wrote no audit row; release the key so a
			// corrected rescan is not debounced
			if guardKey != "" {
				_ = guard.Del(r.Context(), guardKey)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transitionResponseFromResult(result))
	}
}

func transitionResponseFromResult(result *engine.TransitionResult) transitionResponse {
	return transitionResponse{
		Unit:          unitResponseFromModel(result.Unit),
		PreviousPhase: result.PreviousPhase,
		NewPhase:      result.NewPhase,
		LoteID:        result.LoteID,
	}
}
