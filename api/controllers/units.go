package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/api/middleware"
	"github.com/rcastellanos/modemtrack-backend/api/responses"
	"github.com/rcastellanos/modemtrack-backend/api/validators"
	"github.com/rcastellanos/modemtrack-backend/internal/engine"
	"github.com/rcastellanos/modemtrack-backend/internal/units"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

type unitRegisterRequest struct {
	SkuCode string `json:"sku_code" validate:"required"`
	Serial  string `json:"serial" validate:"required"`
}

// UnitRegister scans a new serial into REGISTRO.
func UnitRegister(svc engine.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engine service unavailable"))
			return
		}

		var payload unitRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RegisterUnit(r.Context(), engine.RegisterUnitInput{
			SkuCode:  payload.SkuCode,
			Serial:   payload.Serial,
			Operator: middleware.OperatorFromContext(r.Context()),
			Role:     middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Reactivated {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, registerResponse{
			Unit:        unitResponseFromModel(result.Unit),
			Lote:        loteResponseFromModel(result.Lote),
			Reactivated: result.Reactivated,
		})
	}
}

// UnitDetail returns an active unit by serial.
func UnitDetail(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unit, err := svc.GetBySerial(r.Context(), chi.URLParam(r, "serial"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unitResponseFromModel(unit))
	}
}

// UnitHistory returns the full audit trail for a serial, oldest first.
func UnitHistory(svc engine.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := svc.GetUnitHistory(r.Context(), chi.URLParam(r, "serial"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]registroResponse, 0, len(history))
		for i := range history {
			items = append(items, registroResponseFromModel(&history[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// UnitAvailableTransitions lists the event names the caller can fire for the
// unit's current state.
func UnitAvailableTransitions(svc engine.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.GetAvailableTransitions(r.Context(), chi.URLParam(r, "serial"), middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"events": events})
	}
}

// UnitDeactivate soft-deletes a unit. The serial can be registered again
// later, which reactivates the same row.
func UnitDeactivate(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Deactivate(r.Context(), chi.URLParam(r, "serial")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// UnitReactivate restores a soft-deleted unit without rewinding its phase.
func UnitReactivate(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unit, err := svc.Reactivate(r.Context(), chi.URLParam(r, "serial"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unitResponseFromModel(unit))
	}
}

// UnitList returns a cursor-paginated page of units with optional filters.
func UnitList(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := units.UnitFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("phase")); raw != "" {
			phase := enums.ProcessPhase(strings.ToUpper(raw))
			if !phase.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown phase"))
				return
			}
			filters.Phase = &phase
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("sku_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku_id"))
				return
			}
			filters.SkuID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("lote_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lote_id"))
				return
			}
			filters.LoteID = &id
		}
		includeInactive, err := validators.ParseQueryBool(r, "include_inactive", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.IncludeInactive = includeInactive

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]unitResponse, 0, len(page.Units))
		for i := range page.Units {
			items = append(items, unitResponseFromModel(&page.Units[i]))
		}
		responses.WriteSuccess(w, listResponse[unitResponse]{Items: items, NextCursor: page.NextCursor})
	}
}

type listResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

type registerResponse struct {
	Unit        unitResponse  `json:"unit"`
	Lote        *loteResponse `json:"lote,omitempty"`
	Reactivated bool          `json:"reactivated"`
}

type unitResponse struct {
	ID             uuid.UUID          `json:"id"`
	Serial         string             `json:"serial"`
	SkuID          uuid.UUID          `json:"sku_id"`
	SkuCode        string             `json:"sku_code,omitempty"`
	Phase          enums.ProcessPhase `json:"phase"`
	RetestDone     bool               `json:"retest_done"`
	ScrapReason    *enums.ScrapReason `json:"scrap_reason,omitempty"`
	ScrapDetail    *enums.ScrapDetail `json:"scrap_detail,omitempty"`
	InboundLoteID  *uuid.UUID         `json:"inbound_lote_id,omitempty"`
	OutboundLoteID *uuid.UUID         `json:"outbound_lote_id,omitempty"`
	Active         bool               `json:"active"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func unitResponseFromModel(m *models.Modem) unitResponse {
	resp := unitResponse{
		ID:             m.ID,
		Serial:         m.Serial,
		SkuID:          m.SkuID,
		Phase:          m.Phase,
		RetestDone:     m.RetestDone,
		ScrapReason:    m.ScrapReason,
		ScrapDetail:    m.ScrapDetail,
		InboundLoteID:  m.InboundLoteID,
		OutboundLoteID: m.OutboundLoteID,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Sku != nil {
		resp.SkuCode = m.Sku.Code
	}
	return resp
}

type registroResponse struct {
	ID         uuid.UUID             `json:"id"`
	Serial     string                `json:"serial"`
	Event      string                `json:"event"`
	FromPhase  *enums.ProcessPhase   `json:"from_phase,omitempty"`
	ToPhase    enums.ProcessPhase    `json:"to_phase"`
	Outcome    enums.RegistroOutcome `json:"outcome"`
	Operator   string                `json:"operator"`
	Role       enums.OperatorRole    `json:"role"`
	LoteID     *uuid.UUID            `json:"lote_id,omitempty"`
	RepairCode *string               `json:"repair_code,omitempty"`
	Notes      *string               `json:"notes,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

func registroResponseFromModel(m *models.Registro) registroResponse {
	return registroResponse{
		ID:         m.ID,
		Serial:     m.Serial,
		Event:      m.Event,
		FromPhase:  m.FromPhase,
		ToPhase:    m.ToPhase,
		Outcome:    m.Outcome,
		Operator:   m.Operator,
		Role:       m.Role,
		LoteID:     m.LoteID,
		RepairCode: m.RepairCode,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
	}
}
