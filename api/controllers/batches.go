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
	"github.com/rcastellanos/modemtrack-backend/internal/batches"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

// BatchList returns a cursor-paginated page of batches.
func BatchList(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := batches.BatchFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			loteType := enums.LoteType(strings.ToUpper(raw))
			if !loteType.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown batch type"))
				return
			}
			filters.Type = &loteType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("state")); raw != "" {
			state := enums.LoteState(strings.ToUpper(raw))
			if !state.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown batch state"))
				return
			}
			filters.State = &state
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("sku_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku_id"))
				return
			}
			filters.SkuID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("is_scrap")); raw != "" {
			isScrap, err := validators.ParseQueryBool(r, "is_scrap", false)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters.IsScrap = &isScrap
		}

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]loteResponse, 0, len(page.Lotes))
		for i := range page.Lotes {
			items = append(items, *loteResponseFromModel(&page.Lotes[i]))
		}
		responses.WriteSuccess(w, listResponse[loteResponse]{Items: items, NextCursor: page.NextCursor})
	}
}

// BatchDetail returns one batch with its unit count.
func BatchDetail(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "loteId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch id"))
			return
		}
		stats, err := svc.GetBatch(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batchStatsResponseFrom(stats))
	}
}

// BatchConfirm verifies the caller's open inbound batch for a SKU is
// non-empty and reports its counts without closing it.
func BatchConfirm(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchConfirmRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := uuid.Parse(req.SkuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku_id"))
			return
		}
		operator := middleware.OperatorFromContext(r.Context())

		stats, err := svc.ConfirmInbound(r.Context(), skuID, operator)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batchStatsResponseFrom(stats))
	}
}

// BatchClose closes an open batch. Fails when the batch is missing, already
// closed, or still empty.
func BatchClose(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "loteId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch id"))
			return
		}
		stats, err := svc.CloseBatch(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batchStatsResponseFrom(stats))
	}
}

type batchConfirmRequest struct {
	SkuID string `json:"sku_id" validate:"required"`
}

type batchStatsResponse struct {
	Lote        loteResponse                 `json:"lote"`
	UnitCount   int64                        `json:"unit_count"`
	PhaseCounts map[enums.ProcessPhase]int64 `json:"phase_counts,omitempty"`
}

func batchStatsResponseFrom(stats *batches.BatchStats) batchStatsResponse {
	return batchStatsResponse{
		Lote:        *loteResponseFromModel(stats.Lote),
		UnitCount:   stats.UnitCount,
		PhaseCounts: stats.PhaseCounts,
	}
}

type loteResponse struct {
	ID          uuid.UUID          `json:"id"`
	Number      string             `json:"number"`
	Type        enums.LoteType     `json:"type"`
	State       enums.LoteState    `json:"state"`
	SkuID       uuid.UUID          `json:"sku_id"`
	Operator    string             `json:"operator"`
	IsScrap     bool               `json:"is_scrap"`
	ScrapReason *enums.ScrapReason `json:"scrap_reason,omitempty"`
	ClosedAt    *time.Time         `json:"closed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func loteResponseFromModel(m *models.Lote) *loteResponse {
	if m == nil {
		return nil
	}
	return &loteResponse{
		ID:          m.ID,
		Number:      m.Number,
		Type:        m.Type,
		State:       m.State,
		SkuID:       m.SkuID,
		Operator:    m.Operator,
		IsScrap:     m.IsScrap,
		ScrapReason: m.ScrapReason,
		ClosedAt:    m.ClosedAt,
		CreatedAt:   m.CreatedAt,
	}
}
