package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/api/responses"
	"github.com/rcastellanos/modemtrack-backend/api/validators"
	"github.com/rcastellanos/modemtrack-backend/internal/catalog"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
)

type skuCreateRequest struct {
	Code          string  `json:"code" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	ItemNumber    string  `json:"item_number" validate:"required"`
	Description   *string `json:"description"`
	SerialPattern *string `json:"serial_pattern"`
}

// SkuCreate registers a new SKU in the catalog.
func SkuCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload skuCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateSku(r.Context(), catalog.CreateSkuInput{
			Code:          payload.Code,
			Name:          payload.Name,
			ItemNumber:    payload.ItemNumber,
			Description:   payload.Description,
			SerialPattern: payload.SerialPattern,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, skuResponseFromModel(created))
	}
}

// SkuList returns the catalog, active SKUs only unless include_inactive is
// set.
func SkuList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive, err := validators.ParseQueryBool(r, "include_inactive", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skus, err := svc.ListSkus(r.Context(), !includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]skuResponse, 0, len(skus))
		for i := range skus {
			items = append(items, skuResponseFromModel(&skus[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

type skuActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SkuSetActive toggles a SKU's availability for new registrations.
func SkuSetActive(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "skuId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku id"))
			return
		}
		var payload skuActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetSkuActive(r.Context(), id, *payload.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": *payload.Active})
	}
}

// StateList returns the process states ordered by flow sequence.
func StateList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states, err := svc.ListStates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]stateResponse, 0, len(states))
		for i := range states {
			items = append(items, stateResponseFromModel(&states[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

type skuResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ItemNumber    string    `json:"item_number"`
	Description   *string   `json:"description,omitempty"`
	SerialPattern *string   `json:"serial_pattern,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func skuResponseFromModel(m *models.Sku) skuResponse {
	return skuResponse{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		ItemNumber:    m.ItemNumber,
		Description:   m.Description,
		SerialPattern: m.SerialPattern,
		Active:        m.Active,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type stateResponse struct {
	ID       uuid.UUID          `json:"id"`
	Name     enums.ProcessPhase `json:"name"`
	Label    string             `json:"label"`
	Sequence int                `json:"sequence"`
	Terminal bool               `json:"terminal"`
}

func stateResponseFromModel(m *models.ProcessState) stateResponse {
	return stateResponse{
		ID:       m.ID,
		Name:     m.Name,
		Label:    m.Label,
		Sequence: m.Sequence,
		Terminal: m.Terminal,
	}
}
