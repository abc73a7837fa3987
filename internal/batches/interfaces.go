package batches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

// BatchKey is the grouping key for open batches. At most one EN_PROCESO
// batch exists per key.
type BatchKey struct {
	SkuID       uuid.UUID
	Operator    string
	Type        enums.LoteType
	IsScrap     bool
	ScrapReason *enums.ScrapReason
}

// BatchFilters narrows batch listings.
type BatchFilters struct {
	Type    *enums.LoteType
	State   *enums.LoteState
	SkuID   *uuid.UUID
	IsScrap *bool
}

// BatchList is one page of batches plus the cursor for the next page.
type BatchList struct {
	Lotes      []models.Lote
	NextCursor *string
}

// Repository defines persistence operations for batches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lote *models.Lote) (*models.Lote, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lote, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Lote, error)
	FindOpenByKey(ctx context.Context, key BatchKey) (*models.Lote, error)
	List(ctx context.Context, params pagination.Params, filters BatchFilters) (*BatchList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountUnits(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (int64, error)
	CountUnitsByPhase(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (map[enums.ProcessPhase]int64, error)
}
