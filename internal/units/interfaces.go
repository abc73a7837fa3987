package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

// UnitFilters narrows unit listings.
type UnitFilters struct {
	Phase           *enums.ProcessPhase
	SkuID           *uuid.UUID
	LoteID          *uuid.UUID
	IncludeInactive bool
}

// UnitList is one page of units plus the cursor for the next page.
type UnitList struct {
	Units      []models.Modem
	NextCursor *string
}

// Repository defines persistence operations for tracked units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, modem *models.Modem) (*models.Modem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Modem, error)
	FindBySerial(ctx context.Context, serial string) (*models.Modem, error)
	FindActiveBySerial(ctx context.Context, serial string) (*models.Modem, error)
	FindBySerialForUpdate(ctx context.Context, serial string) (*models.Modem, error)
	List(ctx context.Context, params pagination.Params, filters UnitFilters) (*UnitList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountByLote(ctx context.Context, loteID uuid.UUID) (int64, error)
}
