package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// Repository defines persistence operations for the SKU and state catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSku(ctx context.Context, sku *models.Sku) (*models.Sku, error)
	FindSkuByID(ctx context.Context, id uuid.UUID) (*models.Sku, error)
	FindSkuByCode(ctx context.Context, code string) (*models.Sku, error)
	ListSkus(ctx context.Context, activeOnly bool) ([]models.Sku, error)
	UpdateSku(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateProcessState(ctx context.Context, state *models.ProcessState) (*models.ProcessState, error)
	FindStateByName(ctx context.Context, name enums.ProcessPhase) (*models.ProcessState, error)
	FindStateByID(ctx context.Context, id uuid.UUID) (*models.ProcessState, error)
	ListStates(ctx context.Context) ([]models.ProcessState, error)
}
