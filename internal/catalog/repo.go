package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSku(ctx context.Context, sku *models.Sku) (*models.Sku, error) {
	if err := r.db.WithContext(ctx).Create(sku).Error; err != nil {
		return nil, err
	}
	return sku, nil
}

func (r *repository) FindSkuByID(ctx context.Context, id uuid.UUID) (*models.Sku, error) {
	var sku models.Sku
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sku).Error
	if err != nil {
		return nil, err
	}
	return &sku, nil
}

func (r *repository) FindSkuByCode(ctx context.Context, code string) (*models.Sku, error) {
	var sku models.Sku
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&sku).Error
	if err != nil {
		return nil, err
	}
	return &sku, nil
}

func (r *repository) ListSkus(ctx context.Context, activeOnly bool) ([]models.Sku, error) {
	var skus []models.Sku
	q := r.db.WithContext(ctx).Order("code ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

func (r *repository) UpdateSku(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Sku{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateProcessState(ctx context.Context, state *models.ProcessState) (*models.ProcessState, error) {
	if err := r.db.WithContext(ctx).Create(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

func (r *repository) FindStateByName(ctx context.Context, name enums.ProcessPhase) (*models.ProcessState, error) {
	var state models.ProcessState
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) FindStateByID(ctx context.Context, id uuid.UUID) (*models.ProcessState, error) {
	var state models.ProcessState
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) ListStates(ctx context.Context) ([]models.ProcessState, error) {
	var states []models.ProcessState
	err := r.db.WithContext(ctx).
		Order("sequence ASC, name ASC").
		Find(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}
