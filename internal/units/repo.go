package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a unit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, modem *models.Modem) (*models.Modem, error) {
	if err := r.db.WithContext(ctx).Create(modem).Error; err != nil {
		return nil, err
	}
	return modem, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Modem, error) {
	var modem models.Modem
	err := r.db.WithContext(ctx).
		Preload("Sku").
		Preload("State").
		Where("id = ?", id).
		First(&modem).Error
	if err != nil {
		return nil, err
	}
	return &modem, nil
}

func (r *repository) FindBySerial(ctx context.Context, serial string) (*models.Modem, error) {
	var modem models.Modem
	err := r.db.WithContext(ctx).
		Preload("Sku").
		Preload("State").
		Where("serial = ?", serial).
		First(&modem).Error
	if err != nil {
		return nil, err
	}
	return &modem, nil
}

func (r *repository) FindActiveBySerial(ctx context.Context, serial string) (*models.Modem, error) {
	var modem models.Modem
	err := r.db.WithContext(ctx).
		Preload("Sku").
		Preload("State").
		Where("serial = ? AND active = ?", serial, true).
		First(&modem).Error
	if err != nil {
		return nil, err
	}
	return &modem, nil
}

// FindBySerialForUpdate locks the unit row for the remainder of the
// transaction so concurrent scans serialize on the same unit.
func (r *repository) FindBySerialForUpdate(ctx context.Context, serial string) (*models.Modem, error) {
	var modem models.Modem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("serial = ? AND active = ?", serial, true).
		First(&modem).Error
	if err != nil {
		return nil, err
	}
	return &modem, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters UnitFilters) (*UnitList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).
		Preload("Sku").
		Preload("State").
		Order("created_at DESC, id DESC").
		Limit(limit)

	if !filters.IncludeInactive {
		q = q.Where("active = ?", true)
	}
	if filters.Phase != nil {
		q = q.Where("phase = ?", *filters.Phase)
	}
	if filters.SkuID != nil {
		q = q.Where("sku_id = ?", *filters.SkuID)
	}
	if filters.LoteID != nil {
		q = q.Where("inbound_lote_id = ? OR outbound_lote_id = ?", *filters.LoteID, *filters.LoteID)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Modem
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &UnitList{Units: rows}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		list.Units = rows[:pageSize]
		last := list.Units[len(list.Units)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Modem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CountByLote(ctx context.Context, loteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Modem{}).
		Where("inbound_lote_id = ? OR outbound_lote_id = ?", loteID, loteID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
