package batches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a batch repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lote *models.Lote) (*models.Lote, error) {
	if err := r.db.WithContext(ctx).Create(lote).Error; err != nil {
		return nil, err
	}
	return lote, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lote, error) {
	var lote models.Lote
	err := r.db.WithContext(ctx).
		Preload("Sku").
		Where("id = ?", id).
		First(&lote).Error
	if err != nil {
		return nil, err
	}
	return &lote, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Lote, error) {
	var lote models.Lote
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&lote).Error
	if err != nil {
		return nil, err
	}
	return &lote, nil
}

// FindOpenByKey locks the newest open batch for the key, serializing
// concurrent resolve-or-create calls on the same key.
func (r *repository) FindOpenByKey(ctx context.Context, key BatchKey) (*models.Lote, error) {
	q := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sku_id = ? AND operator = ? AND type = ? AND is_scrap = ? AND state = ?",
			key.SkuID, key.Operator, key.Type, key.IsScrap, enums.LoteStateInProgress)
	if key.ScrapReason != nil {
		q = q.Where("scrap_reason = ?", *key.ScrapReason)
	} else {
		q = q.Where("scrap_reason IS NULL")
	}

	var lote models.Lote
	if err := q.Order("created_at DESC").First(&lote).Error; err != nil {
		return nil, err
	}
	return &lote, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters BatchFilters) (*BatchList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).
		Preload("Sku").
		Order("created_at DESC, id DESC").
		Limit(limit)

	if filters.Type != nil {
		q = q.Where("type = ?", *filters.Type)
	}
	if filters.State != nil {
		q = q.Where("state = ?", *filters.State)
	}
	if filters.SkuID != nil {
		q = q.Where("sku_id = ?", *filters.SkuID)
	}
	if filters.IsScrap != nil {
		q = q.Where("is_scrap = ?", *filters.IsScrap)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Lote
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &BatchList{Lotes: rows}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		list.Lotes = rows[:pageSize]
		last := list.Lotes[len(list.Lotes)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Lote{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CountUnits(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (int64, error) {
	column := "inbound_lote_id"
	if loteType == enums.LoteTypeOutbound {
		column = "outbound_lote_id"
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Modem{}).
		Where(column+" = ? AND active = ?", loteID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountUnitsByPhase(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (map[enums.ProcessPhase]int64, error) {
	column := "inbound_lote_id"
	if loteType == enums.LoteTypeOutbound {
		column = "outbound_lote_id"
	}
	var rows []struct {
		Phase enums.ProcessPhase
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Modem{}).
		Select("phase, COUNT(*) AS total").
		Where(column+" = ? AND active = ?", loteID, true).
		Group("phase").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.ProcessPhase]int64, len(rows))
	for _, row := range rows {
		counts[row.Phase] = row.Total
	}
	return counts, nil
}
