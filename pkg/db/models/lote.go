package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// Lote is a production batch. Inbound batches group units as they enter the
// line; outbound batches group packaged or scrapped units on the way out.
// At most one EN_PROCESO batch exists per (sku, operator, type, scrap) key.
type Lote struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number      string             `gorm:"column:number;not null;uniqueIndex"`
	Type        enums.LoteType     `gorm:"column:type;type:text;not null"`
	State       enums.LoteState    `gorm:"column:state;type:text;not null;default:'EN_PROCESO'"`
	SkuID       uuid.UUID          `gorm:"column:sku_id;type:uuid;not null"`
	Operator    string             `gorm:"column:operator;not null"`
	IsScrap     bool               `gorm:"column:is_scrap;not null;default:false"`
	ScrapReason *enums.ScrapReason `gorm:"column:scrap_reason;type:text"`
	ClosedAt    *time.Time         `gorm:"column:closed_at"`
	Sku         *Sku               `gorm:"foreignKey:SkuID"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// IsOpen reports whether the batch still accepts units.
func (l *Lote) IsOpen() bool {
	return l.State == enums.LoteStateInProgress
}
