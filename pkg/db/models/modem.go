package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// Modem is a tracked production unit. Serial is stored uppercase and stays
// unique across both active and deactivated rows, so a deleted serial can
// only come back through reactivation.
type Modem struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Serial         string             `gorm:"column:serial;not null;uniqueIndex"`
	SkuID          uuid.UUID          `gorm:"column:sku_id;type:uuid;not null"`
	StateID        uuid.UUID          `gorm:"column:state_id;type:uuid;not null"`
	Phase          enums.ProcessPhase `gorm:"column:phase;type:text;not null"`
	RetestDone     bool               `gorm:"column:retest_done;not null;default:false"`
	ScrapReason    *enums.ScrapReason `gorm:"column:scrap_reason;type:text"`
	ScrapDetail    *enums.ScrapDetail `gorm:"column:scrap_detail;type:text"`
	InboundLoteID  *uuid.UUID         `gorm:"column:inbound_lote_id;type:uuid"`
	OutboundLoteID *uuid.UUID         `gorm:"column:outbound_lote_id;type:uuid"`
	Active         bool               `gorm:"column:active;not null;default:true"`
	DeactivatedAt  *time.Time         `gorm:"column:deactivated_at"`
	Sku            *Sku               `gorm:"foreignKey:SkuID"`
	State          *ProcessState      `gorm:"foreignKey:StateID"`
	InboundLote    *Lote              `gorm:"foreignKey:InboundLoteID"`
	OutboundLote   *Lote              `gorm:"foreignKey:OutboundLoteID"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
