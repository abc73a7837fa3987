package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// Registro is one immutable audit row: who moved which unit where, and with
// what outcome. Rows are never updated; the retention job may prune
// intermediate rows for long-finished units.
type Registro struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ModemID    uuid.UUID             `gorm:"column:modem_id;type:uuid;not null;index:idx_registros_modem_created"`
	Serial     string                `gorm:"column:serial;not null"`
	Event      string                `gorm:"column:event;not null"`
	FromPhase  *enums.ProcessPhase   `gorm:"column:from_phase;type:text"`
	ToPhase    enums.ProcessPhase    `gorm:"column:to_phase;type:text;not null"`
	Outcome    enums.RegistroOutcome `gorm:"column:outcome;type:text;not null"`
	Operator   string                `gorm:"column:operator;not null"`
	Role       enums.OperatorRole    `gorm:"column:role;type:text;not null"`
	LoteID     *uuid.UUID            `gorm:"column:lote_id;type:uuid"`
	RepairCode *string               `gorm:"column:repair_code"`
	Notes      *string               `gorm:"column:notes"`
	Modem      *Modem                `gorm:"foreignKey:ModemID"`
	Lote       *Lote                 `gorm:"foreignKey:LoteID"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime;index:idx_registros_modem_created"`
}
