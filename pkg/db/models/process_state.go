package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// ProcessState is a station in the production line. Sequence orders the
// main flow; terminal states carry a sequence of zero.
type ProcessState struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      enums.ProcessPhase `gorm:"column:name;type:text;not null;uniqueIndex"`
	Label     string             `gorm:"column:label;not null"`
	Sequence  int                `gorm:"column:sequence;not null;default:0"`
	Terminal  bool               `gorm:"column:terminal;not null;default:false"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
