package models

import (
	"time"

	"github.com/google/uuid"
)

// Sku is a modem model in the catalog. SerialPattern, when set, is the
// regular expression a unit serial must match before registration.
type Sku struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string    `gorm:"column:code;not null;uniqueIndex"`
	Name          string    `gorm:"column:name;not null"`
	ItemNumber    string    `gorm:"column:item_number;not null;default:''"`
	Description   *string   `gorm:"column:description"`
	SerialPattern *string   `gorm:"column:serial_pattern"`
	Active        bool      `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
