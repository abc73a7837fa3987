package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// TransitionRule maps (from state, event) to a destination state plus the
// roles allowed to fire the event. A missing row means the transition does
// not exist, regardless of role.
type TransitionRule struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromStateID uuid.UUID     `gorm:"column:from_state_id;type:uuid;not null;uniqueIndex:idx_rule_from_event"`
	Event       string        `gorm:"column:event;not null;uniqueIndex:idx_rule_from_event"`
	ToStateID   uuid.UUID     `gorm:"column:to_state_id;type:uuid;not null"`
	Roles       RoleList      `gorm:"column:roles;type:jsonb;serializer:json;not null"`
	FromState   *ProcessState `gorm:"foreignKey:FromStateID"`
	ToState     *ProcessState `gorm:"foreignKey:ToStateID"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// RoleList is the set of roles permitted by a rule.
type RoleList []enums.OperatorRole

// Contains reports whether role is present in the list.
func (r RoleList) Contains(role enums.OperatorRole) bool {
	for _, item := range r {
		if item == role {
			return true
		}
	}
	return false
}
