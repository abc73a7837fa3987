package transitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
)

// Repository defines persistence operations for the transition rule table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRule(ctx context.Context, rule *models.TransitionRule) (*models.TransitionRule, error)
	FindRule(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error)
	ListRulesFrom(ctx context.Context, fromStateID uuid.UUID) ([]models.TransitionRule, error)
	ListRules(ctx context.Context) ([]models.TransitionRule, error)
	DeleteAllRules(ctx context.Context) error
}
