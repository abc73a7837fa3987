package transitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transition rule repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRule(ctx context.Context, rule *models.TransitionRule) (*models.TransitionRule, error) {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *repository) FindRule(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
	var rule models.TransitionRule
	err := r.db.WithContext(ctx).
		Preload("FromState").
		Preload("ToState").
		Where("from_state_id = ? AND event = ?", fromStateID, event).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListRulesFrom(ctx context.Context, fromStateID uuid.UUID) ([]models.TransitionRule, error) {
	var rules []models.TransitionRule
	err := r.db.WithContext(ctx).
		Preload("ToState").
		Where("from_state_id = ?", fromStateID).
		Order("event ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) ListRules(ctx context.Context) ([]models.TransitionRule, error) {
	var rules []models.TransitionRule
	err := r.db.WithContext(ctx).
		Preload("FromState").
		Preload("ToState").
		Order("event ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) DeleteAllRules(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.TransitionRule{}).Error
}
