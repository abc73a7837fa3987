package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
)

// Service exposes catalog reads plus the SKU admin operations.
type Service interface {
	CreateSku(ctx context.Context, input CreateSkuInput) (*models.Sku, error)
	GetSkuByCode(ctx context.Context, code string) (*models.Sku, error)
	ListSkus(ctx context.Context, activeOnly bool) ([]models.Sku, error)
	SetSkuActive(ctx context.Context, id uuid.UUID, active bool) error
	ListStates(ctx context.Context) ([]models.ProcessState, error)
	GetStateByName(ctx context.Context, name enums.ProcessPhase) (*models.ProcessState, error)
}

type service struct {
	repo Repository
}

// CreateSkuInput carries the fields needed to register a SKU.
type CreateSkuInput struct {
	Code          string
	Name          string
	ItemNumber    string
	Description   *string
	SerialPattern *string
}

// NewService builds a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateSku(ctx context.Context, input CreateSkuInput) (*models.Sku, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku code is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku name is required")
	}
	if input.SerialPattern != nil {
		if _, err := regexp.Compile(*input.SerialPattern); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid serial pattern")
		}
	}

	sku := &models.Sku{
		Code:          code,
		Name:          name,
		ItemNumber:    strings.TrimSpace(input.ItemNumber),
		Description:   input.Description,
		SerialPattern: input.SerialPattern,
		Active:        true,
	}
	created, err := s.repo.CreateSku(ctx, sku)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %s already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating sku")
	}
	return created, nil
}

func (s *service) GetSkuByCode(ctx context.Context, code string) (*models.Sku, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku code is required")
	}
	sku, err := s.repo.FindSkuByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("sku %s not found", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sku")
	}
	return sku, nil
}

func (s *service) ListSkus(ctx context.Context, activeOnly bool) ([]models.Sku, error) {
	skus, err := s.repo.ListSkus(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing skus")
	}
	return skus, nil
}

func (s *service) SetSkuActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.repo.FindSkuByID(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sku")
	}
	if err := s.repo.UpdateSku(ctx, id, map[string]any{"active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating sku")
	}
	return nil
}

func (s *service) ListStates(ctx context.Context) ([]models.ProcessState, error) {
	states, err := s.repo.ListStates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing process states")
	}
	return states, nil
}

func (s *service) GetStateByName(ctx context.Context, name enums.ProcessPhase) (*models.ProcessState, error) {
	if !name.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown process state %q", name))
	}
	state, err := s.repo.FindStateByName(ctx, name)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("process state %s not seeded", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading process state")
	}
	return state, nil
}
