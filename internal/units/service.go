package units

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

// NormalizeSerial canonicalizes operator input: trimmed, uppercased. Every
// lookup and every stored serial goes through this.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// ValidateSerial checks the normalized serial against the SKU's configured
// pattern, when one is set.
func ValidateSerial(serial string, sku *models.Sku) error {
	if serial == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	if sku == nil || sku.SerialPattern == nil || *sku.SerialPattern == "" {
		return nil
	}
	re, err := regexp.Compile(*sku.SerialPattern)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("sku %s has a broken serial pattern", sku.Code))
	}
	if !re.MatchString(serial) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("serial %s does not match the %s format", serial, sku.Code))
	}
	return nil
}

// Service exposes unit registry reads and the soft-delete lifecycle.
type Service interface {
	GetBySerial(ctx context.Context, serial string) (*models.Modem, error)
	List(ctx context.Context, params pagination.Params, filters UnitFilters) (*UnitList, error)
	Deactivate(ctx context.Context, serial string) error
	Reactivate(ctx context.Context, serial string) (*models.Modem, error)
}

type service struct {
	repo Repository
}

// NewService builds a units service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("units repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetBySerial(ctx context.Context, serial string) (*models.Modem, error) {
	serial = NormalizeSerial(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	modem, err := s.repo.FindActiveBySerial(ctx, serial)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %s not found", serial))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}
	return modem, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters UnitFilters) (*UnitList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing units")
	}
	return list, nil
}

// Deactivate soft-deletes a unit. The serial stays reserved; registering it
// again requires Reactivate.
func (s *service) Deactivate(ctx context.Context, serial string) error {
	serial = NormalizeSerial(serial)
	modem, err := s.repo.FindBySerial(ctx, serial)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %s not found", serial))
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}
	if !modem.Active {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("unit %s is already deactivated", serial))
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"active":         false,
		"deactivated_at": now,
	}
	if err := s.repo.Update(ctx, modem.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating unit")
	}
	return nil
}

// Reactivate restores a soft-deleted unit in its last known state.
func (s *service) Reactivate(ctx context.Context, serial string) (*models.Modem, error) {
	serial = NormalizeSerial(serial)
	modem, err := s.repo.FindBySerial(ctx, serial)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %s not found", serial))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}
	if modem.Active {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("unit %s is already active", serial))
	}

	updates := map[string]any{
		"active":         true,
		"deactivated_at": nil,
	}
	if err := s.repo.Update(ctx, modem.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reactivating unit")
	}
	return s.repo.FindByID(ctx, modem.ID)
}
