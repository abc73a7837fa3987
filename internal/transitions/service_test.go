package transitions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
)

type stubRepo struct {
	Repository
	findRule  func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error)
	listFrom  func(ctx context.Context, fromStateID uuid.UUID) ([]models.TransitionRule, error)
	listRules func(ctx context.Context) ([]models.TransitionRule, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindRule(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
	return s.findRule(ctx, fromStateID, event)
}

func (s *stubRepo) ListRulesFrom(ctx context.Context, fromStateID uuid.UUID) ([]models.TransitionRule, error) {
	return s.listFrom(ctx, fromStateID)
}

func (s *stubRepo) ListRules(ctx context.Context) ([]models.TransitionRule, error) {
	return s.listRules(ctx)
}

func TestResolveMissingRuleIsStateConflict(t *testing.T) {
	repo := &stubRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Resolve(context.Background(), uuid.New(), "Completar EMPAQUE")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAuthorizeAdminOverridesRoleList(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	rule := &models.TransitionRule{
		Event: "Completar RETEST",
		Roles: models.RoleList{enums.OperatorRoleRetest},
	}

	if err := svc.Authorize(rule, enums.OperatorRoleWarehouseAdmin); err != nil {
		t.Fatalf("expected admin override, got %v", err)
	}
	if err := svc.Authorize(rule, enums.OperatorRoleRetest); err != nil {
		t.Fatalf("expected listed role to pass, got %v", err)
	}

	err = svc.Authorize(rule, enums.OperatorRoleInitialTest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAvailableEventsFiltersByRole(t *testing.T) {
	fromID := uuid.New()
	repo := &stubRepo{
		listFrom: func(ctx context.Context, id uuid.UUID) ([]models.TransitionRule, error) {
			return []models.TransitionRule{
				{Event: "Completar RETEST", Roles: models.RoleList{enums.OperatorRoleRetest, enums.OperatorRoleWarehouseAdmin}},
				{Event: "Rechazar RETEST", Roles: models.RoleList{enums.OperatorRolePackaging}},
			}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	events, err := svc.AvailableEvents(context.Background(), fromID, enums.OperatorRoleRetest)
	if err != nil {
		t.Fatalf("available events: %v", err)
	}
	if len(events) != 1 || events[0] != "Completar RETEST" {
		t.Fatalf("unexpected events %v", events)
	}

	all, err := svc.AvailableEvents(context.Background(), fromID, enums.OperatorRoleWarehouseAdmin)
	if err != nil {
		t.Fatalf("available events: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected admin to see both events, got %v", all)
	}
}
