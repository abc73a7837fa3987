package batches

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	Repository
	findOpen     func(ctx context.Context, key BatchKey) (*models.Lote, error)
	create       func(ctx context.Context, lote *models.Lote) (*models.Lote, error)
	findByID     func(ctx context.Context, id uuid.UUID) (*models.Lote, error)
	update       func(ctx context.Context, id uuid.UUID, updates map[string]any) error
	countUnits   func(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (int64, error)
	countByPhase func(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (map[enums.ProcessPhase]int64, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindOpenByKey(ctx context.Context, key BatchKey) (*models.Lote, error) {
	return s.findOpen(ctx, key)
}

func (s *stubRepo) Create(ctx context.Context, lote *models.Lote) (*models.Lote, error) {
	return s.create(ctx, lote)
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lote, error) {
	return s.findByID(ctx, id)
}

func (s *stubRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Lote, error) {
	return s.findByID(ctx, id)
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return s.update(ctx, id, updates)
}

func (s *stubRepo) CountUnits(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (int64, error) {
	return s.countUnits(ctx, loteID, loteType)
}

func (s *stubRepo) CountUnitsByPhase(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (map[enums.ProcessPhase]int64, error) {
	if s.countByPhase == nil {
		return map[enums.ProcessPhase]int64{}, nil
	}
	return s.countByPhase(ctx, loteID, loteType)
}

func TestResolveOrCreateInboundReusesOpenBatch(t *testing.T) {
	existing := &models.Lote{ID: uuid.New(), Number: "4KM37-20260830-AAAAAA", State: enums.LoteStateInProgress}
	repo := &stubRepo{
		findOpen: func(ctx context.Context, key BatchKey) (*models.Lote, error) {
			if key.Type != enums.LoteTypeInbound {
				t.Fatalf("expected inbound key, got %s", key.Type)
			}
			return existing, nil
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	lote, err := svc.ResolveOrCreateInbound(context.Background(), nil, uuid.New(), "4KM37", "rosa.lima")
	if err != nil {
		t.Fatalf("resolve inbound: %v", err)
	}
	if lote.ID != existing.ID {
		t.Fatal("expected the open batch to be reused")
	}
}

func TestResolveOrCreateInboundCreatesWhenMissing(t *testing.T) {
	var created *models.Lote
	repo := &stubRepo{
		findOpen: func(ctx context.Context, key BatchKey) (*models.Lote, error) {
			return nil, gorm.ErrRecordNotFound
		},
		create: func(ctx context.Context, lote *models.Lote) (*models.Lote, error) {
			lote.ID = uuid.New()
			created = lote
			return lote, nil
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	lote, err := svc.ResolveOrCreateInbound(context.Background(), nil, uuid.New(), "V5", "karla.soto")
	if err != nil {
		t.Fatalf("resolve inbound: %v", err)
	}
	if created == nil || lote.ID != created.ID {
		t.Fatal("expected a fresh batch")
	}
	if lote.State != enums.LoteStateInProgress {
		t.Fatalf("expected EN_PROCESO, got %s", lote.State)
	}
	if lote.Number == "" {
		t.Fatal("expected a generated batch number")
	}
}

func TestResolveOrCreateOutboundScrapRequiresReason(t *testing.T) {
	svc, err := NewService(&stubRepo{}, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.ResolveOrCreateOutbound(context.Background(), nil, uuid.New(), "ZTE", "hugo.vega", true, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConfirmInboundReportsWithoutClosing(t *testing.T) {
	loteID := uuid.New()
	updated := false
	repo := &stubRepo{
		findOpen: func(ctx context.Context, key BatchKey) (*models.Lote, error) {
			return &models.Lote{ID: loteID, Number: "4KM37-20260830-AAAAAA", Type: enums.LoteTypeInbound, State: enums.LoteStateInProgress}, nil
		},
		countUnits: func(ctx context.Context, id uuid.UUID, loteType enums.LoteType) (int64, error) {
			return 7, nil
		},
		countByPhase: func(ctx context.Context, id uuid.UUID, loteType enums.LoteType) (map[enums.ProcessPhase]int64, error) {
			return map[enums.ProcessPhase]int64{enums.PhaseRegistration: 4, enums.PhaseInitialTest: 3}, nil
		},
		update: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			updated = true
			return nil
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	stats, err := svc.ConfirmInbound(context.Background(), uuid.New(), "rosa.lima")
	if err != nil {
		t.Fatalf("confirm inbound: %v", err)
	}
	if stats.UnitCount != 7 {
		t.Fatalf("expected 7 units, got %d", stats.UnitCount)
	}
	if stats.PhaseCounts[enums.PhaseRegistration] != 4 {
		t.Fatalf("unexpected phase counts %v", stats.PhaseCounts)
	}
	if stats.Lote.State != enums.LoteStateInProgress {
		t.Fatal("expected the batch to stay open")
	}
	if updated {
		t.Fatal("confirm must not mutate the batch")
	}
}

func TestConfirmInboundEmptyIsConflict(t *testing.T) {
	repo := &stubRepo{
		findOpen: func(ctx context.Context, key BatchKey) (*models.Lote, error) {
			return &models.Lote{ID: uuid.New(), Number: "V5-20260830-AAAAAA", Type: enums.LoteTypeInbound, State: enums.LoteStateInProgress}, nil
		},
		countUnits: func(ctx context.Context, id uuid.UUID, loteType enums.LoteType) (int64, error) {
			return 0, nil
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.ConfirmInbound(context.Background(), uuid.New(), "karla.soto")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConfirmInboundMissingIsNotFound(t *testing.T) {
	repo := &stubRepo{
		findOpen: func(ctx context.Context, key BatchKey) (*models.Lote, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.ConfirmInbound(context.Background(), uuid.New(), "hugo.vega")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCloseBatchAlreadyClosedIsConflict(t *testing.T) {
	repo := &stubRepo{
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Lote, error) {
			return &models.Lote{ID: id, Number: "S-V5-20260830-AAAAAA", State: enums.LoteStateCompleted}, nil
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CloseBatch(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCloseBatchEmptyIsConflict(t *testing.T) {
	repo := &stubRepo{
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Lote, error) {
			return &models.Lote{ID: id, Number: "4KM37-20260830-AAAAAA", Type: enums.LoteTypeInbound, State: enums.LoteStateInProgress}, nil
		},
		countUnits: func(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (int64, error) {
			return 0, nil
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CloseBatch(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCloseBatchMissingIsNotFound(t *testing.T) {
	repo := &stubRepo{
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Lote, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CloseBatch(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCloseBatchSetsCompleted(t *testing.T) {
	id := uuid.New()
	var applied map[string]any
	repo := &stubRepo{
		findByID: func(ctx context.Context, loteID uuid.UUID) (*models.Lote, error) {
			return &models.Lote{ID: loteID, Number: "S-V5-20260830-AAAAAA", Type: enums.LoteTypeOutbound, State: enums.LoteStateInProgress}, nil
		},
		countUnits: func(ctx context.Context, loteID uuid.UUID, loteType enums.LoteType) (int64, error) {
			if loteType != enums.LoteTypeOutbound {
				t.Fatalf("expected outbound count, got %s", loteType)
			}
			return 12, nil
		},
		update: func(ctx context.Context, loteID uuid.UUID, updates map[string]any) error {
			applied = updates
			return nil
		},
	}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	stats, err := svc.CloseBatch(context.Background(), id)
	if err != nil {
		t.Fatalf("close batch: %v", err)
	}
	if stats.UnitCount != 12 {
		t.Fatalf("expected 12 units, got %d", stats.UnitCount)
	}
	if applied["state"] != enums.LoteStateCompleted {
		t.Fatalf("unexpected updates %v", applied)
	}
	if stats.Lote.ClosedAt == nil {
		t.Fatal("expected closed_at to be set")
	}
}
