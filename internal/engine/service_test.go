package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/internal/audit"
	"github.com/rcastellanos/modemtrack-backend/internal/batches"
	"github.com/rcastellanos/modemtrack-backend/internal/catalog"
	"github.com/rcastellanos/modemtrack-backend/internal/transitions"
	"github.com/rcastellanos/modemtrack-backend/internal/units"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUnitsRepo struct {
	units.Repository
	findBySerial func(ctx context.Context, serial string) (*models.Modem, error)
	findByID     func(ctx context.Context, id uuid.UUID) (*models.Modem, error)
	create       func(ctx context.Context, modem *models.Modem) (*models.Modem, error)
	update       func(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

func (s *stubUnitsRepo) WithTx(tx *gorm.DB) units.Repository { return s }

func (s *stubUnitsRepo) FindBySerial(ctx context.Context, serial string) (*models.Modem, error) {
	return s.findBySerial(ctx, serial)
}

func (s *stubUnitsRepo) FindActiveBySerial(ctx context.Context, serial string) (*models.Modem, error) {
	return s.findBySerial(ctx, serial)
}

func (s *stubUnitsRepo) FindBySerialForUpdate(ctx context.Context, serial string) (*models.Modem, error) {
	return s.findBySerial(ctx, serial)
}

func (s *stubUnitsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Modem, error) {
	return s.findByID(ctx, id)
}

func (s *stubUnitsRepo) Create(ctx context.Context, modem *models.Modem) (*models.Modem, error) {
	return s.create(ctx, modem)
}

func (s *stubUnitsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return s.update(ctx, id, updates)
}

type stubCatalogRepo struct {
	catalog.Repository
	findSkuByCode func(ctx context.Context, code string) (*models.Sku, error)
	findSkuByID   func(ctx context.Context, id uuid.UUID) (*models.Sku, error)
	findState     func(ctx context.Context, name enums.ProcessPhase) (*models.ProcessState, error)
}

func (s *stubCatalogRepo) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubCatalogRepo) FindSkuByCode(ctx context.Context, code string) (*models.Sku, error) {
	return s.findSkuByCode(ctx, code)
}

func (s *stubCatalogRepo) FindSkuByID(ctx context.Context, id uuid.UUID) (*models.Sku, error) {
	return s.findSkuByID(ctx, id)
}

func (s *stubCatalogRepo) FindStateByName(ctx context.Context, name enums.ProcessPhase) (*models.ProcessState, error) {
	return s.findState(ctx, name)
}

type stubRulesRepo struct {
	transitions.Repository
	findRule func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error)
	listFrom func(ctx context.Context, fromStateID uuid.UUID) ([]models.TransitionRule, error)
}

func (s *stubRulesRepo) WithTx(tx *gorm.DB) transitions.Repository { return s }

func (s *stubRulesRepo) FindRule(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
	return s.findRule(ctx, fromStateID, event)
}

func (s *stubRulesRepo) ListRulesFrom(ctx context.Context, fromStateID uuid.UUID) ([]models.TransitionRule, error) {
	return s.listFrom(ctx, fromStateID)
}

type stubAuditRepo struct {
	appended []*models.Registro
	recent   bool
	history  []models.Registro
}

func (s *stubAuditRepo) WithTx(tx *gorm.DB) audit.Repository { return s }

func (s *stubAuditRepo) Append(ctx context.Context, event *models.Registro) (*models.Registro, error) {
	event.ID = uuid.New()
	s.appended = append(s.appended, event)
	return event, nil
}

func (s *stubAuditRepo) History(ctx context.Context, modemID uuid.UUID) ([]models.Registro, error) {
	return s.history, nil
}

func (s *stubAuditRepo) HasRecentEvent(ctx context.Context, serial string, toPhase enums.ProcessPhase, since time.Time) (bool, error) {
	return s.recent, nil
}

func (s *stubAuditRepo) PruneIntermediate(ctx context.Context, batchSize int) (int64, error) {
	return 0, nil
}

type stubBatchSvc struct {
	inbound  *models.Lote
	outbound *models.Lote
}

func (s *stubBatchSvc) ResolveOrCreateInbound(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, skuCode, operator string) (*models.Lote, error) {
	return s.inbound, nil
}

func (s *stubBatchSvc) ResolveOrCreateOutbound(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, skuCode, operator string, isScrap bool, reason *enums.ScrapReason) (*models.Lote, error) {
	return s.outbound, nil
}

func (s *stubBatchSvc) ConfirmInbound(ctx context.Context, skuID uuid.UUID, operator string) (*batches.BatchStats, error) {
	return nil, nil
}

func (s *stubBatchSvc) CloseBatch(ctx context.Context, loteID uuid.UUID) (*batches.BatchStats, error) {
	return nil, nil
}

func (s *stubBatchSvc) GetBatch(ctx context.Context, loteID uuid.UUID) (*batches.BatchStats, error) {
	return nil, nil
}

func (s *stubBatchSvc) List(ctx context.Context, params pagination.Params, filters batches.BatchFilters) (*batches.BatchList, error) {
	return nil, nil
}

type fixture struct {
	skuID       uuid.UUID
	registroID  uuid.UUID
	retestID    uuid.UUID
	packagingID uuid.UUID
	sku         *models.Sku
	unitsRepo   *stubUnitsRepo
	catalogRepo *stubCatalogRepo
	rulesRepo   *stubRulesRepo
	auditRepo   *stubAuditRepo
	batchSvc    *stubBatchSvc
}

func newFixture() *fixture {
	f := &fixture{
		skuID:       uuid.New(),
		registroID:  uuid.New(),
		retestID:    uuid.New(),
		packagingID: uuid.New(),
	}
	f.sku = &models.Sku{ID: f.skuID, Code: "4KM37", Name: "4KM37", Active: true}
	f.catalogRepo = &stubCatalogRepo{
		findSkuByCode: func(ctx context.Context, code string) (*models.Sku, error) {
			if code == "4KM37" {
				return f.sku, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		findSkuByID: func(ctx context.Context, id uuid.UUID) (*models.Sku, error) {
			return f.sku, nil
		},
		findState: func(ctx context.Context, name enums.ProcessPhase) (*models.ProcessState, error) {
			return &models.ProcessState{ID: f.registroID, Name: name}, nil
		},
	}
	f.auditRepo = &stubAuditRepo{}
	f.batchSvc = &stubBatchSvc{
		inbound:  &models.Lote{ID: uuid.New(), Number: "4KM37-20260830-AAAAAA", Type: enums.LoteTypeInbound},
		outbound: &models.Lote{ID: uuid.New(), Number: "S-4KM37-20260830-BBBBBB", Type: enums.LoteTypeOutbound},
	}
	return f
}

func (f *fixture) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(f.unitsRepo, f.catalogRepo, f.rulesRepo, f.auditRepo, f.batchSvc, stubTxRunner{}, nil, Options{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterUnitCreatesAtRegistro(t *testing.T) {
	f := newFixture()
	var created *models.Modem
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return nil, gorm.ErrRecordNotFound
		},
		create: func(ctx context.Context, modem *models.Modem) (*models.Modem, error) {
			modem.ID = uuid.New()
			created = modem
			return modem, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{}
	svc := f.service(t)

	result, err := svc.RegisterUnit(context.Background(), RegisterUnitInput{
		SkuCode:  "4KM37",
		Serial:   "  abc123  ",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleRegistration,
	})
	if err != nil {
		t.Fatalf("register unit: %v", err)
	}
	if created.Serial != "ABC123" {
		t.Fatalf("expected normalized serial, got %q", created.Serial)
	}
	if created.Phase != enums.PhaseRegistration {
		t.Fatalf("expected REGISTRO, got %s", created.Phase)
	}
	if result.Lote == nil || created.InboundLoteID == nil || *created.InboundLoteID != result.Lote.ID {
		t.Fatal("expected inbound batch attached")
	}
	if len(f.auditRepo.appended) != 1 {
		t.Fatalf("expected one audit event, got %d", len(f.auditRepo.appended))
	}
	if f.auditRepo.appended[0].ToPhase != enums.PhaseRegistration {
		t.Fatalf("unexpected audit phase %s", f.auditRepo.appended[0].ToPhase)
	}
}

func TestRegisterUnitDuplicateSerialIsConflict(t *testing.T) {
	f := newFixture()
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: uuid.New(), Serial: serial, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{}
	svc := f.service(t)

	_, err := svc.RegisterUnit(context.Background(), RegisterUnitInput{
		SkuCode:  "4KM37",
		Serial:   "ABC123",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleWarehouseAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterUnitReactivatesSoftDeletedSerial(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	var applied map[string]any
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: id, Serial: serial, Active: false, Phase: enums.PhaseScrap}, nil
		},
		update: func(ctx context.Context, modemID uuid.UUID, updates map[string]any) error {
			applied = updates
			return nil
		},
		findByID: func(ctx context.Context, modemID uuid.UUID) (*models.Modem, error) {
			return &models.Modem{ID: modemID, Serial: "ABC123", Active: true, Phase: enums.PhaseRegistration}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{}
	svc := f.service(t)

	result, err := svc.RegisterUnit(context.Background(), RegisterUnitInput{
		SkuCode:  "4KM37",
		Serial:   "ABC123",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleRegistration,
	})
	if err != nil {
		t.Fatalf("register unit: %v", err)
	}
	if !result.Reactivated {
		t.Fatal("expected reactivation")
	}
	if applied["active"] != true || applied["phase"] != enums.PhaseRegistration {
		t.Fatalf("unexpected updates %v", applied)
	}
}

func TestRegisterUnitViewerIsForbidden(t *testing.T) {
	f := newFixture()
	f.unitsRepo = &stubUnitsRepo{}
	f.rulesRepo = &stubRulesRepo{}
	svc := f.service(t)

	_, err := svc.RegisterUnit(context.Background(), RegisterUnitInput{
		SkuCode:  "4KM37",
		Serial:   "ABC123",
		Operator: "ines.mora",
		Role:     enums.OperatorRoleViewer,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func completeRegistroRule(f *fixture) *models.TransitionRule {
	toID := uuid.New()
	return &models.TransitionRule{
		ID:          uuid.New(),
		FromStateID: f.registroID,
		Event:       "Completar REGISTRO",
		ToStateID:   toID,
		Roles:       models.RoleList{enums.OperatorRoleWarehouseAdmin},
		ToState:     &models.ProcessState{ID: toID, Name: enums.PhaseInitialTest},
	}
}

func TestApplyTransitionAdvancesUnit(t *testing.T) {
	f := newFixture()
	modemID := uuid.New()
	var applied map[string]any
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: modemID, Serial: serial, SkuID: f.skuID, StateID: f.registroID, Phase: enums.PhaseRegistration, Active: true}, nil
		},
		update: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			applied = updates
			return nil
		},
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Modem, error) {
			return &models.Modem{ID: id, Serial: "ABC123", Phase: enums.PhaseInitialTest, Active: true}, nil
		},
	}
	rule := completeRegistroRule(f)
	f.rulesRepo = &stubRulesRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			if fromStateID == f.registroID && event == rule.Event {
				return rule, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := f.service(t)

	result, err := svc.ApplyTransition(context.Background(), ApplyTransitionInput{
		Serial:   "abc123",
		Event:    "Completar REGISTRO",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleWarehouseAdmin,
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if result.PreviousPhase != enums.PhaseRegistration || result.NewPhase != enums.PhaseInitialTest {
		t.Fatalf("unexpected phases %s -> %s", result.PreviousPhase, result.NewPhase)
	}
	if applied["phase"] != enums.PhaseInitialTest {
		t.Fatalf("unexpected updates %v", applied)
	}
	if len(f.auditRepo.appended) != 1 {
		t.Fatalf("expected one audit event, got %d", len(f.auditRepo.appended))
	}
	event := f.auditRepo.appended[0]
	if event.FromPhase == nil || *event.FromPhase != enums.PhaseRegistration || event.ToPhase != enums.PhaseInitialTest {
		t.Fatalf("unexpected audit event %+v", event)
	}
	if event.Outcome != enums.OutcomeSerialOK {
		t.Fatalf("unexpected outcome %s", event.Outcome)
	}
}

func TestRepairTransitionCapturesRepairCode(t *testing.T) {
	f := newFixture()
	testStateID := uuid.New()
	repairStateID := uuid.New()
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: uuid.New(), Serial: serial, SkuID: f.skuID, StateID: testStateID, Phase: enums.PhaseInitialTest, Active: true}, nil
		},
		update: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			return nil
		},
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Modem, error) {
			return &models.Modem{ID: id, Serial: "ABC123", Phase: enums.PhaseRepair, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			return &models.TransitionRule{
				ID:          uuid.New(),
				FromStateID: testStateID,
				Event:       "Reparar TEST_INICIAL",
				ToStateID:   repairStateID,
				Roles:       models.RoleList{enums.OperatorRoleInitialTest},
				ToState:     &models.ProcessState{ID: repairStateID, Name: enums.PhaseRepair},
			}, nil
		},
	}
	svc := f.service(t)

	code := "RX-104"
	_, err := svc.ApplyTransition(context.Background(), ApplyTransitionInput{
		Serial:     "ABC123",
		Event:      "Reparar TEST_INICIAL",
		Operator:   "hugo.vega",
		Role:       enums.OperatorRoleInitialTest,
		RepairCode: &code,
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if len(f.auditRepo.appended) != 1 {
		t.Fatalf("expected one audit event, got %d", len(f.auditRepo.appended))
	}
	event := f.auditRepo.appended[0]
	if event.Outcome != enums.OutcomeRepair {
		t.Fatalf("unexpected outcome %s", event.Outcome)
	}
	if event.RepairCode == nil || *event.RepairCode != code {
		t.Fatalf("expected repair code on the audit row, got %v", event.RepairCode)
	}
}

func TestApplyTransitionUnlistedRoleIsForbidden(t *testing.T) {
	f := newFixture()
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: uuid.New(), Serial: serial, StateID: f.registroID, Phase: enums.PhaseRegistration, Active: true}, nil
		},
	}
	rule := completeRegistroRule(f)
	f.rulesRepo = &stubRulesRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			return rule, nil
		},
	}
	svc := f.service(t)

	_, err := svc.ApplyTransition(context.Background(), ApplyTransitionInput{
		Serial:   "ABC123",
		Event:    "Completar REGISTRO",
		Operator: "karla.soto",
		Role:     enums.OperatorRoleInitialTest,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(f.auditRepo.appended) != 0 {
		t.Fatal("no audit event may be written for a rejected transition")
	}
}

func TestApplyTransitionDebounceIsConflict(t *testing.T) {
	f := newFixture()
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: uuid.New(), Serial: serial, StateID: f.registroID, Phase: enums.PhaseRegistration, Active: true}, nil
		},
	}
	rule := completeRegistroRule(f)
	f.rulesRepo = &stubRulesRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			return rule, nil
		},
	}
	f.auditRepo.recent = true
	svc := f.service(t)

	_, err := svc.ApplyTransition(context.Background(), ApplyTransitionInput{
		Serial:   "ABC123",
		Event:    "Completar REGISTRO",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleWarehouseAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestApplyTransitionUnknownEventIsStateConflict(t *testing.T) {
	f := newFixture()
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: uuid.New(), Serial: serial, StateID: f.registroID, Phase: enums.PhaseRegistration, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := f.service(t)

	_, err := svc.ApplyTransition(context.Background(), ApplyTransitionInput{
		Serial:   "ABC123",
		Event:    "Completar EMPAQUE",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleWarehouseAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCompleteRetestPackagesIntoOutboundBatch(t *testing.T) {
	f := newFixture()
	modemID := uuid.New()
	var applied map[string]any
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: modemID, Serial: serial, SkuID: f.skuID, StateID: f.retestID, Phase: enums.PhaseRetest, Active: true}, nil
		},
		update: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			applied = updates
			return nil
		},
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Modem, error) {
			out := f.batchSvc.outbound.ID
			return &models.Modem{ID: id, Serial: "ABC123", Phase: enums.PhasePackaging, OutboundLoteID: &out, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			if fromStateID == f.retestID && event == "Completar RETEST" {
				return &models.TransitionRule{
					FromStateID: f.retestID,
					Event:       event,
					ToStateID:   f.packagingID,
					Roles:       models.RoleList{enums.OperatorRoleRetest, enums.OperatorRoleWarehouseAdmin},
					ToState:     &models.ProcessState{ID: f.packagingID, Name: enums.PhasePackaging},
				}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := f.service(t)

	result, err := svc.ApplyTransition(context.Background(), ApplyTransitionInput{
		Serial:   "ABC123",
		Event:    "Completar RETEST",
		Operator: "hugo.vega",
		Role:     enums.OperatorRoleRetest,
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if result.NewPhase != enums.PhasePackaging {
		t.Fatalf("expected EMPAQUE, got %s", result.NewPhase)
	}
	if result.LoteID == nil || *result.LoteID != f.batchSvc.outbound.ID {
		t.Fatal("expected outbound batch id in result")
	}
	if applied["outbound_lote_id"] != f.batchSvc.outbound.ID {
		t.Fatalf("expected outbound batch attached, got %v", applied)
	}
	if applied["retest_done"] != true {
		t.Fatal("expected retest_done set")
	}
}

func TestRecordScrapClassifiesReasonAndDetail(t *testing.T) {
	f := newFixture()
	modemID := uuid.New()
	scrapStateID := uuid.New()
	var applied map[string]any
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: modemID, Serial: serial, SkuID: f.skuID, StateID: f.retestID, Phase: enums.PhaseRetest, Active: true}, nil
		},
		update: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			applied = updates
			return nil
		},
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Modem, error) {
			return &models.Modem{ID: id, Serial: "ABC123", Phase: enums.PhaseScrap, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{
		findRule: func(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
			if event != "Rechazar RETEST" {
				t.Fatalf("expected reject event from current phase, got %q", event)
			}
			return &models.TransitionRule{
				FromStateID: f.retestID,
				Event:       event,
				ToStateID:   scrapStateID,
				Roles:       models.RoleList{enums.OperatorRoleRetest},
				ToState:     &models.ProcessState{ID: scrapStateID, Name: enums.PhaseScrap},
			}, nil
		},
	}
	svc := f.service(t)

	_, err := svc.RecordScrap(context.Background(), RecordScrapInput{
		Serial:     "ABC123",
		ReasonText: "infestado",
		Operator:   "hugo.vega",
		Role:       enums.OperatorRoleRetest,
	})
	if err != nil {
		t.Fatalf("record scrap: %v", err)
	}
	if applied["scrap_reason"] != enums.ScrapReasonInfested {
		t.Fatalf("unexpected reason %v", applied["scrap_reason"])
	}
	if applied["scrap_detail"] != enums.ScrapDetailInfestation {
		t.Fatalf("unexpected detail %v", applied["scrap_detail"])
	}
	if f.auditRepo.appended[0].Outcome != enums.OutcomeScrapInfestation {
		t.Fatalf("unexpected outcome %s", f.auditRepo.appended[0].Outcome)
	}
}

func TestRecordScrapWithoutReasonIsValidation(t *testing.T) {
	f := newFixture()
	f.unitsRepo = &stubUnitsRepo{}
	f.rulesRepo = &stubRulesRepo{}
	svc := f.service(t)

	_, err := svc.RecordScrap(context.Background(), RecordScrapInput{
		Serial:   "ABC123",
		Operator: "hugo.vega",
		Role:     enums.OperatorRoleRetest,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScrapExitAttachesScrapBatch(t *testing.T) {
	f := newFixture()
	modemID := uuid.New()
	reason := enums.ScrapReasonCosmetic
	var applied map[string]any
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: modemID, Serial: serial, SkuID: f.skuID, Phase: enums.PhaseScrap, ScrapReason: &reason, Active: true}, nil
		},
		update: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			applied = updates
			return nil
		},
		findByID: func(ctx context.Context, id uuid.UUID) (*models.Modem, error) {
			out := f.batchSvc.outbound.ID
			return &models.Modem{ID: id, Serial: "ABC123", Phase: enums.PhaseScrap, OutboundLoteID: &out, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{}
	svc := f.service(t)

	result, err := svc.ScrapExit(context.Background(), ScrapExitInput{
		Serial:   "ABC123",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleWarehouseAdmin,
	})
	if err != nil {
		t.Fatalf("scrap exit: %v", err)
	}
	if applied["outbound_lote_id"] != f.batchSvc.outbound.ID {
		t.Fatalf("expected scrap batch attached, got %v", applied)
	}
	if f.auditRepo.appended[0].Outcome != enums.OutcomeScrapCosmetic {
		t.Fatalf("unexpected outcome %s", f.auditRepo.appended[0].Outcome)
	}
	if result.LoteID == nil {
		t.Fatal("expected batch id in result")
	}
}

func TestScrapExitTwiceIsConflict(t *testing.T) {
	f := newFixture()
	out := uuid.New()
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: uuid.New(), Serial: serial, Phase: enums.PhaseScrap, OutboundLoteID: &out, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{}
	svc := f.service(t)

	_, err := svc.ScrapExit(context.Background(), ScrapExitInput{
		Serial:   "ABC123",
		Operator: "rosa.lima",
		Role:     enums.OperatorRoleWarehouseAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetAvailableTransitionsFiltersByRole(t *testing.T) {
	f := newFixture()
	f.unitsRepo = &stubUnitsRepo{
		findBySerial: func(ctx context.Context, serial string) (*models.Modem, error) {
			return &models.Modem{ID: uuid.New(), Serial: serial, StateID: f.retestID, Phase: enums.PhaseRetest, Active: true}, nil
		},
	}
	f.rulesRepo = &stubRulesRepo{
		listFrom: func(ctx context.Context, fromStateID uuid.UUID) ([]models.TransitionRule, error) {
			return []models.TransitionRule{
				{Event: "Completar RETEST", Roles: models.RoleList{enums.OperatorRoleRetest}},
				{Event: "Rechazar RETEST", Roles: models.RoleList{enums.OperatorRolePackaging}},
			}, nil
		},
	}
	svc := f.service(t)

	events, err := svc.GetAvailableTransitions(context.Background(), "ABC123", enums.OperatorRoleRetest)
	if err != nil {
		t.Fatalf("available transitions: %v", err)
	}
	if len(events) != 1 || events[0] != "Completar RETEST" {
		t.Fatalf("unexpected events %v", events)
	}
}
