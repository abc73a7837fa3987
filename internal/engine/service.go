package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/internal/audit"
	"github.com/rcastellanos/modemtrack-backend/internal/batches"
	"github.com/rcastellanos/modemtrack-backend/internal/catalog"
	"github.com/rcastellanos/modemtrack-backend/internal/scrap"
	"github.com/rcastellanos/modemtrack-backend/internal/transitions"
	"github.com/rcastellanos/modemtrack-backend/internal/units"
	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
	"github.com/rcastellanos/modemtrack-backend/pkg/metrics"
)

// registerEvent is the audit event name for unit creation; registration is
// not a transition so it has no rule row.
const registerEvent = "Registrar unidad"

// scrapExitEvent is the audit event name for moving a scrapped unit into an
// outbound scrap batch.
const scrapExitEvent = "Salida SCRAP"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterUnitInput creates (or reactivates) a unit at REGISTRO.
type RegisterUnitInput struct {
	SkuCode  string
	Serial   string
	Operator string
	Role     enums.OperatorRole
}

// RegisterUnitResult is the outcome of a registration scan.
type RegisterUnitResult struct {
	Unit        *models.Modem
	Lote        *models.Lote
	Reactivated bool
}

// ApplyTransitionInput moves a unit along one rule edge. RepairCode is only
// persisted on moves that touch REPARACION.
type ApplyTransitionInput struct {
	Serial     string
	Event      string
	Operator   string
	Role       enums.OperatorRole
	ReasonText string
	DetailText string
	RepairCode *string
	Notes      *string
}

// RecordScrapInput scraps a unit from its current phase.
type RecordScrapInput struct {
	Serial     string
	ReasonText string
	DetailText string
	Operator   string
	Role       enums.OperatorRole
}

// ScrapExitInput moves an already-scrapped unit into an outbound scrap batch.
type ScrapExitInput struct {
	Serial   string
	Operator string
	Role     enums.OperatorRole
}

// TransitionResult reports the applied move.
type TransitionResult struct {
	Unit          *models.Modem
	PreviousPhase enums.ProcessPhase
	NewPhase      enums.ProcessPhase
	LoteID        *uuid.UUID
}

// Service is the transition engine: every unit mutation goes through here,
// inside one transaction per operation.
type Service interface {
	RegisterUnit(ctx context.Context, input RegisterUnitInput) (*RegisterUnitResult, error)
	ApplyTransition(ctx context.Context, input ApplyTransitionInput) (*TransitionResult, error)
	RecordScrap(ctx context.Context, input RecordScrapInput) (*TransitionResult, error)
	ScrapExit(ctx context.Context, input ScrapExitInput) (*TransitionResult, error)
	GetUnitHistory(ctx context.Context, serial string) ([]models.Registro, error)
	GetAvailableTransitions(ctx context.Context, serial string, role enums.OperatorRole) ([]string, error)
}

type service struct {
	unitsRepo   units.Repository
	catalogRepo catalog.Repository
	rulesRepo   transitions.Repository
	auditRepo   audit.Repository
	batchSvc    batches.Service
	tx          txRunner
	logg        *logger.Logger
	notifier    Notifier
	metrics     *metrics.TransitionMetrics
	debounce    time.Duration
	now         func() time.Time
}

// Options carries the optional engine collaborators.
type Options struct {
	Notifier Notifier
	Metrics  *metrics.TransitionMetrics
	Debounce time.Duration
}

// NewService builds the transition engine.
func NewService(
	unitsRepo units.Repository,
	catalogRepo catalog.Repository,
	rulesRepo transitions.Repository,
	auditRepo audit.Repository,
	batchSvc batches.Service,
	tx txRunner,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	if unitsRepo == nil {
		return nil, fmt.Errorf("units repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if rulesRepo == nil {
		return nil, fmt.Errorf("transitions repository required")
	}
	if auditRepo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if batchSvc == nil {
		return nil, fmt.Errorf("batch service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &service{
		unitsRepo:   unitsRepo,
		catalogRepo: catalogRepo,
		rulesRepo:   rulesRepo,
		auditRepo:   auditRepo,
		batchSvc:    batchSvc,
		tx:          tx,
		logg:        logg,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		debounce:    debounce,
		now:         time.Now,
	}, nil
}

// RegisterUnit creates a unit at REGISTRO inside one transaction, resolving
// or creating the operator's open inbound batch. A soft-deleted serial is
// reactivated instead of recreated.
func (s *service) RegisterUnit(ctx context.Context, input RegisterUnitInput) (*RegisterUnitResult, error) {
	serial := units.NormalizeSerial(input.Serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	if input.Operator == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operator is required")
	}
	if input.Role != enums.OperatorRoleRegistration && !input.Role.Overrides() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %s may not register units", input.Role))
	}

	var result *RegisterUnitResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		unitsRepo := s.unitsRepo.WithTx(tx)
		catalogRepo := s.catalogRepo.WithTx(tx)
		auditRepo := s.auditRepo.WithTx(tx)

		sku, err := catalogRepo.FindSkuByCode(ctx, input.SkuCode)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("sku %s not found", input.SkuCode))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sku")
		}
		if err := units.ValidateSerial(serial, sku); err != nil {
			return err
		}

		state, err := catalogRepo.FindStateByName(ctx, enums.PhaseRegistration)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading REGISTRO state")
		}

		lote, err := s.batchSvc.ResolveOrCreateInbound(ctx, tx, sku.ID, sku.Code, input.Operator)
		if err != nil {
			return err
		}

		existing, err := unitsRepo.FindBySerial(ctx, serial)
		switch {
		case err == nil && existing.Active:
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("serial %s is already registered", serial))
		case err == nil:
			// soft-deleted serial comes back through the registration scan
			updates := map[string]any{
				"active":           true,
				"deactivated_at":   nil,
				"sku_id":           sku.ID,
				"state_id":         state.ID,
				"phase":            enums.PhaseRegistration,
				"retest_done":      false,
				"scrap_reason":     nil,
				"scrap_detail":     nil,
				"inbound_lote_id":  lote.ID,
				"outbound_lote_id": nil,
			}
			if err := unitsRepo.Update(ctx, existing.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reactivating unit")
			}
			reloaded, err := unitsRepo.FindByID(ctx, existing.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading unit")
			}
			result = &RegisterUnitResult{Unit: reloaded, Lote: lote, Reactivated: true}
		case db.IsNotFound(err):
			modem := &models.Modem{
				Serial:        serial,
				SkuID:         sku.ID,
				StateID:       state.ID,
				Phase:         enums.PhaseRegistration,
				InboundLoteID: &lote.ID,
				Active:        true,
			}
			created, err := unitsRepo.Create(ctx, modem)
			if err != nil {
				if db.IsUniqueViolation(err) {
					return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("serial %s is already registered", serial))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating unit")
			}
			result = &RegisterUnitResult{Unit: created, Lote: lote}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up serial")
		}

		event := &models.Registro{
			ModemID:  result.Unit.ID,
			Serial:   serial,
			Event:    registerEvent,
			ToPhase:  enums.PhaseRegistration,
			Outcome:  enums.OutcomeSerialOK,
			Operator: input.Operator,
			Role:     input.Role,
			LoteID:   &lote.ID,
		}
		if _, err := auditRepo.Append(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing audit event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, ActionEvent{
		Serial:   serial,
		Event:    registerEvent,
		ToPhase:  enums.PhaseRegistration,
		Outcome:  enums.OutcomeSerialOK,
		Operator: input.Operator,
		Role:     input.Role,
		LoteID:   &result.Lote.ID,
		At:       s.now().UTC(),
	})
	return result, nil
}

// ApplyTransition validates, authorizes and executes one rule edge for the
// unit, with all mutations in a single transaction.
func (s *service) ApplyTransition(ctx context.Context, input ApplyTransitionInput) (*TransitionResult, error) {
	started := s.now()
	result, err := s.applyTransition(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejected(input.Event, string(typed.Code()))
		}
		return nil, err
	}
	s.metrics.IncApplied(input.Event, string(result.NewPhase))
	s.metrics.ObserveLatency(input.Event, s.now().Sub(started))
	return result, nil
}

func (s *service) applyTransition(ctx context.Context, input ApplyTransitionInput) (*TransitionResult, error) {
	serial := units.NormalizeSerial(input.Serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	if input.Event == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}
	if input.Operator == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operator is required")
	}

	var result *TransitionResult
	var notice ActionEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		modem, err := s.lockUnit(ctx, tx, serial)
		if err != nil {
			return err
		}
		result, notice, err = s.transitionLocked(ctx, tx, modem, input.Event, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notice)
	return result, nil
}

// RecordScrap rejects the unit out of its current phase. The reject event is
// derived from the phase the unit actually holds at lock time, so a stale
// client cannot scrap against an old state.
func (s *service) RecordScrap(ctx context.Context, input RecordScrapInput) (*TransitionResult, error) {
	serial := units.NormalizeSerial(input.Serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	if input.ReasonText == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scrap reason is required")
	}
	if input.Operator == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operator is required")
	}

	var result *TransitionResult
	var notice ActionEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		modem, err := s.lockUnit(ctx, tx, serial)
		if err != nil {
			return err
		}
		event := transitions.RejectEvent(modem.Phase)
		if modem.Phase == enums.PhaseRepair {
			event = transitions.RejectFromRepairEvent
		}
		result, notice, err = s.transitionLocked(ctx, tx, modem, event, ApplyTransitionInput{
			Serial:     serial,
			Event:      event,
			Operator:   input.Operator,
			Role:       input.Role,
			ReasonText: input.ReasonText,
			DetailText: input.DetailText,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notice)
	return result, nil
}

// ScrapExit attaches a scrapped unit to the outbound scrap batch for its
// reason, completing its lifecycle.
func (s *service) ScrapExit(ctx context.Context, input ScrapExitInput) (*TransitionResult, error) {
	serial := units.NormalizeSerial(input.Serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	if input.Operator == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operator is required")
	}

	var result *TransitionResult
	var notice ActionEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		modem, err := s.lockUnit(ctx, tx, serial)
		if err != nil {
			return err
		}
		if modem.Phase != enums.PhaseScrap {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unit %s is not scrapped", serial))
		}
		if modem.OutboundLoteID != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("unit %s already left through a scrap batch", serial))
		}

		sku, err := s.catalogRepo.WithTx(tx).FindSkuByID(ctx, modem.SkuID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sku")
		}

		reason := enums.ScrapReasonOther
		if modem.ScrapReason != nil {
			reason = *modem.ScrapReason
		}
		lote, err := s.batchSvc.ResolveOrCreateOutbound(ctx, tx, sku.ID, sku.Code, input.Operator, true, &reason)
		if err != nil {
			return err
		}

		unitsRepo := s.unitsRepo.WithTx(tx)
		if err := unitsRepo.Update(ctx, modem.ID, map[string]any{"outbound_lote_id": lote.ID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attaching scrap batch")
		}

		registro := &models.Registro{
			ModemID:   modem.ID,
			Serial:    serial,
			Event:     scrapExitEvent,
			FromPhase: &modem.Phase,
			ToPhase:   enums.PhaseScrap,
			Outcome:   reason.Outcome(),
			Operator:  input.Operator,
			Role:      input.Role,
			LoteID:    &lote.ID,
		}
		if _, err := s.auditRepo.WithTx(tx).Append(ctx, registro); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing audit event")
		}

		reloaded, err := unitsRepo.FindByID(ctx, modem.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading unit")
		}
		result = &TransitionResult{
			Unit:          reloaded,
			PreviousPhase: enums.PhaseScrap,
			NewPhase:      enums.PhaseScrap,
			LoteID:        &lote.ID,
		}
		notice = ActionEvent{
			Serial:   serial,
			Event:    scrapExitEvent,
			ToPhase:  enums.PhaseScrap,
			Outcome:  reason.Outcome(),
			Operator: input.Operator,
			Role:     input.Role,
			LoteID:   &lote.ID,
			At:       s.now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notice)
	return result, nil
}

// GetUnitHistory returns the unit's audit trail, oldest first. Deactivated
// units keep their history.
func (s *service) GetUnitHistory(ctx context.Context, serial string) ([]models.Registro, error) {
	serial = units.NormalizeSerial(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	modem, err := s.unitsRepo.FindBySerial(ctx, serial)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %s not found", serial))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}
	history, err := s.auditRepo.History(ctx, modem.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading history")
	}
	return history, nil
}

// GetAvailableTransitions returns the event names the role can fire from the
// unit's current state.
func (s *service) GetAvailableTransitions(ctx context.Context, serial string, role enums.OperatorRole) ([]string, error) {
	serial = units.NormalizeSerial(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown role %q", role))
	}
	modem, err := s.unitsRepo.FindActiveBySerial(ctx, serial)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %s not found", serial))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}

	rules, err := s.rulesRepo.ListRulesFrom(ctx, modem.StateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transition rules")
	}
	events := make([]string, 0, len(rules))
	for _, rule := range rules {
		if role.Overrides() || rule.Roles.Contains(role) {
			events = append(events, rule.Event)
		}
	}
	return events, nil
}

func (s *service) lockUnit(ctx context.Context, tx *gorm.DB, serial string) (*models.Modem, error) {
	modem, err := s.unitsRepo.WithTx(tx).FindBySerialForUpdate(ctx, serial)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %s not found", serial))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking unit")
	}
	return modem, nil
}

// transitionLocked runs steps 2-8 of a transition against an already locked
// unit row: rule lookup, authorization, debounce, mutation, batch side
// effects and the audit append.
func (s *service) transitionLocked(ctx context.Context, tx *gorm.DB, modem *models.Modem, event string, input ApplyTransitionInput) (*TransitionResult, ActionEvent, error) {
	var notice ActionEvent
	serial := modem.Serial

	rule, err := s.rulesRepo.WithTx(tx).FindRule(ctx, modem.StateID, event)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notice, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("no transition %q from %s", event, modem.Phase))
		}
		return nil, notice, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving transition rule")
	}
	if err := transitions.Authorize(rule, input.Role); err != nil {
		return nil, notice, err
	}
	if rule.ToState == nil {
		return nil, notice, pkgerrors.New(pkgerrors.CodeInternal, "rule is missing its destination state")
	}
	toPhase := rule.ToState.Name

	auditRepo := s.auditRepo.WithTx(tx)
	since := s.now().Add(-s.debounce)
	recent, err := auditRepo.HasRecentEvent(ctx, serial, toPhase, since)
	if err != nil {
		return nil, notice, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking debounce window")
	}
	if recent {
		return nil, notice, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("duplicate scan of %s toward %s", serial, toPhase))
	}

	previous := modem.Phase
	updates := map[string]any{
		"state_id": rule.ToStateID,
		"phase":    toPhase,
	}
	outcome := enums.OutcomeSerialOK
	var loteID *uuid.UUID

	switch toPhase {
	case enums.PhasePackaging:
		if previous != enums.PhaseRetest {
			return nil, notice, pkgerrors.New(pkgerrors.CodeStateConflict, "units reach EMPAQUE only from RETEST")
		}
		sku, err := s.catalogRepo.WithTx(tx).FindSkuByID(ctx, modem.SkuID)
		if err != nil {
			return nil, notice, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sku")
		}
		lote, err := s.batchSvc.ResolveOrCreateOutbound(ctx, tx, sku.ID, sku.Code, input.Operator, false, nil)
		if err != nil {
			return nil, notice, err
		}
		updates["outbound_lote_id"] = lote.ID
		updates["retest_done"] = true
		loteID = &lote.ID

	case enums.PhaseScrap:
		reason := scrap.ClassifyReason(input.ReasonText)
		detail := scrap.ClassifyDetail(input.DetailText, reason)
		updates["scrap_reason"] = reason
		updates["scrap_detail"] = detail
		outcome = reason.Outcome()

	case enums.PhaseRepair:
		outcome = enums.OutcomeRepair
	}

	unitsRepo := s.unitsRepo.WithTx(tx)
	if err := unitsRepo.Update(ctx, modem.ID, updates); err != nil {
		return nil, notice, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "moving unit")
	}

	var repairCode *string
	if toPhase == enums.PhaseRepair || previous == enums.PhaseRepair {
		repairCode = input.RepairCode
	}

	registro := &models.Registro{
		ModemID:    modem.ID,
		Serial:     serial,
		Event:      event,
		FromPhase:  &previous,
		ToPhase:    toPhase,
		Outcome:    outcome,
		Operator:   input.Operator,
		Role:       input.Role,
		LoteID:     loteID,
		RepairCode: repairCode,
		Notes:      input.Notes,
	}
	if _, err := auditRepo.Append(ctx, registro); err != nil {
		return nil, notice, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing audit event")
	}

	reloaded, err := unitsRepo.FindByID(ctx, modem.ID)
	if err != nil {
		return nil, notice, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading unit")
	}

	result := &TransitionResult{
		Unit:          reloaded,
		PreviousPhase: previous,
		NewPhase:      toPhase,
		LoteID:        loteID,
	}
	notice = ActionEvent{
		Serial:    serial,
		Event:     event,
		FromPhase: &previous,
		ToPhase:   toPhase,
		Outcome:   outcome,
		Operator:  input.Operator,
		Role:      input.Role,
		LoteID:    loteID,
		At:        s.now().UTC(),
	}
	return result, notice, nil
}

func (s *service) notify(ctx context.Context, event ActionEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.UnitMoved(ctx, event)
	if s.logg != nil {
		s.logg.Info(s.logg.WithSerial(ctx, event.Serial), fmt.Sprintf("unit %s: %s", event.Serial, event.Event))
	}
}
