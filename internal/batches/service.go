package batches

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// BatchStats summarizes a closed or open batch. PhaseCounts breaks the
// batch's units down by their current phase.
type BatchStats struct {
	Lote        *models.Lote
	UnitCount   int64
	PhaseCounts map[enums.ProcessPhase]int64
}

// Service manages batch lifecycle around the transition engine.
type Service interface {
	ResolveOrCreateInbound(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, skuCode, operator string) (*models.Lote, error)
	ResolveOrCreateOutbound(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, skuCode, operator string, isScrap bool, reason *enums.ScrapReason) (*models.Lote, error)
	ConfirmInbound(ctx context.Context, skuID uuid.UUID, operator string) (*BatchStats, error)
	CloseBatch(ctx context.Context, loteID uuid.UUID) (*BatchStats, error)
	GetBatch(ctx context.Context, loteID uuid.UUID) (*BatchStats, error)
	List(ctx context.Context, params pagination.Params, filters BatchFilters) (*BatchList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a batch service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batches repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ResolveOrCreateInbound returns the open inbound batch for (sku, operator)
// or creates one. It must run inside the caller's transaction; the open-batch
// lookup takes a row lock so two concurrent scans cannot both create.
func (s *service) ResolveOrCreateInbound(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, skuCode, operator string) (*models.Lote, error) {
	return s.resolveOrCreate(ctx, tx, BatchKey{
		SkuID:    skuID,
		Operator: operator,
		Type:     enums.LoteTypeInbound,
	}, skuCode)
}

// ResolveOrCreateOutbound is the outbound counterpart, keyed additionally by
// the scrap flag and reason.
func (s *service) ResolveOrCreateOutbound(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, skuCode, operator string, isScrap bool, reason *enums.ScrapReason) (*models.Lote, error) {
	if isScrap && reason == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scrap batches require a scrap reason")
	}
	return s.resolveOrCreate(ctx, tx, BatchKey{
		SkuID:       skuID,
		Operator:    operator,
		Type:        enums.LoteTypeOutbound,
		IsScrap:     isScrap,
		ScrapReason: reason,
	}, skuCode)
}

func (s *service) resolveOrCreate(ctx context.Context, tx *gorm.DB, key BatchKey, skuCode string) (*models.Lote, error) {
	repo := s.repo.WithTx(tx)

	lote, err := repo.FindOpenByKey(ctx, key)
	if err == nil {
		return lote, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving open batch")
	}

	fresh := &models.Lote{
		Number:      BatchNumber(key.Type, skuCode, key.IsScrap, key.ScrapReason, time.Now().UTC()),
		Type:        key.Type,
		State:       enums.LoteStateInProgress,
		SkuID:       key.SkuID,
		Operator:    key.Operator,
		IsScrap:     key.IsScrap,
		ScrapReason: key.ScrapReason,
	}
	created, err := repo.Create(ctx, fresh)
	if err != nil {
		if db.IsUniqueViolation(err) {
			// lost the race on the open-batch partial index; reread
			return repo.FindOpenByKey(ctx, key)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating batch")
	}
	return created, nil
}

// ConfirmInbound verifies the operator's open inbound batch is ready to be
// topped off: it must exist and hold at least one unit. The batch stays open;
// only CloseBatch completes it.
func (s *service) ConfirmInbound(ctx context.Context, skuID uuid.UUID, operator string) (*BatchStats, error) {
	if operator == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operator is required")
	}

	var stats *BatchStats
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lote, err := repo.FindOpenByKey(ctx, BatchKey{
			SkuID:    skuID,
			Operator: operator,
			Type:     enums.LoteTypeInbound,
		})
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no open inbound batch for this sku and operator")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving open batch")
		}

		count, err := repo.CountUnits(ctx, lote.ID, lote.Type)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting batch units")
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("batch %s has no units", lote.Number))
		}

		phases, err := repo.CountUnitsByPhase(ctx, lote.ID, lote.Type)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting batch phases")
		}
		stats = &BatchStats{Lote: lote, UnitCount: count, PhaseCounts: phases}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CloseBatch completes a batch. Closing is refused when the batch is already
// closed or still empty.
func (s *service) CloseBatch(ctx context.Context, loteID uuid.UUID) (*BatchStats, error) {
	var stats *BatchStats
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lote, err := repo.FindByIDForUpdate(ctx, loteID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading batch")
		}
		if lote.State == enums.LoteStateCompleted {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("batch %s is already closed", lote.Number))
		}

		count, err := repo.CountUnits(ctx, loteID, lote.Type)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting batch units")
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("batch %s has no units", lote.Number))
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"state":     enums.LoteStateCompleted,
			"closed_at": now,
		}
		if err := repo.Update(ctx, loteID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "closing batch")
		}

		lote.State = enums.LoteStateCompleted
		lote.ClosedAt = &now
		stats = &BatchStats{Lote: lote, UnitCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *service) GetBatch(ctx context.Context, loteID uuid.UUID) (*BatchStats, error) {
	lote, err := s.repo.FindByID(ctx, loteID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading batch")
	}
	count, err := s.repo.CountUnits(ctx, loteID, lote.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting batch units")
	}
	phases, err := s.repo.CountUnitsByPhase(ctx, loteID, lote.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting batch phases")
	}
	return &BatchStats{Lote: lote, UnitCount: count, PhaseCounts: phases}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters BatchFilters) (*BatchList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing batches")
	}
	return list, nil
}
