package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an audit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, event *models.Registro) (*models.Registro, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) History(ctx context.Context, modemID uuid.UUID) ([]models.Registro, error) {
	var events []models.Registro
	err := r.db.WithContext(ctx).
		Where("modem_id = ?", modemID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// HasRecentEvent reports whether an event for the same serial toward the
// same phase was appended since the given instant. This is the debounce
// check; it runs inside the transition transaction.
func (r *repository) HasRecentEvent(ctx context.Context, serial string, toPhase enums.ProcessPhase, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Registro{}).
		Where("serial = ? AND to_phase = ? AND created_at >= ?", serial, toPhase, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PruneIntermediate deletes intermediate audit rows for units that finished
// the line, keeping each unit's first and last event. It works in bounded
// batches so the retention worker never holds long transactions.
func (r *repository) PruneIntermediate(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM registros
		WHERE id IN (
			SELECT reg.id
			FROM registros reg
			JOIN modems m ON m.id = reg.modem_id
			WHERE m.phase IN (?, ?)
			  AND reg.id <> (
				SELECT r2.id FROM registros r2
				WHERE r2.modem_id = reg.modem_id
				ORDER BY r2.created_at ASC, r2.id ASC LIMIT 1
			  )
			  AND reg.id <> (
				SELECT r3.id FROM registros r3
				WHERE r3.modem_id = reg.modem_id
				ORDER BY r3.created_at DESC, r3.id DESC LIMIT 1
			  )
			LIMIT ?
		)`,
		enums.PhasePackaging, enums.PhaseScrap, batchSize,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
