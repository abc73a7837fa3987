package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// Repository defines persistence operations for the append-only audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, event *models.Registro) (*models.Registro, error)
	History(ctx context.Context, modemID uuid.UUID) ([]models.Registro, error)
	HasRecentEvent(ctx context.Context, serial string, toPhase enums.ProcessPhase, since time.Time) (bool, error)
	PruneIntermediate(ctx context.Context, batchSize int) (int64, error)
}
