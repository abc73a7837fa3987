package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// ActionEvent is the fire-and-forget notification emitted after a committed
// transition. Delivery failures never affect the transition itself.
type ActionEvent struct {
	Serial    string                `json:"serial"`
	Event     string                `json:"event"`
	FromPhase *enums.ProcessPhase   `json:"from_phase,omitempty"`
	ToPhase   enums.ProcessPhase    `json:"to_phase"`
	Outcome   enums.RegistroOutcome `json:"outcome"`
	Operator  string                `json:"operator"`
	Role      enums.OperatorRole    `json:"role"`
	LoteID    *uuid.UUID            `json:"lote_id,omitempty"`
	At        time.Time             `json:"at"`
}

// Notifier publishes action events after commit.
type Notifier interface {
	UnitMoved(ctx context.Context, event ActionEvent)
}
