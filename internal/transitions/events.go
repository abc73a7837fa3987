package transitions

import (
	"fmt"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// Event names are user-facing and scanned from station screens, so they keep
// the Spanish wording the floor already knows.

// CompleteEvent advances a unit out of the given phase along the main flow.
func CompleteEvent(phase enums.ProcessPhase) string {
	return fmt.Sprintf("Completar %s", phase)
}

// RejectEvent sends a unit from the given phase to SCRAP.
func RejectEvent(phase enums.ProcessPhase) string {
	return fmt.Sprintf("Rechazar %s", phase)
}

// RepairEvent sends a unit from the given phase to REPARACION.
func RepairEvent(phase enums.ProcessPhase) string {
	return fmt.Sprintf("Reparar %s", phase)
}

// ReintegrateEvent re-runs a unit through its current phase.
func ReintegrateEvent(phase enums.ProcessPhase) string {
	return fmt.Sprintf("Reintegrar %s", phase)
}

// ReturnFromRepairEvent moves a repaired unit back to the phase it came from.
func ReturnFromRepairEvent(phase enums.ProcessPhase) string {
	return fmt.Sprintf("Regresar a %s desde Reparacion", phase)
}

// RejectFromRepairEvent is the only terminal exit out of REPARACION.
const RejectFromRepairEvent = "Rechazar desde Reparacion"

// ReturnToAssemblyEvent is the explicit backward edge RETEST -> ENSAMBLE.
// It exists as its own rule row; legality is never derived from flow order.
const ReturnToAssemblyEvent = "Regresar a ENSAMBLE"
