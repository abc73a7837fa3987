package enums

import "fmt"

// ProcessPhase names a stage of the refurbishment pipeline. It mirrors the
// ProcessState row a unit points at and is kept denormalized on the unit for
// flow-order validation.
type ProcessPhase string

const (
	PhaseRegistration ProcessPhase = "REGISTRO"
	PhaseInitialTest  ProcessPhase = "TEST_INICIAL"
	PhaseAssembly     ProcessPhase = "ENSAMBLE"
	PhaseRetest       ProcessPhase = "RETEST"
	PhasePackaging    ProcessPhase = "EMPAQUE"
	PhaseScrap        ProcessPhase = "SCRAP"
	PhaseRepair       ProcessPhase = "REPARACION"
)

// MainFlow is the strictly sequential happy path, in order.
var MainFlow = []ProcessPhase{
	PhaseRegistration,
	PhaseInitialTest,
	PhaseAssembly,
	PhaseRetest,
	PhasePackaging,
}

var validProcessPhases = []ProcessPhase{
	PhaseRegistration,
	PhaseInitialTest,
	PhaseAssembly,
	PhaseRetest,
	PhasePackaging,
	PhaseScrap,
	PhaseRepair,
}

// String implements fmt.Stringer.
func (p ProcessPhase) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProcessPhase.
func (p ProcessPhase) IsValid() bool {
	for _, candidate := range validProcessPhases {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProcessPhase converts raw input into a ProcessPhase.
func ParseProcessPhase(value string) (ProcessPhase, error) {
	for _, candidate := range validProcessPhases {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid process phase %q", value)
}
