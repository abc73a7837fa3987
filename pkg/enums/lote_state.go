package enums

import "fmt"

// LoteState tracks the lifecycle of a batch.
type LoteState string

const (
	LoteStateInProgress LoteState = "EN_PROCESO"
	LoteStatePaused     LoteState = "PAUSADO"
	LoteStateCompleted  LoteState = "COMPLETADO"
)

var validLoteStates = []LoteState{
	LoteStateInProgress,
	LoteStatePaused,
	LoteStateCompleted,
}

// String implements fmt.Stringer.
func (l LoteState) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LoteState.
func (l LoteState) IsValid() bool {
	for _, candidate := range validLoteStates {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLoteState converts raw input into a LoteState.
func ParseLoteState(value string) (LoteState, error) {
	for _, candidate := range validLoteStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lote state %q", value)
}
