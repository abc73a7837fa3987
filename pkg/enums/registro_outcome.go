package enums

import "fmt"

// RegistroOutcome classifies the result captured by one audit row.
type RegistroOutcome string

const (
	OutcomeSerialOK         RegistroOutcome = "SN_OK"
	OutcomeScrapCosmetic    RegistroOutcome = "SCRAP_COSMETICO"
	OutcomeScrapElectronic  RegistroOutcome = "SCRAP_ELECTRONICO"
	OutcomeScrapInfestation RegistroOutcome = "SCRAP_INFESTACION"
	OutcomeRepair           RegistroOutcome = "REPARACION"
)

var validRegistroOutcomes = []RegistroOutcome{
	OutcomeSerialOK,
	OutcomeScrapCosmetic,
	OutcomeScrapElectronic,
	OutcomeScrapInfestation,
	OutcomeRepair,
}

// String implements fmt.Stringer.
func (r RegistroOutcome) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RegistroOutcome.
func (r RegistroOutcome) IsValid() bool {
	for _, candidate := range validRegistroOutcomes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRegistroOutcome converts raw input into a RegistroOutcome.
func ParseRegistroOutcome(value string) (RegistroOutcome, error) {
	for _, candidate := range validRegistroOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid registro outcome %q", value)
}
