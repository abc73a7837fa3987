package enums

import "fmt"

// ScrapReason is the normalized defect category of a scrapped unit.
type ScrapReason string

const (
	ScrapReasonCosmetic   ScrapReason = "COSMETICA"
	ScrapReasonOutOfRange ScrapReason = "FUERA_DE_RANGO"
	ScrapReasonInfested   ScrapReason = "INFESTADO"
	ScrapReasonOther      ScrapReason = "OTRO"
)

var validScrapReasons = []ScrapReason{
	ScrapReasonCosmetic,
	ScrapReasonOutOfRange,
	ScrapReasonInfested,
	ScrapReasonOther,
}

// String implements fmt.Stringer.
func (s ScrapReason) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScrapReason.
func (s ScrapReason) IsValid() bool {
	for _, candidate := range validScrapReasons {
		if candidate == s {
			return true
		}
	}
	return false
}

// Outcome maps the reason to the audit outcome recorded for the scrap.
// Unrecognized reasons land on the electronic-scrap bucket.
func (s ScrapReason) Outcome() RegistroOutcome {
	switch s {
	case ScrapReasonCosmetic:
		return OutcomeScrapCosmetic
	case ScrapReasonInfested:
		return OutcomeScrapInfestation
	default:
		return OutcomeScrapElectronic
	}
}

// ParseScrapReason converts raw input into a ScrapReason.
func ParseScrapReason(value string) (ScrapReason, error) {
	for _, candidate := range validScrapReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scrap reason %q", value)
}
