package enums

import "fmt"

// ScrapDetail refines a scrap reason down to the salvageable parts.
type ScrapDetail string

const (
	ScrapDetailCircuitOKBaseNOK  ScrapDetail = "CIRCUITO_OK_BASE_NOK"
	ScrapDetailBaseOKCircuitNOK  ScrapDetail = "BASE_OK_CIRCUITO_NOK"
	ScrapDetailCircuitNOKBaseNOK ScrapDetail = "CIRCUITO_NOK_BASE_NOK"
	ScrapDetailInfestation       ScrapDetail = "INFESTACION"
	ScrapDetailOther             ScrapDetail = "OTRO"
)

var validScrapDetails = []ScrapDetail{
	ScrapDetailCircuitOKBaseNOK,
	ScrapDetailBaseOKCircuitNOK,
	ScrapDetailCircuitNOKBaseNOK,
	ScrapDetailInfestation,
	ScrapDetailOther,
}

// String implements fmt.Stringer.
func (s ScrapDetail) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScrapDetail.
func (s ScrapDetail) IsValid() bool {
	for _, candidate := range validScrapDetails {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScrapDetail converts raw input into a ScrapDetail.
func ParseScrapDetail(value string) (ScrapDetail, error) {
	for _, candidate := range validScrapDetails {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scrap detail %q", value)
}
