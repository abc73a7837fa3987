package scrap

import (
	"strings"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// ClassifyReason normalizes free-text defect descriptions from station
// operators into a scrap reason. Matching is case-insensitive substring;
// anything unrecognized lands on OTRO.
func ClassifyReason(freeText string) enums.ScrapReason {
	text := strings.ToLower(strings.TrimSpace(freeText))
	switch {
	case strings.Contains(text, "cosmet"):
		return enums.ScrapReasonCosmetic
	case strings.Contains(text, "fuera"),
		strings.Contains(text, "rango"),
		strings.Contains(text, "electro"):
		return enums.ScrapReasonOutOfRange
	case strings.Contains(text, "infest"):
		return enums.ScrapReasonInfested
	default:
		return enums.ScrapReasonOther
	}
}

// ClassifyDetail refines the scrap down to the salvageable parts. The detail
// text describes which half of the unit still works; when it says nothing
// useful, an infestation reason decides the bucket.
func ClassifyDetail(freeText string, reason enums.ScrapReason) enums.ScrapDetail {
	text := strings.ToLower(strings.TrimSpace(freeText))
	switch {
	case strings.Contains(text, "circuito ok"),
		strings.Contains(text, "sirve circuito"):
		return enums.ScrapDetailCircuitOKBaseNOK
	case strings.Contains(text, "base ok"),
		strings.Contains(text, "sirve base"):
		return enums.ScrapDetailBaseOKCircuitNOK
	case strings.Contains(text, "no sirve"):
		return enums.ScrapDetailCircuitNOKBaseNOK
	case reason == enums.ScrapReasonInfested:
		return enums.ScrapDetailInfestation
	default:
		return enums.ScrapDetailOther
	}
}

// Outcome maps a scrap reason to the audit outcome recorded for the event.
func Outcome(reason enums.ScrapReason) enums.RegistroOutcome {
	return reason.Outcome()
}
