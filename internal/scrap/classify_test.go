package scrap

import (
	"testing"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

func TestClassifyReason(t *testing.T) {
	cases := []struct {
		text string
		want enums.ScrapReason
	}{
		{"Cosmetica rayada", enums.ScrapReasonCosmetic},
		{"daño COSMETICO", enums.ScrapReasonCosmetic},
		{"fuera de rango", enums.ScrapReasonOutOfRange},
		{"falla electronica", enums.ScrapReasonOutOfRange},
		{"Rango excedido", enums.ScrapReasonOutOfRange},
		{"infestado", enums.ScrapReasonInfested},
		{"INFESTACION visible", enums.ScrapReasonInfested},
		{"golpe en carcasa", enums.ScrapReasonOther},
		{"", enums.ScrapReasonOther},
	}
	for _, tc := range cases {
		if got := ClassifyReason(tc.text); got != tc.want {
			t.Fatalf("ClassifyReason(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyDetail(t *testing.T) {
	cases := []struct {
		text   string
		reason enums.ScrapReason
		want   enums.ScrapDetail
	}{
		{"circuito ok, base dañada", enums.ScrapReasonOutOfRange, enums.ScrapDetailCircuitOKBaseNOK},
		{"sirve circuito", enums.ScrapReasonOther, enums.ScrapDetailCircuitOKBaseNOK},
		{"base ok", enums.ScrapReasonOutOfRange, enums.ScrapDetailBaseOKCircuitNOK},
		{"sirve base solamente", enums.ScrapReasonCosmetic, enums.ScrapDetailBaseOKCircuitNOK},
		{"no sirve", enums.ScrapReasonOutOfRange, enums.ScrapDetailCircuitNOKBaseNOK},
		{"", enums.ScrapReasonInfested, enums.ScrapDetailInfestation},
		{"sin detalle", enums.ScrapReasonOther, enums.ScrapDetailOther},
	}
	for _, tc := range cases {
		if got := ClassifyDetail(tc.text, tc.reason); got != tc.want {
			t.Fatalf("ClassifyDetail(%q, %s) = %s, want %s", tc.text, tc.reason, got, tc.want)
		}
	}
}

func TestOutcomeMapping(t *testing.T) {
	cases := map[enums.ScrapReason]enums.RegistroOutcome{
		enums.ScrapReasonCosmetic:   enums.OutcomeScrapCosmetic,
		enums.ScrapReasonInfested:   enums.OutcomeScrapInfestation,
		enums.ScrapReasonOutOfRange: enums.OutcomeScrapElectronic,
		enums.ScrapReasonOther:      enums.OutcomeScrapElectronic,
	}
	for reason, want := range cases {
		if got := Outcome(reason); got != want {
			t.Fatalf("Outcome(%s) = %s, want %s", reason, got, want)
		}
	}
}
