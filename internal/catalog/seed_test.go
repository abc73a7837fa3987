package catalog

import (
	"regexp"
	"testing"

	"github.com/rcastellanos/modemtrack-backend/internal/units"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
)

func seededSku(t *testing.T, code string) seedSku {
	t.Helper()
	for _, item := range defaultSkus {
		if item.Code == code {
			return item
		}
	}
	t.Fatalf("sku %s is not seeded", code)
	return seedSku{}
}

func TestSeedSerialPatternsCompile(t *testing.T) {
	for _, item := range defaultSkus {
		if item.SerialPattern == "" {
			continue
		}
		if _, err := regexp.Compile(item.SerialPattern); err != nil {
			t.Fatalf("sku %s has a broken serial pattern: %v", item.Code, err)
		}
	}
}

func TestV5SeedPatternValidatesSerials(t *testing.T) {
	item := seededSku(t, "V5")
	if item.SerialPattern == "" {
		t.Fatal("expected a serial pattern on V5")
	}
	sku := &models.Sku{Code: item.Code, SerialPattern: &item.SerialPattern}

	if err := units.ValidateSerial("GMJC12345678", sku); err != nil {
		t.Fatalf("expected a 12-char serial to pass, got %v", err)
	}

	err := units.ValidateSerial("ABC123", sku)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for a short serial, got %v", err)
	}
}

func TestSeedTerminalStates(t *testing.T) {
	terminal := map[enums.ProcessPhase]bool{}
	for _, state := range defaultStates {
		terminal[state.Name] = state.Terminal
	}

	if !terminal[enums.PhasePackaging] {
		t.Fatal("EMPAQUE must be seeded as a terminal state")
	}
	if !terminal[enums.PhaseScrap] {
		t.Fatal("SCRAP must be seeded as a terminal state")
	}
	for _, phase := range []enums.ProcessPhase{
		enums.PhaseRegistration,
		enums.PhaseInitialTest,
		enums.PhaseAssembly,
		enums.PhaseRetest,
		enums.PhaseRepair,
	} {
		if terminal[phase] {
			t.Fatalf("%s must not be terminal", phase)
		}
	}
}

func TestFiberhomeAcceptsAnySerial(t *testing.T) {
	item := seededSku(t, "FIBERHOME")
	if item.SerialPattern != "" {
		t.Fatalf("FIBERHOME must not carry a serial pattern, got %q", item.SerialPattern)
	}
	sku := &models.Sku{Code: item.Code}
	if err := units.ValidateSerial("ABC123", sku); err != nil {
		t.Fatalf("expected ABC123 to register against FIBERHOME, got %v", err)
	}
}
