package transitions

import (
	"testing"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

func TestDefaultRulesHaveNoDuplicateEdges(t *testing.T) {
	type key struct {
		from  enums.ProcessPhase
		event string
	}
	seen := map[key]bool{}
	for _, rule := range DefaultRules() {
		k := key{from: rule.From, event: rule.Event}
		if seen[k] {
			t.Fatalf("duplicate rule %q from %s", rule.Event, rule.From)
		}
		seen[k] = true
	}
}

func TestDefaultRulesPackagingIsTerminal(t *testing.T) {
	for _, rule := range DefaultRules() {
		if rule.From == enums.PhasePackaging {
			t.Fatalf("unexpected outgoing rule %q from EMPAQUE", rule.Event)
		}
	}
}

func TestDefaultRulesRegistrationRejectIsAdminOnly(t *testing.T) {
	for _, rule := range DefaultRules() {
		if rule.From == enums.PhaseRegistration && rule.Event == RejectEvent(enums.PhaseRegistration) {
			if len(rule.Roles) != 1 || rule.Roles[0] != enums.OperatorRoleWarehouseAdmin {
				t.Fatalf("expected admin-only roles, got %v", rule.Roles)
			}
			return
		}
	}
	t.Fatal("Rechazar REGISTRO rule not found")
}

func TestDefaultRulesIncludeExplicitRetestToAssembly(t *testing.T) {
	for _, rule := range DefaultRules() {
		if rule.From == enums.PhaseRetest && rule.Event == ReturnToAssemblyEvent {
			if rule.To != enums.PhaseAssembly {
				t.Fatalf("expected ENSAMBLE destination, got %s", rule.To)
			}
			return
		}
	}
	t.Fatal("explicit RETEST -> ENSAMBLE rule not found")
}

func TestDefaultRulesMainFlowChain(t *testing.T) {
	byEdge := map[string]enums.ProcessPhase{}
	for _, rule := range DefaultRules() {
		byEdge[string(rule.From)+"|"+rule.Event] = rule.To
	}
	flow := enums.MainFlow
	for i := 0; i < len(flow)-1; i++ {
		to, ok := byEdge[string(flow[i])+"|"+CompleteEvent(flow[i])]
		if !ok {
			t.Fatalf("missing %q", CompleteEvent(flow[i]))
		}
		if to != flow[i+1] {
			t.Fatalf("%q lands on %s, want %s", CompleteEvent(flow[i]), to, flow[i+1])
		}
	}
}

func TestDefaultRulesNoReintegrateFromRegistration(t *testing.T) {
	for _, rule := range DefaultRules() {
		if rule.From == enums.PhaseRegistration && rule.Event == ReintegrateEvent(enums.PhaseRegistration) {
			t.Fatal("Reintegrar REGISTRO must not exist")
		}
	}
}
