package transitions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/db"
	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
)

// Service resolves and authorizes transition rules.
type Service interface {
	Resolve(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error)
	Authorize(rule *models.TransitionRule, role enums.OperatorRole) error
	AvailableEvents(ctx context.Context, fromStateID uuid.UUID, role enums.OperatorRole) ([]string, error)
	ValidateGraph(ctx context.Context, states []models.ProcessState) error
}

type service struct {
	repo Repository
}

// NewService builds a transitions service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transitions repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve looks up the rule for (fromState, event). A missing row is a
// state conflict, not a not-found: the entities exist, the move does not.
func (s *service) Resolve(ctx context.Context, fromStateID uuid.UUID, event string) (*models.TransitionRule, error) {
	rule, err := s.repo.FindRule(ctx, fromStateID, event)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("no transition %q from current state", event))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving transition rule")
	}
	return rule, nil
}

// Authorize checks the caller's role against the rule's allow-list. The
// warehouse admin role passes every check.
func Authorize(rule *models.TransitionRule, role enums.OperatorRole) error {
	if rule == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "nil transition rule")
	}
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("unknown role %q", role))
	}
	if role.Overrides() {
		return nil
	}
	if !rule.Roles.Contains(role) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %s may not trigger %q", role, rule.Event))
	}
	return nil
}

func (s *service) Authorize(rule *models.TransitionRule, role enums.OperatorRole) error {
	return Authorize(rule, role)
}

// AvailableEvents returns the event names the given role can fire from the
// given state, sorted by event name.
func (s *service) AvailableEvents(ctx context.Context, fromStateID uuid.UUID, role enums.OperatorRole) ([]string, error) {
	rules, err := s.repo.ListRulesFrom(ctx, fromStateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transition rules")
	}
	events := make([]string, 0, len(rules))
	for _, rule := range rules {
		if role.Overrides() || rule.Roles.Contains(role) {
			events = append(events, rule.Event)
		}
	}
	return events, nil
}

// ValidateGraph runs at startup and fails fast when the seeded rule table
// does not cover the main flow or the explicit RETEST -> ENSAMBLE edge.
func (s *service) ValidateGraph(ctx context.Context, states []models.ProcessState) error {
	stateByName := make(map[enums.ProcessPhase]uuid.UUID, len(states))
	stateByID := make(map[uuid.UUID]enums.ProcessPhase, len(states))
	for _, st := range states {
		stateByName[st.Name] = st.ID
		stateByID[st.ID] = st.Name
	}
	for _, phase := range enums.MainFlow {
		if _, ok := stateByName[phase]; !ok {
			return fmt.Errorf("process state %s is not seeded", phase)
		}
	}

	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("listing transition rules: %w", err)
	}

	type edge struct {
		from  uuid.UUID
		event string
	}
	seen := make(map[edge]uuid.UUID, len(rules))
	for _, rule := range rules {
		if _, ok := stateByID[rule.FromStateID]; !ok {
			return fmt.Errorf("rule %q references unknown from-state %s", rule.Event, rule.FromStateID)
		}
		if _, ok := stateByID[rule.ToStateID]; !ok {
			return fmt.Errorf("rule %q references unknown to-state %s", rule.Event, rule.ToStateID)
		}
		if len(rule.Roles) == 0 {
			return fmt.Errorf("rule %q has an empty role list", rule.Event)
		}
		key := edge{from: rule.FromStateID, event: rule.Event}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate rule %q from state %s", rule.Event, stateByID[rule.FromStateID])
		}
		seen[key] = rule.ToStateID
	}

	for i := 0; i < len(enums.MainFlow)-1; i++ {
		from := enums.MainFlow[i]
		to := enums.MainFlow[i+1]
		toID, ok := seen[edge{from: stateByName[from], event: CompleteEvent(from)}]
		if !ok {
			return fmt.Errorf("missing main-flow rule %q", CompleteEvent(from))
		}
		if toID != stateByName[to] {
			return fmt.Errorf("rule %q does not land on %s", CompleteEvent(from), to)
		}
	}

	backID, ok := seen[edge{from: stateByName[enums.PhaseRetest], event: ReturnToAssemblyEvent}]
	if !ok {
		return fmt.Errorf("missing explicit rule %q", ReturnToAssemblyEvent)
	}
	if backID != stateByName[enums.PhaseAssembly] {
		return fmt.Errorf("rule %q does not land on %s", ReturnToAssemblyEvent, enums.PhaseAssembly)
	}

	return nil
}
