package transitions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

type seedRule struct {
	From  enums.ProcessPhase
	Event string
	To    enums.ProcessPhase
	Roles models.RoleList
}

var mainFlowRoles = map[enums.ProcessPhase]models.RoleList{
	enums.PhaseRegistration: {enums.OperatorRoleWarehouseAdmin},
	enums.PhaseInitialTest:  {enums.OperatorRoleInitialTest, enums.OperatorRoleWarehouseAdmin},
	enums.PhaseAssembly:     {enums.OperatorRoleAssembly, enums.OperatorRoleWarehouseAdmin},
	enums.PhaseRetest:       {enums.OperatorRoleRetest, enums.OperatorRoleWarehouseAdmin},
}

var repairRoles = models.RoleList{
	enums.OperatorRoleRetest,
	enums.OperatorRoleInitialTest,
	enums.OperatorRoleWarehouseAdmin,
}

var scrapRoles = models.RoleList{
	enums.OperatorRoleWarehouseAdmin,
	enums.OperatorRoleInitialTest,
	enums.OperatorRoleRetest,
	enums.OperatorRolePackaging,
	enums.OperatorRoleRegistration,
}

// DefaultRules builds the production transition graph:
//   - one Completar edge per consecutive main-flow pair
//   - Rechazar (to SCRAP) and Reparar (to REPARACION) from every non-terminal
//     phase except EMPAQUE; rejecting out of REGISTRO is admin-only
//   - Reintegrar self-loops everywhere but REGISTRO
//   - return edges out of REPARACION to each middle phase, plus the
//     admin-only Rechazar desde Reparacion exit
//   - the explicit RETEST -> ENSAMBLE backward edge
func DefaultRules() []seedRule {
	var rules []seedRule

	flow := enums.MainFlow
	for i := 0; i < len(flow)-1; i++ {
		from := flow[i]
		to := flow[i+1]

		rules = append(rules, seedRule{
			From:  from,
			Event: CompleteEvent(from),
			To:    to,
			Roles: mainFlowRoles[from],
		})

		rejectRoles := scrapRoles
		if from == enums.PhaseRegistration {
			rejectRoles = models.RoleList{enums.OperatorRoleWarehouseAdmin}
		}
		rules = append(rules, seedRule{
			From:  from,
			Event: RejectEvent(from),
			To:    enums.PhaseScrap,
			Roles: rejectRoles,
		})

		rules = append(rules, seedRule{
			From:  from,
			Event: RepairEvent(from),
			To:    enums.PhaseRepair,
			Roles: repairRoles,
		})

		if from != enums.PhaseRegistration {
			rules = append(rules, seedRule{
				From:  from,
				Event: ReintegrateEvent(from),
				To:    from,
				Roles: repairRoles,
			})
		}
	}

	for i := 1; i < len(flow)-1; i++ {
		phase := flow[i]
		rules = append(rules, seedRule{
			From:  enums.PhaseRepair,
			Event: ReturnFromRepairEvent(phase),
			To:    phase,
			Roles: repairRoles,
		})
	}

	rules = append(rules, seedRule{
		From:  enums.PhaseRepair,
		Event: RejectFromRepairEvent,
		To:    enums.PhaseScrap,
		Roles: models.RoleList{enums.OperatorRoleWarehouseAdmin},
	})

	rules = append(rules, seedRule{
		From:  enums.PhaseRetest,
		Event: ReturnToAssemblyEvent,
		To:    enums.PhaseAssembly,
		Roles: models.RoleList{enums.OperatorRoleRetest, enums.OperatorRoleWarehouseAdmin},
	})

	return rules
}

// Seed rebuilds the transition rule table from DefaultRules. Rules are
// reference data; wiping and reinserting keeps the table exactly in sync
// with the shipped graph.
func Seed(ctx context.Context, tx *gorm.DB) error {
	var states []models.ProcessState
	if err := tx.WithContext(ctx).Find(&states).Error; err != nil {
		return fmt.Errorf("loading process states: %w", err)
	}
	stateByName := make(map[enums.ProcessPhase]uuid.UUID, len(states))
	for _, st := range states {
		stateByName[st.Name] = st.ID
	}

	if err := tx.WithContext(ctx).Where("1 = 1").Delete(&models.TransitionRule{}).Error; err != nil {
		return fmt.Errorf("clearing transition rules: %w", err)
	}

	for _, rule := range DefaultRules() {
		fromID, ok := stateByName[rule.From]
		if !ok {
			return fmt.Errorf("rule %q: state %s not seeded", rule.Event, rule.From)
		}
		toID, ok := stateByName[rule.To]
		if !ok {
			return fmt.Errorf("rule %q: state %s not seeded", rule.Event, rule.To)
		}
		row := models.TransitionRule{
			FromStateID: fromID,
			Event:       rule.Event,
			ToStateID:   toID,
			Roles:       rule.Roles,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("seeding rule %q: %w", rule.Event, err)
		}
	}

	return nil
}
