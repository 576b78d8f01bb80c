// Package scenariofile adapts the user-facing YAML shape (config.ScenarioFile)
// into the canonical engine types: the Household and Modifier structs the
// simulation loop actually runs on. This is where the one-size-fits-all
// YAML field set is narrowed back down to each archetype's specific fields.
package scenariofile

import (
	"fmt"

	"github.com/google/uuid"

	"pensionsim/internal/account"
	"pensionsim/internal/allocator"
	"pensionsim/internal/config"
	"pensionsim/internal/engine"
	"pensionsim/internal/modifier"
)

// ToHousehold converts a parsed HouseholdSpec into an engine.Household.
func ToHousehold(spec config.HouseholdSpec) engine.Household {
	accounts := make([]*account.BalanceAccount, 0, len(spec.Accounts))
	for _, as := range spec.Accounts {
		accounts = append(accounts, as.ToAccount())
	}

	var policy allocator.Policy
	if len(spec.AllocationConfig) > 0 {
		policy = make(allocator.Policy, len(spec.AllocationConfig))
		for k, v := range spec.AllocationConfig {
			policy[account.AssetClass(k)] = v
		}
	}

	return engine.Household{
		Accounts:            accounts,
		MonthlyIncome:       spec.MonthlyIncome,
		MonthlyIncomeTax:    spec.MonthlyIncomeTax,
		MonthlyNI:           spec.MonthlyNI,
		GrossAnnualSalary:   spec.GrossAnnualSalary,
		MonthlyExpenses:     spec.MonthlyExpenses,
		CurrentAge:          spec.CurrentAge,
		RetirementAge:       spec.RetirementAge,
		StatePensionAge:     spec.StatePensionAge,
		StatePensionMonthly: spec.StatePensionMonthly,
		AllocationConfig:    policy,
		TaxBandInflation:    spec.TaxBandInflation,
	}
}

// ToModifiers converts the YAML modifier list into modifier.Modifier values,
// generating an ID for any entry that doesn't specify one.
func ToModifiers(specs []config.ModifierSpec) ([]modifier.Modifier, error) {
	out := make([]modifier.Modifier, 0, len(specs))
	for _, ms := range specs {
		id := ms.ID
		if id == "" {
			id = uuid.NewString()
		}

		var newAllocation map[account.AssetClass]float64
		if len(ms.NewAllocation) > 0 {
			newAllocation = make(map[account.AssetClass]float64, len(ms.NewAllocation))
			for k, v := range ms.NewAllocation {
				newAllocation[account.AssetClass(k)] = v
			}
		}

		m := modifier.Modifier{
			ID:                     id,
			Name:                   ms.Name,
			ScenarioID:             ms.ScenarioID,
			Archetype:              modifier.Archetype(ms.Archetype),
			StartPeriod:            ms.StartPeriod,
			EndPeriod:              ms.EndPeriod,
			Amount:                 ms.Amount,
			AccountName:            ms.AccountName,
			NewPerformance:         ms.NewPerformance,
			NewAllocation:          newAllocation,
			NewGrossAnnualSalary:   ms.NewGrossAnnualSalary,
			BusinessRevenueMonthly: ms.BusinessRevenueMonthly,
			BusinessCostsMonthly:   ms.BusinessCostsMonthly,
			InflationRate:          ms.InflationRate,
		}
		if !modifier.IsKnownArchetype(m.Archetype) {
			return nil, fmt.Errorf("scenariofile: modifier %q: %w: %q", m.Name, modifier.ErrUnknownArchetype, ms.Archetype)
		}
		out = append(out, m)
	}
	return out, nil
}

// ToScenario converts a fully parsed config.ScenarioFile into an
// engine.Scenario plus the simulation horizon parameters the caller needs to
// build a Simulator.
func ToScenario(sf *config.ScenarioFile) (engine.Scenario, config.SimulationSpec, error) {
	modifiers, err := ToModifiers(sf.Modifiers)
	if err != nil {
		return engine.Scenario{}, config.SimulationSpec{}, err
	}
	return engine.Scenario{
		Baseline:  ToHousehold(sf.Household),
		Modifiers: modifiers,
	}, sf.Simulation, nil
}
