package scenariofile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pensionsim/internal/account"
	"pensionsim/internal/config"
)

func TestToHousehold_ConvertsAccountsAndAllocation(t *testing.T) {
	spec := config.HouseholdSpec{
		Accounts: []config.AccountSpec{
			{Name: "Current Account", Balance: 1000},
		},
		GrossAnnualSalary: 50000,
		MonthlyExpenses:   2000,
		CurrentAge:        40,
		RetirementAge:     67,
		AllocationConfig:  map[string]float64{"equities": 10},
	}
	h := ToHousehold(spec)
	assert.Len(t, h.Accounts, 1)
	assert.Equal(t, "Current Account", h.Accounts[0].Name)
	assert.Equal(t, 10.0, h.AllocationConfig[account.Equities])
}

func TestToModifiers_GeneratesIDWhenMissing(t *testing.T) {
	specs := []config.ModifierSpec{
		{Name: "bonus", Archetype: "ONE_OFF_INFLOW", Amount: 1000, StartPeriod: 0},
	}
	mods, err := ToModifiers(specs)
	assert.NoError(t, err)
	assert.Len(t, mods, 1)
	assert.NotEmpty(t, mods[0].ID)
}

func TestToModifiers_RejectsUnknownArchetype(t *testing.T) {
	specs := []config.ModifierSpec{
		{Name: "bad", Archetype: "NOT_A_REAL_ARCHETYPE"},
	}
	_, err := ToModifiers(specs)
	assert.Error(t, err)
}

func TestToScenario_RoundTripsFromParsedFile(t *testing.T) {
	sf := &config.ScenarioFile{
		Household: config.HouseholdSpec{
			Accounts:          []config.AccountSpec{{Name: "Current Account", Balance: 100}},
			MonthlyExpenses:   1500,
			GrossAnnualSalary: 40000,
			CurrentAge:        30,
			RetirementAge:     65,
		},
		Simulation: config.SimulationSpec{Years: 10, StartYear: 2026},
	}
	scenario, simSpec, err := ToScenario(sf)
	assert.NoError(t, err)
	assert.Equal(t, 10, simSpec.Years)
	assert.Len(t, scenario.Baseline.Accounts, 1)
}
