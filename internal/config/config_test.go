package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pensionsim/internal/account"
)

func TestPreprocessPercentages_ConvertsPercentSuffix(t *testing.T) {
	out := preprocessPercentages("inflation_rate: 2%\nother: 5\n")
	assert.Contains(t, out, "inflation_rate: 0.02")
	assert.Contains(t, out, "other: 5")
}

func TestParse_MinimalScenario(t *testing.T) {
	yaml := `
household:
  accounts:
    - name: Current Account
      balance: 1000
      performance: 0
  monthly_expenses: 2000
  gross_annual_salary: 50000
  current_age: 35
  retirement_age: 67
simulation:
  years: 10
  start_year: 2026
`
	sf, err := parse(yaml)
	assert.NoError(t, err)
	assert.Equal(t, 10, sf.Simulation.Years)
	assert.Len(t, sf.Household.Accounts, 1)
	assert.Equal(t, "Current Account", sf.Household.Accounts[0].Name)
}

func TestParse_ModifierWithEscalatingInflation(t *testing.T) {
	yaml := `
household:
  accounts:
    - name: Current Account
      balance: 0
  monthly_expenses: 1000
  current_age: 30
  retirement_age: 67
modifiers:
  - name: rent
    archetype: RECURRING_EXPENSE
    start_period: 0
    amount: 1200
    inflation_rate: 3%
simulation:
  years: 5
  start_year: 2026
`
	sf, err := parse(yaml)
	assert.NoError(t, err)
	assert.Len(t, sf.Modifiers, 1)
	assert.InDelta(t, 0.03, sf.Modifiers[0].InflationRate, 0.0001)
}

func TestAccountSpec_ToAccount(t *testing.T) {
	spec := AccountSpec{Name: "HYSA Savings", Balance: 5000, Performance: 4.5, Frequency: "monthly", Contribution: 200}
	a := spec.ToAccount()
	assert.Equal(t, "HYSA Savings", a.Name)
	assert.Equal(t, 5000.0, a.Balance)
	assert.Equal(t, 4.5, a.Performance)
}

func TestAccountSpec_ToAccount_MortgageDerivesAmortisedPayment(t *testing.T) {
	spec := AccountSpec{Name: "Mortgage", Balance: 200000, IsDebt: true, Performance: 4.0, TermMonths: 300}
	a := spec.ToAccount()
	assert.Equal(t, account.Monthly, a.Frequency)
	assert.Greater(t, a.Contribution, 0.0)
	// A level payment on £200,000 at 4%/300mo should be roughly £1,055/mo.
	assert.InDelta(t, 1055.0, a.Contribution, 5.0)
}

func TestAccountSpec_ToAccount_ExplicitContributionWinsOverAmortisation(t *testing.T) {
	spec := AccountSpec{Name: "Mortgage", Balance: 200000, IsDebt: true, Performance: 4.0, TermMonths: 300, Contribution: 900}
	a := spec.ToAccount()
	assert.Equal(t, 900.0, a.Contribution)
}

func TestLoadDefault_ParsesEmbeddedScenario(t *testing.T) {
	sf, err := LoadDefault()
	assert.NoError(t, err)
	assert.NotEmpty(t, sf.Household.Accounts)
	assert.Greater(t, sf.Simulation.Years, 0)
}
