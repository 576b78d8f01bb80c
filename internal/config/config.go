// Package config loads a household scenario from YAML, in the shape a user
// hand-writes or exports from the planning tool: percentages as "5%" rather
// than 0.05, account definitions, and the modifier list that perturbs the
// baseline.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"pensionsim/internal/account"
)

//go:embed default-scenario.yaml
var defaultScenarioYAML string

// AccountSpec is one account as written in YAML.
type AccountSpec struct {
	Name                         string  `yaml:"name" json:"name"`
	Balance                      float64 `yaml:"balance" json:"balance"`
	IsDebt                       bool    `yaml:"is_debt,omitempty" json:"is_debt,omitempty"`
	AssetClass                   string  `yaml:"asset_class,omitempty" json:"asset_class,omitempty"` // explicit override; inferred from name if omitted
	Performance                  float64 `yaml:"performance" json:"performance"`                     // annual %, e.g. 5 = 5%
	Contribution                 float64 `yaml:"contribution,omitempty" json:"contribution,omitempty"`
	Frequency                    string  `yaml:"frequency,omitempty" json:"frequency,omitempty"` // weekly|fortnightly|monthly|quarterly|yearly
	ContributionStopAfterPeriods int     `yaml:"contribution_stop_after_periods,omitempty" json:"contribution_stop_after_periods,omitempty"`

	// TermMonths marks this as a mortgage-shaped debt account: instead of a
	// bare Contribution figure, the level monthly repayment is derived from
	// Balance, Performance and TermMonths via the standard amortisation
	// formula. Only consulted when IsDebt is true and Contribution is zero.
	TermMonths int `yaml:"term_months,omitempty" json:"term_months,omitempty"`
}

// HouseholdSpec is the baseline household as written in YAML.
type HouseholdSpec struct {
	Accounts            []AccountSpec      `yaml:"accounts" json:"accounts"`
	MonthlyIncome        float64           `yaml:"monthly_income,omitempty" json:"monthly_income,omitempty"`
	MonthlyIncomeTax      float64           `yaml:"monthly_income_tax,omitempty" json:"monthly_income_tax,omitempty"`
	MonthlyNI             float64           `yaml:"monthly_ni,omitempty" json:"monthly_ni,omitempty"`
	GrossAnnualSalary     float64           `yaml:"gross_annual_salary,omitempty" json:"gross_annual_salary,omitempty"`
	MonthlyExpenses       float64           `yaml:"monthly_expenses" json:"monthly_expenses"`
	CurrentAge            int               `yaml:"current_age" json:"current_age"`
	RetirementAge         int               `yaml:"retirement_age" json:"retirement_age"`
	StatePensionAge       int               `yaml:"state_pension_age,omitempty" json:"state_pension_age,omitempty"`
	StatePensionMonthly   float64           `yaml:"state_pension_monthly,omitempty" json:"state_pension_monthly,omitempty"`
	AllocationConfig      map[string]float64 `yaml:"allocation_config,omitempty" json:"allocation_config,omitempty"` // keyed by asset class name

	// TaxBandInflation is the annual rate income tax and NI bands (and the
	// personal allowance/tapering threshold) inflate by each tax year. Zero
	// keeps the 2024/25 bands fixed for the whole projection.
	TaxBandInflation float64 `yaml:"tax_band_inflation,omitempty" json:"tax_band_inflation,omitempty"`
}

// ModifierSpec is one scenario modifier as written in YAML.
type ModifierSpec struct {
	ID                     string             `yaml:"id,omitempty" json:"id,omitempty"`
	Name                   string             `yaml:"name" json:"name"`
	ScenarioID             string             `yaml:"scenario_id,omitempty" json:"scenario_id,omitempty"`
	Archetype              string             `yaml:"archetype" json:"archetype"`
	StartPeriod            int                `yaml:"start_period" json:"start_period"`
	EndPeriod              int                `yaml:"end_period,omitempty" json:"end_period,omitempty"`
	Amount                 float64            `yaml:"amount,omitempty" json:"amount,omitempty"`
	AccountName            string             `yaml:"account_name,omitempty" json:"account_name,omitempty"`
	NewPerformance         float64            `yaml:"new_performance,omitempty" json:"new_performance,omitempty"`
	NewAllocation          map[string]float64 `yaml:"new_allocation,omitempty" json:"new_allocation,omitempty"`
	NewGrossAnnualSalary   float64            `yaml:"new_gross_annual_salary,omitempty" json:"new_gross_annual_salary,omitempty"`
	BusinessRevenueMonthly float64            `yaml:"business_revenue_monthly,omitempty" json:"business_revenue_monthly,omitempty"`
	BusinessCostsMonthly   float64            `yaml:"business_costs_monthly,omitempty" json:"business_costs_monthly,omitempty"`
	InflationRate          float64            `yaml:"inflation_rate,omitempty" json:"inflation_rate,omitempty"`
}

// SimulationSpec holds the run parameters: horizon and calendar start.
type SimulationSpec struct {
	Years      int `yaml:"years" json:"years"`
	StartYear  int `yaml:"start_year" json:"start_year"`
	StartMonth int `yaml:"start_month,omitempty" json:"start_month,omitempty"`
}

// ScenarioFile is the top-level document shape.
type ScenarioFile struct {
	Household  HouseholdSpec  `yaml:"household" json:"household"`
	Modifiers  []ModifierSpec `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	Simulation SimulationSpec `yaml:"simulation" json:"simulation"`
}

var frequencyByName = map[string]account.Frequency{
	"weekly":      account.Weekly,
	"fortnightly": account.Fortnightly,
	"monthly":     account.Monthly,
	"quarterly":   account.Quarterly,
	"yearly":      account.Yearly,
}

// ToAccount converts an AccountSpec into the engine's BalanceAccount type.
// A mortgage-shaped debt account (IsDebt, TermMonths set, no Contribution
// figure of its own) gets its level monthly repayment derived via
// account.AmortisedMonthlyPayment rather than requiring the caller to work
// the amortisation formula out themselves.
func (s AccountSpec) ToAccount() *account.BalanceAccount {
	freq := account.Monthly
	if f, ok := frequencyByName[s.Frequency]; ok {
		freq = f
	}
	contribution := s.Contribution
	if s.IsDebt && s.TermMonths > 0 && contribution == 0 {
		contribution = account.AmortisedMonthlyPayment(s.Balance, s.Performance, s.TermMonths)
		freq = account.Monthly
	}
	return &account.BalanceAccount{
		Name:                         s.Name,
		Balance:                      s.Balance,
		IsDebt:                       s.IsDebt,
		AssetClass:                   account.AssetClass(s.AssetClass),
		Performance:                  s.Performance,
		Contribution:                 contribution,
		Frequency:                    freq,
		ContributionStopAfterPeriods: s.ContributionStopAfterPeriods,
	}
}

// LoadFile reads and parses a scenario file from disk.
func LoadFile(filename string) (*ScenarioFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", filename, err)
	}
	return parse(string(data))
}

// LoadDefault parses the scenario embedded into the binary at build time,
// used when no -scenario flag is given.
func LoadDefault() (*ScenarioFile, error) {
	return parse(preprocessPercentages(defaultScenarioYAML))
}

func parse(content string) (*ScenarioFile, error) {
	var sf ScenarioFile
	if err := yaml.Unmarshal([]byte(preprocessPercentages(content)), &sf); err != nil {
		return nil, fmt.Errorf("config: parsing scenario yaml: %w", err)
	}
	return &sf, nil
}

// preprocessPercentages rewrites "5%" style values to their decimal form
// ("0.05") before YAML parsing, since rates are written in the scenario file
// the way a person would say them out loud.
func preprocessPercentages(content string) string {
	re := regexp.MustCompile(`(:\s*)(\d+\.?\d*)%`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 3 {
			return match
		}
		num, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return match
		}
		return parts[1] + strconv.FormatFloat(num/100.0, 'f', -1, 64)
	})
}
