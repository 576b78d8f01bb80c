// Package modifier defines the closed set of scenario modifier archetypes a
// household projection can be perturbed with: one-off and recurring cash
// flows, one-off and recurring account movements, rate and allocation
// changes, a salary change, and a self-employed business income stream.
// Every archetype reduces to the same Effect shape so the engine applies
// them uniformly without a type switch at the call site.
package modifier

import (
	"errors"
	"fmt"

	"pensionsim/internal/account"
)

// Archetype names one of the closed set of scenario modifier kinds.
type Archetype string

const (
	OneOffInflow                 Archetype = "ONE_OFF_INFLOW"
	OneOffExpense                Archetype = "ONE_OFF_EXPENSE"
	OneOffAccountContribution    Archetype = "ONE_OFF_ACCOUNT_CONTRIBUTION"
	OneOffAccountWithdrawal      Archetype = "ONE_OFF_ACCOUNT_WITHDRAWAL"
	RecurringIncome              Archetype = "RECURRING_INCOME"
	RecurringExpense             Archetype = "RECURRING_EXPENSE"
	RecurringAccountContribution Archetype = "RECURRING_ACCOUNT_CONTRIBUTION"
	RecurringAccountWithdrawal   Archetype = "RECURRING_ACCOUNT_WITHDRAWAL"
	InterestRateChange           Archetype = "INTEREST_RATE_CHANGE"
	AllocationConfigChange       Archetype = "ALLOCATION_CONFIG_CHANGE"
	SalaryChange                 Archetype = "SALARY_CHANGE"
	BusinessIncome               Archetype = "BUSINESS_INCOME"
)

var knownArchetypes = map[Archetype]bool{
	OneOffInflow: true, OneOffExpense: true, OneOffAccountContribution: true,
	OneOffAccountWithdrawal: true, RecurringIncome: true, RecurringExpense: true,
	RecurringAccountContribution: true, RecurringAccountWithdrawal: true,
	InterestRateChange: true, AllocationConfigChange: true, SalaryChange: true,
	BusinessIncome: true,
}

// IsKnownArchetype reports whether a is one of the closed set of archetypes
// this package understands. Callers parsing modifiers from an external
// format (YAML, JSON) use this to reject typos before Validate ever runs.
func IsKnownArchetype(a Archetype) bool {
	return knownArchetypes[a]
}

// Sentinel errors returned by Validate.
var (
	ErrUnknownArchetype  = errors.New("modifier: unknown archetype")
	ErrUnknownAccount    = errors.New("modifier: references an account that does not exist")
	ErrInvalidModifier   = errors.New("modifier: invalid field combination")
)

// Modifier is one perturbation applied on top of a baseline projection.
// Only the fields relevant to its Archetype are consulted; the rest are
// zero-valued and ignored.
type Modifier struct {
	ID         string
	Name       string
	ScenarioID string // groups modifiers that together tell one scenario's story
	Archetype  Archetype

	StartPeriod int // first period this modifier is active (inclusive)
	EndPeriod   int // for recurring modifiers: last active period (inclusive); 0 means indefinite

	// One-off cash flow / account movement amount, or the amount per period
	// for a recurring cash flow / account movement.
	Amount float64

	// AccountName targets the account an *_ACCOUNT_* or INTEREST_RATE_CHANGE
	// modifier acts on.
	AccountName string

	// NewPerformance is the replacement annual growth/interest rate (percent)
	// for INTEREST_RATE_CHANGE.
	NewPerformance float64

	// NewAllocation is the replacement policy for ALLOCATION_CONFIG_CHANGE.
	NewAllocation map[account.AssetClass]float64

	// NewGrossAnnualSalary is the replacement salary for SALARY_CHANGE.
	NewGrossAnnualSalary float64

	// BusinessRevenueMonthly and BusinessCostsMonthly describe a
	// BUSINESS_INCOME stream; the engine applies corporation tax to the
	// profit and the household receives the remaining net profit as income.
	BusinessRevenueMonthly float64
	BusinessCostsMonthly   float64

	// InflationRate, if non-zero, escalates Amount (for recurring archetypes)
	// or BusinessRevenueMonthly/BusinessCostsMonthly year over year.
	InflationRate float64
}

// Validate checks a modifier is internally consistent and, where it names
// an account, that the account actually exists in knownAccounts.
func (m *Modifier) Validate(knownAccounts map[string]bool) error {
	if !knownArchetypes[m.Archetype] {
		return fmt.Errorf("%w: %q", ErrUnknownArchetype, m.Archetype)
	}
	if m.EndPeriod != 0 && m.EndPeriod < m.StartPeriod {
		return fmt.Errorf("%w: %q ends before it starts", ErrInvalidModifier, m.Name)
	}
	switch m.Archetype {
	case OneOffAccountContribution, OneOffAccountWithdrawal, RecurringAccountContribution, RecurringAccountWithdrawal, InterestRateChange:
		if m.AccountName == "" {
			return fmt.Errorf("%w: %q requires an account name", ErrInvalidModifier, m.Name)
		}
		if knownAccounts != nil && !knownAccounts[m.AccountName] {
			return fmt.Errorf("%w: %q", ErrUnknownAccount, m.AccountName)
		}
	}
	switch m.Archetype {
	case OneOffInflow, OneOffExpense, OneOffAccountContribution, OneOffAccountWithdrawal, RecurringIncome, RecurringExpense, RecurringAccountContribution, RecurringAccountWithdrawal:
		if m.Amount < 0 {
			return fmt.Errorf("%w: %q has a negative amount", ErrInvalidModifier, m.Name)
		}
	}
	return nil
}

// Active reports whether this modifier applies at the given simulation
// period.
func (m *Modifier) Active(period int) bool {
	if period < m.StartPeriod {
		return false
	}
	if m.isOneOff() {
		return period == m.StartPeriod
	}
	if m.EndPeriod == 0 {
		return true // indefinite recurring modifier
	}
	return period <= m.EndPeriod
}

func (m *Modifier) isOneOff() bool {
	switch m.Archetype {
	case OneOffInflow, OneOffExpense, OneOffAccountContribution, OneOffAccountWithdrawal:
		return true
	default:
		return false
	}
}

// escalatedAmount applies InflationRate compounding for each full year
// elapsed since StartPeriod, the same way the teacher's income streams
// escalate: amount * (1+rate)^yearsElapsed.
func (m *Modifier) escalatedAmount(period int) float64 {
	if m.InflationRate == 0 {
		return m.Amount
	}
	yearsElapsed := (period - m.StartPeriod) / 12
	factor := 1.0
	for i := 0; i < yearsElapsed; i++ {
		factor *= 1 + m.InflationRate
	}
	return m.Amount * factor
}

// Effect is the unified outcome of evaluating a modifier at one period. The
// engine accumulates Effects from every active modifier before folding them
// into the monthly cash-flow and account-mutation steps.
type Effect struct {
	IncomeDelta       float64
	ExpenseDelta      float64
	DirectDeposit     string  // account name, empty if none
	DirectDepositAmt  float64
	DirectWithdraw    string // account name, empty if none
	DirectWithdrawAmt float64

	PerformanceOverride string // account name whose Performance changes
	NewPerformance      float64
	AllocationOverride  map[account.AssetClass]float64
	SalaryOverride      *float64

	// BusinessRevenue and BusinessCosts are this period's pre-tax figures for
	// a BUSINESS_INCOME modifier; the engine applies corporation tax to
	// derive the net profit that enters cash flow.
	BusinessRevenue float64
	BusinessCosts   float64
}

// Evaluate computes this modifier's Effect at period. Callers should only
// use the result when Active(period) is true; Evaluate itself doesn't
// re-check activity so callers can also use it for "what would this do"
// previews.
func (m *Modifier) Evaluate(period int) Effect {
	switch m.Archetype {
	case OneOffInflow:
		return Effect{IncomeDelta: m.Amount}
	case OneOffExpense:
		return Effect{ExpenseDelta: m.Amount}
	case OneOffAccountContribution:
		return Effect{DirectDeposit: m.AccountName, DirectDepositAmt: m.Amount}
	case OneOffAccountWithdrawal:
		return Effect{DirectWithdraw: m.AccountName, DirectWithdrawAmt: m.Amount}
	case RecurringIncome:
		return Effect{IncomeDelta: m.escalatedAmount(period)}
	case RecurringExpense:
		return Effect{ExpenseDelta: m.escalatedAmount(period)}
	case RecurringAccountContribution:
		return Effect{DirectDeposit: m.AccountName, DirectDepositAmt: m.escalatedAmount(period)}
	case RecurringAccountWithdrawal:
		return Effect{DirectWithdraw: m.AccountName, DirectWithdrawAmt: m.escalatedAmount(period)}
	case InterestRateChange:
		return Effect{PerformanceOverride: m.AccountName, NewPerformance: m.NewPerformance}
	case AllocationConfigChange:
		return Effect{AllocationOverride: m.NewAllocation}
	case SalaryChange:
		salary := m.NewGrossAnnualSalary
		return Effect{SalaryOverride: &salary}
	case BusinessIncome:
		revenue := m.BusinessRevenueMonthly
		costs := m.BusinessCostsMonthly
		if m.InflationRate != 0 {
			yearsElapsed := (period - m.StartPeriod) / 12
			factor := 1.0
			for i := 0; i < yearsElapsed; i++ {
				factor *= 1 + m.InflationRate
			}
			revenue *= factor
			costs *= factor
		}
		return Effect{BusinessRevenue: revenue, BusinessCosts: costs}
	default:
		return Effect{}
	}
}
