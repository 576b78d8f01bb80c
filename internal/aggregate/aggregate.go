// Package aggregate reduces a monthly projection down to one row per
// calendar year (closing in December): balances are taken from the year's
// last month, flows are summed across the year's months.
package aggregate

import (
	"strings"

	"pensionsim/internal/account"
	"pensionsim/internal/engine"
)

// setupSuffix marks a sub-modifier that stands up a scenario's one-off setup
// cost (e.g. a house purchase's deposit and fees, scenario id
// "house-purchase-setup"); its impacts merge into the parent scenario's row
// rather than appearing as a row of their own.
const setupSuffix = "-setup"

// parentScenarioKey strips a setup-cost suffix, if present, so the
// sub-modifier's impact accumulates under its parent scenario's key.
func parentScenarioKey(key string) string {
	return strings.TrimSuffix(key, setupSuffix)
}

// goalKey is the grouping key for one modifier's per-period goal breakdown:
// its ScenarioID, falling back to Name when no ScenarioID is set.
func goalKey(gb engine.GoalBreakdown) string {
	if gb.ScenarioID != "" {
		return gb.ScenarioID
	}
	return gb.Name
}

// GoalImpact is one scenario's attributed effect for a year:
// CashFlowImpact sums across the year's months (a flow); NetWorthImpact is
// the latest value observed in the year (a balance, not a flow), per
// spec §4.8.
type GoalImpact struct {
	CashFlowImpact float64
	NetWorthImpact float64
}

// Year is one calendar-year row of an aggregated projection.
type Year struct {
	TaxYear int // zero-based row index

	// Balances: the last month's value, not summed.
	EndNetWorth     float64
	AssetValue      float64
	DebtValue       float64
	AssetCategories []engine.CategoryRow
	DebtCategories  []engine.CategoryRow

	// Flows: summed across the year's months.
	CashFlow             float64
	TotalIncome           float64
	TotalExpenses         float64
	IncomeTax             float64
	NationalInsurance     float64
	StatePensionIncome    float64
	PrivatePensionIncome  float64
	BusinessRevenue       float64
	BusinessCosts         float64
	BusinessProfit        float64
	CorporationTax        float64
	BusinessNetProfit     float64
	CompoundGrowth        float64
	TotalContributions    float64
	SurplusCash           float64

	ScheduledContributions map[string]float64
	CashFlowAllocations    map[account.AssetClass]float64
	CashFlowLiquidations   map[account.AssetClass]float64
	LiquidationAccounts    map[string]float64

	// GoalBreakdowns attributes per-scenario impact for the year, keyed by
	// ScenarioID (falling back to Name), with setup-cost sub-modifiers
	// merged into their parent scenario's entry.
	GoalBreakdowns map[string]GoalImpact
}

func newYear(taxYear int) Year {
	return Year{
		TaxYear:                taxYear,
		ScheduledContributions: map[string]float64{},
		CashFlowAllocations:    map[account.AssetClass]float64{},
		CashFlowLiquidations:   map[account.AssetClass]float64{},
		LiquidationAccounts:    map[string]float64{},
		GoalBreakdowns:         map[string]GoalImpact{},
	}
}

// ToYearly groups monthlyPoints into calendar-year windows, where startMonth
// is the zero-based calendar month (0=January) of period 0: each window
// closes at a December or at the last point, so the first window is shorter
// than twelve months when startMonth is not zero. Each window reduces to a
// single Year: the final month's balances, and the sum of every flow figure
// across the window's months.
func ToYearly(monthlyPoints []engine.ProjectionPoint, startMonth int) []Year {
	if len(monthlyPoints) == 0 {
		return nil
	}

	var years []Year
	cur := newYear(0)
	monthsInCur := 0

	flush := func() {
		if monthsInCur > 0 {
			years = append(years, cur)
		}
	}

	for i, pt := range monthlyPoints {
		monthOfYear := (startMonth + pt.Period) % 12
		if monthsInCur == 0 {
			cur = newYear(len(years))
		}

		b := pt.Breakdown

		cur.EndNetWorth = pt.NetWorth
		cur.AssetValue = b.AssetValue
		cur.DebtValue = b.DebtValue
		cur.AssetCategories = b.AssetCategories
		cur.DebtCategories = b.DebtCategories

		cur.CashFlow += pt.CashFlow
		cur.TotalIncome += b.TotalIncome
		cur.TotalExpenses += b.TotalExpenses
		cur.IncomeTax += b.IncomeTax
		cur.NationalInsurance += b.NationalInsurance
		cur.StatePensionIncome += b.StatePensionIncome
		cur.PrivatePensionIncome += b.PrivatePensionIncome
		cur.BusinessRevenue += b.BusinessRevenue
		cur.BusinessCosts += b.BusinessCosts
		cur.BusinessProfit += b.BusinessProfit
		cur.CorporationTax += b.CorporationTax
		cur.BusinessNetProfit += b.BusinessNetProfit
		cur.CompoundGrowth += b.CompoundGrowth
		cur.TotalContributions += b.TotalContributionsThisPeriod
		cur.SurplusCash += b.SurplusCash

		for name, amt := range b.ScheduledContributions {
			cur.ScheduledContributions[name] += amt
		}
		for class, amt := range b.CashFlowAllocations {
			cur.CashFlowAllocations[class] += amt
		}
		for class, amt := range b.CashFlowLiquidations {
			cur.CashFlowLiquidations[class] += amt
		}
		for name, amt := range b.LiquidationAccounts {
			cur.LiquidationAccounts[name] += amt
		}

		// Sum this period's merged-key net-worth impact first, so two
		// sub-modifiers sharing a parent key that both fire this period (e.g.
		// the parent scenario plus its "-setup" cost) combine into one
		// latest-value snapshot instead of one silently overwriting the other.
		periodNetWorthImpact := map[string]float64{}
		for _, gb := range b.GoalBreakdowns {
			key := parentScenarioKey(goalKey(gb))
			periodNetWorthImpact[key] += gb.NetWorthImpact
		}
		for _, gb := range b.GoalBreakdowns {
			key := parentScenarioKey(goalKey(gb))
			entry := cur.GoalBreakdowns[key]
			entry.CashFlowImpact += gb.CashFlowImpact
			entry.NetWorthImpact = periodNetWorthImpact[key]
			cur.GoalBreakdowns[key] = entry
		}
		monthsInCur++

		isYearEnd := monthOfYear == 11 || i == len(monthlyPoints)-1
		if isYearEnd {
			flush()
			monthsInCur = 0
		}
	}

	return years
}
