// Package engine drives the monthly simulation loop: the core of the
// system. It composes the tax, pension, account, allocator, liquidation and
// modifier packages into two parallel projections — a baseline run with no
// modifiers applied, and a scenario run with them — sharing the same
// starting clock so downstream aggregation and attribution line up by
// index.
package engine

import (
	"fmt"

	"pensionsim/internal/account"
	"pensionsim/internal/allocator"
	"pensionsim/internal/liquidation"
	"pensionsim/internal/modifier"
	"pensionsim/internal/pension"
	"pensionsim/internal/solvency"
	"pensionsim/internal/taxcalc"
)

// Household is the baseline financial state a projection starts from:
// accounts, income and expense streams, and ages. It is treated as
// read-only input; the simulator clones it before running.
type Household struct {
	Accounts            []*account.BalanceAccount
	MonthlyIncome       float64 // net monthly income if already known; takes precedence over GrossAnnualSalary
	MonthlyIncomeTax    float64 // paired with MonthlyIncome, for breakdown display only
	MonthlyNI           float64 // paired with MonthlyIncome, for breakdown display only
	GrossAnnualSalary   float64 // used to derive MonthlyIncome via C1 when MonthlyIncome is zero
	MonthlyExpenses     float64
	CurrentAge          int
	RetirementAge       int
	StatePensionAge     int // defaults to 67 when zero
	StatePensionMonthly float64
	AllocationConfig    allocator.Policy // nil means allocator.DefaultPolicy()

	// TaxBandInflation is the annual rate income tax and NI bands inflate by.
	// Zero keeps the 2024/25 bands fixed for the whole projection.
	TaxBandInflation float64
}

func (h Household) clone() Household {
	out := h
	out.Accounts = make([]*account.BalanceAccount, len(h.Accounts))
	for i, a := range h.Accounts {
		out.Accounts[i] = a.Clone()
	}
	if h.AllocationConfig != nil {
		policy := make(allocator.Policy, len(h.AllocationConfig))
		for k, v := range h.AllocationConfig {
			policy[k] = v
		}
		out.AllocationConfig = policy
	}
	return out
}

func (h Household) statePensionAge() int {
	if h.StatePensionAge == 0 {
		return 67
	}
	return h.StatePensionAge
}

// Scenario pairs a baseline household with the modifiers that perturb it.
// The modifiers are never consulted when generating the baseline
// projection (T9, baseline independence).
type Scenario struct {
	Baseline  Household
	Modifiers []modifier.Modifier
}

// CategoryRow is one named balance-sheet line in a period's breakdown.
type CategoryRow struct {
	Name       string
	Value      float64
	AnnualRate float64
}

// GoalBreakdown attributes one modifier's effect in one period, grouped for
// later aggregation by ScenarioID (falling back to Name when a modifier
// doesn't share a ScenarioID with any other).
type GoalBreakdown struct {
	Name           string
	ScenarioID     string
	Archetype      string
	CashFlowImpact float64
	NetWorthImpact float64
}

// Breakdown is the detailed per-period data a ProjectionPoint carries
// alongside its headline netWorth/cashFlow figures.
type Breakdown struct {
	TotalIncome      float64
	TotalExpenses    float64
	BaselineIncome   float64
	BaselineExpenses float64
	ScenarioIncome   float64
	ScenarioExpenses float64

	AssetValue      float64
	DebtValue       float64
	AssetCategories []CategoryRow
	DebtCategories  []CategoryRow

	IncomeTax             float64
	NationalInsurance     float64
	StatePensionIncome    float64
	PrivatePensionIncome  float64
	BusinessRevenue       float64
	BusinessCosts         float64
	BusinessProfit        float64
	CorporationTax        float64
	BusinessNetProfit     float64

	ScheduledContributions map[string]float64
	CashFlowAllocations    map[account.AssetClass]float64
	CashFlowLiquidations   map[account.AssetClass]float64
	LiquidationAccounts    map[string]float64

	SurplusCash                  float64
	CompoundGrowth               float64
	TotalContributionsThisPeriod float64

	GoalImpacts    map[string]float64
	GoalBreakdowns []GoalBreakdown
}

// ProjectionPoint is one month of a projection.
type ProjectionPoint struct {
	Period    int
	NetWorth  float64
	CashFlow  float64
	Breakdown Breakdown
}

// Result is what generating a projection returns: the month-by-month
// sequence and the solvency verdict derived from it.
type Result struct {
	Projection []ProjectionPoint
	Solvency   solvency.Analysis
}

// Simulator runs a Scenario forward for a fixed number of years, starting
// from a caller-supplied calendar position. It holds no mutable state of
// its own between calls: each Generate* call clones the baseline afresh.
type Simulator struct {
	scenario   Scenario
	years      int
	startYear  int
	startMonth int
	taxConfig  taxcalc.Config
}

// NewSimulator builds a Simulator for the given scenario and horizon.
// startMonth is a zero-based calendar month (0=January) used only to label
// output; the UK tax-year arithmetic inside the loop always treats period 0
// as the simulation's own first month, per the engine's period-index
// convention.
func NewSimulator(scenario Scenario, years int, startYear int, startMonth int) *Simulator {
	return &Simulator{
		scenario:   scenario,
		years:      years,
		startYear:  startYear,
		startMonth: startMonth,
		taxConfig:  taxcalc.DefaultConfig(),
	}
}

// GenerateBaselineProjection runs the loop with no modifiers applied.
func (s *Simulator) GenerateBaselineProjection() (Result, error) {
	return s.run(nil)
}

// GenerateScenarioProjection runs the loop with the scenario's modifiers
// applied.
func (s *Simulator) GenerateScenarioProjection() (Result, error) {
	return s.run(s.scenario.Modifiers)
}

func validateModifiers(modifiers []modifier.Modifier, accounts []*account.BalanceAccount) error {
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.Name] = true
	}
	for i := range modifiers {
		if err := modifiers[i].Validate(known); err != nil {
			return fmt.Errorf("engine: modifier %q: %w", modifiers[i].Name, err)
		}
	}
	return nil
}

// run executes the monthly loop once, with the given modifier set (nil for
// the baseline projection).
func (s *Simulator) run(modifiers []modifier.Modifier) (Result, error) {
	if err := validateModifiers(modifiers, s.scenario.Baseline.Accounts); err != nil {
		return Result{}, err
	}

	household := s.scenario.Baseline.clone()
	policy := household.AllocationConfig
	if policy == nil {
		policy = allocator.DefaultPolicy()
	}

	pensionPot := 0.0
	for _, a := range household.Accounts {
		if a.Class() == account.Pension && !a.IsDebt {
			pensionPot += a.Balance
		}
	}
	pensionState := pension.NewState(pensionPot)

	isaSubscribed := 0.0
	isaTaxYear := pension.TaxYearForPeriod(0)

	// originalPerformance remembers the pre-override rate for any account an
	// INTEREST_RATE_CHANGE modifier is currently overriding, so the engine can
	// restore it once the modifier's duration ends.
	originalPerformance := map[string]float64{}

	grossAnnualSalary := household.GrossAnnualSalary
	netIncomeOverride := household.MonthlyIncome
	taxOverride := household.MonthlyIncomeTax
	niOverride := household.MonthlyNI

	goalImpactTotals := map[string]float64{}

	// unfundedDeficit accumulates shortfalls no account could cover; it is
	// carried as a negative cash position in net worth and the cash balance.
	unfundedDeficit := 0.0

	totalMonths := s.years * 12
	points := make([]ProjectionPoint, 0, totalMonths)
	snapshots := make([]solvency.Snapshot, 0, totalMonths)

	for p := 0; p < totalMonths; p++ {
		age := household.CurrentAge + p/12
		taxConfig := taxcalc.InflateBands(s.taxConfig, household.TaxBandInflation, p/12)

		breakdown := Breakdown{
			ScheduledContributions: map[string]float64{},
			CashFlowAllocations:    map[account.AssetClass]float64{},
			CashFlowLiquidations:   map[account.AssetClass]float64{},
			LiquidationAccounts:    map[string]float64{},
			GoalImpacts:            map[string]float64{},
		}

		// 1. Accrue interest on every account.
		compoundGrowth := 0.0
		for _, a := range household.Accounts {
			compoundGrowth += a.AccrueInterest()
		}

		// 2. Resolve retirement state.
		employed := age < household.RetirementAge
		statePensionEligible := age >= household.statePensionAge()

		// A SALARY_CHANGE takes effect in its own start period, so resolve it
		// before this period's employment income is computed.
		for i := range modifiers {
			m := &modifiers[i]
			if m.Archetype == modifier.SalaryChange && m.Active(p) {
				grossAnnualSalary = m.NewGrossAnnualSalary
				netIncomeOverride, taxOverride, niOverride = 0, 0, 0
			}
		}

		// 3. Baseline income streams.
		var netEmploymentIncome, incomeTax, ni float64
		if employed {
			switch {
			case netIncomeOverride != 0 || taxOverride != 0 || niOverride != 0:
				netEmploymentIncome = netIncomeOverride
				incomeTax = taxOverride
				ni = niOverride
			case grossAnnualSalary > 0:
				incomeTax = taxcalc.CalculateIncomeTax(grossAnnualSalary, taxConfig) / 12
				ni = taxcalc.CalculateNationalInsurance(grossAnnualSalary, taxConfig) / 12
				netEmploymentIncome = grossAnnualSalary/12 - incomeTax - ni
			}
		}

		statePensionIncome := 0.0
		if statePensionEligible {
			statePensionIncome = household.StatePensionMonthly
		}

		totalIncome := netEmploymentIncome + statePensionIncome
		totalExpenses := household.MonthlyExpenses
		breakdown.BaselineIncome = totalIncome
		breakdown.BaselineExpenses = totalExpenses
		breakdown.IncomeTax = incomeTax
		breakdown.NationalInsurance = ni
		breakdown.StatePensionIncome = statePensionIncome

		// 4a. Restore any INTEREST_RATE_CHANGE override whose modifier has just
		// expired, the period after its EndPeriod, before new effects apply.
		for i := range modifiers {
			m := &modifiers[i]
			if m.Archetype != modifier.InterestRateChange || m.EndPeriod == 0 {
				continue
			}
			if p != m.EndPeriod+1 {
				continue
			}
			if orig, ok := originalPerformance[m.AccountName]; ok {
				for _, a := range household.Accounts {
					if a.Name == m.AccountName {
						a.Performance = orig
					}
				}
				delete(originalPerformance, m.AccountName)
			}
		}

		// 4. Apply modifier hooks.
		scenarioIncome, scenarioExpenses := 0.0, 0.0
		directNetWorthDelta := 0.0
		businessRevenue, businessCosts := 0.0, 0.0

		for i := range modifiers {
			m := &modifiers[i]
			if !m.Active(p) {
				continue
			}
			effect := m.Evaluate(p)
			cashFlowImpact := 0.0
			netWorthImpact := 0.0

			if effect.IncomeDelta != 0 {
				scenarioIncome += effect.IncomeDelta
				cashFlowImpact += effect.IncomeDelta
			}
			if effect.ExpenseDelta != 0 {
				scenarioExpenses += effect.ExpenseDelta
				cashFlowImpact -= effect.ExpenseDelta
			}
			if effect.DirectDeposit != "" {
				for _, a := range household.Accounts {
					if a.Name == effect.DirectDeposit {
						applied := a.Deposit(effect.DirectDepositAmt)
						directNetWorthDelta += applied
						netWorthImpact += applied
					}
				}
				cashFlowImpact -= effect.DirectDepositAmt
			}
			if effect.DirectWithdraw != "" {
				for _, a := range household.Accounts {
					if a.Name == effect.DirectWithdraw {
						applied := a.Withdraw(effect.DirectWithdrawAmt)
						directNetWorthDelta -= applied
						netWorthImpact -= applied
					}
				}
				cashFlowImpact += effect.DirectWithdrawAmt
			}
			if effect.PerformanceOverride != "" {
				for _, a := range household.Accounts {
					if a.Name == effect.PerformanceOverride {
						if _, seen := originalPerformance[a.Name]; !seen {
							originalPerformance[a.Name] = a.Performance
						}
						a.Performance = effect.NewPerformance
					}
				}
			}
			if effect.AllocationOverride != nil {
				policy = effect.AllocationOverride
			}
			if effect.SalaryOverride != nil {
				grossAnnualSalary = *effect.SalaryOverride
				netIncomeOverride, taxOverride, niOverride = 0, 0, 0
			}
			if effect.BusinessRevenue != 0 || effect.BusinessCosts != 0 {
				businessRevenue += effect.BusinessRevenue
				businessCosts += effect.BusinessCosts
			}

			key := m.ScenarioID
			if key == "" {
				key = m.Name
			}
			goalImpactTotals[key] += cashFlowImpact
			breakdown.GoalBreakdowns = append(breakdown.GoalBreakdowns, GoalBreakdown{
				Name: m.Name, ScenarioID: m.ScenarioID, Archetype: string(m.Archetype),
				CashFlowImpact: cashFlowImpact, NetWorthImpact: netWorthImpact,
			})
		}

		businessProfit := businessRevenue - businessCosts
		businessNetProfit := businessProfit
		corpTax := 0.0
		if businessProfit > 0 {
			ctResult := taxcalc.CalculateCorporationTax(businessProfit * 12)
			corpTax = ctResult.Tax / 12
			businessNetProfit = businessProfit - corpTax
		}

		breakdown.ScenarioIncome = scenarioIncome
		breakdown.ScenarioExpenses = scenarioExpenses
		breakdown.BusinessRevenue = businessRevenue
		breakdown.BusinessCosts = businessCosts
		breakdown.BusinessProfit = businessProfit
		breakdown.CorporationTax = corpTax
		breakdown.BusinessNetProfit = businessNetProfit

		totalIncome += scenarioIncome + businessNetProfit
		totalExpenses += scenarioExpenses

		// Direct account deposits/withdrawals bypass the allocator entirely
		// and were already applied inline per modifier above.

		// 5. Scheduled account contributions. Reset the ISA subscription
		// counter on the UK tax-year boundary first, so a contribution made in
		// the new tax year's own first period is tracked against the new
		// year's cap rather than folded into the old year's total and then
		// discarded.
		currentTaxYear := pension.TaxYearForPeriod(p)
		isaSubscribed = allocator.ResetIfNewTaxYear(isaSubscribed, isaTaxYear, currentTaxYear)
		isaTaxYear = currentTaxYear

		scheduledCashUsed := 0.0
		for _, a := range household.Accounts {
			delta := a.ApplyScheduledContribution(p)
			if delta == 0 {
				continue
			}
			scheduledCashUsed += delta
			if a.IsISA() {
				// Any part beyond the annual cap leaves the ISA and goes to the
				// allocator's overflow destination (GIA, else default savings).
				excess := isaSubscribed + delta - allocator.ISAAnnualCap
				if excess > delta {
					excess = delta
				}
				if excess > 0 {
					a.Withdraw(excess)
					overflow := allocator.Allocate(excess, allocator.Policy{account.GeneralInvestment: 100}, household.Accounts, isaSubscribed)
					for class, amt := range overflow.ByClass {
						breakdown.CashFlowAllocations[class] += amt
					}
					delta -= excess
				}
				isaSubscribed += delta
			}
			breakdown.ScheduledContributions[a.Name] += delta
		}

		// 6. Net cash flow for the period.
		cashFlow := totalIncome - totalExpenses - scheduledCashUsed

		allocationNetWorthDelta := 0.0
		liquidationNetWorthDelta := 0.0
		privatePensionIncome := 0.0

		// 7. Allocate surplus or liquidate deficit.
		if cashFlow > 0 {
			allocResult := allocator.Allocate(cashFlow, policy, household.Accounts, isaSubscribed)
			isaSubscribed = allocResult.ISASubscribed
			for class, amt := range allocResult.ByClass {
				breakdown.CashFlowAllocations[class] += amt
			}
			allocationNetWorthDelta = allocResult.NetWorthImpact
			breakdown.SurplusCash = cashFlow
		} else if cashFlow < 0 {
			monthlyOtherIncome := netEmploymentIncome + statePensionIncome + scenarioIncome + businessNetProfit
			liqResult := liquidation.Liquidate(-cashFlow, household.Accounts, &pensionState, age, p, monthlyOtherIncome, taxConfig)
			for class, amt := range liqResult.ByClass {
				breakdown.CashFlowLiquidations[class] += amt
				liquidationNetWorthDelta -= amt
			}
			for name, amt := range liqResult.ByAccount {
				breakdown.LiquidationAccounts[name] += amt
			}
			breakdown.IncomeTax += liqResult.TaxPaid
			privatePensionIncome = liqResult.ByClass[account.Pension]
			if liqResult.RemainingDeficit > 0.005 {
				unfundedDeficit += liqResult.RemainingDeficit
				liquidationNetWorthDelta -= liqResult.RemainingDeficit
			}
		}
		breakdown.PrivatePensionIncome = privatePensionIncome

		breakdown.TotalIncome = totalIncome
		breakdown.TotalExpenses = totalExpenses
		breakdown.CompoundGrowth = compoundGrowth
		breakdown.TotalContributionsThisPeriod = scheduledCashUsed + directNetWorthDelta + allocationNetWorthDelta + liquidationNetWorthDelta
		for key, impact := range goalImpactTotals {
			breakdown.GoalImpacts[key] = impact
		}

		assetValue, debtValue := 0.0, 0.0
		cashBalance, liquidNonCash := 0.0, 0.0
		for _, a := range household.Accounts {
			row := CategoryRow{Name: a.Name, Value: a.Balance, AnnualRate: a.Performance}
			if a.IsDebt {
				debtValue += a.Balance
				breakdown.DebtCategories = append(breakdown.DebtCategories, row)
			} else {
				assetValue += a.Balance
				breakdown.AssetCategories = append(breakdown.AssetCategories, row)
				switch a.Class() {
				case account.CurrentAccount, account.DefaultSavings, account.HYSA, account.Cash:
					cashBalance += a.Balance
				case account.GeneralInvestment, account.Equities:
					liquidNonCash += a.Balance
				}
			}
		}
		breakdown.AssetValue = assetValue
		breakdown.DebtValue = debtValue

		netWorth := assetValue - debtValue - unfundedDeficit

		points = append(points, ProjectionPoint{Period: p, NetWorth: netWorth, CashFlow: cashFlow, Breakdown: breakdown})
		snapshots = append(snapshots, solvency.Snapshot{
			Period:              p,
			NetWorth:            netWorth,
			CashBalance:         cashBalance - unfundedDeficit,
			LiquidNonCashAssets: liquidNonCash,
		})
	}

	return Result{Projection: points, Solvency: solvency.Analyze(snapshots)}, nil
}
