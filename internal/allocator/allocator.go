// Package allocator routes a positive monthly cash surplus across the
// household's accounts according to a target allocation policy, enforcing
// the annual ISA subscription cap and overflowing anything that would
// breach it into a general investment account or plain savings.
package allocator

import (
	"pensionsim/internal/account"
)

// ISAAnnualCap is the UK cash+stocks ISA subscription limit per tax year.
const ISAAnnualCap = 20000.0

// Policy is a target allocation expressed as percentages of the monthly
// surplus, keyed by destination asset class. Percentages need not sum to
// 100; whatever is left over after the listed classes is deposited into
// cash (the current account or default savings, whichever exists).
type Policy map[account.AssetClass]float64

// DefaultPolicy puts 10% of surplus into ISA-wrapped equities and 5% into
// pension, leaving the remaining 85% as cash.
func DefaultPolicy() Policy {
	return Policy{
		account.Equities: 10,
		account.Pension:  5,
	}
}

// Result reports how a surplus was split across asset classes and the
// updated running ISA subscription total for the tax year.
type Result struct {
	ByClass        map[account.AssetClass]float64
	ISAOverflow    float64
	ISASubscribed  float64 // new running total for the tax year
	CashFlowImpact float64 // the surplus that was offered to the allocator
	NetWorthImpact float64 // what was actually deposited; equals CashFlowImpact unless the
	// household has nowhere at all to put a class's share (no account of that
	// class and no fallback account exists)
}

// firstAccountOfClass returns the first account matching class, preferring
// earlier entries (a household with two savings accounts deposits into
// whichever was declared first).
func firstAccountOfClass(accounts []*account.BalanceAccount, class account.AssetClass) *account.BalanceAccount {
	for _, a := range accounts {
		if a.Class() == class {
			return a
		}
	}
	return nil
}

// Allocate deposits surplus across accounts per policy, enforcing the ISA
// cap: isaSubscribedThisTaxYear is how much of the household's annual ISA
// allowance has already been used; any portion of the equities allocation
// that would breach ISAAnnualCap is routed instead to a general investment
// account if one exists, or to default savings otherwise. Whatever
// percentage of policy doesn't sum to 100 is deposited as cash into the
// current account (or default savings if there's no current account).
func Allocate(surplus float64, policy Policy, accounts []*account.BalanceAccount, isaSubscribedThisTaxYear float64) Result {
	result := Result{ByClass: map[account.AssetClass]float64{}, ISASubscribed: isaSubscribedThisTaxYear, CashFlowImpact: surplus}
	if surplus <= 0 {
		return result
	}

	allocatedPct := 0.0
	for _, class := range []account.AssetClass{account.Equities, account.Pension, account.HYSA, account.GeneralInvestment} {
		pct, ok := policy[class]
		if !ok || pct <= 0 {
			continue
		}
		allocatedPct += pct
		amount := surplus * pct / 100.0

		if class == account.Equities {
			available := ISAAnnualCap - result.ISASubscribed
			if available < 0 {
				available = 0
			}
			if amount > available {
				overflow := amount - available
				amount = available
				result.ISAOverflow += overflow
				dest := firstAccountOfClass(accounts, account.GeneralInvestment)
				overflowClass := account.GeneralInvestment
				if dest == nil {
					overflowClass = account.DefaultSavings
				}
				deposited := depositInto(accounts, overflowClass, overflow)
				result.ByClass[overflowClass] += deposited
				result.NetWorthImpact += deposited
			}
			result.ISASubscribed += amount
		}

		deposited := depositInto(accounts, class, amount)
		result.ByClass[class] += deposited
		result.NetWorthImpact += deposited
	}

	remainingPct := 100.0 - allocatedPct
	if remainingPct < 0 {
		remainingPct = 0
	}
	cashAmount := surplus * remainingPct / 100.0
	cashClass := account.CurrentAccount
	if firstAccountOfClass(accounts, account.CurrentAccount) == nil {
		cashClass = account.DefaultSavings
	}
	deposited := depositInto(accounts, cashClass, cashAmount)
	result.ByClass[cashClass] += deposited
	result.NetWorthImpact += deposited

	return result
}

// depositInto finds a destination account for class, falling back to
// default savings and then to any non-debt account in the household if even
// that doesn't exist, and deposits amount into it. It returns the amount
// actually deposited: zero only if the household has no account at all to
// receive it.
func depositInto(accounts []*account.BalanceAccount, class account.AssetClass, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	dest := firstAccountOfClass(accounts, class)
	if dest == nil {
		dest = firstAccountOfClass(accounts, account.DefaultSavings)
	}
	if dest == nil {
		for _, a := range accounts {
			if !a.IsDebt {
				dest = a
				break
			}
		}
	}
	if dest == nil {
		return 0
	}
	return dest.Deposit(amount)
}

// ResetIfNewTaxYear zeroes the running ISA subscription total when crossing
// into a new UK tax year; callers pass the previous and current period's
// tax year (from pension.TaxYearForPeriod) to detect the boundary.
func ResetIfNewTaxYear(isaSubscribed float64, previousTaxYear, currentTaxYear int) float64 {
	if currentTaxYear != previousTaxYear {
		return 0
	}
	return isaSubscribed
}
