// Package liquidation covers a monthly cash shortfall by drawing down
// accounts in a fixed priority order, reaching into the pension pot only
// once every other source is exhausted.
package liquidation

import (
	"pensionsim/internal/account"
	"pensionsim/internal/pension"
	"pensionsim/internal/taxcalc"
)

// DefaultPriority is the cascade order a shortfall is drawn down in:
// everyday cash first, then savings, then tax-advantaged or illiquid
// wrappers, with the pension as the last resort because withdrawing from it
// is both taxable and, before age 55, unavailable at all.
var DefaultPriority = []account.AssetClass{
	account.CurrentAccount,
	account.DefaultSavings,
	account.HYSA,
	account.GeneralInvestment,
	account.Equities,
	account.Pension,
}

// Result reports how a shortfall was covered: how much came from each
// asset class, how much tax the pension slice incurred, and any amount
// that still couldn't be found anywhere in the household.
type Result struct {
	ByClass          map[account.AssetClass]float64
	ByAccount        map[string]float64
	TaxPaid          float64
	RemainingDeficit float64
}

// Liquidate draws needed pounds from accounts in DefaultPriority order. Age
// and the pension state gate and tax the pension slice via the pension
// package; every other class is drawn straight from account balances.
// monthlyOtherIncome is the month's non-pension income, folded into the
// pension withdrawal's year-to-date tax calculation exactly once.
func Liquidate(needed float64, accounts []*account.BalanceAccount, pensionState *pension.State, age int, period int, monthlyOtherIncome float64, cfg taxcalc.Config) Result {
	result := Result{ByClass: map[account.AssetClass]float64{}, ByAccount: map[string]float64{}}
	if needed <= 0 {
		return result
	}
	remaining := needed

	for _, class := range DefaultPriority {
		if remaining <= 0.005 {
			break
		}
		if class == account.Pension {
			remaining = liquidatePension(remaining, accounts, pensionState, age, period, monthlyOtherIncome, cfg, &result)
			continue
		}
		for _, a := range accounts {
			if remaining <= 0.005 {
				break
			}
			if a.Class() != class || a.IsDebt {
				continue
			}
			got := a.Withdraw(remaining)
			remaining -= got
			result.ByClass[class] += got
			result.ByAccount[a.Name] += got
		}
	}

	result.RemainingDeficit = remaining
	if result.RemainingDeficit < 0 {
		result.RemainingDeficit = 0
	}
	return result
}

func liquidatePension(remaining float64, accounts []*account.BalanceAccount, pensionState *pension.State, age int, period int, monthlyOtherIncome float64, cfg taxcalc.Config, result *Result) float64 {
	totalBalance := 0.0
	var pensionAccounts []*account.BalanceAccount
	for _, a := range accounts {
		if a.Class() == account.Pension && !a.IsDebt {
			pensionAccounts = append(pensionAccounts, a)
			totalBalance += a.Balance
		}
	}
	if len(pensionAccounts) == 0 {
		return remaining
	}

	capacity := pension.WithdrawalCapacity(age, totalBalance)
	if capacity <= 0 {
		return remaining
	}

	withdrawal := pension.ExecuteWithdrawalByNetDeficit(remaining, capacity, pensionState, monthlyOtherIncome, period, cfg)
	if withdrawal.Gross <= 0 {
		return remaining
	}

	// Draw the gross amount proportionally across the pension accounts that
	// make up the pot.
	grossLeft := withdrawal.Gross
	for i, a := range pensionAccounts {
		var share float64
		if i == len(pensionAccounts)-1 {
			share = grossLeft
		} else if totalBalance > 0 {
			share = withdrawal.Gross * (a.Balance / totalBalance)
		}
		got := a.Withdraw(share)
		grossLeft -= got
		result.ByAccount[a.Name] += got
	}

	result.ByClass[account.Pension] += withdrawal.Gross
	result.TaxPaid += withdrawal.Tax
	return remaining - withdrawal.Net
}
