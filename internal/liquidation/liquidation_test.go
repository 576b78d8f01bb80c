package liquidation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pensionsim/internal/account"
	"pensionsim/internal/pension"
	"pensionsim/internal/taxcalc"
)

func TestLiquidate_ZeroNeedIsNoop(t *testing.T) {
	accounts := []*account.BalanceAccount{{Name: "Current Account", Balance: 1000}}
	result := Liquidate(0, accounts, nil, 40, 0, 0, taxcalc.DefaultConfig())
	assert.Empty(t, result.ByClass)
}

func TestLiquidate_DrawsCurrentAccountFirst(t *testing.T) {
	accounts := []*account.BalanceAccount{
		{Name: "Current Account", Balance: 5000},
		{Name: "Default Savings", Balance: 5000},
	}
	result := Liquidate(1000, accounts, nil, 40, 0, 0, taxcalc.DefaultConfig())
	assert.InDelta(t, 1000, result.ByClass[account.CurrentAccount], 0.01)
	assert.Equal(t, 0.0, result.ByClass[account.DefaultSavings])
	assert.Equal(t, 4000.0, accounts[0].Balance)
}

func TestLiquidate_CascadesThroughPriorityOrder(t *testing.T) {
	accounts := []*account.BalanceAccount{
		{Name: "Current Account", Balance: 500},
		{Name: "Default Savings", Balance: 300},
		{Name: "HYSA", Balance: 10000},
	}
	result := Liquidate(1000, accounts, nil, 40, 0, 0, taxcalc.DefaultConfig())
	assert.InDelta(t, 500, result.ByClass[account.CurrentAccount], 0.01)
	assert.InDelta(t, 300, result.ByClass[account.DefaultSavings], 0.01)
	assert.InDelta(t, 200, result.ByClass[account.HYSA], 0.01)
	assert.Equal(t, 0.0, result.RemainingDeficit)
}

func TestLiquidate_RemainingDeficitWhenEverythingExhausted(t *testing.T) {
	accounts := []*account.BalanceAccount{{Name: "Current Account", Balance: 100}}
	result := Liquidate(1000, accounts, nil, 40, 0, 0, taxcalc.DefaultConfig())
	assert.InDelta(t, 900, result.RemainingDeficit, 0.01)
}

func TestLiquidate_ReachesPensionAsLastResort(t *testing.T) {
	accounts := []*account.BalanceAccount{
		{Name: "Current Account", Balance: 100},
		{Name: "Workplace Pension", Balance: 100000},
	}
	state := pension.NewState(100000)
	result := Liquidate(2000, accounts, &state, 60, 3, 0, taxcalc.DefaultConfig())
	assert.InDelta(t, 100, result.ByClass[account.CurrentAccount], 0.01)
	assert.Greater(t, result.ByClass[account.Pension], 0.0)
	assert.Equal(t, 0.0, result.RemainingDeficit)
}

func TestLiquidate_PensionUnavailableBeforeAccessAge(t *testing.T) {
	accounts := []*account.BalanceAccount{
		{Name: "Current Account", Balance: 100},
		{Name: "Workplace Pension", Balance: 100000},
	}
	state := pension.NewState(100000)
	result := Liquidate(2000, accounts, &state, 40, 3, 0, taxcalc.DefaultConfig())
	assert.Equal(t, 0.0, result.ByClass[account.Pension])
	assert.InDelta(t, 1900, result.RemainingDeficit, 0.01)
}

func TestLiquidate_SkipsDebtAccounts(t *testing.T) {
	accounts := []*account.BalanceAccount{
		{Name: "Mortgage", Balance: 200000, IsDebt: true},
		{Name: "Current Account", Balance: 5000},
	}
	result := Liquidate(1000, accounts, nil, 40, 0, 0, taxcalc.DefaultConfig())
	assert.InDelta(t, 1000, result.ByClass[account.CurrentAccount], 0.01)
}
