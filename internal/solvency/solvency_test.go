package solvency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_EmptyIsSolvent(t *testing.T) {
	result := Analyze(nil)
	assert.True(t, result.IsSolvent)
	assert.Equal(t, -1, result.FirstDeficitPeriod)
}

func TestAnalyze_AlwaysPositiveIsSolvent(t *testing.T) {
	snapshots := []Snapshot{
		{Period: 0, NetWorth: 1000, CashBalance: 500},
		{Period: 1, NetWorth: 1100, CashBalance: 600},
	}
	result := Analyze(snapshots)
	assert.True(t, result.IsSolvent)
	assert.Equal(t, 0.0, result.MaxDeficit)
}

func TestAnalyze_InsolvencyTripRecordsFirstDeficit(t *testing.T) {
	snapshots := []Snapshot{
		{Period: 11, NetWorth: 1000, CashBalance: 1000},
		{Period: 12, NetWorth: -49000, CashBalance: -49000},
		{Period: 13, NetWorth: -40000, CashBalance: -40000},
	}
	result := Analyze(snapshots)
	assert.False(t, result.IsSolvent)
	assert.Equal(t, 12, result.FirstDeficitPeriod)
	assert.Equal(t, 49000.0, result.MaxDeficit)
}

func TestAnalyze_CashShortfallButSolventNetWorth(t *testing.T) {
	snapshots := []Snapshot{
		{Period: 11, NetWorth: 60000, CashBalance: 10000, LiquidNonCashAssets: 50000},
		{Period: 12, NetWorth: 30000, CashBalance: -19000, LiquidNonCashAssets: 50000},
	}
	result := Analyze(snapshots)
	assert.True(t, result.IsSolvent)
	assert.InDelta(t, -19000, result.MaxCashShortfall, 0.01)
	assert.InDelta(t, 19000, result.RequiredLiquidation, 0.01)
	assert.True(t, result.CanFixWithLiquidation)
}

func TestAnalyze_CannotFixWithLiquidation(t *testing.T) {
	snapshots := []Snapshot{
		{Period: 0, NetWorth: 60000, CashBalance: -25000, LiquidNonCashAssets: 5000},
	}
	result := Analyze(snapshots)
	assert.False(t, result.CanFixWithLiquidation)
}

func TestAnalyze_NoCashShortfallFixesTrivially(t *testing.T) {
	snapshots := []Snapshot{{Period: 0, NetWorth: 1000, CashBalance: 500}}
	result := Analyze(snapshots)
	assert.True(t, result.CanFixWithLiquidation)
	assert.Equal(t, 0.0, result.RequiredLiquidation)
}
