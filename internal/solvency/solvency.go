// Package solvency derives a single diagnostic verdict from a completed
// scenario projection: whether the household ever goes net-worth negative,
// how deep any cash shortfall gets, and whether liquidating the household's
// liquid wrappers would have covered it.
package solvency

// Snapshot is the minimal per-period state the analyser folds over. The
// engine builds one of these per ProjectionPoint without this package
// needing to know the full projection shape.
type Snapshot struct {
	Period              int
	NetWorth            float64
	CashBalance         float64 // cash + currentAccount + defaultSavings + HYSA
	LiquidNonCashAssets float64 // GIA + ISA balances, available to sell
}

// Analysis is the verdict for one completed scenario projection.
type Analysis struct {
	IsSolvent              bool
	MaxDeficit             float64
	FirstDeficitPeriod     int // -1 when never negative
	MaxCashShortfall       float64
	RequiredLiquidation    float64
	CanFixWithLiquidation  bool
}

// Analyze performs the single-pass fold described by the spec: it never
// needs to re-run the simulator, only scan the sequence of snapshots it
// already produced.
func Analyze(snapshots []Snapshot) Analysis {
	result := Analysis{IsSolvent: true, FirstDeficitPeriod: -1}
	if len(snapshots) == 0 {
		return result
	}

	minNetWorth := snapshots[0].NetWorth
	minCashBalance := snapshots[0].CashBalance
	liquidAtShortfall := snapshots[0].LiquidNonCashAssets

	for _, s := range snapshots {
		if s.NetWorth < 0 && result.FirstDeficitPeriod == -1 {
			result.FirstDeficitPeriod = s.Period
		}
		if s.NetWorth < minNetWorth {
			minNetWorth = s.NetWorth
		}
		if s.CashBalance < minCashBalance {
			minCashBalance = s.CashBalance
			liquidAtShortfall = s.LiquidNonCashAssets
		}
	}

	if minNetWorth < 0 {
		result.IsSolvent = false
		result.MaxDeficit = -minNetWorth
	}

	if minCashBalance < 0 {
		result.MaxCashShortfall = minCashBalance
		result.RequiredLiquidation = -minCashBalance
		result.CanFixWithLiquidation = result.RequiredLiquidation <= liquidAtShortfall
	} else {
		result.CanFixWithLiquidation = true
	}

	return result
}
