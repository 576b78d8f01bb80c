// Package taxcalc implements the pure, stateless UK tax arithmetic shared by
// the rest of the simulation: banded income tax with personal-allowance
// tapering, employee National Insurance, and small-profits corporation tax
// with marginal relief.
//
// Every function here takes its inputs as arguments and returns its outputs
// as values; nothing in this package touches the clock, the filesystem, or
// any other period-carrying state. Callers that need year-on-year inflation
// of the bands do so explicitly via InflateBands.
package taxcalc

import (
	"math"

	"github.com/shopspring/decimal"
)

// Band is one marginal-rate slice of a tax schedule. Upper of zero means
// "no upper bound" (the top band).
type Band struct {
	Lower float64
	Upper float64 // 0 means unbounded
	Rate  float64 // e.g. 0.20 for 20%
}

// Config holds the personal-allowance tapering parameters alongside the
// income tax bands. National Insurance uses its own band set because its
// thresholds and rates diverge from income tax.
type Config struct {
	IncomeTaxBands        []Band
	NationalInsuranceBands []Band
	PersonalAllowance      float64
	TaperingThreshold      float64
	TaperingRate           float64 // allowance lost per £1 over threshold
}

// DefaultConfig returns the 2024/25 UK tax year figures.
func DefaultConfig() Config {
	return Config{
		IncomeTaxBands: []Band{
			{Lower: 0, Upper: 37700, Rate: 0.20},
			{Lower: 37700, Upper: 125140, Rate: 0.40},
			{Lower: 125140, Upper: 0, Rate: 0.45},
		},
		NationalInsuranceBands: []Band{
			{Lower: 0, Upper: 12570, Rate: 0.0},
			{Lower: 12570, Upper: 50270, Rate: 0.08},
			{Lower: 50270, Upper: 0, Rate: 0.02},
		},
		PersonalAllowance: 12570,
		TaperingThreshold: 100000,
		TaperingRate:      0.5,
	}
}

// EffectivePersonalAllowance applies the £1-lost-per-£2-over-threshold
// tapering rule, floored at zero, to the configured personal allowance.
func EffectivePersonalAllowance(grossIncome float64, cfg Config) float64 {
	if grossIncome <= cfg.TaperingThreshold {
		return cfg.PersonalAllowance
	}
	reduction := (grossIncome - cfg.TaperingThreshold) * cfg.TaperingRate
	allowance := cfg.PersonalAllowance - reduction
	if allowance < 0 {
		return 0
	}
	return allowance
}

// bandedTax sums rate*slice across a band schedule for income already net
// of whatever allowance applies (income tax bands are expressed above the
// personal allowance; NI bands are expressed on gross pay directly, so
// callers pass the right base for each schedule).
func bandedTax(taxableBase float64, bands []Band) float64 {
	if taxableBase <= 0 {
		return 0
	}
	total := 0.0
	for _, b := range bands {
		upper := b.Upper
		if upper == 0 {
			upper = math.Inf(1)
		}
		if taxableBase <= b.Lower {
			continue
		}
		sliceTop := math.Min(taxableBase, upper)
		width := sliceTop - b.Lower
		if width <= 0 {
			continue
		}
		total += width * b.Rate
	}
	return total
}

// CalculateIncomeTax computes annual income tax on grossIncome, applying
// personal-allowance tapering for high earners before running the result
// through the banded schedule.
func CalculateIncomeTax(grossIncome float64, cfg Config) float64 {
	if grossIncome <= 0 {
		return 0
	}
	allowance := EffectivePersonalAllowance(grossIncome, cfg)
	taxable := grossIncome - allowance
	if taxable <= 0 {
		return 0
	}
	return bandedTax(taxable, cfg.IncomeTaxBands)
}

// CalculateNationalInsurance computes annual employee NI on grossIncome.
// NI bands apply directly to gross pay; there is no tapering.
func CalculateNationalInsurance(grossIncome float64, cfg Config) float64 {
	if grossIncome <= 0 {
		return 0
	}
	return bandedTax(grossIncome, cfg.NationalInsuranceBands)
}

// CalculateNetAnnualIncome returns grossIncome minus income tax and NI.
func CalculateNetAnnualIncome(grossIncome float64, cfg Config) float64 {
	return grossIncome - CalculateIncomeTax(grossIncome, cfg) - CalculateNationalInsurance(grossIncome, cfg)
}

// MarginalIncomeTax returns the extra income tax owed on an additional
// slice of income layered on top of existingIncome already earned this tax
// year. It is the difference of two whole-year calculations, so it
// correctly accounts for tapering and band crossing caused by the extra
// slice.
func MarginalIncomeTax(existingIncome, extraIncome float64, cfg Config) float64 {
	if extraIncome <= 0 {
		return 0
	}
	return CalculateIncomeTax(existingIncome+extraIncome, cfg) - CalculateIncomeTax(existingIncome, cfg)
}

// CorporationTaxResult carries the corporation tax outcome for one
// accounting-period profit figure.
type CorporationTaxResult struct {
	Tax           float64
	NetProfit     float64
	EffectiveRate float64
}

// Corporation tax bands (2023 onward small-profits regime): 19% flat up to
// £50,000, 25% flat from £250,000, marginal relief in between.
const (
	corpTaxSmallProfitsLimit = 50000.0
	corpTaxMainRateLimit     = 250000.0
	corpTaxSmallRate         = 0.19
	corpTaxMainRate          = 0.25
	corpTaxMarginalRelief    = 3.0 / 200.0
)

// CalculateCorporationTax applies the small-profits/main-rate/marginal-relief
// schedule to an annual profit figure.
func CalculateCorporationTax(profit float64) CorporationTaxResult {
	if profit <= 0 {
		return CorporationTaxResult{}
	}
	var tax float64
	switch {
	case profit <= corpTaxSmallProfitsLimit:
		tax = profit * corpTaxSmallRate
	case profit >= corpTaxMainRateLimit:
		tax = profit * corpTaxMainRate
	default:
		tax = profit*corpTaxMainRate - (corpTaxMainRateLimit-profit)*corpTaxMarginalRelief
	}
	return CorporationTaxResult{
		Tax:           tax,
		NetProfit:     profit - tax,
		EffectiveRate: tax / profit,
	}
}

// InflateBands scales every band's thresholds, and the tapering threshold
// and personal allowance, by (1+rate)^yearsElapsed. The marginal rates
// themselves are left untouched. A zero-valued Upper (unbounded top band)
// stays zero after inflation.
func InflateBands(cfg Config, rate float64, yearsElapsed int) Config {
	if yearsElapsed <= 0 || rate == 0 {
		return cfg
	}
	factor := math.Pow(1+rate, float64(yearsElapsed))
	out := Config{
		PersonalAllowance: cfg.PersonalAllowance * factor,
		TaperingThreshold: cfg.TaperingThreshold * factor,
		TaperingRate:      cfg.TaperingRate,
	}
	out.IncomeTaxBands = make([]Band, len(cfg.IncomeTaxBands))
	for i, b := range cfg.IncomeTaxBands {
		upper := b.Upper
		if upper != 0 {
			upper *= factor
		}
		out.IncomeTaxBands[i] = Band{Lower: b.Lower * factor, Upper: upper, Rate: b.Rate}
	}
	out.NationalInsuranceBands = make([]Band, len(cfg.NationalInsuranceBands))
	for i, b := range cfg.NationalInsuranceBands {
		upper := b.Upper
		if upper != 0 {
			upper *= factor
		}
		out.NationalInsuranceBands[i] = Band{Lower: b.Lower * factor, Upper: upper, Rate: b.Rate}
	}
	return out
}

// RoundCurrency rounds a pound figure to the nearest penny using
// half-away-from-zero rounding. The tax, NI and corporation tax functions in
// this package return unrounded values and do not call it.
func RoundCurrency(amount float64) float64 {
	d := decimal.NewFromFloat(amount)
	rounded, _ := d.Round(2).Float64()
	return rounded
}
