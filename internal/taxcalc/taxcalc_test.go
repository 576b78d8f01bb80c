package taxcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const taxTolerance = 0.01

func assertMoneyEquals(t *testing.T, expected, actual float64, msg string) {
	t.Helper()
	assert.InDeltaf(t, expected, actual, taxTolerance, "%s: expected %.2f got %.2f", msg, expected, actual)
}

func TestCalculateIncomeTax_WithinPersonalAllowance(t *testing.T) {
	cfg := DefaultConfig()
	assertMoneyEquals(t, 0, CalculateIncomeTax(10000, cfg), "income below PA")
	assertMoneyEquals(t, 0, CalculateIncomeTax(12570, cfg), "income at PA boundary")
}

func TestCalculateIncomeTax_BasicRateBand(t *testing.T) {
	cfg := DefaultConfig()
	// £20,000 gross: £7,430 taxable at 20% = £1,486
	assertMoneyEquals(t, 1486, CalculateIncomeTax(20000, cfg), "basic rate band")
}

func TestCalculateIncomeTax_HigherRateBand(t *testing.T) {
	cfg := DefaultConfig()
	gross := 60000.0
	taxable := gross - cfg.PersonalAllowance
	expected := 37700*0.20 + (taxable-37700)*0.40
	assertMoneyEquals(t, expected, CalculateIncomeTax(gross, cfg), "higher rate band")
}

func TestCalculateIncomeTax_TaperedAllowance(t *testing.T) {
	cfg := DefaultConfig()
	gross := 110000.0
	allowance := EffectivePersonalAllowance(gross, cfg)
	assertMoneyEquals(t, 7570, allowance, "tapered allowance at £110k")
}

func TestCalculateIncomeTax_AllowanceFullyRemoved(t *testing.T) {
	cfg := DefaultConfig()
	allowance := EffectivePersonalAllowance(cfg.TaperingThreshold+cfg.PersonalAllowance*2, cfg)
	assert.Equal(t, 0.0, allowance)
}

func TestCalculateNationalInsurance_Bands(t *testing.T) {
	cfg := DefaultConfig()
	assertMoneyEquals(t, 0, CalculateNationalInsurance(10000, cfg), "below NI threshold")
	assertMoneyEquals(t, (50270-12570)*0.08, CalculateNationalInsurance(50270, cfg), "at upper NI threshold")
}

func TestMarginalIncomeTax_MatchesWholeYearDifference(t *testing.T) {
	cfg := DefaultConfig()
	existing := 30000.0
	extra := 10000.0
	expected := CalculateIncomeTax(existing+extra, cfg) - CalculateIncomeTax(existing, cfg)
	assertMoneyEquals(t, expected, MarginalIncomeTax(existing, extra, cfg), "marginal matches whole-year delta")
}

func TestMarginalIncomeTax_ZeroExtraIsZero(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.0, MarginalIncomeTax(50000, 0, cfg))
}

func TestCalculateCorporationTax_SmallProfitsRate(t *testing.T) {
	result := CalculateCorporationTax(40000)
	assertMoneyEquals(t, 7600, result.Tax, "small profits rate")
	assertMoneyEquals(t, 32400, result.NetProfit, "small profits net")
}

func TestCalculateCorporationTax_MainRate(t *testing.T) {
	result := CalculateCorporationTax(300000)
	assertMoneyEquals(t, 75000, result.Tax, "main rate")
}

func TestCalculateCorporationTax_MarginalRelief(t *testing.T) {
	result := CalculateCorporationTax(100000)
	expected := 100000*0.25 - (250000-100000)*(3.0/200.0)
	assertMoneyEquals(t, expected, result.Tax, "marginal relief band")
}

func TestCalculateCorporationTax_ZeroProfit(t *testing.T) {
	result := CalculateCorporationTax(0)
	assert.Equal(t, 0.0, result.Tax)
	assert.Equal(t, 0.0, result.EffectiveRate)
}

func TestInflateBands_ScalesThresholdsNotRates(t *testing.T) {
	cfg := DefaultConfig()
	inflated := InflateBands(cfg, 0.03, 5)
	factor := math.Pow(1.03, 5)
	assertMoneyEquals(t, cfg.PersonalAllowance*factor, inflated.PersonalAllowance, "PA inflated")
	assert.Equal(t, cfg.IncomeTaxBands[0].Rate, inflated.IncomeTaxBands[0].Rate)
	assert.Equal(t, 0.0, inflated.IncomeTaxBands[len(inflated.IncomeTaxBands)-1].Upper)
}

func TestInflateBands_NoopAtZeroYears(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg, InflateBands(cfg, 0.03, 0))
}

// Property-style invariants, matching the testable properties this
// component must satisfy under arbitrary inputs.

func TestInvariant_TaxMonotonicallyIncreasesWithIncome(t *testing.T) {
	cfg := DefaultConfig()
	prev := 0.0
	for gross := 0.0; gross <= 300000; gross += 2500 {
		tax := CalculateIncomeTax(gross, cfg)
		assert.GreaterOrEqualf(t, tax, prev, "tax decreased at gross=%.2f", gross)
		prev = tax
	}
}

func TestInvariant_TaxNeverExceedsIncome(t *testing.T) {
	cfg := DefaultConfig()
	for gross := 0.0; gross <= 500000; gross += 5000 {
		tax := CalculateIncomeTax(gross, cfg) + CalculateNationalInsurance(gross, cfg)
		assert.LessOrEqualf(t, tax, gross, "tax exceeded gross at %.2f", gross)
	}
}

func TestInvariant_ZeroIncomeZeroTax(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.0, CalculateIncomeTax(0, cfg))
	assert.Equal(t, 0.0, CalculateNationalInsurance(0, cfg))
}

func TestInvariant_MarginalTaxNonNegative(t *testing.T) {
	cfg := DefaultConfig()
	for existing := 0.0; existing <= 200000; existing += 10000 {
		tax := MarginalIncomeTax(existing, 5000, cfg)
		assert.GreaterOrEqualf(t, tax, 0.0, "negative marginal tax at existing=%.2f", existing)
	}
}
