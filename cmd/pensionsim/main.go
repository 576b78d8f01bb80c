// Command pensionsim runs a household's deterministic financial projection:
// a baseline with no life events applied, and a scenario with them, then
// reports the solvency verdict and (optionally) a year-by-year breakdown.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"pensionsim/internal/aggregate"
	"pensionsim/internal/config"
	"pensionsim/internal/engine"
	"pensionsim/internal/scenariofile"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Household Financial Projection Simulator

Projects a household's net worth forward month by month, applying UK income
tax, National Insurance, pension drawdown, and ISA allocation rules, then
compares a baseline run against a scenario perturbed by one-off and
recurring life events.

Usage:
  %s [options]

Options:
`, os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  %s                                  Run the embedded default scenario
  %s -scenario my-household.yaml      Run a scenario file
  %s -years 20 -annual                20-year horizon, annual rollup
  %s -json                            Emit the monthly projection as JSON

Configuration:
  Scenario files are YAML; see default-scenario.yaml for the shape. Years,
  start-year and start-month default to the scenario file's own simulation
  block when not overridden on the command line.
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	}

	scenarioFile := flag.String("scenario", "", "Path to a YAML scenario file (default: embedded default-scenario.yaml)")
	years := flag.Int("years", 0, "Projection horizon in years (0 = use the scenario file's own value)")
	startYear := flag.Int("start-year", 0, "Calendar year the projection starts in (0 = use the scenario file's own value)")
	startMonth := flag.Int("start-month", -1, "Zero-based starting calendar month, 0=January (-1 = use the scenario file's own value)")
	emitJSON := flag.Bool("json", false, "Emit the monthly projection as JSON instead of a console summary")
	annual := flag.Bool("annual", false, "Roll the monthly projection up to one row per calendar year")
	flag.Parse()

	sf, err := loadScenario(*scenarioFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
		os.Exit(1)
	}

	if *years > 0 {
		sf.Simulation.Years = *years
	}
	if *startYear > 0 {
		sf.Simulation.StartYear = *startYear
	}
	if *startMonth >= 0 {
		sf.Simulation.StartMonth = *startMonth
	}

	scenario, simSpec, err := scenariofile.ToScenario(sf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scenario: %v\n", err)
		os.Exit(1)
	}

	sim := engine.NewSimulator(scenario, simSpec.Years, simSpec.StartYear, simSpec.StartMonth)

	baseline, err := sim.GenerateBaselineProjection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating baseline projection: %v\n", err)
		os.Exit(1)
	}
	result, err := sim.GenerateScenarioProjection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating scenario projection: %v\n", err)
		os.Exit(1)
	}

	if *emitJSON {
		printJSON(baseline, result, *annual, simSpec.StartMonth)
		return
	}

	printSummary(baseline, result, *annual, simSpec)
}

func loadScenario(path string) (*config.ScenarioFile, error) {
	if path == "" {
		return config.LoadDefault()
	}
	return config.LoadFile(path)
}

type jsonOutput struct {
	Baseline []engine.ProjectionPoint `json:"baseline"`
	Scenario []engine.ProjectionPoint `json:"scenario"`
	Solvency interface{}              `json:"solvency"`
}

func printJSON(baseline, scenario engine.Result, annual bool, startMonth int) {
	out := jsonOutput{Solvency: scenario.Solvency}
	if annual {
		baseYears := aggregate.ToYearly(baseline.Projection, startMonth)
		scenarioYears := aggregate.ToYearly(scenario.Projection, startMonth)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{
			"baseline": baseYears,
			"scenario": scenarioYears,
			"solvency": scenario.Solvency,
		})
		return
	}
	out.Baseline = baseline.Projection
	out.Scenario = scenario.Projection
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func printSummary(baseline, scenario engine.Result, annual bool, simSpec config.SimulationSpec) {
	fmt.Println("════════════════════════════════════════════════════════")
	fmt.Println("  HOUSEHOLD FINANCIAL PROJECTION")
	fmt.Println("════════════════════════════════════════════════════════")
	fmt.Printf("Horizon: %d years from %d\n\n", simSpec.Years, simSpec.StartYear)

	if annual {
		printAnnualTable("Baseline", aggregate.ToYearly(baseline.Projection, simSpec.StartMonth))
		printAnnualTable("Scenario", aggregate.ToYearly(scenario.Projection, simSpec.StartMonth))
	} else {
		lastBaseline := baseline.Projection[len(baseline.Projection)-1]
		lastScenario := scenario.Projection[len(scenario.Projection)-1]
		fmt.Printf("Final net worth (baseline): £%.0f\n", lastBaseline.NetWorth)
		fmt.Printf("Final net worth (scenario): £%.0f\n", lastScenario.NetWorth)
	}

	fmt.Println()
	fmt.Println("─── Solvency (scenario) ───")
	s := scenario.Solvency
	if s.IsSolvent {
		fmt.Println("  Status: solvent throughout the projection")
	} else {
		fmt.Printf("  Status: INSOLVENT (max deficit £%.0f, first in period %d)\n", s.MaxDeficit, s.FirstDeficitPeriod)
	}
	if s.MaxCashShortfall < 0 {
		fmt.Printf("  Max cash shortfall: £%.0f", s.MaxCashShortfall)
		if s.CanFixWithLiquidation {
			fmt.Printf(" (coverable by liquidating other assets)\n")
		} else {
			fmt.Printf(" (NOT coverable by liquidating other assets)\n")
		}
	}
}

func printAnnualTable(label string, years []aggregate.Year) {
	fmt.Printf("─── %s ───\n", label)
	fmt.Printf("%-10s %16s %14s %14s %14s\n", "Year", "Net Worth", "Income", "Expenses", "Cash Flow")
	for _, y := range years {
		fmt.Printf("%-10d %16.0f %14.0f %14.0f %14.0f\n", y.TaxYear, y.EndNetWorth, y.TotalIncome, y.TotalExpenses, y.CashFlow)
	}
	fmt.Println()
}
