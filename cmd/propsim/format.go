package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/analytics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/validation"
)

var stdout io.Writer = os.Stdout

func printValidationReport(r *validation.Report) {
	w := stdout
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, e := range r.Warnings {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(w io.Writer, e validation.Result) {
	fmt.Fprintf(w, "  [%s] %s\n", e.Level, e.Message)
	if e.SpecPath != "" {
		fmt.Fprintf(w, "    -> %s = %v\n", e.SpecPath, e.ActualValue)
	}
	if e.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", e.Expected)
	}
	if e.ConflictWith != "" {
		fmt.Fprintf(w, "    conflicts with: %s\n", e.ConflictWith)
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func printSimulation(r *simulate.Result) {
	w := stdout
	title := fmt.Sprintf("%s / %s", r.Configuration(), r.Profile())
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-14s %8s %10s %10s %12s %10s %12s\n",
		"Mode", "Hours", "Prop kW", "Elec kW", "Fuel t", "CO2 t", "Fuel cost")
	fmt.Fprintf(w, "%-14s %8s %10s %10s %12s %10s %12s\n",
		"--------------", "--------", "----------", "----------", "------------", "----------", "------------")
	for _, m := range r.Modes() {
		fmt.Fprintf(w, "%-14s %8.0f %10.0f %10.0f %12.1f %10.1f %12s\n",
			m.Mode, m.Hours, float64(m.PropulsionPower), float64(m.ElectricalLoad),
			combustibleTonnes(m.Fuel), m.CO2.Tonnes(), formatMoney(m.Cost))
	}

	t := r.Totals()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Annual totals")
	fmt.Fprintln(w, "-------------")
	for _, ft := range fuel.All {
		q, ok := t.Fuel[ft]
		if !ok || q == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-22s %s\n", string(ft)+":", formatQuantity(ft, q))
	}
	fmt.Fprintf(w, "  %-22s %.1f t\n", "CO2:", t.CO2.Tonnes())
	fmt.Fprintf(w, "  %-22s %.1f t\n", "CO2e:", t.CO2e.Tonnes())
	fmt.Fprintf(w, "  %-22s %.2f t\n", "SOx:", t.SOx.Tonnes())
	fmt.Fprintf(w, "  %-22s $%s\n", "Fuel cost:", formatMoney(t.FuelCost))
}

func printComparison(c *analytics.Comparison) {
	w := stdout
	fmt.Fprintf(w, "Comparison: %s (discount %.1f%%, %d years)\n",
		c.Profile, c.Economics.DiscountRate*100, c.Economics.LifetimeYears)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-4s %-26s %10s %10s %12s %12s %12s\n",
		"Rank", "Configuration", "Fuel t", "CO2 t", "Capital/yr", "Fuel/yr", "Total/yr")
	fmt.Fprintf(w, "%-4s %-26s %10s %10s %12s %12s %12s\n",
		"----", "--------------------------", "----------", "----------", "------------", "------------", "------------")
	for _, r := range c.Rows {
		fmt.Fprintf(w, "%-4d %-26s %10.1f %10.1f %12s %12s %12s\n",
			r.Rank, r.Configuration, r.FuelMass.Tonnes(), r.CO2.Tonnes(),
			formatMoney(r.Cost.CapitalAnnual), formatMoney(r.Cost.FuelAnnual), formatMoney(r.Cost.Total))
	}
	printFailures(c.Failures, true)
}

// printFailures lists configurations that could not be evaluated, with the
// error of each. gap separates the list from preceding output.
func printFailures(failures []analytics.Failure, gap bool) {
	w := stdout
	if len(failures) == 0 {
		return
	}
	if gap {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "FAILED (%d):\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s: %s\n", f.Configuration, f.Error)
	}
}

func printRelative(baseline string, rel []analytics.Relative) {
	w := stdout
	fmt.Fprintf(w, "Relative to %s\n", baseline)
	fmt.Fprintf(w, "%-26s %10s %10s %10s\n", "Configuration", "Fuel", "CO2", "Cost")
	for _, r := range rel {
		if r.IsBaseline {
			continue
		}
		fmt.Fprintf(w, "%-26s %10s %10s %10s\n", r.Configuration,
			formatPercent(-r.FuelReductionPct), formatPercent(-r.CO2ReductionPct), formatPercent(r.CostDifferencePct))
	}
}

func printValues(values []analytics.Value) {
	w := stdout
	for _, v := range values {
		fmt.Fprintf(w, "%s vs %s\n", v.Configuration, v.Baseline)
		fmt.Fprintf(w, "  Fuel cost savings/yr:   $%s\n", formatMoney(v.FuelCostSavings))
		fmt.Fprintf(w, "  Extra capital/yr:       $%s\n", formatMoney(v.ExtraCapitalAnnual))
		fmt.Fprintf(w, "  Net savings/yr:         $%s\n", formatMoney(v.NetAnnualSavings))
		fmt.Fprintf(w, "  CO2 avoided:            %.0f t/yr, %.0f t over %d years (%.0f car-years)\n",
			v.CO2AvoidedTonnes, v.LifetimeCO2Avoided, v.LifetimeYears, v.CarsEquivalent)
		switch {
		case v.PaybackYears == 0:
			fmt.Fprintln(w, "  Payback:                n/a")
		case v.PaysBackWithinLife:
			fmt.Fprintf(w, "  Payback:                %.1f years\n", v.PaybackYears)
		default:
			fmt.Fprintf(w, "  Payback:                %.1f years (beyond asset life)\n", v.PaybackYears)
		}
	}
}

func printCostReport(profileName string, costs []economics.AnnualCost) {
	w := stdout
	fmt.Fprintf(w, "Annualised Cost (%s)\n", profileName)
	fmt.Fprintln(w, "===================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-26s %12s %8s %12s %12s %12s\n",
		"Configuration", "Capital", "Factor", "Capital/yr", "Fuel/yr", "Total/yr")
	fmt.Fprintf(w, "%-26s %12s %8s %12s %12s %12s\n",
		"--------------------------", "------------", "--------", "------------", "------------", "------------")
	for _, c := range costs {
		fmt.Fprintf(w, "%-26s %12s %8.5f %12s %12s %12s\n",
			c.Configuration, formatMoney(c.CapitalCost), c.AnnuityFactor,
			formatMoney(c.CapitalAnnual), formatMoney(c.FuelAnnual), formatMoney(c.Total))
	}
}

func printSensitivity(t fuel.Type, series []sensitivitySeries) {
	w := stdout
	if len(series) == 0 {
		return
	}
	fmt.Fprintf(w, "Total annual cost vs %s price\n", t)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-12s", "Price")
	for _, s := range series {
		fmt.Fprintf(w, " %14s", truncate(s.name, 14))
	}
	fmt.Fprintln(w)
	for i, p := range series[0].points {
		fmt.Fprintf(w, "%-12s", formatPrice(t, p.Price))
		for _, s := range series {
			fmt.Fprintf(w, " %14s", formatMoney(s.points[i].TotalCost))
		}
		fmt.Fprintln(w)
	}
}

// combustibleTonnes sums the fuels measured by mass.
func combustibleTonnes(q map[fuel.Type]float64) float64 {
	var kg float64
	for _, ft := range fuel.All {
		if ft.Combustible() {
			kg += q[ft]
		}
	}
	return kg / 1000
}

func formatQuantity(t fuel.Type, q float64) string {
	if t.Unit() == fuel.UnitKWh {
		return fmt.Sprintf("%.0f kWh", q)
	}
	return fmt.Sprintf("%.1f t", q/1000)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

func formatMoney(v float64) string {
	if v < 0 {
		return "-" + formatMoney(-v)
	}
	if v >= 1_000_000_000 {
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	}
	if v >= 1_000_000 {
		return fmt.Sprintf("%.2fM", v/1_000_000)
	}
	if v >= 1_000 {
		return fmt.Sprintf("%.0fK", v/1_000)
	}
	return fmt.Sprintf("%.0f", v)
}
