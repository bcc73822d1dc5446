package analytics

import "fmt"

// CO2PerCarYear is the annual CO₂ of an average passenger car, in tonnes,
// used to express avoided emissions in relatable terms.
const CO2PerCarYear = 4.6

// Relative is a configuration's performance against a baseline. Positive
// reductions are improvements; a positive cost difference is more expensive.
type Relative struct {
	Configuration     string  `json:"configuration"`
	IsBaseline        bool    `json:"is_baseline"`
	FuelReductionPct  float64 `json:"fuel_reduction_pct"`
	CO2ReductionPct   float64 `json:"co2_reduction_pct"`
	CostDifferencePct float64 `json:"cost_difference_pct"`
}

// RelativeTo measures every row against the row named baseline.
func RelativeTo(rows []Row, baseline string) ([]Relative, error) {
	base, ok := find(rows, baseline)
	if !ok {
		return nil, fmt.Errorf("baseline %q is not among the evaluated configurations", baseline)
	}
	out := make([]Relative, len(rows))
	for i, r := range rows {
		out[i] = Relative{
			Configuration:     r.Configuration,
			IsBaseline:        r.Configuration == baseline,
			FuelReductionPct:  reduction(float64(base.FuelMass), float64(r.FuelMass)),
			CO2ReductionPct:   reduction(float64(base.CO2), float64(r.CO2)),
			CostDifferencePct: -reduction(base.Cost.Total, r.Cost.Total),
		}
	}
	return out, nil
}

// Value is the business case of a configuration over the baseline.
type Value struct {
	Configuration string `json:"configuration"`
	Baseline      string `json:"baseline"`

	FuelSavedTonnes    float64 `json:"fuel_saved_t"`
	FuelCostSavings    float64 `json:"fuel_cost_savings_usd"`
	ExtraCapitalAnnual float64 `json:"extra_capital_annual_usd"`
	NetAnnualSavings   float64 `json:"net_annual_savings_usd"`
	CO2AvoidedTonnes   float64 `json:"co2_avoided_t_per_year"`
	LifetimeYears      int     `json:"lifetime_years"`
	LifetimeCO2Avoided float64 `json:"lifetime_co2_avoided_t"`
	CarsEquivalent     float64 `json:"cars_equivalent"`
	ExtraCapital       float64 `json:"extra_capital_usd"`
	PaybackYears       float64 `json:"payback_years,omitempty"`
	PaysBackWithinLife bool    `json:"pays_back_within_life"`
}

// ValueProposition compares row against baseline over lifetime years.
// Payback is the extra up-front capital divided by the annual fuel cost
// savings; it is left at zero when there is nothing to pay back or no
// savings to pay it with.
func ValueProposition(row, baseline Row, lifetime int) Value {
	v := Value{
		Configuration:      row.Configuration,
		Baseline:           baseline.Configuration,
		FuelSavedTonnes:    (baseline.FuelMass - row.FuelMass).Tonnes(),
		FuelCostSavings:    baseline.Cost.FuelAnnual - row.Cost.FuelAnnual,
		ExtraCapitalAnnual: row.Cost.CapitalAnnual - baseline.Cost.CapitalAnnual,
		CO2AvoidedTonnes:   (baseline.CO2 - row.CO2).Tonnes(),
		LifetimeYears:      lifetime,
		ExtraCapital:       row.Cost.CapitalCost - baseline.Cost.CapitalCost,
	}
	v.NetAnnualSavings = v.FuelCostSavings - v.ExtraCapitalAnnual
	v.LifetimeCO2Avoided = v.CO2AvoidedTonnes * float64(lifetime)
	v.CarsEquivalent = v.LifetimeCO2Avoided / CO2PerCarYear
	if v.ExtraCapital > 0 && v.FuelCostSavings > 0 {
		v.PaybackYears = v.ExtraCapital / v.FuelCostSavings
		v.PaysBackWithinLife = v.PaybackYears <= float64(lifetime)
	}
	return v
}

func find(rows []Row, name string) (Row, bool) {
	for _, r := range rows {
		if r.Configuration == name {
			return r, true
		}
	}
	return Row{}, false
}

// reduction is the percentage by which v is below base.
func reduction(base, v float64) float64 {
	if base == 0 {
		return 0
	}
	return (base - v) / base * 100
}
