package economics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
)

// SensitivityPoint is the annual cost at one price of the swept fuel.
type SensitivityPoint struct {
	Price     float64 `json:"price"`
	FuelCost  float64 `json:"fuel_annual_usd"`
	TotalCost float64 `json:"total_annual_usd"`
}

// Sensitivity re-prices fuel t across steps evenly spaced prices in
// [lo, hi] and returns the annual cost at each. The quantities consumed
// stay as simulated; every other fuel keeps its registry price.
func Sensitivity(r *simulate.Result, capitalAnnual float64, t fuel.Type, lo, hi float64, steps int) ([]SensitivityPoint, error) {
	if r == nil {
		return nil, errs.Invalid("sensitivity", nil, "result is required")
	}
	if steps < 2 {
		return nil, errs.Invalid("sensitivity.steps", steps, "must be >= 2")
	}
	if lo < 0 || hi < lo {
		return nil, errs.Invalid("sensitivity.range", []float64{lo, hi}, "need 0 <= low <= high")
	}

	tot := r.Totals()
	qty := tot.Fuel[t]
	others := tot.FuelCost - tot.CostByFuel[t]

	prices := floats.Span(make([]float64, steps), lo, hi)
	out := make([]SensitivityPoint, len(prices))
	for i, p := range prices {
		fc := others + qty*p
		out[i] = SensitivityPoint{Price: p, FuelCost: fc, TotalCost: capitalAnnual + fc}
	}
	return out, nil
}

// BreakEvenPrice returns the price of fuel t at which a's annual cost equals
// b's, holding everything else fixed. ok is false when a and b use the same
// quantity of t, since no price separates them.
func BreakEvenPrice(a, b *simulate.Result, aCapital, bCapital float64, t fuel.Type) (price float64, ok bool) {
	ta, tb := a.Totals(), b.Totals()
	dq := ta.Fuel[t] - tb.Fuel[t]
	if dq == 0 {
		return 0, false
	}
	// aCapital + aOther + qa·p = bCapital + bOther + qb·p
	aOther := ta.FuelCost - ta.CostByFuel[t]
	bOther := tb.FuelCost - tb.CostByFuel[t]
	return (bCapital + bOther - aCapital - aOther) / dq, true
}
