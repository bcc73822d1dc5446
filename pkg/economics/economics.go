// Package economics turns a simulation result and a configuration's capital
// cost into an annual cost of ownership.
package economics

import (
	"math"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
)

// AnnualCost is the yearly cost of owning and running a configuration.
type AnnualCost struct {
	Configuration string  `json:"configuration"`
	CapitalCost   float64 `json:"capital_cost_usd"`
	DiscountRate  float64 `json:"discount_rate"`
	LifetimeYears int     `json:"lifetime_years"`
	AnnuityFactor float64 `json:"annuity_factor"`
	CapitalAnnual float64 `json:"capital_annual_usd"`
	FuelAnnual    float64 `json:"fuel_annual_usd"`
	Total         float64 `json:"total_annual_usd"`
}

// AnnuityFactor returns the capital recovery factor
// rate / (1 - (1+rate)^-years).
func AnnuityFactor(rate float64, years int) (float64, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return 0, &errs.EconomicParameterError{Parameter: "discount_rate", Value: rate}
	}
	if years <= 0 {
		return 0, &errs.EconomicParameterError{Parameter: "lifetime_years", Value: float64(years)}
	}
	return rate / (1 - math.Pow(1+rate, -float64(years))), nil
}

// Annualize amortises the configuration's capital cost over its lifetime
// and adds the simulated annual fuel cost.
func Annualize(cfg *propulsion.Configuration, r *simulate.Result, rate float64, years int) (AnnualCost, error) {
	if cfg == nil || r == nil {
		return AnnualCost{}, errs.Invalid("annualize", nil, "configuration and result are required")
	}
	factor, err := AnnuityFactor(rate, years)
	if err != nil {
		return AnnualCost{}, err
	}
	capital := cfg.CapitalCost() * factor
	fuel := r.FuelCost()
	return AnnualCost{
		Configuration: cfg.Name(),
		CapitalCost:   cfg.CapitalCost(),
		DiscountRate:  rate,
		LifetimeYears: years,
		AnnuityFactor: factor,
		CapitalAnnual: capital,
		FuelAnnual:    fuel,
		Total:         capital + fuel,
	}, nil
}
