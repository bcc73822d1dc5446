package propulsion

import (
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// Allocate spreads demand over capacities in priority order. Each unit
// absorbs load up to its capacity and the excess spills to the next one.
// Demand beyond the combined capacity is a *errs.CapacityError.
func Allocate(capacities []units.Power, demand units.Power) ([]units.Power, error) {
	if !units.Finite(float64(demand)) || demand < 0 {
		return nil, errs.Invalid("demand_kw", float64(demand), "must be a finite number >= 0")
	}
	total := units.SumPower(capacities)
	if demand > total {
		return nil, &errs.CapacityError{Demand: float64(demand), Capacity: float64(total)}
	}

	out := make([]units.Power, len(capacities))
	remaining := demand
	for i, c := range capacities {
		if remaining <= 0 {
			break
		}
		take := c
		if remaining < take {
			take = remaining
		}
		out[i] = take
		remaining -= take
	}
	return out, nil
}

// allocateUpTo serves as much of demand as the capacities allow and never fails.
func allocateUpTo(capacities []units.Power, demand units.Power) []units.Power {
	if total := units.SumPower(capacities); demand > total {
		demand = total
	}
	out, _ := Allocate(capacities, demand)
	return out
}
