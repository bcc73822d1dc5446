package simulate

import (
	"encoding/json"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// ModeResult is the outcome of one operating mode.
type ModeResult struct {
	Mode            string      `json:"mode"`
	Hours           float64     `json:"hours"`
	Speed           float64     `json:"speed_knots,omitempty"`
	PropulsionPower units.Power `json:"propulsion_power_kw"`
	ElectricalLoad  units.Power `json:"electrical_load_kw"`
	propulsion.ModeResult
}

// Totals are the annual figures of a simulation.
type Totals struct {
	Hours      float64               `json:"hours"`
	Fuel       map[fuel.Type]float64 `json:"fuel"`
	CostByFuel map[fuel.Type]float64 `json:"fuel_cost_by_type_usd"`
	Energy     units.Energy          `json:"energy_kwh"`
	CO2        units.Mass            `json:"co2_kg"`
	CO2e       units.Mass            `json:"co2e_kg"`
	SOx        units.Mass            `json:"sox_kg"`
	FuelCost   float64               `json:"fuel_cost_usd"`
}

// FuelMass returns the combined mass of combustible fuels in kg. Shore
// electricity is measured in kWh and is left out.
func (t Totals) FuelMass() units.Mass {
	var m units.Mass
	for _, ft := range fuel.All {
		if ft.Combustible() {
			m += units.Mass(t.Fuel[ft])
		}
	}
	return m
}

func (t Totals) clone() Totals {
	out := t
	out.Fuel = cloneMap(t.Fuel)
	out.CostByFuel = cloneMap(t.CostByFuel)
	return out
}

func cloneMap(m map[fuel.Type]float64) map[fuel.Type]float64 {
	out := make(map[fuel.Type]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Result is the immutable outcome of Simulate. It keeps no reference to the
// configuration or profile it was computed from.
type Result struct {
	configuration string
	profile       string
	modes         []ModeResult
	totals        Totals
}

// Configuration returns the name of the simulated configuration.
func (r *Result) Configuration() string { return r.configuration }

// Profile returns the name of the operating profile.
func (r *Result) Profile() string { return r.profile }

// Modes returns the per-mode breakdown in profile order.
func (r *Result) Modes() []ModeResult {
	out := make([]ModeResult, len(r.modes))
	for i, m := range r.modes {
		m.Fuel = cloneMap(m.Fuel)
		m.CostByFuel = cloneMap(m.CostByFuel)
		m.Allocations = append([]propulsion.Allocation(nil), m.Allocations...)
		out[i] = m
	}
	return out
}

// Mode returns the result for the named mode.
func (r *Result) Mode(name string) (ModeResult, bool) {
	for _, m := range r.Modes() {
		if m.Mode == name {
			return m, true
		}
	}
	return ModeResult{}, false
}

// Totals returns the annual totals.
func (r *Result) Totals() Totals { return r.totals.clone() }

// FuelByType returns the annual quantity of each fuel used.
func (r *Result) FuelByType() map[fuel.Type]float64 { return cloneMap(r.totals.Fuel) }

// CO2 returns the annual CO₂ mass.
func (r *Result) CO2() units.Mass { return r.totals.CO2 }

// FuelCost returns the annual fuel cost in USD.
func (r *Result) FuelCost() float64 { return r.totals.FuelCost }

type resultJSON struct {
	Configuration string       `json:"configuration"`
	Profile       string       `json:"profile"`
	Modes         []ModeResult `json:"modes"`
	Totals        Totals       `json:"totals"`
}

// MarshalJSON renders the result with its per-mode and total views.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Configuration: r.configuration,
		Profile:       r.profile,
		Modes:         r.Modes(),
		Totals:        r.Totals(),
	})
}
