package propulsion

import (
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// Consumption is what a source or a whole mode uses: fuel quantities by type
// (kg for combustible fuels, kWh for ELECTRIC) and the energy handled.
type Consumption struct {
	Fuel   map[fuel.Type]float64 `json:"fuel"`
	Energy units.Energy          `json:"energy_kwh"`
}

// Quantity returns the amount of fuel t consumed.
func (c Consumption) Quantity(t fuel.Type) float64 {
	return c.Fuel[t]
}

// IsZero reports whether nothing was consumed.
func (c Consumption) IsZero() bool {
	if c.Energy != 0 {
		return false
	}
	for _, q := range c.Fuel {
		if q != 0 {
			return false
		}
	}
	return true
}

// Plus returns the sum of c and o without modifying either.
func (c Consumption) Plus(o Consumption) Consumption {
	out := Consumption{Energy: c.Energy + o.Energy}
	for t, q := range c.Fuel {
		out.add(t, q)
	}
	for t, q := range o.Fuel {
		out.add(t, q)
	}
	return out
}

func (c *Consumption) add(t fuel.Type, q float64) {
	if q == 0 {
		return
	}
	if c.Fuel == nil {
		c.Fuel = make(map[fuel.Type]float64)
	}
	c.Fuel[t] += q
}
