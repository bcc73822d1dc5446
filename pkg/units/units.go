// Package units defines the physical quantities the simulator works in.
// Each quantity carries its unit in the type so kW, kWh and kg cannot be
// mixed without an explicit conversion.
package units

import (
	"fmt"
	"math"
)

// Power is a power level in kilowatts.
type Power float64

// Energy is an amount of energy in kilowatt-hours.
type Energy float64

// Mass is a mass in kilograms.
type Mass float64

// Fraction is a dimensionless share in [0, 1].
type Fraction float64

// Over returns the energy delivered at p for the given number of hours.
func (p Power) Over(hours float64) Energy {
	return Energy(float64(p) * hours)
}

func (p Power) String() string {
	return fmt.Sprintf("%.1f kW", float64(p))
}

func (e Energy) String() string {
	return fmt.Sprintf("%.1f kWh", float64(e))
}

// Tonnes returns the mass in metric tonnes.
func (m Mass) Tonnes() float64 {
	return float64(m) / 1000.0
}

func (m Mass) String() string {
	return fmt.Sprintf("%.1f kg", float64(m))
}

// Finite reports whether v is a real number, neither NaN nor infinite.
// Every range check on external input goes through it first, since NaN
// compares false against any bound.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Valid reports whether f lies in [0, 1].
func (f Fraction) Valid() bool {
	return Finite(float64(f)) && f >= 0 && f <= 1
}

// Complement returns 1 - f.
func (f Fraction) Complement() Fraction {
	return 1 - f
}

// SumPower adds a slice of power levels in order.
func SumPower(ps []Power) Power {
	var total Power
	for _, p := range ps {
		total += p
	}
	return total
}
