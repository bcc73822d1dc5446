// Package profile describes how a vessel spends its year: an ordered set of
// operating modes, each with a duration and its power demands.
package profile

import (
	"fmt"
	"math"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// DefaultAnnualHours is the hour budget of a full calendar year.
const DefaultAnnualHours = 8760.0

// hourTolerance absorbs rounding in hour budgets read from text files.
const hourTolerance = 1e-6

// Mode is one discrete operating regime.
//
// Propulsion demand is given either directly as PropulsionPower or as a
// sailing Speed from which the simulator derives power.
type Mode struct {
	Name            string      `json:"name"`
	Hours           float64     `json:"hours_per_year"`
	PropulsionPower units.Power `json:"propulsion_power_kw"`
	Speed           float64     `json:"sailing_speed_knots,omitempty"`
	ElectricalLoad  units.Power `json:"electrical_load_kw"`
	BatteryCycles   float64     `json:"battery_cycles,omitempty"`
}

// SpeedGoverned reports whether propulsion power must be derived from speed.
func (m Mode) SpeedGoverned() bool {
	return m.PropulsionPower == 0 && m.Speed > 0
}

// Validate checks the mode's own invariants.
func (m Mode) Validate() error {
	field := fmt.Sprintf("modes[%s]", m.Name)
	switch {
	case m.Name == "":
		return errs.Invalid("modes.name", nil, "mode name is required")
	case !units.Finite(m.Hours) || m.Hours < 0:
		return errs.Invalid(field+".hours_per_year", m.Hours, "must be a finite number >= 0")
	case !units.Finite(float64(m.PropulsionPower)) || m.PropulsionPower < 0:
		return errs.Invalid(field+".propulsion_power_kw", float64(m.PropulsionPower), "must be a finite number >= 0")
	case !units.Finite(m.Speed) || m.Speed < 0:
		return errs.Invalid(field+".sailing_speed_knots", m.Speed, "must be a finite number >= 0")
	case m.PropulsionPower > 0 && m.Speed > 0:
		return errs.Invalid(field, nil, "set either propulsion_power_kw or sailing_speed_knots, not both")
	case !units.Finite(float64(m.ElectricalLoad)) || m.ElectricalLoad < 0:
		return errs.Invalid(field+".electrical_load_kw", float64(m.ElectricalLoad), "must be a finite number >= 0")
	case !units.Finite(m.BatteryCycles) || m.BatteryCycles < 0:
		return errs.Invalid(field+".battery_cycles", m.BatteryCycles, "must be a finite number >= 0")
	}
	return nil
}

// Profile is an immutable ordered set of operating modes.
type Profile struct {
	name        string
	annualHours float64
	modes       []Mode
}

// New validates and builds a profile. An annualHours of zero selects
// DefaultAnnualHours. Mode hours must add up to the budget exactly; a
// profile without modes is accepted and simulates to zero.
func New(name string, annualHours float64, modes []Mode) (*Profile, error) {
	if annualHours == 0 {
		annualHours = DefaultAnnualHours
	}
	if !units.Finite(annualHours) || annualHours < 0 {
		return nil, errs.Invalid("annual_hours", annualHours, "must be > 0")
	}

	seen := make(map[string]bool, len(modes))
	var total float64
	for _, m := range modes {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, errs.Invalid("modes", m.Name, "duplicate mode name")
		}
		seen[m.Name] = true
		total += m.Hours
	}

	if len(modes) > 0 && math.Abs(total-annualHours) > hourTolerance {
		return nil, errs.Invalid("modes.hours_per_year", total,
			fmt.Sprintf("mode hours must sum to the annual budget of %g h", annualHours))
	}

	return &Profile{
		name:        name,
		annualHours: annualHours,
		modes:       append([]Mode(nil), modes...),
	}, nil
}

// Name returns the profile name.
func (p *Profile) Name() string { return p.name }

// AnnualHours returns the hour budget.
func (p *Profile) AnnualHours() float64 { return p.annualHours }

// Len returns the number of modes.
func (p *Profile) Len() int { return len(p.modes) }

// Modes returns a copy of the modes in profile order.
func (p *Profile) Modes() []Mode {
	return append([]Mode(nil), p.modes...)
}

// Mode returns the named mode.
func (p *Profile) Mode(name string) (Mode, bool) {
	for _, m := range p.modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}
