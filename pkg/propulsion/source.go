// Package propulsion models the power plant of a vessel: individual power
// sources and the configurations that bundle them.
package propulsion

import (
	"fmt"
	"strings"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// Role determines which demand a source serves in a mode.
type Role string

const (
	// RoleMain engines drive the shaft mechanically.
	RoleMain Role = "main"
	// RoleAuxiliary gensets supply the electrical bus.
	RoleAuxiliary Role = "auxiliary"
	// RoleMotor units drive the shaft from the electrical bus.
	RoleMotor Role = "motor"
	// RoleBattery units discharge shore-charged storage onto the bus.
	RoleBattery Role = "battery"
)

// ParseRole resolves a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleMain, RoleAuxiliary, RoleMotor, RoleBattery:
		return r, nil
	case "aux", "genset":
		return RoleAuxiliary, nil
	}
	return "", errs.Invalid("role", s, "unknown role (want main, auxiliary, motor or battery)")
}

// Electric reports whether sources with this role are characterised by an
// efficiency rather than a specific fuel consumption.
func (r Role) Electric() bool {
	return r == RoleMotor || r == RoleBattery
}

// SourceSpec is the construction input for a PowerSource.
type SourceSpec struct {
	Name  string
	Role  Role
	Rated units.Power
	Fuel  fuel.Type

	// SFOC is the specific fuel oil consumption in g/kWh (combustion units).
	SFOC float64
	// Efficiency is the conversion efficiency of motors and batteries.
	Efficiency units.Fraction

	SecondaryFuel     fuel.Type
	SecondaryFraction units.Fraction

	PilotFuel fuel.Type
	PilotSFOC float64

	// CapacityKWh is the usable storage of a battery.
	CapacityKWh units.Energy
}

// PowerSource is one engine, genset, motor or battery. It is immutable and
// stateless, so a single value may serve any number of modes and
// configurations concurrently.
type PowerSource struct {
	spec SourceSpec
}

// NewPowerSource validates spec and builds a source.
func NewPowerSource(spec SourceSpec) (*PowerSource, error) {
	if spec.Name == "" {
		return nil, errs.Invalid("sources.name", nil, "source name is required")
	}
	field := func(f string) string { return fmt.Sprintf("sources[%s].%s", spec.Name, f) }

	if _, err := ParseRole(string(spec.Role)); err != nil {
		return nil, errs.Invalid(field("role"), string(spec.Role), "unknown role")
	}
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"rated_power_kw", float64(spec.Rated)},
		{"sfoc_g_per_kwh", spec.SFOC},
		{"efficiency", float64(spec.Efficiency)},
		{"secondary_fraction", float64(spec.SecondaryFraction)},
		{"pilot_sfoc_g_per_kwh", spec.PilotSFOC},
		{"capacity_kwh", float64(spec.CapacityKWh)},
	} {
		if !units.Finite(v.value) {
			return nil, errs.Invalid(field(v.name), v.value, "must be a finite number")
		}
	}
	if spec.Rated <= 0 {
		return nil, errs.Invalid(field("rated_power_kw"), float64(spec.Rated), "must be > 0")
	}

	if spec.Role.Electric() {
		if spec.Fuel == "" {
			spec.Fuel = fuel.Electric
		}
		if spec.Fuel != fuel.Electric {
			return nil, errs.Invalid(field("fuel"), string(spec.Fuel), "motors and batteries run on ELECTRIC")
		}
		if spec.Efficiency <= 0 || spec.Efficiency > 1 {
			return nil, errs.Invalid(field("efficiency"), float64(spec.Efficiency), "must be in (0, 1]")
		}
		if spec.SFOC != 0 || spec.SecondaryFuel != "" || spec.PilotFuel != "" {
			return nil, errs.Invalid(field("sfoc_g_per_kwh"), spec.SFOC, "electric sources take an efficiency, not a fuel consumption")
		}
		if spec.Role == RoleBattery && spec.CapacityKWh <= 0 {
			return nil, errs.Invalid(field("capacity_kwh"), float64(spec.CapacityKWh), "must be > 0 for a battery")
		}
		return &PowerSource{spec: spec}, nil
	}

	if !spec.Fuel.Combustible() {
		return nil, errs.Invalid(field("fuel"), string(spec.Fuel), "engines need a combustible fuel")
	}
	if spec.SFOC <= 0 {
		return nil, errs.Invalid(field("sfoc_g_per_kwh"), spec.SFOC, "must be > 0")
	}
	if spec.Efficiency != 0 {
		return nil, errs.Invalid(field("efficiency"), float64(spec.Efficiency), "engines take an SFOC, not an efficiency")
	}
	if spec.SecondaryFuel != "" || spec.SecondaryFraction != 0 {
		if !spec.SecondaryFuel.Combustible() {
			return nil, errs.Invalid(field("secondary_fuel"), string(spec.SecondaryFuel), "dual-fuel share needs a combustible secondary fuel")
		}
		if spec.SecondaryFraction <= 0 || spec.SecondaryFraction > 1 {
			return nil, errs.Invalid(field("secondary_fraction"), float64(spec.SecondaryFraction), "must be in (0, 1]")
		}
	}
	if spec.PilotFuel != "" || spec.PilotSFOC != 0 {
		if !spec.PilotFuel.Combustible() {
			return nil, errs.Invalid(field("pilot_fuel"), string(spec.PilotFuel), "pilot injection needs a combustible fuel")
		}
		if spec.PilotSFOC <= 0 {
			return nil, errs.Invalid(field("pilot_sfoc_g_per_kwh"), spec.PilotSFOC, "must be > 0")
		}
	}
	return &PowerSource{spec: spec}, nil
}

// Name returns the source name.
func (s *PowerSource) Name() string { return s.spec.Name }

// Role returns the source role.
func (s *PowerSource) Role() Role { return s.spec.Role }

// Rated returns the rated power.
func (s *PowerSource) Rated() units.Power { return s.spec.Rated }

// Fuel returns the primary fuel type.
func (s *PowerSource) Fuel() fuel.Type { return s.spec.Fuel }

// Efficiency returns the conversion efficiency of an electric source, 0 otherwise.
func (s *PowerSource) Efficiency() units.Fraction { return s.spec.Efficiency }

// CapacityKWh returns the storage capacity of a battery, 0 otherwise.
func (s *PowerSource) CapacityKWh() units.Energy { return s.spec.CapacityKWh }

// Draw returns the input power an electric source pulls to deliver p.
// Combustion sources return p unchanged.
func (s *PowerSource) Draw(p units.Power) units.Power {
	if !s.spec.Role.Electric() {
		return p
	}
	return units.Power(float64(p) / float64(s.spec.Efficiency))
}

// Consume returns what the source uses to deliver power for the given hours.
//
// Delivering more than the rated power is an error rather than being
// clamped, since it means the operating mode is misconfigured.
func (s *PowerSource) Consume(power units.Power, hours float64) (Consumption, error) {
	if !units.Finite(float64(power)) || power < 0 || power > s.spec.Rated {
		return Consumption{}, errs.Invalid(
			fmt.Sprintf("sources[%s].power_kw", s.spec.Name), float64(power),
			fmt.Sprintf("must be within [0, %g] kW rated power", float64(s.spec.Rated)))
	}
	if !units.Finite(hours) || hours < 0 {
		return Consumption{}, errs.Invalid(fmt.Sprintf("sources[%s].hours", s.spec.Name), hours, "must be >= 0")
	}

	var c Consumption
	if s.spec.Role.Electric() {
		c.Energy = units.Energy(float64(power) * hours / float64(s.spec.Efficiency))
		if s.spec.Role == RoleBattery {
			c.add(fuel.Electric, float64(c.Energy))
		}
		return c, nil
	}

	delivered := power.Over(hours)
	c.Energy = delivered
	fuelKg := float64(delivered) * s.spec.SFOC / 1000.0
	if s.spec.SecondaryFraction > 0 {
		c.add(s.spec.Fuel, fuelKg*float64(s.spec.SecondaryFraction.Complement()))
		c.add(s.spec.SecondaryFuel, fuelKg*float64(s.spec.SecondaryFraction))
	} else {
		c.add(s.spec.Fuel, fuelKg)
	}
	if s.spec.PilotSFOC > 0 {
		c.add(s.spec.PilotFuel, float64(delivered)*s.spec.PilotSFOC/1000.0)
	}
	return c, nil
}
