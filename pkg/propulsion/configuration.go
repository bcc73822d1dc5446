package propulsion

import (
	"errors"
	"fmt"
	"math"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/profile"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// ConfigurationSpec is the construction input for a Configuration.
type ConfigurationSpec struct {
	Name        string
	Sources     []*PowerSource
	CapitalCost float64
	DesignSpeed float64
	DesignPower units.Power
}

// Configuration is a named power plant: its sources in priority order plus
// the design point used to derive sailing power from speed.
type Configuration struct {
	name        string
	sources     []*PowerSource
	capitalCost float64
	designSpeed float64
	designPower units.Power
}

// NewConfiguration validates spec and builds a configuration.
func NewConfiguration(spec ConfigurationSpec) (*Configuration, error) {
	if spec.Name == "" {
		return nil, errs.Invalid("configurations.name", nil, "configuration name is required")
	}
	field := func(f string) string { return fmt.Sprintf("configurations[%s].%s", spec.Name, f) }

	if !units.Finite(spec.CapitalCost) || spec.CapitalCost < 0 {
		return nil, errs.Invalid(field("capital_cost"), spec.CapitalCost, "must be >= 0")
	}
	if !units.Finite(spec.DesignSpeed) || !units.Finite(float64(spec.DesignPower)) {
		return nil, errs.Invalid(field("design_point"), nil, "design speed and power must be finite numbers")
	}
	if spec.DesignSpeed < 0 || spec.DesignPower < 0 {
		return nil, errs.Invalid(field("design_point"), nil, "design speed and power must be >= 0")
	}
	if (spec.DesignSpeed > 0) != (spec.DesignPower > 0) {
		return nil, errs.Invalid(field("design_point"), nil, "design_speed_knots and design_power_kw must be given together")
	}

	seen := make(map[string]bool, len(spec.Sources))
	counts := make(map[Role]int)
	for i, s := range spec.Sources {
		if s == nil {
			return nil, errs.Invalid(field(fmt.Sprintf("sources[%d]", i)), nil, "nil source")
		}
		if seen[s.Name()] {
			return nil, errs.Invalid(field("sources"), s.Name(), "duplicate source name")
		}
		seen[s.Name()] = true
		counts[s.Role()]++
	}
	if counts[RoleMain]+counts[RoleMotor] == 0 {
		return nil, errs.Invalid(field("sources"), nil, "at least one main engine or motor is required")
	}
	if counts[RoleMotor] > 0 && counts[RoleAuxiliary]+counts[RoleBattery] == 0 {
		return nil, errs.Invalid(field("sources"), nil, "motors need an auxiliary genset or battery to feed them")
	}

	return &Configuration{
		name:        spec.Name,
		sources:     append([]*PowerSource(nil), spec.Sources...),
		capitalCost: spec.CapitalCost,
		designSpeed: spec.DesignSpeed,
		designPower: spec.DesignPower,
	}, nil
}

// Name returns the configuration name.
func (c *Configuration) Name() string { return c.name }

// CapitalCost returns the up-front capital cost in USD.
func (c *Configuration) CapitalCost() float64 { return c.capitalCost }

// DesignSpeed returns the design speed in knots, 0 when not declared.
func (c *Configuration) DesignSpeed() float64 { return c.designSpeed }

// DesignPower returns the propulsion power at design speed.
func (c *Configuration) DesignPower() units.Power { return c.designPower }

// Sources returns all sources in declared order.
func (c *Configuration) Sources() []*PowerSource {
	return append([]*PowerSource(nil), c.sources...)
}

// SourcesByRole returns the sources with role r in declared order.
func (c *Configuration) SourcesByRole(r Role) []*PowerSource {
	var out []*PowerSource
	for _, s := range c.sources {
		if s.Role() == r {
			out = append(out, s)
		}
	}
	return out
}

// Capacity returns the combined rated power of the sources with role r.
func (c *Configuration) Capacity(r Role) units.Power {
	return units.SumPower(ratings(c.SourcesByRole(r)))
}

// Allocation records the load one source carried in a mode.
type Allocation struct {
	Source string      `json:"source"`
	Role   Role        `json:"role"`
	Power  units.Power `json:"power_kw"`
	Hours  float64     `json:"hours"`
}

// ModeResult is the aggregate consumption of a configuration in one mode.
type ModeResult struct {
	Consumption
	CO2          units.Mass            `json:"co2_kg"`
	CO2e         units.Mass            `json:"co2e_kg"`
	SOx          units.Mass            `json:"sox_kg"`
	Cost         float64               `json:"fuel_cost_usd"`
	CostByFuel   map[fuel.Type]float64 `json:"fuel_cost_by_type_usd,omitempty"`
	BatteryHours float64               `json:"battery_hours,omitempty"`
	Allocations  []Allocation          `json:"allocations"`
}

// RunMode computes consumption, emissions and fuel cost for one mode.
//
// Propulsion demand is served mechanically first (main engines in declared
// order) and the remainder by motors, each motor drawing output/efficiency
// from the electrical bus. The bus carries that draw plus the mode's
// electrical load. When the mode grants battery cycles, batteries take bus
// load first for as long as their stored energy lasts; auxiliaries cover
// the rest in declared order.
//
// The mode's PropulsionPower must already be resolved; speed derivation is
// done by the simulator.
func (c *Configuration) RunMode(m profile.Mode, reg *fuel.Registry) (ModeResult, error) {
	if err := m.Validate(); err != nil {
		return ModeResult{}, err
	}
	if reg == nil {
		return ModeResult{}, errors.New("nil fuel registry")
	}

	var (
		res   ModeResult
		total Consumption
	)
	consume := func(s *PowerSource, p units.Power, hours float64) error {
		cons, err := s.Consume(p, hours)
		if err != nil {
			return err
		}
		total = total.Plus(cons)
		res.Allocations = append(res.Allocations, Allocation{Source: s.Name(), Role: s.Role(), Power: p, Hours: hours})
		return nil
	}

	// Propulsion: main engines first, motors for the remainder.
	mains := c.SourcesByRole(RoleMain)
	motors := c.SourcesByRole(RoleMotor)
	shaft := append(append([]*PowerSource(nil), mains...), motors...)
	shaftAlloc, err := Allocate(ratings(shaft), m.PropulsionPower)
	if err != nil {
		return ModeResult{}, c.capacityError(m.Name, "propulsion demand", "propulsion capacity", err)
	}

	bus := m.ElectricalLoad
	for i, s := range shaft {
		if shaftAlloc[i] == 0 {
			continue
		}
		if err := consume(s, shaftAlloc[i], m.Hours); err != nil {
			return ModeResult{}, err
		}
		if s.Role() == RoleMotor {
			bus += s.Draw(shaftAlloc[i])
		}
	}

	// Electrical bus: batteries while their budget lasts, then auxiliaries.
	auxes := c.SourcesByRole(RoleAuxiliary)
	auxCaps := ratings(auxes)

	type interval struct {
		demand units.Power
		hours  float64
	}
	intervals := []interval{{demand: bus, hours: m.Hours}}

	batteries := c.SourcesByRole(RoleBattery)
	if m.BatteryCycles > 0 && len(batteries) > 0 && bus > 0 && m.Hours > 0 {
		battAlloc := allocateUpTo(ratings(batteries), bus)
		hb := batteryHours(batteries, battAlloc, m.BatteryCycles, m.Hours)
		if hb > 0 {
			for i, b := range batteries {
				if battAlloc[i] == 0 {
					continue
				}
				if err := consume(b, battAlloc[i], hb); err != nil {
					return ModeResult{}, err
				}
			}
			res.BatteryHours = hb
			intervals = []interval{{demand: bus - units.SumPower(battAlloc), hours: hb}}
			if rest := m.Hours - hb; rest > 0 {
				intervals = append(intervals, interval{demand: bus, hours: rest})
			}
		}
	}

	for _, iv := range intervals {
		alloc, err := Allocate(auxCaps, iv.demand)
		if err != nil {
			return ModeResult{}, c.capacityError(m.Name, "electrical load", "auxiliary capacity", err)
		}
		for i, a := range auxes {
			if alloc[i] == 0 {
				continue
			}
			if err := consume(a, alloc[i], iv.hours); err != nil {
				return ModeResult{}, err
			}
		}
	}

	res.Consumption = total
	if err := res.assess(reg); err != nil {
		return ModeResult{}, err
	}
	return res, nil
}

// assess prices and converts the fuel quantities to emissions. Fuel types
// are visited in canonical order so the float sums are reproducible.
func (r *ModeResult) assess(reg *fuel.Registry) error {
	for _, t := range fuel.All {
		q, ok := r.Fuel[t]
		if !ok {
			continue
		}
		p, err := reg.Lookup(t)
		if err != nil {
			return err
		}
		r.CO2 += units.Mass(q * p.CO2Factor)
		r.CO2e += units.Mass(q * (p.CO2Factor + p.MethaneSlip))
		r.SOx += units.Mass(q * p.SOxFactor)
		cost := q * p.Price
		r.Cost += cost
		if r.CostByFuel == nil {
			r.CostByFuel = make(map[fuel.Type]float64)
		}
		r.CostByFuel[t] = cost
	}
	return nil
}

func (c *Configuration) capacityError(mode, load, supply string, err error) error {
	var ce *errs.CapacityError
	if !errors.As(err, &ce) {
		return err
	}
	return &errs.CapacityError{
		Mode:     mode,
		Load:     load,
		Supply:   supply,
		Demand:   ce.Demand,
		Capacity: ce.Capacity,
	}
}

// batteryHours is how long the batteries can carry their allocation given
// the energy budget of capacity × cycles, capped at the mode duration.
func batteryHours(batteries []*PowerSource, alloc []units.Power, cycles, hours float64) float64 {
	hb := hours
	for i, b := range batteries {
		if alloc[i] <= 0 {
			continue
		}
		budget := float64(b.CapacityKWh()) * cycles
		h := budget * float64(b.Efficiency()) / float64(alloc[i])
		hb = math.Min(hb, h)
	}
	return hb
}

func ratings(sources []*PowerSource) []units.Power {
	out := make([]units.Power, len(sources))
	for i, s := range sources {
		out[i] = s.Rated()
	}
	return out
}
