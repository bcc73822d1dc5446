// Package simulate runs a propulsion configuration through an operating
// profile and integrates fuel, energy, emissions and fuel cost over a year.
package simulate

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/profile"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// Simulator evaluates configurations against profiles. It holds only the
// immutable fuel registry and a logger, so one Simulator may be shared by
// any number of goroutines.
type Simulator struct {
	reg    *fuel.Registry
	logger *slog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used for per-mode debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Simulator over reg. A nil registry means the default fuel table.
func New(reg *fuel.Registry, opts ...Option) *Simulator {
	if reg == nil {
		reg = fuel.DefaultRegistry()
	}
	s := &Simulator{
		reg:    reg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SailingPower derives propulsion power from speed with the cube law
// P = designPower·(speed/designSpeed)³. The law holds near the design point
// only; it is an approximation of hull resistance, not hydrodynamics.
func SailingPower(designPower units.Power, designSpeed, speed float64) units.Power {
	if speed == designSpeed {
		return designPower
	}
	r := speed / designSpeed
	return units.Power(float64(designPower) * r * r * r)
}

// Simulate evaluates cfg over every mode of p.
func (s *Simulator) Simulate(cfg *propulsion.Configuration, p *profile.Profile) (*Result, error) {
	if cfg == nil || p == nil {
		return nil, errs.Invalid("simulate", nil, "configuration and profile are required")
	}

	modes := p.Modes()
	out := make([]ModeResult, 0, len(modes))
	for _, m := range modes {
		mr, err := s.runMode(cfg, m)
		if err != nil {
			return nil, fmt.Errorf("configuration %q, mode %q: %w", cfg.Name(), m.Name, err)
		}
		s.logger.Debug("mode simulated",
			"configuration", cfg.Name(),
			"mode", m.Name,
			"hours", m.Hours,
			"propulsion_kw", float64(mr.PropulsionPower),
			"co2_kg", float64(mr.CO2),
			"fuel_cost_usd", mr.Cost,
		)
		out = append(out, mr)
	}

	r := &Result{
		configuration: cfg.Name(),
		profile:       p.Name(),
		modes:         out,
		totals:        accumulate(out),
	}
	s.logger.Info("simulation complete",
		"configuration", r.configuration,
		"profile", r.profile,
		"modes", len(out),
		"co2_t", r.totals.CO2.Tonnes(),
		"fuel_cost_usd", r.totals.FuelCost,
	)
	return r, nil
}

func (s *Simulator) runMode(cfg *propulsion.Configuration, m profile.Mode) (ModeResult, error) {
	speed := m.Speed
	if m.SpeedGoverned() {
		if cfg.DesignSpeed() <= 0 || cfg.DesignPower() <= 0 {
			return ModeResult{}, errs.Invalid(
				fmt.Sprintf("configurations[%s].design_point", cfg.Name()), nil,
				"speed-based modes need design_speed_knots and design_power_kw")
		}
		m.PropulsionPower = SailingPower(cfg.DesignPower(), cfg.DesignSpeed(), m.Speed)
		m.Speed = 0
	}
	res, err := cfg.RunMode(m, s.reg)
	if err != nil {
		return ModeResult{}, err
	}
	return ModeResult{
		Mode:            m.Name,
		Hours:           m.Hours,
		Speed:           speed,
		PropulsionPower: m.PropulsionPower,
		ElectricalLoad:  m.ElectricalLoad,
		ModeResult:      res,
	}, nil
}

// accumulate sums mode results in mode-name order so that permuting the
// profile yields bit-identical totals.
func accumulate(modes []ModeResult) Totals {
	sorted := make([]ModeResult, len(modes))
	copy(sorted, modes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Mode < sorted[j].Mode })

	t := Totals{
		Fuel:       make(map[fuel.Type]float64),
		CostByFuel: make(map[fuel.Type]float64),
	}
	for _, m := range sorted {
		t.Hours += m.Hours
		t.Energy += m.Energy
		t.CO2 += m.CO2
		t.CO2e += m.CO2e
		t.SOx += m.SOx
		t.FuelCost += m.Cost
	}
	for _, ft := range fuel.All {
		for _, m := range sorted {
			if q, ok := m.Fuel[ft]; ok {
				t.Fuel[ft] += q
			}
			if c, ok := m.CostByFuel[ft]; ok {
				t.CostByFuel[ft] += c
			}
		}
	}
	return t
}
