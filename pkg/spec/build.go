package spec

import (
	"errors"
	"fmt"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/profile"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// Economics holds the resolved economic assumptions of a project.
type Economics struct {
	DiscountRate  float64 `json:"discount_rate"`
	LifetimeYears int     `json:"lifetime_years"`
	Baseline      string  `json:"baseline,omitempty"`
}

// Catalog is a project turned into validated domain objects.
type Catalog struct {
	Name           string
	Registry       *fuel.Registry
	Configurations []*propulsion.Configuration
	Profiles       []*profile.Profile
	Economics      Economics
}

// Configuration looks up a configuration by name.
func (c *Catalog) Configuration(name string) (*propulsion.Configuration, bool) {
	for _, cfg := range c.Configurations {
		if cfg.Name() == name {
			return cfg, true
		}
	}
	return nil, false
}

// Profile looks up a profile by name. An empty name selects the first profile.
func (c *Catalog) Profile(name string) (*profile.Profile, bool) {
	for _, p := range c.Profiles {
		if name == "" || p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Build validates every record and constructs the domain objects. All
// construction failures are collected and returned together.
func (p *Project) Build() (*Catalog, error) {
	var errList []error

	reg, err := p.Registry()
	if err != nil {
		errList = append(errList, err)
	}

	cat := &Catalog{Name: p.Project.Name, Registry: reg, Economics: p.resolveEconomics()}
	seen := make(map[string]bool)
	for _, def := range p.Configurations {
		cfg, err := def.Build()
		if err != nil {
			errList = append(errList, fmt.Errorf("configuration %q: %w", def.Name, err))
			continue
		}
		if seen[cfg.Name()] {
			errList = append(errList, fmt.Errorf("configuration %q: duplicate name", def.Name))
			continue
		}
		seen[cfg.Name()] = true
		cat.Configurations = append(cat.Configurations, cfg)
	}

	seen = make(map[string]bool)
	for _, def := range p.Profiles {
		prof, err := def.Build()
		if err != nil {
			errList = append(errList, fmt.Errorf("profile %q: %w", def.Name, err))
			continue
		}
		if seen[prof.Name()] {
			errList = append(errList, fmt.Errorf("profile %q: duplicate name", def.Name))
			continue
		}
		seen[prof.Name()] = true
		cat.Profiles = append(cat.Profiles, prof)
	}

	if b := cat.Economics.Baseline; b != "" {
		if _, ok := cat.Configuration(b); !ok {
			errList = append(errList, fmt.Errorf("economics.baseline: unknown configuration %q", b))
		}
	}

	if err := errors.Join(errList...); err != nil {
		return nil, err
	}
	return cat, nil
}

func (p *Project) resolveEconomics() Economics {
	e := Economics{
		DiscountRate:  p.Economics.DiscountRate,
		LifetimeYears: p.Economics.LifetimeYears,
		Baseline:      p.Economics.Baseline,
	}
	if e.DiscountRate == 0 {
		e.DiscountRate = economics.DefaultDiscountRate
	}
	if e.LifetimeYears == 0 {
		e.LifetimeYears = economics.DefaultLifetimeYears
	}
	return e
}

// Registry builds the fuel registry: the default table with the project's
// overrides applied field by field.
func (p *Project) Registry() (*fuel.Registry, error) {
	if len(p.Fuels) == 0 {
		return fuel.DefaultRegistry(), nil
	}
	defaults := fuel.Defaults()
	overrides := make(map[fuel.Type]fuel.Properties, len(p.Fuels))
	for name, def := range p.Fuels {
		t, err := fuel.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("fuels.%s: %w", name, err)
		}
		props := defaults[t]
		if def.CO2Factor != nil {
			props.CO2Factor = *def.CO2Factor
		}
		if def.SOxFactor != nil {
			props.SOxFactor = *def.SOxFactor
		}
		if def.MethaneSlip != nil {
			props.MethaneSlip = *def.MethaneSlip
		}
		switch {
		case t.Combustible() && def.PriceUSDPerKWh != nil:
			return nil, fmt.Errorf("fuels.%s: combustible fuels are priced per tonne", name)
		case !t.Combustible() && def.PriceUSDPerTonne != nil:
			return nil, fmt.Errorf("fuels.%s: shore electricity is priced per kWh", name)
		case def.PriceUSDPerTonne != nil:
			props.Price = *def.PriceUSDPerTonne / 1000
		case def.PriceUSDPerKWh != nil:
			props.Price = *def.PriceUSDPerKWh
		}
		overrides[t] = props
	}
	return fuel.NewRegistry(overrides)
}

// Build constructs the configuration and its sources.
func (d ConfigurationDef) Build() (*propulsion.Configuration, error) {
	var sources []*propulsion.PowerSource
	for i, sd := range d.Sources {
		built, err := sd.Build()
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		sources = append(sources, built...)
	}
	return propulsion.NewConfiguration(propulsion.ConfigurationSpec{
		Name:        d.Name,
		Sources:     sources,
		CapitalCost: d.CapitalCost,
		DesignSpeed: d.DesignSpeed,
		DesignPower: units.Power(d.DesignPower),
	})
}

// Build constructs one source per declared unit.
func (d SourceDef) Build() ([]*propulsion.PowerSource, error) {
	role, err := propulsion.ParseRole(d.Role)
	if err != nil {
		return nil, err
	}
	parse := func(s string) (fuel.Type, error) {
		if s == "" {
			return "", nil
		}
		return fuel.ParseType(s)
	}
	primary, err := parse(d.Fuel)
	if err != nil {
		return nil, err
	}
	secondary, err := parse(d.SecondaryFuel)
	if err != nil {
		return nil, err
	}
	pilot, err := parse(d.PilotFuel)
	if err != nil {
		return nil, err
	}

	n := d.Units()
	out := make([]*propulsion.PowerSource, 0, n)
	for i := 1; i <= n; i++ {
		name := d.Name
		if n > 1 {
			name = fmt.Sprintf("%s%d", d.Name, i)
		}
		s, err := propulsion.NewPowerSource(propulsion.SourceSpec{
			Name:              name,
			Role:              role,
			Rated:             units.Power(d.RatedPower),
			Fuel:              primary,
			SFOC:              d.SFOC,
			Efficiency:        units.Fraction(d.Efficiency),
			SecondaryFuel:     secondary,
			SecondaryFraction: units.Fraction(d.SecondaryFraction),
			PilotFuel:         pilot,
			PilotSFOC:         d.PilotSFOC,
			CapacityKWh:       units.Energy(d.CapacityKWh),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Build constructs the profile and checks its hour budget.
func (d ProfileDef) Build() (*profile.Profile, error) {
	modes := make([]profile.Mode, len(d.Modes))
	for i, m := range d.Modes {
		modes[i] = profile.Mode{
			Name:            m.Name,
			Hours:           m.Hours,
			PropulsionPower: units.Power(m.PropulsionPower),
			Speed:           m.Speed,
			ElectricalLoad:  units.Power(m.ElectricalLoad),
			BatteryCycles:   m.BatteryCycles,
		}
	}
	return profile.New(d.Name, d.HoursPerYear, modes)
}
