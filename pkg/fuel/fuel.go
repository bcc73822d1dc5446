// Package fuel defines fuel types and their emission and price constants.
package fuel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

// Type identifies a fuel or energy carrier.
type Type string

const (
	MDO      Type = "MDO"
	HFO      Type = "HFO"
	LNG      Type = "LNG"
	Electric Type = "ELECTRIC"
)

// All lists the known types in canonical order.
var All = []Type{MDO, HFO, LNG, Electric}

// ParseType resolves a case-insensitive fuel name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case MDO, HFO, LNG, Electric:
		return t, nil
	case "ELECTRICITY", "SHORE":
		return Electric, nil
	}
	return "", errs.Invalid("fuel", s, "unknown fuel type (want MDO, HFO, LNG or ELECTRIC)")
}

// Combustible reports whether the type is burned in an engine.
func (t Type) Combustible() bool {
	return t == MDO || t == HFO || t == LNG
}

// Unit is the base unit quantities of a fuel are measured in.
type Unit string

const (
	UnitKg  Unit = "kg"
	UnitKWh Unit = "kWh"
)

// Unit returns the base unit for quantities of t.
func (t Type) Unit() Unit {
	if t == Electric {
		return UnitKWh
	}
	return UnitKg
}

// Properties holds the per-unit constants of one fuel type.
// Factors and prices are per kg for combustible fuels and per kWh for ELECTRIC.
type Properties struct {
	CO2Factor   float64 `json:"co2_factor" yaml:"co2_factor"`
	Price       float64 `json:"price" yaml:"price"`
	SOxFactor   float64 `json:"sox_factor" yaml:"sox_factor"`
	MethaneSlip float64 `json:"methane_slip_co2e" yaml:"methane_slip_co2e"`
}

// Defaults returns the built-in fuel table.
func Defaults() map[Type]Properties {
	return map[Type]Properties{
		MDO:      {CO2Factor: 3.206, Price: 0.650, SOxFactor: 0.001},
		HFO:      {CO2Factor: 3.114, Price: 0.480, SOxFactor: 0.027},
		LNG:      {CO2Factor: 2.750, Price: 0.600, MethaneSlip: MethaneSlipFraction * MethaneGWP},
		Electric: {CO2Factor: 0.500, Price: 0.150},
	}
}

// Methane slip: 1.5% of LNG mass escapes unburnt at a 100-year GWP of 28.
const (
	MethaneSlipFraction = 0.015
	MethaneGWP          = 28.0
)

// Registry is an immutable fuel table shared read-only by every simulation.
type Registry struct {
	props map[Type]Properties
}

// NewRegistry builds a registry from the defaults with the given overrides applied.
func NewRegistry(overrides map[Type]Properties) (*Registry, error) {
	props := Defaults()
	for t, p := range overrides {
		tt, err := ParseType(string(t))
		if err != nil {
			return nil, err
		}
		props[tt] = p
	}
	for _, t := range sortedTypes(props) {
		if err := validate(t, props[t]); err != nil {
			return nil, err
		}
	}
	return &Registry{props: props}, nil
}

// DefaultRegistry returns a registry holding only the built-in table.
func DefaultRegistry() *Registry {
	return &Registry{props: Defaults()}
}

// Lookup returns the properties for t.
func (r *Registry) Lookup(t Type) (Properties, error) {
	p, ok := r.props[t]
	if !ok {
		return Properties{}, errs.Invalid("fuel", string(t), "not present in fuel registry")
	}
	return p, nil
}

// Types returns the registered types in canonical order.
func (r *Registry) Types() []Type {
	return sortedTypes(r.props)
}

func validate(t Type, p Properties) error {
	field := fmt.Sprintf("fuels.%s", t)
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"co2_factor", p.CO2Factor},
		{"price", p.Price},
		{"sox_factor", p.SOxFactor},
		{"methane_slip_co2e", p.MethaneSlip},
	} {
		if !units.Finite(v.value) {
			return errs.Invalid(field+"."+v.name, v.value, "must be a finite number")
		}
	}
	switch {
	case p.CO2Factor < 0:
		return errs.Invalid(field+".co2_factor", p.CO2Factor, "must be >= 0")
	case p.Price < 0:
		return errs.Invalid(field+".price", p.Price, "must be >= 0")
	case p.SOxFactor < 0:
		return errs.Invalid(field+".sox_factor", p.SOxFactor, "must be >= 0")
	case p.MethaneSlip < 0:
		return errs.Invalid(field+".methane_slip_co2e", p.MethaneSlip, "must be >= 0")
	}
	return nil
}

func sortedTypes(m map[Type]Properties) []Type {
	rank := make(map[Type]int, len(All))
	for i, t := range All {
		rank[t] = i
	}
	out := make([]Type, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}
