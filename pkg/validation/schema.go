package validation

import (
	"fmt"
	"math"
	"sort"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/profile"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/spec"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

const hourTolerance = 1e-6

// ValidateSchema performs Level 1 (schema) validation on a parsed Project.
// It checks structural correctness before anything is built or simulated.
func ValidateSchema(p *spec.Project) *Report {
	r := NewReport()

	validateProject(p, r)
	validateFuels(p, r)
	validateConfigurations(p, r)
	validateProfiles(p, r)
	validateEconomics(p, r)

	return r
}

func validateProject(p *spec.Project, r *Report) {
	if p.SpecVersion == "" {
		r.AddWarning(Result{
			Level:    LevelSchema,
			Message:  "spec_version is not set",
			SpecPath: "spec_version",
			Expected: "e.g. \"0.1.0\"",
		})
	}
	if p.Project.Name == "" {
		r.AddInfo(Result{
			Level:    LevelSchema,
			Message:  "project.name is empty; reports will be untitled",
			SpecPath: "project.name",
		})
	}
}

// numField is a named numeric field checked in declaration order so that
// findings come out in the same order on every run.
type numField struct {
	name  string
	value float64
}

// checkFinite reports every NaN or infinite field under path and returns
// false if there was one.
func checkFinite(r *Report, path, label string, fields []numField) bool {
	ok := true
	for _, f := range fields {
		if units.Finite(f.value) {
			continue
		}
		ok = false
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s%s must be a finite number", label, f.name),
			SpecPath:    path + "." + f.name,
			ActualValue: f.value,
			Expected:    "a finite number",
		})
	}
	return ok
}

func validateFuels(p *spec.Project, r *Report) {
	names := make([]string, 0, len(p.Fuels))
	for name := range p.Fuels {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := p.Fuels[name]
		path := "fuels." + name
		t, err := fuel.ParseType(name)
		if err != nil {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("unknown fuel type %q", name),
				SpecPath:    path,
				ActualValue: name,
				Expected:    "MDO, HFO, LNG or ELECTRIC",
			})
			continue
		}
		for _, f := range []struct {
			name  string
			value *float64
		}{
			{"co2_factor", def.CO2Factor},
			{"price_usd_per_tonne", def.PriceUSDPerTonne},
			{"price_usd_per_kwh", def.PriceUSDPerKWh},
			{"sox_factor", def.SOxFactor},
			{"methane_slip_co2e", def.MethaneSlip},
		} {
			if f.value == nil {
				continue
			}
			if !checkFinite(r, path, path+".", []numField{{f.name, *f.value}}) {
				continue
			}
			if *f.value < 0 {
				r.AddError(Result{
					Level:       LevelSchema,
					Message:     fmt.Sprintf("%s.%s must be non-negative", path, f.name),
					SpecPath:    path + "." + f.name,
					ActualValue: *f.value,
					Expected:    ">= 0",
				})
			}
		}
		if t.Combustible() && def.PriceUSDPerKWh != nil {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s is priced per tonne, not per kWh", t),
				SpecPath:    path + ".price_usd_per_kwh",
				Suggestions: []string{"Use price_usd_per_tonne for combustible fuels"},
			})
		}
		if !t.Combustible() && def.PriceUSDPerTonne != nil {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "shore electricity is priced per kWh, not per tonne",
				SpecPath:    path + ".price_usd_per_tonne",
				Suggestions: []string{"Use price_usd_per_kwh for ELECTRIC"},
			})
		}
	}
}

func validateConfigurations(p *spec.Project, r *Report) {
	if len(p.Configurations) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "configurations must contain at least one configuration",
			SpecPath: "configurations",
			Expected: "at least 1 configuration",
		})
		return
	}

	names := make(map[string]int)
	for i, c := range p.Configurations {
		path := fmt.Sprintf("configurations[%d]", i)
		if c.Name == "" {
			r.AddError(Result{Level: LevelSchema, Message: path + ": name is required", SpecPath: path + ".name"})
		} else if prev, dup := names[c.Name]; dup {
			r.AddError(Result{
				Level:        LevelSchema,
				Message:      fmt.Sprintf("duplicate configuration name %q", c.Name),
				SpecPath:     path + ".name",
				ConflictWith: fmt.Sprintf("configurations[%d].name", prev),
			})
		} else {
			names[c.Name] = i
		}

		if !checkFinite(r, path, fmt.Sprintf("%s (%s): ", path, c.Name), []numField{
			{"capital_cost_usd", c.CapitalCost},
			{"design_speed_knots", c.DesignSpeed},
			{"design_power_kw", c.DesignPower},
		}) {
			validateSources(c, path, r)
			continue
		}

		if c.CapitalCost < 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): capital_cost_usd must be >= 0", path, c.Name),
				SpecPath:    path + ".capital_cost_usd",
				ActualValue: c.CapitalCost,
				Expected:    ">= 0",
			})
		} else if c.CapitalCost == 0 {
			r.AddWarning(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s (%s): capital_cost_usd is 0; annual cost will be fuel only", path, c.Name),
				SpecPath: path + ".capital_cost_usd",
			})
		}
		if (c.DesignSpeed > 0) != (c.DesignPower > 0) {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s (%s): design_speed_knots and design_power_kw must be given together", path, c.Name),
				SpecPath: path + ".design_speed_knots",
				Expected: "both > 0 or both unset",
			})
		}

		validateSources(c, path, r)
	}
}

func validateSources(c spec.ConfigurationDef, path string, r *Report) {
	roles := make(map[propulsion.Role]int)
	for j, s := range c.Sources {
		sp := fmt.Sprintf("%s.sources[%d]", path, j)
		role, err := propulsion.ParseRole(s.Role)
		if err != nil {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): unknown role %q", sp, s.Name, s.Role),
				SpecPath:    sp + ".role",
				ActualValue: s.Role,
				Expected:    "main, auxiliary, motor or battery",
			})
			continue
		}
		roles[role] += s.Units()

		if !checkFinite(r, sp, fmt.Sprintf("%s (%s): ", sp, s.Name), []numField{
			{"rated_power_kw", s.RatedPower},
			{"sfoc_g_per_kwh", s.SFOC},
			{"efficiency", s.Efficiency},
			{"secondary_fraction", s.SecondaryFraction},
			{"pilot_sfoc_g_per_kwh", s.PilotSFOC},
			{"capacity_kwh", s.CapacityKWh},
		}) {
			continue
		}

		if s.RatedPower <= 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): rated_power_kw must be > 0", sp, s.Name),
				SpecPath:    sp + ".rated_power_kw",
				ActualValue: s.RatedPower,
				Expected:    "> 0",
			})
		}

		if role.Electric() {
			if s.Efficiency <= 0 || s.Efficiency > 1 {
				r.AddError(Result{
					Level:       LevelSchema,
					Message:     fmt.Sprintf("%s (%s): efficiency must be a fraction in (0, 1]", sp, s.Name),
					SpecPath:    sp + ".efficiency",
					ActualValue: s.Efficiency,
					Expected:    "0 < efficiency <= 1",
					Suggestions: percentHint(s.Efficiency),
				})
			}
			if role == propulsion.RoleBattery && s.CapacityKWh <= 0 {
				r.AddError(Result{
					Level:    LevelSchema,
					Message:  fmt.Sprintf("%s (%s): battery needs capacity_kwh > 0", sp, s.Name),
					SpecPath: sp + ".capacity_kwh",
				})
			}
			continue
		}

		if t, err := fuel.ParseType(s.Fuel); err != nil || !t.Combustible() {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): engines need a combustible fuel", sp, s.Name),
				SpecPath:    sp + ".fuel",
				ActualValue: s.Fuel,
				Expected:    "MDO, HFO or LNG",
			})
		}
		if s.SFOC <= 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): sfoc_g_per_kwh must be > 0", sp, s.Name),
				SpecPath:    sp + ".sfoc_g_per_kwh",
				ActualValue: s.SFOC,
				Expected:    "> 0",
			})
		} else if s.SFOC < 120 || s.SFOC > 260 {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): sfoc %.1f g/kWh is outside the usual 120-260 range for marine engines", sp, s.Name, s.SFOC),
				SpecPath:    sp + ".sfoc_g_per_kwh",
				ActualValue: s.SFOC,
			})
		}
		if s.SecondaryFuel != "" && (s.SecondaryFraction <= 0 || s.SecondaryFraction > 1) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): secondary_fraction must be a fraction in (0, 1]", sp, s.Name),
				SpecPath:    sp + ".secondary_fraction",
				ActualValue: s.SecondaryFraction,
				Expected:    "0 < fraction <= 1",
				Suggestions: percentHint(s.SecondaryFraction),
			})
		}
	}

	if roles[propulsion.RoleMain]+roles[propulsion.RoleMotor] == 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s (%s): no main engine or propulsion motor", path, c.Name),
			SpecPath:    path + ".sources",
			Suggestions: []string{"Add a source with role main or motor"},
		})
	}
	if roles[propulsion.RoleMotor] > 0 && roles[propulsion.RoleAuxiliary]+roles[propulsion.RoleBattery] == 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s (%s): propulsion motor has no genset or battery to feed it", path, c.Name),
			SpecPath:    path + ".sources",
			Suggestions: []string{"Add auxiliary gensets or a battery"},
		})
	}
}

func validateProfiles(p *spec.Project, r *Report) {
	if len(p.Profiles) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "profiles must contain at least one operating profile",
			SpecPath: "profiles",
			Expected: "at least 1 profile",
		})
		return
	}

	for i, pr := range p.Profiles {
		path := fmt.Sprintf("profiles[%d]", i)
		if !checkFinite(r, path, fmt.Sprintf("%s (%s): ", path, pr.Name), []numField{{"hours_per_year", pr.HoursPerYear}}) {
			continue
		}
		budget := pr.HoursPerYear
		if budget == 0 {
			budget = profile.DefaultAnnualHours
		}

		var sum float64
		seen := make(map[string]bool)
		speedModes := 0
		for j, m := range pr.Modes {
			mp := fmt.Sprintf("%s.modes[%d]", path, j)
			sum += m.Hours
			if seen[m.Name] {
				r.AddError(Result{Level: LevelSchema, Message: fmt.Sprintf("%s: duplicate mode name %q", path, m.Name), SpecPath: mp + ".name"})
			}
			seen[m.Name] = true

			fields := []numField{
				{"hours_per_year", m.Hours},
				{"propulsion_power_kw", m.PropulsionPower},
				{"sailing_speed_knots", m.Speed},
				{"electrical_load_kw", m.ElectricalLoad},
				{"battery_cycles", m.BatteryCycles},
			}
			checkFinite(r, mp, fmt.Sprintf("%s (%s): ", mp, m.Name), fields)
			for _, f := range fields {
				if f.value < 0 {
					r.AddError(Result{
						Level:       LevelSchema,
						Message:     fmt.Sprintf("%s (%s): %s must be non-negative", mp, m.Name, f.name),
						SpecPath:    mp + "." + f.name,
						ActualValue: f.value,
						Expected:    ">= 0",
					})
				}
			}
			if m.PropulsionPower > 0 && m.Speed > 0 {
				r.AddError(Result{
					Level:        LevelSchema,
					Message:      fmt.Sprintf("%s (%s): set either propulsion_power_kw or sailing_speed_knots, not both", mp, m.Name),
					SpecPath:     mp + ".sailing_speed_knots",
					ConflictWith: mp + ".propulsion_power_kw",
				})
			}
			if m.PropulsionPower == 0 && m.Speed > 0 {
				speedModes++
			}
		}

		if len(pr.Modes) > 0 && math.Abs(sum-budget) > hourTolerance {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): mode hours sum to %.1f, must equal the annual budget of %.0f", path, pr.Name, sum, budget),
				SpecPath:    path + ".modes",
				ActualValue: sum,
				Expected:    fmt.Sprintf("%.0f", budget),
				Suggestions: []string{fmt.Sprintf("Adjust hours_per_year by %+.1f h across the modes", budget-sum)},
			})
		}

		if speedModes > 0 {
			for k, c := range p.Configurations {
				if c.DesignSpeed == 0 || c.DesignPower == 0 {
					r.AddError(Result{
						Level:        LevelSchema,
						Message:      fmt.Sprintf("%s (%s) has speed-based modes but configuration %q has no design point", path, pr.Name, c.Name),
						SpecPath:     fmt.Sprintf("configurations[%d].design_speed_knots", k),
						ConflictWith: path + ".modes",
					})
				}
			}
		}
	}
}

func validateEconomics(p *spec.Project, r *Report) {
	e := p.Economics
	switch {
	case !checkFinite(r, "economics", "economics.", []numField{{"discount_rate", e.DiscountRate}}):
	case e.DiscountRate < 0 || e.DiscountRate >= 1:
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("discount_rate %.4f must be > 0 and < 1", e.DiscountRate),
			SpecPath:    "economics.discount_rate",
			ActualValue: e.DiscountRate,
			Expected:    "0 < rate < 1",
			Suggestions: percentHint(e.DiscountRate),
		})
	case e.DiscountRate == 0:
		r.AddInfo(Result{
			Level:    LevelSchema,
			Message:  fmt.Sprintf("discount_rate not set; using %.2f", economics.DefaultDiscountRate),
			SpecPath: "economics.discount_rate",
		})
	}
	if e.LifetimeYears < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "lifetime_years must be > 0",
			SpecPath:    "economics.lifetime_years",
			ActualValue: e.LifetimeYears,
			Expected:    "> 0",
		})
	} else if e.LifetimeYears == 0 {
		r.AddInfo(Result{
			Level:    LevelSchema,
			Message:  fmt.Sprintf("lifetime_years not set; using %d", economics.DefaultLifetimeYears),
			SpecPath: "economics.lifetime_years",
		})
	}
	if e.Baseline != "" {
		found := false
		for _, c := range p.Configurations {
			if c.Name == e.Baseline {
				found = true
				break
			}
		}
		if !found {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("baseline %q does not name a configuration", e.Baseline),
				SpecPath:    "economics.baseline",
				ActualValue: e.Baseline,
			})
		}
	}
}

// percentHint suggests a fraction when a value looks like a percentage.
func percentHint(v float64) []string {
	if v > 1 && v <= 100 {
		return []string{fmt.Sprintf("Values are fractions, not percentages: did you mean %.4g?", v/100)}
	}
	return nil
}
