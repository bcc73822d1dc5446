package validation

import (
	"fmt"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/spec"
)

// Load factor bounds for the engine loading findings.
const (
	HighLoadFactor = 0.90
	LowLoadFactor  = 0.25
)

// ValidateCapacity performs Level 2 (analytical) validation: every
// configuration is run through every profile and each mode is checked for
// generation shortfalls and for engines loaded far from their rating.
func ValidateCapacity(cat *spec.Catalog) *Report {
	r := NewReport()
	sim := simulate.New(cat.Registry)

	for _, cfg := range cat.Configurations {
		rated := make(map[string]float64)
		for _, s := range cfg.Sources() {
			rated[s.Name()] = float64(s.Rated())
		}

		for _, p := range cat.Profiles {
			path := fmt.Sprintf("configurations[%s]/profiles[%s]", cfg.Name(), p.Name())
			res, err := sim.Simulate(cfg, p)
			if err != nil {
				f := FromError(err, LevelAnalytical, path)
				f.Suggestions = append(f.Suggestions, "Increase the rated power of the supplying units or reduce the mode load")
				r.AddError(f)
				continue
			}

			for _, m := range res.Modes() {
				for _, a := range m.Allocations {
					if a.Role != propulsion.RoleMain && a.Role != propulsion.RoleAuxiliary {
						continue
					}
					lf := float64(a.Power) / rated[a.Source]
					switch {
					case lf > HighLoadFactor:
						r.AddWarning(Result{
							Level:       LevelAnalytical,
							Message:     fmt.Sprintf("%s: %s runs at %.0f%% of rating in mode %q", cfg.Name(), a.Source, lf*100, m.Mode),
							SpecPath:    path,
							ActualValue: lf,
							Expected:    fmt.Sprintf("<= %.2f", HighLoadFactor),
							Suggestions: []string{"Little margin is left for weather or fouling"},
						})
					case lf > 0 && lf < LowLoadFactor:
						r.AddInfo(Result{
							Level:       LevelAnalytical,
							Message:     fmt.Sprintf("%s: %s runs at %.0f%% of rating in mode %q; the reference SFOC likely understates consumption", cfg.Name(), a.Source, lf*100, m.Mode),
							SpecPath:    path,
							ActualValue: lf,
						})
					}
				}
			}
		}
	}
	return r
}
