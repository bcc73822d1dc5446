// Package store persists simulation runs. Sinks are called by the caller
// after a simulation has finished, never from inside the simulation loop.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
)

// Run is one persisted evaluation of a configuration over a profile.
type Run struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Result    *simulate.Result
	// Cost is nil when the run was not annualised.
	Cost *economics.AnnualCost
}

// NewRun stamps a result with a fresh ID and the current UTC time.
func NewRun(r *simulate.Result, cost *economics.AnnualCost) Run {
	return Run{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Result:    r,
		Cost:      cost,
	}
}

// Sink accepts finished runs.
type Sink interface {
	Save(ctx context.Context, run Run) error
	Close() error
}

// ModeRow is one mode of a run flattened for tabular storage.
type ModeRow struct {
	RunID         uuid.UUID             `json:"run_id"`
	CreatedAt     time.Time             `json:"created_at"`
	Configuration string                `json:"configuration"`
	Profile       string                `json:"profile"`
	Mode          string                `json:"mode"`
	Hours         float64               `json:"hours"`
	PropulsionKW  float64               `json:"propulsion_power_kw"`
	ElectricalKW  float64               `json:"electrical_load_kw"`
	Fuel          map[fuel.Type]float64 `json:"fuel"`
	EnergyKWh     float64               `json:"energy_kwh"`
	CO2Kg         float64               `json:"co2_kg"`
	CO2eKg        float64               `json:"co2e_kg"`
	SOxKg         float64               `json:"sox_kg"`
	FuelCostUSD   decimal.Decimal       `json:"fuel_cost_usd"`
}

// Flatten returns one row per mode of the run, in profile order.
func Flatten(run Run) []ModeRow {
	modes := run.Result.Modes()
	rows := make([]ModeRow, len(modes))
	for i, m := range modes {
		rows[i] = ModeRow{
			RunID:         run.ID,
			CreatedAt:     run.CreatedAt,
			Configuration: run.Result.Configuration(),
			Profile:       run.Result.Profile(),
			Mode:          m.Mode,
			Hours:         m.Hours,
			PropulsionKW:  float64(m.PropulsionPower),
			ElectricalKW:  float64(m.ElectricalLoad),
			Fuel:          m.Fuel,
			EnergyKWh:     float64(m.Energy),
			CO2Kg:         float64(m.CO2),
			CO2eKg:        float64(m.CO2e),
			SOxKg:         float64(m.SOx),
			FuelCostUSD:   money(m.Cost),
		}
	}
	return rows
}

// Summary is the annual view of a run.
type Summary struct {
	RunID         uuid.UUID             `json:"run_id"`
	CreatedAt     time.Time             `json:"created_at"`
	Configuration string                `json:"configuration"`
	Profile       string                `json:"profile"`
	Fuel          map[fuel.Type]float64 `json:"fuel"`
	FuelMassKg    float64               `json:"fuel_mass_kg"`
	CO2Kg         float64               `json:"co2_kg"`
	CO2eKg        float64               `json:"co2e_kg"`
	SOxKg         float64               `json:"sox_kg"`
	FuelCostUSD   decimal.Decimal       `json:"fuel_cost_usd"`
	CapitalUSD    decimal.Decimal       `json:"capital_annual_usd"`
	TotalUSD      decimal.Decimal       `json:"total_annual_usd"`
}

// Summarize returns the annual totals of the run. Money is rounded to cents.
func Summarize(run Run) Summary {
	tot := run.Result.Totals()
	s := Summary{
		RunID:         run.ID,
		CreatedAt:     run.CreatedAt,
		Configuration: run.Result.Configuration(),
		Profile:       run.Result.Profile(),
		Fuel:          tot.Fuel,
		FuelMassKg:    float64(tot.FuelMass()),
		CO2Kg:         float64(tot.CO2),
		CO2eKg:        float64(tot.CO2e),
		SOxKg:         float64(tot.SOx),
		FuelCostUSD:   money(tot.FuelCost),
		CapitalUSD:    decimal.Zero,
		TotalUSD:      money(tot.FuelCost),
	}
	if run.Cost != nil {
		s.CapitalUSD = money(run.Cost.CapitalAnnual)
		s.TotalUSD = money(run.Cost.Total)
	}
	return s
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

var errNoResult = errors.New("run has no result")

func check(run Run) error {
	if run.Result == nil {
		return errNoResult
	}
	return nil
}
