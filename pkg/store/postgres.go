package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
)

// Schema creates the tables PostgresSink writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS simulation_runs (
    id                 UUID PRIMARY KEY,
    created_at         TIMESTAMPTZ NOT NULL,
    configuration      TEXT NOT NULL,
    profile            TEXT NOT NULL,
    fuel               JSONB NOT NULL,
    fuel_mass_kg       DOUBLE PRECISION NOT NULL,
    co2_kg             DOUBLE PRECISION NOT NULL,
    co2e_kg            DOUBLE PRECISION NOT NULL,
    sox_kg             DOUBLE PRECISION NOT NULL,
    fuel_cost_usd      NUMERIC(16,2) NOT NULL,
    capital_annual_usd NUMERIC(16,2) NOT NULL,
    total_annual_usd   NUMERIC(16,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS simulation_modes (
    run_id              UUID NOT NULL REFERENCES simulation_runs(id) ON DELETE CASCADE,
    position            INTEGER NOT NULL,
    mode                TEXT NOT NULL,
    hours               DOUBLE PRECISION NOT NULL,
    propulsion_power_kw DOUBLE PRECISION NOT NULL,
    electrical_load_kw  DOUBLE PRECISION NOT NULL,
    fuel                JSONB NOT NULL,
    energy_kwh          DOUBLE PRECISION NOT NULL,
    co2_kg              DOUBLE PRECISION NOT NULL,
    co2e_kg             DOUBLE PRECISION NOT NULL,
    sox_kg              DOUBLE PRECISION NOT NULL,
    fuel_cost_usd       NUMERIC(16,2) NOT NULL,
    PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS simulation_runs_configuration_idx
    ON simulation_runs (configuration, created_at DESC);
`

const insertRun = `
INSERT INTO simulation_runs (id, created_at, configuration, profile, fuel, fuel_mass_kg,
    co2_kg, co2e_kg, sox_kg, fuel_cost_usd, capital_annual_usd, total_annual_usd)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const insertMode = `
INSERT INTO simulation_modes (run_id, position, mode, hours, propulsion_power_kw,
    electrical_load_kw, fuel, energy_kwh, co2_kg, co2e_kg, sox_kg, fuel_cost_usd)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// PostgresSink writes runs to PostgreSQL, one row per run plus one per mode,
// in a single transaction.
type PostgresSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenPostgres connects to the database at url and verifies the connection.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// NewPostgresSink wraps db. A nil logger discards output.
func NewPostgresSink(db *sql.DB, logger *slog.Logger) *PostgresSink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PostgresSink{db: db, logger: logger}
}

// EnsureSchema creates the tables if they do not exist.
func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Save writes run and its modes.
func (p *PostgresSink) Save(ctx context.Context, run Run) error {
	if err := check(run); err != nil {
		return err
	}
	sum := Summarize(run)
	fuelJSON, err := json.Marshal(sum.Fuel)
	if err != nil {
		return fmt.Errorf("encoding fuel totals: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertRun,
		sum.RunID, sum.CreatedAt, sum.Configuration, sum.Profile, fuelJSON, sum.FuelMassKg,
		sum.CO2Kg, sum.CO2eKg, sum.SOxKg, sum.FuelCostUSD, sum.CapitalUSD, sum.TotalUSD,
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, row := range Flatten(run) {
		modeFuel, err := json.Marshal(row.Fuel)
		if err != nil {
			return fmt.Errorf("encoding mode fuel: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertMode,
			row.RunID, i, row.Mode, row.Hours, row.PropulsionKW,
			row.ElectricalKW, modeFuel, row.EnergyKWh, row.CO2Kg, row.CO2eKg, row.SOxKg, row.FuelCostUSD,
		); err != nil {
			return fmt.Errorf("inserting mode %q: %w", row.Mode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	p.logger.Debug("run stored", "run_id", run.ID, "configuration", sum.Configuration)
	return nil
}

// Close closes the database handle.
func (p *PostgresSink) Close() error {
	return p.db.Close()
}
