package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/profile"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
)

func testRun(t *testing.T) Run {
	t.Helper()
	me, err := propulsion.NewPowerSource(propulsion.SourceSpec{Name: "ME", Role: propulsion.RoleMain, Rated: 4640, Fuel: fuel.MDO, SFOC: 181})
	require.NoError(t, err)
	dg, err := propulsion.NewPowerSource(propulsion.SourceSpec{Name: "DG1", Role: propulsion.RoleAuxiliary, Rated: 900, Fuel: fuel.MDO, SFOC: 195.1})
	require.NoError(t, err)
	cfg, err := propulsion.NewConfiguration(propulsion.ConfigurationSpec{Name: "Diesel-Mechanical", Sources: []*propulsion.PowerSource{me, dg}, CapitalCost: 10_000_000})
	require.NoError(t, err)
	p, err := profile.New("Short-Sea Tanker", 0, []profile.Mode{
		{Name: "Sailing", Hours: 5694, PropulsionPower: 3200, ElectricalLoad: 400},
		{Name: "Maneuvering", Hours: 438, PropulsionPower: 1200, ElectricalLoad: 600},
		{Name: "Port", Hours: 2628, ElectricalLoad: 500},
	})
	require.NoError(t, err)

	res, err := simulate.New(nil).Simulate(cfg, p)
	require.NoError(t, err)
	cost, err := economics.Annualize(cfg, res, 0.05, 20)
	require.NoError(t, err)
	return NewRun(res, &cost)
}

func TestFlatten(t *testing.T) {
	run := testRun(t)
	rows := Flatten(run)
	require.Len(t, rows, 3)

	assert.Equal(t, "Sailing", rows[0].Mode)
	assert.Equal(t, "Port", rows[2].Mode)
	for _, r := range rows {
		assert.Equal(t, run.ID, r.RunID)
		assert.Equal(t, "Diesel-Mechanical", r.Configuration)
		assert.Equal(t, "Short-Sea Tanker", r.Profile)
	}
	assert.InDelta(t, 3200.0*5694*181/1000+400.0*5694*195.1/1000, rows[0].Fuel[fuel.MDO], 1e-6)
	assert.True(t, rows[0].FuelCostUSD.Equal(rows[0].FuelCostUSD.Round(2)), "money is kept to cents")
}

func TestSummarize(t *testing.T) {
	run := testRun(t)
	s := Summarize(run)

	tot := run.Result.Totals()
	assert.InDelta(t, float64(tot.CO2), s.CO2Kg, 1e-9)
	assert.True(t, s.FuelCostUSD.Equal(decimal.NewFromFloat(tot.FuelCost).Round(2)))
	assert.True(t, s.TotalUSD.Equal(decimal.NewFromFloat(run.Cost.Total).Round(2)))
	assert.True(t, s.CapitalUSD.Equal(decimal.RequireFromString("802425.87")))

	noCost := run
	noCost.Cost = nil
	assert.True(t, Summarize(noCost).CapitalUSD.IsZero())
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	run := testRun(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sink.Save(context.Background(), run))
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, sink.Len())
	assert.Len(t, sink.Runs(), 8)

	assert.ErrorIs(t, sink.Save(context.Background(), Run{}), errNoResult)
	assert.NoError(t, sink.Close())
}

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestNATSSinkPublishesSummary(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewNATSSink(pub, "", nil)
	run := testRun(t)

	require.NoError(t, sink.Save(context.Background(), run))
	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "propsim.runs.Diesel-Mechanical", pub.subjects[0])

	var got Summary
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, run.ID, got.RunID)
	assert.Equal(t, "Short-Sea Tanker", got.Profile)
	assert.True(t, got.TotalUSD.Equal(Summarize(run).TotalUSD))

	assert.NoError(t, sink.Close())
}

func TestNATSSinkSubject(t *testing.T) {
	sink := NewNATSSink(&fakePublisher{}, "fleet.runs", nil)
	assert.Equal(t, "fleet.runs.Dual-Fuel_LNG", sink.Subject("Dual-Fuel LNG"))
	assert.Equal(t, "fleet.runs.v1_2", sink.Subject("v1.2"))
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	mem := NewMemorySink()
	broken := NewNATSSink(&fakePublisher{err: errors.New("no responders")}, "", nil)
	multi := MultiSink{broken, mem}

	err := multi.Save(context.Background(), testRun(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
	assert.Equal(t, 1, mem.Len(), "later sinks still receive the run")
	assert.NoError(t, multi.Close())
}

func TestSchemaDDL(t *testing.T) {
	for _, table := range []string{"simulation_runs", "simulation_modes"} {
		assert.True(t, strings.Contains(Schema, "CREATE TABLE IF NOT EXISTS "+table), "missing %s", table)
	}
	assert.Equal(t, 12, strings.Count(insertRun, "$"))
	assert.Equal(t, 12, strings.Count(insertMode, "$"))
}

func TestPostgresSinkIntegration(t *testing.T) {
	url := os.Getenv("PROPSIM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PROPSIM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, url)
	require.NoError(t, err)
	sink := NewPostgresSink(db, nil)
	defer sink.Close()

	require.NoError(t, sink.EnsureSchema(ctx))
	run := testRun(t)
	require.NoError(t, sink.Save(ctx, run))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM simulation_modes WHERE run_id = $1", run.ID).Scan(&n))
	assert.Equal(t, 3, n)
}
