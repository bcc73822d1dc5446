package propulsion

import (
	"errors"
	"math"
	"testing"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/profile"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

func mustSource(t *testing.T, spec SourceSpec) *PowerSource {
	t.Helper()
	s, err := NewPowerSource(spec)
	if err != nil {
		t.Fatalf("NewPowerSource(%s): %v", spec.Name, err)
	}
	return s
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func dieselMain(t *testing.T) *PowerSource {
	return mustSource(t, SourceSpec{Name: "ME", Role: RoleMain, Rated: 4640, Fuel: fuel.MDO, SFOC: 181})
}

func aux(t *testing.T, name string, rated units.Power) *PowerSource {
	return mustSource(t, SourceSpec{Name: name, Role: RoleAuxiliary, Rated: rated, Fuel: fuel.MDO, SFOC: 195.1})
}

func TestConsumeSailingFuel(t *testing.T) {
	c, err := dieselMain(t).Consume(3200, 5694)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	want := 3200.0 * 5694 * 181 / 1000
	if got := c.Quantity(fuel.MDO); !near(got, want, 1e-6) {
		t.Errorf("MDO = %.3f kg, want %.3f", got, want)
	}
	if !near(float64(c.Energy), 3200*5694, 1e-6) {
		t.Errorf("energy = %v", c.Energy)
	}
}

func TestConsumeZeroIsZero(t *testing.T) {
	sources := []*PowerSource{
		dieselMain(t),
		mustSource(t, SourceSpec{Name: "DF", Role: RoleMain, Rated: 4800, Fuel: fuel.LNG, SFOC: 157.5,
			SecondaryFuel: fuel.MDO, SecondaryFraction: 0.05, PilotFuel: fuel.MDO, PilotSFOC: 5.2}),
		mustSource(t, SourceSpec{Name: "EM", Role: RoleMotor, Rated: 4400, Efficiency: 0.97}),
		mustSource(t, SourceSpec{Name: "BAT", Role: RoleBattery, Rated: 1000, Efficiency: 0.95, CapacityKWh: 1500}),
	}
	for _, s := range sources {
		for _, in := range []struct {
			p units.Power
			h float64
		}{{0, 100}, {500, 0}} {
			c, err := s.Consume(in.p, in.h)
			if err != nil {
				t.Fatalf("%s.Consume(%v, %v): %v", s.Name(), in.p, in.h, err)
			}
			if !c.IsZero() {
				t.Errorf("%s.Consume(%v, %v) = %+v, want zero", s.Name(), in.p, in.h, c)
			}
			if len(c.Fuel) != 0 {
				t.Errorf("%s: zero consumption carries fuel entries %v", s.Name(), c.Fuel)
			}
		}
	}
}

func TestConsumeDualFuelSplit(t *testing.T) {
	s := mustSource(t, SourceSpec{Name: "DF", Role: RoleMain, Rated: 2000, Fuel: fuel.LNG, SFOC: 200,
		SecondaryFuel: fuel.MDO, SecondaryFraction: 0.05})

	// 1000 kW × 5 h × 200 g/kWh = 1000 kg
	c, err := s.Consume(1000, 5)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := c.Quantity(fuel.LNG); !near(got, 950, 1e-9) {
		t.Errorf("LNG = %v, want 950", got)
	}
	if got := c.Quantity(fuel.MDO); !near(got, 50, 1e-9) {
		t.Errorf("MDO = %v, want 50", got)
	}
}

func TestConsumePilotFuel(t *testing.T) {
	s := mustSource(t, SourceSpec{Name: "DF", Role: RoleMain, Rated: 2000, Fuel: fuel.LNG, SFOC: 150,
		PilotFuel: fuel.MDO, PilotSFOC: 5.2})

	c, err := s.Consume(1000, 10)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := c.Quantity(fuel.LNG); !near(got, 1500, 1e-9) {
		t.Errorf("LNG = %v, want 1500", got)
	}
	if got := c.Quantity(fuel.MDO); !near(got, 52, 1e-9) {
		t.Errorf("pilot MDO = %v, want 52", got)
	}
}

func TestConsumeElectric(t *testing.T) {
	motor := mustSource(t, SourceSpec{Name: "EM", Role: RoleMotor, Rated: 4400, Efficiency: 0.8})
	c, err := motor.Consume(2000, 10)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !near(float64(c.Energy), 25000, 1e-9) {
		t.Errorf("energy = %v, want 25000", c.Energy)
	}
	if len(c.Fuel) != 0 {
		t.Errorf("motor should report no fuel, got %v", c.Fuel)
	}

	bat := mustSource(t, SourceSpec{Name: "BAT", Role: RoleBattery, Rated: 1000, Efficiency: 0.8, CapacityKWh: 500})
	c, err = bat.Consume(400, 2)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := c.Quantity(fuel.Electric); !near(got, 1000, 1e-9) {
		t.Errorf("ELECTRIC = %v, want 1000", got)
	}
}

func TestConsumeRejectsOverload(t *testing.T) {
	_, err := dieselMain(t).Consume(5000, 1)
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := dieselMain(t).Consume(100, -1); err == nil {
		t.Error("expected error for negative hours")
	}
	if _, err := dieselMain(t).Consume(-1, 1); err == nil {
		t.Error("expected error for negative power")
	}
}

func TestNewPowerSourceValidation(t *testing.T) {
	tests := []struct {
		name string
		spec SourceSpec
	}{
		{"missing name", SourceSpec{Role: RoleMain, Rated: 100, Fuel: fuel.MDO, SFOC: 180}},
		{"zero rating", SourceSpec{Name: "x", Role: RoleMain, Fuel: fuel.MDO, SFOC: 180}},
		{"unknown role", SourceSpec{Name: "x", Role: "sail", Rated: 100, Fuel: fuel.MDO, SFOC: 180}},
		{"electric engine", SourceSpec{Name: "x", Role: RoleMain, Rated: 100, Fuel: fuel.Electric, SFOC: 180}},
		{"no sfoc", SourceSpec{Name: "x", Role: RoleAuxiliary, Rated: 100, Fuel: fuel.MDO}},
		{"motor efficiency", SourceSpec{Name: "x", Role: RoleMotor, Rated: 100, Efficiency: 1.2}},
		{"motor with sfoc", SourceSpec{Name: "x", Role: RoleMotor, Rated: 100, Efficiency: 0.9, SFOC: 10}},
		{"battery without capacity", SourceSpec{Name: "x", Role: RoleBattery, Rated: 100, Efficiency: 0.9}},
		{"secondary fraction", SourceSpec{Name: "x", Role: RoleMain, Rated: 100, Fuel: fuel.LNG, SFOC: 150, SecondaryFuel: fuel.MDO, SecondaryFraction: 1.5}},
		{"pilot sfoc", SourceSpec{Name: "x", Role: RoleMain, Rated: 100, Fuel: fuel.LNG, SFOC: 150, PilotFuel: fuel.MDO}},
		{"NaN rating", SourceSpec{Name: "x", Role: RoleMain, Rated: units.Power(math.NaN()), Fuel: fuel.MDO, SFOC: 180}},
		{"infinite rating", SourceSpec{Name: "x", Role: RoleMain, Rated: units.Power(math.Inf(1)), Fuel: fuel.MDO, SFOC: 180}},
		{"NaN sfoc", SourceSpec{Name: "x", Role: RoleMain, Rated: 100, Fuel: fuel.MDO, SFOC: math.NaN()}},
		{"NaN motor efficiency", SourceSpec{Name: "x", Role: RoleMotor, Rated: 100, Efficiency: units.Fraction(math.NaN())}},
		{"NaN secondary fraction", SourceSpec{Name: "x", Role: RoleMain, Rated: 100, Fuel: fuel.LNG, SFOC: 150, SecondaryFuel: fuel.MDO, SecondaryFraction: units.Fraction(math.NaN())}},
		{"NaN pilot sfoc", SourceSpec{Name: "x", Role: RoleMain, Rated: 100, Fuel: fuel.LNG, SFOC: 150, PilotFuel: fuel.MDO, PilotSFOC: math.NaN()}},
		{"infinite battery capacity", SourceSpec{Name: "x", Role: RoleBattery, Rated: 100, Efficiency: 0.9, CapacityKWh: units.Energy(math.Inf(1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPowerSource(tt.spec)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestAllocate(t *testing.T) {
	caps := []units.Power{1000, 500, 800}

	got, err := Allocate(caps, 1200)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	want := []units.Power{1000, 200, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("alloc[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	got, err = Allocate(caps, 0)
	if err != nil || units.SumPower(got) != 0 {
		t.Errorf("Allocate(0) = %v, %v", got, err)
	}

	_, err = Allocate(caps, 2400)
	var ce *errs.CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if ce.Demand != 2400 || ce.Capacity != 2300 {
		t.Errorf("capacity error = %+v", ce)
	}

	for _, d := range []units.Power{-1, units.Power(math.NaN()), units.Power(math.Inf(1))} {
		var ve *errs.ValidationError
		if _, err := Allocate(caps, d); !errors.As(err, &ve) {
			t.Errorf("Allocate(%v): expected ValidationError, got %v", d, err)
		}
	}
}

func TestNewConfigurationRoles(t *testing.T) {
	motor := mustSource(t, SourceSpec{Name: "EM", Role: RoleMotor, Rated: 4400, Efficiency: 0.97})

	if _, err := NewConfiguration(ConfigurationSpec{Name: "aux only", Sources: []*PowerSource{aux(t, "DG1", 900)}}); err == nil {
		t.Error("expected error without main engine or motor")
	}
	if _, err := NewConfiguration(ConfigurationSpec{Name: "bare motor", Sources: []*PowerSource{motor}}); err == nil {
		t.Error("expected error for a motor without supply")
	}
	if _, err := NewConfiguration(ConfigurationSpec{Name: "dup", Sources: []*PowerSource{aux(t, "DG", 900), aux(t, "DG", 900), dieselMain(t)}}); err == nil {
		t.Error("expected error for duplicate source names")
	}
	if _, err := NewConfiguration(ConfigurationSpec{Name: "half design", Sources: []*PowerSource{dieselMain(t)}, DesignSpeed: 13.5}); err == nil {
		t.Error("expected error for design speed without design power")
	}
	if _, err := NewConfiguration(ConfigurationSpec{Name: "NaN capital", Sources: []*PowerSource{dieselMain(t)}, CapitalCost: math.NaN()}); err == nil {
		t.Error("expected error for NaN capital cost")
	}
	if _, err := NewConfiguration(ConfigurationSpec{Name: "NaN design", Sources: []*PowerSource{dieselMain(t)}, DesignSpeed: math.NaN(), DesignPower: 4000}); err == nil {
		t.Error("expected error for NaN design speed")
	}
	cfg, err := NewConfiguration(ConfigurationSpec{Name: "Hybrid", Sources: []*PowerSource{aux(t, "DG1", 1600), motor}})
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	if cfg.Capacity(RoleAuxiliary) != 1600 || len(cfg.SourcesByRole(RoleMotor)) != 1 {
		t.Errorf("unexpected configuration %+v", cfg)
	}
}

func TestRunModeDieselMechanical(t *testing.T) {
	cfg, err := NewConfiguration(ConfigurationSpec{
		Name:    "Diesel-Mechanical",
		Sources: []*PowerSource{dieselMain(t), aux(t, "DG1", 900), aux(t, "DG2", 900)},
	})
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	m := profile.Mode{Name: "Sailing", Hours: 5694, PropulsionPower: 3200, ElectricalLoad: 400}
	res, err := cfg.RunMode(m, fuel.DefaultRegistry())
	if err != nil {
		t.Fatalf("RunMode: %v", err)
	}

	mainKg := 3200.0 * 5694 * 181 / 1000
	auxKg := 400.0 * 5694 * 195.1 / 1000
	if got := res.Quantity(fuel.MDO); !near(got, mainKg+auxKg, 1e-6) {
		t.Errorf("MDO = %.3f, want %.3f", got, mainKg+auxKg)
	}
	if !near(float64(res.CO2), (mainKg+auxKg)*3.206, 1e-3) {
		t.Errorf("CO2 = %v", res.CO2)
	}
	if res.CO2e != res.CO2 {
		t.Errorf("diesel CO2e %v should equal CO2 %v", res.CO2e, res.CO2)
	}
	if !near(res.Cost, (mainKg+auxKg)*0.65, 1e-3) {
		t.Errorf("cost = %v", res.Cost)
	}
	if len(res.Allocations) != 2 {
		t.Fatalf("allocations = %+v, want main + first aux", res.Allocations)
	}
	if res.Allocations[1].Source != "DG1" || res.Allocations[1].Power != 400 {
		t.Errorf("aux allocation = %+v", res.Allocations[1])
	}
}

func TestRunModeElectricalCapacityError(t *testing.T) {
	cfg, err := NewConfiguration(ConfigurationSpec{
		Name:    "small aux",
		Sources: []*PowerSource{dieselMain(t), aux(t, "DG1", 800), aux(t, "DG2", 800)},
	})
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	_, err = cfg.RunMode(profile.Mode{Name: "port", Hours: 100, ElectricalLoad: 1800}, fuel.DefaultRegistry())
	var ce *errs.CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	want := "mode 'port': electrical load 1800kW exceeds auxiliary capacity 1600kW"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestRunModePropulsionCapacityError(t *testing.T) {
	cfg, err := NewConfiguration(ConfigurationSpec{Name: "DM", Sources: []*PowerSource{dieselMain(t), aux(t, "DG1", 900)}})
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	_, err = cfg.RunMode(profile.Mode{Name: "flat out", Hours: 1, PropulsionPower: 5000}, fuel.DefaultRegistry())
	var ce *errs.CapacityError
	if !errors.As(err, &ce) || ce.Load != "propulsion demand" {
		t.Fatalf("expected propulsion CapacityError, got %v", err)
	}
}

func hybrid(t *testing.T) *Configuration {
	t.Helper()
	sources := []*PowerSource{
		aux(t, "DG1", 1600), aux(t, "DG2", 1600), aux(t, "DG3", 1600), aux(t, "DG4", 1600),
		mustSource(t, SourceSpec{Name: "EM", Role: RoleMotor, Rated: 4400, Efficiency: 0.97}),
		mustSource(t, SourceSpec{Name: "BAT", Role: RoleBattery, Rated: 1000, Efficiency: 0.95, CapacityKWh: 1500}),
	}
	cfg, err := NewConfiguration(ConfigurationSpec{Name: "Hybrid", Sources: sources})
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	return cfg
}

func TestRunModeMotorDrawsFromGensets(t *testing.T) {
	res, err := hybrid(t).RunMode(profile.Mode{Name: "Sailing", Hours: 10, PropulsionPower: 3200, ElectricalLoad: 400}, fuel.DefaultRegistry())
	if err != nil {
		t.Fatalf("RunMode: %v", err)
	}
	bus := 400 + 3200/0.97
	var genset float64
	for _, a := range res.Allocations {
		if a.Role == RoleAuxiliary {
			genset += float64(a.Power)
		}
	}
	if !near(genset, bus, 1e-9) {
		t.Errorf("genset load = %v, want %v", genset, bus)
	}
	if got := res.Quantity(fuel.MDO); !near(got, bus*10*195.1/1000, 1e-6) {
		t.Errorf("MDO = %v", got)
	}
	if res.BatteryHours != 0 {
		t.Errorf("battery should idle without cycles, ran %v h", res.BatteryHours)
	}
}

func TestRunModeBatteryHoursLimitedByBudget(t *testing.T) {
	m := profile.Mode{Name: "Port", Hours: 2628, ElectricalLoad: 500, BatteryCycles: 150}
	res, err := hybrid(t).RunMode(m, fuel.DefaultRegistry())
	if err != nil {
		t.Fatalf("RunMode: %v", err)
	}
	// 1500 kWh × 150 cycles × 0.95 / 500 kW
	if !near(res.BatteryHours, 427.5, 1e-9) {
		t.Errorf("battery hours = %v, want 427.5", res.BatteryHours)
	}
	if got := res.Quantity(fuel.Electric); !near(got, 1500*150, 1e-6) {
		t.Errorf("shore energy = %v, want %v", got, 1500*150)
	}
	wantMDO := 500 * (2628 - 427.5) * 195.1 / 1000
	if got := res.Quantity(fuel.MDO); !near(got, wantMDO, 1e-6) {
		t.Errorf("MDO = %v, want %v", got, wantMDO)
	}
}

func TestRunModeLNGMethaneSlip(t *testing.T) {
	df := mustSource(t, SourceSpec{Name: "DF", Role: RoleMain, Rated: 4800, Fuel: fuel.LNG, SFOC: 157.5})
	cfg, err := NewConfiguration(ConfigurationSpec{Name: "DF", Sources: []*PowerSource{df}})
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	res, err := cfg.RunMode(profile.Mode{Name: "Sailing", Hours: 100, PropulsionPower: 3000}, fuel.DefaultRegistry())
	if err != nil {
		t.Fatalf("RunMode: %v", err)
	}
	lng := res.Quantity(fuel.LNG)
	if !near(float64(res.CO2e-res.CO2), lng*0.42, 1e-6) {
		t.Errorf("methane slip = %v, want %v", res.CO2e-res.CO2, lng*0.42)
	}
	if res.SOx != 0 {
		t.Errorf("LNG SOx = %v, want 0", res.SOx)
	}
}

func TestRunModeRejectsNonFiniteDemand(t *testing.T) {
	cfg, err := NewConfiguration(ConfigurationSpec{
		Name:    "Diesel-Mechanical",
		Sources: []*PowerSource{dieselMain(t), aux(t, "DG1", 900)},
	})
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	modes := []profile.Mode{
		{Name: "Sailing", Hours: 100, PropulsionPower: units.Power(math.NaN())},
		{Name: "Sailing", Hours: 100, PropulsionPower: 3200, ElectricalLoad: units.Power(math.NaN())},
		{Name: "Port", Hours: 100, ElectricalLoad: units.Power(math.Inf(1))},
		{Name: "Port", Hours: math.Inf(1), ElectricalLoad: 400},
	}
	for _, m := range modes {
		res, err := cfg.RunMode(m, fuel.DefaultRegistry())
		var ve *errs.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%+v: expected ValidationError, got %v (allocations %+v)", m, err, res.Allocations)
		}
	}
}

func TestConsumeRejectsNonFinite(t *testing.T) {
	me := dieselMain(t)
	if _, err := me.Consume(units.Power(math.NaN()), 10); err == nil {
		t.Error("expected error for NaN power")
	}
	if _, err := me.Consume(1000, math.NaN()); err == nil {
		t.Error("expected error for NaN hours")
	}
}
