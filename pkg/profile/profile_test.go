package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

func tankerModes() []Mode {
	return []Mode{
		{Name: "Sailing", Hours: 5694, PropulsionPower: 3200, ElectricalLoad: 400},
		{Name: "Maneuvering", Hours: 438, PropulsionPower: 1200, ElectricalLoad: 600},
		{Name: "Port", Hours: 2628, ElectricalLoad: 500, BatteryCycles: 150},
	}
}

func TestNewValidProfile(t *testing.T) {
	p, err := New("Short-Sea Tanker", 0, tankerModes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.AnnualHours() != DefaultAnnualHours {
		t.Errorf("annual hours = %v, want %v", p.AnnualHours(), DefaultAnnualHours)
	}
	if p.Len() != 3 {
		t.Errorf("len = %d, want 3", p.Len())
	}
	if m, ok := p.Mode("Port"); !ok || m.BatteryCycles != 150 {
		t.Errorf("Mode(Port) = %+v, %v", m, ok)
	}
}

func TestNewRejectsShortHourBudget(t *testing.T) {
	modes := tankerModes()
	modes[2].Hours = 2000

	_, err := New("short", 0, modes)
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "modes.hours_per_year" {
		t.Errorf("field = %q", ve.Field)
	}
}

func TestNewRejectsOverBudget(t *testing.T) {
	modes := tankerModes()
	modes[0].Hours = 6000
	if _, err := New("long", 0, modes); err == nil {
		t.Fatal("expected error when hours exceed the budget")
	}
}

func TestNewCustomBudget(t *testing.T) {
	modes := []Mode{
		{Name: "Transit", Hours: 20, PropulsionPower: 2000},
		{Name: "Berth", Hours: 4, ElectricalLoad: 300},
	}
	p, err := New("day trip", 24, modes)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.AnnualHours() != 24 {
		t.Errorf("annual hours = %v, want 24", p.AnnualHours())
	}
}

func TestNewEmptyProfile(t *testing.T) {
	p, err := New("idle", 0, nil)
	if err != nil {
		t.Fatalf("empty profile should be accepted: %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("len = %d", p.Len())
	}
}

func TestNewRejectsBadModes(t *testing.T) {
	cases := map[string]Mode{
		"negative hours":  {Name: "a", Hours: -1},
		"negative power":  {Name: "a", Hours: 8760, PropulsionPower: -10},
		"negative load":   {Name: "a", Hours: 8760, ElectricalLoad: -1},
		"power and speed": {Name: "a", Hours: 8760, PropulsionPower: 100, Speed: 12},
		"missing name":    {Hours: 8760},
		"negative cycles": {Name: "a", Hours: 8760, BatteryCycles: -3},
		"negative speed":  {Name: "a", Hours: 8760, Speed: -1},
		"NaN hours":       {Name: "a", Hours: math.NaN()},
		"infinite hours":  {Name: "a", Hours: math.Inf(1)},
		"NaN power":       {Name: "a", Hours: 8760, PropulsionPower: units.Power(math.NaN())},
		"NaN speed":       {Name: "a", Hours: 8760, Speed: math.NaN()},
		"infinite speed":  {Name: "a", Hours: 8760, Speed: math.Inf(1)},
		"NaN load":        {Name: "a", Hours: 8760, ElectricalLoad: units.Power(math.NaN())},
		"NaN cycles":      {Name: "a", Hours: 8760, BatteryCycles: math.NaN()},
	}
	for name, m := range cases {
		if _, err := New("bad", 0, []Mode{m}); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	modes := []Mode{
		{Name: "Sailing", Hours: 4380},
		{Name: "Sailing", Hours: 4380},
	}
	if _, err := New("dup", 0, modes); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestModesReturnsCopy(t *testing.T) {
	p, _ := New("copy", 0, tankerModes())
	m := p.Modes()
	m[0].PropulsionPower = 0
	if got, _ := p.Mode("Sailing"); got.PropulsionPower != 3200 {
		t.Error("profile must not be mutated through Modes()")
	}
}

func TestSpeedGoverned(t *testing.T) {
	if !(Mode{Speed: 12}).SpeedGoverned() {
		t.Error("speed-only mode should be speed governed")
	}
	if (Mode{PropulsionPower: 100}).SpeedGoverned() {
		t.Error("power mode should not be speed governed")
	}
}

func TestNewRejectsNonFiniteBudget(t *testing.T) {
	if _, err := New("bad", math.NaN(), tankerModes()); err == nil {
		t.Error("expected error for NaN annual hours")
	}
}
