package units

import (
	"math"
	"testing"
)

func TestPowerOver(t *testing.T) {
	if got := Power(3200).Over(5694); got != Energy(18220800) {
		t.Errorf("Over = %v, want 18220800 kWh", got)
	}
	if got := Power(0).Over(100); got != 0 {
		t.Errorf("zero power Over = %v, want 0", got)
	}
}

func TestMassTonnes(t *testing.T) {
	if got := Mass(3297964.8).Tonnes(); got != 3297.9648 {
		t.Errorf("Tonnes = %v, want 3297.9648", got)
	}
}

func TestFractionValid(t *testing.T) {
	for _, f := range []Fraction{0, 0.05, 1} {
		if !f.Valid() {
			t.Errorf("%v should be valid", f)
		}
	}
	for _, f := range []Fraction{-0.01, 1.01, 95, Fraction(math.NaN())} {
		if f.Valid() {
			t.Errorf("%v should be invalid", f)
		}
	}
	if c := Fraction(0.25).Complement(); c != 0.75 {
		t.Errorf("Complement = %v, want 0.75", c)
	}
}

func TestSumPower(t *testing.T) {
	if got := SumPower([]Power{900, 900, 1600}); got != 3400 {
		t.Errorf("SumPower = %v, want 3400", got)
	}
	if got := SumPower(nil); got != 0 {
		t.Errorf("SumPower(nil) = %v, want 0", got)
	}
}

func TestFinite(t *testing.T) {
	for _, v := range []float64{0, -1, 3200, math.MaxFloat64} {
		if !Finite(v) {
			t.Errorf("%v should be finite", v)
		}
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Finite(v) {
			t.Errorf("%v should not be finite", v)
		}
	}
}
