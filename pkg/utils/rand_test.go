package utils

import (
	"math"
	"testing"
)

func TestRandSourceFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Float64()
		if val < 0 || val >= 1.0 {
			t.Errorf("Float64() returned value outside [0, 1): %f", val)
		}
	}
}

func TestRandSourceDeterministic(t *testing.T) {
	rng1 := NewRandSource(42)
	rng2 := NewRandSource(42)

	for i := 0; i < 50; i++ {
		v1, v2 := rng1.Float64(), rng2.Float64()
		if v1 != v2 {
			t.Fatalf("same seed diverged at draw %d: %f != %f", i, v1, v2)
		}
	}
}

func TestRandSourceUniformFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 1000; i++ {
		val := rng.UniformFloat64(2.0, 8.0)
		if val < 2.0 || val >= 8.0 {
			t.Errorf("UniformFloat64(2, 8) returned value outside [2, 8): %f", val)
		}
	}
}

func TestRandSourceLogUniformFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	lo, hi := 0.001, 1000.0
	belowOne := 0
	for i := 0; i < 2000; i++ {
		val := rng.LogUniformFloat64(lo, hi)
		if val < lo || val >= hi {
			t.Errorf("LogUniformFloat64 returned value outside bounds: %f", val)
		}
		if val < 1.0 {
			belowOne++
		}
	}

	// Log-uniform over [1e-3, 1e3] puts half the mass below 1.
	frac := float64(belowOne) / 2000.0
	if math.Abs(frac-0.5) > 0.05 {
		t.Errorf("expected ~50%% of log-uniform draws below 1, got %.1f%%", frac*100)
	}
}

func TestRandSourceIntn(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Intn(10)
		if val < 0 || val >= 10 {
			t.Errorf("Intn(10) returned value outside [0, 10): %d", val)
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("Mean = %f, want 2.5", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %f, want 0", got)
	}
}

func TestStdDev(t *testing.T) {
	got := StdDev([]float64{2, 2, 2})
	if got != 0 {
		t.Errorf("StdDev of constant slice = %f, want 0", got)
	}

	got = StdDev([]float64{1, 3})
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("StdDev([1,3]) = %f, want 1", got)
	}
}

func TestClampFloat64(t *testing.T) {
	cases := []struct {
		val, min, max, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, c := range cases {
		if got := ClampFloat64(c.val, c.min, c.max); got != c.want {
			t.Errorf("ClampFloat64(%f, %f, %f) = %f, want %f", c.val, c.min, c.max, got, c.want)
		}
	}
}

func TestNormCDF(t *testing.T) {
	if got := NormCDF(0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("NormCDF(0) = %f, want 0.5", got)
	}
	if got := NormCDF(10); got < 0.999 {
		t.Errorf("NormCDF(10) = %f, want ~1", got)
	}
}
