package envelope

import (
	"math"
	"testing"
)

const sentinel = 1e8

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCalcVolRegionBoundaries(t *testing.T) {
	a := New(10, 20, 0.5, 10)

	if v := a.CalcVol(0, sentinel); v != 0 {
		t.Fatalf("calc_vol(0, inf) = %v, want 0", v)
	}
	if v := a.CalcVol(10, sentinel); !almostEqual(v, 1, 1e-9) {
		t.Fatalf("calc_vol(attack, inf) = %v, want 1", v)
	}
	if v := a.CalcVol(30, sentinel); !almostEqual(v, 0.5, 1e-9) {
		t.Fatalf("calc_vol(attack+decay, inf) = %v, want sustain 0.5", v)
	}
	if v := a.CalcVol(1000, sentinel); !almostEqual(v, 0.5, 1e-9) {
		t.Fatalf("calc_vol deep in sustain = %v, want 0.5", v)
	}
}

func TestCalcVolStaysInUnitRange(t *testing.T) {
	a := New(10, 20, 0.5, 10)
	for t0 := 0.0; t0 <= 100; t0 += 0.5 {
		v := a.CalcVol(t0, sentinel)
		if v < -1e-9 || v > 1+1e-9 {
			t.Fatalf("calc_vol(%v, inf) = %v out of [0,1]", t0, v)
		}
	}
}

func TestCalcVolAtReleaseEqualsZeroThenDoneAfterRelease(t *testing.T) {
	a := New(10, 20, 0.5, 10)
	if v := a.CalcVol(60, 40); v != 0 {
		t.Fatalf("calc_vol(60, 40) = %v, want 0 well after release finished", v)
	}
	if !a.IsDone(51, 40) {
		t.Fatalf("expected IsDone at t=51 for release ending at 50")
	}
	if a.IsDone(45, 40) {
		t.Fatalf("expected not done while still inside release window")
	}
}

func TestFastReleaseUpdateContinuity(t *testing.T) {
	a := New(10, 20, 0.5, 10)
	held := a.CalcVol(15, sentinel)
	a.FastReleaseUpdate(held)
	got := a.CalcVol(15, 15)
	if !almostEqual(got, held, 1e-9) {
		t.Fatalf("calc_vol at release instant = %v, want held value %v", got, held)
	}
}

func TestReleaseDuringAttackTakesPrecedenceOverAttackFormula(t *testing.T) {
	a := New(10, 20, 0.5, 10)
	// Release fires at t=3, while still nominally inside the 10ms attack window.
	held := a.CalcVol(3, sentinel)
	a.FastReleaseUpdate(held)
	// Evaluating at t=7 (< attack=10) must use the release ramp, not the attack ramp.
	got := a.CalcVol(7, 3)
	want := held + a.rSlope*(7-3)
	if !almostEqual(got, want, 1e-9) {
		t.Fatalf("calc_vol(7,3) = %v, want release-ramp value %v", got, want)
	}
}

func TestIsDoneBoundary(t *testing.T) {
	a := New(10, 20, 0.5, 10)
	if a.IsDone(50, 40) {
		t.Fatalf("t == releaseTime+release should not yet be done")
	}
	if !a.IsDone(50.0001, 40) {
		t.Fatalf("t just past releaseTime+release should be done")
	}
}

func TestRecalcAfterMutation(t *testing.T) {
	a := New(10, 20, 0.5, 10)
	a.SetAttack(5)
	if v := a.CalcVol(5, sentinel); !almostEqual(v, 1, 1e-9) {
		t.Fatalf("after SetAttack(5), calc_vol(5, inf) = %v, want 1", v)
	}
}

func TestSetSustainDoesNotRetroactivelyMoveReleaseStart(t *testing.T) {
	a := New(10, 20, 0.5, 10)
	// Let the envelope fully settle into the original sustain level.
	settled := a.CalcVol(100, sentinel)
	if !almostEqual(settled, 0.5, 1e-9) {
		t.Fatalf("expected settled sustain 0.5, got %v", settled)
	}
	a.SetSustain(0.9)
	// rVal is still bound to the original sustain (0.5) until a real
	// release happens and calls FastReleaseUpdate.
	got := a.CalcVol(0, 0)
	if !almostEqual(got, 0.5, 1e-9) {
		t.Fatalf("calc_vol at immediate release = %v, want old rVal 0.5", got)
	}
}

func TestInstantDurationsSuppressSlope(t *testing.T) {
	a := New(0, 0, 1, 0)
	// Instant attack and decay leave no ramp to evaluate: the level goes
	// straight to sustain (1) rather than through a divided-by-zero slope.
	if v := a.CalcVol(0.0001, sentinel); v != 1 {
		t.Fatalf("expected instant attack/decay to land directly on sustain 1, got %v", v)
	}
}
