package tourgraph

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestDegreeRadianRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 10, 30, 45, 89.999, 90, -90, 179.5, 180, -180, 270, 359.99, 360, -360, 0.0001, 1234.5678}
	for _, v := range values {
		got := ToDegrees(ToRadians(v))
		if math.Abs(got-v) > eps {
			t.Errorf("ToDegrees(ToRadians(%v)) = %v, want %v", v, got, v)
		}
	}
}

func TestRepeatedRoundTripDoesNotDrift(t *testing.T) {
	v := 37.25
	got := v
	for i := 0; i < 1000; i++ {
		got = ToDegrees(ToRadians(got))
	}
	if math.Abs(got-v) > eps {
		t.Errorf("after 1000 round trips got %v, want %v", got, v)
	}
}

func TestToRadiansKnownValues(t *testing.T) {
	tests := []struct {
		deg, rad float64
	}{
		{0, 0},
		{90, math.Pi / 2},
		{180, math.Pi},
		{-90, -math.Pi / 2},
		{360, 2 * math.Pi},
	}
	for _, tt := range tests {
		if got := ToRadians(tt.deg); math.Abs(got-tt.rad) > eps {
			t.Errorf("ToRadians(%v) = %v, want %v", tt.deg, got, tt.rad)
		}
	}
}

func TestViewerPositionAddsInitialYaw(t *testing.T) {
	pos := ViewerPosition(10, 5, 30)

	if math.Abs(pos.Yaw-ToRadians(40)) > eps {
		t.Errorf("yaw = %v, want radians(40) = %v", pos.Yaw, ToRadians(40))
	}
	if math.Abs(pos.Yaw-ToRadians(10)) < eps {
		t.Error("yaw must include the sphere's initial yaw")
	}
	if math.Abs(pos.Pitch-ToRadians(5)) > eps {
		t.Errorf("pitch = %v, want radians(5)", pos.Pitch)
	}
}

func TestViewerPositionPitchIgnoresInitialYaw(t *testing.T) {
	a := ViewerPosition(0, -20, 0)
	b := ViewerPosition(0, -20, 135)
	if a.Pitch != b.Pitch {
		t.Errorf("pitch changed with initial yaw: %v vs %v", a.Pitch, b.Pitch)
	}
}
