package robot

import (
	"math"
	"testing"
)

func TestPivotCalibration_ToRotations(t *testing.T) {
	cal := PivotCalibration{
		HomingOffset:     1000,
		StepsPerRotation: 4096,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{1000, 0},     // offset -> 0
		{5096, 1},     // one turn
		{3048, 0.5},   // half turn
		{-24, -0.25},  // quarter turn back
		{2024, 0.25},  // quarter turn
	}

	for _, tt := range tests {
		got := cal.ToRotations(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("ToRotations(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestPivotCalibration_FromRotations(t *testing.T) {
	cal := PivotCalibration{
		HomingOffset:     1000,
		StepsPerRotation: 4096,
		RangeMin:         500,
		RangeMax:         3500,
	}

	tests := []struct {
		rot      float64
		expected int
	}{
		{0, 1000},
		{0.5, 3048},
		{-0.1, 590},
		{1, 3500},   // clamped to max
		{-1, 500},   // clamped to min
	}

	for _, tt := range tests {
		got := cal.FromRotations(tt.rot)
		if got != tt.expected {
			t.Errorf("FromRotations(%f) = %d, want %d", tt.rot, got, tt.expected)
		}
	}
}

func TestPivotCalibration_Inverted(t *testing.T) {
	cal := PivotCalibration{
		Inverted:         true,
		HomingOffset:     2048,
		StepsPerRotation: 4096,
	}

	if got := cal.ToRotations(1024); math.Abs(got-0.25) > 0.001 {
		t.Errorf("ToRotations(1024) = %f, want 0.25", got)
	}
	if got := cal.FromRotations(0.25); got != 1024 {
		t.Errorf("FromRotations(0.25) = %d, want 1024", got)
	}
}

func TestPivotCalibration_RoundTrip(t *testing.T) {
	cal := DefaultPivotCalibration()
	cal.HomingOffset = 823

	// Test round-trip: raw -> rotations -> raw
	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 100 {
		rot := cal.ToRotations(raw)
		back := cal.FromRotations(rot)
		if back != raw {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, rot, back)
		}
	}
}

func TestPivotCalibration_Rezero(t *testing.T) {
	cal := DefaultPivotCalibration()
	cal.Rezero(1234)
	if got := cal.ToRotations(1234); got != 0 {
		t.Errorf("ToRotations at new zero = %f, want 0", got)
	}
}

func TestPivotCalibration_Reduction(t *testing.T) {
	cal := PivotCalibration{
		HomingOffset:     2048,
		StepsPerRotation: 4096,
		Reduction:        135,
	}

	// 135 motor rotations turn the servo shaft once.
	if got := cal.FromRotations(33.75); got != 3072 {
		t.Errorf("FromRotations(33.75) = %d, want 3072", got)
	}
	if got := cal.ToRotations(3072); math.Abs(got-33.75) > 1e-9 {
		t.Errorf("ToRotations(3072) = %f, want 33.75", got)
	}

	def := DefaultPivotCalibration()
	if def.Reduction != DefaultConfig().Sim.Gearing {
		t.Errorf("default reduction %v differs from sim gearing %v", def.Reduction, DefaultConfig().Sim.Gearing)
	}
}
