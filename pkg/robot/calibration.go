package robot

import (
	"math"

	"github.com/gwillem/algae/pkg/sim"
)

// DefaultStepsPerRotation is the resolution of an STS-series servo.
const DefaultStepsPerRotation = 4096

// PivotCalibration maps raw servo steps to pivot rotations. Setpoints are
// in motor rotations ahead of the intake gearbox; Reduction is how many of
// those make one turn of the servo shaft.
type PivotCalibration struct {
	ID               int     `json:"id" yaml:"id" env:"ALGAE_SERVO_ID"`
	Inverted         bool    `json:"inverted" yaml:"inverted"`
	HomingOffset     int     `json:"homing_offset" yaml:"homing_offset"`
	StepsPerRotation int     `json:"steps_per_rotation" yaml:"steps_per_rotation"`
	Reduction        float64 `json:"reduction" yaml:"reduction"`
	RangeMin         int     `json:"range_min" yaml:"range_min"`
	RangeMax         int     `json:"range_max" yaml:"range_max"`
}

// DefaultPivotCalibration covers the full single-turn range of servo 1,
// geared like the simulated arm.
func DefaultPivotCalibration() PivotCalibration {
	return PivotCalibration{
		ID:               1,
		StepsPerRotation: DefaultStepsPerRotation,
		Reduction:        sim.DefaultParams().Gearing,
		RangeMin:         0,
		RangeMax:         DefaultStepsPerRotation - 1,
	}
}

func (c PivotCalibration) steps() float64 {
	if c.StepsPerRotation <= 0 {
		return DefaultStepsPerRotation
	}
	return float64(c.StepsPerRotation)
}

func (c PivotCalibration) reduction() float64 {
	if c.Reduction <= 0 {
		return 1
	}
	return c.Reduction
}

// ToRotations converts a raw servo position to rotations from the homing
// offset.
func (c PivotCalibration) ToRotations(raw int) float64 {
	rot := float64(raw-c.HomingOffset) / c.steps() * c.reduction()
	if c.Inverted {
		return -rot
	}
	return rot
}

// FromRotations converts rotations from the homing offset to a raw servo
// position, clamped to the calibrated range.
func (c PivotCalibration) FromRotations(rot float64) int {
	if c.Inverted {
		rot = -rot
	}
	raw := int(math.Round(rot/c.reduction()*c.steps())) + c.HomingOffset
	if c.RangeMax > c.RangeMin {
		raw = max(c.RangeMin, min(raw, c.RangeMax))
	}
	return raw
}

// Rezero makes raw the new zero.
func (c *PivotCalibration) Rezero(raw int) {
	c.HomingOffset = raw
}
