// Package sim is the physics stand-in for the intake hardware: a DC motor
// model, a single-jointed arm driven by it, a simulated motor controller
// closing the position loop, and an Actuator tying them together.
package sim

import "math"

// DCMotor is a brushed/brushless DC motor characterised by its datasheet
// curve. Speeds are in rad/s, torques in N·m.
type DCMotor struct {
	NominalVoltage float64
	StallTorque    float64
	StallCurrent   float64
	FreeCurrent    float64
	FreeSpeed      float64

	R  float64 // winding resistance, ohms
	Kv float64 // rad/s per volt
	Kt float64 // N·m per amp
}

// NewDCMotor builds a gearbox of n identical motors.
func NewDCMotor(nominalVoltage, stallTorque, stallCurrent, freeCurrent, freeSpeed float64, n int) DCMotor {
	if n < 1 {
		n = 1
	}
	m := DCMotor{
		NominalVoltage: nominalVoltage,
		StallTorque:    stallTorque * float64(n),
		StallCurrent:   stallCurrent * float64(n),
		FreeCurrent:    freeCurrent * float64(n),
		FreeSpeed:      freeSpeed,
	}
	m.R = m.NominalVoltage / m.StallCurrent
	m.Kv = m.FreeSpeed / (m.NominalVoltage - m.R*m.FreeCurrent)
	m.Kt = m.StallTorque / m.StallCurrent
	return m
}

// NeoVortex returns n REV NEO Vortex motors.
func NeoVortex(n int) DCMotor {
	return NewDCMotor(12, 3.6, 211, 3.6, RPMToRadPerSec(6784), n)
}

// Current is the draw in amps at the given rotor speed and terminal voltage.
func (m DCMotor) Current(speed, voltage float64) float64 {
	return -1/m.Kv/m.R*speed + voltage/m.R
}

// Torque is the output torque for a given current.
func (m DCMotor) Torque(current float64) float64 {
	return m.Kt * current
}

// RPMToRadPerSec converts rotations per minute to rad/s.
func RPMToRadPerSec(rpm float64) float64 {
	return rpm * 2 * math.Pi / 60
}

// RadPerSecToRPM converts rad/s to rotations per minute.
func RadPerSecToRPM(w float64) float64 {
	return w * 60 / (2 * math.Pi)
}
