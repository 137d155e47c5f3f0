package sim

import (
	"math"
	"time"

	"github.com/felixge/pidctrl"
	"github.com/go-gl/mathgl/mgl64"
)

// Gains configures the simulated controller's position loop. Units follow
// the encoder: error in rotations, output as a duty-cycle fraction.
type Gains struct {
	P         float64 `json:"p" yaml:"p"`
	I         float64 `json:"i" yaml:"i"`
	D         float64 `json:"d" yaml:"d"`
	MinOutput float64 `json:"min_output" yaml:"min_output"`
	MaxOutput float64 `json:"max_output" yaml:"max_output"`
}

// DefaultGains is the reference arm tuning.
func DefaultGains() Gains {
	return Gains{P: 0.1, MinOutput: -0.5, MaxOutput: 0.5}
}

type controlMode int

const (
	dutyCycleMode controlMode = iota
	positionMode
)

// MotorController mimics a smart motor controller: it holds a duty-cycle or
// position reference, integrates its own encoder from the velocity it is
// fed, and recomputes the applied output on every Iterate.
type MotorController struct {
	pid   *pidctrl.PIDController
	gains Gains

	mode      controlMode
	dutyCycle float64
	reference float64

	position float64 // rotations
	velocity float64 // rpm
	applied  float64
	bus      float64
}

// NewMotorController returns a controller in duty-cycle mode at zero output.
func NewMotorController(g Gains) *MotorController {
	if g.MinOutput == 0 && g.MaxOutput == 0 {
		g.MinOutput, g.MaxOutput = -1, 1
	}
	g.MinOutput = mgl64.Clamp(g.MinOutput, -1, 1)
	g.MaxOutput = mgl64.Clamp(g.MaxOutput, g.MinOutput, 1)

	pid := pidctrl.NewPIDController(g.P, g.I, g.D)
	pid.SetOutputLimits(g.MinOutput, g.MaxOutput)
	return &MotorController{pid: pid, gains: g}
}

// SetDutyCycle switches to open-loop output p in [-1, 1]. The applied
// output follows immediately.
func (c *MotorController) SetDutyCycle(p float64) {
	if math.IsNaN(p) {
		p = 0
	}
	c.mode = dutyCycleMode
	c.dutyCycle = mgl64.Clamp(p, -1, 1)
	c.applied = c.dutyCycle
}

// SetPositionReference switches to closed-loop position control. A NaN or
// infinite reference is ignored and the previous one kept.
func (c *MotorController) SetPositionReference(rotations float64) {
	if math.IsNaN(rotations) || math.IsInf(rotations, 0) {
		return
	}
	c.mode = positionMode
	if c.reference != rotations {
		c.reference = rotations
		c.pid.Set(rotations)
	}
}

// Reference returns the active position reference.
func (c *MotorController) Reference() float64 {
	return c.reference
}

// SetPosition overwrites the encoder reading.
func (c *MotorController) SetPosition(rotations float64) {
	c.position = rotations
}

// Position returns the encoder position in rotations.
func (c *MotorController) Position() float64 {
	return c.position
}

// Velocity returns the encoder velocity in rpm.
func (c *MotorController) Velocity() float64 {
	return c.velocity
}

// AppliedOutput returns the output fraction computed on the last Iterate.
func (c *MotorController) AppliedOutput() float64 {
	return c.applied
}

// BusVoltage returns the supply voltage seen on the last Iterate.
func (c *MotorController) BusVoltage() float64 {
	return c.bus
}

// Iterate feeds the controller one timestep of motor velocity (rpm) and
// supply voltage, then runs the control law.
func (c *MotorController) Iterate(velocityRPM, busVoltage float64, dt time.Duration) {
	if dt <= 0 {
		return
	}
	c.velocity = velocityRPM
	c.bus = busVoltage
	c.position += velocityRPM / 60 * dt.Seconds()

	switch c.mode {
	case positionMode:
		c.applied = c.pid.UpdateDuration(c.position, dt)
	default:
		c.applied = c.dutyCycle
	}
}
