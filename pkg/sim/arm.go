package sim

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const gravity = 9.8

// maxSubstep bounds the RK4 step. The arm's electrical pole sits around
// -300 1/s, which a single 20 ms step would not integrate stably.
const maxSubstep = time.Millisecond

// ArmConfig describes a single rigid arm rotating about one end.
type ArmConfig struct {
	Gearing         float64 // motor rotations per arm rotation
	MOI             float64 // kg·m²
	Length          float64 // m
	MinAngle        float64 // rad
	MaxAngle        float64 // rad
	SimulateGravity bool
	StartingAngle   float64 // rad
}

// EstimateMOI treats the arm as a uniform rod pivoting at one end.
func EstimateMOI(length, mass float64) float64 {
	return mass * length * length / 3
}

// Arm is a single-jointed arm model. Angle 0 is horizontal; travel is
// clamped to [MinAngle, MaxAngle] with an inelastic stop at either end.
type Arm struct {
	motor DCMotor
	cfg   ArmConfig

	angle    float64
	velocity float64
	input    float64
}

// NewArm returns an arm at rest at cfg.StartingAngle (clamped into range).
func NewArm(motor DCMotor, cfg ArmConfig) *Arm {
	return &Arm{
		motor: motor,
		cfg:   cfg,
		angle: mgl64.Clamp(cfg.StartingAngle, cfg.MinAngle, cfg.MaxAngle),
	}
}

// SetInputVoltage sets the motor voltage, clamped to the motor's nominal
// voltage either way.
func (a *Arm) SetInputVoltage(v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	a.input = mgl64.Clamp(v, -a.motor.NominalVoltage, a.motor.NominalVoltage)
}

// Input returns the clamped input voltage.
func (a *Arm) Input() float64 {
	return a.input
}

// Angle returns the arm angle in radians.
func (a *Arm) Angle() float64 {
	return a.angle
}

// Velocity returns the arm angular velocity in rad/s.
func (a *Arm) Velocity() float64 {
	return a.velocity
}

// SetState places the arm, for tests and resets.
func (a *Arm) SetState(angle, velocity float64) {
	a.angle = mgl64.Clamp(angle, a.cfg.MinAngle, a.cfg.MaxAngle)
	a.velocity = velocity
	a.stop()
}

// AtLowerLimit reports whether the arm rests on its minimum stop.
func (a *Arm) AtLowerLimit() bool {
	return a.angle <= a.cfg.MinAngle
}

// AtUpperLimit reports whether the arm rests on its maximum stop.
func (a *Arm) AtUpperLimit() bool {
	return a.angle >= a.cfg.MaxAngle
}

// CurrentDraw returns the motor current in amps, signed like the input.
func (a *Arm) CurrentDraw() float64 {
	return a.motor.Current(a.velocity*a.cfg.Gearing, a.input) * sign(a.input)
}

// Update advances the model by dt.
func (a *Arm) Update(dt time.Duration) {
	for dt > 0 {
		h := min(dt, maxSubstep)
		a.step(h.Seconds())
		dt -= h
	}
}

func (a *Arm) step(h float64) {
	th, w := a.angle, a.velocity

	k1t, k1w := a.derivative(th, w)
	k2t, k2w := a.derivative(th+h/2*k1t, w+h/2*k1w)
	k3t, k3w := a.derivative(th+h/2*k2t, w+h/2*k2w)
	k4t, k4w := a.derivative(th+h*k3t, w+h*k3w)

	a.angle = th + h/6*(k1t+2*k2t+2*k3t+k4t)
	a.velocity = w + h/6*(k1w+2*k2w+2*k3w+k4w)
	a.stop()
}

// stop applies the hard limits.
func (a *Arm) stop() {
	switch {
	case a.angle <= a.cfg.MinAngle:
		a.angle = a.cfg.MinAngle
		a.velocity = 0
	case a.angle >= a.cfg.MaxAngle:
		a.angle = a.cfg.MaxAngle
		a.velocity = 0
	}
}

func (a *Arm) derivative(theta, omega float64) (dTheta, dOmega float64) {
	m := a.motor
	g := a.cfg.Gearing
	j := a.cfg.MOI

	dOmega = -g*g*m.Kt/(m.Kv*m.R*j)*omega + g*m.Kt/(m.R*j)*a.input
	if a.cfg.SimulateGravity && a.cfg.Length > 0 {
		dOmega -= 1.5 * gravity * math.Cos(theta) / a.cfg.Length
	}
	return omega, dOmega
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
