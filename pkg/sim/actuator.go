package sim

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gwillem/algae/pkg/intake"
)

var (
	_ intake.Actuator  = (*Actuator)(nil)
	_ intake.Simulator = (*Actuator)(nil)
)

// Actuator is the simulation backend for the intake. The pivot runs through
// a simulated motor controller whose output drives the arm model; the
// roller has no model and reports its commanded output.
type Actuator struct {
	params Params
	arm    *Arm
	pivot  *MotorController
	roller *MotorController
	mech   *Mechanism

	battery float64
}

// NewActuator builds the simulated arm + roller pair.
func NewActuator(p Params, g Gains) *Actuator {
	if p.Gearing == 0 {
		p.Gearing = 1
	}
	if p.BatteryVoltage <= 0 {
		p.BatteryVoltage = DefaultBatteryVoltage
	}
	return &Actuator{
		params:  p,
		arm:     NewArm(NeoVortex(p.Motors), p.ArmConfig()),
		pivot:   NewMotorController(g),
		roller:  NewMotorController(Gains{}),
		mech:    NewMechanism(p),
		battery: p.BatteryVoltage,
	}
}

// SetOpenLoopPower implements intake.Actuator.
func (a *Actuator) SetOpenLoopPower(p float64) {
	a.roller.SetDutyCycle(intake.ClampPower(p))
}

// SetClosedLoopPosition implements intake.Actuator.
func (a *Actuator) SetClosedLoopPosition(target float64) {
	a.pivot.SetPositionReference(target)
}

// Position implements intake.Actuator.
func (a *Actuator) Position() float64 {
	return a.pivot.Position()
}

// AppliedOutput implements intake.Actuator.
func (a *Actuator) AppliedOutput() float64 {
	return a.roller.AppliedOutput()
}

// ZeroPosition implements intake.Actuator.
func (a *Actuator) ZeroPosition() {
	a.pivot.SetPosition(0)
}

// ArmOutput is the pivot controller's applied output.
func (a *Actuator) ArmOutput() float64 {
	return a.pivot.AppliedOutput()
}

// Arm exposes the physics model.
func (a *Actuator) Arm() *Arm {
	return a.arm
}

// Mechanism returns the side view, updated on each Step.
func (a *Actuator) Mechanism() *Mechanism {
	return a.mech
}

// SetBatteryVoltage sets the supply used to turn duty cycle into volts.
func (a *Actuator) SetBatteryVoltage(v float64) {
	a.battery = mgl64.Clamp(v, 0, a.params.BatteryVoltage)
}

// BatteryVoltage returns the current supply voltage.
func (a *Actuator) BatteryVoltage() float64 {
	return a.battery
}

// Step implements intake.Simulator.
func (a *Actuator) Step(dt time.Duration) {
	a.arm.SetInputVoltage(a.pivot.AppliedOutput() * a.battery)
	a.arm.Update(dt)

	rpm := RadPerSecToRPM(a.arm.Velocity() * a.params.Gearing)
	a.pivot.Iterate(rpm, a.battery, dt)
	a.mech.SetPivotAngle(a.VisualAngle())
}

// CurrentDraw implements intake.Simulator.
func (a *Actuator) CurrentDraw() float64 {
	return a.arm.CurrentDraw()
}

// VisualAngle implements intake.Simulator. It derives the arm angle from the
// encoder, so a re-zero away from the stop shows up as an offset.
func (a *Actuator) VisualAngle() float64 {
	return a.params.MinAngleDeg + a.pivot.Position()/a.params.Gearing*360
}
