// Package robot connects the intake to its hardware: the pivot servo on a
// Feetech bus, the roller on a Raspberry Pi PWM channel, and the config
// that describes both.
package robot

// MotorName identifies a motor in the intake.
type MotorName string

// Motor names for the algae intake.
const (
	Pivot  MotorName = "pivot"
	Roller MotorName = "roller"
)
