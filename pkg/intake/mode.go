// Package intake implements the algae intake: a pivoting arm held at a
// position setpoint and a roller driven at an open-loop power, selected by a
// four-state mode machine.
package intake

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Mode is the operator's intent for the intake.
type Mode int

const (
	Stow Mode = iota
	RunIntake
	ReverseIntake
	Hold

	numModes
)

// AllModes returns every mode in declaration order.
func AllModes() []Mode {
	return []Mode{Stow, RunIntake, ReverseIntake, Hold}
}

var modeNames = [numModes]string{
	Stow:          "stow",
	RunIntake:     "run-intake",
	ReverseIntake: "reverse-intake",
	Hold:          "hold",
}

func (m Mode) String() string {
	if m < 0 || m >= numModes {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the four declared modes.
func (m Mode) Valid() bool {
	return m >= 0 && m < numModes
}

// ErrUnknownMode is returned by ParseMode for names it does not recognise.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode accepts the String form of a mode, case-insensitively. Underscores
// are treated as dashes so config files can use either.
func ParseMode(s string) (Mode, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}
	return Stow, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Setpoints is what a mode commands: roller power in [-1, 1] and arm
// position in encoder rotations.
type Setpoints struct {
	RollerPower float64 `json:"roller_power" yaml:"roller_power"`
	ArmPosition float64 `json:"arm_position" yaml:"arm_position"`
}

// SetpointTable maps every mode to its setpoints. Being an array indexed by
// Mode it cannot be partial.
type SetpointTable [numModes]Setpoints

// DefaultSetpoints returns the table for the reference robot.
func DefaultSetpoints() SetpointTable {
	var t SetpointTable
	t[RunIntake] = Setpoints{RollerPower: 0.5, ArmPosition: 0}
	t[ReverseIntake] = Setpoints{RollerPower: -0.5, ArmPosition: 11.5}
	t[Hold] = Setpoints{RollerPower: 0.25, ArmPosition: 11.5}
	t[Stow] = Setpoints{RollerPower: 0, ArmPosition: 18.5}
	return t
}

// Lookup returns the setpoints for m. Out-of-range modes resolve to Stow.
func (t *SetpointTable) Lookup(m Mode) Setpoints {
	if !m.Valid() {
		m = Stow
	}
	return t[m]
}

// ErrRollerPowerRange is reported for table entries outside [-1, 1].
var ErrRollerPowerRange = errors.New("roller power out of range [-1, 1]")

// ErrArmPositionNotFinite is reported for NaN or infinite arm positions.
var ErrArmPositionNotFinite = errors.New("arm position must be finite")

// Validate checks that every roller power is a usable open-loop fraction
// and every arm position is a finite number.
func (t *SetpointTable) Validate() error {
	for _, m := range AllModes() {
		p := t[m].RollerPower
		if math.IsNaN(p) || p < -1 || p > 1 {
			return fmt.Errorf("%s: %w (got %v)", m, ErrRollerPowerRange, p)
		}
		if pos := t[m].ArmPosition; math.IsNaN(pos) || math.IsInf(pos, 0) {
			return fmt.Errorf("%s: %w (got %v)", m, ErrArmPositionNotFinite, pos)
		}
	}
	return nil
}

// StateMachine holds the active mode. Requests overwrite; the last one
// before a tick is the one that tick acts on.
type StateMachine struct {
	table SetpointTable
	mode  Mode
}

// NewStateMachine returns a machine starting in Stow.
func NewStateMachine(table SetpointTable) *StateMachine {
	return &StateMachine{table: table, mode: Stow}
}

// Request makes m the active mode. Every mode is reachable from every other.
func (s *StateMachine) Request(m Mode) {
	if !m.Valid() {
		m = Stow
	}
	s.mode = m
}

// Mode returns the active mode.
func (s *StateMachine) Mode() Mode {
	return s.mode
}

// Setpoints returns the table entry for the active mode.
func (s *StateMachine) Setpoints() Setpoints {
	return s.table.Lookup(s.mode)
}

// Table returns a copy of the setpoint table.
func (s *StateMachine) Table() SetpointTable {
	return s.table
}
