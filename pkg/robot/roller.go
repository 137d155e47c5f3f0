package robot

import (
	"fmt"
	"math"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/gwillem/algae/pkg/intake"
)

// pwmPin and digitalPin are satisfied by rpio.Pin.
type pwmPin interface {
	DutyCycle(dutyLen, cycleLen uint32)
}

type digitalPin interface {
	High()
	Low()
}

// Cycle length of the roller PWM; the duty resolution.
const rollerCycle = 1024

// IntakeRoller drives the roller through an H-bridge: a PWM pin for
// magnitude and a direction pin for sign.
type IntakeRoller struct {
	pwm      pwmPin
	dir      digitalPin
	cycle    uint32
	inverted bool
	applied  float64
	gpio     bool
}

// NewIntakeRoller maps the GPIO registers and configures the pins.
func NewIntakeRoller(cfg RollerConfig) (*IntakeRoller, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	pwm := rpio.Pin(cfg.PWMPin)
	pwm.Mode(rpio.Pwm)
	pwm.Freq(cfg.FrequencyHz * rollerCycle)

	dir := rpio.Pin(cfg.DirPin)
	dir.Output()

	r := newIntakeRoller(pwm, dir, cfg.Inverted)
	r.gpio = true
	r.SetPower(0)
	return r, nil
}

func newIntakeRoller(pwm pwmPin, dir digitalPin, inverted bool) *IntakeRoller {
	return &IntakeRoller{pwm: pwm, dir: dir, cycle: rollerCycle, inverted: inverted}
}

// SetPower sets the roller output fraction, clamped to [-1, 1].
func (r *IntakeRoller) SetPower(p float64) {
	p = intake.ClampPower(p)
	out := p
	if r.inverted {
		out = -out
	}

	if out < 0 {
		r.dir.Low()
	} else {
		r.dir.High()
	}
	duty := uint32(math.Round(math.Abs(out) * float64(r.cycle)))
	r.pwm.DutyCycle(duty, r.cycle)
	r.applied = p
}

// AppliedOutput returns the output last written to the pins.
func (r *IntakeRoller) AppliedOutput() float64 {
	return r.applied
}

// Close stops the roller and releases the GPIO mapping.
func (r *IntakeRoller) Close() error {
	r.SetPower(0)
	if !r.gpio {
		return nil
	}
	return rpio.Close()
}
