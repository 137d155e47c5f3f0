package intake

import (
	"log/slog"
	"time"

	"github.com/gwillem/algae/internal/log"
)

// DefaultPeriod is the scheduler tick the physics model is stepped by.
const DefaultPeriod = 20 * time.Millisecond

// Subsystem ties the mode machine to an actuator. It is driven from a single
// control loop: Periodic and the mode requests must come from the same
// goroutine, and nothing here locks.
type Subsystem struct {
	act       Actuator
	sim       Simulator
	telemetry Telemetry
	modes     *StateMachine
	idle      Mode
	calibrate EdgeLatch
	period    time.Duration
	log       *slog.Logger
}

// Option configures a Subsystem.
type Option func(*Subsystem)

// WithTelemetry sets the sink readings are published to.
func WithTelemetry(t Telemetry) Option {
	return func(s *Subsystem) {
		if t != nil {
			s.telemetry = t
		}
	}
}

// WithPeriod overrides the simulation timestep.
func WithPeriod(d time.Duration) Option {
	return func(s *Subsystem) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithLogger sets the logger used for calibration and mode events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Subsystem) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSubsystem builds the intake around act and zeroes the arm encoder.
// If act also implements Simulator, Periodic steps it.
func NewSubsystem(act Actuator, table SetpointTable, opts ...Option) *Subsystem {
	s := &Subsystem{
		act:       act,
		telemetry: Discard,
		modes:     NewStateMachine(table),
		idle:      Stow,
		period:    DefaultPeriod,
	}
	if sim, ok := act.(Simulator); ok {
		s.sim = sim
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = log.With("subsystem", "algae")
	}

	act.ZeroPosition()
	return s
}

// RequestMode switches to m and immediately issues its setpoints.
func (s *Subsystem) RequestMode(m Mode) {
	prev := s.modes.Mode()
	s.modes.Request(m)
	switch s.modes.Mode() {
	case RunIntake, Hold:
		s.idle = Hold
	case ReverseIntake, Stow:
		s.idle = Stow
	}
	if prev != s.modes.Mode() {
		s.log.Debug("mode change", "from", prev, "to", s.modes.Mode())
	}
	s.apply()
}

// Idle falls back to the resting mode: Hold after intaking, Stow otherwise.
func (s *Subsystem) Idle() {
	s.RequestMode(s.idle)
}

// Mode returns the active mode.
func (s *Subsystem) Mode() Mode {
	return s.modes.Mode()
}

// IdleMode returns the mode Idle would select.
func (s *Subsystem) IdleMode() Mode {
	return s.idle
}

// CurrentSetpoints returns the setpoints for the active mode.
func (s *Subsystem) CurrentSetpoints() Setpoints {
	return s.modes.Setpoints()
}

// Simulated reports whether the actuator is a physics model.
func (s *Subsystem) Simulated() bool {
	return s.sim != nil
}

// CurrentDraw returns the simulated arm current in amps, or 0 on hardware.
func (s *Subsystem) CurrentDraw() float64 {
	if s.sim == nil {
		return 0
	}
	return s.sim.CurrentDraw()
}

// Periodic runs one tick. calibrationPressed is the sampled state of the
// manual zero button; the encoder is zeroed only on its rising edge.
func (s *Subsystem) Periodic(calibrationPressed bool) Reading {
	zeroed := s.calibrate.Sample(calibrationPressed)
	if zeroed {
		s.act.ZeroPosition()
		s.log.Info("arm encoder zeroed")
	}

	s.apply()

	r := Reading{
		ArmPosition:   s.act.Position(),
		AppliedOutput: s.act.AppliedOutput(),
		Zeroed:        zeroed,
	}
	s.telemetry.PutNumber(KeyArmPosition, r.ArmPosition)
	s.telemetry.PutNumber(KeyAppliedOutput, r.AppliedOutput)
	s.telemetry.PutNumber(KeyMode, float64(s.modes.Mode()))

	if s.sim != nil {
		s.telemetry.PutNumber(KeyVisualAngle, s.sim.VisualAngle())
		s.sim.Step(s.period)
		s.telemetry.PutNumber(KeyCurrentDraw, s.sim.CurrentDraw())
	}
	return r
}

func (s *Subsystem) apply() {
	sp := s.modes.Setpoints()
	s.act.SetOpenLoopPower(sp.RollerPower)
	s.act.SetClosedLoopPosition(sp.ArmPosition)
}
