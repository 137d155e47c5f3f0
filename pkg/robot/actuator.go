package robot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gwillem/algae/internal/log"
	"github.com/gwillem/algae/pkg/intake"
)

var _ intake.Actuator = (*Actuator)(nil)

// errorLogInterval rate-limits repeated bus errors.
const errorLogInterval = 5 * time.Second

// Actuator is the hardware backend for the intake. Bus faults are logged
// and absorbed: reads fall back to the last known value and writes are
// retried by the next tick's re-issue.
type Actuator struct {
	arm     *Arm
	roller  *IntakeRoller
	timeout time.Duration
	log     *slog.Logger

	errorCount    uint64
	lastErrorTime time.Time
}

// NewActuator wraps an opened arm and roller.
func NewActuator(arm *Arm, roller *IntakeRoller, timeout time.Duration) *Actuator {
	if timeout <= 0 {
		timeout = 10 * time.Millisecond
	}
	return &Actuator{
		arm:     arm,
		roller:  roller,
		timeout: timeout,
		log:     log.With("backend", "hardware"),
	}
}

// SetOpenLoopPower implements intake.Actuator.
func (a *Actuator) SetOpenLoopPower(p float64) {
	a.roller.SetPower(p)
}

// SetClosedLoopPosition implements intake.Actuator. The servo is read back
// after the write so Position serves this tick's reading without touching
// the bus.
func (a *Actuator) SetClosedLoopPosition(target float64) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.arm.SetTarget(ctx, target); err != nil {
		a.fault(Pivot, err)
	}
	if _, err := a.arm.ReadPosition(ctx); err != nil {
		a.fault(Pivot, err)
	}
}

// Position implements intake.Actuator. It returns the last reading and
// never blocks.
func (a *Actuator) Position() float64 {
	return a.arm.LastPosition()
}

// AppliedOutput implements intake.Actuator.
func (a *Actuator) AppliedOutput() float64 {
	return a.roller.AppliedOutput()
}

// ZeroPosition implements intake.Actuator.
func (a *Actuator) ZeroPosition() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.arm.Zero(ctx); err != nil {
		a.fault(Pivot, err)
	}
}

// ErrorCount returns the number of absorbed bus faults.
func (a *Actuator) ErrorCount() uint64 {
	return a.errorCount
}

// Close disables the servo and stops the roller.
func (a *Actuator) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var errs []error
	if err := a.arm.Disable(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%s: disable: %w", Pivot, err))
	}
	if err := a.arm.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", Pivot, err))
	}
	if err := a.roller.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", Roller, err))
	}
	return joinErrors(errs)
}

func (a *Actuator) fault(motor MotorName, err error) {
	a.errorCount++
	// Log errors (but don't spam - max once per interval)
	if a.lastErrorTime.IsZero() || time.Since(a.lastErrorTime) > errorLogInterval {
		a.log.Warn("actuator fault", "motor", motor, "error", err, "total", a.errorCount)
		a.lastErrorTime = time.Now()
	}
}
