package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// servo is the subset of *feetech.Servo the arm drives.
type servo interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	Position(ctx context.Context) (int, error)
	SetPosition(ctx context.Context, position int) error
}

// Arm is the intake pivot: one Feetech servo held in its native position
// mode. Positions are in rotations from the calibrated zero.
type Arm struct {
	bus         *feetech.Bus
	servo       servo
	calibration PivotCalibration

	lastRaw   int
	lastKnown float64
	target    float64
}

// NewArm opens the bus on port and attaches to the pivot servo.
func NewArm(port string, baudRate int, cal PivotCalibration) (*Arm, error) {
	if baudRate <= 0 {
		baudRate = 1_000_000
	}

	// Open serial bus
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	found, err := bus.Scan(ctx, cal.ID, cal.ID)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("scan for servo %d: %w", cal.ID, err)
	}
	if len(found) == 0 {
		bus.Close()
		return nil, fmt.Errorf("servo %d not found on %s", cal.ID, port)
	}

	a := newArm(feetech.NewServo(bus, found[0].ID, found[0].Model), cal)
	a.bus = bus
	return a, nil
}

func newArm(s servo, cal PivotCalibration) *Arm {
	return &Arm{servo: s, calibration: cal}
}

// Close closes the arm's bus connection.
func (a *Arm) Close() error {
	if a.bus == nil {
		return nil
	}
	return a.bus.Close()
}

// Enable enables torque on the servo.
func (a *Arm) Enable(ctx context.Context) error {
	return a.servo.Enable(ctx)
}

// Disable disables torque on the servo.
func (a *Arm) Disable(ctx context.Context) error {
	return a.servo.Disable(ctx)
}

// SetTarget commands the servo to rotations from zero.
func (a *Arm) SetTarget(ctx context.Context, rotations float64) error {
	raw := a.calibration.FromRotations(rotations)
	if err := a.servo.SetPosition(ctx, raw); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	a.target = rotations
	return nil
}

// Target returns the last successfully written target.
func (a *Arm) Target() float64 {
	return a.target
}

// ReadPosition reads the servo and returns rotations from zero.
func (a *Arm) ReadPosition(ctx context.Context) (float64, error) {
	raw, err := a.servo.Position(ctx)
	if err != nil {
		return a.lastKnown, fmt.Errorf("read position: %w", err)
	}
	a.lastRaw = raw
	a.lastKnown = a.calibration.ToRotations(raw)
	return a.lastKnown, nil
}

// LastPosition returns the most recent successful reading.
func (a *Arm) LastPosition() float64 {
	return a.lastKnown
}

// Zero makes the servo's current position the new zero. If the servo cannot
// be read the last known raw position is used.
func (a *Arm) Zero(ctx context.Context) error {
	raw, err := a.servo.Position(ctx)
	if err != nil {
		raw = a.lastRaw
	}
	a.calibration.Rezero(raw)
	a.lastRaw = raw
	a.lastKnown = 0
	if err != nil {
		return fmt.Errorf("read position for zero: %w", err)
	}
	return nil
}

// Calibration returns the active calibration, including any re-zero.
func (a *Arm) Calibration() PivotCalibration {
	return a.calibration
}
