// Package teleop runs the intake's fixed-rate control loop and turns operator
// input into mode requests.
package teleop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gwillem/algae/pkg/intake"
	"github.com/gwillem/algae/pkg/robot"
)

// DefaultHz matches the subsystem's 20 ms period.
const DefaultHz = 50

// State is a snapshot taken at the end of a tick.
type State struct {
	Mode      intake.Mode
	IdleMode  intake.Mode
	Setpoints intake.Setpoints
	Reading   intake.Reading

	Simulated   bool
	VisualAngle float64 // degrees
	CurrentDraw float64 // amps
	ArmOutput   float64 // pivot duty cycle
	Battery     float64 // volts
	Mechanism   [3]mgl64.Vec2

	Tick      uint64
	Timestamp time.Time
}

// Controller owns the intake and ticks it. Requests from other goroutines
// are queued and applied on the loop goroutine.
type Controller struct {
	intake *robot.Intake
	hz     int

	mu      sync.RWMutex
	running bool
	tick    uint64

	modeCh  chan intake.Mode
	idleCh  chan struct{}
	pressCh chan struct{}
	button  atomic.Bool
	pulse   bool

	stateCh chan State
	logCh   chan string
}

// NewController creates a controller for an opened intake.
func NewController(in *robot.Intake, hz int) *Controller {
	if hz <= 0 {
		hz = DefaultHz
	}
	return &Controller{
		intake:  in,
		hz:      hz,
		modeCh:  make(chan intake.Mode, 16),
		idleCh:  make(chan struct{}, 1),
		pressCh: make(chan struct{}, 1),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// RequestMode queues a mode request for the next tick.
func (c *Controller) RequestMode(m intake.Mode) {
	select {
	case c.modeCh <- m:
	default:
		c.log("Mode queue full, dropped %s", m)
	}
}

// Idle queues a fall back to the resting mode.
func (c *Controller) Idle() {
	select {
	case c.idleCh <- struct{}{}:
	default:
	}
}

// SetCalibrationButton reports the held state of the zero button.
func (c *Controller) SetCalibrationButton(pressed bool) {
	c.button.Store(pressed)
}

// PressCalibration is a momentary press: the button reads pressed for one
// tick and released on the next.
func (c *Controller) PressCalibration() {
	select {
	case c.pressCh <- struct{}{}:
	default:
	}
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the control loop until ctx is done. The intake is returned to
// Stow on the way out.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	backend := "hardware"
	if c.intake.Simulated() {
		backend = "simulation"
	}
	c.log("Intake loop started at %d Hz (%s)", c.hz, backend)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step()
		}
	}
}

// drain applies queued requests in arrival order, so the last one wins.
func (c *Controller) drain() {
	for {
		select {
		case m := <-c.modeCh:
			prev := c.intake.Mode()
			c.intake.RequestMode(m)
			if prev != c.intake.Mode() {
				c.log("Mode: %s -> %s", prev, c.intake.Mode())
			}
		case <-c.idleCh:
			c.intake.Idle()
			c.log("Idle: %s", c.intake.Mode())
		case <-c.pressCh:
			c.pulse = true
		default:
			return
		}
	}
}

func (c *Controller) step() {
	c.drain()

	pressed := c.button.Load() || c.pulse
	c.pulse = false

	r := c.intake.Periodic(pressed)
	if r.Zeroed {
		c.log("Arm encoder zeroed")
	}
	battery := c.intake.UpdateBattery()
	c.tick++

	s := State{
		Mode:        c.intake.Mode(),
		IdleMode:    c.intake.IdleMode(),
		Setpoints:   c.intake.CurrentSetpoints(),
		Reading:     r,
		Simulated:   c.intake.Simulated(),
		CurrentDraw: c.intake.CurrentDraw(),
		Battery:     battery,
		Tick:        c.tick,
		Timestamp:   time.Now(),
	}
	if sim := c.intake.Sim; sim != nil {
		s.VisualAngle = sim.VisualAngle()
		s.ArmOutput = sim.ArmOutput()
		s.Mechanism = sim.Mechanism().Points()
	}
	c.sendState(s)
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.intake.RequestMode(intake.Stow)
	c.log("Intake loop stopped, stowed")
}
