package teleop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gwillem/algae/pkg/intake"
	"github.com/gwillem/algae/pkg/robot"
)

func newSimController(t *testing.T) *Controller {
	t.Helper()
	in, err := robot.Open(robot.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { in.Close() })
	return NewController(in, 0)
}

func latest(t *testing.T, c *Controller) State {
	t.Helper()
	select {
	case s := <-c.States():
		return s
	default:
		t.Fatal("no state published")
		return State{}
	}
}

func TestController_DefaultHz(t *testing.T) {
	c := newSimController(t)
	if c.Hz() != DefaultHz {
		t.Errorf("Hz() = %d, want %d", c.Hz(), DefaultHz)
	}
}

func TestController_LastRequestWins(t *testing.T) {
	c := newSimController(t)

	c.RequestMode(intake.RunIntake)
	c.RequestMode(intake.ReverseIntake)
	c.RequestMode(intake.Hold)
	c.step()

	s := latest(t, c)
	if s.Mode != intake.Hold {
		t.Errorf("Mode = %s, want hold", s.Mode)
	}
	if s.Reading.AppliedOutput != 0.25 {
		t.Errorf("AppliedOutput = %v, want 0.25", s.Reading.AppliedOutput)
	}
	if s.Tick != 1 {
		t.Errorf("Tick = %d, want 1", s.Tick)
	}
}

func TestController_Idle(t *testing.T) {
	c := newSimController(t)

	c.RequestMode(intake.RunIntake)
	c.step()
	c.Idle()
	c.step()
	if s := latest(t, c); s.Mode != intake.Hold {
		t.Errorf("idle after intaking = %s, want hold", s.Mode)
	}

	c.RequestMode(intake.ReverseIntake)
	c.step()
	c.Idle()
	c.step()
	if s := latest(t, c); s.Mode != intake.Stow {
		t.Errorf("idle after reversing = %s, want stow", s.Mode)
	}
}

func TestController_PressCalibrationZeroesOnce(t *testing.T) {
	c := newSimController(t)

	c.RequestMode(intake.Stow)
	for i := 0; i < 50; i++ {
		c.step()
	}
	if s := latest(t, c); s.Reading.ArmPosition <= 1 {
		t.Fatalf("arm did not move towards stow: %v", s.Reading.ArmPosition)
	}

	c.PressCalibration()
	c.step()
	c.step()
	s := latest(t, c)
	// Zeroed on the press tick; only one tick of travel since.
	if s.Reading.ArmPosition > 2 {
		t.Errorf("ArmPosition after zero = %v, want near 0", s.Reading.ArmPosition)
	}
}

func TestController_HeldButtonZeroesOnRisingEdge(t *testing.T) {
	c := newSimController(t)
	c.RequestMode(intake.Stow)

	c.SetCalibrationButton(true)
	c.step()
	c.step()
	held := latest(t, c).Reading.ArmPosition

	for i := 0; i < 20; i++ {
		c.step()
	}
	if got := latest(t, c).Reading.ArmPosition; got <= held {
		t.Errorf("position reset while button held: %v then %v", held, got)
	}
}

func drainLogs(c *Controller) []string {
	var logs []string
	for {
		select {
		case l := <-c.Logs():
			logs = append(logs, l)
		default:
			return logs
		}
	}
}

func countZeroLogs(logs []string) int {
	n := 0
	for _, l := range logs {
		if strings.Contains(l, "zeroed") {
			n++
		}
	}
	return n
}

func TestController_LogsOnlyActualZero(t *testing.T) {
	c := newSimController(t)

	c.PressCalibration()
	c.step()
	if n := countZeroLogs(drainLogs(c)); n != 1 {
		t.Fatalf("zero logged %d times for a press, want 1", n)
	}

	// With the button held there is no rising edge, so a pulse zeroes nothing.
	c.SetCalibrationButton(true)
	c.step()
	drainLogs(c)
	c.PressCalibration()
	c.step()
	if n := countZeroLogs(drainLogs(c)); n != 0 {
		t.Errorf("zero logged %d times while the button was held, want 0", n)
	}
}

func TestController_SimulatedState(t *testing.T) {
	c := newSimController(t)
	c.RequestMode(intake.Stow)
	c.step()

	s := latest(t, c)
	if !s.Simulated {
		t.Fatal("Simulated = false")
	}
	if s.Battery <= 0 || s.Battery > 12 {
		t.Errorf("Battery = %v", s.Battery)
	}
	if s.VisualAngle < 80 || s.VisualAngle > 180 {
		t.Errorf("VisualAngle = %v, want within travel", s.VisualAngle)
	}
	if s.ArmOutput <= 0 {
		t.Errorf("ArmOutput = %v, want positive towards stow", s.ArmOutput)
	}
}

func TestController_StartStop(t *testing.T) {
	c := newSimController(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c.RequestMode(intake.RunIntake)
	err := c.Start(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Start() = %v, want deadline exceeded", err)
	}
	if c.intake.Mode() != intake.Stow {
		t.Errorf("mode after stop = %s, want stow", c.intake.Mode())
	}
}
