package sim

import (
	"math"
	"testing"
	"time"
)

const step = 20 * time.Millisecond

func newTestArm() *Arm {
	return NewArm(NeoVortex(1), DefaultParams().ArmConfig())
}

func TestDCMotor_NeoVortex(t *testing.T) {
	m := NeoVortex(1)

	if math.Abs(m.R-12.0/211) > 1e-9 {
		t.Errorf("R = %v, want %v", m.R, 12.0/211)
	}
	if math.Abs(m.Kt-3.6/211) > 1e-9 {
		t.Errorf("Kt = %v, want %v", m.Kt, 3.6/211)
	}
	// At stall the motor draws its stall current.
	if got := m.Current(0, 12); math.Abs(got-211) > 1e-6 {
		t.Errorf("stall current = %v, want 211", got)
	}
	// At free speed the draw is the free current.
	if got := m.Current(m.FreeSpeed, 12); math.Abs(got-3.6) > 1e-6 {
		t.Errorf("free current = %v, want 3.6", got)
	}

	two := NeoVortex(2)
	if math.Abs(two.StallTorque-7.2) > 1e-9 {
		t.Errorf("two motors stall torque = %v, want 7.2", two.StallTorque)
	}
}

func TestEstimateMOI(t *testing.T) {
	if got := EstimateMOI(3, 2); got != 6 {
		t.Errorf("EstimateMOI(3, 2) = %v, want 6", got)
	}
}

func TestArm_StaysWithinLimitsUnderMaximalInput(t *testing.T) {
	cfg := DefaultParams().ArmConfig()

	for _, volts := range []float64{12, -12, 100, -100} {
		arm := newTestArm()
		for i := 0; i < 500; i++ {
			arm.SetInputVoltage(volts)
			arm.Update(step)
			if arm.Angle() < cfg.MinAngle || arm.Angle() > cfg.MaxAngle {
				t.Fatalf("volts=%v tick %d: angle %v outside [%v, %v]",
					volts, i, arm.Angle(), cfg.MinAngle, cfg.MaxAngle)
			}
		}
	}
}

func TestArm_MonotonicUntilStopThenConstant(t *testing.T) {
	cfg := DefaultParams().ArmConfig()
	arm := newTestArm()

	prev := arm.Angle()
	reached := -1
	for i := 0; i < 200; i++ {
		arm.SetInputVoltage(12)
		arm.Update(step)
		angle := arm.Angle()

		if reached < 0 {
			if arm.AtUpperLimit() {
				reached = i
				if arm.Velocity() != 0 {
					t.Fatalf("velocity %v at the instant the stop was reached", arm.Velocity())
				}
			} else if angle <= prev {
				t.Fatalf("tick %d: angle %v did not increase from %v", i, angle, prev)
			}
		} else if angle != cfg.MaxAngle {
			t.Fatalf("tick %d: angle %v left the stop after reaching it", i, angle)
		}
		prev = angle
	}

	if reached < 0 {
		t.Fatal("arm never reached the upper stop")
	}
}

func TestArm_GravityPullsDownWithoutInput(t *testing.T) {
	arm := newTestArm()
	arm.SetState(math.Pi/2+0.2, 0) // past vertical, leaning back

	arm.Update(step)
	if arm.Velocity() <= 0 {
		t.Errorf("velocity = %v, want positive (falling toward 180°)", arm.Velocity())
	}

	arm.SetState(DefaultParams().ArmConfig().MinAngle+0.1, 0)
	arm.Update(step)
	if arm.Velocity() >= 0 {
		t.Errorf("velocity = %v, want negative (falling toward the lower stop)", arm.Velocity())
	}
}

func TestArm_Deterministic(t *testing.T) {
	run := func() (float64, float64) {
		arm := newTestArm()
		for i := 0; i < 50; i++ {
			arm.SetInputVoltage(6 * math.Sin(float64(i)/5))
			arm.Update(step)
		}
		return arm.Angle(), arm.Velocity()
	}

	a1, v1 := run()
	a2, v2 := run()
	if a1 != a2 || v1 != v2 {
		t.Errorf("runs differ: (%v, %v) vs (%v, %v)", a1, v1, a2, v2)
	}
}

func TestArm_InputClampedToNominal(t *testing.T) {
	arm := newTestArm()
	arm.SetInputVoltage(40)
	if arm.Input() != 12 {
		t.Errorf("Input() = %v, want 12", arm.Input())
	}
	arm.SetInputVoltage(math.NaN())
	if arm.Input() != 0 {
		t.Errorf("Input() = %v after NaN, want 0", arm.Input())
	}
}

func TestArm_CurrentDrawWhenStalled(t *testing.T) {
	arm := newTestArm()
	if arm.CurrentDraw() != 0 {
		t.Errorf("idle current = %v, want 0", arm.CurrentDraw())
	}

	arm.SetInputVoltage(6)
	if arm.CurrentDraw() <= 0 {
		t.Errorf("current at +6V stalled = %v, want > 0", arm.CurrentDraw())
	}
	// Driving either way against a stop draws current from the battery.
	arm.SetInputVoltage(-6)
	if got, want := arm.CurrentDraw(), 6/arm.motor.R; math.Abs(got-want) > 1e-9 {
		t.Errorf("current at -6V stalled = %v, want %v", got, want)
	}
}

func TestLoadedBatteryVoltage(t *testing.T) {
	tests := []struct {
		currents []float64
		want     float64
	}{
		{nil, 12},
		{[]float64{50}, 11},
		{[]float64{25, -25}, 11},
		{[]float64{1000}, 0},
	}
	for _, tt := range tests {
		got := LoadedBatteryVoltage(12, 0.02, tt.currents...)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("LoadedBatteryVoltage(%v) = %v, want %v", tt.currents, got, tt.want)
		}
	}
}
