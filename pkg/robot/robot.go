package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/gwillem/algae/internal/log"
	"github.com/gwillem/algae/pkg/intake"
	"github.com/gwillem/algae/pkg/sim"
)

// Intake is a configured subsystem together with the backend it owns.
type Intake struct {
	*intake.Subsystem

	// Sim is set when running against the physics model.
	Sim *sim.Actuator

	hw      *Actuator
	battery struct{ nominal, resistance float64 }
}

// Open builds the intake described by cfg, on hardware or in simulation.
func Open(cfg *Config, telemetry intake.Telemetry) (*Intake, error) {
	period := time.Second / time.Duration(max(cfg.Hz, 1))
	opts := []intake.Option{
		intake.WithTelemetry(telemetry),
		intake.WithPeriod(period),
	}
	table := cfg.Setpoints.Table()

	if cfg.Simulate {
		act := sim.NewActuator(cfg.Sim, cfg.Gains)
		in := &Intake{Sim: act}
		in.battery.nominal = cfg.Sim.BatteryVoltage
		in.battery.resistance = cfg.Sim.BatteryResistance
		in.Subsystem = intake.NewSubsystem(act, table, opts...)
		log.Info("intake opened", "backend", "sim", "period", period)
		return in, nil
	}

	arm, err := NewArm(cfg.Pivot.Port, cfg.Pivot.BaudRate, cfg.Pivot.Calibration)
	if err != nil {
		return nil, fmt.Errorf("open pivot: %w", err)
	}
	roller, err := NewIntakeRoller(cfg.Roller)
	if err != nil {
		arm.Close()
		return nil, fmt.Errorf("open roller: %w", err)
	}
	act := NewActuator(arm, roller, time.Duration(cfg.Pivot.TimeoutMs)*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := arm.Enable(ctx); err != nil {
		act.Close()
		return nil, fmt.Errorf("enable pivot: %w", err)
	}

	in := &Intake{hw: act}
	in.Subsystem = intake.NewSubsystem(act, table, opts...)
	log.Info("intake opened", "backend", "hardware", "port", cfg.Pivot.Port, "period", period)
	return in, nil
}

// UpdateBattery sags the simulated supply by the intake's current draw.
// It is a no-op on hardware.
func (i *Intake) UpdateBattery() float64 {
	if i.Sim == nil {
		return 0
	}
	v := sim.LoadedBatteryVoltage(i.battery.nominal, i.battery.resistance, i.CurrentDraw())
	i.Sim.SetBatteryVoltage(v)
	return v
}

// Close releases the hardware. Simulated intakes have nothing to release.
func (i *Intake) Close() error {
	if i.hw == nil {
		return nil
	}
	return i.hw.Close()
}
