package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/gwillem/algae/pkg/intake"
	"github.com/gwillem/algae/pkg/sim"
)

const DefaultConfigFile = "algae.json"

var (
	ErrNoPort       = errors.New("pivot port must be set when not simulating")
	ErrBadServoID   = errors.New("servo id must be in 1..253")
	ErrBadHz        = errors.New("hz must be positive")
	ErrBadTravel    = errors.New("min angle must be below max angle")
	ErrBadPhysics   = errors.New("gearing, length and mass must be positive")
	ErrBadGainRange = errors.New("gain min output must not exceed max output")
)

// Config holds the intake configuration
type Config struct {
	Simulate bool   `json:"simulate" yaml:"simulate" env:"ALGAE_SIMULATE"`
	Hz       int    `json:"hz" yaml:"hz" env:"ALGAE_HZ"`
	LogLevel string `json:"log_level" yaml:"log_level" env:"ALGAE_LOG_LEVEL"`

	Pivot     PivotConfig    `json:"pivot" yaml:"pivot"`
	Roller    RollerConfig   `json:"roller" yaml:"roller"`
	Gains     sim.Gains      `json:"gains" yaml:"gains"`
	Sim       sim.Params     `json:"sim" yaml:"sim"`
	Setpoints SetpointConfig `json:"setpoints" yaml:"setpoints"`
}

// PivotConfig holds configuration for the pivot servo
type PivotConfig struct {
	Port        string           `json:"port" yaml:"port" env:"ALGAE_PORT"`
	BaudRate    int              `json:"baud_rate" yaml:"baud_rate" env:"ALGAE_BAUD_RATE"`
	TimeoutMs   int              `json:"timeout_ms" yaml:"timeout_ms" env:"ALGAE_BUS_TIMEOUT_MS"`
	Calibration PivotCalibration `json:"calibration" yaml:"calibration"`
}

// RollerConfig holds configuration for the roller H-bridge
type RollerConfig struct {
	PWMPin      int  `json:"pwm_pin" yaml:"pwm_pin" env:"ALGAE_ROLLER_PWM_PIN"`
	DirPin      int  `json:"dir_pin" yaml:"dir_pin" env:"ALGAE_ROLLER_DIR_PIN"`
	FrequencyHz int  `json:"frequency_hz" yaml:"frequency_hz"`
	Inverted    bool `json:"inverted" yaml:"inverted"`
}

// SetpointConfig names one entry per mode so a config file cannot leave a
// mode out.
type SetpointConfig struct {
	RunIntake     intake.Setpoints `json:"run_intake" yaml:"run_intake"`
	ReverseIntake intake.Setpoints `json:"reverse_intake" yaml:"reverse_intake"`
	Hold          intake.Setpoints `json:"hold" yaml:"hold"`
	Stow          intake.Setpoints `json:"stow" yaml:"stow"`
}

// Table converts the config into the intake's setpoint table.
func (c SetpointConfig) Table() intake.SetpointTable {
	var t intake.SetpointTable
	t[intake.RunIntake] = c.RunIntake
	t[intake.ReverseIntake] = c.ReverseIntake
	t[intake.Hold] = c.Hold
	t[intake.Stow] = c.Stow
	return t
}

func setpointConfigFrom(t intake.SetpointTable) SetpointConfig {
	return SetpointConfig{
		RunIntake:     t[intake.RunIntake],
		ReverseIntake: t[intake.ReverseIntake],
		Hold:          t[intake.Hold],
		Stow:          t[intake.Stow],
	}
}

// DefaultConfig returns the reference robot in simulation.
func DefaultConfig() *Config {
	return &Config{
		Simulate: true,
		Hz:       50,
		LogLevel: "info",
		Pivot: PivotConfig{
			BaudRate:    1_000_000,
			TimeoutMs:   10,
			Calibration: DefaultPivotCalibration(),
		},
		Roller: RollerConfig{
			PWMPin:      18,
			DirPin:      23,
			FrequencyHz: 20_000,
		},
		Gains:     sim.DefaultGains(),
		Sim:       sim.DefaultParams(),
		Setpoints: setpointConfigFrom(intake.DefaultSetpoints()),
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Values missing
// from the file keep their defaults; ALGAE_* environment variables win over
// both.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ALGAE_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Validate reports every problem in the config, not just the first.
func (c *Config) Validate() error {
	var err error

	if c.Hz <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w, got %d", ErrBadHz, c.Hz))
	}

	table := c.Setpoints.Table()
	err = multierr.Append(err, table.Validate())

	p := c.Sim
	if p.Gearing <= 0 || p.Length <= 0 || p.Mass <= 0 {
		err = multierr.Append(err, ErrBadPhysics)
	}
	if p.MinAngleDeg >= p.MaxAngleDeg {
		err = multierr.Append(err, fmt.Errorf("%w (%v >= %v)", ErrBadTravel, p.MinAngleDeg, p.MaxAngleDeg))
	}
	if c.Gains.MinOutput > c.Gains.MaxOutput {
		err = multierr.Append(err, ErrBadGainRange)
	}

	if !c.Simulate {
		if c.Pivot.Port == "" {
			err = multierr.Append(err, ErrNoPort)
		}
		if id := c.Pivot.Calibration.ID; id < 1 || id > 253 {
			err = multierr.Append(err, fmt.Errorf("%w, got %d", ErrBadServoID, id))
		}
	}

	return err
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}

func joinErrors(errs []error) error {
	return multierr.Combine(errs...)
}
