package sim

import "github.com/go-gl/mathgl/mgl64"

// Params are the physical constants of the simulated intake.
type Params struct {
	Gearing           float64 `json:"gearing" yaml:"gearing"`
	Length            float64 `json:"length" yaml:"length"`         // m
	Mass              float64 `json:"mass" yaml:"mass"`             // kg
	MinAngleDeg       float64 `json:"min_angle_deg" yaml:"min_angle_deg"`
	MaxAngleDeg       float64 `json:"max_angle_deg" yaml:"max_angle_deg"`
	SimulateGravity   bool    `json:"simulate_gravity" yaml:"simulate_gravity"`
	Motors            int     `json:"motors" yaml:"motors"`
	BatteryVoltage    float64 `json:"battery_voltage" yaml:"battery_voltage"`
	BatteryResistance float64 `json:"battery_resistance" yaml:"battery_resistance"`

	ShortBarLength float64 `json:"short_bar_length" yaml:"short_bar_length"` // m
	LongBarLength  float64 `json:"long_bar_length" yaml:"long_bar_length"`   // m
	BarAngleDeg    float64 `json:"bar_angle_deg" yaml:"bar_angle_deg"`
	PixelsPerMeter float64 `json:"pixels_per_meter" yaml:"pixels_per_meter"`
}

// DefaultParams returns the reference intake: a 135:1 NEO Vortex pivot
// travelling from 80° to 180°.
func DefaultParams() Params {
	return Params{
		Gearing:           135,
		Length:            0.4032262,
		Mass:              5.8738,
		MinAngleDeg:       80,
		MaxAngleDeg:       180,
		SimulateGravity:   true,
		Motors:            1,
		BatteryVoltage:    DefaultBatteryVoltage,
		BatteryResistance: DefaultBatteryResistance,
		ShortBarLength:    0.1524,
		LongBarLength:     0.3048,
		BarAngleDeg:       -60,
		PixelsPerMeter:    20,
	}
}

// ArmConfig converts the params into an arm model config starting at rest
// on the lower stop.
func (p Params) ArmConfig() ArmConfig {
	return ArmConfig{
		Gearing:         p.Gearing,
		MOI:             EstimateMOI(p.Length, p.Mass),
		Length:          p.Length,
		MinAngle:        mgl64.DegToRad(p.MinAngleDeg),
		MaxAngle:        mgl64.DegToRad(p.MaxAngleDeg),
		SimulateGravity: p.SimulateGravity,
		StartingAngle:   mgl64.DegToRad(p.MinAngleDeg),
	}
}
