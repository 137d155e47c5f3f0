package sim

import "math"

// Default battery characteristics used when the config leaves them unset.
const (
	DefaultBatteryVoltage    = 12.0
	DefaultBatteryResistance = 0.02
)

// LoadedBatteryVoltage is the terminal voltage of a battery with the given
// open-circuit voltage and internal resistance while supplying currents.
// It never goes below zero.
func LoadedBatteryVoltage(nominal, resistance float64, currents ...float64) float64 {
	var total float64
	for _, i := range currents {
		total += math.Abs(i)
	}
	return math.Max(0, nominal-total*resistance)
}
