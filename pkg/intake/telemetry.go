package intake

// Telemetry keys published every tick.
const (
	KeyArmPosition   = "Algae/Arm/Position"
	KeyAppliedOutput = "Algae/Intake/Applied Output"
	KeyVisualAngle   = "Algae/Arm/Visual Angle"
	KeyMode          = "Algae/Mode"
	KeyCurrentDraw   = "Algae/Sim/Current Draw"
)

// Telemetry receives key/value readings. Publishing must not block.
type Telemetry interface {
	PutNumber(key string, value float64)
}

type discardTelemetry struct{}

func (discardTelemetry) PutNumber(string, float64) {}

// Discard is a Telemetry that drops everything.
var Discard Telemetry = discardTelemetry{}
