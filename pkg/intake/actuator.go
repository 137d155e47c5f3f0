package intake

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Actuator is the arm + roller pair as seen by the intake. Implementations
// own the hardware (or the physics model) and absorb their own I/O faults;
// none of these calls can fail from the caller's point of view.
type Actuator interface {
	// SetOpenLoopPower drives the roller at p, clamped to [-1, 1].
	SetOpenLoopPower(p float64)
	// SetClosedLoopPosition hands target (encoder rotations) to the arm's
	// native position controller.
	SetClosedLoopPosition(target float64)
	// Position is the last known arm encoder position in rotations.
	Position() float64
	// AppliedOutput is the last known roller output fraction.
	AppliedOutput() float64
	// ZeroPosition makes the current arm position read as zero.
	ZeroPosition()
}

// Simulator is implemented by actuators backed by a physics model.
type Simulator interface {
	// Step advances the model by dt using the arm's applied output.
	Step(dt time.Duration)
	// CurrentDraw is the arm motor current in amps.
	CurrentDraw() float64
	// VisualAngle is the arm angle in degrees for display.
	VisualAngle() float64
}

// Reading is what the intake observed on one tick.
type Reading struct {
	ArmPosition   float64 `json:"arm_position"`
	AppliedOutput float64 `json:"applied_output"`
	Zeroed        bool    `json:"zeroed"` // encoder re-zeroed this tick
}

// ClampPower limits p to the open-loop range. NaN maps to 0.
func ClampPower(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return mgl64.Clamp(p, -1, 1)
}
