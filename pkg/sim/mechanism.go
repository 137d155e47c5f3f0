package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ligament is one rigid segment of a 2D mechanism view. Angle is relative
// to the parent segment, in degrees.
type Ligament struct {
	Name   string
	Length float64
	Angle  float64
}

// Mechanism is the side view of the intake: a pivot bar from the root with
// a second bar fixed at an angle on its end. Coordinates are in pixels.
type Mechanism struct {
	Width, Height float64
	Root          mgl64.Vec2
	Pivot         Ligament
	Bar           Ligament
}

// NewMechanism lays out the intake view for p.
func NewMechanism(p Params) *Mechanism {
	return &Mechanism{
		Width:  50,
		Height: 50,
		Root:   mgl64.Vec2{28, 3},
		Pivot: Ligament{
			Name:   "Intake Pivot",
			Length: p.ShortBarLength * p.PixelsPerMeter,
			Angle:  p.MinAngleDeg,
		},
		Bar: Ligament{
			Name:   "Intake Pivot Second Bar",
			Length: p.LongBarLength * p.PixelsPerMeter,
			Angle:  p.BarAngleDeg,
		},
	}
}

// SetPivotAngle sets the pivot bar's absolute angle in degrees.
func (m *Mechanism) SetPivotAngle(deg float64) {
	m.Pivot.Angle = deg
}

// Points returns the root, the pivot bar tip and the second bar tip.
func (m *Mechanism) Points() [3]mgl64.Vec2 {
	a1 := mgl64.DegToRad(m.Pivot.Angle)
	tip := m.Root.Add(mgl64.Vec2{math.Cos(a1), math.Sin(a1)}.Mul(m.Pivot.Length))
	a2 := a1 + mgl64.DegToRad(m.Bar.Angle)
	end := tip.Add(mgl64.Vec2{math.Cos(a2), math.Sin(a2)}.Mul(m.Bar.Length))
	return [3]mgl64.Vec2{m.Root, tip, end}
}
