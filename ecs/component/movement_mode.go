package component

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type MovementKind int

const (
	MovementAutonomous MovementKind = iota
	MovementScriptedCurve
)

func (k MovementKind) String() string {
	switch k {
	case MovementScriptedCurve:
		return "scripted_curve"
	default:
		return "autonomous"
	}
}

// Curve is a deterministic path parameterized by time in seconds.
type Curve interface {
	Sample(t float64) (pos, vel mgl64.Vec3, ok bool)
}

// MovementMode selects who drives the character's position. Steering and
// avoidance leave ScriptedCurve characters alone.
type MovementMode struct {
	Kind  MovementKind
	Curve Curve
	Time  float64
}

func (m *MovementMode) Scripted() bool {
	return m != nil && m.Kind == MovementScriptedCurve && m.Curve != nil
}

var MovementModeComponent = NewComponent[MovementMode]("movement_mode")

// LissajousCurve traces center + amplitude*sin(frequency*s + phase) per axis
// with s = t*Speed.
type LissajousCurve struct {
	Center    mgl64.Vec3
	Amplitude mgl64.Vec3
	Frequency mgl64.Vec3
	Phase     mgl64.Vec3
	Speed     float64
}

func DefaultLissajous() LissajousCurve {
	return LissajousCurve{
		Center:    mgl64.Vec3{0, 1.4, -1.2},
		Amplitude: mgl64.Vec3{0.4, 0.2, 0.3},
		Frequency: mgl64.Vec3{1.0, 1.3, 0.7},
		Phase:     mgl64.Vec3{0, math.Pi / 4, math.Pi / 2},
		Speed:     0.5,
	}
}

func (c LissajousCurve) Sample(t float64) (mgl64.Vec3, mgl64.Vec3, bool) {
	s := t * c.Speed
	var pos, vel mgl64.Vec3
	for i := 0; i < 3; i++ {
		arg := c.Frequency[i]*s + c.Phase[i]
		pos[i] = c.Center[i] + c.Amplitude[i]*math.Sin(arg)
		vel[i] = c.Amplitude[i] * c.Frequency[i] * c.Speed * math.Cos(arg)
	}
	return pos, vel, true
}
