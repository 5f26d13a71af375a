package component

import "github.com/go-gl/mathgl/mgl64"

// Motion is the character's linear state. Steering and avoidance keep
// |Velocity| <= MaxSpeed.
type Motion struct {
	Velocity   mgl64.Vec3
	Bounciness float64
	MaxSpeed   float64
}

var MotionComponent = NewComponent[Motion]("motion")
