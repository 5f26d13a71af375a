package component

import "github.com/go-gl/mathgl/mgl64"

// Transform is a world-space placement.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

func NewTransform(pos mgl64.Vec3) *Transform {
	return &Transform{Position: pos, Rotation: mgl64.QuatIdent(), Scale: mgl64.Vec3{1, 1, 1}}
}

var TransformComponent = NewComponent[Transform]("transform")
