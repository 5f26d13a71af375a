package ecs

import "github.com/go-gl/mathgl/mgl64"

// Hit is the nearest surface intersection of a ray.
type Hit struct {
	Distance float64
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Class    string
}

// SpatialQuery answers nearest-hit ray casts against the static environment.
// direction is expected to be normalized.
type SpatialQuery interface {
	Raycast(origin, direction mgl64.Vec3, maxDistance float64) (Hit, bool)
}
