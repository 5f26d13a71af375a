package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

// spawnDirections are probed in order; the first close surface wins.
var spawnDirections = []mgl64.Vec3{
	{0, -1, 0}, {0, 1, 0},
	{1, 0, 0}, {-1, 0, 0},
	{0, 0, 1}, {0, 0, -1},
}

// TrailSpawnerSystem drops at most one decoration per emission tick on a
// surface near each emitting character.
type TrailSpawnerSystem struct {
	Spatial ecs.SpatialQuery
	Pool    *DecorationPool
}

func NewTrailSpawnerSystem(spatial ecs.SpatialQuery, pool *DecorationPool) *TrailSpawnerSystem {
	return &TrailSpawnerSystem{Spatial: spatial, Pool: pool}
}

func (s *TrailSpawnerSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() || s.Pool == nil {
		return
	}

	ecs.ForEach2(w, component.TrailEmitterComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, em *component.TrailEmitter, t *component.Transform) {
		if !isActive(w, e) {
			return
		}
		interval := em.Interval()
		if interval <= 0 {
			return
		}

		em.TimeSinceLastEmission += f.Dt
		if em.TimeSinceLastEmission < interval {
			return
		}
		// Keep the overshoot. At most one spawn per tick.
		em.TimeSinceLastEmission -= interval
		if em.TimeSinceLastEmission >= interval {
			em.TimeSinceLastEmission = math.Mod(em.TimeSinceLastEmission, interval)
		}

		if s.Spatial == nil {
			return
		}
		for _, dir := range spawnDirections {
			hit, ok := s.Spatial.Raycast(t.Position, dir, em.SurfaceProximityThreshold)
			if !ok {
				continue
			}
			s.Pool.Spawn(hit.Position, hit.Normal, em.Kinds)
			break
		}
	})
}
