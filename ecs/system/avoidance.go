package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

// probeDirections are the 6 axis directions plus 8 diagonals, normalized.
var probeDirections = func() []mgl64.Vec3 {
	dirs := []mgl64.Vec3{
		{1, 0, 0}, {-1, 0, 0},
		{0, 0, 1}, {0, 0, -1},
		{0, 1, 0}, {0, -1, 0},
		{1, 0, 1}, {1, 0, -1},
		{-1, 0, 1}, {-1, 0, -1},
		{1, 1, 0}, {-1, 1, 0},
		{1, -1, 0}, {-1, -1, 0},
	}
	for i := range dirs {
		dirs[i] = dirs[i].Normalize()
	}
	return dirs
}()

type AvoidanceParams struct {
	SenseRange    float64
	RepelStrength float64

	BodyRadius    float64
	BodySense     float64
	BodyRepel     float64
	HeadClearance float64

	BoxMargin float64
	BoxRepel  float64
}

func DefaultAvoidanceParams() AvoidanceParams {
	return AvoidanceParams{
		SenseRange:    1.0,
		RepelStrength: 0.6,
		BodyRadius:    0.25,
		BodySense:     0.45,
		BodyRepel:     3.0,
		HeadClearance: 0.1,
		BoxMargin:     0.15,
		BoxRepel:      3.0,
	}
}

// AvoidanceSystem pushes characters away from room surfaces, the user's body
// and the keep-out box, then integrates velocity into position.
type AvoidanceSystem struct {
	Params  AvoidanceParams
	Spatial ecs.SpatialQuery
}

func NewAvoidanceSystem(spatial ecs.SpatialQuery) *AvoidanceSystem {
	return &AvoidanceSystem{Params: DefaultAvoidanceParams(), Spatial: spatial}
}

func (s *AvoidanceSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	dt := f.Dt

	ecs.ForEach2(w, component.MotionComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, m *component.Motion, t *component.Transform) {
		if !isActive(w, e) || isScripted(w, e) {
			return
		}

		if b, ok := ecs.Get(w, e, component.BehaviorComponent.Kind()); ok && b.LaunchGrace > 0 {
			b.LaunchGrace = math.Max(0, b.LaunchGrace-dt)
			if m.MaxSpeed > 0 {
				m.Velocity = common.ClampLen(m.Velocity, m.MaxSpeed)
			}
			t.Position = t.Position.Add(m.Velocity.Mul(dt))
			return
		}

		origin := t.Position
		v := m.Velocity
		v = v.Add(s.surfaceRepulsion(origin).Mul(dt))

		if head, ok := f.Poses.HeadPose(); ok {
			v = s.bodyRepulsion(origin, head.Position, v, dt)
		}
		if f.KeepOut != nil {
			v = s.boxRepulsion(origin, *f.KeepOut, v, dt)
		}

		if m.MaxSpeed > 0 {
			v = common.ClampLen(v, m.MaxSpeed)
		}
		m.Velocity = v
		t.Position = t.Position.Add(v.Mul(dt))
	})
}

// surfaceRepulsion returns an acceleration away from nearby surfaces with a
// quadratic falloff over the sense range.
func (s *AvoidanceSystem) surfaceRepulsion(origin mgl64.Vec3) mgl64.Vec3 {
	if s.Spatial == nil || s.Params.SenseRange <= 0 {
		return mgl64.Vec3{}
	}
	var avoid mgl64.Vec3
	for _, dir := range probeDirections {
		hit, ok := s.Spatial.Raycast(origin, dir, s.Params.SenseRange)
		if !ok {
			continue
		}
		proximity := common.Clamp01(1 - hit.Distance/s.Params.SenseRange)
		avoid = avoid.Sub(dir.Mul(proximity * proximity))
	}
	if avoid.Len() <= 0.001 {
		return mgl64.Vec3{}
	}
	return avoid.Mul(s.Params.RepelStrength)
}

// bodyRepulsion keeps the character out of an infinite vertical cylinder
// around the user below head height.
func (s *AvoidanceSystem) bodyRepulsion(origin, head, v mgl64.Vec3, dt float64) mgl64.Vec3 {
	p := s.Params
	if origin.Y() >= head.Y()+p.HeadClearance {
		return v
	}
	offset := common.Horizontal(origin.Sub(head))
	dist := offset.Len()
	if dist >= p.BodyRadius+p.BodySense {
		return v
	}

	proximity := 1.0
	if p.BodySense > 0 {
		proximity = 1 - common.Clamp01((dist-p.BodyRadius)/p.BodySense)
	}
	force := proximity * proximity * p.BodyRepel

	if dist > 0.01 {
		out := offset.Mul(1 / dist)
		if inward := -common.Horizontal(v).Dot(out); inward > 0 {
			v = v.Add(out.Mul(inward * proximity))
		}
		return v.Add(out.Mul(force * dt))
	}

	escape := mgl64.Vec3{1, 0, 0}
	if hv := common.Horizontal(v); hv.Len() > 0.01 {
		escape = hv.Normalize()
	}
	return v.Add(escape.Mul(force * dt))
}

// boxRepulsion treats the keep-out box as solid. Each face the character is
// within the margin of strips inward velocity and pushes outward.
func (s *AvoidanceSystem) boxRepulsion(origin mgl64.Vec3, box ecs.KeepOut, v mgl64.Vec3, dt float64) mgl64.Vec3 {
	margin := s.Params.BoxMargin
	if margin <= 0 {
		return v
	}
	rel := origin.Sub(box.Center)
	var d [3]float64
	for i := 0; i < 3; i++ {
		d[i] = math.Abs(rel[i]) - box.HalfExtents[i]
	}
	if d[0] >= margin || d[1] >= margin || d[2] >= margin {
		return v
	}

	for i := 0; i < 3; i++ {
		if d[i] >= margin {
			continue
		}
		var dir mgl64.Vec3
		dir[i] = 1
		if rel[i] < 0 {
			dir[i] = -1
		}
		proximity := 1 - math.Max(d[i], 0)/margin
		v = v.Add(dir.Mul(proximity * proximity * s.Params.BoxRepel * dt))
		if inward := -v.Dot(dir); inward > 0 {
			v = v.Add(dir.Mul(inward * proximity))
		}
	}
	return v
}
