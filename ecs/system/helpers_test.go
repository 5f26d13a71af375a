package system

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/stretchr/testify/require"
)

const tick = 1.0 / 60

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func frame(dt float64) *ecs.Frame {
	return &ecs.Frame{Dt: dt}
}

type fairyParts struct {
	e   ecs.Entity
	t   *component.Transform
	m   *component.Motion
	b   *component.Behavior
	sm  *component.SecondaryMotion
	act *component.Activation
}

func addFairy(t *testing.T, w *ecs.World, pos mgl64.Vec3) fairyParts {
	t.Helper()
	e := ecs.CreateEntity(w)
	p := fairyParts{
		e:   e,
		t:   component.NewTransform(pos),
		m:   &component.Motion{MaxSpeed: 0.5, Bounciness: 0.5},
		sm:  &component.SecondaryMotion{},
		act: &component.Activation{Toy: component.ToyFairy, Active: true},
		b: &component.Behavior{
			FlightSpeed:        0.35,
			TargetChangePeriod: 4,
			TimeUntilNewTarget: 1e9,
			SpinRate:           1.2,
			SpinMultiplier:     1,
			LiftSpeed:          0.2,
			HandDistance:       NoHandDistance,
			InfluenceRange:     0.5,
		},
	}
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), p.t))
	require.NoError(t, ecs.Add(w, e, component.MotionComponent.Kind(), p.m))
	require.NoError(t, ecs.Add(w, e, component.BehaviorComponent.Kind(), p.b))
	require.NoError(t, ecs.Add(w, e, component.SecondaryMotionComponent.Kind(), p.sm))
	require.NoError(t, ecs.Add(w, e, component.ActivationComponent.Kind(), p.act))
	return p
}

// planeQuery is a single infinite plane facing Normal.
type planeQuery struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

func (q planeQuery) Raycast(origin, dir mgl64.Vec3, maxDist float64) (ecs.Hit, bool) {
	denom := dir.Dot(q.Normal)
	if denom >= 0 {
		return ecs.Hit{}, false
	}
	d := q.Point.Sub(origin).Dot(q.Normal) / denom
	if d < 0 || d > maxDist {
		return ecs.Hit{}, false
	}
	return ecs.Hit{Distance: d, Position: origin.Add(dir.Mul(d)), Normal: q.Normal}, true
}

type noHits struct{}

func (noHits) Raycast(mgl64.Vec3, mgl64.Vec3, float64) (ecs.Hit, bool) {
	return ecs.Hit{}, false
}
