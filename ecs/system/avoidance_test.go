package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/milk9111/fairyflight/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvoidanceIntegratesPosition(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	f.m.Velocity = mgl64.Vec3{0.3, 0, 0}

	NewAvoidanceSystem(noHits{}).Update(w, frame(0.1))

	assert.InDelta(t, 0.03, f.t.Position.X(), 1e-12)
	assert.Equal(t, mgl64.Vec3{0.3, 0, 0}, f.m.Velocity)
}

func TestAvoidanceRepelsFromWall(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	f.m.Velocity = mgl64.Vec3{0.3, 0, 0}

	wall := planeQuery{Point: mgl64.Vec3{0.2, 0, 0}, Normal: mgl64.Vec3{-1, 0, 0}}
	NewAvoidanceSystem(wall).Update(w, frame(tick))

	assert.Less(t, f.m.Velocity.X(), 0.3)
	assert.InDelta(t, 0, f.m.Velocity.Y(), 1e-12)
}

func TestAvoidanceSurfaceFalloffIsQuadratic(t *testing.T) {
	s := NewAvoidanceSystem(nil)
	push := func(dist float64) float64 {
		s.Spatial = planeQuery{Point: mgl64.Vec3{0, 0, 0}, Normal: mgl64.Vec3{0, 1, 0}}
		return s.surfaceRepulsion(mgl64.Vec3{0, dist, 0}).Y()
	}

	near := push(0.2)
	far := push(0.6)
	assert.Greater(t, near, 0.0)
	assert.Greater(t, far, 0.0)
	// Straight down probe only: (0.8^2)/(0.4^2) = 4. Diagonal probes see the
	// plane at sqrt(2) times the distance.
	assert.Greater(t, near/far, 4.0)
	assert.Equal(t, 0.0, push(1.5))
}

func TestAvoidanceLaunchGrace(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	f.m.Velocity = mgl64.Vec3{0.3, 0, 0}
	f.b.LaunchGrace = 0.05

	wall := planeQuery{Point: mgl64.Vec3{0.05, 0, 0}, Normal: mgl64.Vec3{-1, 0, 0}}
	s := NewAvoidanceSystem(wall)

	s.Update(w, frame(0.03))
	assert.Equal(t, mgl64.Vec3{0.3, 0, 0}, f.m.Velocity)
	assert.InDelta(t, 0.02, f.b.LaunchGrace, 1e-12)

	s.Update(w, frame(0.03))
	assert.Equal(t, 0.0, f.b.LaunchGrace)
	assert.Equal(t, mgl64.Vec3{0.3, 0, 0}, f.m.Velocity)

	s.Update(w, frame(0.03))
	assert.Less(t, f.m.Velocity.X(), 0.3)
}

func TestAvoidanceBodyCylinder(t *testing.T) {
	head := &pose.Head{Position: mgl64.Vec3{0, 1.6, 0}, Rotation: mgl64.QuatIdent()}
	fr := &ecs.Frame{Dt: tick, Poses: pose.Snapshot{Head: head}}

	t.Run("strips inward velocity", func(t *testing.T) {
		w := ecs.NewWorld()
		f := addFairy(t, w, mgl64.Vec3{0.3, 1.0, 0})
		f.m.Velocity = mgl64.Vec3{-0.3, 0, 0}
		NewAvoidanceSystem(nil).Update(w, fr)
		assert.Greater(t, f.m.Velocity.X(), -0.05)
	})

	t.Run("ignored above head", func(t *testing.T) {
		w := ecs.NewWorld()
		f := addFairy(t, w, mgl64.Vec3{0.3, 1.8, 0})
		f.m.Velocity = mgl64.Vec3{-0.3, 0, 0}
		NewAvoidanceSystem(nil).Update(w, fr)
		assert.Equal(t, -0.3, f.m.Velocity.X())
	})

	t.Run("ignored outside sense range", func(t *testing.T) {
		w := ecs.NewWorld()
		f := addFairy(t, w, mgl64.Vec3{0.9, 1.0, 0})
		f.m.Velocity = mgl64.Vec3{-0.3, 0, 0}
		NewAvoidanceSystem(nil).Update(w, fr)
		assert.Equal(t, -0.3, f.m.Velocity.X())
	})

	t.Run("on axis falls back to +X", func(t *testing.T) {
		w := ecs.NewWorld()
		f := addFairy(t, w, mgl64.Vec3{0, 1.0, 0})
		NewAvoidanceSystem(nil).Update(w, fr)
		assert.Greater(t, f.m.Velocity.X(), 0.0)
		assert.Equal(t, 0.0, f.m.Velocity.Z())
	})

	t.Run("on axis follows horizontal velocity", func(t *testing.T) {
		w := ecs.NewWorld()
		f := addFairy(t, w, mgl64.Vec3{0, 1.0, 0})
		f.m.Velocity = mgl64.Vec3{0, 0, 0.1}
		NewAvoidanceSystem(nil).Update(w, fr)
		assert.Greater(t, f.m.Velocity.Z(), 0.1)
	})
}

func TestAvoidanceKeepOutBox(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0.3, 0.5, 0})
	f.m.Velocity = mgl64.Vec3{-0.2, 0, 0}

	fr := frame(tick)
	fr.KeepOut = &ecs.KeepOut{Center: mgl64.Vec3{0, 0.5, 0}, HalfExtents: mgl64.Vec3{0.2, 0.2, 0.2}}
	NewAvoidanceSystem(nil).Update(w, fr)
	assert.Greater(t, f.m.Velocity.X(), -0.2)

	far := addFairy(t, w, mgl64.Vec3{1, 0.5, 0})
	far.m.Velocity = mgl64.Vec3{-0.2, 0, 0}
	NewAvoidanceSystem(nil).Update(w, fr)
	assert.Equal(t, -0.2, far.m.Velocity.X())
}

func TestAvoidanceSkipsScripted(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	f.m.Velocity = mgl64.Vec3{0.3, 0, 0}
	curve := component.DefaultLissajous()
	require.NoError(t, ecs.Add(w, f.e, component.MovementModeComponent.Kind(), &component.MovementMode{
		Kind:  component.MovementScriptedCurve,
		Curve: curve,
	}))

	NewAvoidanceSystem(noHits{}).Update(w, frame(tick))
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, f.t.Position)
}

func TestAvoidanceClampsSpeed(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 0.05, 0})
	f.m.Velocity = mgl64.Vec3{0, 0.49, 0}

	floor := planeQuery{Point: mgl64.Vec3{}, Normal: mgl64.Vec3{0, 1, 0}}
	NewAvoidanceSystem(floor).Update(w, frame(0.1))
	assert.LessOrEqual(t, f.m.Velocity.Len(), f.m.MaxSpeed+1e-12)
}
