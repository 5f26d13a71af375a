package system

import (
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

// CurveSystem drives ScriptedCurve characters along their curve. It runs in
// place of steering and avoidance for those characters.
type CurveSystem struct{}

func NewCurveSystem() *CurveSystem {
	return &CurveSystem{}
}

func (s *CurveSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	dt := f.Dt

	ecs.ForEach3(w, component.MovementModeComponent.Kind(), component.TransformComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, mode *component.MovementMode, t *component.Transform, m *component.Motion) {
		if !mode.Scripted() || !isActive(w, e) {
			return
		}

		mode.Time += dt
		pos, vel, ok := mode.Curve.Sample(mode.Time)
		if !ok || !common.FiniteVec(pos) || !common.FiniteVec(vel) {
			return
		}
		t.Position = pos
		if m.MaxSpeed > 0 {
			vel = common.ClampLen(vel, m.MaxSpeed)
		}
		m.Velocity = vel

		if b, ok := ecs.Get(w, e, component.BehaviorComponent.Kind()); ok {
			b.TotalTime += dt
			spin := common.AxisAngle(b.SpinRate*dt, common.AxisY)
			t.Rotation = t.Rotation.Mul(spin).Normalize()
		}
	})
}
