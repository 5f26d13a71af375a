package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

type LegsParams struct {
	Spring    component.SpringParams
	Influence float64
	MaxTilt   float64
}

func DefaultLegsParams() LegsParams {
	return LegsParams{
		Spring:    component.SpringParams{Stiffness: 12, Damping: 1.5},
		Influence: 1.5,
		MaxTilt:   common.Deg(12),
	}
}

// LegsSystem tilts the lower body against the character's own direction of
// travel. Velocity is taken in the character's local frame so the spin does
// not feed into the sway.
type LegsSystem struct {
	Params LegsParams
}

func NewLegsSystem() *LegsSystem {
	return &LegsSystem{Params: DefaultLegsParams()}
}

func (s *LegsSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	p := s.Params

	ecs.ForEach3(w, component.SecondaryMotionComponent.Kind(), component.MotionComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, sm *component.SecondaryMotion, m *component.Motion, t *component.Transform) {
		if !isActive(w, e) {
			return
		}

		rot := t.Rotation
		if rot.Len() == 0 {
			rot = mgl64.QuatIdent()
		}
		local := rot.Inverse().Rotate(m.Velocity)

		targetX := common.Clamp(local.Z()*p.Influence, -p.MaxTilt, p.MaxTilt)
		targetZ := common.Clamp(-local.X()*p.Influence, -p.MaxTilt, p.MaxTilt)
		sm.LegsX.Step(p.Spring, targetX, 0, f.Dt)
		sm.LegsZ.Step(p.Spring, targetZ, 0, f.Dt)

		rig, b := boundRig(w, e)
		if rig == nil {
			return
		}
		swayX := common.AxisAngle(sm.LegsX.Angle, common.AxisX)
		swayZ := common.AxisAngle(sm.LegsZ.Angle, common.AxisZ)
		writeJoint(rig, b.Lower, b.Lower.Original.Mul(swayX).Mul(swayZ))
	})
}
