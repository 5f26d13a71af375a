package system

import (
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

type ArmsParams struct {
	Spring    component.SpringParams
	Influence float64
	SwayDown  float64
	SwayUp    float64
}

func DefaultArmsParams() ArmsParams {
	return ArmsParams{
		Spring:    component.SpringParams{Stiffness: 12, Damping: 1.5},
		Influence: 60,
		SwayDown:  common.Deg(5),
		SwayUp:    common.Deg(25),
	}
}

type ArmsSystem struct {
	Params ArmsParams
}

func NewArmsSystem() *ArmsSystem {
	return &ArmsSystem{Params: DefaultArmsParams()}
}

func (s *ArmsSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	p := s.Params

	ecs.ForEach2(w, component.SecondaryMotionComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, sm *component.SecondaryMotion, m *component.Motion) {
		if !isActive(w, e) {
			return
		}

		target := common.Clamp(-m.Velocity.Y()*p.Influence, -p.SwayDown, p.SwayUp)
		sm.Arms.Step(p.Spring, target, 0, f.Dt)

		rig, b := boundRig(w, e)
		if rig == nil {
			return
		}
		sway := common.AxisAngle(sm.Arms.Angle, common.AxisZ)
		for _, j := range b.ArmsRight {
			writeJoint(rig, j, j.Original.Mul(sway))
		}
		for _, j := range b.ArmsLeft {
			writeJoint(rig, j, j.Original.Mul(sway))
		}
	})
}
