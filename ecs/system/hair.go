package system

import (
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

type HairParams struct {
	Spring    component.SpringParams
	Influence float64
	RestAngle float64
	MinAngle  float64
	MaxAngle  float64
}

func DefaultHairParams() HairParams {
	return HairParams{
		Spring:    component.SpringParams{Stiffness: 10, Damping: 0.8},
		Influence: 120,
		RestAngle: common.Deg(-35),
		MinAngle:  common.Deg(-120),
		MaxAngle:  common.Deg(-60),
	}
}

// HairSystem bobs the hair pivot about X against vertical velocity: rising
// swings the hair down.
type HairSystem struct {
	Params HairParams
}

func NewHairSystem() *HairSystem {
	return &HairSystem{Params: DefaultHairParams()}
}

func (s *HairSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	p := s.Params

	ecs.ForEach2(w, component.SecondaryMotionComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, sm *component.SecondaryMotion, m *component.Motion) {
		if !isActive(w, e) {
			return
		}

		drive := -m.Velocity.Y() * p.Influence
		sm.Hair.Step(p.Spring, p.RestAngle, drive, f.Dt)
		sm.Hair.Clamp(p.MinAngle, p.MaxAngle)

		rig, b := boundRig(w, e)
		if rig == nil {
			return
		}
		writeJoint(rig, b.Hair, common.AxisAngle(sm.Hair.Angle, common.AxisX))
	})
}
