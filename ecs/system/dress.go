package system

import (
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

type DressParams struct {
	Spring    component.SpringParams
	Influence float64
	// SwayUp is the tuck-in limit when rising, SwayDown the flare when falling.
	SwayUp   float64
	SwayDown float64
}

func DefaultDressParams() DressParams {
	return DressParams{
		Spring:    component.SpringParams{Stiffness: 15, Damping: 1.2},
		Influence: 80,
		SwayUp:    common.Deg(4),
		SwayDown:  common.Deg(10),
	}
}

// DressSystem sways every dress petal by the same X rotation on top of the
// petal's bound rotation.
type DressSystem struct {
	Params DressParams
}

func NewDressSystem() *DressSystem {
	return &DressSystem{Params: DefaultDressParams()}
}

func (s *DressSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	p := s.Params

	ecs.ForEach2(w, component.SecondaryMotionComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, sm *component.SecondaryMotion, m *component.Motion) {
		if !isActive(w, e) {
			return
		}

		target := common.Clamp(-m.Velocity.Y()*p.Influence, -p.SwayUp, p.SwayDown)
		sm.Dress.Step(p.Spring, target, 0, f.Dt)

		rig, b := boundRig(w, e)
		if rig == nil {
			return
		}
		sway := common.AxisAngle(sm.Dress.Angle, common.AxisX)
		for _, j := range b.Dress {
			writeJoint(rig, j, j.Original.Mul(sway))
		}
	})
}
