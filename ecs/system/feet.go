package system

import (
	"math"

	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

type FeetParams struct {
	BaseRate       float64
	MaxRate        float64
	VelocityForMax float64
	Amplitude      float64
	PhaseOffset    float64
}

func DefaultFeetParams() FeetParams {
	return FeetParams{
		BaseRate:       4,
		MaxRate:        30,
		VelocityForMax: 0.4,
		Amplitude:      math.Pi / 5,
		PhaseOffset:    math.Pi,
	}
}

// FeetSystem flutters the feet about X, the left foot trailing the right by
// PhaseOffset.
type FeetSystem struct {
	Params FeetParams
}

func NewFeetSystem() *FeetSystem {
	return &FeetSystem{Params: DefaultFeetParams()}
}

func (s *FeetSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	p := s.Params

	ecs.ForEach2(w, component.SecondaryMotionComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, sm *component.SecondaryMotion, m *component.Motion) {
		if !isActive(w, e) {
			return
		}

		rate := flapRate(m.Velocity.Y(), p.BaseRate, p.MaxRate, p.VelocityForMax)
		sm.FootPhase = advancePhase(sm.FootPhase, rate, f.Dt)

		rig, b := boundRig(w, e)
		if rig == nil {
			return
		}
		right := common.AxisAngle(math.Sin(sm.FootPhase)*p.Amplitude, common.AxisX)
		left := common.AxisAngle(math.Sin(sm.FootPhase+p.PhaseOffset)*p.Amplitude, common.AxisX)
		writeJoint(rig, b.FootRight, b.FootRight.Original.Mul(right))
		writeJoint(rig, b.FootLeft, b.FootLeft.Original.Mul(left))
	})
}
