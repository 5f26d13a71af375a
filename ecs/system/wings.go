package system

import (
	"math"

	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

type WingsParams struct {
	BaseRate       float64
	MaxRate        float64
	VelocityForMax float64
	AmplitudeUp    float64
	AmplitudeDown  float64
	// The fan spread breathes from MinSpread at the bottom of the stroke to
	// MaxSpread at the top.
	MinSpread float64
	MaxSpread float64
}

func DefaultWingsParams() WingsParams {
	return WingsParams{
		BaseRate:       6,
		MaxRate:        55,
		VelocityForMax: 0.4,
		AmplitudeUp:    common.Deg(30),
		AmplitudeDown:  common.Deg(10),
		MinSpread:      math.Pi / 30,
		MaxSpread:      math.Pi / 8,
	}
}

// WingsSystem flaps both wing fans about Y from a phase accumulator.
type WingsSystem struct {
	Params WingsParams
}

func NewWingsSystem() *WingsSystem {
	return &WingsSystem{Params: DefaultWingsParams()}
}

// WingAngles returns the base stroke angle and the per-wing fan step at phase
// for a fan of n wings.
func (p WingsParams) WingAngles(phase float64, n int) (base, step float64) {
	sn := math.Sin(phase)
	if sn >= 0 {
		base = sn * p.AmplitudeUp
	} else {
		base = sn * p.AmplitudeDown
	}
	breathe := (sn + 1) * 0.5
	spread := common.Lerp(p.MinSpread, p.MaxSpread, breathe)
	if n > 1 {
		step = spread / float64(n-1)
	}
	return base, step
}

func (s *WingsSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	p := s.Params

	ecs.ForEach2(w, component.SecondaryMotionComponent.Kind(), component.MotionComponent.Kind(), func(e ecs.Entity, sm *component.SecondaryMotion, m *component.Motion) {
		if !isActive(w, e) {
			return
		}

		rate := flapRate(m.Velocity.Y(), p.BaseRate, p.MaxRate, p.VelocityForMax)
		sm.WingPhase = advancePhase(sm.WingPhase, rate, f.Dt)

		rig, b := boundRig(w, e)
		if rig == nil {
			return
		}
		for _, fan := range [][]component.BoundJoint{b.WingsRight, b.WingsLeft} {
			base, step := p.WingAngles(sm.WingPhase, len(fan))
			for i, j := range fan {
				writeJoint(rig, j, common.AxisAngle(base+step*float64(i), common.AxisY))
			}
		}
	})
}
