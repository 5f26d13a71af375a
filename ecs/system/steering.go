package system

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/milk9111/fairyflight/pose"
)

type SteeringParams struct {
	SteerAccel     float64
	ArrivalEpsilon float64
	Damping        float64
	HoverRate      float64
	HoverAccel     float64

	// Steering fades linearly from zero at SteerFalloffInner to full
	// strength at SteerFalloffOuter, measured horizontally from the user.
	SteerFalloffInner float64
	SteerFalloffOuter float64

	HeldHorizontalDecay float64
	HeldLiftRate        float64
	HeldSpinMultiplier  float64

	Sampling TargetSampling
}

func DefaultSteeringParams() SteeringParams {
	return SteeringParams{
		SteerAccel:          0.8,
		ArrivalEpsilon:      0.05,
		Damping:             0.5,
		HoverRate:           1.5,
		HoverAccel:          0.03,
		SteerFalloffInner:   0,
		SteerFalloffOuter:   0.8,
		HeldHorizontalDecay: 2.0,
		HeldLiftRate:        3.0,
		HeldSpinMultiplier:  2.0,
		Sampling:            DefaultTargetSampling(),
	}
}

// SteeringSystem flies each character toward its flight target and picks a
// new one when the retarget timer runs out. It never moves the character;
// avoidance integrates the resulting velocity.
type SteeringSystem struct {
	Params SteeringParams
	rng    *rand.Rand
}

func NewSteeringSystem(rng *rand.Rand) *SteeringSystem {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &SteeringSystem{Params: DefaultSteeringParams(), rng: rng}
}

func (s *SteeringSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() {
		return
	}
	dt := f.Dt
	p := s.Params

	var head *pose.Head
	if h, ok := f.Poses.HeadPose(); ok {
		head = &h
	}

	ecs.ForEach3(w, component.BehaviorComponent.Kind(), component.MotionComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, b *component.Behavior, m *component.Motion, t *component.Transform) {
		if !isActive(w, e) || isScripted(w, e) {
			return
		}

		b.TotalTime += dt
		v := m.Velocity

		if b.Held {
			decay := common.Decay(p.HeldHorizontalDecay, dt)
			v[0] *= decay
			v[2] *= decay
			v[1] += (b.LiftSpeed - v[1]) * (1 - common.Decay(p.HeldLiftRate, dt))
		} else {
			b.TimeUntilNewTarget -= dt
			if b.TimeUntilNewTarget <= 0 {
				b.FlightTarget = p.Sampling.Sample(s.rng, head)
				b.TimeUntilNewTarget = b.TargetChangePeriod
			}

			if head != nil && p.Sampling.InExclusion(b.FlightTarget, head.Position) {
				b.FlightTarget = p.Sampling.Sample(s.rng, head)
				b.TimeUntilNewTarget = b.TargetChangePeriod
			}

			toTarget := b.FlightTarget.Sub(t.Position)
			if dist := toTarget.Len(); dist > p.ArrivalEpsilon {
				dir := toTarget.Mul(1 / dist)
				scale := 1.0
				if head != nil {
					scale = p.steerScale(t.Position, head.Position)
				}
				v = v.Add(dir.Mul(p.SteerAccel * dt * scale))
			}
		}

		v = v.Mul(common.Decay(p.Damping, dt))
		if !b.Held {
			v[1] += math.Sin(b.TotalTime*p.HoverRate) * p.HoverAccel * dt
		}

		m.Velocity = common.ClampLen(v, speedLimit(b, m))

		mult := b.SpinMultiplier
		if mult <= 0 {
			mult = 1
		}
		if b.Held && mult < p.HeldSpinMultiplier {
			mult = p.HeldSpinMultiplier
		}
		spin := common.AxisAngle(b.SpinRate*mult*dt, common.AxisY)
		t.Rotation = t.Rotation.Mul(spin).Normalize()
	})
}

// steerScale is 1 away from the user and fades to 0 near the body axis while
// the character is below head height.
func (p SteeringParams) steerScale(pos, head mgl64.Vec3) float64 {
	if pos.Y() >= head.Y()+p.Sampling.HeadClearance {
		return 1
	}
	span := p.SteerFalloffOuter - p.SteerFalloffInner
	if span <= 0 {
		return 1
	}
	horiz := common.Horizontal(pos.Sub(head)).Len()
	return common.Clamp01((horiz - p.SteerFalloffInner) / span)
}

// speedLimit is the lower of the cruising speed and the hard cap.
func speedLimit(b *component.Behavior, m *component.Motion) float64 {
	limit := m.MaxSpeed
	if b != nil && b.FlightSpeed > 0 && (limit <= 0 || b.FlightSpeed < limit) {
		limit = b.FlightSpeed
	}
	if limit <= 0 {
		return math.Inf(1)
	}
	return limit
}
