package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/milk9111/fairyflight/pose"
	"go.uber.org/zap"
)

// NoHandDistance is reported when no hand joint is tracked.
const NoHandDistance = 10.0

type ProximityParams struct {
	HeldThreshold float64
	// ReleaseMargin widens the threshold for leaving the held state.
	// Zero keeps a single cutoff.
	ReleaseMargin  float64
	InfluenceRange float64
	SpinBoostMax   float64
}

func DefaultProximityParams() ProximityParams {
	return ProximityParams{
		HeldThreshold:  0.15,
		InfluenceRange: 0.5,
		SpinBoostMax:   2.0,
	}
}

// ProximitySystem measures the distance from each character to the nearest
// tracked hand joint and derives the held flag and spin multiplier.
type ProximitySystem struct {
	Params ProximityParams
	log    *zap.Logger
}

func NewProximitySystem(log *zap.Logger) *ProximitySystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProximitySystem{Params: DefaultProximityParams(), log: log}
}

func (s *ProximitySystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || f == nil {
		return
	}

	ecs.ForEach2(w, component.BehaviorComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, b *component.Behavior, t *component.Transform) {
		if !isActive(w, e) {
			return
		}

		minDist := nearestJoint(f.Poses, t.Position)
		b.HandDistance = minDist

		threshold := s.Params.HeldThreshold
		if b.Held {
			threshold += s.Params.ReleaseMargin
		}
		held := minDist < threshold

		influence := b.InfluenceRange
		if influence <= 0 {
			influence = s.Params.InfluenceRange
		}
		b.SpinMultiplier = SpinMultiplier(minDist, influence, s.Params.SpinBoostMax)

		if held != b.Held {
			s.log.Debug("held state changed",
				zap.Stringer("entity", e),
				zap.Bool("held", held),
				zap.Float64("min_distance", minDist),
			)
			w.Events().Push(ecs.Event{
				Type: ecs.EventHeldChanged,
				Data: ecs.HeldChanged{Entity: e, Held: held, MinDistance: minDist},
			})
		}
		b.Held = held
	})
}

// SpinMultiplier scales linearly from 1 at the edge of the influence range up
// to boost at zero distance.
func SpinMultiplier(minDist, influence, boost float64) float64 {
	if influence <= 0 || minDist >= influence {
		return 1
	}
	proximity := 1 - minDist/influence
	return 1 + (boost-1)*proximity
}

func nearestJoint(s pose.Snapshot, p mgl64.Vec3) float64 {
	minDist := math.Inf(1)
	for _, side := range []pose.Side{pose.Left, pose.Right} {
		for _, j := range s.HandJointPositions(side) {
			if d := j.Sub(p).Len(); d < minDist {
				minDist = d
			}
		}
	}
	if math.IsInf(minDist, 1) {
		return NoHandDistance
	}
	return minDist
}
