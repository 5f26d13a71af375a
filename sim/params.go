package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/milk9111/fairyflight/ecs/system"
	"github.com/milk9111/fairyflight/prefabs"
)

func springParams(s prefabs.SpringSpec) component.SpringParams {
	return component.SpringParams{Stiffness: s.Stiffness, Damping: s.Damping}
}

func proximityParams(s prefabs.FairySpec) system.ProximityParams {
	return system.ProximityParams{
		HeldThreshold:  s.Proximity.HeldThreshold,
		ReleaseMargin:  s.Proximity.ReleaseMargin,
		InfluenceRange: s.Proximity.InfluenceRange,
		SpinBoostMax:   s.Proximity.SpinBoostMax,
	}
}

func steeringParams(s prefabs.FairySpec) system.SteeringParams {
	f := s.Flight
	return system.SteeringParams{
		SteerAccel:          f.SteerAccel,
		ArrivalEpsilon:      f.ArrivalEpsilon,
		Damping:             f.Damping,
		HoverRate:           f.HoverRate,
		HoverAccel:          f.HoverAccel,
		SteerFalloffInner:   f.SteerFalloffInner,
		SteerFalloffOuter:   f.SteerFalloffOuter,
		HeldHorizontalDecay: f.HeldHorizontalDecay,
		HeldLiftRate:        f.HeldLiftRate,
		HeldSpinMultiplier:  f.HeldSpinMultiplier,
		Sampling: system.TargetSampling{
			ForwardMin:      f.Sampling.ForwardMin,
			ForwardMax:      f.Sampling.ForwardMax,
			Lateral:         f.Sampling.Lateral,
			HeightMin:       f.Sampling.HeightMin,
			HeightMax:       f.Sampling.HeightMax,
			ExclusionRadius: f.Sampling.ExclusionRadius,
			HeadClearance:   f.Sampling.HeadClearance,
			Retries:         f.Sampling.Retries,
			BoxMin:          mgl64.Vec3(f.Sampling.BoxMin),
			BoxMax:          mgl64.Vec3(f.Sampling.BoxMax),
		},
	}
}

func avoidanceParams(s prefabs.FairySpec) system.AvoidanceParams {
	a := s.Avoidance
	return system.AvoidanceParams{
		SenseRange:    a.SenseRange,
		RepelStrength: a.RepelStrength,
		BodyRadius:    a.BodyRadius,
		BodySense:     a.BodySense,
		BodyRepel:     a.BodyRepel,
		HeadClearance: a.HeadClearance,
		BoxMargin:     a.BoxMargin,
		BoxRepel:      a.BoxRepel,
	}
}

func hairParams(s prefabs.FairySpec) system.HairParams {
	return system.HairParams{
		Spring:    springParams(s.Hair.Spring),
		Influence: s.Hair.Influence,
		RestAngle: common.Deg(s.Hair.RestDeg),
		MinAngle:  common.Deg(s.Hair.MinDeg),
		MaxAngle:  common.Deg(s.Hair.MaxDeg),
	}
}

func dressParams(s prefabs.FairySpec) system.DressParams {
	return system.DressParams{
		Spring:    springParams(s.Dress.Spring),
		Influence: s.Dress.Influence,
		SwayUp:    common.Deg(s.Dress.SwayUpDeg),
		SwayDown:  common.Deg(s.Dress.SwayDownDeg),
	}
}

func armsParams(s prefabs.FairySpec) system.ArmsParams {
	return system.ArmsParams{
		Spring:    springParams(s.Arms.Spring),
		Influence: s.Arms.Influence,
		SwayDown:  common.Deg(s.Arms.SwayDownDeg),
		SwayUp:    common.Deg(s.Arms.SwayUpDeg),
	}
}

func legsParams(s prefabs.FairySpec) system.LegsParams {
	return system.LegsParams{
		Spring:    springParams(s.Legs.Spring),
		Influence: s.Legs.Influence,
		MaxTilt:   common.Deg(s.Legs.MaxTiltDeg),
	}
}

func wingsParams(s prefabs.FairySpec) system.WingsParams {
	w := s.Wings
	return system.WingsParams{
		BaseRate:       w.BaseRate,
		MaxRate:        w.MaxRate,
		VelocityForMax: w.VelocityForMax,
		AmplitudeUp:    common.Deg(w.AmplitudeUpDeg),
		AmplitudeDown:  common.Deg(w.AmplitudeDownDeg),
		MinSpread:      common.Deg(w.MinSpreadDeg),
		MaxSpread:      common.Deg(w.MaxSpreadDeg),
	}
}

func feetParams(s prefabs.FairySpec) system.FeetParams {
	f := s.Feet
	return system.FeetParams{
		BaseRate:       f.BaseRate,
		MaxRate:        f.MaxRate,
		VelocityForMax: f.VelocityForMax,
		Amplitude:      common.Deg(f.AmplitudeDeg),
		PhaseOffset:    common.Deg(f.PhaseOffsetDeg),
	}
}

func poolParams(s prefabs.FairySpec) system.PoolParams {
	p := s.Pool
	palette := make([]component.Color, 0, len(p.Palette))
	for _, c := range p.Palette {
		palette = append(palette, component.Color{R: c.R, G: c.G, B: c.B})
	}
	return system.PoolParams{
		Warm:          p.Warm,
		Capacity:      p.Capacity,
		MaxAge:        p.MaxAge,
		FadeDuration:  p.FadeDuration,
		ScaleMin:      p.ScaleMin,
		ScaleMax:      p.ScaleMax,
		SurfaceOffset: p.SurfaceOffset,
		Palette:       palette,
	}
}
