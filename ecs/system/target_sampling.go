package system

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/pose"
)

// TargetSampling bounds where new flight targets may land.
type TargetSampling struct {
	// Frustum in front of the user, relative to the head.
	ForwardMin float64
	ForwardMax float64
	Lateral    float64
	HeightMin  float64
	HeightMax  float64

	// Body exclusion cylinder.
	ExclusionRadius float64
	HeadClearance   float64
	Retries         int

	// Fallback box used without a head pose or after the retries run out.
	BoxMin mgl64.Vec3
	BoxMax mgl64.Vec3
}

func DefaultTargetSampling() TargetSampling {
	return TargetSampling{
		ForwardMin:      0.5,
		ForwardMax:      2.0,
		Lateral:         1.5,
		HeightMin:       0.8,
		HeightMax:       2.0,
		ExclusionRadius: 0.7,
		HeadClearance:   0.1,
		Retries:         10,
		BoxMin:          mgl64.Vec3{-1.5, 0.8, -1.5},
		BoxMax:          mgl64.Vec3{1.5, 2.0, 1.5},
	}
}

// InExclusion reports whether p lies inside the body cylinder around head.
func (ts TargetSampling) InExclusion(p, head mgl64.Vec3) bool {
	horiz := common.Horizontal(p.Sub(head)).Len()
	return horiz < ts.ExclusionRadius && p.Y() < head.Y()+ts.HeadClearance
}

// Sample picks a new flight target. With a head pose it tries the frustum in
// front of the user first, rejecting points in the exclusion zone.
func (ts TargetSampling) Sample(rng *rand.Rand, head *pose.Head) mgl64.Vec3 {
	if head != nil {
		if fwd, ok := head.Forward(); ok {
			right := mgl64.Vec3{fwd.Z(), 0, -fwd.X()}
			for i := 0; i < ts.Retries; i++ {
				fd := uniform(rng, ts.ForwardMin, ts.ForwardMax)
				sd := uniform(rng, -ts.Lateral, ts.Lateral)
				y := uniform(rng, ts.HeightMin, ts.HeightMax)

				p := head.Position.Add(fwd.Mul(fd)).Add(right.Mul(sd))
				p[1] = y
				if ts.InExclusion(p, head.Position) {
					continue
				}
				return p
			}
		}
	}

	return mgl64.Vec3{
		uniform(rng, ts.BoxMin.X(), ts.BoxMax.X()),
		uniform(rng, ts.BoxMin.Y(), ts.BoxMax.Y()),
		uniform(rng, ts.BoxMin.Z(), ts.BoxMax.Z()),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	if rng == nil {
		return lo + rand.Float64()*(hi-lo)
	}
	return lo + rng.Float64()*(hi-lo)
}
