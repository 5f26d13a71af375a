package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	AxisX = mgl64.Vec3{1, 0, 0}
	AxisY = mgl64.Vec3{0, 1, 0}
	AxisZ = mgl64.Vec3{0, 0, 1}
)

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

func Deg(d float64) float64 {
	return d * math.Pi / 180
}

func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func FiniteVec(v mgl64.Vec3) bool {
	return Finite(v[0]) && Finite(v[1]) && Finite(v[2])
}

// Horizontal drops the Y component.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], 0, v[2]}
}

// ClampLen scales v down to max length.
func ClampLen(v mgl64.Vec3, max float64) mgl64.Vec3 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

// AxisAngle is a normalized rotation of angle radians about axis.
func AxisAngle(angle float64, axis mgl64.Vec3) mgl64.Quat {
	return mgl64.QuatRotate(angle, axis)
}

// Decay is the per-tick factor of an exponential decay at rate per second.
func Decay(rate, dt float64) float64 {
	return math.Exp(-rate * dt)
}
