package system

import (
	"math"

	"github.com/milk9111/fairyflight/common"
)

// flapRate maps upward speed onto a phase rate between base and max. Falling
// or hovering uses the base rate.
func flapRate(vy, base, max, velocityForMax float64) float64 {
	t := 1.0
	if velocityForMax > 0 {
		t = common.Clamp01(math.Max(vy, 0) / velocityForMax)
	}
	return common.Lerp(base, max, t)
}

// advancePhase keeps the accumulator within one turn.
func advancePhase(phase, rate, dt float64) float64 {
	return math.Mod(phase+rate*dt, 2*math.Pi)
}
