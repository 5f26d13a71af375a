package component

import "github.com/go-gl/mathgl/mgl64"

// Behavior is the per-character flight state.
type Behavior struct {
	FlightTarget       mgl64.Vec3
	FlightSpeed        float64
	TimeUntilNewTarget float64
	TargetChangePeriod float64

	SpinRate float64
	// SpinMultiplier is written by the proximity system: 1 outside the hand
	// influence range, up to the configured boost when touching.
	SpinMultiplier float64
	LiftSpeed      float64

	Held           bool
	HandDistance   float64
	InfluenceRange float64

	TotalTime float64
	// LaunchGrace counts down after activation; avoidance is off while > 0.
	LaunchGrace float64
}

var BehaviorComponent = NewComponent[Behavior]("behavior")
