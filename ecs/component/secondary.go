package component

// SecondaryMotion holds the oscillator state behind the rig's jiggle.
// Dress petals share one spring, as do both arms.
type SecondaryMotion struct {
	Hair  Spring
	Dress Spring
	Arms  Spring
	LegsX Spring
	LegsZ Spring

	WingPhase float64
	FootPhase float64
}

var SecondaryMotionComponent = NewComponent[SecondaryMotion]("secondary_motion")
