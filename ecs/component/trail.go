package component

// TrailEmitter drops decorations on nearby surfaces at EmissionRate per second.
type TrailEmitter struct {
	EmissionRate              float64
	TimeSinceLastEmission     float64
	SurfaceProximityThreshold float64
	Kinds                     []string
}

// Interval is the time between emissions, or 0 when the emitter is off.
func (e *TrailEmitter) Interval() float64 {
	if e == nil || e.EmissionRate <= 0 {
		return 0
	}
	return 1 / e.EmissionRate
}

var TrailEmitterComponent = NewComponent[TrailEmitter]("trail_emitter")

// Decoration is present only while a pooled marker is live.
type Decoration struct {
	Age          float64
	MaxAge       float64
	FadeDuration float64
}

var DecorationComponent = NewComponent[Decoration]("decoration")

type Color struct {
	R, G, B float64
}

// Appearance is the presentation state of a pooled marker.
type Appearance struct {
	Kind    string
	Color   Color
	Opacity float64
	Visible bool
}

var AppearanceComponent = NewComponent[Appearance]("appearance")
