package component

import "math"

// SpringParams tunes a damped angular oscillator.
type SpringParams struct {
	Stiffness float64
	Damping   float64
}

// Spring is one axis of a damped harmonic oscillator, in radians.
type Spring struct {
	Angle    float64
	Velocity float64
}

// Step advances the spring toward target by dt using semi-implicit Euler.
// drive is an external angular acceleration added to the restoring force.
// A step that would leave the state non-finite snaps the spring to target.
func (s *Spring) Step(p SpringParams, target, drive, dt float64) {
	force := -p.Stiffness*(s.Angle-target) - p.Damping*s.Velocity + drive
	vel := s.Velocity + force*dt
	angle := s.Angle + vel*dt
	if math.IsNaN(vel) || math.IsInf(vel, 0) || math.IsNaN(angle) || math.IsInf(angle, 0) {
		s.Angle = target
		s.Velocity = 0
		return
	}
	s.Velocity = vel
	s.Angle = angle
}

// Clamp limits the angle to [lo, hi]. Velocity carrying the angle further
// past the limit is dropped.
func (s *Spring) Clamp(lo, hi float64) {
	if s.Angle < lo {
		s.Angle = lo
		if s.Velocity < 0 {
			s.Velocity = 0
		}
	} else if s.Angle > hi {
		s.Angle = hi
		if s.Velocity > 0 {
			s.Velocity = 0
		}
	}
}

func (s *Spring) Reset(angle float64) {
	s.Angle = angle
	s.Velocity = 0
}
