package component

import (
	"math"
	"testing"
)

func TestSpringConverges(t *testing.T) {
	tests := []struct {
		name   string
		start  float64
		target float64
	}{
		{name: "small offset", start: 0.01, target: 0},
		{name: "large offset", start: 1.0, target: 0},
		{name: "toward rest", start: 0, target: -35 * math.Pi / 180},
	}

	p := SpringParams{Stiffness: 10, Damping: 0.8}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Spring{Angle: tt.start}
			for i := 0; i < 500; i++ {
				s.Step(p, tt.target, 0, 1.0/60)
			}
			// 500 ticks is ~8.3s; the envelope decays as exp(-0.4t).
			limit := 1e-3
			if math.Abs(tt.start-tt.target) > 0.1 {
				limit = math.Abs(tt.start-tt.target) * 0.05
			}
			if math.Abs(s.Angle-tt.target) > limit {
				t.Fatalf("angle %v did not converge to %v", s.Angle, tt.target)
			}
		})
	}
}

func TestSpringNonFiniteResets(t *testing.T) {
	s := Spring{Angle: 0.5, Velocity: 1}
	s.Step(SpringParams{Stiffness: 10, Damping: 0.8}, 0.2, math.Inf(1), 1.0/60)
	if s.Angle != 0.2 || s.Velocity != 0 {
		t.Fatalf("expected reset to target, got %+v", s)
	}

	s = Spring{Angle: math.NaN()}
	s.Step(SpringParams{Stiffness: 10, Damping: 0.8}, 0, 0, 1.0/60)
	if s.Angle != 0 || s.Velocity != 0 {
		t.Fatalf("expected reset to target, got %+v", s)
	}
}

func TestSpringClamp(t *testing.T) {
	s := Spring{Angle: 2, Velocity: 3}
	s.Clamp(-1, 1)
	if s.Angle != 1 || s.Velocity != 0 {
		t.Fatalf("upper clamp: %+v", s)
	}

	s = Spring{Angle: 2, Velocity: -3}
	s.Clamp(-1, 1)
	if s.Angle != 1 || s.Velocity != -3 {
		t.Fatalf("upper clamp keeps outward velocity: %+v", s)
	}

	s = Spring{Angle: -2, Velocity: -3}
	s.Clamp(-1, 1)
	if s.Angle != -1 || s.Velocity != 0 {
		t.Fatalf("lower clamp: %+v", s)
	}
}
