package sim

import (
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

// Snapshot is the observable state of the character after a frame.
type Snapshot struct {
	Session        string     `json:"session" yaml:"session"`
	Frame          uint64     `json:"frame" yaml:"frame"`
	Elapsed        float64    `json:"elapsed" yaml:"elapsed"`
	Active         bool       `json:"active" yaml:"active"`
	Toy            string     `json:"toy" yaml:"toy"`
	Mode           string     `json:"mode" yaml:"mode"`
	Position       [3]float64 `json:"position" yaml:"position,flow"`
	Rotation       [4]float64 `json:"rotation" yaml:"rotation,flow"`
	Velocity       [3]float64 `json:"velocity" yaml:"velocity,flow"`
	Target         [3]float64 `json:"target" yaml:"target,flow"`
	Held           bool       `json:"held" yaml:"held"`
	HandDistance   float64    `json:"hand_distance" yaml:"hand_distance"`
	SpinMultiplier float64    `json:"spin_multiplier" yaml:"spin_multiplier"`
	LaunchGrace    float64    `json:"launch_grace" yaml:"launch_grace"`
	Decorations    int        `json:"active_decorations" yaml:"active_decorations"`
	FreeDecos      int        `json:"free_decorations" yaml:"free_decorations"`
}

// Decoration is one live trail marker.
type Decoration struct {
	Kind     string     `json:"kind"`
	Position [3]float64 `json:"position"`
	Normal   [3]float64 `json:"normal"`
	Scale    float64    `json:"scale"`
	Color    [3]float64 `json:"color"`
	Opacity  float64    `json:"opacity"`
	Age      float64    `json:"age"`
}

func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Session:     s.id.String(),
		Frame:       s.frame,
		Elapsed:     s.elapsed,
		Decorations: s.pool.Active(),
		FreeDecos:   s.pool.Free(),
	}

	w, e := s.world, s.fairy
	if a, ok := ecs.Get(w, e, component.ActivationComponent.Kind()); ok {
		snap.Active = a.Active
		snap.Toy = string(a.Toy)
	}
	if mode, ok := ecs.Get(w, e, component.MovementModeComponent.Kind()); ok {
		snap.Mode = mode.Kind.String()
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		snap.Position = t.Position
		snap.Rotation = [4]float64{t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2], t.Rotation.W}
	}
	if m, ok := ecs.Get(w, e, component.MotionComponent.Kind()); ok {
		snap.Velocity = m.Velocity
	}
	if b, ok := ecs.Get(w, e, component.BehaviorComponent.Kind()); ok {
		snap.Target = b.FlightTarget
		snap.Held = b.Held
		snap.HandDistance = b.HandDistance
		snap.SpinMultiplier = b.SpinMultiplier
		snap.LaunchGrace = b.LaunchGrace
	}
	return snap
}

// Decorations lists the live trail markers.
func (s *Simulation) Decorations() []Decoration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Decoration
	ecs.ForEach3(s.world,
		component.DecorationComponent.Kind(),
		component.TransformComponent.Kind(),
		component.AppearanceComponent.Kind(),
		func(_ ecs.Entity, d *component.Decoration, t *component.Transform, app *component.Appearance) {
			if !app.Visible {
				return
			}
			up := t.Rotation.Rotate(common.AxisY)
			out = append(out, Decoration{
				Kind:     app.Kind,
				Position: t.Position,
				Normal:   up,
				Scale:    t.Scale.X(),
				Color:    [3]float64{app.Color.R, app.Color.G, app.Color.B},
				Opacity:  app.Opacity,
				Age:      d.Age,
			})
		})
	return out
}
