package system

import (
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

// TrailLifecycleSystem ages live decorations, fades them past MaxAge and
// hands them back to the pool once the fade completes.
type TrailLifecycleSystem struct {
	Pool *DecorationPool
}

func NewTrailLifecycleSystem(pool *DecorationPool) *TrailLifecycleSystem {
	return &TrailLifecycleSystem{Pool: pool}
}

func (s *TrailLifecycleSystem) Update(w *ecs.World, f *ecs.Frame) {
	if w == nil || !f.Stable() || s.Pool == nil {
		return
	}

	ecs.ForEach(w, component.DecorationComponent.Kind(), func(e ecs.Entity, d *component.Decoration) {
		d.Age += f.Dt

		if d.Age > d.MaxAge+d.FadeDuration {
			s.Pool.Recycle(e)
			return
		}
		if d.Age > d.MaxAge {
			fade := 1.0
			if d.FadeDuration > 0 {
				fade = (d.Age - d.MaxAge) / d.FadeDuration
			}
			if app, ok := ecs.Get(w, e, component.AppearanceComponent.Kind()); ok {
				app.Opacity = common.Clamp01(1 - fade)
			}
		}
	})
}
