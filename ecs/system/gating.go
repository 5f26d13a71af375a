package system

import (
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

// isActive reports whether the host has placed e in the world. Entities with
// no Activation component are treated as inactive.
func isActive(w *ecs.World, e ecs.Entity) bool {
	a, ok := ecs.Get(w, e, component.ActivationComponent.Kind())
	return ok && a.Active
}

// isScripted reports whether e follows a scripted curve instead of steering.
func isScripted(w *ecs.World, e ecs.Entity) bool {
	m, ok := ecs.Get(w, e, component.MovementModeComponent.Kind())
	return ok && m.Scripted()
}
