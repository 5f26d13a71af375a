package ecs

import (
	"fmt"

	"github.com/milk9111/fairyflight/ecs/component"
)

// Add attaches value to e, replacing any previous component of the same kind.
func Add[T any](w *World, e Entity, kind component.ComponentKind[T], value *T) error {
	if !kind.Valid() {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return fmt.Errorf("%w: %s", component.ErrNilComponent, kind)
	}
	if !IsAlive(w, e) {
		return fmt.Errorf("%w: %s on %s", component.ErrEntityNotAlive, kind, e)
	}
	storeFor(w, kind, true).Set(e.id(), value)
	return nil
}

// Remove detaches the component of the given kind from e.
func Remove[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	if !IsAlive(w, e) {
		return false
	}
	return storeFor(w, kind, false).Remove(e.id())
}

// Has reports whether e carries a component of the given kind.
func Has[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	if !IsAlive(w, e) {
		return false
	}
	return storeFor(w, kind, false).Has(e.id())
}

// Get returns the component of the given kind attached to e.
func Get[T any](w *World, e Entity, kind component.ComponentKind[T]) (*T, bool) {
	if !IsAlive(w, e) {
		return nil, false
	}
	v := storeFor(w, kind, false).Get(e.id())
	return v, v != nil
}

// Count returns how many live entities carry the given kind.
func Count[T any](w *World, kind component.ComponentKind[T]) int {
	return storeFor(w, kind, false).Len()
}
