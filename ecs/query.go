package ecs

import "github.com/milk9111/fairyflight/ecs/component"

// ForEach visits every live entity carrying kind a. Components may be added or
// removed from inside fn.
func ForEach[A any](w *World, a component.ComponentKind[A], fn func(Entity, *A)) {
	sa := storeFor(w, a, false)
	for _, id := range sa.snapshot() {
		e, ok := w.entities.handle(id)
		if !ok {
			continue
		}
		va := sa.Get(id)
		if va == nil {
			continue
		}
		fn(e, va)
	}
}

func ForEach2[A, B any](w *World, a component.ComponentKind[A], b component.ComponentKind[B], fn func(Entity, *A, *B)) {
	sa := storeFor(w, a, false)
	sb := storeFor(w, b, false)
	if sa == nil || sb == nil {
		return
	}
	for _, id := range sa.snapshot() {
		e, ok := w.entities.handle(id)
		if !ok {
			continue
		}
		va, vb := sa.Get(id), sb.Get(id)
		if va == nil || vb == nil {
			continue
		}
		fn(e, va, vb)
	}
}

func ForEach3[A, B, C any](w *World, a component.ComponentKind[A], b component.ComponentKind[B], c component.ComponentKind[C], fn func(Entity, *A, *B, *C)) {
	sa := storeFor(w, a, false)
	sb := storeFor(w, b, false)
	sc := storeFor(w, c, false)
	if sa == nil || sb == nil || sc == nil {
		return
	}
	for _, id := range sa.snapshot() {
		e, ok := w.entities.handle(id)
		if !ok {
			continue
		}
		va, vb, vc := sa.Get(id), sb.Get(id), sc.Get(id)
		if va == nil || vb == nil || vc == nil {
			continue
		}
		fn(e, va, vb, vc)
	}
}

func ForEach4[A, B, C, D any](w *World, a component.ComponentKind[A], b component.ComponentKind[B], c component.ComponentKind[C], d component.ComponentKind[D], fn func(Entity, *A, *B, *C, *D)) {
	sa := storeFor(w, a, false)
	sb := storeFor(w, b, false)
	sc := storeFor(w, c, false)
	sd := storeFor(w, d, false)
	if sa == nil || sb == nil || sc == nil || sd == nil {
		return
	}
	for _, id := range sa.snapshot() {
		e, ok := w.entities.handle(id)
		if !ok {
			continue
		}
		va, vb, vc, vd := sa.Get(id), sb.Get(id), sc.Get(id), sd.Get(id)
		if va == nil || vb == nil || vc == nil || vd == nil {
			continue
		}
		fn(e, va, vb, vc, vd)
	}
}
