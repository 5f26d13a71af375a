package component

import (
	"errors"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// ComponentKind identifies the storage for components of type T.
type ComponentKind[T any] struct {
	id   ComponentID
	name string
}

func NewComponentKind[T any]() ComponentKind[T] {
	return ComponentKind[T]{id: ComponentID(nextComponentID.Add(1))}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

func (k ComponentKind[T]) String() string {
	if k.name == "" {
		return "component"
	}
	return k.name
}

type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

// NewComponent registers a component type. The optional name is only used in
// error messages and logs.
func NewComponent[T any](name ...string) ComponentHandle[T] {
	kind := NewComponentKind[T]()
	if len(name) > 0 {
		kind.name = name[0]
	}
	return ComponentHandle[T]{kind: kind}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}

type ComponentID uint32

var nextComponentID atomic.Uint32
