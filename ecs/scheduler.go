package ecs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDependencyCycle   = errors.New("ecs: system dependency cycle")
	ErrUnknownSystem     = errors.New("ecs: unknown system in ordering constraint")
	ErrDuplicateSystem   = errors.New("ecs: duplicate system name")
	ErrSchedulerBuilt    = errors.New("ecs: scheduler already built")
	ErrSchedulerNotBuilt = errors.New("ecs: scheduler not built")
)

// System updates the world once per frame.
type System interface {
	Update(w *World, f *Frame)
}

// SystemFunc adapts a function to System.
type SystemFunc func(w *World, f *Frame)

func (fn SystemFunc) Update(w *World, f *Frame) { fn(w, f) }

// Constraint orders one system relative to another.
type Constraint struct {
	before bool
	other  string
}

// Before requires the system to run before the named one.
func Before(name string) Constraint { return Constraint{before: true, other: name} }

// After requires the system to run after the named one.
func After(name string) Constraint { return Constraint{other: name} }

type scheduled struct {
	name        string
	system      System
	constraints []Constraint
}

// Scheduler runs systems in a dependency-respecting order. The order is
// resolved once by Build; Update is a no-op until Build succeeds.
type Scheduler struct {
	entries []scheduled
	order   []scheduled
	built   bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers a named system with its ordering constraints.
func (s *Scheduler) Add(name string, system System, constraints ...Constraint) error {
	if s.built {
		return ErrSchedulerBuilt
	}
	if system == nil {
		return fmt.Errorf("ecs: system %q is nil", name)
	}
	for _, e := range s.entries {
		if e.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateSystem, name)
		}
	}
	s.entries = append(s.entries, scheduled{name: name, system: system, constraints: constraints})
	return nil
}

// Build topologically sorts the registered systems. Ties keep registration
// order so the result is deterministic.
func (s *Scheduler) Build() error {
	if s.built {
		return nil
	}
	n := len(s.entries)
	index := make(map[string]int, n)
	for i, e := range s.entries {
		index[e.name] = i
	}

	edges := make([][]int, n)
	indegree := make([]int, n)
	link := func(from, to int) {
		for _, existing := range edges[from] {
			if existing == to {
				return
			}
		}
		edges[from] = append(edges[from], to)
		indegree[to]++
	}

	for i, e := range s.entries {
		for _, c := range e.constraints {
			j, ok := index[c.other]
			if !ok {
				return fmt.Errorf("%w: %q references %q", ErrUnknownSystem, e.name, c.other)
			}
			if j == i {
				return fmt.Errorf("%w: %q depends on itself", ErrDependencyCycle, e.name)
			}
			if c.before {
				link(i, j)
			} else {
				link(j, i)
			}
		}
	}

	order := make([]scheduled, 0, n)
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i := 0; i < n; i++ {
				if !done[i] {
					stuck = append(stuck, s.entries[i].name)
				}
			}
			return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(stuck, ", "))
		}
		done[next] = true
		order = append(order, s.entries[next])
		for _, to := range edges[next] {
			indegree[to]--
		}
	}

	s.order = order
	s.built = true
	return nil
}

// Built reports whether Build succeeded.
func (s *Scheduler) Built() bool {
	return s.built
}

// Order returns the resolved system names.
func (s *Scheduler) Order() []string {
	names := make([]string, 0, len(s.order))
	for _, e := range s.order {
		names = append(names, e.name)
	}
	return names
}

// Lookup returns the system registered under name.
func (s *Scheduler) Lookup(name string) (System, bool) {
	for _, e := range s.entries {
		if e.name == name {
			return e.system, true
		}
	}
	return nil, false
}

// Update runs every system once in resolved order.
func (s *Scheduler) Update(w *World, f *Frame) error {
	if !s.built {
		return ErrSchedulerNotBuilt
	}
	for _, e := range s.order {
		e.system.Update(w, f)
	}
	return nil
}
