package ecs

import (
	"errors"
	"reflect"
	"testing"
)

func recorder(log *[]string, name string) System {
	return SystemFunc(func(*World, *Frame) { *log = append(*log, name) })
}

func TestSchedulerOrdersByConstraints(t *testing.T) {
	var ran []string
	s := NewScheduler()

	steps := []struct {
		name string
		cons []Constraint
	}{
		{"avoidance", []Constraint{After("steering")}},
		{"hair", []Constraint{After("avoidance")}},
		{"steering", []Constraint{After("proximity")}},
		{"proximity", nil},
		{"curve", []Constraint{Before("avoidance")}},
	}
	for _, st := range steps {
		if err := s.Add(st.name, recorder(&ran, st.name), st.cons...); err != nil {
			t.Fatalf("add %s: %v", st.name, err)
		}
	}
	if err := s.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}

	want := []string{"proximity", "steering", "curve", "avoidance", "hair"}
	if !reflect.DeepEqual(s.Order(), want) {
		t.Fatalf("order = %v, want %v", s.Order(), want)
	}
	if err := s.Update(NewWorld(), &Frame{Dt: 1.0 / 60}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !reflect.DeepEqual(ran, want) {
		t.Fatalf("ran = %v, want %v", ran, want)
	}
}

func TestSchedulerErrors(t *testing.T) {
	noop := SystemFunc(func(*World, *Frame) {})

	tests := []struct {
		name  string
		setup func(s *Scheduler) error
		want  error
	}{
		{
			name: "cycle",
			setup: func(s *Scheduler) error {
				_ = s.Add("a", noop, After("c"))
				_ = s.Add("b", noop, After("a"))
				_ = s.Add("c", noop, After("b"))
				return s.Build()
			},
			want: ErrDependencyCycle,
		},
		{
			name: "self",
			setup: func(s *Scheduler) error {
				_ = s.Add("a", noop, Before("a"))
				return s.Build()
			},
			want: ErrDependencyCycle,
		},
		{
			name: "unknown",
			setup: func(s *Scheduler) error {
				_ = s.Add("a", noop, After("ghost"))
				return s.Build()
			},
			want: ErrUnknownSystem,
		},
		{
			name: "duplicate",
			setup: func(s *Scheduler) error {
				_ = s.Add("a", noop)
				return s.Add("a", noop)
			},
			want: ErrDuplicateSystem,
		},
		{
			name: "add_after_build",
			setup: func(s *Scheduler) error {
				_ = s.Add("a", noop)
				if err := s.Build(); err != nil {
					return err
				}
				return s.Add("b", noop)
			},
			want: ErrSchedulerBuilt,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScheduler()
			if err := tc.setup(s); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSchedulerRefusesToRunUnbuilt(t *testing.T) {
	s := NewScheduler()
	_ = s.Add("a", SystemFunc(func(*World, *Frame) { t.Fatal("must not run") }))
	if err := s.Update(NewWorld(), &Frame{}); !errors.Is(err, ErrSchedulerNotBuilt) {
		t.Fatalf("expected ErrSchedulerNotBuilt, got %v", err)
	}

	_ = s.Add("b", SystemFunc(func(*World, *Frame) {}), After("a"), Before("a"))
	if err := s.Build(); !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("expected cycle, got %v", err)
	}
	if s.Built() {
		t.Fatalf("failed build must leave the scheduler unbuilt")
	}
}
