package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/fairyflight/ecs/component"
)

func intPtr(i int) *int {
	return &i
}

func toSet(ents []Entity) map[Entity]struct{} {
	m := make(map[Entity]struct{}, len(ents))
	for _, e := range ents {
		m[e] = struct{}{}
	}
	return m
}

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_destroy_middle", 3, 1},
		{"none_destroyed", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex < 0 {
				return
			}
			if !DestroyEntity(w, ents[c.destroyIndex]) {
				t.Fatalf("DestroyEntity should succeed for a live entity")
			}
			if IsAlive(w, ents[c.destroyIndex]) {
				t.Fatalf("entity still alive after destroy")
			}
			if DestroyEntity(w, ents[c.destroyIndex]) {
				t.Fatalf("second destroy should fail")
			}
			if len(Entities(w)) != c.create-1 {
				t.Fatalf("expected %d entities after destroy, got %d", c.create-1, len(Entities(w)))
			}
		})
	}
}

func TestRecycledIDsBumpGeneration(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]("n")

	old := CreateEntity(w)
	if err := Add(w, old, h.Kind(), intPtr(1)); err != nil {
		t.Fatal(err)
	}
	DestroyEntity(w, old)

	fresh := CreateEntity(w)
	if fresh.ID != old.ID {
		t.Fatalf("expected id %d to be reused, got %d", old.ID, fresh.ID)
	}
	if fresh.Gen == old.Gen {
		t.Fatalf("expected a new generation")
	}
	if IsAlive(w, old) {
		t.Fatalf("stale handle reported alive")
	}
	if Has(w, fresh, h.Kind()) {
		t.Fatalf("components leaked across generations")
	}
	if err := Add(w, old, h.Kind(), intPtr(2)); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive, got %v", err)
	}
}

func TestComponentAddGetRemove(t *testing.T) {
	w := NewWorld()
	hi := component.NewComponent[int]()
	hs := component.NewComponent[string]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "int_on_e1",
			setup: func() error { return Add(w, e1, hi.Kind(), intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, hi.Kind())
				if !ok || *v != 10 {
					t.Fatalf("expected 10, got %v ok=%v", v, ok)
				}
				if Has(w, e2, hi.Kind()) {
					t.Fatalf("e2 should not have the int component")
				}
			},
			teardown: func() bool { return Remove(w, e1, hi.Kind()) },
		},
		{
			name: "string_on_both",
			setup: func() error {
				a, b := "a", "b"
				if err := Add(w, e1, hs.Kind(), &a); err != nil {
					return err
				}
				return Add(w, e2, hs.Kind(), &b)
			},
			check: func(t *testing.T) {
				if Count(w, hs.Kind()) != 2 {
					t.Fatalf("expected 2 string components, got %d", Count(w, hs.Kind()))
				}
			},
			teardown: func() bool { return Remove(w, e1, hs.Kind()) && Remove(w, e2, hs.Kind()) },
		},
		{
			name: "replace_keeps_one",
			setup: func() error {
				if err := Add(w, e1, hi.Kind(), intPtr(1)); err != nil {
					return err
				}
				return Add(w, e1, hi.Kind(), intPtr(2))
			},
			check: func(t *testing.T) {
				v, _ := Get(w, e1, hi.Kind())
				if *v != 2 || Count(w, hi.Kind()) != 1 {
					t.Fatalf("expected single value 2, got %d (count %d)", *v, Count(w, hi.Kind()))
				}
			},
			teardown: func() bool { return Remove(w, e1, hi.Kind()) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.setup(); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			tc.check(t)
			if !tc.teardown() {
				t.Fatalf("teardown failed for %s", tc.name)
			}
		})
	}

	if err := Add[int](w, e1, hi.Kind(), nil); !errors.Is(err, component.ErrNilComponent) {
		t.Fatalf("expected ErrNilComponent, got %v", err)
	}
	if err := Add(w, e1, component.ComponentKind[int]{}, intPtr(1)); !errors.Is(err, component.ErrInvalidComponentKind) {
		t.Fatalf("expected ErrInvalidComponentKind, got %v", err)
	}
}

func TestForEach(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)
	e3 := CreateEntity(w)
	for _, e := range []Entity{e1, e3} {
		if err := Add(w, e, h.Kind(), intPtr(e.ID)); err != nil {
			t.Fatal(err)
		}
	}

	var ents []Entity
	ForEach(w, h.Kind(), func(e Entity, _ *int) { ents = append(ents, e) })
	set := toSet(ents)
	if _, ok := set[e1]; !ok {
		t.Fatalf("expected e1")
	}
	if _, ok := set[e3]; !ok {
		t.Fatalf("expected e3")
	}
	if _, ok := set[e2]; ok {
		t.Fatalf("did not expect e2")
	}
}

func TestForEachAllowsRemoval(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()
	for i := 0; i < 5; i++ {
		e := CreateEntity(w)
		if err := Add(w, e, h.Kind(), intPtr(i)); err != nil {
			t.Fatal(err)
		}
	}

	visited := 0
	ForEach(w, h.Kind(), func(e Entity, _ *int) {
		visited++
		Remove(w, e, h.Kind())
	})
	if visited != 5 {
		t.Fatalf("expected 5 visits, got %d", visited)
	}
	if Count(w, h.Kind()) != 0 {
		t.Fatalf("expected all removed, %d left", Count(w, h.Kind()))
	}
}

func TestForEachIntersections(t *testing.T) {
	// has[i] lists the kinds (0..3) entity i carries.
	tests := []struct {
		name  string
		has   [][]int
		want3 []int
		want4 []int
	}{
		{name: "single_match", has: [][]int{{0}, {0, 1, 2, 3}, {1}, {2}}, want3: []int{1}, want4: []int{1}},
		{name: "three_not_four", has: [][]int{{0, 1, 2}, {0, 1, 2, 3}}, want3: []int{0, 1}, want4: []int{1}},
		{name: "no_common", has: [][]int{{0}, {1}}, want3: nil, want4: nil},
		{name: "missing_store", has: [][]int{{0}}, want3: nil, want4: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWorld()
			kinds := []component.ComponentKind[int]{
				component.NewComponentKind[int](),
				component.NewComponentKind[int](),
				component.NewComponentKind[int](),
				component.NewComponentKind[int](),
			}
			ents := make([]Entity, len(tc.has))
			for i, ks := range tc.has {
				ents[i] = CreateEntity(w)
				for _, k := range ks {
					if err := Add(w, ents[i], kinds[k], intPtr(k)); err != nil {
						t.Fatal(err)
					}
				}
			}

			var got3, got4 []Entity
			ForEach3(w, kinds[0], kinds[1], kinds[2], func(e Entity, _, _, _ *int) { got3 = append(got3, e) })
			ForEach4(w, kinds[0], kinds[1], kinds[2], kinds[3], func(e Entity, _, _, _, _ *int) { got4 = append(got4, e) })

			check := func(label string, got []Entity, want []int) {
				if len(got) != len(want) {
					t.Fatalf("%s: expected %d matches, got %v", label, len(want), got)
				}
				set := toSet(got)
				for _, i := range want {
					if _, ok := set[ents[i]]; !ok {
						t.Fatalf("%s: missing entity %d", label, i)
					}
				}
			}
			check("ForEach3", got3, tc.want3)
			check("ForEach4", got4, tc.want4)
		})
	}
}

func TestForEachIgnoresDestroyed(t *testing.T) {
	w := NewWorld()
	ka := component.NewComponentKind[int]()
	kb := component.NewComponentKind[int]()

	e := CreateEntity(w)
	_ = Add(w, e, ka, intPtr(1))
	_ = Add(w, e, kb, intPtr(2))
	DestroyEntity(w, e)

	var res []Entity
	ForEach2(w, ka, kb, func(e Entity, _, _ *int) { res = append(res, e) })
	if len(res) != 0 {
		t.Fatalf("expected empty result after destroy, got %v", res)
	}
}

func TestEventQueue(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	w.Events().Push(Event{Type: EventHeldChanged, Data: HeldChanged{Entity: e, Held: true}})
	w.Events().Push(Event{Type: EventHeldChanged, Data: HeldChanged{Entity: e}})

	if w.Events().Len() != 2 {
		t.Fatalf("expected 2 queued events, got %d", w.Events().Len())
	}
	got := w.Events().Drain()
	if len(got) != 2 || !got[0].Data.(HeldChanged).Held {
		t.Fatalf("unexpected drain result %v", got)
	}
	if w.Events().Len() != 0 {
		t.Fatalf("queue not empty after drain")
	}
}

func TestFrameStable(t *testing.T) {
	cases := []struct {
		dt   float64
		want bool
	}{
		{0, false},
		{-0.01, false},
		{1.0 / 60, true},
		{MaxFrameDelta, true},
		{0.2, false},
	}
	for _, c := range cases {
		f := &Frame{Dt: c.dt}
		if f.Stable() != c.want {
			t.Fatalf("dt=%v: expected stable=%v", c.dt, c.want)
		}
	}
	var nilFrame *Frame
	if nilFrame.Stable() {
		t.Fatalf("nil frame must not be stable")
	}
}
