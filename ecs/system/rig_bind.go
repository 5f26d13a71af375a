package system

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"go.uber.org/zap"
)

// RigLayout names the joints the secondary animation systems drive.
type RigLayout struct {
	Hair       string
	Dress      []string
	ArmsRight  []string
	ArmsLeft   []string
	Lower      string
	FootRight  string
	FootLeft   string
	WingsRight []string
	WingsLeft  []string
}

func DefaultRigLayout() RigLayout {
	return NewRigLayout(12, 7)
}

// NewRigLayout builds the standard layout for a rig with the given number of
// dress petals and wing segments per side.
func NewRigLayout(petals, wings int) RigLayout {
	l := RigLayout{
		Hair: "fairy_001/upper/head/hair_pivot",
		ArmsRight: []string{
			"fairy_001/upper/arms/**/shoulder_right",
			"fairy_001/upper/arms/**/elbow_right_pivot",
			"fairy_001/upper/arms/**/wrist_right_pivot",
		},
		ArmsLeft: []string{
			"fairy_001/upper/arms/**/shoulder_left_pivot",
			"fairy_001/upper/arms/**/elbow_left_pivot",
			"fairy_001/upper/arms/**/wrist_left_pivot",
		},
		Lower:     "fairy_001/lower",
		FootRight: "fairy_001/lower/legs_pivot/leg_right/foot_right_pivot",
		FootLeft:  "fairy_001/lower/legs_pivot/leg_left/foot_left_pivot",
	}
	for i := 1; i <= petals; i++ {
		l.Dress = append(l.Dress, fmt.Sprintf("fairy_001/dress/dress_pivot_%d", i))
	}
	for i := 1; i <= wings; i++ {
		l.WingsRight = append(l.WingsRight, fmt.Sprintf("fairy_001/**/wings_pivot/wings_right/wing_right_%d_pivot", i))
		l.WingsLeft = append(l.WingsLeft, fmt.Sprintf("fairy_001/**/wings_pivot/wings_left/wing_left_%d_pivot", i))
	}
	return l
}

// BindRig resolves every joint in layout once and captures its rest
// rotation. Missing joints stay unbound and are listed in Missing.
func BindRig(rig *component.Rig, layout RigLayout) component.RigBinding {
	b := component.RigBinding{Bound: true}
	one := func(path string) component.BoundJoint {
		idx := rig.Find(path)
		if idx < 0 {
			b.Missing = append(b.Missing, path)
			return component.Unbound()
		}
		rot, _ := rig.RestRotation(idx)
		return component.BoundJoint{Handle: idx, Original: rot}
	}
	many := func(paths []string) []component.BoundJoint {
		out := make([]component.BoundJoint, 0, len(paths))
		for _, p := range paths {
			out = append(out, one(p))
		}
		return out
	}

	b.Hair = one(layout.Hair)
	b.Dress = many(layout.Dress)
	b.ArmsRight = many(layout.ArmsRight)
	b.ArmsLeft = many(layout.ArmsLeft)
	b.Lower = one(layout.Lower)
	b.FootRight = one(layout.FootRight)
	b.FootLeft = one(layout.FootLeft)
	b.WingsRight = many(layout.WingsRight)
	b.WingsLeft = many(layout.WingsLeft)
	return b
}

// RigBindSystem binds rigs that were attached after load. It runs before the
// animation systems so they only ever index by handle.
type RigBindSystem struct {
	Layout RigLayout
	log    *zap.Logger
}

func NewRigBindSystem(log *zap.Logger) *RigBindSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &RigBindSystem{Layout: DefaultRigLayout(), log: log}
}

func (s *RigBindSystem) Update(w *ecs.World, _ *ecs.Frame) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.RigComponent.Kind(), func(e ecs.Entity, rig *component.Rig) {
		if b, ok := ecs.Get(w, e, component.RigBindingComponent.Kind()); ok && b.Bound {
			return
		}
		binding := BindRig(rig, s.Layout)
		if len(binding.Missing) > 0 {
			s.log.Warn("rig joints missing, animation degraded",
				zap.Stringer("entity", e),
				zap.Strings("joints", binding.Missing),
			)
		}
		_ = ecs.Add(w, e, component.RigBindingComponent.Kind(), &binding)
	})
}

// boundRig returns the rig and its binding, or nils when e has no rig.
func boundRig(w *ecs.World, e ecs.Entity) (*component.Rig, *component.RigBinding) {
	rig, ok := ecs.Get(w, e, component.RigComponent.Kind())
	if !ok {
		return nil, nil
	}
	b, ok := ecs.Get(w, e, component.RigBindingComponent.Kind())
	if !ok || !b.Bound {
		return nil, nil
	}
	return rig, b
}

// writeJoint sets a bound joint's rotation. Unbound joints are skipped.
func writeJoint(rig *component.Rig, j component.BoundJoint, rot mgl64.Quat) {
	if rig == nil || !j.Valid() {
		return
	}
	rig.SetRotation(j.Handle, rot)
}
