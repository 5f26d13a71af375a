package system

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRig builds the full fairy joint tree. Every joint starts with a small
// X tilt so composed rotations are distinguishable from raw ones.
func testRig() *component.Rig {
	r := &component.Rig{}
	rest := mgl64.QuatRotate(0.1, mgl64.Vec3{1, 0, 0})
	add := func(name string, parent int) int {
		return r.AddJoint(name, parent, mgl64.Vec3{}, rest)
	}

	root := add("fairy_001", -1)
	upper := add("upper", root)
	head := add("head", upper)
	add("hair_pivot", head)

	dress := add("dress", root)
	for i := 1; i <= 12; i++ {
		add(fmt.Sprintf("dress_pivot_%d", i), dress)
	}

	arms := add("arms", upper)
	for _, side := range []string{"right", "left"} {
		chain := add("arm_"+side, arms)
		shoulder := "shoulder_" + side
		if side == "left" {
			shoulder += "_pivot"
		}
		s := add(shoulder, chain)
		el := add("elbow_"+side+"_pivot", s)
		add("wrist_"+side+"_pivot", el)
	}

	lower := add("lower", root)
	legs := add("legs_pivot", lower)
	for _, side := range []string{"right", "left"} {
		leg := add("leg_"+side, legs)
		add("foot_"+side+"_pivot", leg)
	}

	wings := add("wings_pivot", upper)
	for _, side := range []string{"right", "left"} {
		fan := add("wings_"+side, wings)
		for i := 1; i <= 7; i++ {
			add(fmt.Sprintf("wing_%s_%d_pivot", side, i), fan)
		}
	}
	return r
}

func attachRig(t *testing.T, w *ecs.World, e ecs.Entity, rig *component.Rig) *component.RigBinding {
	t.Helper()
	require.NoError(t, ecs.Add(w, e, component.RigComponent.Kind(), rig))
	NewRigBindSystem(nil).Update(w, frame(tick))
	b, ok := ecs.Get(w, e, component.RigBindingComponent.Kind())
	require.True(t, ok)
	return b
}

func quatNear(t *testing.T, want, got mgl64.Quat) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-9) || want.Scale(-1).ApproxEqualThreshold(got, 1e-9),
		"want %v got %v", want, got)
}

func TestBindRigResolvesEveryJoint(t *testing.T) {
	rig := testRig()
	b := BindRig(rig, DefaultRigLayout())

	assert.True(t, b.Bound)
	assert.Empty(t, b.Missing)
	assert.Len(t, b.Dress, 12)
	assert.Len(t, b.WingsRight, 7)
	assert.Len(t, b.WingsLeft, 7)
	assert.Equal(t, "fairy_001/upper/head/hair_pivot", rig.Path(b.Hair.Handle))
	assert.Equal(t, "fairy_001/upper/arms/arm_left/shoulder_left_pivot/elbow_left_pivot", rig.Path(b.ArmsLeft[1].Handle))
	assert.Equal(t, "fairy_001/upper/wings_pivot/wings_left/wing_left_7_pivot", rig.Path(b.WingsLeft[6].Handle))
}

func TestBindRigReportsMissingJoints(t *testing.T) {
	rig := &component.Rig{}
	root := rig.AddJoint("fairy_001", -1, mgl64.Vec3{}, mgl64.QuatIdent())
	rig.AddJoint("lower", root, mgl64.Vec3{}, mgl64.QuatIdent())

	b := BindRig(rig, DefaultRigLayout())
	assert.True(t, b.Lower.Valid())
	assert.False(t, b.Hair.Valid())
	assert.Contains(t, b.Missing, "fairy_001/upper/head/hair_pivot")
}

func TestHairSpring(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	rig := testRig()
	b := attachRig(t, w, f.e, rig)

	p := DefaultHairParams()
	s := NewHairSystem()
	f.m.Velocity = mgl64.Vec3{0, 0.4, 0}
	for i := 0; i < 120; i++ {
		s.Update(w, frame(tick))
		require.GreaterOrEqual(t, f.sm.Hair.Angle, p.MinAngle)
		require.LessOrEqual(t, f.sm.Hair.Angle, p.MaxAngle)
	}

	// Rising pushes the hair to the lower stop.
	assert.InDelta(t, p.MinAngle, f.sm.Hair.Angle, 1e-6)
	rot, _ := rig.Rotation(b.Hair.Handle)
	quatNear(t, mgl64.QuatRotate(f.sm.Hair.Angle, mgl64.Vec3{1, 0, 0}), rot)
}

func TestAnimationDegradesWithoutRig(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	f.m.Velocity = mgl64.Vec3{0.2, -0.3, 0.1}

	systems := []ecs.System{NewHairSystem(), NewDressSystem(), NewArmsSystem(), NewLegsSystem(), NewWingsSystem(), NewFeetSystem()}
	for i := 0; i < 10; i++ {
		for _, s := range systems {
			s.Update(w, frame(tick))
		}
	}

	assert.NotZero(t, f.sm.Hair.Angle)
	assert.NotZero(t, f.sm.Dress.Angle)
	assert.NotZero(t, f.sm.Arms.Angle)
	assert.NotZero(t, f.sm.LegsX.Angle)
	assert.NotZero(t, f.sm.WingPhase)
	assert.NotZero(t, f.sm.FootPhase)
}

func TestDressSharesOneSpring(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	rig := testRig()
	b := attachRig(t, w, f.e, rig)

	f.m.Velocity = mgl64.Vec3{0, -0.5, 0}
	s := NewDressSystem()
	for i := 0; i < 600; i++ {
		s.Update(w, frame(tick))
	}

	// Falling flares the dress out to the clamped target.
	assert.InDelta(t, s.Params.SwayDown, f.sm.Dress.Angle, 1e-3)
	sway := mgl64.QuatRotate(f.sm.Dress.Angle, mgl64.Vec3{1, 0, 0})
	for _, j := range b.Dress {
		rot, _ := rig.Rotation(j.Handle)
		quatNear(t, j.Original.Mul(sway), rot)
	}
}

func TestArmsSwayBothSides(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	rig := testRig()
	b := attachRig(t, w, f.e, rig)

	f.m.Velocity = mgl64.Vec3{0, -0.5, 0}
	s := NewArmsSystem()
	for i := 0; i < 600; i++ {
		s.Update(w, frame(tick))
	}

	assert.InDelta(t, s.Params.SwayUp, f.sm.Arms.Angle, 1e-3)
	right, _ := rig.Rotation(b.ArmsRight[0].Handle)
	left, _ := rig.Rotation(b.ArmsLeft[0].Handle)
	quatNear(t, right, left)
}

func TestLegsUseLocalVelocity(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	// Facing rotated a quarter turn: world +X is local +Z.
	f.t.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	f.m.Velocity = mgl64.Vec3{0.5, 0, 0}

	s := NewLegsSystem()
	for i := 0; i < 600; i++ {
		s.Update(w, frame(tick))
	}

	assert.InDelta(t, s.Params.MaxTilt, f.sm.LegsX.Angle, 1e-3)
	assert.InDelta(t, 0, f.sm.LegsZ.Angle, 1e-3)
}

func TestWingStrokeIsAsymmetric(t *testing.T) {
	p := DefaultWingsParams()

	top, topStep := p.WingAngles(math.Pi/2, 7)
	bottom, bottomStep := p.WingAngles(-math.Pi/2, 7)

	assert.InDelta(t, p.AmplitudeUp, top, 1e-12)
	assert.InDelta(t, -p.AmplitudeDown, bottom, 1e-12)
	assert.Greater(t, math.Abs(top), math.Abs(bottom))
	assert.InDelta(t, p.MaxSpread/6, topStep, 1e-12)
	assert.InDelta(t, p.MinSpread/6, bottomStep, 1e-12)
}

func TestWingsWriteFan(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	rig := testRig()
	b := attachRig(t, w, f.e, rig)

	s := NewWingsSystem()
	s.Update(w, frame(tick))

	assert.InDelta(t, s.Params.BaseRate*tick, f.sm.WingPhase, 1e-12)
	base, step := s.Params.WingAngles(f.sm.WingPhase, 7)
	for i, j := range b.WingsRight {
		rot, _ := rig.Rotation(j.Handle)
		quatNear(t, mgl64.QuatRotate(base+step*float64(i), mgl64.Vec3{0, 1, 0}), rot)
	}
}

func TestFlapRateFollowsUpwardSpeed(t *testing.T) {
	assert.Equal(t, 6.0, flapRate(-1, 6, 55, 0.4))
	assert.Equal(t, 6.0, flapRate(0, 6, 55, 0.4))
	assert.InDelta(t, 30.5, flapRate(0.2, 6, 55, 0.4), 1e-12)
	assert.Equal(t, 55.0, flapRate(2, 6, 55, 0.4))
}

func TestFeetAlternate(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	rig := testRig()
	b := attachRig(t, w, f.e, rig)

	s := NewFeetSystem()
	for i := 0; i < 7; i++ {
		s.Update(w, frame(tick))
	}

	amp := s.Params.Amplitude
	right := mgl64.QuatRotate(math.Sin(f.sm.FootPhase)*amp, mgl64.Vec3{1, 0, 0})
	left := mgl64.QuatRotate(-math.Sin(f.sm.FootPhase)*amp, mgl64.Vec3{1, 0, 0})
	gotRight, _ := rig.Rotation(b.FootRight.Handle)
	gotLeft, _ := rig.Rotation(b.FootLeft.Handle)
	quatNear(t, b.FootRight.Original.Mul(right), gotRight)
	quatNear(t, b.FootLeft.Original.Mul(left), gotLeft)
}

func TestSecondaryStateStaysFinite(t *testing.T) {
	w := ecs.NewWorld()
	f := addFairy(t, w, mgl64.Vec3{0, 1, 0})
	attachRig(t, w, f.e, testRig())

	systems := []ecs.System{NewHairSystem(), NewDressSystem(), NewArmsSystem(), NewLegsSystem(), NewWingsSystem(), NewFeetSystem()}
	rng := testRNG()
	for i := 0; i < 2000; i++ {
		f.m.Velocity = mgl64.Vec3{rng.Float64()*10 - 5, rng.Float64()*10 - 5, rng.Float64()*10 - 5}
		for _, s := range systems {
			s.Update(w, frame(ecs.MaxFrameDelta))
		}
	}

	for _, v := range []float64{
		f.sm.Hair.Angle, f.sm.Hair.Velocity, f.sm.Dress.Angle, f.sm.Dress.Velocity,
		f.sm.Arms.Angle, f.sm.Arms.Velocity, f.sm.LegsX.Angle, f.sm.LegsZ.Angle,
		f.sm.WingPhase, f.sm.FootPhase,
	} {
		require.True(t, common.Finite(v))
	}
}
