package component

import "github.com/go-gl/mathgl/mgl64"

// BoundJoint is a resolved rig joint plus the rotation it had when bound.
// Handle is -1 when the joint is missing from the rig.
type BoundJoint struct {
	Handle   int
	Original mgl64.Quat
}

func Unbound() BoundJoint {
	return BoundJoint{Handle: -1, Original: mgl64.QuatIdent()}
}

func (b BoundJoint) Valid() bool {
	return b.Handle >= 0
}

// RigBinding caches joint handles for the secondary animation systems so
// they never search the rig by name per frame.
type RigBinding struct {
	Bound bool

	Hair       BoundJoint
	Dress      []BoundJoint
	ArmsRight  []BoundJoint
	ArmsLeft   []BoundJoint
	Lower      BoundJoint
	FootRight  BoundJoint
	FootLeft   BoundJoint
	WingsRight []BoundJoint
	WingsLeft  []BoundJoint

	Missing []string
}

var RigBindingComponent = NewComponent[RigBinding]("rig_binding")
