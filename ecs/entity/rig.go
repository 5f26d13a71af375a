package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/milk9111/fairyflight/prefabs"
)

// BuildRig flattens a joint tree into a Rig. Parents always precede their
// children.
func BuildRig(spec prefabs.RigSpec) (*component.Rig, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("build rig %q: %w", spec.Name, err)
	}

	rig := &component.Rig{}
	var add func(j prefabs.JointSpec, parent int)
	add = func(j prefabs.JointSpec, parent int) {
		rot := mgl64.AnglesToQuat(
			common.Deg(j.RotationDeg[0]),
			common.Deg(j.RotationDeg[1]),
			common.Deg(j.RotationDeg[2]),
			mgl64.XYZ,
		)
		idx := rig.AddJoint(j.Name, parent, mgl64.Vec3(j.Position), rot)
		for _, c := range j.Children {
			add(c, idx)
		}
	}
	add(spec.Root, -1)
	return rig, nil
}

func LoadRig(filename string) (*component.Rig, error) {
	spec, err := prefabs.LoadRigSpec(filename)
	if err != nil {
		return nil, err
	}
	return BuildRig(spec)
}
