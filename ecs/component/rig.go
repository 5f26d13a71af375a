package component

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Joint is one node of a rig. Parent is an index into Rig.Joints, -1 for roots.
type Joint struct {
	Name     string
	Parent   int
	Position mgl64.Vec3
	Rotation mgl64.Quat
	// Rest is the rotation the joint was authored with.
	Rest mgl64.Quat
}

// Rig is a flat joint hierarchy in parent-before-child order. Joint indices
// are stable for the lifetime of the rig.
type Rig struct {
	Joints []Joint
}

var RigComponent = NewComponent[Rig]("rig")

// AddJoint appends a joint under parent and returns its index.
func (r *Rig) AddJoint(name string, parent int, pos mgl64.Vec3, rot mgl64.Quat) int {
	if parent >= len(r.Joints) {
		parent = -1
	}
	r.Joints = append(r.Joints, Joint{Name: name, Parent: parent, Position: pos, Rotation: rot, Rest: rot})
	return len(r.Joints) - 1
}

func (r *Rig) Valid(idx int) bool {
	return r != nil && idx >= 0 && idx < len(r.Joints)
}

func (r *Rig) Rotation(idx int) (mgl64.Quat, bool) {
	if !r.Valid(idx) {
		return mgl64.QuatIdent(), false
	}
	return r.Joints[idx].Rotation, true
}

func (r *Rig) RestRotation(idx int) (mgl64.Quat, bool) {
	if !r.Valid(idx) {
		return mgl64.QuatIdent(), false
	}
	return r.Joints[idx].Rest, true
}

func (r *Rig) SetRotation(idx int, q mgl64.Quat) bool {
	if !r.Valid(idx) {
		return false
	}
	r.Joints[idx].Rotation = q
	return true
}

// Path returns the slash separated names from the root down to idx.
func (r *Rig) Path(idx int) string {
	if !r.Valid(idx) {
		return ""
	}
	var parts []string
	for i := idx; i >= 0; i = r.Joints[i].Parent {
		parts = append(parts, r.Joints[i].Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Find resolves a slash separated path. A plain segment matches a direct
// child; a segment after "**" matches the first descendant with that name,
// depth first. The first segment matches any joint with that name.
func (r *Rig) Find(path string) int {
	if r == nil || path == "" {
		return -1
	}
	segments := strings.Split(path, "/")
	current := -1
	deep := true
	for _, seg := range segments {
		if seg == "**" {
			deep = true
			continue
		}
		next := -1
		if deep {
			next = r.findDescendant(current, seg)
		} else {
			next = r.findChild(current, seg)
		}
		if next < 0 {
			return -1
		}
		current = next
		deep = false
	}
	return current
}

func (r *Rig) findChild(parent int, name string) int {
	for i := range r.Joints {
		if r.Joints[i].Parent == parent && r.Joints[i].Name == name {
			return i
		}
	}
	return -1
}

func (r *Rig) findDescendant(parent int, name string) int {
	for i := range r.Joints {
		if r.Joints[i].Parent != parent {
			continue
		}
		if r.Joints[i].Name == name {
			return i
		}
		if found := r.findDescendant(i, name); found >= 0 {
			return found
		}
	}
	return -1
}
