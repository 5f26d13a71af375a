package prefabs

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// RigSpec describes a skeleton as a tree of named joints. Rotations are
// XYZ Euler angles in degrees.
type RigSpec struct {
	Name string    `yaml:"name" json:"name,omitempty"`
	Root JointSpec `yaml:"root" json:"root"`
}

type JointSpec struct {
	Name        string      `yaml:"name" json:"name"`
	Position    Vec3        `yaml:"position" json:"position,omitempty"`
	RotationDeg Vec3        `yaml:"rotation_deg" json:"rotation_deg,omitempty"`
	Children    []JointSpec `yaml:"children" json:"children,omitempty"`
}

func (s RigSpec) Validate() error {
	var err error
	var walk func(j JointSpec, path string)
	walk = func(j JointSpec, path string) {
		if j.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%w: unnamed joint under %q", ErrInvalidSpec, path))
		}
		p := j.Name
		if path != "" {
			p = path + "/" + j.Name
		}
		seen := make(map[string]bool, len(j.Children))
		for _, c := range j.Children {
			if seen[c.Name] {
				err = multierr.Append(err, fmt.Errorf("%w: duplicate joint %q under %q", ErrInvalidSpec, c.Name, p))
			}
			seen[c.Name] = true
			walk(c, p)
		}
	}
	walk(s.Root, "")
	return err
}

// RoomSpec describes the static surfaces of a play space. Walls are a
// closed polygon on the floor plane given as (x, z) pairs.
type RoomSpec struct {
	Name      string          `yaml:"name" json:"name,omitempty"`
	Floor     float64         `yaml:"floor" json:"floor"`
	Ceiling   float64         `yaml:"ceiling" json:"ceiling"`
	Walls     [][2]float64    `yaml:"walls" json:"walls"`
	Furniture []FurnitureSpec `yaml:"furniture" json:"furniture,omitempty"`
	KeepOut   *BoxSpec        `yaml:"keep_out" json:"keep_out,omitempty"`
}

// FurnitureSpec is an axis aligned box whose top is a horizontal surface.
type FurnitureSpec struct {
	Name  string `yaml:"name" json:"name,omitempty"`
	Class string `yaml:"class" json:"class,omitempty" jsonschema:"enum=table,enum=seat,enum=bed,enum=storage,enum=other"`
	Min   Vec3   `yaml:"min" json:"min"`
	Max   Vec3   `yaml:"max" json:"max"`
}

type BoxSpec struct {
	Min Vec3 `yaml:"min" json:"min"`
	Max Vec3 `yaml:"max" json:"max"`
}

func (s RoomSpec) Validate() error {
	var err error
	if !(s.Ceiling > s.Floor) {
		err = multierr.Append(err, fmt.Errorf("%w: ceiling %v must be above floor %v", ErrInvalidSpec, s.Ceiling, s.Floor))
	}
	if len(s.Walls) < 3 {
		err = multierr.Append(err, fmt.Errorf("%w: walls need at least 3 corners, got %d", ErrInvalidSpec, len(s.Walls)))
	}
	for i, c := range s.Walls {
		if math.IsNaN(c[0]) || math.IsNaN(c[1]) || math.IsInf(c[0], 0) || math.IsInf(c[1], 0) {
			err = multierr.Append(err, fmt.Errorf("%w: wall corner %d is not finite", ErrInvalidSpec, i))
		}
	}
	for i, f := range s.Furniture {
		for a := 0; a < 3; a++ {
			if f.Min[a] > f.Max[a] {
				err = multierr.Append(err, fmt.Errorf("%w: furniture %d (%s) has an inverted box", ErrInvalidSpec, i, f.Name))
				break
			}
		}
	}
	if s.KeepOut != nil {
		for a := 0; a < 3; a++ {
			if s.KeepOut.Min[a] > s.KeepOut.Max[a] {
				err = multierr.Append(err, fmt.Errorf("%w: keep_out box is inverted", ErrInvalidSpec))
				break
			}
		}
	}
	return err
}
