// Package room answers ray casts against a static, classified play space.
//
// Walls are a closed polygon on the floor plane, stored as static segments in
// a chipmunk space and queried in 2D. Floor, ceiling and furniture are
// analytic.
package room

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/prefabs"
)

const (
	ClassFloor   = "floor"
	ClassCeiling = "ceiling"
	ClassWall    = "wall"

	parallelEpsilon = 1e-9
)

// Box is an axis aligned furniture volume.
type Box struct {
	Name  string
	Class string
	Min   mgl64.Vec3
	Max   mgl64.Vec3
}

type Room struct {
	mu        sync.Mutex
	name      string
	floor     float64
	ceiling   float64
	corners   []mgl64.Vec2
	furniture []Box
	keepOut   *ecs.KeepOut
	space     *cp.Space
}

var _ ecs.SpatialQuery = (*Room)(nil)

func New(spec prefabs.RoomSpec) (*Room, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("room %q: %w", spec.Name, err)
	}

	r := &Room{
		name:    spec.Name,
		floor:   spec.Floor,
		ceiling: spec.Ceiling,
		space:   cp.NewSpace(),
	}

	for _, c := range spec.Walls {
		r.corners = append(r.corners, mgl64.Vec2{c[0], c[1]})
	}
	for i := range r.corners {
		a := r.corners[i]
		b := r.corners[(i+1)%len(r.corners)]
		shape := cp.NewSegment(r.space.StaticBody, cp.Vector{X: a.X(), Y: a.Y()}, cp.Vector{X: b.X(), Y: b.Y()}, 0)
		r.space.AddShape(shape)
	}

	for _, f := range spec.Furniture {
		class := f.Class
		if class == "" {
			class = "other"
		}
		r.furniture = append(r.furniture, Box{
			Name:  f.Name,
			Class: class,
			Min:   mgl64.Vec3(f.Min),
			Max:   mgl64.Vec3(f.Max),
		})
	}

	if spec.KeepOut != nil {
		lo, hi := mgl64.Vec3(spec.KeepOut.Min), mgl64.Vec3(spec.KeepOut.Max)
		r.keepOut = &ecs.KeepOut{
			Center:      lo.Add(hi).Mul(0.5),
			HalfExtents: hi.Sub(lo).Mul(0.5),
		}
	}

	return r, nil
}

func Load(filename string) (*Room, error) {
	spec, err := prefabs.LoadRoomSpec(filename)
	if err != nil {
		return nil, err
	}
	return New(spec)
}

func (r *Room) Name() string { return r.name }

func (r *Room) Floor() float64 { return r.floor }

func (r *Room) Ceiling() float64 { return r.ceiling }

// Corners returns the wall polygon as (x, z) pairs.
func (r *Room) Corners() []mgl64.Vec2 {
	return append([]mgl64.Vec2(nil), r.corners...)
}

func (r *Room) Furniture() []Box {
	return append([]Box(nil), r.furniture...)
}

// KeepOut is the keep-out volume declared by the room document, if any.
func (r *Room) KeepOut() *ecs.KeepOut {
	if r.keepOut == nil {
		return nil
	}
	k := *r.keepOut
	return &k
}

// Raycast returns the nearest surface along direction within maxDistance.
func (r *Room) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (ecs.Hit, bool) {
	if r == nil || !(maxDistance > 0) {
		return ecs.Hit{}, false
	}

	best := ecs.Hit{Distance: math.Inf(1)}
	consider := func(t float64, normal mgl64.Vec3, class string) {
		if t < 0 || t > maxDistance || t >= best.Distance {
			return
		}
		best = ecs.Hit{
			Distance: t,
			Position: origin.Add(direction.Mul(t)),
			Normal:   normal,
			Class:    class,
		}
	}

	dy := direction.Y()
	if dy < -parallelEpsilon && origin.Y() >= r.floor {
		consider((r.floor-origin.Y())/dy, mgl64.Vec3{0, 1, 0}, ClassFloor)
	}
	if dy > parallelEpsilon && origin.Y() <= r.ceiling {
		consider((r.ceiling-origin.Y())/dy, mgl64.Vec3{0, -1, 0}, ClassCeiling)
	}

	if t, n, ok := r.wallHit(origin, direction, maxDistance); ok {
		consider(t, n, ClassWall)
	}

	for _, box := range r.furniture {
		if t, n, ok := slab(origin, direction, box.Min, box.Max); ok {
			consider(t, n, box.Class)
		}
	}

	if math.IsInf(best.Distance, 1) {
		return ecs.Hit{}, false
	}
	return best, true
}

func (r *Room) wallHit(origin, direction mgl64.Vec3, maxDistance float64) (float64, mgl64.Vec3, bool) {
	if math.Hypot(direction.X(), direction.Z())*maxDistance < parallelEpsilon {
		return 0, mgl64.Vec3{}, false
	}

	end := origin.Add(direction.Mul(maxDistance))
	r.mu.Lock()
	info := r.space.SegmentQueryFirst(
		cp.Vector{X: origin.X(), Y: origin.Z()},
		cp.Vector{X: end.X(), Y: end.Z()},
		0,
		cp.SHAPE_FILTER_ALL,
	)
	r.mu.Unlock()
	if info.Shape == nil {
		return 0, mgl64.Vec3{}, false
	}

	t := info.Alpha * maxDistance
	y := origin.Y() + direction.Y()*t
	if y < r.floor || y > r.ceiling {
		return 0, mgl64.Vec3{}, false
	}

	n := mgl64.Vec3{info.Normal.X, 0, info.Normal.Y}
	if n.Dot(direction) > 0 {
		n = n.Mul(-1)
	}
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return t, n, true
}

// slab intersects a ray with an axis aligned box from outside. Origins
// inside the box report no hit.
func slab(origin, direction, lo, hi mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	axis := -1
	for i := 0; i < 3; i++ {
		if math.Abs(direction[i]) < parallelEpsilon {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / direction[i]
		t2 := (hi[i] - origin[i]) / direction[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
			axis = i
		}
		tFar = math.Min(tFar, t2)
		if tNear > tFar {
			return 0, mgl64.Vec3{}, false
		}
	}
	if axis < 0 || tNear < 0 || tFar < 0 {
		return 0, mgl64.Vec3{}, false
	}

	var n mgl64.Vec3
	if direction[axis] > 0 {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return tNear, n, true
}

// Contains reports whether p lies inside the walls, between floor and
// ceiling.
func (r *Room) Contains(p mgl64.Vec3) bool {
	if p.Y() < r.floor || p.Y() > r.ceiling {
		return false
	}
	inside := false
	x, z := p.X(), p.Z()
	for i, j := 0, len(r.corners)-1; i < len(r.corners); j, i = i, i+1 {
		a, b := r.corners[i], r.corners[j]
		if (a.Y() > z) != (b.Y() > z) && x < (b.X()-a.X())*(z-a.Y())/(b.Y()-a.Y())+a.X() {
			inside = !inside
		}
	}
	return inside
}
