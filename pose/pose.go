// Package pose holds the latest head and hand tracking readings.
//
// Producers (tracking streams, the websocket bridge) write into a Cache from
// their own goroutines. The frame loop takes a Snapshot once per frame and
// never waits for fresh data.
package pose

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Side selects a hand.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Head is the device transform in world space.
type Head struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Forward returns the horizontal viewing direction. The device looks down -Z.
// ok is false when the device points straight up or down.
func (h Head) Forward() (mgl64.Vec3, bool) {
	rot := h.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	fwd := rot.Rotate(mgl64.Vec3{0, 0, -1})
	fwd[1] = 0
	l := fwd.Len()
	if l <= 0.001 {
		return mgl64.Vec3{}, false
	}
	return fwd.Mul(1 / l), true
}

// Snapshot is an immutable copy of the tracking state for one frame.
type Snapshot struct {
	Head  *Head
	Left  []mgl64.Vec3
	Right []mgl64.Vec3
}

// HeadPose returns the head transform if tracking has run at least once.
func (s Snapshot) HeadPose() (Head, bool) {
	if s.Head == nil {
		return Head{}, false
	}
	return *s.Head, true
}

// HandJointPositions returns the tracked joints of one hand. Empty when the
// hand is not tracked.
func (s Snapshot) HandJointPositions(side Side) []mgl64.Vec3 {
	if side == Left {
		return s.Left
	}
	return s.Right
}

// JointCount reports the number of tracked joints across both hands.
func (s Snapshot) JointCount() int {
	return len(s.Left) + len(s.Right)
}

// Cache is safe for concurrent writers and readers.
type Cache struct {
	mu      sync.RWMutex
	head    *Head
	hands   [2][]mgl64.Vec3
	updates uint64
}

func NewCache() *Cache {
	return &Cache{}
}

// SetHead records the latest head transform.
func (c *Cache) SetHead(h Head) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.head = &h
	c.updates++
	c.mu.Unlock()
}

// SetHand replaces the tracked joints of one hand. A nil or empty slice marks
// the hand as untracked.
func (c *Cache) SetHand(side Side, joints []mgl64.Vec3) {
	if c == nil || (side != Left && side != Right) {
		return
	}
	var cp []mgl64.Vec3
	if len(joints) > 0 {
		cp = append(make([]mgl64.Vec3, 0, len(joints)), joints...)
	}
	c.mu.Lock()
	c.hands[side] = cp
	c.updates++
	c.mu.Unlock()
}

// Reset forgets all tracking data.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.head = nil
	c.hands = [2][]mgl64.Vec3{}
	c.updates++
	c.mu.Unlock()
}

// Updates counts writes since creation.
func (c *Cache) Updates() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updates
}

// Snapshot copies the current state. Hand slices are never mutated after a
// write, so they are shared rather than copied.
func (c *Cache) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Left: c.hands[Left], Right: c.hands[Right]}
	if c.head != nil {
		h := *c.head
		snap.Head = &h
	}
	return snap
}
