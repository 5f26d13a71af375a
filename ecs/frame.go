package ecs

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/pose"
)

// MaxFrameDelta is the longest tick integrating systems accept. Longer ticks
// mean the host stalled and are skipped.
const MaxFrameDelta = 0.1

// KeepOut is an axis-aligned volume the character treats as solid.
type KeepOut struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
}

// Frame is the read-only context handed to every system once per frame.
type Frame struct {
	Dt      float64
	Index   uint64
	Poses   pose.Snapshot
	KeepOut *KeepOut
}

// Stable reports whether Dt is safe for integration.
func (f *Frame) Stable() bool {
	return f != nil && f.Dt > 0 && f.Dt <= MaxFrameDelta
}
