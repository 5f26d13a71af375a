package pose

import (
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEmptyUntilWritten(t *testing.T) {
	c := NewCache()
	snap := c.Snapshot()

	_, ok := snap.HeadPose()
	assert.False(t, ok)
	assert.Empty(t, snap.HandJointPositions(Left))
	assert.Empty(t, snap.HandJointPositions(Right))
	assert.Zero(t, c.Updates())

	var nilCache *Cache
	nilCache.SetHead(Head{})
	assert.Zero(t, nilCache.Snapshot().JointCount())
}

func TestSnapshotIsolatedFromLaterWrites(t *testing.T) {
	c := NewCache()
	joints := []mgl64.Vec3{{0.1, 1, 0}, {0.2, 1, 0}}
	c.SetHand(Right, joints)
	c.SetHead(Head{Position: mgl64.Vec3{0, 1.6, 0}, Rotation: mgl64.QuatIdent()})

	snap := c.Snapshot()
	joints[0] = mgl64.Vec3{9, 9, 9}
	c.SetHead(Head{Position: mgl64.Vec3{5, 5, 5}, Rotation: mgl64.QuatIdent()})
	c.SetHand(Right, nil)

	head, ok := snap.HeadPose()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, 1.6, 0}, head.Position)
	require.Len(t, snap.HandJointPositions(Right), 2)
	assert.Equal(t, mgl64.Vec3{0.1, 1, 0}, snap.HandJointPositions(Right)[0])
	assert.Equal(t, 2, snap.JointCount())

	assert.Empty(t, c.Snapshot().HandJointPositions(Right))
	assert.EqualValues(t, 4, c.Updates())

	c.Reset()
	_, ok = c.Snapshot().HeadPose()
	assert.False(t, ok)
}

func TestHeadForward(t *testing.T) {
	tests := []struct {
		name string
		rot  mgl64.Quat
		want mgl64.Vec3
		ok   bool
	}{
		{name: "identity looks down -z", rot: mgl64.QuatIdent(), want: mgl64.Vec3{0, 0, -1}, ok: true},
		{name: "zero quaternion treated as identity", rot: mgl64.Quat{}, want: mgl64.Vec3{0, 0, -1}, ok: true},
		{name: "turned left", rot: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}), want: mgl64.Vec3{-1, 0, 0}, ok: true},
		{name: "pitched down is flattened", rot: mgl64.QuatRotate(-math.Pi/4, mgl64.Vec3{1, 0, 0}), want: mgl64.Vec3{0, 0, -1}, ok: true},
		{name: "straight up", rot: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0}), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, ok := Head{Rotation: tt.rot}.Forward()
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tt.want[i], fwd[i], 1e-9)
			}
		})
	}
}

func TestCacheConcurrentWriters(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.SetHand(Side(i%2), []mgl64.Vec3{{float64(i), float64(j), 0}})
				_ = c.Snapshot()
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 800, c.Updates())
}
