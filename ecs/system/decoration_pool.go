package system

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
)

// DefaultPalette is the decoration color set.
var DefaultPalette = []component.Color{
	{R: 1.0, G: 0.4, B: 0.6},  // hot pink
	{R: 1.0, G: 0.85, B: 0.0}, // sunshine yellow
	{R: 0.3, G: 0.8, B: 1.0},  // sky blue
	{R: 0.5, G: 1.0, B: 0.3},  // lime
	{R: 1.0, G: 0.5, B: 0.0},  // orange
	{R: 0.8, G: 0.4, B: 1.0},  // purple
}

var DefaultDecorationKinds = []string{"flower", "star", "heart"}

type PoolParams struct {
	Warm         int
	Capacity     int
	MaxAge       float64
	FadeDuration float64
	ScaleMin     float64
	ScaleMax     float64
	// SurfaceOffset lifts decorations off the surface along its normal.
	SurfaceOffset float64
	Palette       []component.Color
}

func DefaultPoolParams() PoolParams {
	return PoolParams{
		Warm:          150,
		Capacity:      200,
		MaxAge:        8.0,
		FadeDuration:  2.0,
		ScaleMin:      0.03,
		ScaleMax:      0.06,
		SurfaceOffset: 0.002,
		Palette:       DefaultPalette,
	}
}

// DecorationPool owns the decoration entities. Free entities carry a
// Transform and an invisible Appearance; live ones also carry a Decoration.
// Only Spawn and Recycle change membership.
type DecorationPool struct {
	mu     sync.Mutex
	w      *ecs.World
	params PoolParams
	rng    *rand.Rand
	free   []ecs.Entity
	active int
	built  int
}

// NewDecorationPool builds the warm entries up front so spawning never
// allocates until the warm set is exhausted.
func NewDecorationPool(w *ecs.World, params PoolParams, rng *rand.Rand) *DecorationPool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(params.Palette) == 0 {
		params.Palette = DefaultPalette
	}
	warm := params.Warm
	if params.Capacity > 0 && warm > params.Capacity {
		warm = params.Capacity
	}

	p := &DecorationPool{w: w, params: params, rng: rng}
	p.free = make([]ecs.Entity, 0, max(warm, params.Capacity))
	for i := 0; i < warm; i++ {
		p.free = append(p.free, p.build())
	}
	return p
}

func (p *DecorationPool) build() ecs.Entity {
	e := ecs.CreateEntity(p.w)
	_ = ecs.Add(p.w, e, component.TransformComponent.Kind(), component.NewTransform(mgl64.Vec3{}))
	_ = ecs.Add(p.w, e, component.AppearanceComponent.Kind(), &component.Appearance{})
	p.built++
	return e
}

// Spawn places a decoration at pos facing normal, picking its kind from
// kinds (DefaultDecorationKinds when empty). It returns false and does
// nothing when the pool is at capacity.
func (p *DecorationPool) Spawn(pos, normal mgl64.Vec3, kinds []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active >= p.params.Capacity {
		return false
	}

	var e ecs.Entity
	if n := len(p.free); n > 0 {
		e = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		e = p.build()
	}

	if normal.Len() < 1e-9 {
		normal = common.AxisY
	}
	up := normal.Normalize()
	spin := common.AxisAngle(p.rng.Float64()*2*math.Pi, up)
	scale := uniform(p.rng, p.params.ScaleMin, p.params.ScaleMax)

	t, ok := ecs.Get(p.w, e, component.TransformComponent.Kind())
	if !ok {
		t = component.NewTransform(mgl64.Vec3{})
		_ = ecs.Add(p.w, e, component.TransformComponent.Kind(), t)
	}
	t.Position = pos.Add(up.Mul(p.params.SurfaceOffset))
	t.Rotation = spin.Mul(surfaceBasis(up)).Normalize()
	t.Scale = mgl64.Vec3{scale, scale, scale}

	app, ok := ecs.Get(p.w, e, component.AppearanceComponent.Kind())
	if !ok {
		app = &component.Appearance{}
		_ = ecs.Add(p.w, e, component.AppearanceComponent.Kind(), app)
	}
	app.Color = p.params.Palette[p.rng.IntN(len(p.params.Palette))]
	if len(kinds) == 0 {
		kinds = DefaultDecorationKinds
	}
	app.Kind = kinds[p.rng.IntN(len(kinds))]
	app.Opacity = 1
	app.Visible = true

	_ = ecs.Add(p.w, e, component.DecorationComponent.Kind(), &component.Decoration{
		MaxAge:       p.params.MaxAge,
		FadeDuration: p.params.FadeDuration,
	})
	p.active++
	return true
}

// Recycle returns a live decoration to the free list. Entities that are not
// live decorations are ignored.
func (p *DecorationPool) Recycle(e ecs.Entity) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !ecs.Remove(p.w, e, component.DecorationComponent.Kind()) {
		return false
	}
	if app, ok := ecs.Get(p.w, e, component.AppearanceComponent.Kind()); ok {
		app.Opacity = 0
		app.Visible = false
	}
	p.free = append(p.free, e)
	p.active--
	return true
}

// SetLifetime changes the lifetime given to future spawns.
func (p *DecorationPool) SetLifetime(maxAge, fade float64) {
	p.mu.Lock()
	p.params.MaxAge = maxAge
	p.params.FadeDuration = fade
	p.mu.Unlock()
}

func (p *DecorationPool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *DecorationPool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

func (p *DecorationPool) Capacity() int {
	return p.params.Capacity
}

// surfaceBasis rotates +Y onto up.
func surfaceBasis(up mgl64.Vec3) mgl64.Quat {
	ref := common.AxisY
	if math.Abs(up.Y()) >= 0.99 {
		ref = common.AxisX
	}
	right := up.Cross(ref).Normalize()
	forward := right.Cross(up)
	basis := mgl64.Mat3FromCols(right, up, forward)
	return mgl64.Mat4ToQuat(basis.Mat4()).Normalize()
}
