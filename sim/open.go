package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/ecs/entity"
	"github.com/milk9111/fairyflight/prefabs"
	"github.com/milk9111/fairyflight/room"
	"go.uber.org/zap"
)

// Config names the documents a simulation is built from. Empty paths use the
// embedded defaults.
type Config struct {
	Spec string
	Room string
	Rig  string
	Seed uint64
	// Scripted replaces autonomous flight with the built-in Lissajous curve.
	Scripted bool
}

func (c Config) withDefaults() Config {
	if c.Spec == "" {
		c.Spec = "fairy.yaml"
	}
	if c.Room == "" {
		c.Room = "room.yaml"
	}
	if c.Rig == "" {
		c.Rig = "rig.yaml"
	}
	return c
}

// Open loads the tuning, room and rig documents and builds a simulation with
// the character parked at the room's center, 1.2 m up.
func Open(cfg Config, log *zap.Logger) (*Simulation, *room.Room, error) {
	cfg = cfg.withDefaults()

	spec, err := prefabs.LoadFairySpec(cfg.Spec)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Scripted {
		spec = scriptedSpec(spec)
	}

	r, err := room.Load(cfg.Room)
	if err != nil {
		return nil, nil, err
	}
	rig, err := entity.LoadRig(cfg.Rig)
	if err != nil {
		return nil, nil, err
	}

	s, err := New(Options{
		Spec:    spec,
		Rig:     rig,
		Spatial: r,
		Seed:    cfg.Seed,
		Spawn:   roomCenter(r),
		Logger:  log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Spec, err)
	}
	s.SetKeepOut(r.KeepOut())
	s.scripted = cfg.Scripted
	return s, r, nil
}

// scriptedSpec swaps autonomous flight for the built-in Lissajous curve. A
// document that already names a curve is left alone.
func scriptedSpec(spec prefabs.FairySpec) prefabs.FairySpec {
	if spec.Curve.Mode == "" || spec.Curve.Mode == prefabs.CurveAutonomous {
		spec.Curve.Mode = prefabs.CurveLissajous
	}
	return spec
}

func roomCenter(r *room.Room) mgl64.Vec3 {
	corners := r.Corners()
	var c mgl64.Vec2
	for _, p := range corners {
		c = c.Add(p)
	}
	if len(corners) > 0 {
		c = c.Mul(1 / float64(len(corners)))
	}
	return mgl64.Vec3{c.X(), r.Floor() + 1.2, c.Y()}
}
