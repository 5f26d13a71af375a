// Package sim wires the character pipeline into a runnable simulation.
//
// A Simulation owns the world, the system schedule, the decoration pool and
// the pose cache. Step is called from a single frame loop. The other methods
// may be called from any goroutine.
package sim

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/milk9111/fairyflight/ecs/entity"
	"github.com/milk9111/fairyflight/ecs/system"
	"github.com/milk9111/fairyflight/pose"
	"github.com/milk9111/fairyflight/prefabs"
	"go.uber.org/zap"
)

// maxEvents bounds the events kept between drains.
const maxEvents = 256

const (
	SystemRigBind        = "rig_bind"
	SystemProximity      = "proximity"
	SystemSteering       = "steering"
	SystemCurve          = "curve"
	SystemAvoidance      = "avoidance"
	SystemHair           = "hair"
	SystemDress          = "dress"
	SystemArms           = "arms"
	SystemLegs           = "legs"
	SystemWings          = "wings"
	SystemFeet           = "feet"
	SystemTrailSpawner   = "trail_spawner"
	SystemTrailLifecycle = "trail_lifecycle"
)

type Options struct {
	Spec prefabs.FairySpec
	// Rig is optional. Without it the character animates nothing.
	Rig *component.Rig
	// Spatial answers room ray casts. Nil disables surface avoidance and
	// the trail.
	Spatial ecs.SpatialQuery
	// Poses is shared with the pose producers. Nil creates a private cache.
	Poses  *pose.Cache
	Seed   uint64
	Spawn  mgl64.Vec3
	Logger *zap.Logger
}

type systems struct {
	rigBind        *system.RigBindSystem
	proximity      *system.ProximitySystem
	steering       *system.SteeringSystem
	curve          *system.CurveSystem
	avoidance      *system.AvoidanceSystem
	hair           *system.HairSystem
	dress          *system.DressSystem
	arms           *system.ArmsSystem
	legs           *system.LegsSystem
	wings          *system.WingsSystem
	feet           *system.FeetSystem
	trailSpawner   *system.TrailSpawnerSystem
	trailLifecycle *system.TrailLifecycleSystem
}

type Simulation struct {
	mu      sync.Mutex
	id      uuid.UUID
	log     *zap.Logger
	world   *ecs.World
	sched   *ecs.Scheduler
	sys     systems
	poses   *pose.Cache
	pool    *system.DecorationPool
	fairy   ecs.Entity
	spec    prefabs.FairySpec
	keepOut *ecs.KeepOut
	frame   uint64
	elapsed float64
	events  []ecs.Event

	// scripted pins reloaded specs to a curve mode.
	scripted bool
}

// New builds the world and resolves the system order. A cycle in the
// ordering constraints is reported here, before any frame runs.
func New(opts Options) (*Simulation, error) {
	if err := opts.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	log = log.With(zap.String("session", id.String()))

	poses := opts.Poses
	if poses == nil {
		poses = pose.NewCache()
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	w := ecs.NewWorld()

	s := &Simulation{
		id:    id,
		log:   log,
		world: w,
		poses: poses,
		spec:  opts.Spec,
		pool:  system.NewDecorationPool(w, poolParams(opts.Spec), rng),
	}

	fairy, err := entity.NewFairy(w, opts.Spec, opts.Rig, opts.Spawn)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.fairy = fairy

	s.sys = systems{
		rigBind:        system.NewRigBindSystem(log),
		proximity:      system.NewProximitySystem(log),
		steering:       system.NewSteeringSystem(rng),
		curve:          system.NewCurveSystem(),
		avoidance:      system.NewAvoidanceSystem(opts.Spatial),
		hair:           system.NewHairSystem(),
		dress:          system.NewDressSystem(),
		arms:           system.NewArmsSystem(),
		legs:           system.NewLegsSystem(),
		wings:          system.NewWingsSystem(),
		feet:           system.NewFeetSystem(),
		trailSpawner:   system.NewTrailSpawnerSystem(opts.Spatial, s.pool),
		trailLifecycle: system.NewTrailLifecycleSystem(s.pool),
	}
	s.setParams(opts.Spec)

	sched, err := buildSchedule(s.sys)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.sched = sched

	log.Info("simulation ready",
		zap.Strings("order", sched.Order()),
		zap.Int("pool_capacity", s.pool.Capacity()),
		zap.Bool("rig", opts.Rig != nil),
		zap.Bool("spatial", opts.Spatial != nil),
	)
	return s, nil
}

func buildSchedule(sys systems) (*ecs.Scheduler, error) {
	sched := ecs.NewScheduler()
	animation := func(name string, sys ecs.System) error {
		return sched.Add(name, sys, ecs.After(SystemAvoidance), ecs.After(SystemRigBind))
	}

	steps := []func() error{
		func() error { return sched.Add(SystemRigBind, sys.rigBind) },
		func() error { return sched.Add(SystemProximity, sys.proximity) },
		func() error { return sched.Add(SystemSteering, sys.steering, ecs.After(SystemProximity)) },
		func() error {
			return sched.Add(SystemCurve, sys.curve, ecs.After(SystemProximity), ecs.Before(SystemAvoidance))
		},
		func() error { return sched.Add(SystemAvoidance, sys.avoidance, ecs.After(SystemSteering)) },
		func() error { return animation(SystemHair, sys.hair) },
		func() error { return animation(SystemDress, sys.dress) },
		func() error { return animation(SystemArms, sys.arms) },
		func() error { return animation(SystemLegs, sys.legs) },
		func() error { return animation(SystemWings, sys.wings) },
		func() error { return animation(SystemFeet, sys.feet) },
		func() error { return sched.Add(SystemTrailSpawner, sys.trailSpawner, ecs.After(SystemAvoidance)) },
		func() error {
			return sched.Add(SystemTrailLifecycle, sys.trailLifecycle, ecs.After(SystemTrailSpawner))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	if err := sched.Build(); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Simulation) setParams(spec prefabs.FairySpec) {
	s.sys.rigBind.Layout = system.NewRigLayout(spec.Dress.Petals, spec.Wings.Count)
	s.sys.proximity.Params = proximityParams(spec)
	s.sys.steering.Params = steeringParams(spec)
	s.sys.avoidance.Params = avoidanceParams(spec)
	s.sys.hair.Params = hairParams(spec)
	s.sys.dress.Params = dressParams(spec)
	s.sys.arms.Params = armsParams(spec)
	s.sys.legs.Params = legsParams(spec)
	s.sys.wings.Params = wingsParams(spec)
	s.sys.feet.Params = feetParams(spec)
}

func (s *Simulation) ID() uuid.UUID { return s.id }

func (s *Simulation) Poses() *pose.Cache { return s.poses }

func (s *Simulation) Fairy() ecs.Entity { return s.fairy }

// Order returns the resolved system order.
func (s *Simulation) Order() []string { return s.sched.Order() }

// Step advances the simulation by dt seconds. Integrating systems skip
// ticks outside (0, ecs.MaxFrameDelta].
func (s *Simulation) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &ecs.Frame{
		Dt:      dt,
		Index:   s.frame,
		Poses:   s.poses.Snapshot(),
		KeepOut: s.keepOut,
	}
	_ = s.sched.Update(s.world, f)
	s.frame++
	if f.Stable() {
		s.elapsed += dt
	}

	if evts := s.world.Events().Drain(); len(evts) > 0 {
		s.events = append(s.events, evts...)
		if over := len(s.events) - maxEvents; over > 0 {
			s.events = append(s.events[:0], s.events[over:]...)
		}
	}
}

// Activate places the character at pos with velocity vel and arms the launch
// grace, during which avoidance does not fight the launch.
func (s *Simulation) Activate(pos, vel mgl64.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, e := s.world, s.fairy
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		t.Position = pos
	}
	if m, ok := ecs.Get(w, e, component.MotionComponent.Kind()); ok {
		if m.MaxSpeed > 0 && vel.Len() > m.MaxSpeed {
			vel = vel.Normalize().Mul(m.MaxSpeed)
		}
		m.Velocity = vel
	}
	if b, ok := ecs.Get(w, e, component.BehaviorComponent.Kind()); ok {
		b.LaunchGrace = s.spec.Flight.LaunchGrace
		b.TimeUntilNewTarget = 0
		b.Held = false
		b.SpinMultiplier = 1
	}
	if mode, ok := ecs.Get(w, e, component.MovementModeComponent.Kind()); ok {
		mode.Time = 0
	}
	if a, ok := ecs.Get(w, e, component.ActivationComponent.Kind()); ok {
		a.Active = true
	}

	s.log.Info("character activated",
		zap.Stringer("entity", e),
		zap.Float64s("position", pos[:]),
		zap.Float64s("velocity", vel[:]),
	)
}

// Deactivate stops every per-character system from touching the character
// on the next frame.
func (s *Simulation) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := ecs.Get(s.world, s.fairy, component.ActivationComponent.Kind()); ok && a.Active {
		a.Active = false
		s.log.Info("character deactivated", zap.Stringer("entity", s.fairy))
	}
}

// SetKeepOut replaces the keep-out volume. Nil clears it.
func (s *Simulation) SetKeepOut(k *ecs.KeepOut) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k == nil {
		s.keepOut = nil
		return
	}
	cp := *k
	for i := 0; i < 3; i++ {
		if cp.HalfExtents[i] < 0 {
			cp.HalfExtents[i] = -cp.HalfExtents[i]
		}
	}
	s.keepOut = &cp
}

func (s *Simulation) KeepOut() *ecs.KeepOut {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keepOut == nil {
		return nil
	}
	k := *s.keepOut
	return &k
}

// ApplySpec swaps tuning between frames. Runtime state such as spring angles,
// flap phases, targets and live decorations is kept.
func (s *Simulation) ApplySpec(spec prefabs.FairySpec) error {
	return s.applySpec(spec, false)
}

// applySpec rebuilds the movement mode when the curve section changed or
// reloadCurve is set, which is how edited curve scripts are picked up.
func (s *Simulation) applySpec(spec prefabs.FairySpec, reloadCurve bool) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("sim: apply spec: %w", err)
	}
	if err := entity.CheckFlying(spec); err != nil {
		return fmt.Errorf("sim: apply spec: %w", err)
	}

	var mode component.MovementMode
	curveChanged := reloadCurve || spec.Curve != s.Spec().Curve
	if curveChanged {
		var err error
		if mode, err = entity.MovementModeFromSpec(spec.Curve); err != nil {
			return fmt.Errorf("sim: apply spec: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.spec
	s.spec = spec
	s.setParams(spec)

	w, e := s.world, s.fairy
	if m, ok := ecs.Get(w, e, component.MotionComponent.Kind()); ok {
		m.MaxSpeed = spec.Flight.MaxSpeed
		m.Bounciness = spec.Flight.Bounciness
	}
	if b, ok := ecs.Get(w, e, component.BehaviorComponent.Kind()); ok {
		b.FlightSpeed = spec.Flight.FlightSpeed
		b.TargetChangePeriod = spec.Flight.RetargetPeriod
		b.SpinRate = spec.Flight.SpinRate
		b.LiftSpeed = spec.Flight.LiftSpeed
		b.InfluenceRange = spec.Proximity.InfluenceRange
		if b.TimeUntilNewTarget > spec.Flight.RetargetPeriod {
			b.TimeUntilNewTarget = spec.Flight.RetargetPeriod
		}
	}
	if em, ok := ecs.Get(w, e, component.TrailEmitterComponent.Kind()); ok {
		em.EmissionRate = spec.Trail.EmissionRate
		em.SurfaceProximityThreshold = spec.Trail.SurfaceProximity
		em.Kinds = append([]string(nil), spec.Trail.Kinds...)
	}
	if curveChanged {
		if cur, ok := ecs.Get(w, e, component.MovementModeComponent.Kind()); ok {
			*cur = mode
		}
	}
	if spec.Dress.Petals != old.Dress.Petals || spec.Wings.Count != old.Wings.Count {
		// Rebinds against rest rotations on the next frame.
		ecs.Remove(w, e, component.RigBindingComponent.Kind())
	}
	s.pool.SetLifetime(spec.Pool.MaxAge, spec.Pool.FadeDuration)
	if spec.Pool.Capacity != old.Pool.Capacity || spec.Pool.Warm != old.Pool.Warm {
		s.log.Warn("pool size changes take effect on restart",
			zap.Int("capacity", old.Pool.Capacity),
			zap.Int("requested_capacity", spec.Pool.Capacity),
		)
	}

	s.log.Info("spec applied",
		zap.String("name", spec.Name),
		zap.Bool("curve_changed", curveChanged),
	)
	return nil
}

// Spec returns the tuning currently in effect.
func (s *Simulation) Spec() prefabs.FairySpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// DrainEvents returns the events pushed since the last call, oldest first.
func (s *Simulation) DrainEvents() []ecs.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}
