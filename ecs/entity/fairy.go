package entity

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/ecs/component"
	"github.com/milk9111/fairyflight/ecs/system"
	"github.com/milk9111/fairyflight/prefabs"
)

// ErrNotFlying is returned for toy types that carry no flight components.
var ErrNotFlying = errors.New("fairy: toy does not fly")

// CheckFlying reports ErrNotFlying unless spec describes a fairy. An empty toy
// means fairy.
func CheckFlying(spec prefabs.FairySpec) error {
	switch component.ToyType(spec.Toy) {
	case "", component.ToyFairy:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNotFlying, spec.Toy)
}

// NewFairy creates an inactive character at pos. rig may be nil, in which
// case the secondary animation still integrates but writes nothing.
func NewFairy(w *ecs.World, spec prefabs.FairySpec, rig *component.Rig, pos mgl64.Vec3) (ecs.Entity, error) {
	if w == nil {
		return ecs.Entity{}, fmt.Errorf("fairy: world is nil")
	}
	if err := CheckFlying(spec); err != nil {
		return ecs.Entity{}, err
	}

	mode, err := MovementModeFromSpec(spec.Curve)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: %w", err)
	}

	entity := ecs.CreateEntity(w)

	transform := component.NewTransform(pos)
	if err := ecs.Add(w, entity, component.TransformComponent.Kind(), transform); err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: add transform: %w", err)
	}

	if err := ecs.Add(w, entity, component.MotionComponent.Kind(), &component.Motion{
		Bounciness: spec.Flight.Bounciness,
		MaxSpeed:   spec.Flight.MaxSpeed,
	}); err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: add motion: %w", err)
	}

	if err := ecs.Add(w, entity, component.ActivationComponent.Kind(), &component.Activation{Toy: component.ToyFairy}); err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: add activation: %w", err)
	}

	if err := ecs.Add(w, entity, component.BehaviorComponent.Kind(), &component.Behavior{
		FlightSpeed:        spec.Flight.FlightSpeed,
		TargetChangePeriod: spec.Flight.RetargetPeriod,
		SpinRate:           spec.Flight.SpinRate,
		SpinMultiplier:     1,
		LiftSpeed:          spec.Flight.LiftSpeed,
		HandDistance:       system.NoHandDistance,
		InfluenceRange:     spec.Proximity.InfluenceRange,
	}); err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: add behavior: %w", err)
	}

	if err := ecs.Add(w, entity, component.MovementModeComponent.Kind(), &mode); err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: add movement mode: %w", err)
	}

	secondary := &component.SecondaryMotion{}
	rest := common.Clamp(common.Deg(spec.Hair.RestDeg), common.Deg(spec.Hair.MinDeg), common.Deg(spec.Hair.MaxDeg))
	secondary.Hair.Reset(rest)
	if err := ecs.Add(w, entity, component.SecondaryMotionComponent.Kind(), secondary); err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: add secondary motion: %w", err)
	}

	if err := ecs.Add(w, entity, component.TrailEmitterComponent.Kind(), &component.TrailEmitter{
		EmissionRate:              spec.Trail.EmissionRate,
		SurfaceProximityThreshold: spec.Trail.SurfaceProximity,
		Kinds:                     append([]string(nil), spec.Trail.Kinds...),
	}); err != nil {
		return ecs.Entity{}, fmt.Errorf("fairy: add trail emitter: %w", err)
	}

	if rig != nil {
		if err := ecs.Add(w, entity, component.RigComponent.Kind(), rig); err != nil {
			return ecs.Entity{}, fmt.Errorf("fairy: add rig: %w", err)
		}
		binding := system.BindRig(rig, system.NewRigLayout(spec.Dress.Petals, spec.Wings.Count))
		if err := ecs.Add(w, entity, component.RigBindingComponent.Kind(), &binding); err != nil {
			return ecs.Entity{}, fmt.Errorf("fairy: add rig binding: %w", err)
		}
	}

	return entity, nil
}

// MovementModeFromSpec builds the movement mode a curve section asks for.
// Script curves are loaded through prefabs.LoadScript.
func MovementModeFromSpec(spec prefabs.CurveSpec) (component.MovementMode, error) {
	switch spec.Mode {
	case "", prefabs.CurveAutonomous:
		return component.MovementMode{Kind: component.MovementAutonomous}, nil
	case prefabs.CurveLissajous:
		return component.MovementMode{
			Kind: component.MovementScriptedCurve,
			Curve: component.LissajousCurve{
				Center:    mgl64.Vec3(spec.Center),
				Amplitude: mgl64.Vec3(spec.Amplitude),
				Frequency: mgl64.Vec3(spec.Frequency),
				Phase: mgl64.Vec3{
					common.Deg(spec.PhaseDeg[0]),
					common.Deg(spec.PhaseDeg[1]),
					common.Deg(spec.PhaseDeg[2]),
				},
				Speed: spec.Speed,
			},
		}, nil
	case prefabs.CurveScript:
		src, err := prefabs.LoadScript(spec.Script)
		if err != nil {
			return component.MovementMode{}, fmt.Errorf("load curve script %q: %w", spec.Script, err)
		}
		curve, err := system.NewScriptCurve(spec.Script, src)
		if err != nil {
			return component.MovementMode{}, err
		}
		return component.MovementMode{Kind: component.MovementScriptedCurve, Curve: curve}, nil
	default:
		return component.MovementMode{}, fmt.Errorf("unknown curve mode %q", spec.Mode)
	}
}
