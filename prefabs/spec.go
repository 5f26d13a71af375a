package prefabs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

// Vec3 is written in YAML as a three element sequence.
type Vec3 [3]float64

type validator interface {
	Validate() error
}

// LoadSpec reads filename and decodes it over defaults.
func LoadSpec[T validator](filename string, defaults T, checkSchema bool) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	spec, err := DecodeSpec(data, defaults, checkSchema)
	if err != nil {
		return zero, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

// DecodeSpec checks data against the schema of T when asked, decodes it
// over defaults and runs the semantic checks.
func DecodeSpec[T validator](data []byte, defaults T, checkSchema bool) (T, error) {
	var zero T
	if checkSchema {
		if err := ValidateDocument(defaults, data); err != nil {
			return zero, err
		}
	}

	spec := defaults
	if err := decodeStrict(data, &spec); err != nil {
		return zero, fmt.Errorf("unmarshal: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return zero, err
	}
	return spec, nil
}

func LoadFairySpec(filename string) (FairySpec, error) {
	return LoadSpec(filename, DefaultFairySpec(), true)
}

func LoadRoomSpec(filename string) (RoomSpec, error) {
	return LoadSpec(filename, RoomSpec{}, true)
}

// LoadRigSpec skips the schema pass since the joint tree is recursive.
func LoadRigSpec(filename string) (RigSpec, error) {
	return LoadSpec(filename, RigSpec{}, false)
}

// FairySpec holds every tuning constant of a flying toy. Angles are in
// degrees, rates in radians per second, distances in meters.
type FairySpec struct {
	Name      string        `yaml:"name" json:"name,omitempty"`
	Toy       string        `yaml:"toy" json:"toy,omitempty" jsonschema:"enum=fairy,enum=paper_airplane,enum=yoyo"`
	Flight    FlightSpec    `yaml:"flight" json:"flight,omitempty"`
	Avoidance AvoidanceSpec `yaml:"avoidance" json:"avoidance,omitempty"`
	Proximity ProximitySpec `yaml:"proximity" json:"proximity,omitempty"`
	Hair      HairSpec      `yaml:"hair" json:"hair,omitempty"`
	Dress     DressSpec     `yaml:"dress" json:"dress,omitempty"`
	Arms      ArmsSpec      `yaml:"arms" json:"arms,omitempty"`
	Legs      LegsSpec      `yaml:"legs" json:"legs,omitempty"`
	Wings     WingsSpec     `yaml:"wings" json:"wings,omitempty"`
	Feet      FeetSpec      `yaml:"feet" json:"feet,omitempty"`
	Trail     TrailSpec     `yaml:"trail" json:"trail,omitempty"`
	Pool      PoolSpec      `yaml:"pool" json:"pool,omitempty"`
	Curve     CurveSpec     `yaml:"curve" json:"curve,omitempty"`
}

type FlightSpec struct {
	FlightSpeed         float64      `yaml:"flight_speed" json:"flight_speed,omitempty"`
	MaxSpeed            float64      `yaml:"max_speed" json:"max_speed,omitempty"`
	Bounciness          float64      `yaml:"bounciness" json:"bounciness,omitempty"`
	RetargetPeriod      float64      `yaml:"retarget_period" json:"retarget_period,omitempty"`
	SpinRate            float64      `yaml:"spin_rate" json:"spin_rate,omitempty"`
	LiftSpeed           float64      `yaml:"lift_speed" json:"lift_speed,omitempty"`
	SteerAccel          float64      `yaml:"steer_accel" json:"steer_accel,omitempty"`
	ArrivalEpsilon      float64      `yaml:"arrival_epsilon" json:"arrival_epsilon,omitempty"`
	Damping             float64      `yaml:"damping" json:"damping,omitempty"`
	HoverRate           float64      `yaml:"hover_rate" json:"hover_rate,omitempty"`
	HoverAccel          float64      `yaml:"hover_accel" json:"hover_accel,omitempty"`
	SteerFalloffInner   float64      `yaml:"steer_falloff_inner" json:"steer_falloff_inner,omitempty"`
	SteerFalloffOuter   float64      `yaml:"steer_falloff_outer" json:"steer_falloff_outer,omitempty"`
	HeldHorizontalDecay float64      `yaml:"held_horizontal_decay" json:"held_horizontal_decay,omitempty"`
	HeldLiftRate        float64      `yaml:"held_lift_rate" json:"held_lift_rate,omitempty"`
	HeldSpinMultiplier  float64      `yaml:"held_spin_multiplier" json:"held_spin_multiplier,omitempty"`
	LaunchGrace         float64      `yaml:"launch_grace" json:"launch_grace,omitempty"`
	Sampling            SamplingSpec `yaml:"sampling" json:"sampling,omitempty"`
}

type SamplingSpec struct {
	ForwardMin      float64 `yaml:"forward_min" json:"forward_min,omitempty"`
	ForwardMax      float64 `yaml:"forward_max" json:"forward_max,omitempty"`
	Lateral         float64 `yaml:"lateral" json:"lateral,omitempty"`
	HeightMin       float64 `yaml:"height_min" json:"height_min,omitempty"`
	HeightMax       float64 `yaml:"height_max" json:"height_max,omitempty"`
	ExclusionRadius float64 `yaml:"exclusion_radius" json:"exclusion_radius,omitempty"`
	HeadClearance   float64 `yaml:"head_clearance" json:"head_clearance,omitempty"`
	Retries         int     `yaml:"retries" json:"retries,omitempty"`
	BoxMin          Vec3    `yaml:"box_min" json:"box_min,omitempty"`
	BoxMax          Vec3    `yaml:"box_max" json:"box_max,omitempty"`
}

type AvoidanceSpec struct {
	SenseRange    float64 `yaml:"sense_range" json:"sense_range,omitempty"`
	RepelStrength float64 `yaml:"repel_strength" json:"repel_strength,omitempty"`
	BodyRadius    float64 `yaml:"body_radius" json:"body_radius,omitempty"`
	BodySense     float64 `yaml:"body_sense" json:"body_sense,omitempty"`
	BodyRepel     float64 `yaml:"body_repel" json:"body_repel,omitempty"`
	HeadClearance float64 `yaml:"head_clearance" json:"head_clearance,omitempty"`
	BoxMargin     float64 `yaml:"box_margin" json:"box_margin,omitempty"`
	BoxRepel      float64 `yaml:"box_repel" json:"box_repel,omitempty"`
}

type ProximitySpec struct {
	HeldThreshold  float64 `yaml:"held_threshold" json:"held_threshold,omitempty"`
	ReleaseMargin  float64 `yaml:"release_margin" json:"release_margin,omitempty"`
	InfluenceRange float64 `yaml:"influence_range" json:"influence_range,omitempty"`
	SpinBoostMax   float64 `yaml:"spin_boost_max" json:"spin_boost_max,omitempty"`
}

type SpringSpec struct {
	Stiffness float64 `yaml:"stiffness" json:"stiffness,omitempty"`
	Damping   float64 `yaml:"damping" json:"damping,omitempty"`
}

type HairSpec struct {
	Spring    SpringSpec `yaml:"spring" json:"spring,omitempty"`
	Influence float64    `yaml:"influence" json:"influence,omitempty"`
	RestDeg   float64    `yaml:"rest_deg" json:"rest_deg,omitempty"`
	MinDeg    float64    `yaml:"min_deg" json:"min_deg,omitempty"`
	MaxDeg    float64    `yaml:"max_deg" json:"max_deg,omitempty"`
}

type DressSpec struct {
	Spring      SpringSpec `yaml:"spring" json:"spring,omitempty"`
	Influence   float64    `yaml:"influence" json:"influence,omitempty"`
	SwayUpDeg   float64    `yaml:"sway_up_deg" json:"sway_up_deg,omitempty"`
	SwayDownDeg float64    `yaml:"sway_down_deg" json:"sway_down_deg,omitempty"`
	Petals      int        `yaml:"petals" json:"petals,omitempty"`
}

type ArmsSpec struct {
	Spring      SpringSpec `yaml:"spring" json:"spring,omitempty"`
	Influence   float64    `yaml:"influence" json:"influence,omitempty"`
	SwayDownDeg float64    `yaml:"sway_down_deg" json:"sway_down_deg,omitempty"`
	SwayUpDeg   float64    `yaml:"sway_up_deg" json:"sway_up_deg,omitempty"`
}

type LegsSpec struct {
	Spring     SpringSpec `yaml:"spring" json:"spring,omitempty"`
	Influence  float64    `yaml:"influence" json:"influence,omitempty"`
	MaxTiltDeg float64    `yaml:"max_tilt_deg" json:"max_tilt_deg,omitempty"`
}

type WingsSpec struct {
	BaseRate         float64 `yaml:"base_rate" json:"base_rate,omitempty"`
	MaxRate          float64 `yaml:"max_rate" json:"max_rate,omitempty"`
	VelocityForMax   float64 `yaml:"velocity_for_max" json:"velocity_for_max,omitempty"`
	AmplitudeUpDeg   float64 `yaml:"amplitude_up_deg" json:"amplitude_up_deg,omitempty"`
	AmplitudeDownDeg float64 `yaml:"amplitude_down_deg" json:"amplitude_down_deg,omitempty"`
	MinSpreadDeg     float64 `yaml:"min_spread_deg" json:"min_spread_deg,omitempty"`
	MaxSpreadDeg     float64 `yaml:"max_spread_deg" json:"max_spread_deg,omitempty"`
	Count            int     `yaml:"count" json:"count,omitempty"`
}

type FeetSpec struct {
	BaseRate       float64 `yaml:"base_rate" json:"base_rate,omitempty"`
	MaxRate        float64 `yaml:"max_rate" json:"max_rate,omitempty"`
	VelocityForMax float64 `yaml:"velocity_for_max" json:"velocity_for_max,omitempty"`
	AmplitudeDeg   float64 `yaml:"amplitude_deg" json:"amplitude_deg,omitempty"`
	PhaseOffsetDeg float64 `yaml:"phase_offset_deg" json:"phase_offset_deg,omitempty"`
}

type TrailSpec struct {
	EmissionRate     float64  `yaml:"emission_rate" json:"emission_rate,omitempty"`
	SurfaceProximity float64  `yaml:"surface_proximity" json:"surface_proximity,omitempty"`
	Kinds            []string `yaml:"kinds" json:"kinds,omitempty"`
}

type PoolSpec struct {
	Warm          int        `yaml:"warm" json:"warm,omitempty"`
	Capacity      int        `yaml:"capacity" json:"capacity,omitempty"`
	MaxAge        float64    `yaml:"max_age" json:"max_age,omitempty"`
	FadeDuration  float64    `yaml:"fade_duration" json:"fade_duration,omitempty"`
	ScaleMin      float64    `yaml:"scale_min" json:"scale_min,omitempty"`
	ScaleMax      float64    `yaml:"scale_max" json:"scale_max,omitempty"`
	SurfaceOffset float64    `yaml:"surface_offset" json:"surface_offset,omitempty"`
	Palette       []HexColor `yaml:"palette" json:"palette,omitempty"`
}

const (
	CurveAutonomous = "autonomous"
	CurveLissajous  = "lissajous"
	CurveScript     = "script"
)

type CurveSpec struct {
	Mode      string  `yaml:"mode" json:"mode,omitempty" jsonschema:"enum=autonomous,enum=lissajous,enum=script"`
	Script    string  `yaml:"script" json:"script,omitempty"`
	Center    Vec3    `yaml:"center" json:"center,omitempty"`
	Amplitude Vec3    `yaml:"amplitude" json:"amplitude,omitempty"`
	Frequency Vec3    `yaml:"frequency" json:"frequency,omitempty"`
	PhaseDeg  Vec3    `yaml:"phase_deg" json:"phase_deg,omitempty"`
	Speed     float64 `yaml:"speed" json:"speed,omitempty"`
}

// DefaultFairySpec mirrors the embedded fairy.yaml.
func DefaultFairySpec() FairySpec {
	return FairySpec{
		Name: "fairy",
		Toy:  "fairy",
		Flight: FlightSpec{
			FlightSpeed:         0.35,
			MaxSpeed:            0.5,
			Bounciness:          0.5,
			RetargetPeriod:      4,
			SpinRate:            1.2,
			LiftSpeed:           0.2,
			SteerAccel:          0.8,
			ArrivalEpsilon:      0.05,
			Damping:             0.5,
			HoverRate:           1.5,
			HoverAccel:          0.03,
			SteerFalloffInner:   0,
			SteerFalloffOuter:   0.8,
			HeldHorizontalDecay: 2,
			HeldLiftRate:        3,
			HeldSpinMultiplier:  2,
			LaunchGrace:         1,
			Sampling: SamplingSpec{
				ForwardMin:      0.5,
				ForwardMax:      2.0,
				Lateral:         1.5,
				HeightMin:       0.8,
				HeightMax:       2.0,
				ExclusionRadius: 0.7,
				HeadClearance:   0.1,
				Retries:         10,
				BoxMin:          Vec3{-1.5, 0.8, -1.5},
				BoxMax:          Vec3{1.5, 2.0, 1.5},
			},
		},
		Avoidance: AvoidanceSpec{
			SenseRange:    1.0,
			RepelStrength: 0.6,
			BodyRadius:    0.25,
			BodySense:     0.45,
			BodyRepel:     3,
			HeadClearance: 0.1,
			BoxMargin:     0.15,
			BoxRepel:      3,
		},
		Proximity: ProximitySpec{
			HeldThreshold:  0.15,
			InfluenceRange: 0.5,
			SpinBoostMax:   2,
		},
		Hair: HairSpec{
			Spring:    SpringSpec{Stiffness: 10, Damping: 0.8},
			Influence: 120,
			RestDeg:   -35,
			MinDeg:    -120,
			MaxDeg:    -60,
		},
		Dress: DressSpec{
			Spring:      SpringSpec{Stiffness: 15, Damping: 1.2},
			Influence:   80,
			SwayUpDeg:   4,
			SwayDownDeg: 10,
			Petals:      12,
		},
		Arms: ArmsSpec{
			Spring:      SpringSpec{Stiffness: 12, Damping: 1.5},
			Influence:   60,
			SwayDownDeg: 5,
			SwayUpDeg:   25,
		},
		Legs: LegsSpec{
			Spring:     SpringSpec{Stiffness: 12, Damping: 1.5},
			Influence:  1.5,
			MaxTiltDeg: 12,
		},
		Wings: WingsSpec{
			BaseRate:         6,
			MaxRate:          55,
			VelocityForMax:   0.4,
			AmplitudeUpDeg:   30,
			AmplitudeDownDeg: 10,
			MinSpreadDeg:     6,
			MaxSpreadDeg:     22.5,
			Count:            7,
		},
		Feet: FeetSpec{
			BaseRate:       4,
			MaxRate:        30,
			VelocityForMax: 0.4,
			AmplitudeDeg:   36,
			PhaseOffsetDeg: 180,
		},
		Trail: TrailSpec{
			EmissionRate:     5,
			SurfaceProximity: 0.3,
			Kinds:            []string{"flower", "star", "heart"},
		},
		Pool: PoolSpec{
			Warm:          150,
			Capacity:      200,
			MaxAge:        8,
			FadeDuration:  2,
			ScaleMin:      0.03,
			ScaleMax:      0.06,
			SurfaceOffset: 0.002,
			Palette: []HexColor{
				RGB8(0xff, 0x66, 0x99),
				RGB8(0xff, 0xd9, 0x00),
				RGB8(0x4d, 0xcc, 0xff),
				RGB8(0x80, 0xff, 0x4d),
				RGB8(0xff, 0x80, 0x00),
				RGB8(0xcc, 0x66, 0xff),
			},
		},
		Curve: CurveSpec{
			Mode:      CurveAutonomous,
			Center:    Vec3{0, 1.4, -1.2},
			Amplitude: Vec3{0.4, 0.2, 0.3},
			Frequency: Vec3{1.0, 1.3, 0.7},
			PhaseDeg:  Vec3{0, 45, 90},
			Speed:     0.5,
		},
	}
}

// Validate reports every semantic problem in s at once.
func (s FairySpec) Validate() error {
	var err error
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidSpec, name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) || math.IsInf(v, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidSpec, name, v))
		}
	}
	ordered := func(name string, lo, hi float64) {
		if lo > hi {
			err = multierr.Append(err, fmt.Errorf("%w: %s range is inverted (%v > %v)", ErrInvalidSpec, name, lo, hi))
		}
	}

	f := s.Flight
	positive("flight.flight_speed", f.FlightSpeed)
	positive("flight.max_speed", f.MaxSpeed)
	positive("flight.retarget_period", f.RetargetPeriod)
	nonNegative("flight.steer_accel", f.SteerAccel)
	nonNegative("flight.damping", f.Damping)
	nonNegative("flight.launch_grace", f.LaunchGrace)
	nonNegative("flight.held_spin_multiplier", f.HeldSpinMultiplier)
	ordered("flight.steer_falloff", f.SteerFalloffInner, f.SteerFalloffOuter)
	ordered("flight.sampling.forward", f.Sampling.ForwardMin, f.Sampling.ForwardMax)
	ordered("flight.sampling.height", f.Sampling.HeightMin, f.Sampling.HeightMax)
	for i, axis := range []string{"x", "y", "z"} {
		ordered("flight.sampling.box."+axis, f.Sampling.BoxMin[i], f.Sampling.BoxMax[i])
	}
	if f.Sampling.Retries < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: flight.sampling.retries must not be negative", ErrInvalidSpec))
	}

	a := s.Avoidance
	positive("avoidance.sense_range", a.SenseRange)
	nonNegative("avoidance.body_radius", a.BodyRadius)
	nonNegative("avoidance.body_sense", a.BodySense)
	nonNegative("avoidance.box_margin", a.BoxMargin)

	p := s.Proximity
	positive("proximity.held_threshold", p.HeldThreshold)
	nonNegative("proximity.release_margin", p.ReleaseMargin)
	positive("proximity.influence_range", p.InfluenceRange)
	if p.SpinBoostMax < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: proximity.spin_boost_max must be at least 1, got %v", ErrInvalidSpec, p.SpinBoostMax))
	}

	for _, sp := range []struct {
		name   string
		spring SpringSpec
	}{
		{"hair", s.Hair.Spring},
		{"dress", s.Dress.Spring},
		{"arms", s.Arms.Spring},
		{"legs", s.Legs.Spring},
	} {
		positive(sp.name+".spring.stiffness", sp.spring.Stiffness)
		nonNegative(sp.name+".spring.damping", sp.spring.Damping)
	}
	ordered("hair.clamp", s.Hair.MinDeg, s.Hair.MaxDeg)
	if s.Dress.Petals < 0 || s.Wings.Count < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: joint counts must not be negative", ErrInvalidSpec))
	}
	ordered("wings.rate", s.Wings.BaseRate, s.Wings.MaxRate)
	ordered("wings.spread", s.Wings.MinSpreadDeg, s.Wings.MaxSpreadDeg)
	ordered("feet.rate", s.Feet.BaseRate, s.Feet.MaxRate)

	nonNegative("trail.emission_rate", s.Trail.EmissionRate)
	nonNegative("trail.surface_proximity", s.Trail.SurfaceProximity)

	pool := s.Pool
	if pool.Capacity <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: pool.capacity must be positive, got %d", ErrInvalidSpec, pool.Capacity))
	}
	if pool.Warm < 0 || pool.Warm > pool.Capacity {
		err = multierr.Append(err, fmt.Errorf("%w: pool.warm must be within [0, capacity], got %d", ErrInvalidSpec, pool.Warm))
	}
	positive("pool.max_age", pool.MaxAge)
	nonNegative("pool.fade_duration", pool.FadeDuration)
	ordered("pool.scale", pool.ScaleMin, pool.ScaleMax)

	switch s.Curve.Mode {
	case "", CurveAutonomous, CurveLissajous:
	case CurveScript:
		if strings.TrimSpace(s.Curve.Script) == "" {
			err = multierr.Append(err, fmt.Errorf("%w: curve.script is required in script mode", ErrInvalidSpec))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown curve.mode %q", ErrInvalidSpec, s.Curve.Mode))
	}

	return err
}

// HexColor is an RGB color written as "#rrggbb".
type HexColor struct {
	R, G, B float64
}

func RGB8(r, g, b uint8) HexColor {
	return HexColor{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func (c *HexColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")
	if len(s) != 6 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (float64, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return float64(v) / 255, err
	}

	var err error
	if c.R, err = parse(0); err != nil {
		return err
	}
	if c.G, err = parse(2); err != nil {
		return err
	}
	if c.B, err = parse(4); err != nil {
		return err
	}
	return nil
}

func (c HexColor) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c HexColor) String() string {
	to8 := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B))
}

func (HexColor) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:    "string",
		Pattern: "^#?[0-9a-fA-F]{6}$",
	}
}
