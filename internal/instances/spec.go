package instances

import (
	"flex-engine/internal/flex"
	"flex-engine/internal/mapgen"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Spec is the scene-file definition of one instance. Which fields apply depends on Kind.
type Spec struct {
	Kind string `yaml:"kind" toml:"kind" json:"kind"`
	Name string `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`

	Origin   [3]float32 `yaml:"origin,omitempty" toml:"origin,omitempty" json:"origin,omitempty"`
	Dims     [3]int     `yaml:"dims,omitempty" toml:"dims,omitempty" json:"dims,omitempty"`
	Spacing  float32    `yaml:"spacing,omitempty" toml:"spacing,omitempty" json:"spacing,omitempty"`
	Velocity [3]float32 `yaml:"velocity,omitempty" toml:"velocity,omitempty" json:"velocity,omitempty"`
	Mass     float32    `yaml:"mass,omitempty" toml:"mass,omitempty" json:"mass,omitempty"`
	Radius   float32    `yaml:"radius,omitempty" toml:"radius,omitempty" json:"radius,omitempty"`
	Fluid    bool       `yaml:"fluid,omitempty" toml:"fluid,omitempty" json:"fluid,omitempty"`

	// Stiffness is the rigid shape-matching coefficient or the cloth stretch stiffness.
	Stiffness float32 `yaml:"stiffness,omitempty" toml:"stiffness,omitempty" json:"stiffness,omitempty"`
	Shear     float32 `yaml:"shear,omitempty" toml:"shear,omitempty" json:"shear,omitempty"`
	Bend      float32 `yaml:"bend,omitempty" toml:"bend,omitempty" json:"bend,omitempty"`
	Pinned    bool    `yaml:"pinned,omitempty" toml:"pinned,omitempty" json:"pinned,omitempty"`

	Colliders []ColliderSpec `yaml:"colliders,omitempty" toml:"colliders,omitempty" json:"colliders,omitempty"`

	// Params is a partial solver block a particle grid overlays onto the scene
	// parameters; only non-zero fields apply.
	Params *flex.Params `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`
}

// ColliderSpec is one collision shape of a colliders instance. Kinematic colliders
// oscillate by Amplitude around Position with a period of PeriodFrames.
// A terrain is a noise heightfield spanning twice HalfExtents on X and Z with heights
// from Position.Y up to Position.Y + 2*HalfExtents.Y.
type ColliderSpec struct {
	Shape       string     `yaml:"shape" toml:"shape" json:"shape"`
	Position    [3]float32 `yaml:"position,omitempty" toml:"position,omitempty" json:"position,omitempty"`
	Axis        [3]float32 `yaml:"axis,omitempty" toml:"axis,omitempty" json:"axis,omitempty"`
	Angle       float32    `yaml:"angle,omitempty" toml:"angle,omitempty" json:"angle,omitempty"`
	HalfExtents [3]float32 `yaml:"half_extents,omitempty" toml:"half_extents,omitempty" json:"half_extents,omitempty"`
	Radius      float32    `yaml:"radius,omitempty" toml:"radius,omitempty" json:"radius,omitempty"`
	HalfHeight  float32    `yaml:"half_height,omitempty" toml:"half_height,omitempty" json:"half_height,omitempty"`

	Kinematic    bool       `yaml:"kinematic,omitempty" toml:"kinematic,omitempty" json:"kinematic,omitempty"`
	Amplitude    [3]float32 `yaml:"amplitude,omitempty" toml:"amplitude,omitempty" json:"amplitude,omitempty"`
	PeriodFrames int        `yaml:"period_frames,omitempty" toml:"period_frames,omitempty" json:"period_frames,omitempty"`

	Resolution int   `yaml:"resolution,omitempty" toml:"resolution,omitempty" json:"resolution,omitempty"`
	Seed       int64 `yaml:"seed,omitempty" toml:"seed,omitempty" json:"seed,omitempty"`
}

// defaultRadius matches flex.DefaultParams.
const defaultRadius = 0.15

func vec3(a [3]float32) rl.Vector3 { return rl.NewVector3(a[0], a[1], a[2]) }

// rotation returns the rotation of Angle degrees about Axis, or identity for a zero axis.
func (c ColliderSpec) rotation() rl.Quaternion {
	axis := vec3(c.Axis)
	if c.Angle == 0 || rl.Vector3Length(axis) == 0 {
		return rl.QuaternionIdentity()
	}
	return rl.QuaternionFromAxisAngle(rl.Vector3Normalize(axis), c.Angle*rl.Deg2rad)
}

func (c ColliderSpec) heightfield() mapgen.HeightfieldOptions {
	opts := mapgen.DefaultHeightfieldOptions()
	if c.Resolution > 0 {
		opts.Resolution = c.Resolution
	}
	if c.Seed != 0 {
		opts.Seed = c.Seed
	}
	opts.Size = rl.Vector3Scale(vec3(c.HalfExtents), 2)
	return opts
}

// lattice returns the positions of a dims[0] x dims[1] x dims[2] lattice starting at origin.
func lattice(origin rl.Vector3, dims [3]int, spacing float32) []rl.Vector3 {
	out := make([]rl.Vector3, 0, dims[0]*dims[1]*dims[2])
	for x := range dims[0] {
		for y := range dims[1] {
			for z := range dims[2] {
				out = append(out, rl.NewVector3(
					origin.X+float32(x)*spacing,
					origin.Y+float32(y)*spacing,
					origin.Z+float32(z)*spacing,
				))
			}
		}
	}
	return out
}

func invMass(mass float32) float32 {
	if mass <= 0 {
		return 1
	}
	return 1 / mass
}
