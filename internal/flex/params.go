package flex

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/jinzhu/copier"
)

// MaxPlanes is the number of collision plane slots in Params.
const MaxPlanes = 8

// RelaxationMode selects how constraint corrections are averaged.
type RelaxationMode int

const (
	// RelaxationLocal averages each particle's corrections by its constraint count.
	RelaxationLocal RelaxationMode = iota
	// RelaxationGlobal scales every correction by RelaxationFactor.
	RelaxationGlobal
)

func (m RelaxationMode) String() string {
	switch m {
	case RelaxationLocal:
		return "local"
	case RelaxationGlobal:
		return "global"
	}
	return fmt.Sprintf("RelaxationMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m RelaxationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RelaxationMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "local", "":
		*m = RelaxationLocal
	case "global":
		*m = RelaxationGlobal
	default:
		return fmt.Errorf("unknown relaxation mode %q", text)
	}
	return nil
}

// Params is the flat block of solver constants. SolidRestDistance, CollisionDistance,
// ParticleFriction and ShapeCollisionMargin treat zero as "derive from related fields"; see Derive.
type Params struct {
	NumIterations int        `yaml:"num_iterations" toml:"num_iterations" json:"num_iterations"`
	Gravity       [3]float32 `yaml:"gravity" toml:"gravity" json:"gravity"`
	Radius        float32    `yaml:"radius" toml:"radius" json:"radius"`

	SolidRestDistance float32 `yaml:"solid_rest_distance" toml:"solid_rest_distance" json:"solid_rest_distance"`
	FluidRestDistance float32 `yaml:"fluid_rest_distance" toml:"fluid_rest_distance" json:"fluid_rest_distance"`

	DynamicFriction  float32 `yaml:"dynamic_friction" toml:"dynamic_friction" json:"dynamic_friction"`
	StaticFriction   float32 `yaml:"static_friction" toml:"static_friction" json:"static_friction"`
	ParticleFriction float32 `yaml:"particle_friction" toml:"particle_friction" json:"particle_friction"`
	Restitution      float32 `yaml:"restitution" toml:"restitution" json:"restitution"`
	Adhesion         float32 `yaml:"adhesion" toml:"adhesion" json:"adhesion"`
	SleepThreshold   float32 `yaml:"sleep_threshold" toml:"sleep_threshold" json:"sleep_threshold"`
	// MaxSpeed clamps particle speed; zero means unlimited.
	MaxSpeed         float32 `yaml:"max_speed" toml:"max_speed" json:"max_speed"`
	MaxAcceleration  float32 `yaml:"max_acceleration" toml:"max_acceleration" json:"max_acceleration"`
	ShockPropagation float32 `yaml:"shock_propagation" toml:"shock_propagation" json:"shock_propagation"`
	Dissipation      float32 `yaml:"dissipation" toml:"dissipation" json:"dissipation"`
	Damping          float32 `yaml:"damping" toml:"damping" json:"damping"`

	Wind [3]float32 `yaml:"wind" toml:"wind" json:"wind"`
	Drag float32    `yaml:"drag" toml:"drag" json:"drag"`
	Lift float32    `yaml:"lift" toml:"lift" json:"lift"`

	Fluid                bool    `yaml:"fluid" toml:"fluid" json:"fluid"`
	Cohesion             float32 `yaml:"cohesion" toml:"cohesion" json:"cohesion"`
	SurfaceTension       float32 `yaml:"surface_tension" toml:"surface_tension" json:"surface_tension"`
	Viscosity            float32 `yaml:"viscosity" toml:"viscosity" json:"viscosity"`
	VorticityConfinement float32 `yaml:"vorticity_confinement" toml:"vorticity_confinement" json:"vorticity_confinement"`
	AnisotropyScale      float32 `yaml:"anisotropy_scale" toml:"anisotropy_scale" json:"anisotropy_scale"`
	AnisotropyMin        float32 `yaml:"anisotropy_min" toml:"anisotropy_min" json:"anisotropy_min"`
	AnisotropyMax        float32 `yaml:"anisotropy_max" toml:"anisotropy_max" json:"anisotropy_max"`
	Smoothing            float32 `yaml:"smoothing" toml:"smoothing" json:"smoothing"`
	SolidPressure        float32 `yaml:"solid_pressure" toml:"solid_pressure" json:"solid_pressure"`
	FreeSurfaceDrag      float32 `yaml:"free_surface_drag" toml:"free_surface_drag" json:"free_surface_drag"`
	Buoyancy             float32 `yaml:"buoyancy" toml:"buoyancy" json:"buoyancy"`

	DiffuseThreshold float32 `yaml:"diffuse_threshold" toml:"diffuse_threshold" json:"diffuse_threshold"`
	DiffuseBuoyancy  float32 `yaml:"diffuse_buoyancy" toml:"diffuse_buoyancy" json:"diffuse_buoyancy"`
	DiffuseDrag      float32 `yaml:"diffuse_drag" toml:"diffuse_drag" json:"diffuse_drag"`
	DiffuseBallistic int     `yaml:"diffuse_ballistic" toml:"diffuse_ballistic" json:"diffuse_ballistic"`
	DiffuseLifetime  float32 `yaml:"diffuse_lifetime" toml:"diffuse_lifetime" json:"diffuse_lifetime"`

	CollisionDistance       float32 `yaml:"collision_distance" toml:"collision_distance" json:"collision_distance"`
	ParticleCollisionMargin float32 `yaml:"particle_collision_margin" toml:"particle_collision_margin" json:"particle_collision_margin"`
	ShapeCollisionMargin    float32 `yaml:"shape_collision_margin" toml:"shape_collision_margin" json:"shape_collision_margin"`

	// Planes are (nx, ny, nz, d); a point p is inside when n·p + d >= 0.
	Planes    [MaxPlanes][4]float32 `yaml:"planes" toml:"planes" json:"planes"`
	NumPlanes int                   `yaml:"num_planes" toml:"num_planes" json:"num_planes"`

	RelaxationMode   RelaxationMode `yaml:"relaxation_mode" toml:"relaxation_mode" json:"relaxation_mode"`
	RelaxationFactor float32        `yaml:"relaxation_factor" toml:"relaxation_factor" json:"relaxation_factor"`
}

// DefaultParams returns solver constants suited to a unit-scale scene under Earth gravity.
func DefaultParams() Params {
	return Params{
		NumIterations:    3,
		Gravity:          [3]float32{0, -9.8, 0},
		Radius:           0.15,
		MaxAcceleration:  100,
		Cohesion:         0.025,
		AnisotropyScale:  1,
		AnisotropyMin:    0.1,
		AnisotropyMax:    2,
		Smoothing:        1,
		SolidPressure:    1,
		Buoyancy:         1,
		DiffuseBallistic: 16,
		DiffuseLifetime:  2,
		RelaxationMode:   RelaxationLocal,
		RelaxationFactor: 1,
	}
}

// Derive fills the zero-means-unset fields from related values. Fluid mode only takes
// over the rest and collision distances when FluidRestDistance is set; otherwise both
// follow Radius.
func (p *Params) Derive() {
	if p.SolidRestDistance == 0 {
		if p.Fluid && p.FluidRestDistance != 0 {
			p.SolidRestDistance = p.FluidRestDistance
		} else {
			p.SolidRestDistance = p.Radius
		}
	}
	if p.CollisionDistance == 0 {
		p.CollisionDistance = p.Radius * 0.5
		if p.Fluid && p.FluidRestDistance != 0 {
			p.CollisionDistance = p.FluidRestDistance * 0.5
		}
	}
	if p.ParticleFriction == 0 {
		p.ParticleFriction = p.DynamicFriction * 0.1
	}
	if p.ShapeCollisionMargin == 0 {
		p.ShapeCollisionMargin = p.CollisionDistance * 0.5
	}
}

// DerivePlanes replaces the collision planes with a six-plane box: a floor tilted by
// tilt, four side walls and a ceiling around bounds. The floor passes through y=0
// unless the scene reaches below it.
func (p *Params) DerivePlanes(bounds rl.BoundingBox, tilt rl.Vector3) {
	lo, hi := bounds.Min, bounds.Max
	up := rl.Vector3Normalize(rl.Vector3Add(rl.NewVector3(0, 1, 0), tilt))
	floor := rl.NewVector3(0, min(lo.Y, 0), 0)

	p.Planes = [MaxPlanes][4]float32{}
	p.Planes[0] = [4]float32{up.X, up.Y, up.Z, -rl.Vector3DotProduct(up, floor)}
	p.Planes[1] = [4]float32{0, 0, 1, -lo.Z}
	p.Planes[2] = [4]float32{1, 0, 0, -lo.X}
	p.Planes[3] = [4]float32{-1, 0, 0, hi.X}
	p.Planes[4] = [4]float32{0, 0, -1, hi.Z}
	p.Planes[5] = [4]float32{0, -1, 0, hi.Y}
	p.NumPlanes = 6
}

// Overlay copies every non-zero field of patch onto p. A partial block decoded from a
// scene file only overrides the fields it names; zero and false cannot be overlaid.
func (p *Params) Overlay(patch Params) {
	if err := copier.CopyWithOption(p, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
		panic(fmt.Sprintf("flex: overlaying params: %v", err))
	}
}

// GravityVector returns Gravity as a vector.
func (p *Params) GravityVector() rl.Vector3 {
	return rl.NewVector3(p.Gravity[0], p.Gravity[1], p.Gravity[2])
}
