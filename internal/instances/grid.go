package instances

import (
	"fmt"

	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ParticleGrid is a box lattice of free particles, granular or fluid.
type ParticleGrid struct {
	Origin   rl.Vector3
	Dims     [3]int
	Spacing  float32
	Velocity rl.Vector3
	InvMass  float32
	Radius   float32
	Fluid    bool
	Group    int32
	// Overrides are overlaid onto the solver parameters after the radius and fluid settings.
	Overrides flex.Params

	rng flex.Range
}

// NewParticleGrid validates spec and returns the grid. Spacing defaults to the radius.
func NewParticleGrid(spec Spec, group int32) (*ParticleGrid, error) {
	if spec.Dims[0] <= 0 || spec.Dims[1] <= 0 || spec.Dims[2] <= 0 {
		return nil, fmt.Errorf("particle grid dims %v must be positive", spec.Dims)
	}
	radius := spec.Radius
	if radius <= 0 {
		radius = defaultRadius
	}
	spacing := spec.Spacing
	if spacing <= 0 {
		spacing = radius
	}
	g := &ParticleGrid{
		Origin:   vec3(spec.Origin),
		Dims:     spec.Dims,
		Spacing:  spacing,
		Velocity: vec3(spec.Velocity),
		InvMass:  invMass(spec.Mass),
		Radius:   radius,
		Fluid:    spec.Fluid,
		Group:    group,
	}
	if spec.Params != nil {
		g.Overrides = *spec.Params
	}
	return g, nil
}

// Range returns the particles the grid owns since the last Reset.
func (g *ParticleGrid) Range() flex.Range { return g.rng }

func (g *ParticleGrid) Initialize(buf *flex.Buffer) error {
	pts := lattice(g.Origin, g.Dims, g.Spacing)
	r, err := buf.AllocParticles(len(pts))
	if err != nil {
		return err
	}
	g.rng = r

	flags := flex.PhaseSelfCollide
	if g.Fluid {
		flags |= flex.PhaseFluid
	}
	phase := flex.MakePhase(g.Group, flags)
	span := buf.Span(r)
	for i, p := range pts {
		span.SetPosition(i, rl.NewVector4(p.X, p.Y, p.Z, g.InvMass))
		span.SetVelocity(i, g.Velocity)
		span.SetPhase(i, phase)
	}
	return nil
}

func (g *ParticleGrid) PostInitialize(buf *flex.Buffer) error { return nil }

func (g *ParticleGrid) Sync(buf *flex.Buffer) error { return nil }

// ContributeParams sets the particle radius and, for fluid grids, fluid mode, then
// applies the grid's overrides.
func (g *ParticleGrid) ContributeParams(p *flex.Params) {
	p.Radius = g.Radius
	if g.Fluid {
		p.Fluid = true
		if p.FluidRestDistance == 0 {
			p.FluidRestDistance = g.Radius * 0.55
		}
	}
	p.Overlay(g.Overrides)
}

// RigidGrid is a box lattice simulated as one rigid body.
type RigidGrid struct {
	Origin    rl.Vector3
	Dims      [3]int
	Spacing   float32
	Velocity  rl.Vector3
	InvMass   float32
	Stiffness float32
	Group     int32

	rng   flex.Range
	rigid int

	// Rotation and Translation are the body transform read back at the last Sync.
	Rotation    rl.Quaternion
	Translation rl.Vector3
}

// NewRigidGrid validates spec and returns the grid. Stiffness defaults to 1.
func NewRigidGrid(spec Spec, group int32) (*RigidGrid, error) {
	if spec.Dims[0] <= 0 || spec.Dims[1] <= 0 || spec.Dims[2] <= 0 {
		return nil, fmt.Errorf("rigid grid dims %v must be positive", spec.Dims)
	}
	spacing := spec.Spacing
	if spacing <= 0 {
		spacing = max(spec.Radius, defaultRadius)
	}
	stiffness := spec.Stiffness
	if stiffness <= 0 {
		stiffness = 1
	}
	return &RigidGrid{
		Origin:    vec3(spec.Origin),
		Dims:      spec.Dims,
		Spacing:   spacing,
		Velocity:  vec3(spec.Velocity),
		InvMass:   invMass(spec.Mass),
		Stiffness: stiffness,
		Group:     group,
		rigid:     -1,
		Rotation:  rl.QuaternionIdentity(),
	}, nil
}

func (g *RigidGrid) Range() flex.Range { return g.rng }

// RigidIndex returns the rigid group index in the buffer, -1 before the first Reset.
func (g *RigidGrid) RigidIndex() int { return g.rigid }

func (g *RigidGrid) Initialize(buf *flex.Buffer) error {
	pts := lattice(g.Origin, g.Dims, g.Spacing)
	r, err := buf.AllocParticles(len(pts))
	if err != nil {
		return err
	}
	g.rng = r

	phase := flex.MakePhase(g.Group, 0)
	span := buf.Span(r)
	indices := make([]int32, len(pts))
	for i, p := range pts {
		span.SetPosition(i, rl.NewVector4(p.X, p.Y, p.Z, g.InvMass))
		span.SetVelocity(i, g.Velocity)
		span.SetPhase(i, phase)
		indices[i] = int32(span.Index(i))
	}
	g.rigid, err = buf.AddRigid(indices, g.Stiffness)
	return err
}

func (g *RigidGrid) PostInitialize(buf *flex.Buffer) error { return nil }

func (g *RigidGrid) Sync(buf *flex.Buffer) error {
	if g.rigid < 0 {
		return nil
	}
	g.Rotation = buf.Rigids.Rotations.At(g.rigid)
	g.Translation = buf.Rigids.Translations.At(g.rigid)
	return nil
}
