package scene

import (
	"flex-engine/internal/flex"
	"flex-engine/internal/primitives"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Particle is a drawable copy of one particle.
type Particle struct {
	Position  rl.Vector3
	Fluid     bool
	Kinematic bool
}

// Shape is a drawable copy of one collision shape.
type Shape struct {
	Geometry flex.ShapeGeometry
	Position rl.Vector3
	Rotation rl.Quaternion
	Dynamic  bool
}

// Viewer is an observer instance: it adds nothing to the buffer and copies particles and
// shapes out of it on every Sync so they can be drawn outside the mapped window.
// Register it after every simulating instance so it sees their writes.
type Viewer struct {
	Camera      rl.Camera3D
	GridVisible bool
	// Radius is the drawn particle radius.
	Radius float32

	colors    primitives.Colors
	prims     *primitives.Registry
	particles []Particle
	shapes    []Shape
	focused   bool
}

// NewViewer returns a viewer with a perspective camera looking at the origin.
func NewViewer(colors primitives.Colors, radius float32) *Viewer {
	v := &Viewer{
		GridVisible: true,
		Radius:      radius,
		colors:      colors,
		prims:       primitives.NewRegistry(),
	}
	v.Camera.Position = rl.NewVector3(6, 5, 6)
	v.Camera.Target = rl.NewVector3(0, 0.5, 0)
	v.Camera.Up = rl.NewVector3(0, 1, 0)
	v.Camera.Fovy = 45
	v.Camera.Projection = rl.CameraPerspective
	return v
}

// Initialize implements flex.Instance. The viewer owns no particles.
func (v *Viewer) Initialize(buf *flex.Buffer) error {
	v.focused = false
	return nil
}

// PostInitialize points the camera at the scene the first time it is built.
func (v *Viewer) PostInitialize(buf *flex.Buffer) error {
	if b, ok := flex.ParticleBounds(buf.Positions.Slice(), buf.NumParticles()); ok && !v.focused {
		v.Camera.Target = rl.Vector3Scale(rl.Vector3Add(b.Min, b.Max), 0.5)
		v.focused = true
	}
	return nil
}

// Sync copies the current particle and shape state.
func (v *Viewer) Sync(buf *flex.Buffer) error {
	n := buf.NumParticles()
	v.particles = v.particles[:0]
	pos := buf.Positions.Slice()[:n]
	phases := buf.Phases.Slice()[:n]
	for i, p := range pos {
		v.particles = append(v.particles, Particle{
			Position:  rl.NewVector3(p.X, p.Y, p.Z),
			Fluid:     flex.PhaseHas(phases[i], flex.PhaseFluid),
			Kinematic: p.W == 0,
		})
	}

	sh := &buf.Shapes
	v.shapes = v.shapes[:0]
	for i := range buf.NumShapes() {
		p := sh.Positions.At(i)
		v.shapes = append(v.shapes, Shape{
			Geometry: sh.Geometry.At(i),
			Position: rl.NewVector3(p.X, p.Y, p.Z),
			Rotation: sh.Rotations.At(i),
			Dynamic:  sh.Flags.At(i)&flex.ShapeFlagDynamic != 0,
		})
	}
	return nil
}

// Particles returns the particles copied by the last Sync.
func (v *Viewer) Particles() []Particle { return v.particles }

// Shapes returns the shapes copied by the last Sync.
func (v *Viewer) Shapes() []Shape { return v.shapes }

// Update moves the free camera while the right mouse button is held.
func (v *Viewer) Update() {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		rl.UpdateCamera(&v.Camera, rl.CameraFree)
	}
}

// Draw renders the grid, shapes and particles. Call after ClearBackground and before
// any 2D overlay.
func (v *Viewer) Draw() {
	v.prims.SetView(v.Camera.Position, rl.NewVector3(0.5, 1, 0.3))
	rl.BeginMode3D(v.Camera)
	if v.GridVisible {
		drawGrid()
	}
	for _, s := range v.shapes {
		c := v.colors.Static
		if s.Dynamic {
			c = v.colors.Dynamic
		}
		v.prims.DrawShape(s.Geometry, s.Position, s.Rotation, c)
	}
	for _, p := range v.particles {
		v.prims.DrawParticle(p.Position, v.Radius*0.5, v.particleColor(p))
	}
	rl.EndMode3D()
}

// Unload frees GPU resources. The window must still be open.
func (v *Viewer) Unload() {
	v.prims.Unload()
}

func (v *Viewer) particleColor(p Particle) rl.Color {
	switch {
	case p.Kinematic:
		return v.colors.Kinematic
	case p.Fluid:
		return v.colors.Fluid
	}
	return v.colors.Particle
}
