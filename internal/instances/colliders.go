package instances

import (
	"fmt"

	"flex-engine/internal/flex"
	"flex-engine/internal/mapgen"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// poseable is a shape whose pose can be rewritten between frames.
type poseable interface {
	flex.Shape
	SetTransform(buf *flex.Buffer, pos rl.Vector3, rot rl.Quaternion)
}

type collider struct {
	spec  ColliderSpec
	shape poseable
	base  rl.Vector3
	rot   rl.Quaternion
}

// Colliders is a set of static and kinematic collision shapes. Shape objects are built
// once and re-appended on every Reset, so mesh resources are created only once.
type Colliders struct {
	items []*collider
	frame int
}

// NewColliders validates every collider spec. Supported shapes: box, sphere, capsule,
// ramp and terrain.
func NewColliders(spec Spec) (*Colliders, error) {
	if len(spec.Colliders) == 0 {
		return nil, fmt.Errorf("colliders instance has no colliders")
	}
	c := &Colliders{}
	for i, cs := range spec.Colliders {
		switch cs.Shape {
		case "box", "ramp", "terrain":
			if cs.HalfExtents == ([3]float32{}) {
				return nil, fmt.Errorf("collider %d: %s needs half_extents", i, cs.Shape)
			}
		case "sphere", "capsule":
			if cs.Radius <= 0 {
				return nil, fmt.Errorf("collider %d: %s needs a positive radius", i, cs.Shape)
			}
		default:
			return nil, fmt.Errorf("collider %d: unknown shape %q", i, cs.Shape)
		}
		c.items = append(c.items, &collider{spec: cs, base: vec3(cs.Position), rot: cs.rotation()})
	}
	return c, nil
}

// Shapes returns the shapes in spec order, nil entries before the first Initialize.
func (c *Colliders) Shapes() []flex.Shape {
	out := make([]flex.Shape, len(c.items))
	for i, it := range c.items {
		if it.shape != nil {
			out[i] = it.shape
		}
	}
	return out
}

func (c *Colliders) Initialize(buf *flex.Buffer) error {
	c.frame = 0
	for i, it := range c.items {
		if it.shape != nil {
			if _, err := it.shape.AppendMapped(buf); err != nil {
				return fmt.Errorf("collider %d: %w", i, err)
			}
			it.shape.SetTransform(buf, it.base, it.rot)
			continue
		}
		shape, err := newShape(buf, it)
		if err != nil {
			return fmt.Errorf("collider %d: %w", i, err)
		}
		it.shape = shape
	}
	return nil
}

func newShape(buf *flex.Buffer, it *collider) (poseable, error) {
	s := it.spec
	switch s.Shape {
	case "box":
		return flex.NewBox(buf, vec3(s.HalfExtents), it.base, it.rot, s.Kinematic)
	case "sphere":
		return flex.NewSphere(buf, s.Radius, it.base, s.Kinematic)
	case "capsule":
		return flex.NewCapsule(buf, s.Radius, s.HalfHeight, it.base, it.rot, s.Kinematic)
	case "ramp":
		verts, indices := rampMesh(vec3(s.HalfExtents))
		return flex.NewTriangleMesh(buf, verts, indices, rl.NewVector3(1, 1, 1), it.base, it.rot, s.Kinematic)
	case "terrain":
		verts, indices := mapgen.Heightfield(s.heightfield())
		return flex.NewTriangleMesh(buf, verts, indices, rl.NewVector3(1, 1, 1), it.base, it.rot, s.Kinematic)
	}
	return nil, fmt.Errorf("unknown shape %q", s.Shape)
}

// rampMesh returns a wedge rising along +X: a sloped top, a vertical back and a floor.
func rampMesh(h rl.Vector3) ([]rl.Vector3, []int32) {
	verts := []rl.Vector3{
		{X: -h.X, Y: -h.Y, Z: -h.Z},
		{X: h.X, Y: -h.Y, Z: -h.Z},
		{X: h.X, Y: h.Y, Z: -h.Z},
		{X: -h.X, Y: -h.Y, Z: h.Z},
		{X: h.X, Y: -h.Y, Z: h.Z},
		{X: h.X, Y: h.Y, Z: h.Z},
	}
	indices := []int32{
		0, 3, 5, 0, 5, 2, // slope
		1, 2, 5, 1, 5, 4, // back
		0, 1, 4, 0, 4, 3, // bottom
		0, 2, 1, 3, 4, 5, // sides
	}
	return verts, indices
}

func (c *Colliders) PostInitialize(buf *flex.Buffer) error { return nil }

// Sync moves every kinematic collider along its oscillation.
func (c *Colliders) Sync(buf *flex.Buffer) error {
	c.frame++
	for _, it := range c.items {
		s := it.spec
		if !s.Kinematic || s.PeriodFrames <= 0 || it.shape == nil {
			continue
		}
		phase := 2 * math32.Pi * float32(c.frame%s.PeriodFrames) / float32(s.PeriodFrames)
		offset := rl.Vector3Scale(vec3(s.Amplitude), math32.Sin(phase))
		it.shape.SetTransform(buf, rl.Vector3Add(it.base, offset), it.rot)
	}
	return nil
}
