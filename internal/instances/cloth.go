package instances

import (
	"fmt"

	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Cloth is a sheet of particles in the XZ plane held together by stretch, shear and bend
// springs, with two dynamic triangles per quad.
type Cloth struct {
	Origin  rl.Vector3
	Width   int
	Height  int
	Spacing float32
	InvMass float32
	Stretch float32
	Shear   float32
	Bend    float32
	// Pinned fixes the two corners on the z=0 edge.
	Pinned bool
	Group  int32

	rng       flex.Range
	firstTri  int
	triangles int
}

// NewCloth builds a cloth from spec; Dims[0] and Dims[2] are the particle counts along X and Z.
func NewCloth(spec Spec, group int32) (*Cloth, error) {
	if spec.Dims[0] < 2 || spec.Dims[2] < 2 {
		return nil, fmt.Errorf("cloth dims %v need at least 2 particles along x and z", spec.Dims)
	}
	spacing := spec.Spacing
	if spacing <= 0 {
		spacing = max(spec.Radius, defaultRadius)
	}
	stretch := spec.Stiffness
	if stretch <= 0 {
		stretch = 1
	}
	return &Cloth{
		Origin:  vec3(spec.Origin),
		Width:   spec.Dims[0],
		Height:  spec.Dims[2],
		Spacing: spacing,
		InvMass: invMass(spec.Mass),
		Stretch: stretch,
		Shear:   spec.Shear,
		Bend:    spec.Bend,
		Pinned:  spec.Pinned,
		Group:   group,
	}, nil
}

func (c *Cloth) Range() flex.Range { return c.rng }

// Triangles returns the first dynamic triangle index and the triangle count.
func (c *Cloth) Triangles() (first, count int) { return c.firstTri, c.triangles }

func (c *Cloth) local(x, z int) int { return z*c.Width + x }

func (c *Cloth) Initialize(buf *flex.Buffer) error {
	r, err := buf.AllocParticles(c.Width * c.Height)
	if err != nil {
		return err
	}
	c.rng = r
	span := buf.Span(r)
	phase := flex.MakePhase(c.Group, 0)
	for z := range c.Height {
		for x := range c.Width {
			i := c.local(x, z)
			w := c.InvMass
			if c.Pinned && z == 0 && (x == 0 || x == c.Width-1) {
				w = 0
			}
			span.SetPosition(i, rl.NewVector4(c.Origin.X+float32(x)*c.Spacing, c.Origin.Y, c.Origin.Z+float32(z)*c.Spacing, w))
			span.SetPhase(i, phase)
		}
	}

	link := func(x0, z0, x1, z1 int, stiffness float32) error {
		if stiffness <= 0 || x1 < 0 || x1 >= c.Width || z1 >= c.Height {
			return nil
		}
		a, b := span.Index(c.local(x0, z0)), span.Index(c.local(x1, z1))
		pa, pb := buf.Positions.At(a), buf.Positions.At(b)
		length := rl.Vector3Distance(rl.NewVector3(pa.X, pa.Y, pa.Z), rl.NewVector3(pb.X, pb.Y, pb.Z))
		_, err := buf.AddSpring(int32(a), int32(b), length, stiffness)
		return err
	}
	for z := range c.Height {
		for x := range c.Width {
			for _, l := range [][3]float32{
				{1, 0, c.Stretch}, {0, 1, c.Stretch},
				{1, 1, c.Shear}, {-1, 1, c.Shear},
				{2, 0, c.Bend}, {0, 2, c.Bend},
			} {
				if err := link(x, z, x+int(l[0]), z+int(l[1]), l[2]); err != nil {
					return err
				}
			}
		}
	}

	c.firstTri = buf.NumTriangles()
	c.triangles = 0
	for z := 0; z+1 < c.Height; z++ {
		for x := 0; x+1 < c.Width; x++ {
			i00 := int32(span.Index(c.local(x, z)))
			i10 := int32(span.Index(c.local(x+1, z)))
			i01 := int32(span.Index(c.local(x, z+1)))
			i11 := int32(span.Index(c.local(x+1, z+1)))
			if _, err := buf.AddTriangle(i00, i01, i11); err != nil {
				return err
			}
			if _, err := buf.AddTriangle(i00, i11, i10); err != nil {
				return err
			}
			c.triangles += 2
		}
	}
	return nil
}

func (c *Cloth) PostInitialize(buf *flex.Buffer) error { return nil }

func (c *Cloth) Sync(buf *flex.Buffer) error { return nil }
