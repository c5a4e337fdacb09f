package physics

import (
	"io"
	"log/slog"
	"testing"

	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sceneFunc adapts a function to flex.Instance.
type sceneFunc func(buf *flex.Buffer) error

func (f sceneFunc) Initialize(buf *flex.Buffer) error     { return f(buf) }
func (f sceneFunc) PostInitialize(buf *flex.Buffer) error { return nil }
func (f sceneFunc) Sync(buf *flex.Buffer) error           { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildScene(t *testing.T, maxParticles int, init sceneFunc) *flex.Controller {
	t.Helper()
	c := flex.NewController(flex.Config{Capacity: flex.Capacity{MaxParticles: maxParticles}},
		flex.DefaultParams(), Backend{Log: quietLogger()}, nil, quietLogger())
	c.AddInstance(init)
	require.NoError(t, c.OnLoad())
	require.NoError(t, c.Reset())
	t.Cleanup(c.OnUnload)
	return c
}

func runFrames(t *testing.T, c *flex.Controller, frames int) {
	t.Helper()
	for range frames {
		require.NoError(t, c.PreRenderUpdate())
		require.NoError(t, c.PostRenderUpdate())
	}
}

func positions(c *flex.Controller) []rl.Vector4 {
	buf := c.Buffer()
	buf.Map()
	defer buf.Unmap()
	return append([]rl.Vector4(nil), buf.Positions.Slice()[:buf.NumParticles()]...)
}

func place(buf *flex.Buffer, pts ...rl.Vector4) (flex.Range, error) {
	r, err := buf.AllocParticles(len(pts))
	if err != nil {
		return r, err
	}
	span := buf.Span(r)
	for i, p := range pts {
		span.SetPosition(i, p)
	}
	return r, nil
}

func TestWorldParticlesSettleOnBox(t *testing.T) {
	c := buildScene(t, 128, func(buf *flex.Buffer) error {
		pts := make([]rl.Vector4, 0, 100)
		for x := range 10 {
			for z := range 10 {
				pts = append(pts, rl.NewVector4(float32(x)*0.3-1.35, 1, float32(z)*0.3-1.35, 1))
			}
		}
		if _, err := place(buf, pts...); err != nil {
			return err
		}
		_, err := flex.NewBox(buf, rl.NewVector3(2, 0.1, 2), rl.Vector3{}, rl.QuaternionIdentity(), false)
		return err
	})
	runFrames(t, c, 120)

	for _, p := range positions(c) {
		assert.Greater(t, p.Y, float32(0.1))
		assert.Less(t, p.Y, float32(0.5))
	}
}

func TestWorldFloorPlane(t *testing.T) {
	c := buildScene(t, 4, func(buf *flex.Buffer) error {
		_, err := place(buf, rl.NewVector4(0, 1, 0, 1))
		return err
	})
	runFrames(t, c, 120)

	p := positions(c)[0]
	assert.InDelta(t, c.Params().CollisionDistance, p.Y, 0.01)
}

func TestWorldKinematicParticlesStayPut(t *testing.T) {
	c := buildScene(t, 4, func(buf *flex.Buffer) error {
		_, err := place(buf, rl.NewVector4(0, 2, 0, 0), rl.NewVector4(1, 2, 0, 1))
		return err
	})
	runFrames(t, c, 30)

	p := positions(c)
	assert.Equal(t, rl.NewVector4(0, 2, 0, 0), p[0])
	assert.Less(t, p[1].Y, float32(2))
}

func TestWorldSpringHoldsLength(t *testing.T) {
	c := buildScene(t, 4, func(buf *flex.Buffer) error {
		r, err := place(buf, rl.NewVector4(0, 2, 0, 0), rl.NewVector4(0.5, 2, 0, 1))
		if err != nil {
			return err
		}
		_, err = buf.AddSpring(int32(r.Start), int32(r.Start+1), 0.5, 1)
		return err
	})
	runFrames(t, c, 60)

	p := positions(c)
	d := rl.Vector3Distance(xyz(p[0]), xyz(p[1]))
	assert.InDelta(t, 0.5, d, 0.05)
	assert.Less(t, p[1].Y, float32(2), "the free end swings down")
}

func TestWorldRigidKeepsShape(t *testing.T) {
	c := buildScene(t, 32, func(buf *flex.Buffer) error {
		pts := make([]rl.Vector4, 0, 27)
		for x := range 3 {
			for y := range 3 {
				for z := range 3 {
					pts = append(pts, rl.NewVector4(float32(x)*0.3, 1+float32(y)*0.3, float32(z)*0.3, 1))
				}
			}
		}
		r, err := place(buf, pts...)
		if err != nil {
			return err
		}
		idx := make([]int32, r.Count)
		for i := range idx {
			idx[i] = int32(r.Start + i)
		}
		_, err = buf.AddRigid(idx, 1)
		return err
	})
	before := positions(c)
	runFrames(t, c, 90)
	after := positions(c)

	for _, pair := range [][2]int{{0, 26}, {0, 8}, {4, 22}} {
		d0 := rl.Vector3Distance(xyz(before[pair[0]]), xyz(before[pair[1]]))
		d1 := rl.Vector3Distance(xyz(after[pair[0]]), xyz(after[pair[1]]))
		assert.InDelta(t, d0, d1, 0.05)
	}
	assert.Less(t, after[0].Y, before[0].Y)

	buf := c.Buffer()
	buf.Map()
	defer buf.Unmap()
	tr := buf.Rigids.Translations.At(0)
	assert.InDelta(t, 0.3, tr.X, 0.05)
	assert.Less(t, tr.Y, float32(1.3))
}

func TestWorldSphereCollider(t *testing.T) {
	c := buildScene(t, 4, func(buf *flex.Buffer) error {
		if _, err := place(buf, rl.NewVector4(0, 2, 0, 1)); err != nil {
			return err
		}
		_, err := flex.NewSphere(buf, 0.5, rl.Vector3{}, false)
		return err
	})
	runFrames(t, c, 120)

	p := positions(c)[0]
	assert.InDelta(t, 0.5+c.Params().CollisionDistance, p.Y, 0.01)
}

func TestWorldTriangleMeshCollider(t *testing.T) {
	c := buildScene(t, 4, func(buf *flex.Buffer) error {
		if _, err := place(buf, rl.NewVector4(0.1, 1, 0.2, 1)); err != nil {
			return err
		}
		verts := []rl.Vector3{{X: -1, Z: -1}, {X: 1, Z: -1}, {X: 1, Z: 1}, {X: -1, Z: 1}}
		_, err := flex.NewTriangleMesh(buf, verts, []int32{0, 2, 1, 0, 3, 2}, rl.Vector3{}, rl.Vector3{}, rl.QuaternionIdentity(), false)
		return err
	})
	runFrames(t, c, 120)

	p := positions(c)[0]
	assert.InDelta(t, c.Params().CollisionDistance, p.Y, 0.01)
}

func TestWorldParticlesDoNotOverlap(t *testing.T) {
	c := buildScene(t, 8, func(buf *flex.Buffer) error {
		r, err := place(buf, rl.NewVector4(0, 1, 0, 1), rl.NewVector4(0.02, 1.5, 0, 1))
		if err != nil {
			return err
		}
		span := buf.Span(r)
		for i := range span.Len() {
			span.SetPhase(i, flex.MakePhase(int32(i), 0))
		}
		return nil
	})
	runFrames(t, c, 120)

	p := positions(c)
	d := rl.Vector3Distance(xyz(p[0]), xyz(p[1]))
	assert.GreaterOrEqual(t, d, c.Params().SolidRestDistance*0.8)
}

func TestWorldUpdateWithoutParticles(t *testing.T) {
	w := NewWorld(nil, flex.SolverDesc{MaxParticles: 4})
	w.Update(1.0/60, 2)
	assert.Equal(t, uint64(1), w.Steps())
}
