package scene

import (
	"testing"

	"flex-engine/internal/flex"
	"flex-engine/internal/primitives"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappedBuffer(t *testing.T) *flex.Buffer {
	t.Helper()
	buf := flex.NewBuffer()
	buf.Create(flex.Capacity{MaxParticles: 8})
	buf.Map()
	t.Cleanup(buf.Destroy)
	return buf
}

func TestViewerSyncCopiesState(t *testing.T) {
	buf := mappedBuffer(t)
	r, err := buf.AllocParticles(3)
	require.NoError(t, err)
	span := buf.Span(r)
	span.SetPosition(0, rl.NewVector4(0, 1, 0, 1))
	span.SetPosition(1, rl.NewVector4(1, 1, 0, 0))
	span.SetPosition(2, rl.NewVector4(2, 1, 0, 1))
	span.SetPhase(2, flex.MakePhase(0, flex.PhaseFluid))
	_, err = flex.NewBox(buf, rl.NewVector3(1, 0.1, 1), rl.NewVector3(0, -0.1, 0), rl.QuaternionIdentity(), true)
	require.NoError(t, err)

	v := NewViewer(primitives.Colors{}, 0.1)
	require.NoError(t, v.Initialize(buf))
	require.NoError(t, v.PostInitialize(buf))
	assert.Equal(t, rl.NewVector3(1, 1, 0), v.Camera.Target)

	require.NoError(t, v.Sync(buf))
	ps := v.Particles()
	require.Len(t, ps, 3)
	assert.Equal(t, rl.NewVector3(1, 1, 0), ps[1].Position)
	assert.True(t, ps[1].Kinematic)
	assert.False(t, ps[0].Fluid)
	assert.True(t, ps[2].Fluid)

	shapes := v.Shapes()
	require.Len(t, shapes, 1)
	assert.True(t, shapes[0].Dynamic)
	assert.Equal(t, flex.ShapeBox, shapes[0].Geometry.Kind)
	assert.Equal(t, rl.NewVector3(0, -0.1, 0), shapes[0].Position)
}

func TestViewerSyncReusesSnapshot(t *testing.T) {
	buf := mappedBuffer(t)
	_, err := buf.AllocParticles(2)
	require.NoError(t, err)

	v := NewViewer(primitives.Colors{}, 0.1)
	require.NoError(t, v.Sync(buf))
	require.NoError(t, v.Sync(buf))
	assert.Len(t, v.Particles(), 2)
	assert.Empty(t, v.Shapes())
}

func TestParticleColor(t *testing.T) {
	colors := primitives.Colors{
		Particle:  rl.NewColor(1, 0, 0, 255),
		Fluid:     rl.NewColor(2, 0, 0, 255),
		Kinematic: rl.NewColor(3, 0, 0, 255),
	}
	v := NewViewer(colors, 0.1)
	assert.Equal(t, colors.Particle, v.particleColor(Particle{}))
	assert.Equal(t, colors.Fluid, v.particleColor(Particle{Fluid: true}))
	assert.Equal(t, colors.Kinematic, v.particleColor(Particle{Fluid: true, Kinematic: true}))
}
