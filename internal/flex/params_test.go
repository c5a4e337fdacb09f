package flex

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsDerive(t *testing.T) {
	p := DefaultParams()
	p.Radius = 0.2
	p.DynamicFriction = 0.5
	p.Derive()

	assert.InDelta(t, 0.2, p.SolidRestDistance, 1e-6)
	assert.InDelta(t, 0.1, p.CollisionDistance, 1e-6)
	assert.InDelta(t, 0.05, p.ParticleFriction, 1e-6)
	assert.InDelta(t, 0.05, p.ShapeCollisionMargin, 1e-6)
}

func TestParamsDeriveKeepsExplicitValues(t *testing.T) {
	p := DefaultParams()
	p.Radius = 0.2
	p.SolidRestDistance = 0.3
	p.CollisionDistance = 0.01
	p.ParticleFriction = 0.7
	p.ShapeCollisionMargin = 0.02
	p.Derive()

	assert.InDelta(t, 0.3, p.SolidRestDistance, 1e-6)
	assert.InDelta(t, 0.01, p.CollisionDistance, 1e-6)
	assert.InDelta(t, 0.7, p.ParticleFriction, 1e-6)
	assert.InDelta(t, 0.02, p.ShapeCollisionMargin, 1e-6)
}

func TestParamsDeriveFluid(t *testing.T) {
	p := DefaultParams()
	p.Radius = 0.2
	p.Fluid = true
	p.FluidRestDistance = 0.12
	p.Derive()
	assert.InDelta(t, 0.12, p.SolidRestDistance, 1e-6)
	assert.InDelta(t, 0.06, p.CollisionDistance, 1e-6)

	q := DefaultParams()
	q.Radius = 0.2
	q.Fluid = true
	q.Derive()
	assert.InDelta(t, 0.2, q.SolidRestDistance, 1e-6)
	assert.InDelta(t, 0.1, q.CollisionDistance, 1e-6, "fluid without a rest distance falls back to the radius")
	assert.InDelta(t, 0.05, q.ShapeCollisionMargin, 1e-6)
}

func TestParamsDerivePlanes(t *testing.T) {
	var p Params
	bounds := rl.NewBoundingBox(rl.NewVector3(-1, 0.5, -2), rl.NewVector3(3, 4, 5))
	p.DerivePlanes(bounds, rl.Vector3{})

	require.Equal(t, 6, p.NumPlanes)
	assert.InDeltaSlice(t, []float32{0, 1, 0, 0}, p.Planes[0][:], 1e-6)
	assert.Equal(t, [4]float32{0, 0, 1, 2}, p.Planes[1])
	assert.Equal(t, [4]float32{1, 0, 0, 1}, p.Planes[2])
	assert.Equal(t, [4]float32{-1, 0, 0, 3}, p.Planes[3])
	assert.Equal(t, [4]float32{0, 0, -1, 5}, p.Planes[4])
	assert.Equal(t, [4]float32{0, -1, 0, 4}, p.Planes[5])
	assert.Equal(t, [4]float32{}, p.Planes[6])

	// Every corner of the bounds lies inside every plane.
	for _, c := range []rl.Vector3{bounds.Min, bounds.Max, rl.NewVector3(-1, 4, 5), rl.NewVector3(3, 0.5, -2)} {
		for i := range p.NumPlanes {
			pl := p.Planes[i]
			assert.GreaterOrEqual(t, pl[0]*c.X+pl[1]*c.Y+pl[2]*c.Z+pl[3], float32(-1e-5))
		}
	}
}

func TestParamsDerivePlanesFloorBelowZero(t *testing.T) {
	var p Params
	p.DerivePlanes(rl.NewBoundingBox(rl.NewVector3(0, -3, 0), rl.NewVector3(1, 1, 1)), rl.Vector3{})
	assert.InDelta(t, 3, p.Planes[0][3], 1e-6)
}

func TestParamsDerivePlanesTilt(t *testing.T) {
	var p Params
	p.DerivePlanes(rl.NewBoundingBox(rl.Vector3{}, rl.NewVector3(1, 1, 1)), rl.NewVector3(0.5, 0, 0))
	n := rl.NewVector3(p.Planes[0][0], p.Planes[0][1], p.Planes[0][2])
	assert.InDelta(t, 1, rl.Vector3Length(n), 1e-5)
	assert.Greater(t, n.X, float32(0))
}

func TestRelaxationModeText(t *testing.T) {
	var m RelaxationMode
	require.NoError(t, m.UnmarshalText([]byte("global")))
	assert.Equal(t, RelaxationGlobal, m)
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "global", string(text))
	assert.Error(t, m.UnmarshalText([]byte("sideways")))
}

func TestParamsOverlay(t *testing.T) {
	p := DefaultParams()
	p.DynamicFriction = 0.4
	p.Gravity = [3]float32{0, -9.8, 0}

	var patch Params
	patch.Viscosity = 0.2
	patch.Gravity = [3]float32{0, -3, 0}
	patch.RelaxationMode = RelaxationGlobal
	p.Overlay(patch)

	assert.InDelta(t, 0.2, p.Viscosity, 1e-6)
	assert.Equal(t, [3]float32{0, -3, 0}, p.Gravity)
	assert.Equal(t, RelaxationGlobal, p.RelaxationMode)
	assert.InDelta(t, 0.4, p.DynamicFriction, 1e-6, "zero fields keep the base value")
	assert.Equal(t, 3, p.NumIterations)
	assert.InDelta(t, 0.15, p.Radius, 1e-6)
}
