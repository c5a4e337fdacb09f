package flex

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticleBounds(t *testing.T) {
	_, ok := ParticleBounds(nil, 0)
	assert.False(t, ok)

	pos := []rl.Vector4{{X: 1, Y: -2, Z: 3, W: 1}, {X: -1, Y: 4, Z: 0, W: 0}, {X: 100, Y: 100, Z: 100}}
	box, ok := ParticleBounds(pos, 2)
	require.True(t, ok)
	assert.Equal(t, rl.NewVector3(-1, -2, 0), box.Min)
	assert.Equal(t, rl.NewVector3(1, 4, 3), box.Max)
}

func TestShapeBounds(t *testing.T) {
	box := ShapeBounds(ShapeGeometry{Kind: ShapeSphere, Radius: 2}, rl.NewVector3(1, 1, 1), rl.QuaternionIdentity())
	assert.Equal(t, rl.NewVector3(-1, -1, -1), box.Min)
	assert.Equal(t, rl.NewVector3(3, 3, 3), box.Max)

	// A capsule along X turned a quarter about Z lies along Y.
	q := rl.QuaternionFromAxisAngle(rl.NewVector3(0, 0, 1), rl.Pi/2)
	box = ShapeBounds(ShapeGeometry{Kind: ShapeCapsule, Radius: 0.5, HalfHeight: 2}, rl.Vector3{}, q)
	assert.InDelta(t, 2.5, box.Max.Y, 1e-5)
	assert.InDelta(t, 0.5, box.Max.X, 1e-5)

	box = ShapeBounds(ShapeGeometry{Kind: ShapeBox, HalfExtents: rl.NewVector3(1, 2, 3)}, rl.Vector3{}, rl.QuaternionIdentity())
	assert.Equal(t, rl.NewVector3(1, 2, 3), box.Max)

	mesh := ShapeGeometry{
		Kind:       ShapeTriangleMesh,
		Scale:      rl.NewVector3(2, 2, 2),
		MeshBounds: rl.NewBoundingBox(rl.NewVector3(0, 0, 0), rl.NewVector3(1, 1, 1)),
	}
	box = ShapeBounds(mesh, rl.NewVector3(10, 0, 0), rl.QuaternionIdentity())
	assert.InDelta(t, 10, box.Min.X, 1e-5)
	assert.InDelta(t, 12, box.Max.X, 1e-5)
}

func TestUnionAndExpandBounds(t *testing.T) {
	a := rl.NewBoundingBox(rl.NewVector3(0, 0, 0), rl.NewVector3(1, 1, 1))
	b := rl.NewBoundingBox(rl.NewVector3(-1, 0.5, 0), rl.NewVector3(0.5, 2, 0.5))
	u := UnionBounds(a, b)
	assert.Equal(t, rl.NewVector3(-1, 0, 0), u.Min)
	assert.Equal(t, rl.NewVector3(1, 2, 1), u.Max)

	e := ExpandBounds(a, 0.5)
	assert.Equal(t, rl.NewVector3(-0.5, -0.5, -0.5), e.Min)
	assert.Equal(t, rl.NewVector3(1.5, 1.5, 1.5), e.Max)
}

func rigidFixture(offset rl.Vector3) ([]rl.Vector4, []int32, []int32) {
	rest := []rl.Vector4{
		{X: 0, Y: 0, Z: 0, W: 1}, {X: 1, Y: 0, Z: 0, W: 1}, {X: 0, Y: 1, Z: 0, W: 1}, {X: 0, Y: 0, Z: 3, W: 1},
		{X: 5, Y: 5, Z: 5, W: 1}, {X: 6, Y: 5, Z: 5, W: 1},
	}
	for i := range rest {
		rest[i].X += offset.X
		rest[i].Y += offset.Y
		rest[i].Z += offset.Z
	}
	return rest, []int32{0, 4, 6}, []int32{0, 1, 2, 3, 4, 5}
}

func TestRigidLocalPositionsSumToZero(t *testing.T) {
	rest, offsets, indices := rigidFixture(rl.Vector3{})
	out := make([]rl.Vector3, len(indices))
	RigidLocalPositions(rest, len(rest), offsets, indices, out)

	for r := 0; r+1 < len(offsets); r++ {
		var sum rl.Vector3
		for i := offsets[r]; i < offsets[r+1]; i++ {
			sum = rl.Vector3Add(sum, out[i])
		}
		assert.InDelta(t, 0, sum.X, 1e-5)
		assert.InDelta(t, 0, sum.Y, 1e-5)
		assert.InDelta(t, 0, sum.Z, 1e-5)
	}
	assert.InDelta(t, -0.5, out[4].X, 1e-5)
	assert.InDelta(t, 0.5, out[5].X, 1e-5)
}

func TestRigidLocalPositionsTranslationInvariant(t *testing.T) {
	rest, offsets, indices := rigidFixture(rl.Vector3{})
	far, _, _ := rigidFixture(rl.NewVector3(1000, -2000, 500))

	near := make([]rl.Vector3, len(indices))
	moved := make([]rl.Vector3, len(indices))
	RigidLocalPositions(rest, len(rest), offsets, indices, near)
	RigidLocalPositions(far, len(far), offsets, indices, moved)

	for i := range near {
		assert.InDelta(t, near[i].X, moved[i].X, 1e-3)
		assert.InDelta(t, near[i].Y, moved[i].Y, 1e-3)
		assert.InDelta(t, near[i].Z, moved[i].Z, 1e-3)
	}
}

func TestRigidLocalPositionsNoGroups(t *testing.T) {
	out := []rl.Vector3{{X: 7}}
	RigidLocalPositions([]rl.Vector4{{X: 1}}, 1, []int32{0}, nil, out)
	assert.Equal(t, float32(7), out[0].X)
}
