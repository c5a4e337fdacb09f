package flex

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shapeLens(b *Buffer) []int {
	sh := b.Shapes
	return []int{
		sh.Geometry.Len(), sh.Positions.Len(), sh.Rotations.Len(),
		sh.PrevPositions.Len(), sh.PrevRotations.Len(), sh.Flags.Len(),
	}
}

func TestShapeAppendGrowsEveryArray(t *testing.T) {
	b := newMappedBuffer(t, Capacity{MaxParticles: 1, MaxShapes: 4})

	box, err := NewBox(b, rl.NewVector3(1, 2, 3), rl.NewVector3(0, 1, 0), rl.QuaternionIdentity(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, box.Index())
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, shapeLens(b))

	sphere, err := NewSphere(b, 0.5, rl.NewVector3(2, 0, 0), true)
	require.NoError(t, err)
	assert.Equal(t, 1, sphere.Index())

	capsule, err := NewCapsule(b, 0.2, 1, rl.Vector3{}, rl.QuaternionIdentity(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, capsule.Index())
	assert.Equal(t, []int{3, 3, 3, 3, 3, 3}, shapeLens(b))

	assert.Equal(t, ShapeBox, ShapeKindOf(b.Shapes.Flags.At(0)))
	assert.Equal(t, ShapeSphere, ShapeKindOf(b.Shapes.Flags.At(1)))
	assert.NotZero(t, b.Shapes.Flags.At(1)&ShapeFlagDynamic)
	assert.Equal(t, rl.NewVector3(1, 2, 3), box.Geometry(b).HalfExtents)
}

func TestShapeAppendAtCapacityLeavesArraysAligned(t *testing.T) {
	b := newMappedBuffer(t, Capacity{MaxParticles: 1, MaxShapes: 1})
	_, err := NewSphere(b, 1, rl.Vector3{}, false)
	require.NoError(t, err)

	_, err = NewSphere(b, 1, rl.Vector3{}, false)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, shapeLens(b))
}

func TestShapeSetTransform(t *testing.T) {
	b := newMappedBuffer(t, Capacity{MaxParticles: 1})
	s, err := NewSphere(b, 1, rl.NewVector3(1, 0, 0), true)
	require.NoError(t, err)
	b.takeShapesDirty()

	s.SetTransform(b, rl.NewVector3(2, 0, 0), rl.QuaternionIdentity())
	pos, _ := s.Transform(b)
	prev, _ := s.PrevTransform(b)
	assert.Equal(t, rl.NewVector3(2, 0, 0), pos)
	assert.Equal(t, rl.NewVector3(1, 0, 0), prev)
	assert.True(t, b.takeShapesDirty())
	assert.False(t, b.takeShapesDirty())
}

func TestTriangleMeshSharesResource(t *testing.T) {
	lib := &fakeLibrary{meshes: map[MeshID]TriangleMeshDesc{}}
	b := NewBuffer()
	b.SetMeshes(lib)
	b.Create(Capacity{MaxParticles: 1})
	b.Map()
	defer b.Destroy()

	verts := []rl.Vector3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 2}}
	m, err := NewTriangleMesh(b, verts, []int32{0, 1, 2}, rl.Vector3{}, rl.Vector3{}, rl.QuaternionIdentity(), false)
	require.NoError(t, err)
	require.NotZero(t, m.Mesh())
	assert.Len(t, lib.meshes, 1)
	assert.Equal(t, rl.NewVector3(1, 0, 2), m.Bounds().Max)
	assert.Equal(t, rl.NewVector3(1, 1, 1), m.Geometry(b).Scale)

	_, err = m.AppendMapped(b)
	require.NoError(t, err)
	assert.Len(t, lib.meshes, 1, "second append reuses the mesh")
	assert.Equal(t, 2, b.NumShapes())

	m.Release()
	assert.Empty(t, lib.meshes)
}

func TestTriangleMeshErrors(t *testing.T) {
	b := newMappedBuffer(t, Capacity{MaxParticles: 1})
	_, err := NewTriangleMesh(b, nil, nil, rl.Vector3{}, rl.Vector3{}, rl.QuaternionIdentity(), false)
	assert.Error(t, err, "no mesh library")

	b.SetMeshes(&fakeLibrary{meshes: map[MeshID]TriangleMeshDesc{}})
	_, err = NewTriangleMesh(b, []rl.Vector3{{}}, []int32{0, 0}, rl.Vector3{}, rl.Vector3{}, rl.QuaternionIdentity(), false)
	assert.Error(t, err)
	assert.Equal(t, 0, b.NumShapes())
}
