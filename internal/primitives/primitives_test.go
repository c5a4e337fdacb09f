package primitives

import (
	"testing"

	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec(t *testing.T, want, got rl.Vector3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4)
	assert.InDelta(t, want.Y, got.Y, 1e-4)
	assert.InDelta(t, want.Z, got.Z, 1e-4)
}

func TestShapeTransformBox(t *testing.T) {
	geo := flex.ShapeGeometry{Kind: flex.ShapeBox, HalfExtents: rl.NewVector3(1, 2, 3)}
	pos := rl.NewVector3(10, 0, -4)
	rot := rl.QuaternionFromAxisAngle(rl.NewVector3(0, 1, 0), rl.Pi/3)

	key, m, ok := ShapeTransform(geo, pos, rot)
	require.True(t, ok)
	assert.Equal(t, "cube", key)

	corner := rl.NewVector3(0.5, 0.5, 0.5)
	want := rl.Vector3Add(pos, rl.Vector3RotateByQuaternion(rl.NewVector3(1, 2, 3), rot))
	assertVec(t, want, rl.Vector3Transform(corner, m))
	assertVec(t, pos, rl.Vector3Transform(rl.Vector3{}, m))
}

func TestShapeTransformSphere(t *testing.T) {
	geo := flex.ShapeGeometry{Kind: flex.ShapeSphere, Radius: 0.5}
	key, m, ok := ShapeTransform(geo, rl.NewVector3(1, 1, 1), rl.QuaternionIdentity())
	require.True(t, ok)
	assert.Equal(t, "sphere", key)
	assertVec(t, rl.NewVector3(1.5, 1, 1), rl.Vector3Transform(rl.NewVector3(1, 0, 0), m))

	_, _, ok = ShapeTransform(flex.ShapeGeometry{Kind: flex.ShapeCapsule}, rl.Vector3{}, rl.QuaternionIdentity())
	assert.False(t, ok)
}

func TestCapsuleEnds(t *testing.T) {
	geo := flex.ShapeGeometry{Kind: flex.ShapeCapsule, Radius: 0.1, HalfHeight: 0.5}
	rot := rl.QuaternionFromAxisAngle(rl.NewVector3(0, 0, 1), rl.Pi/2)
	a, b := CapsuleEnds(geo, rl.NewVector3(0, 1, 0), rot)
	assertVec(t, rl.NewVector3(0, 0.5, 0), a)
	assertVec(t, rl.NewVector3(0, 1.5, 0), b)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#3c8ce6")
	require.NoError(t, err)
	assert.Equal(t, rl.NewColor(0x3c, 0x8c, 0xe6, 0xff), c)

	c, err = ParseColor("10203040")
	require.NoError(t, err)
	assert.Equal(t, rl.NewColor(0x10, 0x20, 0x30, 0x40), c)

	for _, bad := range []string{"", "#fff", "#gggggg", "#1234567"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestPaletteParse(t *testing.T) {
	c, err := Palette{Fluid: "#000000"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, rl.NewColor(0, 0, 0, 255), c.Fluid)
	def, err := ParseColor(DefaultPalette().Particle)
	require.NoError(t, err)
	assert.Equal(t, def, c.Particle)

	_, err = Palette{Static: "red"}.Parse()
	assert.Error(t, err)
}
