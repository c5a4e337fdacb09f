package primitives

import (
	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// cached holds the mesh and material for a primitive. Created lazily on first draw.
type cached struct {
	mesh rl.Mesh
	mtl  rl.Material
}

// Registry draws lit unit primitives. Meshes are created on first use so that GPU
// resources are allocated after the window/OpenGL context exists.
type Registry struct {
	cache    map[string]cached
	viewPos  rl.Vector3
	lightDir rl.Vector3
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		cache:    make(map[string]cached),
		lightDir: rl.NewVector3(0.5, 1, 0.5),
	}
}

// SetView sets camera position and direction-to-light for this frame.
func (r *Registry) SetView(viewPos, lightDir rl.Vector3) {
	r.viewPos = viewPos
	r.lightDir = lightDir
}

const sphereRings, sphereSlices = 12, 12

// ensure creates the mesh for key: "cube" is a unit cube, "sphere" a unit-radius sphere.
func (r *Registry) ensure(key string) (cached, bool) {
	if c, ok := r.cache[key]; ok {
		return c, true
	}
	var mesh rl.Mesh
	switch key {
	case "cube":
		mesh = rl.GenMeshCube(1, 1, 1)
	case "sphere":
		mesh = rl.GenMeshSphere(1, sphereRings, sphereSlices)
	default:
		return cached{}, false
	}
	mtl := rl.LoadMaterialDefault()
	if shader := rl.LoadShaderFromMemory(litVS, litFS); rl.IsShaderValid(shader) {
		mtl.Shader = shader
	}
	c := cached{mesh: mesh, mtl: mtl}
	r.cache[key] = c
	return c, true
}

// DrawMesh draws primitive key with a model transform. Must be called between
// BeginMode3D and EndMode3D.
func (r *Registry) DrawMesh(key string, transform rl.Matrix, color rl.Color) {
	c, ok := r.ensure(key)
	if !ok {
		return
	}
	if albedo := c.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = color
	}
	r.setUniforms(c.mtl.Shader)
	rl.DrawMesh(c.mesh, c.mtl, transform)
}

// DrawParticle draws a sphere of the given radius.
func (r *Registry) DrawParticle(pos rl.Vector3, radius float32, color rl.Color) {
	m := rl.MatrixMultiply(rl.MatrixScale(radius, radius, radius), rl.MatrixTranslate(pos.X, pos.Y, pos.Z))
	r.DrawMesh("sphere", m, color)
}

// DrawShape draws one collision shape at its pose. Capsules use raylib's capsule and
// triangle meshes are shown as their world bounds.
func (r *Registry) DrawShape(geo flex.ShapeGeometry, pos rl.Vector3, rot rl.Quaternion, color rl.Color) {
	if key, m, ok := ShapeTransform(geo, pos, rot); ok {
		r.DrawMesh(key, m, color)
		return
	}
	switch geo.Kind {
	case flex.ShapeCapsule:
		a, b := CapsuleEnds(geo, pos, rot)
		rl.DrawCapsule(a, b, geo.Radius, 12, 6, color)
	case flex.ShapeTriangleMesh:
		rl.DrawBoundingBox(flex.ShapeBounds(geo, pos, rot), color)
	}
}

// Unload frees every cached mesh and material.
func (r *Registry) Unload() {
	for key, c := range r.cache {
		rl.UnloadMesh(&c.mesh)
		rl.UnloadMaterial(c.mtl)
		delete(r.cache, key)
	}
}

// ShapeTransform returns the unit primitive and model matrix that draw a box or sphere
// shape. ok is false for other kinds.
func ShapeTransform(geo flex.ShapeGeometry, pos rl.Vector3, rot rl.Quaternion) (key string, m rl.Matrix, ok bool) {
	var scale rl.Vector3
	switch geo.Kind {
	case flex.ShapeBox:
		key, scale = "cube", rl.Vector3Scale(geo.HalfExtents, 2)
	case flex.ShapeSphere:
		key, scale = "sphere", rl.NewVector3(geo.Radius, geo.Radius, geo.Radius)
	default:
		return "", rl.Matrix{}, false
	}
	m = rl.MatrixMultiply(
		rl.MatrixMultiply(rl.MatrixScale(scale.X, scale.Y, scale.Z), rl.QuaternionToMatrix(rot)),
		rl.MatrixTranslate(pos.X, pos.Y, pos.Z),
	)
	return key, m, true
}

// CapsuleEnds returns the world end points of a capsule's segment.
func CapsuleEnds(geo flex.ShapeGeometry, pos rl.Vector3, rot rl.Quaternion) (rl.Vector3, rl.Vector3) {
	axis := rl.Vector3RotateByQuaternion(rl.NewVector3(geo.HalfHeight, 0, 0), rot)
	return rl.Vector3Subtract(pos, axis), rl.Vector3Add(pos, axis)
}
