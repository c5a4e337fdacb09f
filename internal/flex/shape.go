package flex

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ShapeKind identifies the geometry stored in a ShapeGeometry.
type ShapeKind int32

const (
	ShapeSphere ShapeKind = iota
	ShapeCapsule
	ShapeBox
	ShapeTriangleMesh
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	case ShapeBox:
		return "box"
	case ShapeTriangleMesh:
		return "trimesh"
	}
	return fmt.Sprintf("ShapeKind(%d)", int32(k))
}

const (
	shapeFlagKindMask int32 = 0xff
	// ShapeFlagDynamic marks a shape whose pose may change between frames.
	ShapeFlagDynamic int32 = 1 << 8
)

// MakeShapeFlags encodes a shape kind and its dynamic bit.
func MakeShapeFlags(kind ShapeKind, dynamic bool) int32 {
	f := int32(kind) & shapeFlagKindMask
	if dynamic {
		f |= ShapeFlagDynamic
	}
	return f
}

// ShapeKindOf decodes the kind from shape flags.
func ShapeKindOf(flags int32) ShapeKind { return ShapeKind(flags & shapeFlagKindMask) }

// MeshID is a handle to a standalone triangle mesh resource. Zero is never a valid mesh.
type MeshID uint64

// TriangleMeshDesc is the data a MeshLibrary copies into a mesh resource.
type TriangleMeshDesc struct {
	Positions []rl.Vector3
	Indices   []int32
	Bounds    rl.BoundingBox
}

// MeshLibrary creates and frees triangle mesh resources. Meshes are referenced from
// shapes by ID and live until destroyed or the library shuts down, independent of any Buffer.
type MeshLibrary interface {
	CreateTriangleMesh(desc TriangleMeshDesc) (MeshID, error)
	DestroyTriangleMesh(id MeshID)
}

// ShapeGeometry is one entry of the shape geometry array. Which fields apply depends on Kind:
// Radius for spheres, Radius and HalfHeight (along local X) for capsules, HalfExtents for
// boxes, Mesh, Scale and MeshBounds for triangle meshes.
type ShapeGeometry struct {
	Kind        ShapeKind
	Radius      float32
	HalfHeight  float32
	HalfExtents rl.Vector3
	Mesh        MeshID
	Scale       rl.Vector3
	MeshBounds  rl.BoundingBox
}

// Shape is a collision primitive that appends its description to a mapped Buffer.
type Shape interface {
	AppendMapped(buf *Buffer) (int, error)
	Index() int
}

// shapeEntry remembers the index a shape was assigned and reads its pose back.
type shapeEntry struct {
	index int
}

// Index returns the shape buffer index, or -1 if the shape was never appended.
func (s *shapeEntry) Index() int { return s.index }

// Transform returns the current pose of the shape. The buffer must be mapped.
func (s *shapeEntry) Transform(buf *Buffer) (rl.Vector3, rl.Quaternion) {
	p := buf.Shapes.Positions.At(s.index)
	return rl.NewVector3(p.X, p.Y, p.Z), buf.Shapes.Rotations.At(s.index)
}

// PrevTransform returns the pose the shape had before the last SetTransform.
func (s *shapeEntry) PrevTransform(buf *Buffer) (rl.Vector3, rl.Quaternion) {
	p := buf.Shapes.PrevPositions.At(s.index)
	return rl.NewVector3(p.X, p.Y, p.Z), buf.Shapes.PrevRotations.At(s.index)
}

// SetTransform moves the current pose into the previous-pose arrays and writes a new one,
// so the solver can derive the shape's velocity. The buffer must be mapped.
func (s *shapeEntry) SetTransform(buf *Buffer, pos rl.Vector3, rot rl.Quaternion) {
	sh := &buf.Shapes
	sh.PrevPositions.Set(s.index, sh.Positions.At(s.index))
	sh.PrevRotations.Set(s.index, sh.Rotations.At(s.index))
	sh.Positions.Set(s.index, rl.NewVector4(pos.X, pos.Y, pos.Z, 0))
	sh.Rotations.Set(s.index, rot)
	buf.MarkShapesDirty()
}

// Geometry returns the stored geometry entry.
func (s *shapeEntry) Geometry(buf *Buffer) ShapeGeometry {
	return buf.Shapes.Geometry.At(s.index)
}

func (s *shapeEntry) append(buf *Buffer, geo ShapeGeometry, pos rl.Vector3, rot rl.Quaternion, dynamic bool) (int, error) {
	idx, err := buf.appendShape(geo, pos, rot, MakeShapeFlags(geo.Kind, dynamic))
	if err != nil {
		return -1, err
	}
	s.index = idx
	return idx, nil
}

// Box is an oriented box collider.
type Box struct {
	shapeEntry
	HalfExtents rl.Vector3
	Position    rl.Vector3
	Rotation    rl.Quaternion
	Dynamic     bool
}

// NewBox appends a box to buf, which must be mapped.
func NewBox(buf *Buffer, halfExtents, pos rl.Vector3, rot rl.Quaternion, dynamic bool) (*Box, error) {
	b := &Box{shapeEntry: shapeEntry{index: -1}, HalfExtents: halfExtents, Position: pos, Rotation: rot, Dynamic: dynamic}
	if _, err := b.AppendMapped(buf); err != nil {
		return nil, err
	}
	return b, nil
}

// AppendMapped appends the box description and records its index.
func (b *Box) AppendMapped(buf *Buffer) (int, error) {
	geo := ShapeGeometry{Kind: ShapeBox, HalfExtents: b.HalfExtents}
	return b.append(buf, geo, b.Position, b.Rotation, b.Dynamic)
}

// Sphere is a sphere collider.
type Sphere struct {
	shapeEntry
	Radius   float32
	Position rl.Vector3
	Dynamic  bool
}

// NewSphere appends a sphere to buf, which must be mapped.
func NewSphere(buf *Buffer, radius float32, pos rl.Vector3, dynamic bool) (*Sphere, error) {
	s := &Sphere{shapeEntry: shapeEntry{index: -1}, Radius: radius, Position: pos, Dynamic: dynamic}
	if _, err := s.AppendMapped(buf); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sphere) AppendMapped(buf *Buffer) (int, error) {
	geo := ShapeGeometry{Kind: ShapeSphere, Radius: s.Radius}
	return s.append(buf, geo, s.Position, rl.QuaternionIdentity(), s.Dynamic)
}

// Capsule is a capsule collider whose segment runs along its local X axis.
type Capsule struct {
	shapeEntry
	Radius     float32
	HalfHeight float32
	Position   rl.Vector3
	Rotation   rl.Quaternion
	Dynamic    bool
}

// NewCapsule appends a capsule to buf, which must be mapped.
func NewCapsule(buf *Buffer, radius, halfHeight float32, pos rl.Vector3, rot rl.Quaternion, dynamic bool) (*Capsule, error) {
	c := &Capsule{shapeEntry: shapeEntry{index: -1}, Radius: radius, HalfHeight: halfHeight, Position: pos, Rotation: rot, Dynamic: dynamic}
	if _, err := c.AppendMapped(buf); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Capsule) AppendMapped(buf *Buffer) (int, error) {
	geo := ShapeGeometry{Kind: ShapeCapsule, Radius: c.Radius, HalfHeight: c.HalfHeight}
	return c.append(buf, geo, c.Position, c.Rotation, c.Dynamic)
}

// TriangleMesh is a mesh collider. Its vertex and index data live in a standalone mesh
// resource created through the buffer's MeshLibrary on first append and reused afterwards;
// the shape entry only references it by ID.
type TriangleMesh struct {
	shapeEntry
	Positions []rl.Vector3
	Indices   []int32
	Scale     rl.Vector3
	Position  rl.Vector3
	Rotation  rl.Quaternion
	Dynamic   bool

	lib    MeshLibrary
	mesh   MeshID
	bounds rl.BoundingBox
}

// NewTriangleMesh appends a triangle mesh to buf, which must be mapped and carry a MeshLibrary.
func NewTriangleMesh(buf *Buffer, positions []rl.Vector3, indices []int32, scale, pos rl.Vector3, rot rl.Quaternion, dynamic bool) (*TriangleMesh, error) {
	m := &TriangleMesh{
		shapeEntry: shapeEntry{index: -1},
		Positions:  positions,
		Indices:    indices,
		Scale:      scale,
		Position:   pos,
		Rotation:   rot,
		Dynamic:    dynamic,
	}
	if _, err := m.AppendMapped(buf); err != nil {
		return nil, err
	}
	return m, nil
}

// AppendMapped builds the mesh resource if needed and appends the shape description.
func (m *TriangleMesh) AppendMapped(buf *Buffer) (int, error) {
	if err := m.ensureMesh(buf.Meshes()); err != nil {
		return -1, err
	}
	scale := m.Scale
	if scale == (rl.Vector3{}) {
		scale = rl.NewVector3(1, 1, 1)
	}
	geo := ShapeGeometry{Kind: ShapeTriangleMesh, Mesh: m.mesh, Scale: scale, MeshBounds: m.bounds}
	return m.append(buf, geo, m.Position, m.Rotation, m.Dynamic)
}

// Mesh returns the mesh resource handle, zero before the first append.
func (m *TriangleMesh) Mesh() MeshID { return m.mesh }

// Bounds returns the unscaled local bounds of the mesh vertices.
func (m *TriangleMesh) Bounds() rl.BoundingBox { return m.bounds }

// Release frees the mesh resource. The shape entry in any buffer is left untouched.
func (m *TriangleMesh) Release() {
	if m.lib != nil && m.mesh != 0 {
		m.lib.DestroyTriangleMesh(m.mesh)
	}
	m.lib = nil
	m.mesh = 0
}

func (m *TriangleMesh) ensureMesh(lib MeshLibrary) error {
	if lib == nil {
		return fmt.Errorf("flex: triangle mesh needs a mesh library on the buffer")
	}
	if m.mesh != 0 && m.lib == lib {
		return nil
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("flex: triangle mesh index count %d is not a multiple of 3", len(m.Indices))
	}
	bounds, _ := PointBounds(m.Positions)
	id, err := lib.CreateTriangleMesh(TriangleMeshDesc{Positions: m.Positions, Indices: m.Indices, Bounds: bounds})
	if err != nil {
		return fmt.Errorf("creating triangle mesh: %w", err)
	}
	m.lib = lib
	m.mesh = id
	m.bounds = bounds
	return nil
}
