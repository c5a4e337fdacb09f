package flex

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Capacity is the set of maximum element counts a Buffer commits to at creation.
// Zero fields are derived from MaxParticles by WithDefaults.
type Capacity struct {
	MaxParticles    int `yaml:"max_particles" toml:"max_particles" json:"max_particles"`
	MaxDiffuse      int `yaml:"max_diffuse" toml:"max_diffuse" json:"max_diffuse"`
	MaxNeighbors    int `yaml:"max_neighbors" toml:"max_neighbors" json:"max_neighbors"`
	MaxShapes       int `yaml:"max_shapes" toml:"max_shapes" json:"max_shapes"`
	MaxRigids       int `yaml:"max_rigids" toml:"max_rigids" json:"max_rigids"`
	MaxRigidIndices int `yaml:"max_rigid_indices" toml:"max_rigid_indices" json:"max_rigid_indices"`
	MaxSprings      int `yaml:"max_springs" toml:"max_springs" json:"max_springs"`
	MaxTriangles    int `yaml:"max_triangles" toml:"max_triangles" json:"max_triangles"`
	MaxInflatables  int `yaml:"max_inflatables" toml:"max_inflatables" json:"max_inflatables"`
}

// WithDefaults returns c with every zero limit derived from MaxParticles.
func (c Capacity) WithDefaults() Capacity {
	if c.MaxNeighbors == 0 {
		c.MaxNeighbors = 96
	}
	if c.MaxShapes == 0 {
		c.MaxShapes = 64
	}
	if c.MaxRigids == 0 {
		c.MaxRigids = c.MaxParticles
	}
	if c.MaxRigidIndices == 0 {
		c.MaxRigidIndices = c.MaxParticles
	}
	if c.MaxSprings == 0 {
		c.MaxSprings = 4 * c.MaxParticles
	}
	if c.MaxTriangles == 0 {
		c.MaxTriangles = c.MaxParticles
	}
	if c.MaxInflatables == 0 {
		c.MaxInflatables = 64
	}
	return c
}

// ShapeArrays are the six co-indexed collision shape arrays. One shape owns one
// index across all of them.
type ShapeArrays struct {
	Geometry      *Array[ShapeGeometry]
	Positions     *Array[rl.Vector4]
	Rotations     *Array[rl.Quaternion]
	PrevPositions *Array[rl.Vector4]
	PrevRotations *Array[rl.Quaternion]
	Flags         *Array[int32]
}

// RigidArrays hold rigid groups. Offsets has NumRigids+1 entries; group r owns
// Indices[Offsets[r]:Offsets[r+1]] and the same range of LocalPositions.
type RigidArrays struct {
	Offsets        *Array[int32]
	Indices        *Array[int32]
	LocalPositions *Array[rl.Vector3]
	Coefficients   *Array[float32]
	Rotations      *Array[rl.Quaternion]
	Translations   *Array[rl.Vector3]
}

// SpringArrays hold distance constraints; Indices stores two particle indices per spring.
type SpringArrays struct {
	Indices   *Array[int32]
	Lengths   *Array[float32]
	Stiffness *Array[float32]
}

// TriangleArrays hold dynamic triangles; Indices stores three particle indices per
// triangle and Normals one normal per triangle.
type TriangleArrays struct {
	Indices *Array[int32]
	Normals *Array[rl.Vector3]
}

// InflatableArrays describe closed triangle meshes with a pressure constraint.
type InflatableArrays struct {
	TriOffsets  *Array[int32]
	TriCounts   *Array[int32]
	RestVolumes *Array[float32]
	Pressures   *Array[float32]
	Stiffness   *Array[float32]
}

// Range is a contiguous block of particle indices owned by one instance.
type Range struct {
	Start int
	Count int
}

// End returns one past the last index of the range.
func (r Range) End() int { return r.Start + r.Count }

// Buffer owns every array the solver reads and writes. Arrays are host-accessible only
// between Map and Unmap, and solver-accessible only outside that bracket.
type Buffer struct {
	// Per-particle arrays; all have length MaxParticles.
	Positions       *Array[rl.Vector4]
	RestPositions   *Array[rl.Vector4]
	Velocities      *Array[rl.Vector3]
	Phases          *Array[int32]
	Densities       *Array[float32]
	Anisotropy1     *Array[rl.Vector4]
	Anisotropy2     *Array[rl.Vector4]
	Anisotropy3     *Array[rl.Vector4]
	Normals         *Array[rl.Vector4]
	SmoothPositions *Array[rl.Vector4]

	// ActiveIndices lists the simulated particles; its length is the active count.
	ActiveIndices *Array[int32]

	DiffusePositions  *Array[rl.Vector4]
	DiffuseVelocities *Array[rl.Vector4]
	// DiffuseCount holds a single element: the number of live diffuse particles.
	DiffuseCount *Array[int32]

	Shapes      ShapeArrays
	Rigids      RigidArrays
	Springs     SpringArrays
	Triangles   TriangleArrays
	Inflatables InflatableArrays

	capacity     Capacity
	arrays       []mappable
	numParticles int
	created      bool
	destroyed    bool
	mapped       bool
	shapesDirty  bool
	meshes       MeshLibrary
}

// NewBuffer returns an empty buffer. Call Create before use.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Create allocates every array group to its committed capacity. The buffer starts unmapped.
// Calling Create twice without Destroy is a usage error.
func (b *Buffer) Create(c Capacity) {
	if b.created && !b.destroyed {
		panic("flex: Buffer.Create called twice without Destroy")
	}
	c = c.WithDefaults()
	*b = Buffer{capacity: c, created: true, meshes: b.meshes}

	n := c.MaxParticles
	b.Positions = newArray[rl.Vector4](b, "positions", n, n)
	b.RestPositions = newArray[rl.Vector4](b, "rest_positions", n, n)
	b.Velocities = newArray[rl.Vector3](b, "velocities", n, n)
	b.Phases = newArray[int32](b, "phases", n, n)
	b.Densities = newArray[float32](b, "densities", n, n)
	b.Anisotropy1 = newArray[rl.Vector4](b, "anisotropy1", n, n)
	b.Anisotropy2 = newArray[rl.Vector4](b, "anisotropy2", n, n)
	b.Anisotropy3 = newArray[rl.Vector4](b, "anisotropy3", n, n)
	b.Normals = newArray[rl.Vector4](b, "normals", n, n)
	b.SmoothPositions = newArray[rl.Vector4](b, "smooth_positions", n, n)
	b.ActiveIndices = newArray[int32](b, "active_indices", 0, n)

	b.DiffusePositions = newArray[rl.Vector4](b, "diffuse_positions", c.MaxDiffuse, c.MaxDiffuse)
	b.DiffuseVelocities = newArray[rl.Vector4](b, "diffuse_velocities", c.MaxDiffuse, c.MaxDiffuse)
	b.DiffuseCount = newArray[int32](b, "diffuse_count", 1, 1)

	s := c.MaxShapes
	b.Shapes = ShapeArrays{
		Geometry:      newArray[ShapeGeometry](b, "shape_geometry", 0, s),
		Positions:     newArray[rl.Vector4](b, "shape_positions", 0, s),
		Rotations:     newArray[rl.Quaternion](b, "shape_rotations", 0, s),
		PrevPositions: newArray[rl.Vector4](b, "shape_prev_positions", 0, s),
		PrevRotations: newArray[rl.Quaternion](b, "shape_prev_rotations", 0, s),
		Flags:         newArray[int32](b, "shape_flags", 0, s),
	}
	b.Rigids = RigidArrays{
		Offsets:        newArray[int32](b, "rigid_offsets", 1, c.MaxRigids+1),
		Indices:        newArray[int32](b, "rigid_indices", 0, c.MaxRigidIndices),
		LocalPositions: newArray[rl.Vector3](b, "rigid_local_positions", 0, c.MaxRigidIndices),
		Coefficients:   newArray[float32](b, "rigid_coefficients", 0, c.MaxRigids),
		Rotations:      newArray[rl.Quaternion](b, "rigid_rotations", 0, c.MaxRigids),
		Translations:   newArray[rl.Vector3](b, "rigid_translations", 0, c.MaxRigids),
	}
	b.Springs = SpringArrays{
		Indices:   newArray[int32](b, "spring_indices", 0, 2*c.MaxSprings),
		Lengths:   newArray[float32](b, "spring_lengths", 0, c.MaxSprings),
		Stiffness: newArray[float32](b, "spring_stiffness", 0, c.MaxSprings),
	}
	b.Triangles = TriangleArrays{
		Indices: newArray[int32](b, "triangle_indices", 0, 3*c.MaxTriangles),
		Normals: newArray[rl.Vector3](b, "triangle_normals", 0, c.MaxTriangles),
	}
	b.Inflatables = InflatableArrays{
		TriOffsets:  newArray[int32](b, "inflatable_tri_offsets", 0, c.MaxInflatables),
		TriCounts:   newArray[int32](b, "inflatable_tri_counts", 0, c.MaxInflatables),
		RestVolumes: newArray[float32](b, "inflatable_volumes", 0, c.MaxInflatables),
		Pressures:   newArray[float32](b, "inflatable_pressures", 0, c.MaxInflatables),
		Stiffness:   newArray[float32](b, "inflatable_stiffness", 0, c.MaxInflatables),
	}
}

// Destroy releases all storage. It is a no-op on a buffer that was never created or is
// already destroyed. Any later array access panics.
func (b *Buffer) Destroy() {
	if !b.created || b.destroyed {
		return
	}
	for _, a := range b.arrays {
		a.release()
	}
	b.destroyed = true
	b.mapped = false
}

// Map makes every array host-visible. Solver readbacks issued since the last Unmap
// land here; this is where the host waits on the device.
func (b *Buffer) Map() {
	b.mustLive("Map")
	if b.mapped {
		panic("flex: Buffer.Map called while already mapped")
	}
	for _, a := range b.arrays {
		a.resolve()
	}
	b.mapped = true
}

// Unmap returns every array to solver-only visibility.
func (b *Buffer) Unmap() {
	b.mustLive("Unmap")
	if !b.mapped {
		panic("flex: Buffer.Unmap called while not mapped")
	}
	b.mapped = false
}

// Mapped reports whether the buffer is currently host-visible.
func (b *Buffer) Mapped() bool { return b.mapped }

// Created reports whether the buffer holds live storage.
func (b *Buffer) Created() bool { return b.created && !b.destroyed }

// Capacity returns the committed limits, with defaults applied.
func (b *Buffer) Capacity() Capacity { return b.capacity }

// NumParticles returns the number of particles allocated by instances.
func (b *Buffer) NumParticles() int { return b.numParticles }

// NumShapes returns the number of shape entries.
func (b *Buffer) NumShapes() int { return b.Shapes.Geometry.Len() }

// NumRigids returns the number of rigid groups.
func (b *Buffer) NumRigids() int { return b.Rigids.Offsets.Len() - 1 }

// NumSprings returns the number of springs.
func (b *Buffer) NumSprings() int { return b.Springs.Lengths.Len() }

// NumTriangles returns the number of dynamic triangles.
func (b *Buffer) NumTriangles() int { return b.Triangles.Normals.Len() }

// NumInflatables returns the number of inflatables.
func (b *Buffer) NumInflatables() int { return b.Inflatables.RestVolumes.Len() }

// Meshes returns the triangle mesh library instances use to build mesh shapes.
// It is nil until the controller attaches one.
func (b *Buffer) Meshes() MeshLibrary { return b.meshes }

// SetMeshes attaches the library used for standalone mesh resources.
func (b *Buffer) SetMeshes(m MeshLibrary) { b.meshes = m }

// AllocParticles reserves n contiguous particle indices and returns their range.
// Instances keep the range, never a slice, across calls.
func (b *Buffer) AllocParticles(n int) (Range, error) {
	b.mustMapped("AllocParticles")
	if n < 0 || b.numParticles+n > b.capacity.MaxParticles {
		return Range{}, fmt.Errorf("allocating %d particles with %d of %d in use: %w",
			n, b.numParticles, b.capacity.MaxParticles, ErrCapacity)
	}
	r := Range{Start: b.numParticles, Count: n}
	b.numParticles += n
	return r, nil
}

// Span returns a bounds-checked view of r. The buffer must be mapped while the span is used.
func (b *Buffer) Span(r Range) Span {
	if r.Start < 0 || r.Count < 0 || r.End() > b.numParticles {
		panic(fmt.Sprintf("flex: span [%d,%d) outside allocated particles [0,%d)", r.Start, r.End(), b.numParticles))
	}
	return Span{buf: b, r: r}
}

// AddRigid registers the given particle indices as one rigid group and returns its index.
// Rotation starts at identity and translation at zero; local positions are computed
// by the controller after all instances have initialized.
func (b *Buffer) AddRigid(indices []int32, stiffness float32) (int, error) {
	b.mustMapped("AddRigid")
	if len(indices) == 0 {
		return -1, fmt.Errorf("empty rigid: %w", ErrInvalidRigid)
	}
	for _, idx := range indices {
		if idx < 0 || int(idx) >= b.numParticles {
			return -1, fmt.Errorf("rigid index %d outside [0,%d): %w", idx, b.numParticles, ErrInvalidRigid)
		}
	}
	rg := &b.Rigids
	if !rg.Coefficients.room(1) || !rg.Indices.room(len(indices)) {
		return -1, fmt.Errorf("adding rigid of %d particles: %w", len(indices), ErrCapacity)
	}
	for _, idx := range indices {
		rg.Indices.push(idx)
	}
	rg.Offsets.push(int32(rg.Indices.Len()))
	rg.Coefficients.push(stiffness)
	rg.Rotations.push(rl.QuaternionIdentity())
	rg.Translations.push(rl.Vector3{})
	return rg.Coefficients.Len() - 1, nil
}

// checkParticles reports the first index outside the allocated particles.
func (b *Buffer) checkParticles(what string, indices ...int32) error {
	for _, idx := range indices {
		if idx < 0 || int(idx) >= b.numParticles {
			return fmt.Errorf("%s index %d outside [0,%d): %w", what, idx, b.numParticles, ErrInvalidConstraint)
		}
	}
	return nil
}

// AddSpring adds a distance constraint between particles i and j.
func (b *Buffer) AddSpring(i, j int32, length, stiffness float32) (int, error) {
	b.mustMapped("AddSpring")
	if err := b.checkParticles("spring", i, j); err != nil {
		return -1, err
	}
	sp := &b.Springs
	if !sp.Lengths.room(1) {
		return -1, fmt.Errorf("adding spring: %w", ErrCapacity)
	}
	sp.Indices.push(i)
	sp.Indices.push(j)
	sp.Stiffness.push(stiffness)
	return sp.Lengths.push(length), nil
}

// AddTriangle adds a dynamic triangle over particles i, j, k.
func (b *Buffer) AddTriangle(i, j, k int32) (int, error) {
	b.mustMapped("AddTriangle")
	if err := b.checkParticles("triangle", i, j, k); err != nil {
		return -1, err
	}
	tr := &b.Triangles
	if !tr.Normals.room(1) {
		return -1, fmt.Errorf("adding triangle: %w", ErrCapacity)
	}
	tr.Indices.push(i)
	tr.Indices.push(j)
	tr.Indices.push(k)
	return tr.Normals.push(rl.Vector3{}), nil
}

// AddInflatable adds a pressure constraint over count dynamic triangles starting at triOffset.
func (b *Buffer) AddInflatable(triOffset, count int32, restVolume, pressure, stiffness float32) (int, error) {
	b.mustMapped("AddInflatable")
	in := &b.Inflatables
	if !in.RestVolumes.room(1) {
		return -1, fmt.Errorf("adding inflatable: %w", ErrCapacity)
	}
	if triOffset < 0 || count < 0 || int(triOffset)+int(count) > b.NumTriangles() {
		return -1, fmt.Errorf("inflatable triangles [%d,%d) outside [0,%d): %w",
			triOffset, int(triOffset)+int(count), b.NumTriangles(), ErrInvalidConstraint)
	}
	in.TriOffsets.push(triOffset)
	in.TriCounts.push(count)
	in.Pressures.push(pressure)
	in.Stiffness.push(stiffness)
	return in.RestVolumes.push(restVolume), nil
}

// ZeroRunArrays clears the per-run particle outputs (densities, anisotropy, normals,
// smoothed positions, diffuse particles). Must be called while mapped.
func (b *Buffer) ZeroRunArrays() {
	b.mustMapped("ZeroRunArrays")
	b.Densities.zero()
	b.Anisotropy1.zero()
	b.Anisotropy2.zero()
	b.Anisotropy3.zero()
	b.Normals.zero()
	b.SmoothPositions.zero()
	b.DiffusePositions.zero()
	b.DiffuseVelocities.zero()
	b.DiffuseCount.zero()
}

// MarkShapesDirty records that shape poses changed and must be re-uploaded.
func (b *Buffer) MarkShapesDirty() { b.shapesDirty = true }

// takeShapesDirty returns and clears the dirty flag.
func (b *Buffer) takeShapesDirty() bool {
	d := b.shapesDirty
	b.shapesDirty = false
	return d
}

// appendShape appends one shape record to all six shape arrays, or to none of them.
func (b *Buffer) appendShape(geo ShapeGeometry, pos rl.Vector3, rot rl.Quaternion, flags int32) (int, error) {
	b.mustMapped("appendShape")
	sh := &b.Shapes
	if !sh.Geometry.room(1) || !sh.Positions.room(1) || !sh.Rotations.room(1) ||
		!sh.PrevPositions.room(1) || !sh.PrevRotations.room(1) || !sh.Flags.room(1) {
		return -1, fmt.Errorf("adding shape: %w", ErrCapacity)
	}
	p := rl.NewVector4(pos.X, pos.Y, pos.Z, 0)
	idx := sh.Geometry.push(geo)
	sh.Positions.push(p)
	sh.Rotations.push(rot)
	sh.PrevPositions.push(p)
	sh.PrevRotations.push(rot)
	sh.Flags.push(flags)
	return idx, nil
}

func (b *Buffer) mustLive(op string) {
	if !b.created {
		panic(fmt.Sprintf("flex: %s on a buffer that was never created", op))
	}
	if b.destroyed {
		panic(fmt.Sprintf("flex: %s on a destroyed buffer", op))
	}
}

func (b *Buffer) mustMapped(what string) {
	b.mustLive(what)
	if !b.mapped {
		panic(fmt.Sprintf("flex: %s accessed while unmapped", what))
	}
}

func (b *Buffer) mustUnmapped(what string) {
	b.mustLive(what)
	if b.mapped {
		panic(fmt.Sprintf("flex: %s handed to the solver while mapped", what))
	}
}

// Span is an instance's bounds-checked window onto its particle range.
// Index i is local: 0 is the first particle of the range.
type Span struct {
	buf *Buffer
	r   Range
}

// Range returns the underlying particle range.
func (s Span) Range() Range { return s.r }

// Len returns the number of particles in the span.
func (s Span) Len() int { return s.r.Count }

// Index converts a local index into a global particle index.
func (s Span) Index(i int) int {
	if i < 0 || i >= s.r.Count {
		panic(fmt.Sprintf("flex: local particle %d outside instance range of %d", i, s.r.Count))
	}
	return s.r.Start + i
}

// Position returns the position and inverse mass of local particle i.
func (s Span) Position(i int) rl.Vector4 { return s.buf.Positions.At(s.Index(i)) }

// SetPosition writes the position and inverse mass of local particle i.
func (s Span) SetPosition(i int, p rl.Vector4) { s.buf.Positions.Set(s.Index(i), p) }

func (s Span) Velocity(i int) rl.Vector3 { return s.buf.Velocities.At(s.Index(i)) }

func (s Span) SetVelocity(i int, v rl.Vector3) { s.buf.Velocities.Set(s.Index(i), v) }

func (s Span) Phase(i int) int32 { return s.buf.Phases.At(s.Index(i)) }

func (s Span) SetPhase(i int, phase int32) { s.buf.Phases.Set(s.Index(i), phase) }

func (s Span) RestPosition(i int) rl.Vector4 { return s.buf.RestPositions.At(s.Index(i)) }

func (s Span) SetRestPosition(i int, p rl.Vector4) { s.buf.RestPositions.Set(s.Index(i), p) }
