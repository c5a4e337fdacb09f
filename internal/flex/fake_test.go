package flex

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// fakeBackend records every solver call and integrates particles ballistically.
type fakeBackend struct {
	err error
	lib *fakeLibrary
}

func (b *fakeBackend) CreateLibrary(sel DeviceSelector) (Library, error) {
	if b.err != nil {
		return nil, b.err
	}
	dev := Device{Name: "fake", Kind: "cpu", Backend: "fake"}
	if sel != nil {
		d, err := sel.SelectDevice()
		if err != nil {
			return nil, err
		}
		dev = d
	}
	b.lib = &fakeLibrary{dev: dev, meshes: map[MeshID]TriangleMeshDesc{}}
	return b.lib, nil
}

type fakeLibrary struct {
	dev      Device
	meshes   map[MeshID]TriangleMeshDesc
	nextMesh MeshID
	solvers  []*fakeSolver
	shutdown bool
}

func (l *fakeLibrary) Device() Device { return l.dev }

func (l *fakeLibrary) CreateTriangleMesh(desc TriangleMeshDesc) (MeshID, error) {
	l.nextMesh++
	l.meshes[l.nextMesh] = desc
	return l.nextMesh, nil
}

func (l *fakeLibrary) DestroyTriangleMesh(id MeshID) { delete(l.meshes, id) }

func (l *fakeLibrary) NewSolver(desc SolverDesc) (Solver, error) {
	s := &fakeSolver{desc: desc}
	l.solvers = append(l.solvers, s)
	return s, nil
}

func (l *fakeLibrary) Shutdown() { l.shutdown = true }

func (l *fakeLibrary) last() *fakeSolver {
	if len(l.solvers) == 0 {
		return nil
	}
	return l.solvers[len(l.solvers)-1]
}

type fakeSolver struct {
	desc       SolverDesc
	calls      []string
	params     Params
	positions  []rl.Vector4
	velocities []rl.Vector3
	numShapes  int
	numRigids  int
	destroyed  bool
}

func (s *fakeSolver) record(name string) { s.calls = append(s.calls, name) }

func (s *fakeSolver) count(name string) int {
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *fakeSolver) has(name string) bool { return slices.Contains(s.calls, name) }

func (s *fakeSolver) SetParams(p *Params) {
	s.record("params")
	s.params = *p
}

func (s *fakeSolver) SetParticles(a *Array[rl.Vector4], n int) {
	s.record("particles")
	s.positions = append(s.positions[:0], a.Device()[:n]...)
}

func (s *fakeSolver) SetVelocities(a *Array[rl.Vector3], n int) {
	s.record("velocities")
	s.velocities = append(s.velocities[:0], a.Device()[:n]...)
}

func (s *fakeSolver) SetPhases(a *Array[int32], n int) {
	s.record("phases")
	_ = a.Device()[:n]
}

func (s *fakeSolver) SetActive(a *Array[int32], n int) {
	s.record("active")
	_ = a.Device()[:n]
}

func (s *fakeSolver) SetRestParticles(a *Array[rl.Vector4], n int) {
	s.record("rest")
	_ = a.Device()[:n]
}

func (s *fakeSolver) SetSprings(sp SpringArrays, n int) {
	s.record("springs")
	_ = sp.Lengths.Device()[:n]
}

func (s *fakeSolver) SetRigids(r RigidArrays, n int) {
	s.record("rigids")
	s.numRigids = n
}

func (s *fakeSolver) SetInflatables(in InflatableArrays, n int) {
	s.record("inflatables")
	_ = in.RestVolumes.Device()[:n]
}

func (s *fakeSolver) SetDynamicTriangles(t TriangleArrays, n int) {
	s.record("triangles")
	_ = t.Normals.Device()[:n]
}

func (s *fakeSolver) SetShapes(sh ShapeArrays, n int) {
	s.record("shapes")
	s.numShapes = n
}

func (s *fakeSolver) Update(dt float32, substeps int) {
	s.record("update")
	g := s.params.GravityVector()
	for i := range s.positions {
		if s.positions[i].W == 0 {
			continue
		}
		s.velocities[i] = rl.Vector3Add(s.velocities[i], rl.Vector3Scale(g, dt))
		s.positions[i].X += s.velocities[i].X * dt
		s.positions[i].Y += s.velocities[i].Y * dt
		s.positions[i].Z += s.velocities[i].Z * dt
	}
}

func (s *fakeSolver) GetParticles(a *Array[rl.Vector4], n int) {
	s.record("get_particles")
	a.Readback(s.positions[:n])
}

func (s *fakeSolver) GetVelocities(a *Array[rl.Vector3], n int) {
	s.record("get_velocities")
	a.Readback(s.velocities[:n])
}

func (s *fakeSolver) GetDynamicTriangles(t TriangleArrays, n int) { s.record("get_triangles") }

func (s *fakeSolver) GetRigidTransforms(r RigidArrays, n int) { s.record("get_rigids") }

func (s *fakeSolver) Destroy() { s.destroyed = true }

// lineInstance places n particles along X starting at origin, optionally with a box
// below them and a rigid over all of them.
type lineInstance struct {
	n      int
	origin rl.Vector3
	box    bool
	rigid  bool
	radius float32

	rng     Range
	shape   *Box
	syncs   int
	lastPos rl.Vector4
	initErr error
	syncErr error
}

func (l *lineInstance) Initialize(buf *Buffer) error {
	if l.initErr != nil {
		return l.initErr
	}
	r, err := buf.AllocParticles(l.n)
	if err != nil {
		return err
	}
	l.rng = r
	span := buf.Span(r)
	for i := range span.Len() {
		span.SetPosition(i, rl.NewVector4(l.origin.X+float32(i)*0.1, l.origin.Y, l.origin.Z, 1))
		span.SetPhase(i, MakePhase(0, PhaseSelfCollide))
	}
	if l.box {
		b, err := NewBox(buf, rl.NewVector3(1, 0.1, 1), rl.NewVector3(0, 0, 0), rl.QuaternionIdentity(), false)
		if err != nil {
			return err
		}
		l.shape = b
	}
	if l.rigid {
		idx := make([]int32, 0, l.n)
		for i := range span.Len() {
			idx = append(idx, int32(span.Index(i)))
		}
		if _, err := buf.AddRigid(idx, 1); err != nil {
			return err
		}
	}
	return nil
}

func (l *lineInstance) PostInitialize(buf *Buffer) error { return nil }

func (l *lineInstance) Sync(buf *Buffer) error {
	l.syncs++
	if l.syncErr != nil {
		return l.syncErr
	}
	if l.rng.Count > 0 {
		l.lastPos = buf.Span(l.rng).Position(0)
	}
	return nil
}

func (l *lineInstance) ContributeParams(p *Params) {
	if l.radius != 0 {
		p.Radius = l.radius
	}
}
