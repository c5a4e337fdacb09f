package physics

import (
	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type spring struct {
	i, j      int32
	length    float32
	stiffness float32
}

type rigidGroup struct {
	indices     []int32
	local       []rl.Vector3
	stiffness   float32
	rotation    rl.Quaternion
	translation rl.Vector3
}

type inflatable struct {
	first, count int32
	restVolume   float32
	pressure     float32
	stiffness    float32
}

// World is the reference position-based particle solver. It implements flex.Solver;
// every Set call copies out of an unmapped buffer and every Get call stages a readback.
type World struct {
	lib    *Library
	desc   flex.SolverDesc
	params flex.Params

	pos       []rl.Vector4
	vel       []rl.Vector3
	phase     []int32
	rest      []rl.Vector4
	active    []int32
	predicted []rl.Vector4

	springs     []spring
	rigids      []rigidGroup
	tris        []int32
	normals     []rl.Vector3
	inflatables []inflatable
	bodies      []body

	grid  map[cell][]int32
	steps uint64
}

// NewWorld returns an empty solver. lib resolves triangle mesh shapes and may be nil
// when no mesh shapes are used.
func NewWorld(lib *Library, desc flex.SolverDesc) *World {
	if desc.MaxNeighbors <= 0 {
		desc.MaxNeighbors = 96
	}
	return &World{
		lib:    lib,
		desc:   desc,
		params: flex.DefaultParams(),
		grid:   map[cell][]int32{},
	}
}

// Steps returns the number of completed Update calls.
func (w *World) Steps() uint64 { return w.steps }

func (w *World) clampCount(n int) int {
	return max(0, min(n, w.desc.MaxParticles))
}

func (w *World) SetParams(p *flex.Params) {
	w.params = *p
	w.padBodies()
}

// padBodies recomputes each shape's broadphase box from the current collision distance.
func (w *World) padBodies() {
	pad := w.params.CollisionDistance + w.params.ShapeCollisionMargin
	for k := range w.bodies {
		b := &w.bodies[k]
		b.bounds = flex.ExpandBounds(flex.ShapeBounds(b.geo, b.pos, b.rot), pad)
	}
}

func (w *World) SetParticles(a *flex.Array[rl.Vector4], n int) {
	n = w.clampCount(n)
	w.pos = append(w.pos[:0], a.Device()[:n]...)
	w.resize(n)
}

func (w *World) SetVelocities(a *flex.Array[rl.Vector3], n int) {
	n = w.clampCount(n)
	w.vel = append(w.vel[:0], a.Device()[:n]...)
	w.resize(len(w.pos))
}

func (w *World) SetPhases(a *flex.Array[int32], n int) {
	n = w.clampCount(n)
	w.phase = append(w.phase[:0], a.Device()[:n]...)
	w.resize(len(w.pos))
}

func (w *World) SetRestParticles(a *flex.Array[rl.Vector4], n int) {
	n = w.clampCount(n)
	w.rest = append(w.rest[:0], a.Device()[:n]...)
}

// SetActive replaces the list of simulated particles. Indices past the particle count are dropped.
func (w *World) SetActive(a *flex.Array[int32], n int) {
	src := a.Device()[:min(n, a.Len())]
	w.active = w.active[:0]
	for _, i := range src {
		if i >= 0 && int(i) < len(w.pos) {
			w.active = append(w.active, i)
		}
	}
}

func (w *World) SetSprings(s flex.SpringArrays, n int) {
	idx, lengths, stiff := s.Indices.Device(), s.Lengths.Device(), s.Stiffness.Device()
	w.springs = w.springs[:0]
	for k := range min(n, len(lengths)) {
		w.springs = append(w.springs, spring{i: idx[2*k], j: idx[2*k+1], length: lengths[k], stiffness: stiff[k]})
	}
}

func (w *World) SetRigids(r flex.RigidArrays, n int) {
	offsets, indices, local := r.Offsets.Device(), r.Indices.Device(), r.LocalPositions.Device()
	coeff, rots, trans := r.Coefficients.Device(), r.Rotations.Device(), r.Translations.Device()
	w.rigids = w.rigids[:0]
	for g := 0; g < n && g+1 < len(offsets); g++ {
		start, end := offsets[g], offsets[g+1]
		w.rigids = append(w.rigids, rigidGroup{
			indices:     append([]int32(nil), indices[start:end]...),
			local:       append([]rl.Vector3(nil), local[start:end]...),
			stiffness:   coeff[g],
			rotation:    rots[g],
			translation: trans[g],
		})
	}
}

func (w *World) SetInflatables(in flex.InflatableArrays, n int) {
	offs, counts := in.TriOffsets.Device(), in.TriCounts.Device()
	vols, press, stiff := in.RestVolumes.Device(), in.Pressures.Device(), in.Stiffness.Device()
	w.inflatables = w.inflatables[:0]
	for k := range min(n, len(vols)) {
		w.inflatables = append(w.inflatables, inflatable{
			first:      offs[k],
			count:      counts[k],
			restVolume: vols[k],
			pressure:   press[k],
			stiffness:  stiff[k],
		})
	}
}

func (w *World) SetDynamicTriangles(t flex.TriangleArrays, n int) {
	idx := t.Indices.Device()
	n = min(n, len(idx)/3)
	w.tris = append(w.tris[:0], idx[:3*n]...)
	w.normals = append(w.normals[:0], t.Normals.Device()[:n]...)
}

func (w *World) SetShapes(s flex.ShapeArrays, n int) {
	geo, pos, rot := s.Geometry.Device(), s.Positions.Device(), s.Rotations.Device()
	prevPos, prevRot, flags := s.PrevPositions.Device(), s.PrevRotations.Device(), s.Flags.Device()
	w.bodies = w.bodies[:0]
	for k := range min(n, len(geo)) {
		b := body{
			geo:     geo[k],
			pos:     xyz(pos[k]),
			rot:     rot[k],
			prevPos: xyz(prevPos[k]),
			prevRot: prevRot[k],
			flags:   flags[k],
		}
		if b.geo.Kind == flex.ShapeTriangleMesh && w.lib != nil {
			b.mesh = w.lib.mesh(b.geo.Mesh)
		}
		w.bodies = append(w.bodies, b)
	}
	w.padBodies()
}

// Update advances the simulation by dt split into substeps, then refreshes triangle normals.
func (w *World) Update(dt float32, substeps int) {
	w.steps++
	if dt <= 0 || len(w.pos) == 0 {
		return
	}
	substeps = max(substeps, 1)
	h := dt / float32(substeps)
	for range substeps {
		w.substep(h)
	}
	w.updateNormals()
}

func (w *World) GetParticles(a *flex.Array[rl.Vector4], n int) {
	a.Readback(w.pos[:min(n, len(w.pos))])
}

func (w *World) GetVelocities(a *flex.Array[rl.Vector3], n int) {
	a.Readback(w.vel[:min(n, len(w.vel))])
}

func (w *World) GetDynamicTriangles(t flex.TriangleArrays, n int) {
	t.Normals.Readback(w.normals[:min(n, len(w.normals))])
}

func (w *World) GetRigidTransforms(r flex.RigidArrays, n int) {
	n = min(n, len(w.rigids))
	rots := make([]rl.Quaternion, n)
	trans := make([]rl.Vector3, n)
	for g := range n {
		rots[g] = w.rigids[g].rotation
		trans[g] = w.rigids[g].translation
	}
	r.Rotations.Readback(rots)
	r.Translations.Readback(trans)
}

func (w *World) Destroy() {
	w.pos, w.vel, w.phase, w.rest, w.active, w.predicted = nil, nil, nil, nil, nil, nil
	w.springs, w.rigids, w.tris, w.normals, w.inflatables, w.bodies = nil, nil, nil, nil, nil, nil
	clear(w.grid)
}

func (w *World) resize(n int) {
	for len(w.vel) < n {
		w.vel = append(w.vel, rl.Vector3{})
	}
	for len(w.phase) < n {
		w.phase = append(w.phase, 0)
	}
	if cap(w.predicted) < n {
		w.predicted = make([]rl.Vector4, n)
	}
	w.predicted = w.predicted[:n]
}

// substep runs one position-based dynamics step of length h.
func (w *World) substep(h float32) {
	p := &w.params
	g := p.GravityVector()
	copy(w.predicted, w.pos)

	for _, i := range w.active {
		x := w.pos[i]
		if x.W == 0 {
			continue
		}
		v := clampLength(rl.Vector3Add(w.vel[i], rl.Vector3Scale(g, h)), p.MaxSpeed)
		w.predicted[i] = rl.NewVector4(x.X+v.X*h, x.Y+v.Y*h, x.Z+v.Z*h, x.W)
	}

	w.buildGrid()
	for range max(p.NumIterations, 1) {
		w.solveSprings()
		w.solveParticleContacts()
		w.solveRigids()
		w.solveInflatables()
		w.solveBodies()
		w.solvePlanes()
	}

	damp := max(0, 1-p.Damping*h)
	for _, i := range w.active {
		x, q := w.pos[i], w.predicted[i]
		if x.W == 0 {
			continue
		}
		v := rl.Vector3Scale(rl.Vector3Subtract(xyz(q), xyz(x)), damp/h)
		v = clampLength(v, p.MaxSpeed)
		if p.SleepThreshold > 0 && rl.Vector3Length(v) < p.SleepThreshold {
			w.vel[i] = rl.Vector3{}
			continue
		}
		w.vel[i] = v
		w.pos[i] = q
	}
}

func (w *World) relax(c float32) float32 {
	if w.params.RelaxationMode == flex.RelaxationGlobal {
		return c * w.params.RelaxationFactor
	}
	return c
}

// projectDistance moves predicted positions i and j toward separation rest, weighted by
// inverse mass. When onlyCompress is set the constraint only pushes apart.
func (w *World) projectDistance(i, j int32, rest, stiffness float32, onlyCompress bool) {
	a, b := w.predicted[i], w.predicted[j]
	wsum := a.W + b.W
	if wsum == 0 {
		return
	}
	d := rl.Vector3Subtract(xyz(a), xyz(b))
	l := rl.Vector3Length(d)
	if l < epsilon {
		return
	}
	c := l - rest
	if onlyCompress && c >= 0 {
		return
	}
	corr := rl.Vector3Scale(d, w.relax(stiffness*c/(l*wsum)))
	w.predicted[i] = sub4(a, rl.Vector3Scale(corr, a.W))
	w.predicted[j] = add4(b, rl.Vector3Scale(corr, b.W))
}

func (w *World) solveSprings() {
	n := int32(len(w.predicted))
	for _, s := range w.springs {
		if s.i < 0 || s.j < 0 || s.i >= n || s.j >= n {
			continue
		}
		w.projectDistance(s.i, s.j, s.length, s.stiffness, false)
	}
}

// solveRigids projects each rigid group onto its best-fit rigid transform of the
// local positions (shape matching).
func (w *World) solveRigids() {
	for gi := range w.rigids {
		g := &w.rigids[gi]
		if len(g.indices) == 0 {
			continue
		}
		var c rl.Vector3
		for _, idx := range g.indices {
			c = rl.Vector3Add(c, xyz(w.predicted[idx]))
		}
		c = rl.Vector3Scale(c, 1/float32(len(g.indices)))

		var a mat3
		for k, idx := range g.indices {
			a.addOuter(rl.Vector3Subtract(xyz(w.predicted[idx]), c), g.local[k])
		}
		g.rotation = extractRotation(a, g.rotation, 20)
		g.translation = c

		for k, idx := range g.indices {
			q := w.predicted[idx]
			if q.W == 0 {
				continue
			}
			goal := rl.Vector3Add(c, rl.Vector3RotateByQuaternion(g.local[k], g.rotation))
			delta := rl.Vector3Scale(rl.Vector3Subtract(goal, xyz(q)), w.relax(g.stiffness))
			w.predicted[idx] = add4(q, delta)
		}
	}
}

// solveInflatables applies a volume constraint to every closed triangle set.
func (w *World) solveInflatables() {
	if len(w.inflatables) == 0 {
		return
	}
	grads := map[int32]rl.Vector3{}
	for _, in := range w.inflatables {
		clear(grads)
		var vol float32
		for t := in.first; t < in.first+in.count; t++ {
			if int(3*t+2) >= len(w.tris) {
				break
			}
			ia, ib, ic := w.tris[3*t], w.tris[3*t+1], w.tris[3*t+2]
			pa, pb, pc := xyz(w.predicted[ia]), xyz(w.predicted[ib]), xyz(w.predicted[ic])
			vol += rl.Vector3DotProduct(pa, rl.Vector3CrossProduct(pb, pc)) / 6
			grads[ia] = rl.Vector3Add(grads[ia], rl.Vector3Scale(rl.Vector3CrossProduct(pb, pc), 1.0/6))
			grads[ib] = rl.Vector3Add(grads[ib], rl.Vector3Scale(rl.Vector3CrossProduct(pc, pa), 1.0/6))
			grads[ic] = rl.Vector3Add(grads[ic], rl.Vector3Scale(rl.Vector3CrossProduct(pa, pb), 1.0/6))
		}
		c := vol - in.restVolume*in.pressure
		var denom float32
		for i, gr := range grads {
			denom += w.predicted[i].W * rl.Vector3DotProduct(gr, gr)
		}
		if denom < epsilon {
			continue
		}
		lambda := w.relax(-c / denom * in.stiffness)
		for i, gr := range grads {
			q := w.predicted[i]
			w.predicted[i] = add4(q, rl.Vector3Scale(gr, lambda*q.W))
		}
	}
}

// solveBodies pushes particles out of collision shapes to the collision distance.
func (w *World) solveBodies() {
	if len(w.bodies) == 0 {
		return
	}
	p := &w.params
	for _, i := range w.active {
		q := w.predicted[i]
		if q.W == 0 {
			continue
		}
		pt := xyz(q)
		for k := range w.bodies {
			b := &w.bodies[k]
			if !insideBounds(b.bounds, pt) {
				continue
			}
			d, n, ok := b.distance(pt)
			if !ok || d >= p.CollisionDistance {
				continue
			}
			pt = rl.Vector3Add(pt, rl.Vector3Scale(n, p.CollisionDistance-d))
			pt = w.applyFriction(i, pt, n)
		}
		w.predicted[i] = rl.NewVector4(pt.X, pt.Y, pt.Z, q.W)
	}
}

// solvePlanes keeps particles on the inside of every collision plane.
func (w *World) solvePlanes() {
	p := &w.params
	for _, i := range w.active {
		q := w.predicted[i]
		if q.W == 0 {
			continue
		}
		pt := xyz(q)
		for k := range min(p.NumPlanes, flex.MaxPlanes) {
			pl := p.Planes[k]
			n := rl.NewVector3(pl[0], pl[1], pl[2])
			s := rl.Vector3DotProduct(n, pt) + pl[3]
			if s >= p.CollisionDistance {
				continue
			}
			pt = rl.Vector3Add(pt, rl.Vector3Scale(n, p.CollisionDistance-s))
			pt = w.applyFriction(i, pt, n)
		}
		w.predicted[i] = rl.NewVector4(pt.X, pt.Y, pt.Z, q.W)
	}
}

// applyFriction removes part of the tangential displacement of particle i this substep.
func (w *World) applyFriction(i int32, pt, n rl.Vector3) rl.Vector3 {
	f := clamp(w.params.DynamicFriction, 0, 1)
	if f == 0 {
		return pt
	}
	disp := rl.Vector3Subtract(pt, xyz(w.pos[i]))
	tangent := rl.Vector3Subtract(disp, rl.Vector3Scale(n, rl.Vector3DotProduct(disp, n)))
	return rl.Vector3Subtract(pt, rl.Vector3Scale(tangent, f))
}

func (w *World) updateNormals() {
	for t := range w.normals {
		a := xyz(w.pos[w.tris[3*t]])
		b := xyz(w.pos[w.tris[3*t+1]])
		c := xyz(w.pos[w.tris[3*t+2]])
		w.normals[t] = rl.Vector3Normalize(rl.Vector3CrossProduct(rl.Vector3Subtract(b, a), rl.Vector3Subtract(c, a)))
	}
}

func insideBounds(b rl.BoundingBox, p rl.Vector3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func xyz(v rl.Vector4) rl.Vector3 { return rl.NewVector3(v.X, v.Y, v.Z) }

func add4(v rl.Vector4, d rl.Vector3) rl.Vector4 {
	return rl.NewVector4(v.X+d.X, v.Y+d.Y, v.Z+d.Z, v.W)
}

func sub4(v rl.Vector4, d rl.Vector3) rl.Vector4 {
	return rl.NewVector4(v.X-d.X, v.Y-d.Y, v.Z-d.Z, v.W)
}

func clampLength(v rl.Vector3, limit float32) rl.Vector3 {
	l := rl.Vector3Length(v)
	if limit <= 0 || l <= limit || l == 0 {
		return v
	}
	return rl.Vector3Scale(v, limit/l)
}
