package flex

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// emptyBounds is an inverted box that any point expands.
func emptyBounds() rl.BoundingBox {
	inf := math32.Inf(1)
	return rl.NewBoundingBox(rl.NewVector3(inf, inf, inf), rl.NewVector3(-inf, -inf, -inf))
}

func expandPoint(b *rl.BoundingBox, p rl.Vector3) {
	b.Min = rl.Vector3Min(b.Min, p)
	b.Max = rl.Vector3Max(b.Max, p)
}

// PointBounds returns the bounds of points. ok is false for an empty slice.
func PointBounds(points []rl.Vector3) (box rl.BoundingBox, ok bool) {
	if len(points) == 0 {
		return rl.BoundingBox{}, false
	}
	box = emptyBounds()
	for _, p := range points {
		expandPoint(&box, p)
	}
	return box, true
}

// ParticleBounds returns the bounds of the first n particle positions, ignoring the
// inverse-mass component. ok is false when n is zero.
func ParticleBounds(positions []rl.Vector4, n int) (box rl.BoundingBox, ok bool) {
	n = min(n, len(positions))
	if n <= 0 {
		return rl.BoundingBox{}, false
	}
	box = emptyBounds()
	for _, p := range positions[:n] {
		expandPoint(&box, rl.NewVector3(p.X, p.Y, p.Z))
	}
	return box, true
}

// UnionBounds returns the smallest box containing a and b.
func UnionBounds(a, b rl.BoundingBox) rl.BoundingBox {
	return rl.NewBoundingBox(rl.Vector3Min(a.Min, b.Min), rl.Vector3Max(a.Max, b.Max))
}

// ExpandBounds grows the box by d on every side.
func ExpandBounds(b rl.BoundingBox, d float32) rl.BoundingBox {
	pad := rl.NewVector3(d, d, d)
	return rl.NewBoundingBox(rl.Vector3Subtract(b.Min, pad), rl.Vector3Add(b.Max, pad))
}

// orientedExtents returns the world half extents of a box with local half extents h
// rotated by q.
func orientedExtents(h rl.Vector3, q rl.Quaternion) rl.Vector3 {
	ax := rl.Vector3RotateByQuaternion(rl.NewVector3(h.X, 0, 0), q)
	ay := rl.Vector3RotateByQuaternion(rl.NewVector3(0, h.Y, 0), q)
	az := rl.Vector3RotateByQuaternion(rl.NewVector3(0, 0, h.Z), q)
	return rl.NewVector3(
		math32.Abs(ax.X)+math32.Abs(ay.X)+math32.Abs(az.X),
		math32.Abs(ax.Y)+math32.Abs(ay.Y)+math32.Abs(az.Y),
		math32.Abs(ax.Z)+math32.Abs(ay.Z)+math32.Abs(az.Z),
	)
}

// ShapeBounds returns the world-space bounds of a shape at the given pose.
func ShapeBounds(geo ShapeGeometry, pos rl.Vector3, rot rl.Quaternion) rl.BoundingBox {
	var ext rl.Vector3
	center := pos
	switch geo.Kind {
	case ShapeSphere:
		ext = rl.NewVector3(geo.Radius, geo.Radius, geo.Radius)
	case ShapeCapsule:
		axis := rl.Vector3RotateByQuaternion(rl.NewVector3(geo.HalfHeight, 0, 0), rot)
		ext = rl.NewVector3(
			math32.Abs(axis.X)+geo.Radius,
			math32.Abs(axis.Y)+geo.Radius,
			math32.Abs(axis.Z)+geo.Radius,
		)
	case ShapeBox:
		ext = orientedExtents(geo.HalfExtents, rot)
	case ShapeTriangleMesh:
		lo := rl.Vector3Multiply(geo.MeshBounds.Min, geo.Scale)
		hi := rl.Vector3Multiply(geo.MeshBounds.Max, geo.Scale)
		local := rl.NewBoundingBox(rl.Vector3Min(lo, hi), rl.Vector3Max(lo, hi))
		mid := rl.Vector3Scale(rl.Vector3Add(local.Min, local.Max), 0.5)
		half := rl.Vector3Scale(rl.Vector3Subtract(local.Max, local.Min), 0.5)
		center = rl.Vector3Add(pos, rl.Vector3RotateByQuaternion(mid, rot))
		ext = orientedExtents(half, rot)
	}
	return rl.NewBoundingBox(rl.Vector3Subtract(center, ext), rl.Vector3Add(center, ext))
}

// RigidLocalPositions computes, for every rigid index, the rest position relative to its
// group's centroid. Positions are first shifted by the mean of all numRest rest positions so
// that centroids are formed near the origin even when the scene is far from it; skipping
// that shift loses enough float32 precision to show up as ghost forces in the solver.
// offsets has one more entry than there are groups; out must hold offsets[last] entries.
func RigidLocalPositions(rest []rl.Vector4, numRest int, offsets, indices []int32, out []rl.Vector3) {
	numRest = min(numRest, len(rest))
	if len(offsets) < 2 || numRest == 0 {
		return
	}

	var sx, sy, sz float64
	for _, p := range rest[:numRest] {
		sx += float64(p.X)
		sy += float64(p.Y)
		sz += float64(p.Z)
	}
	inv := 1 / float64(numRest)
	mean := rl.NewVector3(float32(sx*inv), float32(sy*inv), float32(sz*inv))

	shifted := func(i int32) rl.Vector3 {
		p := rest[i]
		return rl.Vector3Subtract(rl.NewVector3(p.X, p.Y, p.Z), mean)
	}

	for r := 0; r+1 < len(offsets); r++ {
		start, end := offsets[r], offsets[r+1]
		if end <= start {
			continue
		}
		var cx, cy, cz float64
		for i := start; i < end; i++ {
			p := shifted(indices[i])
			cx += float64(p.X)
			cy += float64(p.Y)
			cz += float64(p.Z)
		}
		n := float64(end - start)
		com := rl.NewVector3(float32(cx/n), float32(cy/n), float32(cz/n))
		for i := start; i < end; i++ {
			out[i] = rl.Vector3Subtract(shifted(indices[i]), com)
		}
	}
}
