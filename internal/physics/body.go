package physics

import (
	"flex-engine/internal/flex"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const epsilon = 1e-6

// body is a collision shape as the solver sees it: geometry plus current and previous pose.
// Static bodies keep both poses equal; kinematic bodies move between pushes.
type body struct {
	geo     flex.ShapeGeometry
	pos     rl.Vector3
	rot     rl.Quaternion
	prevPos rl.Vector3
	prevRot rl.Quaternion
	flags   int32
	mesh    *mesh
	bounds  rl.BoundingBox
}

// distance returns the signed distance from p to the body surface and the outward normal
// at the closest point. ok is false when the body has no usable geometry.
func (b *body) distance(p rl.Vector3) (d float32, n rl.Vector3, ok bool) {
	switch b.geo.Kind {
	case flex.ShapeSphere:
		return sphereDistance(p, b.pos, b.geo.Radius)
	case flex.ShapeCapsule:
		local := b.toLocal(p)
		x := clamp(local.X, -b.geo.HalfHeight, b.geo.HalfHeight)
		d, n, ok = sphereDistance(local, rl.NewVector3(x, 0, 0), b.geo.Radius)
		return d, rl.Vector3RotateByQuaternion(n, b.rot), ok
	case flex.ShapeBox:
		d, n = boxDistance(b.toLocal(p), b.geo.HalfExtents)
		return d, rl.Vector3RotateByQuaternion(n, b.rot), true
	case flex.ShapeTriangleMesh:
		if b.mesh == nil {
			return 0, rl.Vector3{}, false
		}
		d, n, ok = meshDistance(b.toLocal(p), b.mesh, b.geo.Scale)
		return d, rl.Vector3RotateByQuaternion(n, b.rot), ok
	}
	return 0, rl.Vector3{}, false
}

// toLocal transforms a world point into the body frame.
func (b *body) toLocal(p rl.Vector3) rl.Vector3 {
	return rl.Vector3RotateByQuaternion(rl.Vector3Subtract(p, b.pos), rl.QuaternionInvert(b.rot))
}

func sphereDistance(p, c rl.Vector3, r float32) (float32, rl.Vector3, bool) {
	d := rl.Vector3Subtract(p, c)
	l := rl.Vector3Length(d)
	if l < epsilon {
		return -r, rl.NewVector3(0, 1, 0), true
	}
	return l - r, rl.Vector3Scale(d, 1/l), true
}

// boxDistance returns the signed distance to an origin-centred box and the face normal.
// Inside the box the normal points out of the face of least penetration.
func boxDistance(p, h rl.Vector3) (float32, rl.Vector3) {
	q := rl.NewVector3(math32.Abs(p.X)-h.X, math32.Abs(p.Y)-h.Y, math32.Abs(p.Z)-h.Z)
	if q.X > 0 || q.Y > 0 || q.Z > 0 {
		closest := rl.NewVector3(clamp(p.X, -h.X, h.X), clamp(p.Y, -h.Y, h.Y), clamp(p.Z, -h.Z, h.Z))
		d := rl.Vector3Subtract(p, closest)
		l := rl.Vector3Length(d)
		return l, rl.Vector3Scale(d, 1/l)
	}
	depth, axis := q.X, 0
	if q.Y > depth {
		depth, axis = q.Y, 1
	}
	if q.Z > depth {
		depth, axis = q.Z, 2
	}
	var n rl.Vector3
	switch axis {
	case 0:
		n.X = sign(p.X)
	case 1:
		n.Y = sign(p.Y)
	default:
		n.Z = sign(p.Z)
	}
	return depth, n
}

// meshDistance treats the mesh as a two-sided shell and returns the unsigned distance
// to the closest triangle.
func meshDistance(p rl.Vector3, m *mesh, scale rl.Vector3) (float32, rl.Vector3, bool) {
	best := math32.Inf(1)
	var bestN rl.Vector3
	for t := 0; t+2 < len(m.indices); t += 3 {
		a := rl.Vector3Multiply(m.positions[m.indices[t]], scale)
		b := rl.Vector3Multiply(m.positions[m.indices[t+1]], scale)
		c := rl.Vector3Multiply(m.positions[m.indices[t+2]], scale)
		cp := closestPointOnTriangle(p, a, b, c)
		d := rl.Vector3Subtract(p, cp)
		l := rl.Vector3Length(d)
		if l >= best {
			continue
		}
		best = l
		if l > epsilon {
			bestN = rl.Vector3Scale(d, 1/l)
		} else {
			bestN = rl.Vector3Normalize(rl.Vector3CrossProduct(rl.Vector3Subtract(b, a), rl.Vector3Subtract(c, a)))
		}
	}
	if math32.IsInf(best, 1) {
		return 0, rl.Vector3{}, false
	}
	return best, bestN, true
}

// closestPointOnTriangle returns the point of triangle abc nearest to p.
func closestPointOnTriangle(p, a, b, c rl.Vector3) rl.Vector3 {
	ab := rl.Vector3Subtract(b, a)
	ac := rl.Vector3Subtract(c, a)
	ap := rl.Vector3Subtract(p, a)
	d1 := rl.Vector3DotProduct(ab, ap)
	d2 := rl.Vector3DotProduct(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := rl.Vector3Subtract(p, b)
	d3 := rl.Vector3DotProduct(ab, bp)
	d4 := rl.Vector3DotProduct(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return rl.Vector3Add(a, rl.Vector3Scale(ab, d1/(d1-d3)))
	}

	cp := rl.Vector3Subtract(p, c)
	d5 := rl.Vector3DotProduct(ab, cp)
	d6 := rl.Vector3DotProduct(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return rl.Vector3Add(a, rl.Vector3Scale(ac, d2/(d2-d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return rl.Vector3Add(b, rl.Vector3Scale(rl.Vector3Subtract(c, b), w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return rl.Vector3Add(a, rl.Vector3Add(rl.Vector3Scale(ab, v), rl.Vector3Scale(ac, w)))
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
