package physics

import rl "github.com/gen2brain/raylib-go/raylib"

// mat3 is a 3x3 matrix stored by columns.
type mat3 [3]rl.Vector3

// addOuter adds the outer product a·bᵀ.
func (m *mat3) addOuter(a, b rl.Vector3) {
	m[0] = rl.Vector3Add(m[0], rl.Vector3Scale(a, b.X))
	m[1] = rl.Vector3Add(m[1], rl.Vector3Scale(a, b.Y))
	m[2] = rl.Vector3Add(m[2], rl.Vector3Scale(a, b.Z))
}

// extractRotation finds the rotation closest to a, starting from q and refining it
// iteratively (Müller et al., "A Robust Method to Extract the Rotational Part of Deformations").
func extractRotation(a mat3, q rl.Quaternion, iterations int) rl.Quaternion {
	for range iterations {
		r := mat3{
			rl.Vector3RotateByQuaternion(rl.NewVector3(1, 0, 0), q),
			rl.Vector3RotateByQuaternion(rl.NewVector3(0, 1, 0), q),
			rl.Vector3RotateByQuaternion(rl.NewVector3(0, 0, 1), q),
		}
		omega := rl.Vector3Add(rl.Vector3CrossProduct(r[0], a[0]),
			rl.Vector3Add(rl.Vector3CrossProduct(r[1], a[1]), rl.Vector3CrossProduct(r[2], a[2])))
		dot := rl.Vector3DotProduct(r[0], a[0]) + rl.Vector3DotProduct(r[1], a[1]) + rl.Vector3DotProduct(r[2], a[2])
		if dot < 0 {
			dot = -dot
		}
		omega = rl.Vector3Scale(omega, 1/(dot+1e-9))
		angle := rl.Vector3Length(omega)
		if angle < 1e-9 {
			break
		}
		q = rl.QuaternionNormalize(rl.QuaternionMultiply(rl.QuaternionFromAxisAngle(rl.Vector3Scale(omega, 1/angle), angle), q))
	}
	return q
}
