package math

import "github.com/chewxy/math32"

// float32Epsilon is the gap between 1 and the next representable float32.
const float32Epsilon = 1.1920929e-07

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
// Splat files order them scalar-first; use QuatFromWXYZ and WXYZ at that boundary.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromWXYZ builds a quaternion from scalar-first components.
func QuatFromWXYZ(w, x, y, z float32) Quat {
	return Quat{X: x, Y: y, Z: z, W: w}
}

// WXYZ returns the components in scalar-first order.
func (q Quat) WXYZ() [4]float32 {
	return [4]float32{q.W, q.X, q.Y, q.Z}
}

// XYZW returns the components in scalar-last order (glTF node order).
func (q Quat) XYZW() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sincos(angle / 2)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: c,
	}
}

// Norm returns the Euclidean length of the quaternion.
func (q Quat) Norm() float32 {
	return math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns a normalized quaternion.
// Degenerate quaternions collapse to identity.
func (q Quat) Normalize() Quat {
	length := q.Norm()
	if length < 0.0001 {
		return QuatIdentity()
	}
	return q.Scale(1 / length)
}

// NormalizeEps divides by norm+eps. Unlike Normalize it never substitutes identity,
// so a zero quaternion stays zero.
func (q Quat) NormalizeEps(eps float32) Quat {
	return q.Scale(1 / (q.Norm() + eps))
}

// Scale multiplies every component by s.
func (q Quat) Scale(s float32) Quat {
	return Quat{X: q.X * s, Y: q.Y * s, Z: q.Z * s, W: q.W * s}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Mul multiplies two quaternions (Hamilton product, q applied after other).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// ToEuler converts the quaternion to XYZ Euler angles in radians.
// Of the two equivalent decompositions the one with the smaller
// absolute angle sum is returned.
func (q Quat) ToEuler() Vec3 {
	q = q.Normalize()

	// Column-major rotation matrix, m[col][row].
	var m [3][3]float32
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z
	m[0][0] = 1 - 2*(yy+zz)
	m[0][1] = 2 * (xy + wz)
	m[0][2] = 2 * (xz - wy)
	m[1][0] = 2 * (xy - wz)
	m[1][1] = 1 - 2*(xx+zz)
	m[1][2] = 2 * (yz + wx)
	m[2][0] = 2 * (xz + wy)
	m[2][1] = 2 * (yz - wx)
	m[2][2] = 1 - 2*(xx+yy)

	cy := math32.Hypot(m[0][0], m[0][1])
	if cy <= 16*float32Epsilon {
		return Vec3{
			X: math32.Atan2(-m[2][1], m[1][1]),
			Y: math32.Atan2(-m[0][2], cy),
			Z: 0,
		}
	}

	e1 := Vec3{
		X: math32.Atan2(m[1][2], m[2][2]),
		Y: math32.Atan2(-m[0][2], cy),
		Z: math32.Atan2(m[0][1], m[0][0]),
	}
	e2 := Vec3{
		X: math32.Atan2(-m[1][2], -m[2][2]),
		Y: math32.Atan2(-m[0][2], -cy),
		Z: math32.Atan2(-m[0][1], -m[0][0]),
	}
	if absSum(e2) < absSum(e1) {
		return e2
	}
	return e1
}

func absSum(v Vec3) float32 {
	return math32.Abs(v.X) + math32.Abs(v.Y) + math32.Abs(v.Z)
}
