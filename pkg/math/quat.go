package math

import "github.com/chewxy/math32"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sincos(angle / 2)
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: c}
}

// QuatFromMat3 converts a column-major 3x3 rotation matrix to a quaternion.
func QuatFromMat3(m [9]float32) Quat {
	// m[col*3+row]
	m00, m11, m22 := m[0], m[4], m[8]
	trace := m00 + m11 + m22

	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		return Quat{
			X: (m[5] - m[7]) / s,
			Y: (m[6] - m[2]) / s,
			Z: (m[1] - m[3]) / s,
			W: 0.25 * s,
		}
	case m00 > m11 && m00 > m22:
		s := math32.Sqrt(1+m00-m11-m22) * 2
		return Quat{
			X: 0.25 * s,
			Y: (m[3] + m[1]) / s,
			Z: (m[6] + m[2]) / s,
			W: (m[5] - m[7]) / s,
		}
	case m11 > m22:
		s := math32.Sqrt(1+m11-m00-m22) * 2
		return Quat{
			X: (m[3] + m[1]) / s,
			Y: 0.25 * s,
			Z: (m[7] + m[5]) / s,
			W: (m[6] - m[2]) / s,
		}
	default:
		s := math32.Sqrt(1+m22-m00-m11) * 2
		return Quat{
			X: (m[6] + m[2]) / s,
			Y: (m[7] + m[5]) / s,
			Z: 0.25 * s,
			W: (m[1] - m[3]) / s,
		}
	}
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.Dot(q))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}
