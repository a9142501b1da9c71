package math

// Mat4 is a 4x4 matrix in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// FromAffine builds a matrix from twelve values stored as three axis
// columns followed by a translation column. The fourth row is [0 0 0 1].
func FromAffine(v [12]float32) Mat4 {
	return Mat4{
		v[0], v[1], v[2], 0,
		v[3], v[4], v[5], 0,
		v[6], v[7], v[8], 0,
		v[9], v[10], v[11], 1,
	}
}

// Column returns the first three components of column i.
func (m Mat4) Column(i int) Vec3 {
	return Vec3{m[i*4], m[i*4+1], m[i*4+2]}
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint transforms a point by this matrix (assumes w=1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return m.Column(3)
}

// Decompose splits an affine matrix into translation, rotation and scale.
// Scale is the length of each axis column; rotation is taken from the
// axis columns after the scale is divided out.
func (m Mat4) Decompose() (position Vec3, rotation Quat, scale Vec3) {
	position = m.Translation()

	x, y, z := m.Column(0), m.Column(1), m.Column(2)
	scale = Vec3{x.Length(), y.Length(), z.Length()}

	rot := [9]float32{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	}
	if scale.X != 0 {
		rot[0], rot[1], rot[2] = rot[0]/scale.X, rot[1]/scale.X, rot[2]/scale.X
	}
	if scale.Y != 0 {
		rot[3], rot[4], rot[5] = rot[3]/scale.Y, rot[4]/scale.Y, rot[5]/scale.Y
	}
	if scale.Z != 0 {
		rot[6], rot[7], rot[8] = rot[6]/scale.Z, rot[7]/scale.Z, rot[8]/scale.Z
	}

	rotation = QuatFromMat3(rot).Normalize()
	return position, rotation, scale
}
