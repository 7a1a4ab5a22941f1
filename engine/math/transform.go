package math

// NewTransformComponentsIdentity returns components that compose to the
// identity matrix.
func NewTransformComponentsIdentity() TransformComponents {
	return TransformComponents{Scale: NewVec3One()}
}

// Compose rebuilds the affine matrix described by the components.
// The upper 3x3 block is K*R where K holds scale and shear (lower
// triangular) and R = Rx*Ry*Rz.
func (tc TransformComponents) Compose() Mat4 {
	r := NewMat4EulerXYZ(tc.Rotate.X, tc.Rotate.Y, tc.Rotate.Z)
	r0, r1, r2 := r.AxisX(), r.AxisY(), r.AxisZ()

	row0 := r0.MulScalar(tc.Scale.X)
	row1 := r1.Add(r0.MulScalar(tc.ShearXY)).MulScalar(tc.Scale.Y)
	row2 := r2.Add(r0.MulScalar(tc.ShearXZ)).Add(r1.MulScalar(tc.ShearYZ)).MulScalar(tc.Scale.Z)

	out := NewMat4Identity()
	out.Data[0], out.Data[1], out.Data[2] = row0.X, row0.Y, row0.Z
	out.Data[4], out.Data[5], out.Data[6] = row1.X, row1.Y, row1.Z
	out.Data[8], out.Data[9], out.Data[10] = row2.X, row2.Y, row2.Z
	out.Data[12], out.Data[13], out.Data[14] = tc.Translate.X, tc.Translate.Y, tc.Translate.Z
	return out
}

// orthonormalize runs Gram-Schmidt over the three axis rows of mt. The
// returned components carry translation, scale and shear; rows is the
// remaining pure rotation.
func (mt Mat4) orthonormalize() (tc TransformComponents, rows [3]Vec3, ok bool) {
	tc.Translate = mt.Translation()

	row0, row1, row2 := mt.AxisX(), mt.AxisY(), mt.AxisZ()

	tc.Scale.X = row0.Length()
	if tc.Scale.X == 0 {
		return tc, rows, false
	}
	row0 = row0.MulScalar(1 / tc.Scale.X)

	tc.ShearXY = row0.Dot(row1)
	row1 = row1.Sub(row0.MulScalar(tc.ShearXY))

	tc.Scale.Y = row1.Length()
	if tc.Scale.Y == 0 {
		return tc, rows, false
	}
	row1 = row1.MulScalar(1 / tc.Scale.Y)
	tc.ShearXY /= tc.Scale.Y

	tc.ShearXZ = row0.Dot(row2)
	row2 = row2.Sub(row0.MulScalar(tc.ShearXZ))
	tc.ShearYZ = row1.Dot(row2)
	row2 = row2.Sub(row1.MulScalar(tc.ShearYZ))

	tc.Scale.Z = row2.Length()
	if tc.Scale.Z == 0 {
		return tc, rows, false
	}
	row2 = row2.MulScalar(1 / tc.Scale.Z)
	tc.ShearXZ /= tc.Scale.Z
	tc.ShearYZ /= tc.Scale.Z

	if row0.Dot(row1.Cross(row2)) < 0 {
		tc.Scale = tc.Scale.MulScalar(-1)
		row0 = row0.MulScalar(-1)
		row1 = row1.MulScalar(-1)
		row2 = row2.MulScalar(-1)
	}
	return tc, [3]Vec3{row0, row1, row2}, true
}

// Decompose splits an affine matrix into translation, rotation, scale and
// shear. It returns false for a singular matrix (a zero-length axis), in
// which case the components are undefined.
//
// Mirrored matrices come back with all three scales negated.
func (mt Mat4) Decompose() (TransformComponents, bool) {
	tc, rows, ok := mt.orthonormalize()
	if !ok {
		return tc, false
	}
	row0, row1, row2 := rows[0], rows[1], rows[2]

	tc.Rotate.Y = kasin(-row0.Z)
	if kcos(tc.Rotate.Y) > 1e-6 {
		tc.Rotate.X = katan2(row1.Z, row2.Z)
		tc.Rotate.Z = katan2(row0.Y, row0.X)
	} else {
		// Gimbal lock: only X-Z (or X+Z) is defined, so Z is pinned to 0.
		tc.Rotate.X = katan2(-row0.Z*row1.X, row1.Y)
		tc.Rotate.Z = 0
	}
	return tc, true
}

// Orientation returns the rotation left in mt once translation, scale,
// shear and mirroring are removed. Singular matrices have no orientation
// and yield the identity.
func (mt Mat4) Orientation() Quaternion {
	_, rows, ok := mt.orthonormalize()
	if !ok {
		return NewQuatIdentity()
	}
	r := NewMat4Identity()
	r.Data[0], r.Data[1], r.Data[2] = rows[0].X, rows[0].Y, rows[0].Z
	r.Data[4], r.Data[5], r.Data[6] = rows[1].X, rows[1].Y, rows[1].Z
	r.Data[8], r.Data[9], r.Data[10] = rows[2].X, rows[2].Y, rows[2].Z
	return NewQuatFromMat4(r)
}
