package math

// FaceNormal returns the unit normal of the triangle (v0, v1, v2) using the
// counter-clockwise winding rule. Degenerate triangles yield the zero vector.
func FaceNormal(v0, v1, v2 Vec3) Vec3 {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	return edge1.Cross(edge2).Normalized()
}

// GeometryGenerateNormals assigns a face normal to every vertex of each
// triangle in positions (three consecutive points per triangle). The
// returned slice has the same length as positions.
func GeometryGenerateNormals(positions []Vec3) []Vec3 {
	normals := make([]Vec3, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		// NOTE: This just generates a face normal. Smoothing out should be done in a separate pass if desired.
		n := FaceNormal(positions[i], positions[i+1], positions[i+2])
		normals[i] = n
		normals[i+1] = n
		normals[i+2] = n
	}
	return normals
}
