package math

import "errors"

// ErrProjectionDegenerate is returned when a point projects to w == 0.
var ErrProjectionDegenerate = errors.New("point projects onto the eye plane")

// Project maps a model-space point to window coordinates the way the
// fixed-function pipeline does. X and Y are pixels with the origin at the
// bottom-left corner of the viewport (no flip); Z is depth in [0, 1].
func Project(point Vec3, modelview, projection Mat4, viewport Viewport) (Vec3, error) {
	clip := point.ToVec4(1).Transform(modelview).Transform(projection)
	if clip.W == 0 {
		return Vec3{}, ErrProjectionDegenerate
	}
	ndc := clip.ToVec3().MulScalar(1 / clip.W)
	return Vec3{
		viewport[0] + viewport[2]*(ndc.X+1)/2,
		viewport[1] + viewport[3]*(ndc.Y+1)/2,
		(ndc.Z + 1) / 2}, nil
}

// ProjectBox projects the eight corners of b and returns their window-space
// bounds. An empty box projects to an empty box.
func ProjectBox(b Box3, modelview, projection Mat4, viewport Viewport) (Box3, error) {
	if b.IsEmpty() {
		return b, nil
	}
	out := NewBox3Empty()
	for _, c := range b.Corners() {
		p, err := Project(c, modelview, projection, viewport)
		if err != nil {
			return NewBox3Empty(), err
		}
		out = out.ExpandByPoint(p)
	}
	return out, nil
}
