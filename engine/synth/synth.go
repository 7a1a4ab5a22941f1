// Package synth generates the segment parts of flexible and rigid
// elements (hoses, cables, chains, bands) from a sparse list of
// constraint transforms.
//
// A segment part is modelled along its local +Y axis, starting at its
// origin and ending at SegmentLength. Every generated transform places
// one such part in the constraints' coordinate space.
package synth

import (
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// Result is the outcome of one synthesis run.
type Result struct {
	// Segments holds one transform per generated segment part, in path order.
	Segments []math.Mat4
	// Length is the length of the path the segments were laid along.
	Length float32
	// Pitch is the path distance between consecutive segment origins.
	Pitch float32
}

// Generate lays segments along the path through constraints. Fewer than
// two constraints, or a path of zero length, produce no segments. The
// output depends only on the inputs.
func (c *Class) Generate(constraints []math.Mat4) Result {
	if len(constraints) < 2 {
		return Result{}
	}
	switch c.Kind {
	case KindBand:
		return c.generateBand(constraints)
	default:
		return c.generateHose(constraints)
	}
}

const minPathLength = 1e-4

// placeSegment returns the transform of a segment part starting at from,
// with its +Y axis pointing at to. rot supplies the roll about that axis.
// A stretched segment is scaled along Y to reach to exactly.
func placeSegment(from, to math.Vec3, rot math.Quaternion, segmentLength float32, stretch bool) math.Mat4 {
	dir := to.Sub(from)
	length := dir.Length()

	r := rot.ToMat4()
	if length > minPathLength {
		r = r.Mul(math.NewQuatRotationBetween(r.AxisY(), dir).ToMat4())
	}
	if stretch && length > minPathLength {
		r = math.NewMat4Scale(math.Vec3{X: 1, Y: length / segmentLength, Z: 1}).Mul(r)
	}
	r.Data[12], r.Data[13], r.Data[14] = from.X, from.Y, from.Z
	return r
}
