package synth

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// Each span between two constraints is flattened into this many chords
// before the curve is measured.
const samplesPerSpan = 32

type curveSample struct {
	pos math.Vec3
	arc float32
	rot math.Quaternion
}

// hermite evaluates the cubic Hermite basis at s in [0, 1].
func hermite(p0, t0, p1, t1 math.Vec3, s float32) math.Vec3 {
	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	return p0.MulScalar(h00).
		Add(t0.MulScalar(h10)).
		Add(p1.MulScalar(h01)).
		Add(t1.MulScalar(h11))
}

// twistBetween is the rotation angle, in radians, taking a onto b.
func twistBetween(a, b math.Quaternion) float32 {
	d := math.Clamp(math32.Abs(a.Normalize().Dot(b.Normalize())), 0, 1)
	return 2 * math32.Acos(d)
}

// sampleCurve flattens the spline through the constraints. The tangent at
// a constraint is its +Y axis scaled by the span's chord and the class
// tension, so a hose leaves and enters every constraint along that axis.
func (c *Class) sampleCurve(constraints []math.Mat4) []curveSample {
	samples := make([]curveSample, 0, (len(constraints)-1)*samplesPerSpan+1)
	var arc float32
	for i := 0; i+1 < len(constraints); i++ {
		a, b := constraints[i], constraints[i+1]
		p0, p1 := a.Translation(), b.Translation()
		chord := p0.Distance(p1)
		t0 := a.AxisY().Normalized().MulScalar(chord * c.Tension)
		t1 := b.AxisY().Normalized().MulScalar(chord * c.Tension)
		q0, q1 := a.Orientation(), b.Orientation()

		start := 1
		if i == 0 {
			start = 0
		}
		for k := start; k <= samplesPerSpan; k++ {
			s := float32(k) / samplesPerSpan
			p := hermite(p0, t0, p1, t1, s)
			if len(samples) > 0 {
				arc += p.Distance(samples[len(samples)-1].pos)
			}
			samples = append(samples, curveSample{pos: p, arc: arc, rot: q0.Slerp(q1, s)})
		}
	}
	return samples
}

// sampleAt interpolates the flattened curve at arc length s.
func sampleAt(samples []curveSample, s float32) curveSample {
	i := sort.Search(len(samples), func(i int) bool { return samples[i].arc >= s })
	if i == 0 {
		return samples[0]
	}
	if i >= len(samples) {
		return samples[len(samples)-1]
	}
	a, b := samples[i-1], samples[i]
	span := b.arc - a.arc
	if span <= 0 {
		return b
	}
	f := (s - a.arc) / span
	return curveSample{pos: a.pos.Lerp(b.pos, f), arc: s, rot: a.rot.Slerp(b.rot, f)}
}

func (c *Class) generateHose(constraints []math.Mat4) Result {
	samples := c.sampleCurve(constraints)
	length := samples[len(samples)-1].arc
	if length < minPathLength {
		return Result{}
	}

	n := int(math32.Round(length / c.SegmentLength))
	if n < 1 {
		n = 1
	}
	if c.TwistLimit > 0 {
		var twist float32
		for i := 0; i+1 < len(constraints); i++ {
			twist += twistBetween(constraints[i].Orientation(), constraints[i+1].Orientation())
		}
		// The small bias keeps an exact multiple of the limit from
		// rounding up to one extra segment.
		if need := int(math32.Ceil(math.RadToDeg(twist)/c.TwistLimit - 1e-3)); need > n {
			n = need
		}
	}

	pitch := length / float32(n)
	out := Result{Segments: make([]math.Mat4, 0, n), Length: length, Pitch: pitch}
	for k := 0; k < n; k++ {
		from := sampleAt(samples, float32(k)*pitch)
		to := samples[len(samples)-1]
		if k+1 < n {
			to = sampleAt(samples, float32(k+1)*pitch)
		}
		roll := from.rot.Slerp(to.rot, 0.5)
		out.Segments = append(out.Segments, placeSegment(from.pos, to.pos, roll, c.SegmentLength, true))
	}
	return out
}
