package synth

import (
	"github.com/chewxy/math32"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// bandPath is the polyline through the constraint origins. When closed,
// the last leg runs back to the first constraint.
type bandPath struct {
	points []math.Vec3
	rots   []math.Quaternion
	cum    []float32
}

func newBandPath(constraints []math.Mat4, closed bool) bandPath {
	p := bandPath{}
	for _, c := range constraints {
		p.points = append(p.points, c.Translation())
		p.rots = append(p.rots, c.Orientation())
	}
	if closed {
		p.points = append(p.points, p.points[0])
		p.rots = append(p.rots, p.rots[0])
	}
	p.cum = make([]float32, len(p.points))
	for i := 1; i < len(p.points); i++ {
		p.cum[i] = p.cum[i-1] + p.points[i].Distance(p.points[i-1])
	}
	return p
}

func (p bandPath) length() float32 {
	return p.cum[len(p.cum)-1]
}

// at returns the point at arc length s, the direction of the leg holding
// it and the orientation of the constraint the leg starts from.
func (p bandPath) at(s float32) (math.Vec3, math.Vec3, math.Quaternion) {
	leg := 0
	for leg+2 < len(p.cum) && s >= p.cum[leg+1] {
		leg++
	}
	a, b := p.points[leg], p.points[leg+1]
	dir := b.Sub(a).Normalized()
	return a.Add(dir.MulScalar(s - p.cum[leg])), dir, p.rots[leg]
}

// segmentCount picks how many rigid segments cover length. Nearest keeps
// every joint within half a segment of its canonical pitch; ceil only ever
// compresses, so a chain never opens a gap.
func (c *Class) segmentCount(length float32) int {
	ratio := length / c.SegmentLength
	var n int
	switch c.Rounding {
	case RoundCeil:
		n = int(math32.Ceil(ratio - 1e-4))
	default:
		n = int(math32.Round(ratio))
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (c *Class) generateBand(constraints []math.Mat4) Result {
	path := newBandPath(constraints, c.Closed)
	length := path.length()
	if length < minPathLength {
		return Result{}
	}

	n := c.segmentCount(length)
	pitch := length / float32(n)
	out := Result{Segments: make([]math.Mat4, 0, n), Length: length, Pitch: pitch}
	for k := 0; k < n; k++ {
		pos, dir, rot := path.at(float32(k) * pitch)
		out.Segments = append(out.Segments, placeSegment(pos, pos.Add(dir), rot, c.SegmentLength, false))
	}
	return out
}

// WithinTolerance reports whether the joints of r stay within the class's
// accepted gap or overlap.
func (c *Class) WithinTolerance(r Result) bool {
	if len(r.Segments) == 0 {
		return true
	}
	if c.Kind == KindHose {
		// Hose segments are stretched to the chord, so they always meet.
		return true
	}
	return math32.Abs(r.Pitch-c.SegmentLength) <= c.Tolerance
}
