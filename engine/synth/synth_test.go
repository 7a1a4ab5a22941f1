package synth

import (
	"testing"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-3

func at(x, y, z float32) math.Mat4 {
	return math.NewMat4Translation(math.Vec3{X: x, Y: y, Z: z})
}

func rigidBand() *Class {
	return &Class{Name: "TEST_BAND", Kind: KindBand, Segment: "link.dat", SegmentLength: 2, Tolerance: 1}
}

func TestBuiltinClasses(t *testing.T) {
	names := Classes().Names()
	assert.Contains(t, names, "PNEUMATIC_HOSE")
	assert.Contains(t, names, "TECHNIC_CHAIN")

	c, err := Classes().Lookup("pneumatic_hose")
	require.NoError(t, err)
	assert.Equal(t, KindHose, c.Kind)
	assert.Equal(t, "LS01.dat", c.Segment)

	chain, err := Classes().Lookup("TECHNIC_CHAIN")
	require.NoError(t, err)
	assert.Equal(t, KindBand, chain.Kind)
	assert.Equal(t, RoundCeil, chain.Rounding)
	assert.True(t, chain.Closed)

	open, err := Classes().Lookup("band")
	require.NoError(t, err)
	assert.Equal(t, KindBand, open.Kind)
	assert.False(t, open.Closed)

	_, err = Classes().Lookup("NOT_A_HOSE")
	assert.ErrorIs(t, err, core.ErrUnsupportedSynthesisClass)
}

func TestTableLoadOverrides(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Load(builtinClasses))
	require.NoError(t, table.Load([]byte(`
[pneumatic_hose]
kind = "hose"
segment = "custom.dat"
segment_length = 3
`)))
	c, err := table.Lookup("PNEUMATIC_HOSE")
	require.NoError(t, err)
	assert.Equal(t, "custom.dat", c.Segment)
	assert.Equal(t, float32(1), c.Tension)
	assert.Equal(t, float32(1.5), c.Tolerance)

	bad := map[string]string{
		"kind":     "[X]\nkind = \"spring\"\nsegment = \"a.dat\"\nsegment_length = 1\n",
		"length":   "[X]\nkind = \"band\"\nsegment = \"a.dat\"\n",
		"segment":  "[X]\nkind = \"band\"\nsegment_length = 1\n",
		"rounding": "[X]\nkind = \"band\"\nsegment = \"a.dat\"\nsegment_length = 1\nrounding = \"floor\"\n",
		"unknown":  "[X]\nkind = \"band\"\nsegment = \"a.dat\"\nsegment_length = 1\ncolour = 4\n",
	}
	for name, data := range bad {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, table.Load([]byte(data)), core.ErrInvalidConfig)
		})
	}
	_, err = table.Lookup("X")
	assert.ErrorIs(t, err, core.ErrUnsupportedSynthesisClass)
}

func TestUnderConstrained(t *testing.T) {
	for _, c := range []*Class{rigidBand(), {Name: "H", Kind: KindHose, Segment: "s.dat", SegmentLength: 2, Tension: 1}} {
		assert.Empty(t, c.Generate(nil).Segments)
		assert.Empty(t, c.Generate([]math.Mat4{at(1, 2, 3)}).Segments)
		// Two coincident constraints span nothing.
		assert.Empty(t, c.Generate([]math.Mat4{at(1, 2, 3), at(1, 2, 3)}).Segments)
	}
}

func TestRigidBandSpan(t *testing.T) {
	shipped, err := Classes().Lookup("BAND")
	require.NoError(t, err)

	for _, c := range []*Class{rigidBand(), shipped} {
		t.Run(c.Name, func(t *testing.T) {
			r := c.Generate([]math.Mat4{at(0, 0, 0), at(10, 0, 0)})

			require.Len(t, r.Segments, 5)
			assert.InDelta(t, 10, r.Length, tolerance)
			assert.InDelta(t, 2, r.Pitch, tolerance)
			assert.True(t, c.WithinTolerance(r))

			for k, m := range r.Segments {
				origin := m.Translation()
				assert.True(t, origin.Compare(math.Vec3{X: float32(2 * k)}, tolerance), "segment %d at %v", k, origin)
				assert.True(t, m.AxisY().Compare(math.Vec3{X: 1}, tolerance), "segment %d axis %v", k, m.AxisY())
				// Rigid segments keep their canonical length.
				assert.InDelta(t, 1, m.AxisY().Length(), tolerance)
			}
			// Contiguous: each segment ends where the next begins.
			last := r.Segments[len(r.Segments)-1]
			end := math.Vec3{Y: c.SegmentLength}.Transform(last)
			assert.True(t, end.Compare(math.Vec3{X: 10}, tolerance))
		})
	}
}

func TestBandRounding(t *testing.T) {
	c := rigidBand()
	constraints := []math.Mat4{at(0, 0, 0), at(0, 0, 9)}

	r := c.Generate(constraints)
	assert.Len(t, r.Segments, 5) // round(4.5) rounds half away from zero
	assert.InDelta(t, 1.8, r.Pitch, tolerance)

	c.Rounding = RoundCeil
	r = c.Generate([]math.Mat4{at(0, 0, 0), at(0, 0, 8.2)})
	assert.Len(t, r.Segments, 5)
	assert.LessOrEqual(t, r.Pitch, c.SegmentLength)
	assert.True(t, c.WithinTolerance(r))
}

func TestClosedBand(t *testing.T) {
	c := rigidBand()
	c.Closed = true
	r := c.Generate([]math.Mat4{at(0, 0, 0), at(10, 0, 0), at(10, 10, 0), at(0, 10, 0)})

	require.Len(t, r.Segments, 20)
	assert.InDelta(t, 40, r.Length, tolerance)
	// The last segment runs down the closing leg towards the first constraint.
	last := r.Segments[19]
	assert.True(t, last.Translation().Compare(math.Vec3{Y: 2}, tolerance))
	assert.True(t, last.AxisY().Compare(math.Vec3{Y: -1}, tolerance))
}

func TestHoseStraight(t *testing.T) {
	c := &Class{Name: "H", Kind: KindHose, Segment: "s.dat", SegmentLength: 2, Tension: 1}
	r := c.Generate([]math.Mat4{at(0, 0, 0), at(0, 20, 0)})

	require.Len(t, r.Segments, 10)
	assert.InDelta(t, 20, r.Length, 0.01)
	for k, m := range r.Segments {
		assert.True(t, m.Translation().Compare(math.Vec3{Y: float32(2 * k)}, 0.01), "segment %d at %v", k, m.Translation())
		assert.True(t, m.AxisY().Compare(math.Vec3{Y: 1}, 0.01))
	}
	assert.True(t, c.WithinTolerance(r))
}

func TestHoseStretchesToReachEnd(t *testing.T) {
	c := &Class{Name: "H", Kind: KindHose, Segment: "s.dat", SegmentLength: 3, Tension: 1}
	r := c.Generate([]math.Mat4{at(0, 0, 0), at(0, 10, 0)})

	// round(10/3) = 3 segments, each stretched from 3 to 10/3.
	require.Len(t, r.Segments, 3)
	last := r.Segments[2]
	end := math.Vec3{Y: c.SegmentLength}.Transform(last)
	assert.True(t, end.Compare(math.Vec3{Y: 10}, 0.01), "hose ends at %v", end)
	assert.InDelta(t, 10.0/9.0, last.AxisY().Length(), 0.01)
}

func TestHoseTwistLimit(t *testing.T) {
	c := &Class{Name: "H", Kind: KindHose, Segment: "s.dat", SegmentLength: 2, Tension: 1}
	twisted := math.NewMat4EulerY(math.K_HALF_PI).Mul(at(0, 20, 0))
	constraints := []math.Mat4{at(0, 0, 0), twisted}

	assert.Len(t, c.Generate(constraints).Segments, 10)

	// 90 degrees of roll at no more than 7 degrees a segment needs 13.
	c.TwistLimit = 7
	r := c.Generate(constraints)
	assert.Len(t, r.Segments, 13)
	assert.InDelta(t, 20, r.Length, 0.01)
}

func TestHoseCurvesAlongConstraintAxes(t *testing.T) {
	c := &Class{Name: "H", Kind: KindHose, Segment: "s.dat", SegmentLength: 1, Tension: 1}
	// Leave upwards (+Y) from the origin, arrive heading +X at (10, 10, 0).
	arrive := math.NewMat4EulerZ(-math.K_HALF_PI).Mul(at(10, 10, 0))
	r := c.Generate([]math.Mat4{at(0, 0, 0), arrive})

	require.NotEmpty(t, r.Segments)
	assert.Greater(t, r.Length, float32(10*1.4142))
	first := r.Segments[0].AxisY().Normalized()
	last := r.Segments[len(r.Segments)-1].AxisY().Normalized()
	assert.Greater(t, first.Y, float32(0.9))
	assert.Greater(t, last.X, float32(0.9))
}

func TestGenerateIsDeterministic(t *testing.T) {
	c, err := Classes().Lookup("PNEUMATIC_HOSE")
	require.NoError(t, err)
	constraints := []math.Mat4{
		at(0, 0, 0),
		math.NewMat4EulerXYZ(0.3, 0.2, -0.4).Mul(at(20, -10, 5)),
		math.NewMat4EulerX(1).Mul(at(40, 0, 30)),
	}
	a := c.Generate(constraints)
	b := c.Generate(constraints)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.Segments)
}
