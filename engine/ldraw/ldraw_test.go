package ldraw

import (
	"testing"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-4

func v(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

func at(x, y, z float32) math.Mat4 { return math.NewMat4Translation(v(x, y, z)) }

// unitModel is a one-LDU square in the XZ plane with one edge line:
// 6 + 2 vertices.
func unitModel() *Model {
	m := NewModel("unit.dat")
	s := NewStep()
	m.AddDirective(s)
	s.AddDirective(NewComment("Unit square"))
	s.AddDirective(NewQuadrilateral(ColorCurrent, v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1)))
	s.AddDirective(NewLine(ColorEdge, v(0, 0, 0), v(1, 0, 0)))
	return m
}

func resolvedPart(m *Model, color ColorCode, transform math.Mat4) *Part {
	p := NewPart(m.Name(), color, transform)
	if err := p.SetModel(m); err != nil {
		panic(err)
	}
	return p
}

// document builds File > Model > Step holding the given directives.
func document(ds ...Directive) (*File, *Step) {
	f := NewFile("doc.ldr")
	m := NewModel("doc.ldr")
	s := NewStep()
	f.AddDirective(m)
	m.AddDirective(s)
	for _, d := range ds {
		s.AddDirective(d)
	}
	return f, s
}

func assertPanicsWith(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, target)
	}()
	fn()
}

func TestClassForLineType(t *testing.T) {
	cases := map[int]Kind{
		0: KindComment,
		1: KindPart,
		2: KindLine,
		3: KindTriangle,
		4: KindQuadrilateral,
		5: KindConditionalLine,
	}
	for lineType, want := range cases {
		got, err := ClassForLineType(lineType)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, lineType := range []int{-1, 6, 7, 42} {
		_, err := ClassForLineType(lineType)
		assert.ErrorIs(t, err, core.ErrUnsupportedLineType)
	}
}

func TestTreeStructure(t *testing.T) {
	a := NewComment("a")
	b := NewComment("b")
	c := NewComment("c")
	f, s := document(a, b, c)

	assert.Equal(t, Container(s), a.Enclosing())
	assert.Equal(t, f, a.EnclosingFile())
	ancestors := a.Ancestors()
	require.Len(t, ancestors, 3)
	assert.Equal(t, Container(f), ancestors[0])
	assert.Equal(t, Container(s), ancestors[2])
	assert.True(t, IsAncestorInList(a, []Container{f}))

	// Re-inserting into the same parent moves.
	s.InsertDirective(a, 3)
	assert.Equal(t, []Directive{b, c, a}, s.SubDirectives())
	s.MoveDirective(2, 0)
	assert.Equal(t, []Directive{a, b, c}, s.SubDirectives())

	// Adding to another parent moves too.
	other := NewStep()
	f.FirstModel().AddDirective(other)
	other.AddDirective(b)
	assert.Equal(t, []Directive{a, c}, s.SubDirectives())
	assert.Equal(t, Container(other), b.Enclosing())

	// Removal clears the back-reference.
	assert.True(t, other.RemoveDirective(b))
	assert.Nil(t, b.Enclosing())
	assert.False(t, other.RemoveDirective(b))
	assert.Equal(t, Directive(c), s.RemoveDirectiveAt(1))
	assert.Nil(t, c.Enclosing())
	assert.Equal(t, -1, s.IndexOfDirective(c))
}

func TestCyclicInsertPanics(t *testing.T) {
	f, s := document()
	m := f.FirstModel()
	assertPanicsWith(t, core.ErrCyclicTree, func() { s.AddDirective(m) })
	assertPanicsWith(t, core.ErrCyclicTree, func() { s.AddDirective(s) })
	assertPanicsWith(t, core.ErrCyclicTree, func() { s.AddDirective(f) })
	// The tree is untouched.
	assert.Empty(t, s.SubDirectives())
	assert.Equal(t, Container(m), s.Enclosing())
}

func TestCyclicReferenceIsRefused(t *testing.T) {
	unit := unitModel()
	self := NewPart("unit.dat", ColorCurrent, at(0, 0, 0))
	unit.LastStep().AddDirective(self)
	assert.ErrorIs(t, self.SetModel(unit), core.ErrCyclicReference)
	assert.False(t, self.IsResolved())

	// A two-model loop: outer contains a part of inner, inner a part of outer.
	outer := NewModel("outer.ldr")
	inner := unitModel()
	outer.LastStep().AddDirective(resolvedPart(inner, ColorCurrent, at(0, 0, 0)))
	back := NewPart("outer.ldr", ColorCurrent, at(0, 0, 0))
	inner.LastStep().AddDirective(back)
	assert.ErrorIs(t, back.SetModel(outer), core.ErrCyclicReference)
}

func TestMovingAPartUnderItsModelPanics(t *testing.T) {
	f := NewFile("crane.mpd")
	top := NewModel("main.ldr")
	sub := unitModel()
	f.AddDirective(top)
	f.AddDirective(sub)

	p := resolvedPart(sub, ColorCurrent, at(0, 0, 0))
	top.LastStep().AddDirective(p)
	assertPanicsWith(t, core.ErrCyclicReference, func() {
		sub.LastStep().AddDirective(p)
	})
	assert.Equal(t, Container(top.LastStep()), p.Enclosing())
	// The part in main plus the geometry of sub itself.
	assert.Equal(t, 16, VertexCount(f))

	// Through another model: mid refers to sub, so a part of mid cannot
	// move into sub either.
	mid := NewModel("mid.ldr")
	f.AddDirective(mid)
	mid.LastStep().AddDirective(resolvedPart(sub, ColorCurrent, at(0, 0, 0)))
	viaMid := resolvedPart(mid, ColorCurrent, at(0, 0, 0))
	top.LastStep().AddDirective(viaMid)
	assertPanicsWith(t, core.ErrCyclicReference, func() {
		sub.LastStep().InsertDirective(viaMid, 0)
	})

	// Unresolved parts and parts of unrelated models move freely.
	sub.LastStep().AddDirective(NewPart("main.ldr", ColorCurrent, at(0, 0, 0)))
	other := resolvedPart(unitModel(), ColorCurrent, at(0, 0, 0))
	sub.LastStep().AddDirective(other)
	assert.Equal(t, Container(sub.LastStep()), other.Enclosing())
}

func TestBoundingBoxes(t *testing.T) {
	unit := unitModel()
	visible := resolvedPart(unit, ColorRed, at(10, 0, 0))
	hidden := resolvedPart(unit, ColorRed, at(0, -5, 0))
	hidden.SetHidden(true)
	tri := NewTriangle(ColorBlue, v(0, 0, 0), v(2, 0, 0), v(0, 3, 0))
	f, _ := document(visible, hidden, tri)

	box := f.BoundingBox3()
	assert.Equal(t, v(0, -5, 0), box.Min)
	assert.Equal(t, v(11, 3, 1), box.Max)

	visibleBox := f.VisibleBoundingBox3()
	assert.Equal(t, v(0, 0, 0), visibleBox.Min)
	assert.Equal(t, v(11, 3, 1), visibleBox.Max)

	// Every container contains the boxes of everything beneath it.
	Walk(f, func(d Directive) bool {
		for _, a := range d.Ancestors() {
			assert.True(t, a.BoundingBox3().ContainsBox(d.BoundingBox3()), "%s escapes %s", d.Kind(), a.Kind())
		}
		return true
	})

	assert.True(t, NewComment("x").BoundingBox3().IsEmpty())
	assert.True(t, NewPart("missing.dat", ColorRed, at(1, 1, 1)).BoundingBox3().IsEmpty())
}

func TestBoundingBoxFollowsEdits(t *testing.T) {
	unit := unitModel()
	p := resolvedPart(unit, ColorRed, at(0, 0, 0))
	f, s := document(p)
	assert.Equal(t, v(1, 0, 1), f.BoundingBox3().Max)

	p.MoveBy(v(5, 0, 0))
	assert.Equal(t, v(6, 0, 1), f.BoundingBox3().Max)

	s.AddDirective(NewLine(ColorEdge, v(0, 0, 0), v(0, 0, 30)))
	assert.Equal(t, v(6, 0, 30), f.BoundingBox3().Max)

	p.SetHidden(true)
	assert.Equal(t, v(0, 0, 30), f.VisibleBoundingBox3().Max)
	assert.Equal(t, v(6, 0, 30), f.BoundingBox3().Max)

	s.RemoveDirectiveAt(1)
	assert.Equal(t, v(6, 0, 1), f.BoundingBox3().Max)
	assert.True(t, f.VisibleBoundingBox3().IsEmpty())
}

func TestBoundingBoxFollowsReferencedModel(t *testing.T) {
	f, diagnostics := ParseString("crane.mpd", `0 FILE main.ldr
1 4 100 0 0 1 0 0 0 1 0 0 0 1 arm.ldr
0 FILE arm.ldr
3 16 0 0 0 1 0 0 0 1 0
`)
	require.Empty(t, diagnostics)
	require.Empty(t, f.ResolveParts(nil))
	main := f.ModelNamed("main.ldr")
	arm := f.ModelNamed("ARM.LDR")
	require.NotNil(t, main)
	require.NotNil(t, arm)
	assert.Equal(t, v(101, 1, 0), main.BoundingBox3().Max)

	// Editing the referenced model reaches the boxes of its users.
	arm.LastStep().AddDirective(NewLine(ColorEdge, v(0, 0, 0), v(0, 0, 50)))
	assert.Equal(t, v(101, 1, 50), main.BoundingBox3().Max)
}

func TestEffectiveColor(t *testing.T) {
	assert.Equal(t, ColorRed, EffectiveColor(ColorRed, ColorBlue))
	assert.Equal(t, ColorRed, EffectiveColor(ColorRed, ColorCurrent))
	assert.Equal(t, ColorBlue, EffectiveColor(ColorCurrent, ColorBlue))
	assert.Equal(t, DefaultColorCode, EffectiveColor(ColorCurrent, ColorCurrent))
	assert.Equal(t, DefaultColorCode, EffectiveColor(ColorCurrent, ColorEdge))
	assert.Equal(t, DirectColor(0x33, 0x33, 0x33), EffectiveColor(ColorEdge, ColorRed))
	assert.Equal(t, DirectColor(0x59, 0x59, 0x59), EffectiveColor(ColorEdge, ColorBlack))

	direct := DirectColor(0x12, 0x34, 0x56)
	assert.Equal(t, direct, EffectiveColor(direct, ColorRed))
	assert.Equal(t, direct, EffectiveColor(ColorCurrent, direct))
}

func TestInheritedColorFollowsTheTree(t *testing.T) {
	unit := unitModel()
	wrapper := NewModel("wrapper.ldr")
	wrapper.LastStep().AddDirective(resolvedPart(unit, ColorCurrent, at(0, 0, 0)))
	outer := resolvedPart(wrapper, ColorGreen, at(0, 0, 0))
	f, _ := document(outer)

	buf := BuildVertexBuffer(f, ColorCurrent)
	require.Len(t, buf, 8)
	green := ColorLibrary().RGBA(ColorGreen)
	for _, vx := range buf[:6] {
		assert.Equal(t, green, vx.Color)
	}

	// The same node resolves differently once its ancestor changes.
	outer.SetColorCode(ColorYellow)
	buf = BuildVertexBuffer(f, ColorCurrent)
	assert.Equal(t, ColorLibrary().RGBA(ColorYellow), buf[0].Color)

	// Nothing above supplies a colour: the default is used.
	outer.SetColorCode(ColorCurrent)
	buf = BuildVertexBuffer(f, ColorCurrent)
	assert.Equal(t, ColorLibrary().RGBA(DefaultColorCode), buf[0].Color)
}

func TestVertexBuffer(t *testing.T) {
	unit := unitModel()
	p := resolvedPart(unit, ColorRed, at(10, 0, 0))
	tri := NewTriangle(ColorBlue, v(0, 0, 0), v(0, 0, 1), v(1, 0, 0))
	f, _ := document(p, tri, NewComment("no geometry"))

	require.Equal(t, 11, VertexCount(f))
	buf := BuildVertexBuffer(f, ColorCurrent)
	require.Len(t, buf, 11)

	red := ColorLibrary().RGBA(ColorRed)
	wantQuad := [][3]float32{{10, 0, 0}, {11, 0, 0}, {11, 0, 1}, {10, 0, 0}, {11, 0, 1}, {10, 0, 1}}
	for i, want := range wantQuad {
		assert.Equal(t, want, buf[i].Position)
		assert.Equal(t, [3]float32{0, -1, 0}, buf[i].Normal)
		assert.Equal(t, red, buf[i].Color)
	}
	edge := ColorLibrary().RGBA(EffectiveColor(ColorEdge, ColorRed))
	assert.Equal(t, edge, buf[6].Color)
	assert.Equal(t, [3]float32{11, 0, 0}, buf[7].Position)

	// Triangle: counter-clockwise seen from +Y.
	assert.Equal(t, [3]float32{0, 1, 0}, buf[8].Normal)
	assert.Equal(t, ColorLibrary().RGBA(ColorBlue), buf[10].Color)

	// The writer hands back the unused tail.
	big := make([]VBOVertex, 15)
	rest := WriteToVertexBuffer(f, big, ColorCurrent)
	assert.Len(t, rest, 4)
}

func TestHiddenNeverWritesVertices(t *testing.T) {
	unit := unitModel()
	inner := NewModel("inner.ldr")
	innerPart := resolvedPart(unit, ColorRed, at(0, 0, 0))
	inner.LastStep().AddDirective(innerPart)
	outer := resolvedPart(inner, ColorBlue, at(0, 0, 0))
	quad := NewQuadrilateral(ColorBlue, v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1))
	f, _ := document(outer, quad)
	assert.Equal(t, 14, VertexCount(f))

	// Hiding a node deep inside a referenced model.
	innerPart.SetHidden(true)
	assert.Equal(t, 6, VertexCount(f))
	assert.Len(t, BuildVertexBuffer(f, ColorCurrent), 6)
	assert.False(t, f.BoundingBox3().IsEmpty())

	innerPart.SetHidden(false)
	outer.SetHidden(true)
	quad.SetHidden(true)
	assert.Zero(t, VertexCount(f))
	assert.Empty(t, BuildVertexBuffer(f, ColorCurrent))
	assert.True(t, f.VisibleBoundingBox3().IsEmpty())
	// Hidden elements still count structurally.
	assert.Equal(t, v(1, 0, 1), f.BoundingBox3().Max)
}

func TestVertexCountMatchesWrite(t *testing.T) {
	unit := unitModel()
	var ds []Directive
	for i := 0; i < 5; i++ {
		p := resolvedPart(unit, ColorCode(i), at(float32(i), 0, 0))
		p.SetHidden(i%2 == 1)
		ds = append(ds, p)
	}
	ds = append(ds,
		NewConditionalLine(ColorEdge, v(0, 0, 0), v(1, 0, 0), v(0, 1, 0), v(0, -1, 0)),
		NewLine(ColorEdge, v(0, 0, 0), v(0, 1, 0)),
		NewPart("unresolved.dat", ColorRed, at(0, 0, 0)),
	)
	f, _ := document(ds...)

	n := VertexCount(f)
	assert.Equal(t, 3*8+2+2, n)
	buf := make([]VBOVertex, n)
	assert.Empty(t, WriteToVertexBuffer(f, buf, ColorCurrent))
}

func TestShortBufferPanics(t *testing.T) {
	f, _ := document(NewTriangle(ColorBlue, v(0, 0, 0), v(0, 0, 1), v(1, 0, 0)))
	assertPanicsWith(t, core.ErrVertexCountMismatch, func() {
		WriteToVertexBuffer(f, make([]VBOVertex, 2), ColorCurrent)
	})
}

func TestProjectedBoundingBox(t *testing.T) {
	p := resolvedPart(unitModel(), ColorRed, at(0, 0, 0))
	id := math.NewMat4Identity()
	box, err := ProjectedBoundingBox(p, id, id, math.Viewport{0, 0, 100, 100})
	require.NoError(t, err)
	assert.True(t, box.Min.Compare(v(50, 50, 0.5), tolerance))
	assert.True(t, box.Max.Compare(v(100, 50, 1), tolerance))
}

func TestMoveAndSnap(t *testing.T) {
	tri := NewTriangle(ColorBlue, v(0, 0, 0), v(0, 0, 1), v(1, 0, 0))
	tri.MoveBy(v(1, 2, 3))
	assert.Equal(t, v(1, 2, 3), tri.Position())
	assert.Equal(t, v(2, 2, 3), tri.Vertex(2))

	p := NewPart("3001.dat", ColorRed, math.NewMat4EulerY(0.5).Mul(at(4, 5, 6)))
	p.MoveBy(DisplacementForNudge(v(0, 0, -1), GridSpacingForMode(GridCoarse)))
	assert.True(t, p.Position().Compare(v(4, 5, -14), tolerance))
	// Rotation is untouched by a move.
	assert.True(t, p.Transform().AxisX().Compare(math.NewMat4EulerY(0.5).AxisX(), tolerance))

	snapped := PositionSnappedToGrid(v(13, -7, 26), GridSpacingForMode(GridMedium))
	assert.Equal(t, v(10, -10, 30), snapped)
	assert.Equal(t, snapped, PositionSnappedToGrid(snapped, GridSpacingForMode(GridMedium)))
}

func TestSelectionAndIDs(t *testing.T) {
	a := NewComment("a")
	b := NewComment("b")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, core.NilID, a.ID())
	assert.False(t, a.IsSelected())
	a.SetSelected(true)
	assert.True(t, a.IsSelected())
}
