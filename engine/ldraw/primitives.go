package ldraw

import (
	"strconv"
	"strings"

	"github.com/spaghettifunk/bricklayer/engine/math"
)

// Comment is a type 0 line that is not a recognised meta-command.
type Comment struct {
	directiveBase
	text string
}

func NewComment(text string) *Comment {
	return &Comment{directiveBase: newDirectiveBase(), text: text}
}

func (c *Comment) Kind() Kind   { return KindComment }
func (c *Comment) Text() string { return c.text }

func (c *Comment) SetText(text string) { c.text = text }

func (c *Comment) BoundingBox3() math.Box3        { return math.NewBox3Empty() }
func (c *Comment) VisibleBoundingBox3() math.Box3 { return math.NewBox3Empty() }

func (c *Comment) Write() string {
	if c.text == "" {
		return "0"
	}
	return "0 " + c.text
}

func (c *Comment) vertexCount() int { return 0 }

func (c *Comment) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex { return buf }

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func writeRecord(lineType int, color ColorCode, points ...math.Vec3) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(lineType))
	sb.WriteByte(' ')
	sb.WriteString(color.String())
	for _, p := range points {
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(p.X))
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(p.Y))
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(p.Z))
	}
	return sb.String()
}

// primitive is the vertex storage shared by lines and polygons. Only the
// first count points are drawn; conditional lines keep their two control
// points after them.
type primitive struct {
	drawableBase
	points []math.Vec3
	drawn  int
}

func newPrimitive(color ColorCode, drawn int, points ...math.Vec3) primitive {
	return primitive{drawableBase: newDrawableBase(color), points: points, drawn: drawn}
}

func (p *primitive) Vertex(i int) math.Vec3 { return p.points[i] }

func (p *primitive) SetVertex(i int, v math.Vec3) {
	p.points[i] = v
	invalidateFrom(p.enclosing)
}

func (p *primitive) Position() math.Vec3 { return p.points[0] }

func (p *primitive) MoveBy(delta math.Vec3) {
	for i := range p.points {
		p.points[i] = p.points[i].Add(delta)
	}
	invalidateFrom(p.enclosing)
}

func (p *primitive) BoundingBox3() math.Box3 {
	return math.NewBox3FromPoints(p.points[:p.drawn]...)
}

func (p *primitive) VisibleBoundingBox3() math.Box3 {
	if p.hidden {
		return math.NewBox3Empty()
	}
	return p.BoundingBox3()
}

func (p *primitive) transformed(ctx drawContext, indices ...int) []math.Vec3 {
	out := make([]math.Vec3, len(indices))
	for i, idx := range indices {
		out[i] = p.points[idx].Transform(ctx.transform)
	}
	return out
}

func (p *primitive) writeLine(buf []VBOVertex, ctx drawContext) []VBOVertex {
	if p.hidden {
		return buf
	}
	rgba := ctx.rgba(p.EffectiveColor(ctx.color))
	for _, v := range p.transformed(ctx, 0, 1) {
		buf = putVertex(buf, v, lineNormal, rgba)
	}
	return buf
}

// Line is a type 2 edge line.
type Line struct{ primitive }

func NewLine(color ColorCode, v0, v1 math.Vec3) *Line {
	return &Line{newPrimitive(color, 2, v0, v1)}
}

func (l *Line) Kind() Kind { return KindLine }

func (l *Line) Write() string { return writeRecord(2, l.color, l.points...) }

func (l *Line) vertexCount() int {
	if l.hidden {
		return 0
	}
	return 2
}

func (l *Line) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex {
	return l.writeLine(buf, ctx)
}

// Triangle is a type 3 filled triangle.
type Triangle struct{ primitive }

func NewTriangle(color ColorCode, v0, v1, v2 math.Vec3) *Triangle {
	return &Triangle{newPrimitive(color, 3, v0, v1, v2)}
}

func (t *Triangle) Kind() Kind { return KindTriangle }

func (t *Triangle) Write() string { return writeRecord(3, t.color, t.points...) }

// Normal is the face normal in the triangle's own space.
func (t *Triangle) Normal() math.Vec3 {
	return math.FaceNormal(t.points[0], t.points[1], t.points[2])
}

func (t *Triangle) vertexCount() int {
	if t.hidden {
		return 0
	}
	return 3
}

func (t *Triangle) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex {
	if t.hidden {
		return buf
	}
	rgba := ctx.rgba(t.EffectiveColor(ctx.color))
	return putTriangles(buf, t.transformed(ctx, 0, 1, 2), rgba)
}

// Quadrilateral is a type 4 filled quad, drawn as two triangles sharing
// the 0-2 diagonal.
type Quadrilateral struct{ primitive }

func NewQuadrilateral(color ColorCode, v0, v1, v2, v3 math.Vec3) *Quadrilateral {
	return &Quadrilateral{newPrimitive(color, 4, v0, v1, v2, v3)}
}

func (q *Quadrilateral) Kind() Kind { return KindQuadrilateral }

func (q *Quadrilateral) Write() string { return writeRecord(4, q.color, q.points...) }

func (q *Quadrilateral) vertexCount() int {
	if q.hidden {
		return 0
	}
	return 6
}

func (q *Quadrilateral) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex {
	if q.hidden {
		return buf
	}
	rgba := ctx.rgba(q.EffectiveColor(ctx.color))
	return putTriangles(buf, q.transformed(ctx, 0, 1, 2, 0, 2, 3), rgba)
}

// ConditionalLine is a type 5 optional line, shown only when its two
// control points fall on the same side of it on screen. The vertex buffer
// carries the line itself; the decision is left to the GPU.
type ConditionalLine struct{ primitive }

func NewConditionalLine(color ColorCode, v0, v1, control0, control1 math.Vec3) *ConditionalLine {
	return &ConditionalLine{newPrimitive(color, 2, v0, v1, control0, control1)}
}

func (c *ConditionalLine) Kind() Kind { return KindConditionalLine }

func (c *ConditionalLine) Write() string { return writeRecord(5, c.color, c.points...) }

func (c *ConditionalLine) vertexCount() int {
	if c.hidden {
		return 0
	}
	return 2
}

func (c *ConditionalLine) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex {
	return c.writeLine(buf, ctx)
}
