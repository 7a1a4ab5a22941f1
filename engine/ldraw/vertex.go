package ldraw

import (
	"fmt"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// VBOVertex is one record of the flat vertex buffer handed to the GPU.
type VBOVertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]float32
}

// lineNormal is written for line primitives, which are not lit. It points
// up in LDraw space, where -Y is up.
var lineNormal = math.Vec3{X: 0, Y: -1, Z: 0}

// drawContext carries what a directive inherits from the walk above it.
type drawContext struct {
	transform math.Mat4
	color     ColorCode
	alpha     float32
}

func rootContext(parentColor ColorCode) drawContext {
	return drawContext{transform: math.NewMat4Identity(), color: parentColor, alpha: 1}
}

func (ctx drawContext) rgba(c ColorCode) [4]float32 {
	out := ColorLibrary().RGBA(c)
	out[3] *= ctx.alpha
	return out
}

func putVertex(buf []VBOVertex, p, n math.Vec3, rgba [4]float32) []VBOVertex {
	if len(buf) == 0 {
		panic(fmt.Errorf("%w: buffer exhausted", core.ErrVertexCountMismatch))
	}
	buf[0] = VBOVertex{
		Position: [3]float32{p.X, p.Y, p.Z},
		Normal:   [3]float32{n.X, n.Y, n.Z},
		Color:    rgba,
	}
	return buf[1:]
}

// putTriangles writes consecutive triangles of positions already in the
// output space, each with its face normal.
func putTriangles(buf []VBOVertex, positions []math.Vec3, rgba [4]float32) []VBOVertex {
	normals := math.GeometryGenerateNormals(positions)
	for i, p := range positions {
		buf = putVertex(buf, p, normals[i], rgba)
	}
	return buf
}

// VertexCount returns how many vertices WriteToVertexBuffer writes for d.
func VertexCount(d Directive) int {
	return d.vertexCount()
}

// WriteToVertexBuffer writes the visible geometry of d into buf and
// returns the unwritten remainder. Colours are written resolved: parentColor
// stands in for ColorCurrent at the top of the walk. buf must hold at
// least VertexCount(d) records.
func WriteToVertexBuffer(d Directive, buf []VBOVertex, parentColor ColorCode) []VBOVertex {
	return d.writeVertices(buf, rootContext(parentColor))
}

// BuildVertexBuffer counts, allocates and writes the buffer for d. A write
// that does not land exactly on the counted size means the tree changed
// under the walk or the count and write logic disagree; it panics with
// ErrVertexCountMismatch.
func BuildVertexBuffer(d Directive, parentColor ColorCode) []VBOVertex {
	n := VertexCount(d)
	buf := make([]VBOVertex, n)
	rest := WriteToVertexBuffer(d, buf, parentColor)
	if len(rest) != 0 {
		panic(fmt.Errorf("%w: counted %d, wrote %d", core.ErrVertexCountMismatch, n, n-len(rest)))
	}
	return buf
}
