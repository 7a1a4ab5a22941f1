package ldraw

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// Part is a type 1 line: a reference to another model placed by a
// transform. The referenced model is resolved separately and held weakly;
// it usually belongs to the part library or to a sibling in an MPD file.
type Part struct {
	drawableBase
	name      string
	transform math.Mat4
	model     *Model

	// generated marks a segment produced by a synthesized group.
	generated bool
}

func NewPart(name string, color ColorCode, transform math.Mat4) *Part {
	return &Part{drawableBase: newDrawableBase(color), name: name, transform: transform}
}

func (p *Part) Kind() Kind { return KindPart }

// ReferenceName is the file name the part refers to, as written.
func (p *Part) ReferenceName() string { return p.name }

// LookupName is the normalised reference used for catalog lookups.
func (p *Part) LookupName() string {
	return NormalizePartName(p.name)
}

// NormalizePartName lower-cases a reference and uses forward slashes.
func NormalizePartName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
}

// SetReferenceName points the part at another file and drops the resolved
// model.
func (p *Part) SetReferenceName(name string) {
	p.name = name
	p.setModel(nil)
	p.invalidate()
}

// IsGenerated reports whether the part is a segment derived by a
// synthesized group rather than authored.
func (p *Part) IsGenerated() bool { return p.generated }

// invalidate drops the boxes cached above the part. Resolving or moving a
// generated segment must not mark its group stale again.
func (p *Part) invalidate() {
	if l, ok := p.enclosing.(*LSynth); ok && p.generated {
		l.boxValid, l.visibleValid = false, false
		invalidateFrom(l.enclosing)
		return
	}
	invalidateFrom(p.enclosing)
}

func (p *Part) Transform() math.Mat4 { return p.transform }

func (p *Part) SetTransform(m math.Mat4) {
	p.transform = m
	p.invalidate()
}

func (p *Part) TransformComponents() (math.TransformComponents, bool) {
	return p.transform.Decompose()
}

func (p *Part) SetTransformComponents(tc math.TransformComponents) {
	p.SetTransform(tc.Compose())
}

func (p *Part) Position() math.Vec3 { return p.transform.Translation() }

func (p *Part) MoveBy(delta math.Vec3) {
	p.SetTransform(p.transform.Translated(delta))
}

func (p *Part) Model() *Model { return p.model }

func (p *Part) IsResolved() bool { return p.model != nil }

// SetModel resolves the part to m. A model that contains this part, or
// reaches it through its own references, is refused with
// ErrCyclicReference and the part stays unresolved.
func (p *Part) SetModel(m *Model) error {
	if m != nil {
		for _, a := range p.Ancestors() {
			if am, ok := a.(*Model); ok && (am == m || m.references(am, map[*Model]bool{})) {
				p.setModel(nil)
				p.invalidate()
				return fmt.Errorf("%w: %s", core.ErrCyclicReference, p.name)
			}
		}
	}
	p.setModel(m)
	p.invalidate()
	return nil
}

func (p *Part) setModel(m *Model) {
	if p.model != nil {
		delete(p.model.referrers, p)
	}
	p.model = m
	if m != nil {
		m.referrers[p] = struct{}{}
	}
}

func (p *Part) BoundingBox3() math.Box3 {
	if p.model == nil {
		return math.NewBox3Empty()
	}
	return p.model.BoundingBox3().Transform(p.transform)
}

func (p *Part) VisibleBoundingBox3() math.Box3 {
	if p.hidden || p.model == nil {
		return math.NewBox3Empty()
	}
	return p.model.VisibleBoundingBox3().Transform(p.transform)
}

func (p *Part) Write() string {
	f := p.transform.LDrawFields()
	var sb strings.Builder
	sb.WriteString("1 ")
	sb.WriteString(p.color.String())
	for _, v := range f {
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(v))
	}
	sb.WriteByte(' ')
	sb.WriteString(p.name)
	return sb.String()
}

func (p *Part) vertexCount() int {
	if p.hidden || p.model == nil {
		return 0
	}
	return p.model.vertexCount()
}

func (p *Part) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex {
	if p.hidden || p.model == nil {
		return buf
	}
	inner := drawContext{
		transform: math.Compose(p.transform, ctx.transform),
		color:     p.EffectiveColor(ctx.color),
		alpha:     ctx.alpha,
	}
	return p.model.writeVertices(buf, inner)
}
