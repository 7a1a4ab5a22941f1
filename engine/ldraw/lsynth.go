package ldraw

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
	"github.com/spaghettifunk/bricklayer/engine/synth"
)

// TranslucentAlpha scales the alpha of generated segments while a group is
// shown translucent.
const TranslucentAlpha = 0.25

// LSynth is a synthesized group: "0 SYNTH BEGIN <type> <colour>" followed
// by constraint parts and closed by "0 SYNTH END". Its children are the
// constraints; the generated segment parts are derived from them and are
// never written out.
type LSynth struct {
	containerBase
	lsynthType string
	color      ColorCode
	hidden     bool

	synthesized []*Part
	stale       bool
	err         error
	translucent bool
}

func NewLSynth(lsynthType string, color ColorCode) *LSynth {
	l := &LSynth{lsynthType: lsynthType, color: color, stale: true}
	l.containerBase = newContainerBase(l)
	return l
}

func (l *LSynth) Kind() Kind { return KindLSynth }

func (l *LSynth) LsynthType() string { return l.lsynthType }

func (l *LSynth) SetLsynthType(lsynthType string) {
	l.lsynthType = lsynthType
	invalidateFrom(l)
}

// LsynthClass looks the type up in the synthesis class table.
func (l *LSynth) LsynthClass() (*synth.Class, error) {
	return synth.Classes().Lookup(l.lsynthType)
}

func (l *LSynth) ColorCode() ColorCode { return l.color }

func (l *LSynth) SetColorCode(c ColorCode) {
	l.color = c
	invalidateFrom(l)
}

func (l *LSynth) EffectiveColor(parent ColorCode) ColorCode {
	return EffectiveColor(l.color, parent)
}

func (l *LSynth) IsHidden() bool { return l.hidden }

func (l *LSynth) SetHidden(flag bool) {
	if l.hidden == flag {
		return
	}
	l.hidden = flag
	// Visibility does not change the synthesized path, only the boxes above.
	l.boxValid, l.visibleValid = false, false
	invalidateFrom(l.enclosing)
}

// Constraints are the parts among the children, in path order.
func (l *LSynth) Constraints() []*Part {
	parts := make([]*Part, 0, len(l.children))
	for _, d := range l.children {
		if p, ok := d.(*Part); ok {
			parts = append(parts, p)
		}
	}
	return parts
}

func (l *LSynth) SynthesizedParts() []*Part { return l.synthesized }

// IsStale reports whether the constraints, type or colour changed since the
// last Synthesize.
func (l *LSynth) IsStale() bool { return l.stale }

// SynthesisError is the reason the last Synthesize produced nothing, or nil.
func (l *LSynth) SynthesisError() error { return l.err }

// Position is the origin of the first constraint.
func (l *LSynth) Position() math.Vec3 {
	if cs := l.Constraints(); len(cs) > 0 {
		return cs[0].Position()
	}
	return math.Vec3{}
}

// MoveBy moves every constraint. The group has no placement of its own in
// LDraw, so its constraints are what moves.
func (l *LSynth) MoveBy(delta math.Vec3) {
	for _, p := range l.Constraints() {
		p.MoveBy(delta)
	}
}

// TransformComponents describes the placement of the first constraint.
func (l *LSynth) TransformComponents() math.TransformComponents {
	if cs := l.Constraints(); len(cs) > 0 {
		if tc, ok := cs[0].TransformComponents(); ok {
			return tc
		}
	}
	return math.NewTransformComponentsIdentity()
}

// ColorSynthesizedPartsTranslucent toggles a display overlay that scales
// the alpha of the generated segments by TranslucentAlpha. It applies to
// segments generated later too, and is never written out.
func (l *LSynth) ColorSynthesizedPartsTranslucent(flag bool) {
	l.translucent = flag
}

func (l *LSynth) IsTranslucent() bool { return l.translucent }

// Synthesize rebuilds the generated segments from the constraints. Fewer
// than two constraints give no segments and no error. An unknown type
// leaves the group unsynthesized and returns ErrUnsupportedSynthesisClass,
// which SynthesisError keeps until the next run.
func (l *LSynth) Synthesize() error {
	l.dropSynthesized()
	l.err = nil
	l.stale = false
	l.boxValid, l.visibleValid = false, false
	invalidateFrom(l.enclosing)

	class, err := l.LsynthClass()
	if err != nil {
		l.err = err
		return err
	}

	constraints := l.Constraints()
	transforms := make([]math.Mat4, len(constraints))
	for i, p := range constraints {
		transforms[i] = p.Transform()
	}
	result := class.Generate(transforms)
	if !class.WithinTolerance(result) {
		core.LogWarn("%s: segment pitch %.3f is outside the tolerance of %.3f", class.Name, result.Pitch, class.Tolerance)
	}

	l.synthesized = make([]*Part, 0, len(result.Segments))
	for _, m := range result.Segments {
		p := NewPart(class.Segment, ColorCurrent, m)
		p.enclosing = l
		p.generated = true
		l.synthesized = append(l.synthesized, p)
	}
	return nil
}

// dropSynthesized detaches the previous segments from their models and
// from the group.
func (l *LSynth) dropSynthesized() {
	for _, p := range l.synthesized {
		p.setModel(nil)
		p.enclosing = nil
	}
	l.synthesized = nil
}

func (l *LSynth) BoundingBox3() math.Box3 {
	box := l.containerBase.BoundingBox3()
	for _, p := range l.synthesized {
		box = box.Union(p.BoundingBox3())
	}
	return box
}

func (l *LSynth) VisibleBoundingBox3() math.Box3 {
	if l.hidden {
		return math.NewBox3Empty()
	}
	box := l.containerBase.VisibleBoundingBox3()
	for _, p := range l.synthesized {
		box = box.Union(p.VisibleBoundingBox3())
	}
	return box
}

func (l *LSynth) Write() string {
	lines := []string{fmt.Sprintf("0 SYNTH BEGIN %s %s", l.lsynthType, l.color)}
	lines = append(lines, l.writeChildren()...)
	lines = append(lines, "0 SYNTH END")
	return strings.Join(lines, "\n")
}

func (l *LSynth) vertexCount() int {
	if l.hidden {
		return 0
	}
	n := l.containerBase.vertexCount()
	for _, p := range l.synthesized {
		n += p.vertexCount()
	}
	return n
}

func (l *LSynth) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex {
	if l.hidden {
		return buf
	}
	inner := ctx
	inner.color = l.EffectiveColor(ctx.color)
	buf = l.containerBase.writeVertices(buf, inner)
	if l.translucent {
		inner.alpha *= TranslucentAlpha
	}
	for _, p := range l.synthesized {
		buf = p.writeVertices(buf, inner)
	}
	return buf
}

// IsUnsupportedClass reports whether err came from an unknown synthesis type.
func IsUnsupportedClass(err error) bool {
	return errors.Is(err, core.ErrUnsupportedSynthesisClass)
}
