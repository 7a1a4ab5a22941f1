package ldraw

import (
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// Drawable is a directive that occupies screen space: it has a colour, can
// be hidden and can be moved.
type Drawable interface {
	Directive
	Colorable

	IsHidden() bool
	SetHidden(flag bool)

	// EffectiveColor resolves the colour against the one inherited from the
	// parent. It is evaluated on every call and never cached.
	EffectiveColor(parent ColorCode) ColorCode

	// Position is the anchor used for nudging and snapping.
	Position() math.Vec3
	// MoveBy translates the directive's own placement. Children ride along.
	MoveBy(delta math.Vec3)
}

type drawableBase struct {
	directiveBase
	color  ColorCode
	hidden bool
}

func newDrawableBase(color ColorCode) drawableBase {
	return drawableBase{directiveBase: newDirectiveBase(), color: color}
}

func (d *drawableBase) ColorCode() ColorCode { return d.color }

func (d *drawableBase) SetColorCode(c ColorCode) {
	d.color = c
	invalidateAppearance(d.enclosing)
}

func (d *drawableBase) IsHidden() bool { return d.hidden }

func (d *drawableBase) SetHidden(flag bool) {
	if d.hidden == flag {
		return
	}
	d.hidden = flag
	invalidateAppearance(d.enclosing)
}

// invalidateAppearance drops the boxes cached above a directive whose
// colour or visibility changed. Neither moves a synthesized path, so an
// enclosing group keeps its segments.
func invalidateAppearance(c Container) {
	if l, ok := c.(*LSynth); ok {
		l.boxValid, l.visibleValid = false, false
		invalidateFrom(l.enclosing)
		return
	}
	invalidateFrom(c)
}

func (d *drawableBase) EffectiveColor(parent ColorCode) ColorCode {
	return EffectiveColor(d.color, parent)
}

// ProjectedBoundingBox returns the window-space box of d for marquee
// selection.
func ProjectedBoundingBox(d Directive, modelview, projection math.Mat4, viewport math.Viewport) (math.Box3, error) {
	return math.ProjectBox(d.BoundingBox3(), modelview, projection, viewport)
}

// PositionSnappedToGrid rounds every axis of p to the nearest multiple of
// spacing. Snapping is idempotent.
func PositionSnappedToGrid(p math.Vec3, spacing float32) math.Vec3 {
	return p.Snapped(spacing)
}

// DisplacementForNudge scales a unit nudge direction, typically an axis
// picked by an arrow key, to the grid spacing.
func DisplacementForNudge(nudge math.Vec3, spacing float32) math.Vec3 {
	return nudge.MulScalar(spacing)
}
