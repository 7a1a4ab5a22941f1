// Package ldraw holds the document model of an LDraw file: a tree of
// directives (comments, parts, primitives, steps, models, synthesized
// groups) together with the bounding-volume, colour and vertex-buffer
// logic shared by everything that is drawn.
package ldraw

import (
	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// Directive is a node of the document tree. The set of implementations is
// closed: only types of this package satisfy it.
type Directive interface {
	ID() core.ID
	Kind() Kind

	// Enclosing returns the container holding this directive, or nil for a
	// root. The reference is weak: a directive never owns its parent.
	Enclosing() Container
	Ancestors() []Container
	EnclosingFile() *File

	IsSelected() bool
	SetSelected(flag bool)

	// BoundingBox3 is the box of everything beneath this directive in its
	// parent's space, hidden elements included.
	BoundingBox3() math.Box3
	// VisibleBoundingBox3 leaves hidden elements out. Camera framing uses it.
	VisibleBoundingBox3() math.Box3

	// Write returns the LDraw text of the directive, one line per record,
	// without a trailing newline.
	Write() string

	base() *directiveBase
	vertexCount() int
	writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex
}

type directiveBase struct {
	id        core.ID
	enclosing Container
	selected  bool
}

func newDirectiveBase() directiveBase {
	return directiveBase{id: core.IdentifierAquireNewID()}
}

func (b *directiveBase) base() *directiveBase { return b }

func (b *directiveBase) ID() core.ID { return b.id }

func (b *directiveBase) Enclosing() Container { return b.enclosing }

// Ancestors lists the enclosing containers, outermost first.
func (b *directiveBase) Ancestors() []Container {
	var out []Container
	for c := b.enclosing; c != nil; c = c.Enclosing() {
		out = append(out, c)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (b *directiveBase) EnclosingFile() *File {
	for c := b.enclosing; c != nil; c = c.Enclosing() {
		if f, ok := c.(*File); ok {
			return f
		}
	}
	return nil
}

func (b *directiveBase) IsSelected() bool { return b.selected }

func (b *directiveBase) SetSelected(flag bool) { b.selected = flag }

// IsAncestorInList reports whether any of containers encloses d.
func IsAncestorInList(d Directive, containers []Container) bool {
	for c := d.Enclosing(); c != nil; c = c.Enclosing() {
		for _, candidate := range containers {
			if c == candidate {
				return true
			}
		}
	}
	return false
}

// Walk visits d and everything beneath it in document order. Generated
// segments of a synthesized group are visited after its constraints. Walk
// does not follow part references. Returning false from fn skips the
// children of the directive just visited.
func Walk(d Directive, fn func(Directive) bool) {
	if !fn(d) {
		return
	}
	if c, ok := d.(Container); ok {
		for _, child := range c.SubDirectives() {
			Walk(child, fn)
		}
	}
	if l, ok := d.(*LSynth); ok {
		for _, p := range l.synthesized {
			Walk(p, fn)
		}
	}
}
