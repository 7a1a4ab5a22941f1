package ldraw

import (
	"fmt"
	"slices"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// Container is a directive that owns an ordered list of children.
type Container interface {
	Directive
	SubDirectives() []Directive
	AddDirective(d Directive)
	InsertDirective(d Directive, index int)
	RemoveDirective(d Directive) bool
	RemoveDirectiveAt(index int) Directive
	MoveDirective(from, to int)
	IndexOfDirective(d Directive) int

	container() *containerBase
}

// containerBase implements the child list and the cached boxes. Both caches
// follow one rule: whenever a cache is invalid, the caches of every
// ancestor are invalid too.
type containerBase struct {
	directiveBase
	self     Container
	children []Directive

	box          math.Box3
	visibleBox   math.Box3
	boxValid     bool
	visibleValid bool
}

func newContainerBase(self Container) containerBase {
	return containerBase{directiveBase: newDirectiveBase(), self: self}
}

func (c *containerBase) container() *containerBase { return c }

// SubDirectives returns the children. The slice must not be modified.
func (c *containerBase) SubDirectives() []Directive { return c.children }

func (c *containerBase) AddDirective(d Directive) {
	c.InsertDirective(d, len(c.children))
}

// InsertDirective places d at index. A directive that already has a parent
// is moved. Inserting a container into itself or into one of its own
// descendants panics with ErrCyclicTree. Placing a resolved part under a
// model it refers to, directly or through other models, panics with
// ErrCyclicReference.
func (c *containerBase) InsertDirective(d Directive, index int) {
	for a := c.self; a != nil; a = a.Enclosing() {
		if Directive(a) == d {
			panic(fmt.Errorf("%w: inserting %s %s", core.ErrCyclicTree, d.Kind(), d.ID()))
		}
	}
	checkReferences(c.self, d)
	if old := d.Enclosing(); old != nil {
		i := old.IndexOfDirective(d)
		old.RemoveDirectiveAt(i)
		if old == c.self && i < index {
			index--
		}
	}
	c.children = slices.Insert(c.children, index, d)
	d.base().enclosing = c.self
	invalidateFrom(c.self)
}

// checkReferences panics when a resolved part beneath d refers to one of
// the models enclosing c.
func checkReferences(c Container, d Directive) {
	var models []*Model
	for a := c; a != nil; a = a.Enclosing() {
		if m, ok := a.(*Model); ok {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return
	}
	Walk(d, func(x Directive) bool {
		p, ok := x.(*Part)
		if !ok || p.model == nil {
			return true
		}
		for _, m := range models {
			if p.model == m || p.model.references(m, map[*Model]bool{}) {
				panic(fmt.Errorf("%w: %s placed inside %s", core.ErrCyclicReference, p.name, m.Name()))
			}
		}
		return true
	})
}

func (c *containerBase) RemoveDirective(d Directive) bool {
	i := c.IndexOfDirective(d)
	if i < 0 {
		return false
	}
	c.RemoveDirectiveAt(i)
	return true
}

// RemoveDirectiveAt detaches and returns the child at index.
func (c *containerBase) RemoveDirectiveAt(index int) Directive {
	d := c.children[index]
	c.children = slices.Delete(c.children, index, index+1)
	d.base().enclosing = nil
	invalidateFrom(c.self)
	return d
}

func (c *containerBase) MoveDirective(from, to int) {
	if from == to {
		return
	}
	d := c.children[from]
	c.children = slices.Delete(c.children, from, from+1)
	c.children = slices.Insert(c.children, to, d)
	invalidateFrom(c.self)
}

func (c *containerBase) IndexOfDirective(d Directive) int {
	return slices.Index(c.children, d)
}

func (c *containerBase) BoundingBox3() math.Box3 {
	if !c.boxValid {
		c.box = BoundingBox3ForDirectives(c.children)
		c.boxValid = true
	}
	return c.box
}

func (c *containerBase) VisibleBoundingBox3() math.Box3 {
	if !c.visibleValid {
		c.visibleBox = visibleBoundingBox3ForDirectives(c.children)
		c.visibleValid = true
	}
	return c.visibleBox
}

func (c *containerBase) vertexCount() int {
	n := 0
	for _, d := range c.children {
		n += d.vertexCount()
	}
	return n
}

func (c *containerBase) writeVertices(buf []VBOVertex, ctx drawContext) []VBOVertex {
	for _, d := range c.children {
		buf = d.writeVertices(buf, ctx)
	}
	return buf
}

func (c *containerBase) writeChildren() []string {
	lines := make([]string, 0, len(c.children))
	for _, d := range c.children {
		if s := d.Write(); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// invalidateFrom drops the cached boxes of c and of everything that
// depends on them: its ancestors, and for a model the containers of every
// part that references it. Synthesized groups on the way become stale.
func invalidateFrom(c Container) {
	for c != nil {
		cb := c.container()
		l, isSynth := c.(*LSynth)
		if isSynth {
			l.stale = true
		} else if !cb.boxValid && !cb.visibleValid {
			return
		}
		cb.boxValid = false
		cb.visibleValid = false
		if m, ok := c.(*Model); ok {
			for p := range m.referrers {
				invalidateFrom(p.enclosing)
			}
		}
		c = cb.enclosing
	}
}
