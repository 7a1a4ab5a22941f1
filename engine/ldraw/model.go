package ldraw

import (
	"strings"
)

// Model is one model of a file: the main model of a .ldr or .dat file, or
// one "0 FILE" section of an MPD file. Its children are steps.
type Model struct {
	containerBase
	name string

	// referrers are the parts resolved to this model, held weakly so edits
	// here can reach the boxes cached above them.
	referrers map[*Part]struct{}
}

func NewModel(name string) *Model {
	m := &Model{name: name, referrers: make(map[*Part]struct{})}
	m.containerBase = newContainerBase(m)
	return m
}

func (m *Model) Kind() Kind { return KindModel }

func (m *Model) Name() string { return m.name }

func (m *Model) SetName(name string) { m.name = name }

func (m *Model) Steps() []*Step {
	steps := make([]*Step, 0, len(m.children))
	for _, d := range m.children {
		if s, ok := d.(*Step); ok {
			steps = append(steps, s)
		}
	}
	return steps
}

// LastStep returns the step new directives go into, creating one if the
// model is empty.
func (m *Model) LastStep() *Step {
	for i := len(m.children) - 1; i >= 0; i-- {
		if s, ok := m.children[i].(*Step); ok {
			return s
		}
	}
	s := NewStep()
	m.AddDirective(s)
	return s
}

// Description is the text of the model's first comment, which by LDraw
// convention names the model.
func (m *Model) Description() string {
	description := ""
	Walk(m, func(d Directive) bool {
		if description != "" {
			return false
		}
		if c, ok := d.(*Comment); ok {
			description = strings.TrimSpace(c.Text())
		}
		return true
	})
	return description
}

// references reports whether any part beneath m resolves, directly or
// through further references, to target.
func (m *Model) references(target *Model, visited map[*Model]bool) bool {
	found := false
	Walk(m, func(d Directive) bool {
		if found {
			return false
		}
		p, ok := d.(*Part)
		if !ok || p.model == nil {
			return true
		}
		if p.model == target {
			found = true
		} else if !visited[p.model] {
			visited[p.model] = true
			found = p.model.references(target, visited)
		}
		return true
	})
	return found
}

func (m *Model) Write() string {
	steps := m.Steps()
	lines := make([]string, 0, len(steps)*2)
	for i, s := range steps {
		if body := s.Write(); body != "" {
			lines = append(lines, body)
		}
		if i < len(steps)-1 {
			lines = append(lines, "0 STEP")
		}
	}
	return strings.Join(lines, "\n")
}
