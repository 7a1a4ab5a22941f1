package ldraw

import "strings"

// Step is the run of directives between two "0 STEP" lines of a model.
type Step struct {
	containerBase
}

func NewStep() *Step {
	s := &Step{}
	s.containerBase = newContainerBase(s)
	return s
}

func (s *Step) Kind() Kind { return KindStep }

func (s *Step) Write() string {
	return strings.Join(s.writeChildren(), "\n")
}
