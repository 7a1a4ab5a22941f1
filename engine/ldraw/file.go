package ldraw

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PartResolver finds the model a part refers to.
type PartResolver interface {
	ModelForPart(p *Part) (*Model, error)
}

// File is the root of a document. Its children are models; a plain .ldr
// or .dat file has exactly one.
type File struct {
	containerBase
	name string
	path string
	mpd  bool
}

func NewFile(name string) *File {
	f := &File{name: name}
	f.containerBase = newContainerBase(f)
	return f
}

func (f *File) Kind() Kind { return KindFile }

func (f *File) Name() string { return f.name }

// Path is where the file was read from, or "" for an unsaved document.
func (f *File) Path() string { return f.path }

func (f *File) SetPath(path string) {
	f.path = path
	if f.name == "" {
		f.name = filepath.Base(path)
	}
}

// IsMPD reports whether the file is written as a multi-part document.
func (f *File) IsMPD() bool { return f.mpd || len(f.children) > 1 }

func (f *File) SetMPD(flag bool) { f.mpd = flag }

func (f *File) Models() []*Model {
	models := make([]*Model, 0, len(f.children))
	for _, d := range f.children {
		if m, ok := d.(*Model); ok {
			models = append(models, m)
		}
	}
	return models
}

// FirstModel is the model shown when the file is opened.
func (f *File) FirstModel() *Model {
	for _, d := range f.children {
		if m, ok := d.(*Model); ok {
			return m
		}
	}
	return nil
}

// ModelNamed finds a model of an MPD file by its "0 FILE" name.
func (f *File) ModelNamed(name string) *Model {
	name = NormalizePartName(name)
	for _, m := range f.Models() {
		if NormalizePartName(m.Name()) == name {
			return m
		}
	}
	return nil
}

// ResolveParts resolves every part of the file, generated segments
// included. Models of the file itself win over the resolver. Parts that
// cannot be resolved stay unresolved and are reported.
func (f *File) ResolveParts(resolver PartResolver) []error {
	var errs []error
	Walk(f, func(d Directive) bool {
		p, ok := d.(*Part)
		if !ok || p.IsResolved() {
			return true
		}
		if err := f.resolvePart(p, resolver); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	return errs
}

func (f *File) resolvePart(p *Part, resolver PartResolver) error {
	if m := f.ModelNamed(p.ReferenceName()); m != nil {
		return p.SetModel(m)
	}
	if resolver == nil {
		return fmt.Errorf("%s: no part library", p.ReferenceName())
	}
	m, err := resolver.ModelForPart(p)
	if err != nil {
		return err
	}
	return p.SetModel(m)
}

func (f *File) Write() string {
	if !f.IsMPD() {
		if m := f.FirstModel(); m != nil {
			return m.Write()
		}
		return ""
	}
	var sb strings.Builder
	for i, m := range f.Models() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("0 FILE ")
		sb.WriteString(m.Name())
		if body := m.Write(); body != "" {
			sb.WriteByte('\n')
			sb.WriteString(body)
		}
		sb.WriteString("\n0 NOFILE")
	}
	return sb.String()
}
