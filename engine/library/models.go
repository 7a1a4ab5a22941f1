package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/ldraw"
)

// ModelForName returns the model of a catalogued part, parsing it on first
// use. References inside it are resolved through the library as well.
func (l *Library) ModelForName(name string) (*ldraw.Model, error) {
	name = ldraw.NormalizePartName(name)

	l.mu.RLock()
	m, cached := l.loaded[name]
	busy := l.loading[name]
	info, known := l.catalog[name]
	l.mu.RUnlock()

	switch {
	case cached:
		return m, nil
	case busy:
		return nil, fmt.Errorf("%w: %s", core.ErrCyclicReference, name)
	case !known:
		return nil, fmt.Errorf("%w: %s", core.ErrPartNotFound, name)
	}

	m, err := l.load(name, info.Path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.loaded[name] = m
	l.mu.Unlock()
	return m, nil
}

// ModelForPart resolves a part: first through the catalog, then from a
// file next to the document that holds the part.
func (l *Library) ModelForPart(p *ldraw.Part) (*ldraw.Model, error) {
	m, err := l.ModelForName(p.LookupName())
	if err == nil || !errors.Is(err, core.ErrPartNotFound) {
		return m, err
	}
	if m, nerr := l.ModelFromNeighboringFileForPart(p); nerr == nil {
		return m, nil
	}
	return nil, err
}

// ModelFromNeighboringFileForPart looks for the referenced file in the
// folder of the document the part belongs to.
func (l *Library) ModelFromNeighboringFileForPart(p *ldraw.Part) (*ldraw.Model, error) {
	f := p.EnclosingFile()
	if f == nil || f.Path() == "" {
		return nil, fmt.Errorf("%w: %s", core.ErrPartNotFound, p.ReferenceName())
	}
	dir := filepath.Dir(f.Path())
	reference := filepath.FromSlash(strings.ReplaceAll(p.ReferenceName(), "\\", "/"))

	for _, candidate := range []string{reference, strings.ToLower(reference)} {
		path, err := filepath.Abs(filepath.Join(dir, candidate))
		if err != nil {
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}

		l.mu.RLock()
		m, cached := l.neighbors[path]
		busy := l.loading[path]
		l.mu.RUnlock()
		if cached {
			return m, nil
		}
		if busy {
			return nil, fmt.Errorf("%w: %s", core.ErrCyclicReference, path)
		}

		m, err = l.load(path, path)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.neighbors[path] = m
		l.mu.Unlock()
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrPartNotFound, p.ReferenceName())
}

// load parses the file at path and resolves its references. key marks the
// file as being loaded so a file that reaches itself fails instead of
// recursing.
func (l *Library) load(key, path string) (*ldraw.Model, error) {
	l.setLoading(key, true)
	defer l.setLoading(key, false)

	f, diagnostics, err := ldraw.ParseFile(path)
	if err != nil {
		return nil, err
	}
	ldraw.LogDiagnostics(path, diagnostics)
	for _, err := range f.ResolveParts(l) {
		core.LogWarn("%s: %s", filepath.Base(path), err)
	}
	return f.FirstModel(), nil
}

func (l *Library) setLoading(key string, flag bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if flag {
		l.loading[key] = true
	} else {
		delete(l.loading, key)
	}
}

// IsLoaded reports whether the named part is parsed and cached.
func (l *Library) IsLoaded(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.loaded[ldraw.NormalizePartName(name)]
	return ok
}

// Invalidate drops the cached model of name and of every cached model that
// uses it, directly or through other cached models. Cached models with an
// unresolved reference to name are dropped too, so a newly added file is
// picked up. It returns the names dropped, name first.
func (l *Library) Invalidate(name string) []string {
	name = ldraw.NormalizePartName(name)
	l.mu.Lock()
	defer l.mu.Unlock()

	var dropped []string
	queue := []string{name}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if slices.Contains(dropped, n) {
			continue
		}
		dropped = append(dropped, n)
		target := l.loaded[n]
		delete(l.loaded, n)

		for other, m := range l.loaded {
			if usesPart(m, n, target) {
				queue = append(queue, other)
			}
		}
	}
	return dropped
}

func usesPart(m *ldraw.Model, name string, target *ldraw.Model) bool {
	found := false
	ldraw.Walk(m, func(d ldraw.Directive) bool {
		if found {
			return false
		}
		if p, ok := d.(*ldraw.Part); ok {
			if target != nil && p.Model() == target {
				found = true
			} else if !p.IsResolved() && p.LookupName() == name {
				found = true
			}
		}
		return true
	})
	return found
}

// Change is a file of the library that was created, written or removed.
type Change struct {
	Name     string
	Path     string
	Category string
}

// PartNameForPath maps a file under root to the part name it is
// catalogued as. Files outside the catalogued folders have no name.
func PartNameForPath(root, path string) (Change, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || !isPartFile(rel) {
		return Change{}, false
	}
	dir, base := filepath.Split(rel)
	dir = filepath.Clean(dir)
	for _, f := range folders {
		if strings.EqualFold(dir, f.dir) {
			return Change{Name: ldraw.NormalizePartName(f.prefix + base), Path: path, Category: f.category}, true
		}
	}
	return Change{}, false
}

// Refresh brings the catalog entry of a changed file up to date and drops
// the cached models that depend on it. It returns the names dropped.
func (l *Library) Refresh(c Change) []string {
	if _, err := os.Stat(c.Path); err != nil {
		l.mu.Lock()
		delete(l.catalog, c.Name)
		l.mu.Unlock()
		return l.Invalidate(c.Name)
	}

	description, err := DescriptionForFilePath(c.Path)
	if err != nil {
		core.LogWarn("reading %s: %s", c.Path, err)
	}
	info := PartInfo{Name: c.Name, Path: c.Path, Description: description, Category: c.Category}
	if info.Category == "" {
		info.Category = CategoryForDescription(description)
	}
	l.mu.Lock()
	l.catalog[c.Name] = info
	l.mu.Unlock()
	return l.Invalidate(c.Name)
}
