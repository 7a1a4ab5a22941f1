// Package library is the part library: the catalog of an LDraw folder,
// favourites, and the models parsed from it on demand.
package library

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/ldraw"
	"github.com/spaghettifunk/bricklayer/engine/systems"
)

const (
	CategorySubparts   = "Subparts"
	CategoryPrimitives = "Primitives"
	CategoryModels     = "Models"
	CategoryMoved      = "Moved"
	CategoryOther      = "Miscellaneous"
)

// PartInfo is one catalog entry.
type PartInfo struct {
	Name        string
	Path        string
	Description string
	Category    string
}

// ReloadDelegate follows the progress of ReloadParts. Both methods are
// called on the goroutine that called ReloadParts.
type ReloadDelegate interface {
	MaximumPartCountToLoad(count int)
	IncrementLoadProgressCount()
}

// folder is one directory of the LDraw tree the catalog reads.
type folder struct {
	dir      string
	prefix   string
	category string
}

var folders = []folder{
	{dir: "parts"},
	{dir: filepath.Join("parts", "s"), prefix: "s/", category: CategorySubparts},
	{dir: "p", category: CategoryPrimitives},
	{dir: filepath.Join("p", "48"), prefix: "48/", category: CategoryPrimitives},
	{dir: "models", category: CategoryModels},
}

type Library struct {
	root string

	mu        sync.RWMutex
	catalog   map[string]PartInfo
	favorites []string

	// loaded holds parsed models by part name; neighbors holds files found
	// next to a document, by absolute path.
	loaded    map[string]*ldraw.Model
	neighbors map[string]*ldraw.Model
	loading   map[string]bool
}

// ValidateLDrawFolder checks that root holds the parts and p folders.
func ValidateLDrawFolder(root string) error {
	for _, dir := range []string{"parts", "p"} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s has no %s folder", core.ErrInvalidLDrawFolder, root, dir)
		}
	}
	return nil
}

// New opens the LDraw folder at root. The catalog stays empty until Load
// or ReloadParts.
func New(root string) (*Library, error) {
	if err := ValidateLDrawFolder(root); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Library{
		root:      abs,
		catalog:   make(map[string]PartInfo),
		loaded:    make(map[string]*ldraw.Model),
		neighbors: make(map[string]*ldraw.Model),
		loading:   make(map[string]bool),
	}, nil
}

func (l *Library) Root() string { return l.root }

// Load reads the catalog without reporting progress.
func (l *Library) Load() error {
	return l.ReloadParts(nil)
}

// ReloadParts rescans every folder of the library and replaces the
// catalog. Part headers are read on a pool of workers.
func (l *Library) ReloadParts(delegate ReloadDelegate) error {
	if err := ValidateLDrawFolder(l.root); err != nil {
		return err
	}

	var pending []PartInfo
	for _, f := range folders {
		entries, err := os.ReadDir(filepath.Join(l.root, f.dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !isPartFile(e.Name()) {
				continue
			}
			pending = append(pending, PartInfo{
				Name:     ldraw.NormalizePartName(f.prefix + e.Name()),
				Path:     filepath.Join(l.root, f.dir, e.Name()),
				Category: f.category,
			})
		}
	}
	if delegate != nil {
		delegate.MaximumPartCountToLoad(len(pending))
	}

	js, err := systems.NewJobSystem(runtime.NumCPU(), len(pending))
	if err != nil {
		return err
	}
	results := make(chan PartInfo, len(pending))
	for _, info := range pending {
		err := js.Submit(systems.JobTask{
			OnStart: func() error {
				description, err := DescriptionForFilePath(info.Path)
				info.Description = description
				if info.Category == "" {
					info.Category = CategoryForDescription(description)
				}
				results <- info
				return err
			},
			OnFailure: func(err error) {
				core.LogWarn("reading %s: %s", info.Path, err)
			},
		})
		if err != nil {
			return err
		}
	}

	catalog := make(map[string]PartInfo, len(pending))
	for range pending {
		info := <-results
		catalog[info.Name] = info
		if delegate != nil {
			delegate.IncrementLoadProgressCount()
		}
	}
	if err := js.Shutdown(); err != nil {
		return err
	}

	l.mu.Lock()
	l.catalog = catalog
	l.loaded = make(map[string]*ldraw.Model)
	l.mu.Unlock()

	core.LogInfo("part library %s: %d parts", l.root, len(catalog))
	return nil
}

func isPartFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dat", ".ldr", ".mpd":
		return true
	}
	return false
}

// DescriptionForFilePath reads the description from the first line of an
// LDraw file.
func DescriptionForFilePath(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		field, rest := ldraw.ReadNextField(line)
		if field != "0" {
			return "", nil
		}
		// MPD files put their name first.
		if command, name := ldraw.ReadNextField(rest); command == "FILE" && name != "" {
			continue
		}
		return rest, nil
	}
	return "", scanner.Err()
}

// CategoryForDescription is the first word of a description, ignoring the
// marker characters LDraw puts in front of aliases and obsolete parts.
func CategoryForDescription(description string) string {
	if strings.HasPrefix(description, "~Moved to") {
		return CategoryMoved
	}
	word, _ := ldraw.ReadNextField(strings.TrimLeft(description, "~_=|"))
	if word == "" {
		return CategoryOther
	}
	return word
}

func (l *Library) lookup(name string) (PartInfo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	info, ok := l.catalog[ldraw.NormalizePartName(name)]
	return info, ok
}

// PathForPartName returns the file of a catalogued part.
func (l *Library) PathForPartName(name string) (string, bool) {
	info, ok := l.lookup(name)
	return info.Path, ok
}

func (l *Library) DescriptionForPartName(name string) string {
	info, _ := l.lookup(name)
	return info.Description
}

func (l *Library) CategoryForPartName(name string) string {
	info, _ := l.lookup(name)
	return info.Category
}

// AllPartNames returns every catalogued name, sorted.
func (l *Library) AllPartNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.catalog))
	for name := range l.catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Categories returns the distinct categories, sorted.
func (l *Library) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, info := range l.catalog {
		if !seen[info.Category] {
			seen[info.Category] = true
			out = append(out, info.Category)
		}
	}
	slices.Sort(out)
	return out
}

func (l *Library) PartNamesInCategory(category string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var names []string
	for name, info := range l.catalog {
		if info.Category == category {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (l *Library) FavoritePartNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.favorites)
}

func (l *Library) AddPartNameToFavorites(name string) {
	name = ldraw.NormalizePartName(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	if !slices.Contains(l.favorites, name) {
		l.favorites = append(l.favorites, name)
	}
}

func (l *Library) RemovePartNameFromFavorites(name string) {
	name = ldraw.NormalizePartName(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := slices.Index(l.favorites, name); i >= 0 {
		l.favorites = slices.Delete(l.favorites, i, i+1)
	}
}

type favoritesFile struct {
	Favorites []string `toml:"favorites"`
}

// SaveFavorites writes the favourites as TOML.
func (l *Library) SaveFavorites(w io.Writer) error {
	return toml.NewEncoder(w).Encode(favoritesFile{Favorites: l.FavoritePartNames()})
}

// LoadFavorites replaces the favourites with those read from r.
func (l *Library) LoadFavorites(r io.Reader) error {
	var f favoritesFile
	if err := toml.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("%w: favourites: %s", core.ErrInvalidConfig, err)
	}
	favorites := make([]string, 0, len(f.Favorites))
	for _, name := range f.Favorites {
		name = ldraw.NormalizePartName(name)
		if name != "" && !slices.Contains(favorites, name) {
			favorites = append(favorites, name)
		}
	}
	l.mu.Lock()
	l.favorites = favorites
	l.mu.Unlock()
	return nil
}
