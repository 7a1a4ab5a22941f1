package synth

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/bricklayer/engine/core"
)

//go:embed classes.toml
var builtinClasses []byte

// Kind selects the interpolation law of a class.
type Kind int

const (
	KindHose Kind = iota
	KindBand
)

func (k Kind) String() string {
	switch k {
	case KindHose:
		return "hose"
	case KindBand:
		return "band"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type Rounding int

const (
	RoundNearest Rounding = iota
	RoundCeil
)

// Class describes one synthesis type: which segment part is laid along the
// path and how the path is built between constraints.
type Class struct {
	Name          string
	Kind          Kind
	Description   string
	Segment       string
	SegmentLength float32
	Tension       float32
	TwistLimit    float32 // degrees, 0 means unlimited
	Closed        bool
	Rounding      Rounding
	Tolerance     float32
}

// classEntry mirrors one table of classes.toml.
type classEntry struct {
	Kind          string  `toml:"kind"`
	Description   string  `toml:"description"`
	Segment       string  `toml:"segment"`
	SegmentLength float32 `toml:"segment_length"`
	Tension       float32 `toml:"tension"`
	TwistLimit    float32 `toml:"twist_limit"`
	Closed        bool    `toml:"closed"`
	Rounding      string  `toml:"rounding"`
	Tolerance     float32 `toml:"tolerance"`
}

func (e classEntry) toClass(name string) (*Class, error) {
	c := &Class{
		Name:          strings.ToUpper(name),
		Description:   e.Description,
		Segment:       e.Segment,
		SegmentLength: e.SegmentLength,
		Tension:       e.Tension,
		TwistLimit:    e.TwistLimit,
		Closed:        e.Closed,
		Tolerance:     e.Tolerance,
	}
	switch strings.ToLower(e.Kind) {
	case "hose":
		c.Kind = KindHose
	case "band":
		c.Kind = KindBand
	default:
		return nil, fmt.Errorf("%w: class %s has unknown kind %q", core.ErrInvalidConfig, name, e.Kind)
	}
	switch strings.ToLower(e.Rounding) {
	case "", "nearest":
		c.Rounding = RoundNearest
	case "ceil":
		c.Rounding = RoundCeil
	default:
		return nil, fmt.Errorf("%w: class %s has unknown rounding %q", core.ErrInvalidConfig, name, e.Rounding)
	}
	if c.Tension <= 0 {
		c.Tension = 1
	}
	if c.Tolerance <= 0 {
		c.Tolerance = c.SegmentLength / 2
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Class) validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: class without a name", core.ErrInvalidConfig)
	}
	if c.Segment == "" {
		return fmt.Errorf("%w: class %s has no segment part", core.ErrInvalidConfig, c.Name)
	}
	if c.SegmentLength <= 0 {
		return fmt.Errorf("%w: class %s needs a positive segment_length", core.ErrInvalidConfig, c.Name)
	}
	if c.TwistLimit < 0 {
		return fmt.Errorf("%w: class %s has a negative twist_limit", core.ErrInvalidConfig, c.Name)
	}
	return nil
}

// Table maps type names to classes. Lookups are case-insensitive.
type Table struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func NewTable() *Table {
	return &Table{classes: make(map[string]*Class)}
}

var onceClasses sync.Once
var builtin *Table

// Classes returns the process-wide table, seeded with the built-in classes.
func Classes() *Table {
	onceClasses.Do(func() {
		builtin = NewTable()
		if err := builtin.Load(builtinClasses); err != nil {
			core.LogFatal("built-in synthesis classes are broken: %s", err)
		}
	})
	return builtin
}

// Load merges the classes of a TOML document into the table. Entries with
// an existing name replace it. Nothing is merged if any entry is invalid.
func (t *Table) Load(data []byte) error {
	entries := map[string]classEntry{}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
	}
	parsed := make([]*Class, 0, len(entries))
	for name, e := range entries {
		c, err := e.toClass(name)
		if err != nil {
			return err
		}
		parsed = append(parsed, c)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range parsed {
		t.classes[c.Name] = c
	}
	return nil
}

func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := t.Load(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	core.LogInfo("loaded synthesis classes from %s", path)
	return nil
}

// Register adds or replaces a single class.
func (t *Table) Register(c Class) error {
	c.Name = strings.ToUpper(c.Name)
	if c.Tension <= 0 {
		c.Tension = 1
	}
	if c.Tolerance <= 0 {
		c.Tolerance = c.SegmentLength / 2
	}
	if err := c.validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classes[c.Name] = &c
	return nil
}

// Lookup returns the class for a synthesis type name.
func (t *Table) Lookup(name string) (*Class, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.classes[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, core.ErrUnsupportedSynthesisClass)
	}
	return c, nil
}

func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.classes))
	for name := range t.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
