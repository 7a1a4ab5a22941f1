package ldraw

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// GridMode selects how far a nudge moves a part.
type GridMode int

const (
	GridFine GridMode = iota
	GridMedium
	GridCoarse
)

func (g GridMode) String() string {
	switch g {
	case GridFine:
		return "fine"
	case GridMedium:
		return "medium"
	case GridCoarse:
		return "coarse"
	}
	return fmt.Sprintf("GridMode(%d)", int(g))
}

// GridSpacing holds the distance in LDraw units of each grid mode.
type GridSpacing [3]float32

// DefaultGridSpacing is 1 LDU at fine, half a stud at medium and one stud
// at coarse.
var DefaultGridSpacing = GridSpacing{1, 10, 20}

// NewGridSpacing checks that the modes ascend strictly.
func NewGridSpacing(fine, medium, coarse float32) (GridSpacing, error) {
	if fine <= 0 || fine >= medium || medium >= coarse {
		return DefaultGridSpacing, fmt.Errorf("%w: grid spacing must satisfy 0 < fine < medium < coarse", core.ErrInvalidConfig)
	}
	return GridSpacing{fine, medium, coarse}, nil
}

// ForMode returns the spacing of mode, falling back to fine for an unknown
// mode.
func (g GridSpacing) ForMode(mode GridMode) float32 {
	if mode < GridFine || mode > GridCoarse {
		return g[GridFine]
	}
	return g[mode]
}

// GridSpacingForMode uses the default spacing.
func GridSpacingForMode(mode GridMode) float32 {
	return DefaultGridSpacing.ForMode(mode)
}

// ViewOrientation names a camera preset.
type ViewOrientation int

const (
	ViewOrientation3D ViewOrientation = iota
	ViewOrientationFront
	ViewOrientationBack
	ViewOrientationLeft
	ViewOrientationRight
	ViewOrientationTop
	ViewOrientationBottom
)

// viewAngles are in degrees, applied about X, then Y, then Z.
var viewAngles = map[ViewOrientation]math.Vec3{
	ViewOrientation3D:     {X: 30, Y: 45, Z: 0},
	ViewOrientationFront:  {X: 0, Y: 0, Z: 0},
	ViewOrientationBack:   {X: 0, Y: 180, Z: 0},
	ViewOrientationLeft:   {X: 0, Y: -90, Z: 0},
	ViewOrientationRight:  {X: 0, Y: 90, Z: 0},
	ViewOrientationTop:    {X: 90, Y: 0, Z: 0},
	ViewOrientationBottom: {X: -90, Y: 0, Z: 0},
}

// AngleForViewOrientation returns the rotation, in degrees, of a preset.
func AngleForViewOrientation(orientation ViewOrientation) math.Vec3 {
	if a, ok := viewAngles[orientation]; ok {
		return a
	}
	return viewAngles[ViewOrientation3D]
}

func sameAngle(a, b float32) bool {
	d := a - b
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d < 0.01 || d > 359.99
}

// ViewOrientationForAngle maps a rotation in degrees back to its preset.
// Any angle that is not one of the orthographic presets is 3D.
func ViewOrientationForAngle(angle math.Vec3) ViewOrientation {
	for o := ViewOrientationFront; o <= ViewOrientationBottom; o++ {
		a := viewAngles[o]
		if sameAngle(a.X, angle.X) && sameAngle(a.Y, angle.Y) && sameAngle(a.Z, angle.Z) {
			return o
		}
	}
	return ViewOrientation3D
}

// IsLDrawFilenameValid accepts non-empty names without whitespace or
// control characters that end in .ldr, .dat or .mpd.
func IsLDrawFilenameValid(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ldr", ".dat", ".mpd":
		return len(name) > 4
	}
	return false
}

// ReadNextField splits off the first whitespace-separated field of s. The
// remainder starts at the next field.
func ReadNextField(s string) (field, remainder string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimLeftFunc(s[end:], unicode.IsSpace)
}

// BoundingBox3ForDirectives is the union of the structural boxes of ds.
func BoundingBox3ForDirectives(ds []Directive) math.Box3 {
	box := math.NewBox3Empty()
	for _, d := range ds {
		box = box.Union(d.BoundingBox3())
	}
	return box
}

func visibleBoundingBox3ForDirectives(ds []Directive) math.Box3 {
	box := math.NewBox3Empty()
	for _, d := range ds {
		box = box.Union(d.VisibleBoundingBox3())
	}
	return box
}

// StringFromFile reads a text file. Files that are not valid UTF-8 are
// read as Latin-1, which older LDraw files use.
func StringFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

const movedToPrefix = "~Moved to "

// UpdateNameForMovedPart follows an LDraw "~Moved to" stub: when the
// part's model only redirects to another part, the part is renamed to the
// target and left unresolved. It reports whether the part was renamed.
func UpdateNameForMovedPart(p *Part) bool {
	m := p.Model()
	if m == nil {
		return false
	}
	description := m.Description()
	if !strings.HasPrefix(description, movedToPrefix) {
		return false
	}
	target := strings.TrimSpace(strings.TrimPrefix(description, movedToPrefix))
	if target == "" {
		return false
	}
	if filepath.Ext(target) == "" {
		target += ".dat"
	}
	core.LogInfo("%s has moved to %s", p.ReferenceName(), target)
	p.SetReferenceName(target)
	return true
}
