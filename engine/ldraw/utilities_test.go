package ldraw

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridSpacing(t *testing.T) {
	assert.Equal(t, float32(1), GridSpacingForMode(GridFine))
	assert.Equal(t, float32(10), GridSpacingForMode(GridMedium))
	assert.Equal(t, float32(20), GridSpacingForMode(GridCoarse))
	assert.Equal(t, float32(1), GridSpacingForMode(GridMode(9)))
	assert.Equal(t, "coarse", GridCoarse.String())

	g, err := NewGridSpacing(0.5, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, float32(4), g.ForMode(GridMedium))

	for _, bad := range [][3]float32{{0, 10, 20}, {10, 10, 20}, {1, 30, 20}} {
		_, err := NewGridSpacing(bad[0], bad[1], bad[2])
		assert.ErrorIs(t, err, core.ErrInvalidConfig)
	}
}

func TestViewOrientation(t *testing.T) {
	for o := ViewOrientation3D; o <= ViewOrientationBottom; o++ {
		assert.Equal(t, o, ViewOrientationForAngle(AngleForViewOrientation(o)), "orientation %d", o)
	}
	assert.Equal(t, ViewOrientationBack, ViewOrientationForAngle(math.Vec3{Y: -180}))
	assert.Equal(t, ViewOrientationTop, ViewOrientationForAngle(math.Vec3{X: 90, Z: 360}))
	assert.Equal(t, ViewOrientationRight, ViewOrientationForAngle(math.Vec3{Y: -270}))
	assert.Equal(t, ViewOrientation3D, ViewOrientationForAngle(math.Vec3{X: 12, Y: 5}))
	assert.Equal(t, AngleForViewOrientation(ViewOrientation3D), AngleForViewOrientation(ViewOrientation(42)))
}

func TestIsLDrawFilenameValid(t *testing.T) {
	for _, name := range []string{"3001.dat", "Model.LDR", "a.mpd", "s/3001s01.dat"} {
		assert.True(t, IsLDrawFilenameValid(name), name)
	}
	for _, name := range []string{"", ".dat", "my model.ldr", "tab\t.dat", "notes.txt", "3001"} {
		assert.False(t, IsLDrawFilenameValid(name), name)
	}
}

func TestReadNextField(t *testing.T) {
	field, rest := ReadNextField("  1 16  0 0")
	assert.Equal(t, "1", field)
	assert.Equal(t, "16  0 0", rest)

	field, rest = ReadNextField("single")
	assert.Equal(t, "single", field)
	assert.Equal(t, "", rest)

	field, rest = ReadNextField("   ")
	assert.Equal(t, "", field)
	assert.Equal(t, "", rest)
}

func TestStringFromFileReadsLatin1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.ldr")
	require.NoError(t, os.WriteFile(path, []byte("0 Caf\xe9 brick\n"), 0o644))
	text, err := StringFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0 Café brick\n", text)

	utf := filepath.Join(dir, "new.ldr")
	require.NoError(t, os.WriteFile(utf, []byte("0 Café brick\n"), 0o644))
	text, err = StringFromFile(utf)
	require.NoError(t, err)
	assert.Equal(t, "0 Café brick\n", text)
}

func TestUpdateNameForMovedPart(t *testing.T) {
	stub := NewModel("3068.dat")
	stub.LastStep().AddDirective(NewComment("~Moved to 3068b"))
	p := resolvedPart(stub, ColorRed, at(0, 0, 0))

	assert.True(t, UpdateNameForMovedPart(p))
	assert.Equal(t, "3068b.dat", p.ReferenceName())
	assert.False(t, p.IsResolved())
	assert.False(t, UpdateNameForMovedPart(p))

	regular := resolvedPart(unitModel(), ColorRed, at(0, 0, 0))
	assert.False(t, UpdateNameForMovedPart(regular))
	assert.Equal(t, "unit.dat", regular.ReferenceName())
}

func TestColorCodes(t *testing.T) {
	red := DirectColor(0xFF, 0, 0)
	assert.True(t, red.IsDirect())
	assert.False(t, ColorRed.IsDirect())
	assert.True(t, ColorCurrent.IsSymbolic())
	assert.True(t, ColorEdge.IsSymbolic())
	assert.False(t, red.IsSymbolic())
	assert.Equal(t, "0x2FF0000", red.String())
	assert.Equal(t, "16", ColorCurrent.String())

	parsed, err := ParseColorCode("0x2FF0000")
	require.NoError(t, err)
	assert.Equal(t, red, parsed)
	_, err = ParseColorCode("blue")
	assert.ErrorIs(t, err, core.ErrMalformedField)

	assert.Equal(t, [4]float32{1, 0, 0, 1}, ColorLibrary().RGBA(red))
	assert.Equal(t, ColorLibrary().RGBA(DefaultColorCode), ColorLibrary().RGBA(ColorCode(9999)))
}

const ldconfig = `0 LDraw.org Configuration File
0 !COLOUR Black CODE 0 VALUE #05131D EDGE #595959
0 !COLOUR Trans_Clear CODE 47 VALUE #FCFCFC EDGE #C3C3C3 ALPHA 128
0 !COLOUR Chrome_Gold CODE 334 VALUE #BBA53D EDGE #BBB23D CHROME
0 !COLOUR Glow CODE 21 VALUE #E0FFB0 EDGE 0 ALPHA 250 LUMINANCE 15
0 !COLOUR Broken CODE x VALUE #000000 EDGE #000000
0 !COLOUR NoValue CODE 99 EDGE #000000
1 16 0 0 0 1 0 0 0 1 0 0 0 1 3001.dat
`

func TestLoadLDConfig(t *testing.T) {
	p := NewPalette()
	added, diagnostics := p.LoadLDConfig(strings.NewReader(ldconfig))
	assert.Equal(t, 4, added)
	assert.Equal(t, 4, p.Len())
	require.Len(t, diagnostics, 2)
	assert.Equal(t, 6, diagnostics[0].Line)
	assert.Equal(t, 7, diagnostics[1].Line)

	clear, ok := p.Lookup(47)
	require.True(t, ok)
	assert.Equal(t, "Trans_Clear", clear.Name)
	assert.InDelta(t, 128.0/255, clear.RGBA[3], tolerance)

	gold, ok := p.Lookup(334)
	require.True(t, ok)
	assert.Equal(t, "CHROME", gold.Material)

	glow, ok := p.Lookup(21)
	require.True(t, ok)
	assert.Equal(t, uint8(15), glow.Luminance)
	black, _ := p.Lookup(ColorBlack)
	// An edge given as a code takes that colour's value.
	assert.Equal(t, black.RGBA, glow.Edge)
	assert.Equal(t, DirectColor(0x05, 0x13, 0x1D), p.EdgeColorCode(21))
}
