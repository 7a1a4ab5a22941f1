package ldraw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const craneMPD = `0 FILE main.ldr
0 Main model
1 4 0 0 0 1 0 0 0 1 0 0 0 1 sub.ldr
0 STEP
1 16 40 0 0 1 0 0 0 1 0 0 0 1 sub.ldr
7 bogus line
2 24 0 0 0 1 1
0 NOFILE
0 FILE sub.ldr
0 Sub model
4 16 0 0 0 10 0 0 10 0 10 0 0 10
0 NOFILE
`

func TestDirectiveWithString(t *testing.T) {
	d, err := DirectiveWithString("0 Brick 2 x 4")
	require.NoError(t, err)
	assert.Equal(t, "Brick 2 x 4", d.(*Comment).Text())

	d, err = DirectiveWithString("1 4 10 -8 20 0 0 1 0 1 0 -1 0 0 3001.dat")
	require.NoError(t, err)
	p := d.(*Part)
	assert.Equal(t, ColorRed, p.ColorCode())
	assert.Equal(t, "3001.dat", p.ReferenceName())
	assert.Equal(t, v(10, -8, 20), p.Position())
	assert.True(t, v(10, -8, 19).Compare(v(1, 0, 0).Transform(p.Transform()), tolerance))

	d, err = DirectiveWithString("1 16 0 0 0 1 0 0 0 1 0 0 0 1 s\\3001s01.dat")
	require.NoError(t, err)
	assert.Equal(t, "s/3001s01.dat", d.(*Part).LookupName())

	d, err = DirectiveWithString("2 24 0 0 0 1 2 3")
	require.NoError(t, err)
	assert.Equal(t, KindLine, d.Kind())

	d, err = DirectiveWithString("3 0x2FF0000 0 0 0 1 0 0 0 1 0")
	require.NoError(t, err)
	assert.Equal(t, DirectColor(0xFF, 0, 0), d.(*Triangle).ColorCode())

	d, err = DirectiveWithString("4 1 0 0 0 1 0 0 1 1 0 0 1 0")
	require.NoError(t, err)
	assert.Equal(t, v(1, 1, 0), d.(*Quadrilateral).Vertex(2))

	d, err = DirectiveWithString("5 24 0 0 0 1 0 0 0 1 0 0 -1 0")
	require.NoError(t, err)
	c := d.(*ConditionalLine)
	assert.Equal(t, v(0, -1, 0), c.Vertex(3))
	// Control points do not count towards the box.
	assert.Equal(t, v(1, 0, 0), c.BoundingBox3().Max)

	bad := map[string]error{
		"6 16 0 0 0":                           core.ErrUnsupportedLineType,
		"x 16 0 0 0":                           core.ErrUnsupportedLineType,
		"2 24 0 0 0 1 1":                       core.ErrMalformedField,
		"3 red 0 0 0 1 0 0 0 1 0":              core.ErrMalformedField,
		"4 16 0 0 0 1 0 0 1 one 0 0 1 0":       core.ErrMalformedField,
		"1 16 0 0 0 1 0 0 0 1 0 0 0 1":         core.ErrMalformedField,
		"1 16 0 0 0 1 0 0 0 1 0 0 0 3001.dat": core.ErrMalformedField,
	}
	for line, want := range bad {
		_, err := DirectiveWithString(line)
		assert.ErrorIs(t, err, want, line)
	}
}

func TestParseMPD(t *testing.T) {
	f, diagnostics := ParseString("crane.mpd", craneMPD)

	require.Len(t, diagnostics, 2)
	assert.Equal(t, 6, diagnostics[0].Line)
	assert.ErrorIs(t, diagnostics[0], core.ErrUnsupportedLineType)
	assert.Equal(t, 7, diagnostics[1].Line)
	assert.ErrorIs(t, diagnostics[1], core.ErrMalformedField)

	assert.True(t, f.IsMPD())
	models := f.Models()
	require.Len(t, models, 2)
	main, sub := models[0], models[1]
	assert.Equal(t, "main.ldr", main.Name())
	assert.Equal(t, "Main model", main.Description())
	assert.Equal(t, "Sub model", sub.Description())
	require.Len(t, main.Steps(), 2)
	assert.Len(t, main.Steps()[0].SubDirectives(), 2)
	assert.Len(t, main.Steps()[1].SubDirectives(), 1)
	assert.Len(t, sub.Steps(), 1)
	assert.Equal(t, main, f.FirstModel())

	// Parts resolve to the sibling models before any library is asked.
	require.Empty(t, f.ResolveParts(nil))
	box := main.BoundingBox3()
	assert.Equal(t, v(0, 0, 0), box.Min)
	assert.Equal(t, v(50, 0, 10), box.Max)
}

func TestWriteRoundTrip(t *testing.T) {
	f, _ := ParseString("crane.mpd", craneMPD)
	want := `0 FILE main.ldr
0 Main model
1 4 0 0 0 1 0 0 0 1 0 0 0 1 sub.ldr
0 STEP
1 16 40 0 0 1 0 0 0 1 0 0 0 1 sub.ldr
0 NOFILE
0 FILE sub.ldr
0 Sub model
4 16 0 0 0 10 0 0 10 0 10 0 0 10
0 NOFILE`
	assert.Equal(t, want, f.Write())

	again, diagnostics := ParseString("crane.mpd", f.Write())
	assert.Empty(t, diagnostics)
	assert.Equal(t, want, again.Write())
}

func TestParsePlainFile(t *testing.T) {
	text := "\ufeff0 Single model\r\n3 16 0 0 0 1 0 0 0.5 1 0\r\n\r\n0 STEP\r\n2 24 0 0 0 1 0 0\r\n"
	f, diagnostics := ParseString("plain.ldr", text)
	assert.Empty(t, diagnostics)
	assert.False(t, f.IsMPD())
	m := f.FirstModel()
	require.NotNil(t, m)
	assert.Equal(t, "plain.ldr", m.Name())
	assert.Equal(t, "Single model", m.Description())
	assert.Len(t, m.Steps(), 2)
	assert.Equal(t, "0 Single model\n3 16 0 0 0 1 0 0 0.5 1 0\n0 STEP\n2 24 0 0 0 1 0 0", f.Write())
}

func TestParseEmptyDocument(t *testing.T) {
	f, diagnostics := ParseString("empty.ldr", "")
	assert.Empty(t, diagnostics)
	require.NotNil(t, f.FirstModel())
	assert.Equal(t, "", f.Write())
	assert.True(t, f.BoundingBox3().IsEmpty())
}

func TestParseLinesAfterNoFile(t *testing.T) {
	f, diagnostics := ParseString("loose.mpd", "0 FILE a.ldr\n2 24 0 0 0 1 0 0\n0 NOFILE\n2 24 0 0 0 0 1 0\n")
	require.Len(t, diagnostics, 1)
	assert.Equal(t, 4, diagnostics[0].Line)
	assert.Len(t, f.Models(), 1)
}

func TestParseSynthBlocks(t *testing.T) {
	text := `0 Hose test
0 SYNTH BEGIN PNEUMATIC_HOSE 4
1 16 0 0 0 1 0 0 0 1 0 0 0 1 LS00.dat
1 16 0 -40 0 1 0 0 0 1 0 0 0 1 LS00.dat
0 SYNTH SYNTHESIZED BEGIN
1 16 0 0 0 1 0 0 0 1 0 0 0 1 LS01.dat
1 16 0 -2 0 1 0 0 0 1 0 0 0 1 LS01.dat
0 SYNTH SYNTHESIZED END
0 SYNTH END
`
	f, diagnostics := ParseString("hose.ldr", text)
	require.Empty(t, diagnostics)
	step := f.FirstModel().LastStep()
	require.Len(t, step.SubDirectives(), 2)
	group, ok := step.SubDirectives()[1].(*LSynth)
	require.True(t, ok)
	assert.Equal(t, "PNEUMATIC_HOSE", group.LsynthType())
	assert.Equal(t, ColorRed, group.ColorCode())
	assert.Len(t, group.Constraints(), 2)
	assert.Empty(t, group.SynthesizedParts())
	assert.True(t, group.IsStale())

	// Generated parts are rebuilt, never written back.
	assert.Equal(t, `0 Hose test
0 SYNTH BEGIN PNEUMATIC_HOSE 4
1 16 0 0 0 1 0 0 0 1 0 0 0 1 LS00.dat
1 16 0 -40 0 1 0 0 0 1 0 0 0 1 LS00.dat
0 SYNTH END`, f.Write())
}

func TestParseUnterminatedSynth(t *testing.T) {
	_, diagnostics := ParseString("open.ldr", "0 SYNTH BEGIN STRING 16\n1 16 0 0 0 1 0 0 0 1 0 0 0 1 LS00.dat\n")
	require.Len(t, diagnostics, 1)
	assert.ErrorIs(t, diagnostics[0], core.ErrUnterminatedBlock)

	_, diagnostics = ParseString("stray.ldr", "0 SYNTH END\n")
	require.Len(t, diagnostics, 1)
	assert.ErrorIs(t, diagnostics[0], core.ErrMalformedField)
}

func TestParseFile(t *testing.T) {
	f, diagnostics, err := ParseFile(filepath.Join("testdata", "crane.mpd"))
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
	assert.Equal(t, "crane.mpd", f.Name())
	assert.Equal(t, filepath.Join("testdata", "crane.mpd"), f.Path())
	require.Len(t, f.Models(), 2)

	var groups []*LSynth
	Walk(f, func(d Directive) bool {
		if l, ok := d.(*LSynth); ok {
			groups = append(groups, l)
		}
		return true
	})
	require.Len(t, groups, 1)
	assert.Equal(t, "TECHNIC_CHAIN", groups[0].LsynthType())

	_, _, err = ParseFile(filepath.Join(t.TempDir(), "missing.ldr"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParsedPartTransformsRoundTrip(t *testing.T) {
	line := "1 14 -20 -24 130 0 0 -1 0 1 0 1 0 0 3001.dat"
	d, err := DirectiveWithString(line)
	require.NoError(t, err)
	assert.Equal(t, line, d.Write())

	p := d.(*Part)
	tc, ok := p.TransformComponents()
	require.True(t, ok)
	p.SetTransformComponents(tc)
	assert.True(t, p.Transform().Compare(math.NewMat4FromLDraw(-20, -24, 130, 0, 0, -1, 0, 1, 0, 1, 0, 0), tolerance))
}
