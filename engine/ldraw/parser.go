package ldraw

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

// ParseError is a diagnostic for one line that could not be loaded. The
// rest of the file loads regardless.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e ParseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e ParseError) Unwrap() error { return e.Err }

// DirectiveWithString parses a single LDraw line of type 0 to 5. Type 0
// lines become comments; meta-commands that open or close blocks are the
// parser's business.
func DirectiveWithString(line string) (Directive, error) {
	field, rest := ReadNextField(strings.TrimSpace(line))
	lineType, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedLineType, field)
	}
	kind, err := ClassForLineType(lineType)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindComment:
		return NewComment(rest), nil
	case KindPart:
		return parsePart(rest)
	}

	color, points, err := parsePrimitive(rest, map[Kind]int{
		KindLine:            2,
		KindTriangle:        3,
		KindQuadrilateral:   4,
		KindConditionalLine: 4,
	}[kind])
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindLine:
		return NewLine(color, points[0], points[1]), nil
	case KindTriangle:
		return NewTriangle(color, points[0], points[1], points[2]), nil
	case KindQuadrilateral:
		return NewQuadrilateral(color, points[0], points[1], points[2], points[3]), nil
	default:
		return NewConditionalLine(color, points[0], points[1], points[2], points[3]), nil
	}
}

func parseFloats(s string, n int) ([]float32, string, error) {
	out := make([]float32, n)
	for i := range out {
		var field string
		field, s = ReadNextField(s)
		if field == "" {
			return nil, s, fmt.Errorf("%w: expected %d numbers, got %d", core.ErrMalformedField, n, i)
		}
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, s, fmt.Errorf("%w: %q is not a number", core.ErrMalformedField, field)
		}
		out[i] = float32(v)
	}
	return out, s, nil
}

func parseColorField(s string) (ColorCode, string, error) {
	field, rest := ReadNextField(s)
	if field == "" {
		return 0, rest, fmt.Errorf("%w: missing colour", core.ErrMalformedField)
	}
	c, err := ParseColorCode(field)
	return c, rest, err
}

func parsePart(s string) (*Part, error) {
	color, s, err := parseColorField(s)
	if err != nil {
		return nil, err
	}
	f, s, err := parseFloats(s, 12)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(s)
	if name == "" {
		return nil, fmt.Errorf("%w: part without a file name", core.ErrMalformedField)
	}
	m := math.NewMat4FromLDraw(f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7], f[8], f[9], f[10], f[11])
	return NewPart(name, color, m), nil
}

func parsePrimitive(s string, points int) (ColorCode, []math.Vec3, error) {
	color, s, err := parseColorField(s)
	if err != nil {
		return 0, nil, err
	}
	f, _, err := parseFloats(s, points*3)
	if err != nil {
		return 0, nil, err
	}
	out := make([]math.Vec3, points)
	for i := range out {
		out[i] = math.Vec3{X: f[3*i], Y: f[3*i+1], Z: f[3*i+2]}
	}
	return color, out, nil
}

type parser struct {
	file  *File
	model *Model
	step  *Step
	synth *LSynth

	// skipping is set between SYNTHESIZED BEGIN and END: generated parts
	// written by other tools are rebuilt, not loaded.
	skipping bool
	// afterNoFile is set between "0 NOFILE" and the next "0 FILE".
	afterNoFile bool

	line        int
	text        string
	diagnostics []ParseError
}

func (p *parser) diagnose(err error) {
	p.diagnostics = append(p.diagnostics, ParseError{Line: p.line, Text: p.text, Err: err})
}

func (p *parser) currentStep() *Step {
	if p.step != nil {
		return p.step
	}
	if p.model == nil {
		if p.afterNoFile {
			return nil
		}
		p.model = NewModel(p.file.Name())
		p.file.AddDirective(p.model)
	}
	p.step = NewStep()
	p.model.AddDirective(p.step)
	return p.step
}

func (p *parser) add(d Directive) {
	if p.synth != nil {
		p.synth.AddDirective(d)
		return
	}
	step := p.currentStep()
	if step == nil {
		p.diagnose(fmt.Errorf("%w: line outside of any FILE block", core.ErrMalformedField))
		return
	}
	step.AddDirective(d)
}

func (p *parser) closeModel() {
	if p.synth != nil {
		p.diagnose(fmt.Errorf("%w: SYNTH BEGIN without SYNTH END", core.ErrUnterminatedBlock))
		p.synth = nil
	}
	p.skipping = false
	p.model = nil
	p.step = nil
}

// meta handles the type 0 commands that shape the tree. It returns false
// for anything that should be kept as a comment.
func (p *parser) meta(rest string) bool {
	command, args := ReadNextField(rest)
	switch command {
	case "FILE":
		p.closeModel()
		p.afterNoFile = false
		p.model = NewModel(strings.TrimSpace(args))
		p.file.AddDirective(p.model)
		p.file.SetMPD(true)
		return true
	case "NOFILE":
		p.closeModel()
		p.afterNoFile = true
		return true
	case "STEP":
		if p.synth != nil {
			return false
		}
		if p.currentStep() != nil {
			p.step = nil
		}
		return true
	case "SYNTH":
		return p.synthMeta(args)
	}
	return false
}

func (p *parser) synthMeta(args string) bool {
	sub, args := ReadNextField(args)
	switch sub {
	case "BEGIN":
		if p.synth != nil {
			p.diagnose(fmt.Errorf("%w: nested SYNTH BEGIN", core.ErrMalformedField))
			return true
		}
		lsynthType, args := ReadNextField(args)
		if lsynthType == "" {
			p.diagnose(fmt.Errorf("%w: SYNTH BEGIN without a type", core.ErrMalformedField))
			return true
		}
		color := ColorCurrent
		if field, _ := ReadNextField(args); field != "" {
			c, err := ParseColorCode(field)
			if err != nil {
				p.diagnose(err)
			} else {
				color = c
			}
		}
		group := NewLSynth(lsynthType, color)
		p.add(group)
		if group.Enclosing() != nil {
			p.synth = group
		}
		return true
	case "END":
		if p.synth == nil {
			p.diagnose(fmt.Errorf("%w: SYNTH END without SYNTH BEGIN", core.ErrMalformedField))
		}
		p.synth = nil
		return true
	case "SYNTHESIZED":
		if field, _ := ReadNextField(args); field == "BEGIN" {
			p.skipping = true
		}
		return true
	}
	return false
}

func isSynthesizedEnd(rest string) bool {
	f := strings.Fields(rest)
	return len(f) == 3 && f[0] == "SYNTH" && f[1] == "SYNTHESIZED" && f[2] == "END"
}

func (p *parser) parseLine() {
	field, rest := ReadNextField(p.text)
	lineType, err := strconv.Atoi(field)
	if err != nil {
		p.diagnose(fmt.Errorf("%w: %q", core.ErrUnsupportedLineType, field))
		return
	}
	kind, err := ClassForLineType(lineType)
	if err != nil {
		p.diagnose(err)
		return
	}
	if p.skipping {
		if kind == KindComment && isSynthesizedEnd(rest) {
			p.skipping = false
		}
		return
	}
	if kind == KindComment && p.meta(rest) {
		return
	}
	d, err := DirectiveWithString(p.text)
	if err != nil {
		p.diagnose(err)
		return
	}
	p.add(d)
}

// Parse reads an LDraw or MPD document. Lines that cannot be read are
// reported and skipped; the returned file is always usable.
func Parse(name string, r io.Reader) (*File, []ParseError) {
	p := &parser{file: NewFile(name)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.line++
		p.text = strings.TrimSpace(scanner.Text())
		if p.line == 1 {
			p.text = strings.TrimPrefix(p.text, "\ufeff")
		}
		if p.text == "" {
			continue
		}
		p.parseLine()
	}
	if err := scanner.Err(); err != nil {
		p.text = ""
		p.diagnose(err)
	}
	p.text = ""
	p.closeModel()

	if p.file.FirstModel() == nil {
		p.file.AddDirective(NewModel(name))
	}
	return p.file, p.diagnostics
}

// ParseFile reads the document at path.
func ParseFile(path string) (*File, []ParseError, error) {
	text, err := StringFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	f, diagnostics := Parse(filepath.Base(path), strings.NewReader(text))
	f.SetPath(path)
	return f, diagnostics, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(name, text string) (*File, []ParseError) {
	return Parse(name, strings.NewReader(text))
}

// LogDiagnostics reports every diagnostic at warn level.
func LogDiagnostics(file string, diagnostics []ParseError) {
	for _, d := range diagnostics {
		core.LogWarn("%s: %s", file, d.Error())
	}
}
