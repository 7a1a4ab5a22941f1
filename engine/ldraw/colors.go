package ldraw

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spaghettifunk/bricklayer/engine/core"
)

// ColorCode is an LDraw colour number. Codes 0x2000000-0x2FFFFFF are
// direct colours that carry their own RGB value.
type ColorCode int32

const (
	ColorBlack      ColorCode = 0
	ColorBlue       ColorCode = 1
	ColorGreen      ColorCode = 2
	ColorRed        ColorCode = 4
	ColorLightGray  ColorCode = 7
	ColorYellow     ColorCode = 14
	ColorWhite      ColorCode = 15
	ColorCurrent    ColorCode = 16
	ColorEdge       ColorCode = 24
	ColorOrange     ColorCode = 25
	ColorTransRed   ColorCode = 36
	ColorTransClear ColorCode = 47
	ColorBluishGray ColorCode = 71
	ColorDarkBluish ColorCode = 72

	// DefaultColorCode is what ColorCurrent resolves to when no ancestor
	// supplies a colour.
	DefaultColorCode = ColorLightGray

	directColorMask ColorCode = 0x2000000
)

func DirectColor(r, g, b uint8) ColorCode {
	return directColorMask | ColorCode(r)<<16 | ColorCode(g)<<8 | ColorCode(b)
}

func (c ColorCode) IsDirect() bool {
	return c >= directColorMask && c <= directColorMask|0xFFFFFF
}

// IsSymbolic reports whether c stands for an inherited colour rather than
// a colour of its own.
func (c ColorCode) IsSymbolic() bool {
	return c == ColorCurrent || c == ColorEdge
}

func (c ColorCode) String() string {
	if c.IsDirect() {
		return fmt.Sprintf("0x%07X", int32(c))
	}
	return strconv.Itoa(int(c))
}

func ParseColorCode(s string) (ColorCode, error) {
	var v int64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseInt(s[2:], 16, 32)
	} else {
		v, err = strconv.ParseInt(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: colour %q", core.ErrMalformedField, s)
	}
	return ColorCode(v), nil
}

// Colorable is implemented by every directive that carries a colour.
type Colorable interface {
	ColorCode() ColorCode
	SetColorCode(ColorCode)
}

// EffectiveColor resolves own against the colour inherited from the
// parent. The result is never ColorCurrent or ColorEdge.
func EffectiveColor(own, parent ColorCode) ColorCode {
	if parent.IsSymbolic() {
		parent = DefaultColorCode
	}
	switch own {
	case ColorCurrent:
		return parent
	case ColorEdge:
		return ColorLibrary().EdgeColorCode(parent)
	}
	return own
}

type ColorEntry struct {
	Code      ColorCode
	Name      string
	RGBA      [4]float32
	Edge      [4]float32
	Luminance uint8
	Material  string
}

// Palette maps colour codes to their values. It is safe for concurrent
// readers; writes happen while loading LDConfig at startup.
type Palette struct {
	mu      sync.RWMutex
	entries map[ColorCode]ColorEntry
}

func NewPalette() *Palette {
	return &Palette{entries: make(map[ColorCode]ColorEntry)}
}

var onceColors sync.Once
var colorLibrary *Palette

// ColorLibrary returns the process-wide palette, seeded with the common
// LDraw colours.
func ColorLibrary() *Palette {
	onceColors.Do(func() {
		colorLibrary = NewPalette()
		for _, e := range builtinColors {
			colorLibrary.Add(e)
		}
	})
	return colorLibrary
}

func rgb(hex uint32, alpha uint8) [4]float32 {
	return [4]float32{
		float32(hex>>16&0xFF) / 255,
		float32(hex>>8&0xFF) / 255,
		float32(hex&0xFF) / 255,
		float32(alpha) / 255,
	}
}

var builtinColors = []ColorEntry{
	{Code: ColorBlack, Name: "Black", RGBA: rgb(0x05131D, 255), Edge: rgb(0x595959, 255)},
	{Code: ColorBlue, Name: "Blue", RGBA: rgb(0x0055BF, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorGreen, Name: "Green", RGBA: rgb(0x257A3E, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorRed, Name: "Red", RGBA: rgb(0xC91A09, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorLightGray, Name: "Light_Grey", RGBA: rgb(0x9BA19D, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorYellow, Name: "Yellow", RGBA: rgb(0xF2CD37, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorWhite, Name: "White", RGBA: rgb(0xFFFFFF, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorCurrent, Name: "Main_Colour", RGBA: rgb(0x7F7F7F, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorEdge, Name: "Edge_Colour", RGBA: rgb(0x7F7F7F, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorOrange, Name: "Orange", RGBA: rgb(0xFE8A18, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorTransRed, Name: "Trans_Red", RGBA: rgb(0xC91A09, 128), Edge: rgb(0x880000, 255)},
	{Code: ColorTransClear, Name: "Trans_Clear", RGBA: rgb(0xFCFCFC, 128), Edge: rgb(0xC3C3C3, 255)},
	{Code: ColorBluishGray, Name: "Light_Bluish_Grey", RGBA: rgb(0xA0A5A9, 255), Edge: rgb(0x333333, 255)},
	{Code: ColorDarkBluish, Name: "Dark_Bluish_Grey", RGBA: rgb(0x6C6E68, 255), Edge: rgb(0x333333, 255)},
}

func (p *Palette) Add(e ColorEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[e.Code] = e
}

func (p *Palette) Lookup(c ColorCode) (ColorEntry, bool) {
	if c.IsDirect() {
		return ColorEntry{Code: c, RGBA: directRGBA(c), Edge: directEdge(c)}, true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[c]
	return e, ok
}

func (p *Palette) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// RGBA returns the drawing colour of c. Unknown codes draw in the default
// colour.
func (p *Palette) RGBA(c ColorCode) [4]float32 {
	if e, ok := p.Lookup(c); ok {
		return e.RGBA
	}
	if e, ok := p.Lookup(DefaultColorCode); ok {
		return e.RGBA
	}
	return rgb(0x9BA19D, 255)
}

// EdgeColorCode returns the edge colour of c as a direct colour code.
func (p *Palette) EdgeColorCode(c ColorCode) ColorCode {
	e, ok := p.Lookup(c)
	if !ok {
		e, ok = p.Lookup(DefaultColorCode)
	}
	if !ok {
		return DirectColor(0x33, 0x33, 0x33)
	}
	return DirectColor(uint8(e.Edge[0]*255+0.5), uint8(e.Edge[1]*255+0.5), uint8(e.Edge[2]*255+0.5))
}

func directRGBA(c ColorCode) [4]float32 {
	return rgb(uint32(c&0xFFFFFF), 255)
}

// directEdge picks a light edge for dark colours and a dark one otherwise.
func directEdge(c ColorCode) [4]float32 {
	v := directRGBA(c)
	if 0.299*v[0]+0.587*v[1]+0.114*v[2] < 0.25 {
		return rgb(0x595959, 255)
	}
	return rgb(0x333333, 255)
}

func parseHexRGB(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("%w: colour value %q", core.ErrMalformedField, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: colour value %q", core.ErrMalformedField, s)
	}
	return uint32(v), nil
}

// LoadLDConfig adds every "0 !COLOUR" definition read from r. Other lines
// are ignored. It returns the number of colours added and a diagnostic for
// each definition that could not be read.
func (p *Palette) LoadLDConfig(r io.Reader) (int, []ParseError) {
	var diagnostics []ParseError
	added := 0
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		field, rest := ReadNextField(line)
		if field != "0" {
			continue
		}
		field, rest = ReadNextField(rest)
		if field != "!COLOUR" {
			continue
		}
		entry, err := p.parseColourDefinition(rest)
		if err != nil {
			diagnostics = append(diagnostics, ParseError{Line: lineNumber, Text: line, Err: err})
			continue
		}
		p.Add(entry)
		added++
	}
	if err := scanner.Err(); err != nil {
		diagnostics = append(diagnostics, ParseError{Line: lineNumber, Err: err})
	}
	return added, diagnostics
}

func (p *Palette) parseColourDefinition(def string) (ColorEntry, error) {
	e := ColorEntry{}
	e.Name, def = ReadNextField(def)

	var haveCode, haveValue bool
	var value uint32
	alpha := uint8(255)
	edge := rgb(0x333333, 255)
	for def != "" {
		var key, arg string
		key, def = ReadNextField(def)
		switch key {
		case "CODE":
			arg, def = ReadNextField(def)
			code, err := ParseColorCode(arg)
			if err != nil {
				return e, err
			}
			e.Code, haveCode = code, true
		case "VALUE":
			arg, def = ReadNextField(def)
			v, err := parseHexRGB(arg)
			if err != nil {
				return e, err
			}
			value, haveValue = v, true
		case "EDGE":
			arg, def = ReadNextField(def)
			if strings.HasPrefix(arg, "#") {
				v, err := parseHexRGB(arg)
				if err != nil {
					return e, err
				}
				edge = rgb(v, 255)
			} else {
				code, err := ParseColorCode(arg)
				if err != nil {
					return e, err
				}
				if other, ok := p.Lookup(code); ok {
					edge = other.RGBA
				}
			}
		case "ALPHA":
			arg, def = ReadNextField(def)
			a, err := strconv.ParseUint(arg, 10, 8)
			if err != nil {
				return e, fmt.Errorf("%w: alpha %q", core.ErrMalformedField, arg)
			}
			alpha = uint8(a)
		case "LUMINANCE":
			arg, def = ReadNextField(def)
			l, err := strconv.ParseUint(arg, 10, 8)
			if err != nil {
				return e, fmt.Errorf("%w: luminance %q", core.ErrMalformedField, arg)
			}
			e.Luminance = uint8(l)
		case "MATERIAL":
			e.Material, def = strings.TrimSpace(def), ""
		default:
			// CHROME, PEARLESCENT, RUBBER, MATTE_METALLIC, METAL
			e.Material = key
		}
	}
	if e.Name == "" || !haveCode || !haveValue {
		return e, fmt.Errorf("%w: !COLOUR needs a name, CODE and VALUE", core.ErrMalformedField)
	}
	e.RGBA = rgb(value, alpha)
	e.Edge = edge
	return e, nil
}
