package ldraw

import (
	"fmt"

	"github.com/spaghettifunk/bricklayer/engine/core"
)

// Kind tags every directive variant.
type Kind int

const (
	KindComment Kind = iota
	KindPart
	KindLine
	KindTriangle
	KindQuadrilateral
	KindConditionalLine
	KindStep
	KindModel
	KindFile
	KindLSynth
)

var kindNames = [...]string{
	KindComment:         "comment",
	KindPart:            "part",
	KindLine:            "line",
	KindTriangle:        "triangle",
	KindQuadrilateral:   "quadrilateral",
	KindConditionalLine: "conditional line",
	KindStep:            "step",
	KindModel:           "model",
	KindFile:            "file",
	KindLSynth:          "synthesized group",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ClassForLineType maps the leading number of an LDraw line to the kind of
// directive that parses it.
func ClassForLineType(lineType int) (Kind, error) {
	switch lineType {
	case 0:
		return KindComment, nil
	case 1:
		return KindPart, nil
	case 2:
		return KindLine, nil
	case 3:
		return KindTriangle, nil
	case 4:
		return KindQuadrilateral, nil
	case 5:
		return KindConditionalLine, nil
	}
	return KindComment, fmt.Errorf("%w: %d", core.ErrUnsupportedLineType, lineType)
}
