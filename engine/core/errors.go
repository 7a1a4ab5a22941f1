package core

import (
	"errors"
)

var (
	// Parse-level, recoverable per line.
	ErrUnsupportedLineType = errors.New("unsupported line type")
	ErrMalformedField      = errors.New("malformed field")
	ErrUnterminatedBlock   = errors.New("unterminated block")

	// Structural invariants. These are raised with panic.
	ErrCyclicTree          = errors.New("directive would become its own ancestor")
	ErrCyclicReference     = errors.New("model refers back to itself")
	ErrVertexCountMismatch = errors.New("vertex buffer write did not match the counted size")

	// Synthesis.
	ErrUnsupportedSynthesisClass = errors.New("unsupported synthesis class")

	// Library and configuration.
	ErrInvalidLDrawFolder = errors.New("not an LDraw folder")
	ErrPartNotFound       = errors.New("part not found")
	ErrInvalidFilename    = errors.New("invalid LDraw filename")
	ErrInvalidConfig      = errors.New("invalid configuration")
)
