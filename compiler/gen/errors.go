// Package gen composes deterministic codec fragments for the classes of
// one unit: it merges configuration layers, selects the participating
// fields, emits decode/encode fragments, and assembles the unit's
// aggregate output plus any in-place patch instructions.
package gen

import (
	"errors"
	"strings"
)

// ErrGenerationFailed indicates a code generation failure.
var ErrGenerationFailed = errors.New("serix: code generation failed")

// GenerationError represents a per-element code generation error.
type GenerationError struct {
	Phase   string // "select", "emit", "compose", "patch"
	Element string // originating class or field
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("serix: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.Element != "" {
		b.WriteString(" on ")
		b.WriteString(e.Element)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, element, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		Element: element,
		Message: message,
		Cause:   cause,
	}
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
