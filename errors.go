package serix

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for the generation pipeline.
var (
	// ErrBadConfig is returned when generation options are malformed
	// or conflicting at merge time.
	ErrBadConfig = errors.New("serix: invalid configuration")

	// ErrDuplicateKey is returned when two fields of a class resolve
	// to the same output key.
	ErrDuplicateKey = errors.New("serix: duplicate output key")

	// ErrClassNotFound is returned when a target declaration cannot be
	// located by name in its source file.
	ErrClassNotFound = errors.New("serix: class not found")

	// ErrPatchRange is returned when a patch instruction references a
	// byte range outside the current file contents.
	ErrPatchRange = errors.New("serix: patch range out of bounds")
)

// ConfigurationError reports malformed or conflicting generation options.
// Element names the class, field, or option the payload belongs to.
type ConfigurationError struct {
	Element string
	Message string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("serix: configuration error on %s: %s", e.Element, e.Message)
	}
	return fmt.Sprintf("serix: configuration error: %s", e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrBadConfig
}

// NewConfigurationError returns a new ConfigurationError for the given element.
func NewConfigurationError(element, message string) *ConfigurationError {
	return &ConfigurationError{Element: element, Message: message}
}

// IsConfigurationError reports whether the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrBadConfig)
}

// DuplicateKeyError reports two fields resolving to the same output key.
// It always names both offending fields; the collision is never resolved
// silently by picking one.
type DuplicateKeyError struct {
	Class  string
	Key    string
	First  string
	Second string
}

// Error returns the error string.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("serix: class %s: fields %s and %s both resolve to output key %q",
		e.Class, e.First, e.Second, e.Key)
}

// Is reports whether the target matches the sentinel error for DuplicateKeyError.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// NewDuplicateKeyError returns a new DuplicateKeyError naming both fields.
func NewDuplicateKeyError(class, key, first, second string) *DuplicateKeyError {
	return &DuplicateKeyError{Class: class, Key: key, First: first, Second: second}
}

// IsDuplicateKey reports whether the error is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateKeyError
	return errors.As(err, &e) || errors.Is(err, ErrDuplicateKey)
}

// ClassNotFoundError reports a declaration that could not be located by
// name in its source file. It is fatal for that element's in-place patch
// only; companion-file generation for the same class is unaffected.
type ClassNotFoundError struct {
	Class string
	Path  string
}

// Error returns the error string.
func (e *ClassNotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("serix: class %s not found in %s", e.Class, e.Path)
	}
	return fmt.Sprintf("serix: class %s not found", e.Class)
}

// Is reports whether the target matches the sentinel error for ClassNotFoundError.
func (e *ClassNotFoundError) Is(target error) bool {
	return target == ErrClassNotFound
}

// NewClassNotFoundError returns a new ClassNotFoundError.
func NewClassNotFoundError(class, path string) *ClassNotFoundError {
	return &ClassNotFoundError{Class: class, Path: path}
}

// IsClassNotFound reports whether the error is a ClassNotFoundError.
func IsClassNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *ClassNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrClassNotFound)
}

// PatchRangeError reports a patch instruction whose byte range is invalid
// against the current file contents. It is fatal for that file's whole
// batch; nothing is written to the file.
type PatchRangeError struct {
	Path  string
	Start int
	End   int
	Len   int
}

// Error returns the error string.
func (e *PatchRangeError) Error() string {
	return fmt.Sprintf("serix: patch range [%d:%d) out of bounds for %s (len=%d)",
		e.Start, e.End, e.Path, e.Len)
}

// Is reports whether the target matches the sentinel error for PatchRangeError.
func (e *PatchRangeError) Is(target error) bool {
	return target == ErrPatchRange
}

// NewPatchRangeError returns a new PatchRangeError.
func NewPatchRangeError(path string, start, end, length int) *PatchRangeError {
	return &PatchRangeError{Path: path, Start: start, End: end, Len: length}
}

// IsPatchRange reports whether the error is a PatchRangeError.
func IsPatchRange(err error) bool {
	if err == nil {
		return false
	}
	var e *PatchRangeError
	return errors.As(err, &e) || errors.Is(err, ErrPatchRange)
}

// CoercionError reports a value that could not be coerced to the declared
// field type during decoding.
type CoercionError struct {
	Key  string
	Want string
	Got  any
}

// Error returns the error string.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("serix: field %q: cannot coerce %T to %s", e.Key, e.Got, e.Want)
}

// NewCoercionError returns a new CoercionError.
func NewCoercionError(key, want string, got any) *CoercionError {
	return &CoercionError{Key: key, Want: want, Got: got}
}

// IsCoercion reports whether the error is a CoercionError.
func IsCoercion(err error) bool {
	if err == nil {
		return false
	}
	var e *CoercionError
	return errors.As(err, &e)
}
