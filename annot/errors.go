package annot

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ArgumentError is returned when a caller passes invalid input such as a bad point count or an invalid attribute value
type ArgumentError struct {
	Message string
	// Errors holds per-element failures of a composite (skeleton) save
	Errors []error
}

func (e *ArgumentError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// DataError signals an internal inconsistency: no interpolation bound found, unknown
// shape type, an empty track.
type DataError struct {
	Message string
}

func (e *DataError) Error() string {
	return e.Message
}

// ScriptingError signals integration misuse, e.g. asking a single-frame object for another frame.
type ScriptingError struct {
	Message string
}

func (e *ScriptingError) Error() string {
	return e.Message
}

func newArgumentError(format string, args ...any) error {
	return errors.WithStack(&ArgumentError{Message: fmt.Sprintf(format, args...)})
}

func newDataError(format string, args ...any) error {
	return errors.WithStack(&DataError{Message: fmt.Sprintf(format, args...)})
}

func newScriptingError(format string, args ...any) error {
	return errors.WithStack(&ScriptingError{Message: fmt.Sprintf(format, args...)})
}

// IsArgumentError reports whether err (or anything it wraps) is an ArgumentError
func IsArgumentError(err error) bool {
	var target *ArgumentError
	return errors.As(err, &target)
}

// IsDataError reports whether err (or anything it wraps) is a DataError
func IsDataError(err error) bool {
	var target *DataError
	return errors.As(err, &target)
}

// IsScriptingError reports whether err (or anything it wraps) is a ScriptingError
func IsScriptingError(err error) bool {
	var target *ScriptingError
	return errors.As(err, &target)
}
