// internal/app/system/editor/errors.go
package editor

import (
	"errors"
	"fmt"
)

// Reasons carried by a ValidationError. Test with errors.Is.
var (
	ErrNodeNotFound    = errors.New("folder not found")
	ErrParentNotFound  = errors.New("parent folder not found")
	ErrEmptyName       = errors.New("folder name is required")
	ErrInvalidPosition = errors.New("invalid position")
	ErrStaleHistory    = errors.New("history entry no longer applies to the current tree")
	ErrClosed          = errors.New("session is closed")
)

// ValidationError rejects a mutation before anything is changed.
type ValidationError struct {
	Op  string
	ID  string
	Err error
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LoadError reports a failed fetch of the folder collection.
type LoadError struct {
	TemplateID string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load folders for template %s: %v", e.TemplateID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// WriteError reports a rejected write. The optimistic local change has
// already been rolled back when it is returned.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: write failed: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func invalid(op, id string, err error) error {
	return &ValidationError{Op: op, ID: id, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
