package pattern

import (
	"errors"
	"fmt"
)

// ErrInvalidPattern is matched by every InvalidPatternError via errors.Is.
var ErrInvalidPattern = errors.New("invalid pattern")

// InvalidPatternError reports a pattern whose text cannot be compiled.
// It is never fatal for a batch: callers skip the pattern and keep going.
type InvalidPatternError struct {
	Pattern    string // Pattern text as entered by the user
	Diagnostic string // Compiler message
	Err        error  // Underlying compiler error, nil for empty patterns
}

// Error implements the error interface for InvalidPatternError.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Diagnostic)
}

// Unwrap returns the underlying compiler error.
func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidPattern.
func (e *InvalidPatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}

func newInvalidPatternError(text string, err error) *InvalidPatternError {
	return &InvalidPatternError{
		Pattern:    text,
		Diagnostic: err.Error(),
		Err:        err,
	}
}
