package search

import (
	"errors"
	"fmt"
)

// Errors returned by search operations.
var (
	// ErrStaleMatch indicates a replace target is not a current match.
	ErrStaleMatch = errors.New("range is not a current match")

	// ErrCancelled indicates an asynchronous search was cancelled.
	ErrCancelled = errors.New("search cancelled")

	// ErrClosed indicates the search context was closed.
	ErrClosed = errors.New("search context closed")

	// ErrNotFinished is returned by Task.Finish before the task completes.
	ErrNotFinished = errors.New("search task not finished")

	// ErrTaskFailed indicates an asynchronous search panicked while
	// scanning.
	ErrTaskFailed = errors.New("search task failed")

	// ErrPatternCompile is the kind of every PatternError.
	ErrPatternCompile = errors.New("pattern compile error")
)

// PatternError reports a search pattern that failed to compile. It does not
// stop the context from working; all searches report no matches until the
// settings change.
type PatternError struct {
	Pattern string
	Err     error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid search pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying compile error.
func (e *PatternError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPatternCompile) true for every PatternError.
func (e *PatternError) Is(target error) bool {
	return target == ErrPatternCompile
}
