package concurrency

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/hugegraph/internal/errs"
)

// ErrCancelled is returned when a run is stopped cooperatively.
var ErrCancelled = errs.ErrCancelled

// TaskError reports the failure of one task. Panics inside tasks are
// recovered into a TaskError with Panicked set.
type TaskError struct {
	Index    int
	Err      error
	Panicked bool
}

func (e *TaskError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("task %d panicked: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("task %d failed: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// IsCancellation reports whether err stems from cooperative termination or
// a done context.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// cancelled wraps cause with ErrCancelled unless it already is one.
func cancelled(cause error) error {
	if cause == nil || errors.Is(cause, ErrCancelled) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
