package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when an index or node id lies outside the
	// valid domain of the operation.
	ErrOutOfRange = errors.New("index out of range")

	// ErrMalformedRange is returned when a range-scoped operation receives
	// start > end or negative bounds.
	ErrMalformedRange = errors.New("malformed range")

	// ErrUnsupported is returned when an operation is invoked on an empty or
	// degenerate instance whose result would otherwise be undefined.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrCancelled is returned when cooperative termination was observed.
	ErrCancelled = errors.New("computation cancelled")

	// ErrInvalidInput is returned by construction-time validation
	// (unsorted ids, duplicates, negative ids, bad option values).
	ErrInvalidInput = errors.New("invalid input")

	// ErrMemoryLimitExceeded is returned when an allocation would exceed the
	// configured memory budget.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
)

// RangeError describes an index outside [0, Limit).
//
// It matches ErrOutOfRange via errors.Is.
type RangeError struct {
	Op    string
	Index int64
	Limit int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Limit)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// OutOfRange returns a *RangeError for op.
func OutOfRange(op string, index, limit int64) error {
	return &RangeError{Op: op, Index: index, Limit: limit}
}

// CheckRange validates 0 <= start <= end <= size.
func CheckRange(op string, start, end, size int64) error {
	if start < 0 || end < 0 || start > end {
		return fmt.Errorf("%w: %s: [%d, %d)", ErrMalformedRange, op, start, end)
	}
	if end > size {
		return OutOfRange(op, end, size+1)
	}
	return nil
}
