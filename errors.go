package hugegraph

import (
	"github.com/hupe1980/hugegraph/concurrency"
	"github.com/hupe1980/hugegraph/internal/errs"
)

var (
	// ErrOutOfRange is returned when an index or node id is outside the valid domain.
	ErrOutOfRange = errs.ErrOutOfRange
	// ErrMalformedRange is returned for ranges with start > end or negative bounds.
	ErrMalformedRange = errs.ErrMalformedRange
	// ErrUnsupported is returned for operations on degenerate instances.
	ErrUnsupported = errs.ErrUnsupported
	// ErrCancelled is returned when a computation is stopped cooperatively.
	ErrCancelled = errs.ErrCancelled
	// ErrInvalidInput is returned by construction-time validation.
	ErrInvalidInput = errs.ErrInvalidInput
	// ErrMemoryLimitExceeded is returned when an allocation exceeds the memory budget.
	ErrMemoryLimitExceeded = errs.ErrMemoryLimitExceeded
)

// RangeError carries the index and limit of an out-of-range access.
type RangeError = errs.RangeError

// TaskError reports the failure of one partition task.
type TaskError = concurrency.TaskError
