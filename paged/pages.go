package paged

import (
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/hupe1980/hugegraph/internal/errs"
)

const (
	// DefaultPageBytes is the byte budget of one page (32 KiB).
	DefaultPageBytes = 32 * 1024

	// MaxPageShift bounds the number of elements per page.
	MaxPageShift = 30

	// sliceHeaderBytes approximates the per-page reference overhead.
	sliceHeaderBytes = 24
)

// MemoryTracker accounts for page memory. *resource.Controller implements it.
type MemoryTracker interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

type options struct {
	pageSize  int
	pageBytes int
	tracker   MemoryTracker
}

// Option configures a paged structure.
type Option func(*options)

// WithPageSize fixes the number of elements per page. Values that are not a
// power of two are rounded up.
func WithPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithPageBytes sets the byte budget per page; the element count per page
// is derived with PageSizeFor. Ignored when WithPageSize is given.
func WithPageBytes(b int) Option {
	return func(o *options) {
		o.pageBytes = b
	}
}

// WithMemoryTracker accounts every allocated page against t.
func WithMemoryTracker(t MemoryTracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}

func buildOptions(elementBytes int, opts []Option) (options, uint) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var pageSize int
	switch {
	case o.pageSize > 0:
		pageSize = o.pageSize
	case o.pageBytes > 0:
		pageSize = PageSizeFor(o.pageBytes, elementBytes)
	default:
		pageSize = PageSizeFor(DefaultPageBytes, elementBytes)
	}

	return o, shiftFor(pageSize)
}

// shiftFor returns ceil(log2(n)), clamped to [0, MaxPageShift].
func shiftFor(n int) uint {
	if n <= 1 {
		return 0
	}
	shift := uint(bits.Len(uint(n - 1))) //nolint:gosec // n > 1
	if shift > MaxPageShift {
		shift = MaxPageShift
	}
	return shift
}

// PageSizeFor returns the number of elements per page: the largest power of
// two whose byte footprint fits bytesPerPage. It is at least 1.
func PageSizeFor(bytesPerPage, elementSize int) int {
	if elementSize <= 0 {
		elementSize = 1
	}
	n := bytesPerPage / elementSize
	if n <= 1 {
		return 1
	}
	p := 1 << (bits.Len(uint(n)) - 1) //nolint:gosec // n > 1
	if p > 1<<MaxPageShift {
		p = 1 << MaxPageShift
	}
	return p
}

// NumPagesFor returns ceil(size / 2^shift).
func NumPagesFor(size int64, shift uint) int64 {
	if size <= 0 {
		return 0
	}
	return ((size - 1) >> shift) + 1
}

// CapacityFor returns numPages << shift.
func CapacityFor(numPages int64, shift uint) int64 {
	return numPages << shift
}

// PageIndex returns the page holding index.
func PageIndex(index int64, shift uint) int64 {
	return index >> shift
}

// IndexInPage returns the slot of index within its page.
func IndexInPage(index int64, mask int64) int64 {
	return index & mask
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func pageBytes(pageSize int, elementBytes int) int64 {
	return int64(pageSize) * int64(elementBytes)
}

func acquire(t MemoryTracker, bytes int64) error {
	if t == nil {
		return nil
	}
	return t.AcquireMemory(bytes)
}

func release(t MemoryTracker, bytes int64) {
	if t != nil {
		t.ReleaseMemory(bytes)
	}
}

func checkSize(op string, size int64) error {
	if size < 0 {
		return fmt.Errorf("%w: %s: negative size %d", errs.ErrInvalidInput, op, size)
	}
	return nil
}
