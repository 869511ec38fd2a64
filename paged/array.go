package paged

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/hupe1980/hugegraph/internal/errs"
)

// growthDivisor oversizes the page-reference slice by 1/growthDivisor on growth.
const growthDivisor = 8

// Array is a dense array of T stored in fixed-size pages.
//
// Every page is allocated in full, so Capacity() is a multiple of the page
// size and indices in [Size(), Capacity()) are readable and writable.
type Array[T any] struct {
	pages     [][]T
	size      int64
	pageShift uint
	pageMask  int64

	elementBytes int
	tracker      MemoryTracker
}

// New allocates an Array of the given logical size.
func New[T any](size int64, opts ...Option) (*Array[T], error) {
	if err := checkSize("paged.New", size); err != nil {
		return nil, err
	}

	elementBytes := sizeOf[T]()
	o, shift := buildOptions(elementBytes, opts)

	a := &Array[T]{
		pageShift:    shift,
		pageMask:     (int64(1) << shift) - 1,
		elementBytes: elementBytes,
		tracker:      o.tracker,
	}
	if err := a.Grow(size); err != nil {
		return nil, err
	}
	return a, nil
}

// Of wraps values into an Array with default page sizing.
func Of[T any](values ...T) *Array[T] {
	a, _ := New[T](int64(len(values)))
	for i, v := range values {
		a.Set(int64(i), v)
	}
	return a
}

// Get returns the element at index.
// index must be in [0, Capacity()); this is not checked beyond Go's bounds checks.
func (a *Array[T]) Get(index int64) T {
	return a.pages[index>>a.pageShift][index&a.pageMask]
}

// Set stores value at index. Same precondition as Get.
func (a *Array[T]) Set(index int64, value T) {
	a.pages[index>>a.pageShift][index&a.pageMask] = value
}

// At is the checked variant of Get.
func (a *Array[T]) At(index int64) (T, error) {
	if index < 0 || index >= a.Capacity() {
		var zero T
		return zero, errs.OutOfRange("paged.Array.At", index, a.Capacity())
	}
	return a.Get(index), nil
}

// Put is the checked variant of Set.
func (a *Array[T]) Put(index int64, value T) error {
	if index < 0 || index >= a.Capacity() {
		return errs.OutOfRange("paged.Array.Put", index, a.Capacity())
	}
	a.Set(index, value)
	return nil
}

// Update replaces the element at index with fn(old). Not atomic.
func (a *Array[T]) Update(index int64, fn func(T) T) {
	page := a.pages[index>>a.pageShift]
	slot := index & a.pageMask
	page[slot] = fn(page[slot])
}

// Size returns the logical number of elements.
func (a *Array[T]) Size() int64 { return a.size }

// Capacity returns the number of addressable slots (pages << shift).
func (a *Array[T]) Capacity() int64 {
	return CapacityFor(int64(len(a.pages)), a.pageShift)
}

// PageSize returns the number of elements per page.
func (a *Array[T]) PageSize() int { return 1 << a.pageShift }

// PageShift returns log2(PageSize()).
func (a *Array[T]) PageShift() uint { return a.pageShift }

// Pages returns the number of allocated pages.
func (a *Array[T]) Pages() int { return len(a.pages) }

// SizeOf returns the bytes held by the allocated pages.
func (a *Array[T]) SizeOf() int64 {
	return int64(len(a.pages))*pageBytes(a.PageSize(), a.elementBytes) + int64(cap(a.pages))*sliceHeaderBytes
}

// Grow ensures Size() >= newSize, allocating whole pages as needed.
//
// Existing pages are never copied; only the page-reference slice is
// reallocated, oversized by 1/8 so repeated growth stays amortized.
// Grow must not run concurrently with any other method.
func (a *Array[T]) Grow(newSize int64) error {
	if err := checkSize("paged.Array.Grow", newSize); err != nil {
		return err
	}
	if newSize <= a.size {
		return nil
	}

	need := NumPagesFor(newSize, a.pageShift)
	have := int64(len(a.pages))
	if need > have {
		pageSize := a.PageSize()
		if err := acquire(a.tracker, (need-have)*pageBytes(pageSize, a.elementBytes)); err != nil {
			return err
		}

		if need > int64(cap(a.pages)) {
			newCap := need + max(need/growthDivisor, 1)
			grown := make([][]T, have, newCap)
			copy(grown, a.pages)
			a.pages = grown
		}
		for i := have; i < need; i++ {
			a.pages = append(a.pages, make([]T, pageSize))
		}
	}

	a.size = newSize
	return nil
}

// Fill sets every slot in [0, Capacity()) to value.
func (a *Array[T]) Fill(value T) {
	for _, page := range a.pages {
		for i := range page {
			page[i] = value
		}
	}
}

// SetAll sets each index in [0, Size()) to gen(index).
func (a *Array[T]) SetAll(gen func(index int64) T) {
	for p, page := range a.pages {
		base := int64(p) << a.pageShift
		for i := range page {
			idx := base + int64(i)
			if idx >= a.size {
				return
			}
			page[i] = gen(idx)
		}
	}
}

// CopyTo copies the first length elements into dst and zeroes the remainder
// of dst's logical size. length is clamped to both sizes.
func (a *Array[T]) CopyTo(dst *Array[T], length int64) {
	length = min(length, a.size, dst.size)

	var zero T
	for i := int64(0); i < dst.size; i++ {
		if i < length {
			dst.Set(i, a.Get(i))
		} else {
			dst.Set(i, zero)
		}
	}
}

// ToSlice copies the logical contents into a plain slice.
func (a *Array[T]) ToSlice() []T {
	out := make([]T, 0, a.size)
	c := a.NewCursor()
	for c.Next() {
		out = append(out, c.Array[c.Offset:c.Limit]...)
	}
	return out
}

// NewCursor returns a cursor over [0, Size()).
func (a *Array[T]) NewCursor() *Cursor[T] {
	c := &Cursor[T]{}
	a.InitCursor(c)
	return c
}

// InitCursor resets c to iterate [0, Size()).
func (a *Array[T]) InitCursor(c *Cursor[T]) *Cursor[T] {
	c.init(a.pages, a.pageShift, 0, a.size)
	return c
}

// InitCursorRange resets c to iterate [start, end).
// It fails unless 0 <= start <= end <= Size().
func (a *Array[T]) InitCursorRange(c *Cursor[T], start, end int64) (*Cursor[T], error) {
	if err := errs.CheckRange("paged.Array.InitCursorRange", start, end, a.size); err != nil {
		return nil, err
	}
	c.init(a.pages, a.pageShift, start, end)
	return c, nil
}

// Release drops all pages and returns the number of bytes freed.
func (a *Array[T]) Release() int64 {
	if a.pages == nil {
		return 0
	}
	freed := int64(len(a.pages)) * pageBytes(a.PageSize(), a.elementBytes)
	release(a.tracker, freed)
	a.pages = nil
	a.size = 0
	return freed
}

func (a *Array[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := int64(0); i < a.size; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprint(&sb, a.Get(i))
	}
	sb.WriteByte(']')
	return sb.String()
}

// BinarySearch returns the index of value in an ascending array, or
// -(insertionPoint)-1 when absent. An empty array yields ErrUnsupported.
func BinarySearch[T cmp.Ordered](a *Array[T], value T) (int64, error) {
	if a.size == 0 {
		return 0, fmt.Errorf("%w: binary search on empty array", errs.ErrUnsupported)
	}

	lo, hi := int64(0), a.size-1
	for lo <= hi {
		mid := int64(uint64(lo+hi) >> 1)
		switch v := a.Get(mid); {
		case v < value:
			lo = mid + 1
		case v > value:
			hi = mid - 1
		default:
			return mid, nil
		}
	}
	return -(lo + 1), nil
}
