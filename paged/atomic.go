package paged

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/hupe1980/hugegraph/internal/errs"
)

// AtomicInt64Array is a dense paged array of int64 with atomic element
// operations. It is the result array of choice when several partitions may
// touch the same index.
type AtomicInt64Array struct {
	pages     [][]atomic.Int64
	size      int64
	pageShift uint
	pageMask  int64
	tracker   MemoryTracker
}

// NewAtomicInt64 allocates an AtomicInt64Array of the given size.
func NewAtomicInt64(size int64, opts ...Option) (*AtomicInt64Array, error) {
	if err := checkSize("paged.NewAtomicInt64", size); err != nil {
		return nil, err
	}
	o, shift := buildOptions(8, opts)
	pages, err := allocPages[atomic.Int64](size, shift, 8, o.tracker)
	if err != nil {
		return nil, err
	}
	return &AtomicInt64Array{
		pages:     pages,
		size:      size,
		pageShift: shift,
		pageMask:  (int64(1) << shift) - 1,
		tracker:   o.tracker,
	}, nil
}

func (a *AtomicInt64Array) slot(index int64) *atomic.Int64 {
	return &a.pages[index>>a.pageShift][index&a.pageMask]
}

// Get atomically loads the element at index.
func (a *AtomicInt64Array) Get(index int64) int64 { return a.slot(index).Load() }

// Set atomically stores value at index.
func (a *AtomicInt64Array) Set(index int64, value int64) { a.slot(index).Store(value) }

// GetAndAdd atomically adds delta and returns the previous value.
func (a *AtomicInt64Array) GetAndAdd(index int64, delta int64) int64 {
	return a.slot(index).Add(delta) - delta
}

// AddTo atomically adds delta.
func (a *AtomicInt64Array) AddTo(index int64, delta int64) { a.slot(index).Add(delta) }

// CompareAndSwap atomically replaces expected with update and reports success.
func (a *AtomicInt64Array) CompareAndSwap(index int64, expected, update int64) bool {
	return a.slot(index).CompareAndSwap(expected, update)
}

// CompareAndExchange is CompareAndSwap that returns the witness value: the
// value seen before the operation. The swap happened iff witness == expected.
func (a *AtomicInt64Array) CompareAndExchange(index int64, expected, update int64) int64 {
	s := a.slot(index)
	for {
		current := s.Load()
		if current != expected {
			return current
		}
		if s.CompareAndSwap(expected, update) {
			return expected
		}
	}
}

// Update atomically replaces the element with fn(old) using a CAS loop and
// returns the new value. fn may be called more than once.
func (a *AtomicInt64Array) Update(index int64, fn func(int64) int64) int64 {
	s := a.slot(index)
	for {
		current := s.Load()
		next := fn(current)
		if s.CompareAndSwap(current, next) {
			return next
		}
	}
}

// Size returns the logical number of elements.
func (a *AtomicInt64Array) Size() int64 { return a.size }

// Fill stores value in every slot. Not atomic as a whole.
func (a *AtomicInt64Array) Fill(value int64) {
	for _, page := range a.pages {
		for i := range page {
			page[i].Store(value)
		}
	}
}

// Release drops the pages and returns the bytes freed.
func (a *AtomicInt64Array) Release() int64 {
	freed := int64(len(a.pages)) * pageBytes(1<<a.pageShift, 8)
	release(a.tracker, freed)
	a.pages = nil
	return freed
}

// AtomicFloat64Array is a dense paged array of float64 with atomic element
// operations, stored as IEEE-754 bits.
type AtomicFloat64Array struct {
	pages     [][]atomic.Uint64
	size      int64
	pageShift uint
	pageMask  int64
	tracker   MemoryTracker
}

// NewAtomicFloat64 allocates an AtomicFloat64Array of the given size.
func NewAtomicFloat64(size int64, opts ...Option) (*AtomicFloat64Array, error) {
	if err := checkSize("paged.NewAtomicFloat64", size); err != nil {
		return nil, err
	}
	o, shift := buildOptions(8, opts)
	pages, err := allocPages[atomic.Uint64](size, shift, 8, o.tracker)
	if err != nil {
		return nil, err
	}
	return &AtomicFloat64Array{
		pages:     pages,
		size:      size,
		pageShift: shift,
		pageMask:  (int64(1) << shift) - 1,
		tracker:   o.tracker,
	}, nil
}

func (a *AtomicFloat64Array) slot(index int64) *atomic.Uint64 {
	return &a.pages[index>>a.pageShift][index&a.pageMask]
}

// Get atomically loads the element at index.
func (a *AtomicFloat64Array) Get(index int64) float64 {
	return math.Float64frombits(a.slot(index).Load())
}

// Set atomically stores value at index.
func (a *AtomicFloat64Array) Set(index int64, value float64) {
	a.slot(index).Store(math.Float64bits(value))
}

// GetAndAdd atomically adds delta and returns the previous value.
func (a *AtomicFloat64Array) GetAndAdd(index int64, delta float64) float64 {
	s := a.slot(index)
	for {
		bits := s.Load()
		current := math.Float64frombits(bits)
		if s.CompareAndSwap(bits, math.Float64bits(current+delta)) {
			return current
		}
	}
}

// AddTo atomically adds delta.
func (a *AtomicFloat64Array) AddTo(index int64, delta float64) { a.GetAndAdd(index, delta) }

// CompareAndSwap compares bit patterns, so NaN payloads and signed zeros are
// distinguished.
func (a *AtomicFloat64Array) CompareAndSwap(index int64, expected, update float64) bool {
	return a.slot(index).CompareAndSwap(math.Float64bits(expected), math.Float64bits(update))
}

// Update atomically replaces the element with fn(old) and returns the new value.
func (a *AtomicFloat64Array) Update(index int64, fn func(float64) float64) float64 {
	s := a.slot(index)
	for {
		bits := s.Load()
		next := fn(math.Float64frombits(bits))
		if s.CompareAndSwap(bits, math.Float64bits(next)) {
			return next
		}
	}
}

// Size returns the logical number of elements.
func (a *AtomicFloat64Array) Size() int64 { return a.size }

// Fill stores value in every slot. Not atomic as a whole.
func (a *AtomicFloat64Array) Fill(value float64) {
	bits := math.Float64bits(value)
	for _, page := range a.pages {
		for i := range page {
			page[i].Store(bits)
		}
	}
}

// Release drops the pages and returns the bytes freed.
func (a *AtomicFloat64Array) Release() int64 {
	freed := int64(len(a.pages)) * pageBytes(1<<a.pageShift, 8)
	release(a.tracker, freed)
	a.pages = nil
	return freed
}

// SparseAtomicInt64Array is a sparse paged int64 array with atomic element
// operations and lazily allocated pages. Concurrent writers to the same index
// are safe.
type SparseAtomicInt64Array struct {
	pages        []atomic.Pointer[[]atomic.Int64]
	defaultValue int64
	capacity     int64
	pageShift    uint
	pageMask     int64
	pageSize     int

	allocatedPages atomic.Int64
}

// NewSparseAtomicInt64 creates a sparse atomic array over [0, capacity).
func NewSparseAtomicInt64(capacity int64, defaultValue int64, opts ...Option) (*SparseAtomicInt64Array, error) {
	if err := checkSize("paged.NewSparseAtomicInt64", capacity); err != nil {
		return nil, err
	}
	_, shift := buildOptions(8, opts)
	numPages := NumPagesFor(capacity, shift)
	if numPages > MaxSparsePages {
		return nil, fmt.Errorf("%w: paged.NewSparseAtomicInt64: capacity %d needs %d pages, limit is %d",
			errs.ErrInvalidInput, capacity, numPages, MaxSparsePages)
	}
	return &SparseAtomicInt64Array{
		pages:        make([]atomic.Pointer[[]atomic.Int64], numPages),
		defaultValue: defaultValue,
		capacity:     capacity,
		pageShift:    shift,
		pageMask:     (int64(1) << shift) - 1,
		pageSize:     1 << shift,
	}, nil
}

func (s *SparseAtomicInt64Array) page(pageIndex int64) *[]atomic.Int64 {
	ptr := &s.pages[pageIndex]
	if page := ptr.Load(); page != nil {
		return page
	}

	fresh := make([]atomic.Int64, s.pageSize)
	if s.defaultValue != 0 {
		for i := range fresh {
			fresh[i].Store(s.defaultValue)
		}
	}
	if ptr.CompareAndSwap(nil, &fresh) {
		s.allocatedPages.Add(1)
		return &fresh
	}
	return ptr.Load()
}

func (s *SparseAtomicInt64Array) slot(index int64) *atomic.Int64 {
	return &(*s.page(index >> s.pageShift))[index&s.pageMask]
}

// Get returns the value at index or the default.
func (s *SparseAtomicInt64Array) Get(index int64) int64 {
	if index < 0 || index >= s.capacity {
		return s.defaultValue
	}
	page := s.pages[index>>s.pageShift].Load()
	if page == nil {
		return s.defaultValue
	}
	return (*page)[index&s.pageMask].Load()
}

// Contains reports whether index holds a non-default value.
func (s *SparseAtomicInt64Array) Contains(index int64) bool {
	return s.Get(index) != s.defaultValue
}

// Set atomically stores value.
func (s *SparseAtomicInt64Array) Set(index int64, value int64) { s.slot(index).Store(value) }

// Put is the checked variant of Set.
func (s *SparseAtomicInt64Array) Put(index int64, value int64) error {
	if index < 0 || index >= s.capacity {
		return errs.OutOfRange("paged.SparseAtomicInt64Array.Put", index, s.capacity)
	}
	s.Set(index, value)
	return nil
}

// GetAndAdd atomically adds delta and returns the previous value.
func (s *SparseAtomicInt64Array) GetAndAdd(index int64, delta int64) int64 {
	return s.slot(index).Add(delta) - delta
}

// AddTo atomically adds delta.
func (s *SparseAtomicInt64Array) AddTo(index int64, delta int64) { s.slot(index).Add(delta) }

// CompareAndSwap atomically replaces expected with update.
func (s *SparseAtomicInt64Array) CompareAndSwap(index int64, expected, update int64) bool {
	return s.slot(index).CompareAndSwap(expected, update)
}

// CompareAndExchange returns the witness value; the swap happened iff it equals expected.
func (s *SparseAtomicInt64Array) CompareAndExchange(index int64, expected, update int64) int64 {
	slot := s.slot(index)
	for {
		current := slot.Load()
		if current != expected {
			return current
		}
		if slot.CompareAndSwap(expected, update) {
			return expected
		}
	}
}

// SetIfAbsent atomically stores value if the slot holds the default.
func (s *SparseAtomicInt64Array) SetIfAbsent(index int64, value int64) bool {
	return s.slot(index).CompareAndSwap(s.defaultValue, value)
}

// ForAll visits non-default values of allocated pages in index order.
func (s *SparseAtomicInt64Array) ForAll(fn func(index int64, value int64) bool) {
	for p := range s.pages {
		page := s.pages[p].Load()
		if page == nil {
			continue
		}
		base := int64(p) << s.pageShift
		for i := range *page {
			v := (*page)[i].Load()
			if v == s.defaultValue {
				continue
			}
			if !fn(base+int64(i), v) {
				return
			}
		}
	}
}

// Capacity returns the addressable index range.
func (s *SparseAtomicInt64Array) Capacity() int64 { return s.capacity }

// AllocatedPages returns the number of pages written so far.
func (s *SparseAtomicInt64Array) AllocatedPages() int64 { return s.allocatedPages.Load() }

func allocPages[E any](size int64, shift uint, elementBytes int, tracker MemoryTracker) ([][]E, error) {
	numPages := NumPagesFor(size, shift)
	pageSize := 1 << shift
	if err := acquire(tracker, numPages*pageBytes(pageSize, elementBytes)); err != nil {
		return nil, err
	}
	pages := make([][]E, numPages)
	for i := range pages {
		pages[i] = make([]E, pageSize)
	}
	return pages, nil
}
