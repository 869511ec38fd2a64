package paged

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/hupe1980/hugegraph/internal/errs"
)

// MaxSparsePages bounds the page table of a SparseArray (1 GiB of page
// references).
const MaxSparsePages = 1 << 27

// pageRefBytes is the size of one page-table entry.
const pageRefBytes = 8

// SparseArray is a fixed-capacity paged array whose pages are allocated on
// first write. Unallocated pages read as the configured default value.
//
// Page installation is published with a CAS, so goroutines writing to
// different pages never lose each other's pages. Writes to the same element
// from several goroutines are not safe; use SparseAtomicInt64Array for that.
type SparseArray[T comparable] struct {
	pages        []atomic.Pointer[[]T]
	defaultValue T
	capacity     int64
	pageShift    uint
	pageMask     int64
	pageSize     int
	elementBytes int
	tracker      MemoryTracker

	allocatedPages atomic.Int64
}

// NewSparse creates a SparseArray covering [0, capacity) that reads as
// defaultValue until written.
//
// The page table is allocated eagerly and accounted against the memory
// tracker, as is every page written later. Capacities needing more than
// MaxSparsePages pages fail with ErrInvalidInput.
func NewSparse[T comparable](capacity int64, defaultValue T, opts ...Option) (*SparseArray[T], error) {
	if err := checkSize("paged.NewSparse", capacity); err != nil {
		return nil, err
	}

	elementBytes := sizeOf[T]()
	o, shift := buildOptions(elementBytes, opts)

	numPages := NumPagesFor(capacity, shift)
	if numPages > MaxSparsePages {
		return nil, fmt.Errorf("%w: paged.NewSparse: capacity %d needs %d pages, limit is %d",
			errs.ErrInvalidInput, capacity, numPages, MaxSparsePages)
	}
	if err := acquire(o.tracker, numPages*pageRefBytes); err != nil {
		return nil, err
	}

	return &SparseArray[T]{
		pages:        make([]atomic.Pointer[[]T], numPages),
		defaultValue: defaultValue,
		capacity:     capacity,
		pageShift:    shift,
		pageMask:     (int64(1) << shift) - 1,
		pageSize:     1 << shift,
		elementBytes: elementBytes,
		tracker:      o.tracker,
	}, nil
}

// SparsePagesFor returns the page-table length of a SparseArray[T] with the
// given capacity and options.
func SparsePagesFor[T comparable](capacity int64, opts ...Option) int64 {
	_, shift := buildOptions(sizeOf[T](), opts)
	return NumPagesFor(capacity, shift)
}

// Get returns the value at index, or the default for unallocated pages and
// indices outside [0, Capacity()).
func (s *SparseArray[T]) Get(index int64) T {
	if index < 0 || index >= s.capacity {
		return s.defaultValue
	}
	page := s.pages[index>>s.pageShift].Load()
	if page == nil {
		return s.defaultValue
	}
	return (*page)[index&s.pageMask]
}

// Contains reports whether index holds a non-default value. It never
// allocates a page.
func (s *SparseArray[T]) Contains(index int64) bool {
	return s.Get(index) != s.defaultValue
}

// Set stores value at index, allocating its page if needed.
// index must be in [0, Capacity()). Set panics when the memory tracker
// refuses a new page; Put returns that error instead.
func (s *SparseArray[T]) Set(index int64, value T) {
	page := s.mustPage(index >> s.pageShift)
	(*page)[index&s.pageMask] = value
}

// Put is the checked variant of Set.
func (s *SparseArray[T]) Put(index int64, value T) error {
	if index < 0 || index >= s.capacity {
		return errs.OutOfRange("paged.SparseArray.Put", index, s.capacity)
	}
	page, err := s.page(index >> s.pageShift)
	if err != nil {
		return err
	}
	(*page)[index&s.pageMask] = value
	return nil
}

// SetIfAbsent stores value only if index currently holds the default value.
// It reports whether the value was stored. Like Set, it panics when the
// memory tracker refuses a new page.
func (s *SparseArray[T]) SetIfAbsent(index int64, value T) bool {
	page := s.mustPage(index >> s.pageShift)
	slot := index & s.pageMask
	if (*page)[slot] != s.defaultValue {
		return false
	}
	(*page)[slot] = value
	return true
}

func (s *SparseArray[T]) mustPage(pageIndex int64) *[]T {
	page, err := s.page(pageIndex)
	if err != nil {
		panic(err)
	}
	return page
}

func (s *SparseArray[T]) page(pageIndex int64) (*[]T, error) {
	ptr := &s.pages[pageIndex]
	if page := ptr.Load(); page != nil {
		return page, nil
	}

	bytes := pageBytes(s.pageSize, s.elementBytes)
	if err := acquire(s.tracker, bytes); err != nil {
		return nil, err
	}

	fresh := make([]T, s.pageSize)
	var zero T
	if s.defaultValue != zero {
		for i := range fresh {
			fresh[i] = s.defaultValue
		}
	}

	if ptr.CompareAndSwap(nil, &fresh) {
		s.allocatedPages.Add(1)
		return &fresh, nil
	}
	release(s.tracker, bytes)
	return ptr.Load(), nil
}

// ForAll calls fn for every non-default element in ascending index order,
// visiting allocated pages only. Iteration stops when fn returns false.
func (s *SparseArray[T]) ForAll(fn func(index int64, value T) bool) {
	for p := range s.pages {
		page := s.pages[p].Load()
		if page == nil {
			continue
		}
		base := int64(p) << s.pageShift
		for i, v := range *page {
			if v == s.defaultValue {
				continue
			}
			if !fn(base+int64(i), v) {
				return
			}
		}
	}
}

// All returns an iterator over non-default elements.
func (s *SparseArray[T]) All() iter.Seq2[int64, T] {
	return func(yield func(int64, T) bool) {
		s.ForAll(yield)
	}
}

// Default returns the configured default value.
func (s *SparseArray[T]) Default() T { return s.defaultValue }

// Capacity returns the addressable index range.
func (s *SparseArray[T]) Capacity() int64 { return s.capacity }

// AllocatedPages returns the number of pages written so far.
func (s *SparseArray[T]) AllocatedPages() int64 { return s.allocatedPages.Load() }

// SizeOf returns the bytes held by allocated pages and the page table.
func (s *SparseArray[T]) SizeOf() int64 {
	return s.allocatedPages.Load()*pageBytes(s.pageSize, s.elementBytes) + int64(len(s.pages))*pageRefBytes
}

// Release drops every page and the page table and returns the freed bytes to
// the memory tracker. The array reads as empty afterwards.
func (s *SparseArray[T]) Release() int64 {
	if s.pages == nil {
		return 0
	}
	freed := s.SizeOf()
	release(s.tracker, freed)
	s.pages = nil
	s.capacity = 0
	s.allocatedPages.Store(0)
	return freed
}
