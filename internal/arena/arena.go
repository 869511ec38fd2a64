package arena

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/hugegraph/internal/conv"
	"github.com/hupe1980/hugegraph/internal/mem"
	"github.com/hupe1980/hugegraph/internal/mmap"
)

// MemoryAcquirer accounts for page memory.
type MemoryAcquirer interface {
	AcquireMemory(amount int64) error
	ReleaseMemory(amount int64)
}

var (
	// ErrClosed is returned when allocating from a freed arena.
	ErrClosed = errors.New("arena: closed")
	// ErrMaxPagesExceeded is returned when the page index no longer fits the address space.
	ErrMaxPagesExceeded = errors.New("arena: max pages exceeded")
)

const (
	// DefaultPageShift gives 256 KiB pages.
	DefaultPageShift = 18
	// DefaultPageSize is the default size of a page.
	DefaultPageSize = 1 << DefaultPageShift
	// minPageShift keeps tiny test pages meaningful.
	minPageShift = 4
)

// Stats tracks arena memory usage metrics.
type Stats struct {
	PagesAllocated uint64 // pages currently held, including oversized pages
	OversizedPages uint64 // dedicated pages for blocks larger than the page size
	BytesReserved  uint64 // total page bytes
	BytesUsed      uint64 // bytes handed out by Alloc
	TotalAllocs    uint64 // cumulative allocation count
}

type atomicStats struct {
	PagesAllocated atomic.Uint64
	OversizedPages atomic.Uint64
	BytesReserved  atomic.Uint64
	BytesUsed      atomic.Uint64
	TotalAllocs    atomic.Uint64
}

type page struct {
	data    []byte
	mapping *mmap.Mapping // non-nil for off-heap pages
	offset  atomic.Int64  // next free byte; accessed concurrently
	index   uint64
}

// Arena is a page-based bump allocator.
type Arena struct {
	pageSize  int
	pageShift uint
	pageMask  uint64
	maxPages  uint64

	pages   atomic.Pointer[[]*page] // copy-on-grow, readers never lock
	current atomic.Pointer[page]
	mu      sync.Mutex // protects page installation

	stats    atomicStats
	offHeap  bool
	acquirer MemoryAcquirer
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithMemoryAcquirer sets the memory acquirer for the arena.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(a *Arena) {
		a.acquirer = acquirer
	}
}

// WithOffHeap backs pages by anonymous mappings instead of heap slices.
func WithOffHeap(offHeap bool) Option {
	return func(a *Arena) {
		a.offHeap = offHeap
	}
}

// New creates a new Arena. pageSize is rounded up to a power of two;
// values <= 0 select DefaultPageSize.
func New(pageSize int, opts ...Option) (*Arena, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	pageShift := bits.Len(uint(pageSize - 1)) //nolint:gosec // pageSize > 0
	if pageShift < minPageShift {
		pageShift = minPageShift
	}
	pageSize = 1 << pageShift

	a := &Arena{
		pageSize:  pageSize,
		pageShift: uint(pageShift), //nolint:gosec // < 64
		pageMask:  uint64(pageSize - 1),
		maxPages:  1 << (63 - pageShift),
	}

	for _, opt := range opts {
		opt(a)
	}

	empty := make([]*page, 0, 16)
	a.pages.Store(&empty)

	a.mu.Lock()
	p, err := a.installPageLocked(a.pageSize)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	a.current.Store(p)

	// Reserve address 0 as null
	if _, _, err := a.Alloc(1); err != nil {
		return nil, err
	}
	return a, nil
}

// PageSize returns the nominal page size in bytes.
func (a *Arena) PageSize() int { return a.pageSize }

// PageShift returns log2 of the page size.
func (a *Arena) PageShift() uint { return a.pageShift }

func (a *Arena) installPageLocked(size int) (*page, error) {
	var current []*page
	if ps := a.pages.Load(); ps != nil {
		current = *ps
	}

	idx, err := conv.IntToUint64(len(current))
	if err != nil {
		return nil, err
	}
	if idx >= a.maxPages {
		return nil, ErrMaxPagesExceeded
	}

	if a.acquirer != nil {
		if err := a.acquirer.AcquireMemory(int64(size)); err != nil {
			return nil, err
		}
	}

	p := &page{index: idx}
	if a.offHeap {
		mapping, err := mmap.MapAnon(size)
		if err != nil {
			if a.acquirer != nil {
				a.acquirer.ReleaseMemory(int64(size))
			}
			return nil, fmt.Errorf("failed to map anonymous memory for page: %w", err)
		}
		p.mapping = mapping
		p.data = mapping.Bytes()
	} else {
		p.data = mem.Page(size)
	}

	grown := make([]*page, len(current)+1, max(2*len(current), 16))
	copy(grown, current)
	grown[len(current)] = p
	a.pages.Store(&grown)

	sizeU64, _ := conv.IntToUint64(size)
	a.stats.PagesAllocated.Add(1)
	a.stats.BytesReserved.Add(sizeU64)
	return p, nil
}

// Alloc reserves size bytes and returns the block's global address and its
// zero-filled backing slice (len == cap == size).
func (a *Arena) Alloc(size int) (uint64, []byte, error) {
	if size <= 0 {
		return 0, nil, nil
	}

	if size > a.pageSize {
		return a.allocOversized(size)
	}

	for {
		curr := a.current.Load()
		if curr == nil {
			return 0, nil, ErrClosed
		}

		if addr, data, ok := a.tryAllocInPage(curr, size); ok {
			return addr, data, nil
		}

		// Current page is full; install a new one unless someone else did.
		if a.current.Load() != curr {
			continue
		}

		a.mu.Lock()
		if a.current.Load() != curr {
			a.mu.Unlock()
			continue
		}
		p, err := a.installPageLocked(a.pageSize)
		if err != nil {
			a.mu.Unlock()
			return 0, nil, err
		}
		a.current.Store(p)
		a.mu.Unlock()
	}
}

func (a *Arena) allocOversized(size int) (uint64, []byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.Load() == nil {
		return 0, nil, ErrClosed
	}

	p, err := a.installPageLocked(size)
	if err != nil {
		return 0, nil, err
	}
	p.offset.Store(int64(size))

	a.stats.OversizedPages.Add(1)
	a.recordAlloc(size)
	return p.index << a.pageShift, p.data[:size:size], nil
}

func (a *Arena) tryAllocInPage(curr *page, size int) (uint64, []byte, bool) {
	for {
		oldOffset := curr.offset.Load()
		newOffset := oldOffset + int64(size)

		if newOffset > int64(len(curr.data)) {
			return 0, nil, false
		}

		if curr.offset.CompareAndSwap(oldOffset, newOffset) {
			a.recordAlloc(size)
			addr := (curr.index << a.pageShift) | uint64(oldOffset) //nolint:gosec // 0 <= oldOffset < pageSize
			return addr, curr.data[oldOffset:newOffset:newOffset], true
		}
	}
}

func (a *Arena) recordAlloc(size int) {
	sizeU64, _ := conv.IntToUint64(size)
	a.stats.BytesUsed.Add(sizeU64)
	a.stats.TotalAllocs.Add(1)
}

// Pages returns a snapshot of all page slices, indexed by page index.
// Callers resolve an address as pages[addr>>PageShift()][addr&(PageSize()-1):]
// once they have finished allocating.
func (a *Arena) Pages() [][]byte {
	ps := a.pages.Load()
	if ps == nil {
		return nil
	}
	out := make([][]byte, len(*ps))
	for i, p := range *ps {
		out[i] = p.data
	}
	return out
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	return Stats{
		PagesAllocated: a.stats.PagesAllocated.Load(),
		OversizedPages: a.stats.OversizedPages.Load(),
		BytesReserved:  a.stats.BytesReserved.Load(),
		BytesUsed:      a.stats.BytesUsed.Load(),
		TotalAllocs:    a.stats.TotalAllocs.Load(),
	}
}

// Free releases every page. All slices handed out become invalid; off-heap
// pages are unmapped. The arena cannot be reused.
func (a *Arena) Free() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current.Store(nil)
	ps := a.pages.Swap(nil)
	if ps == nil {
		return nil
	}

	var firstErr error
	for _, p := range *ps {
		if p.mapping != nil {
			if err := p.mapping.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if a.acquirer != nil {
		if reserved := a.stats.BytesReserved.Load(); reserved > 0 {
			r, _ := conv.Uint64ToInt64(reserved)
			a.acquirer.ReleaseMemory(r)
		}
	}

	a.stats.PagesAllocated.Store(0)
	a.stats.OversizedPages.Store(0)
	a.stats.BytesReserved.Store(0)
	a.stats.BytesUsed.Store(0)
	return firstErr
}
