package paged

// Cursor is a reusable iteration window over an Array.
//
// After a successful Next, Array[Offset:Limit] holds the next run of
// elements and Base is the global index of Array[0]. The fields are only
// valid until the following Next; callers must not cache Array across calls.
// Once Next returns false the cursor is exhausted and its fields are
// undefined until it is initialised again.
type Cursor[T any] struct {
	// Array is the current page.
	Array []T
	// Offset is the first valid slot in Array.
	Offset int
	// Limit is the exclusive end of valid slots in Array.
	Limit int
	// Base is the global index of Array[0].
	Base int64

	pages     [][]T
	pageShift uint
	pageMask  int64
	page      int64
	firstPage int64
	lastPage  int64
	start     int64
	end       int64
}

func (c *Cursor[T]) init(pages [][]T, shift uint, start, end int64) {
	c.pages = pages
	c.pageShift = shift
	c.pageMask = (int64(1) << shift) - 1
	c.start = start
	c.end = end
	c.Array = nil
	c.Offset = 0
	c.Limit = 0
	c.Base = 0

	if start >= end {
		c.firstPage = 0
		c.lastPage = -1
		c.page = 0
		return
	}
	c.firstPage = start >> shift
	c.lastPage = (end - 1) >> shift
	c.page = c.firstPage - 1
}

// Next advances to the next page-sized run and reports whether one exists.
func (c *Cursor[T]) Next() bool {
	c.page++
	if c.page > c.lastPage {
		c.Array = nil
		return false
	}

	c.Array = c.pages[c.page]
	c.Base = c.page << c.pageShift

	if c.page == c.firstPage {
		c.Offset = int(c.start & c.pageMask)
	} else {
		c.Offset = 0
	}
	if c.page == c.lastPage {
		c.Limit = int((c.end-1)&c.pageMask) + 1
	} else {
		c.Limit = len(c.Array)
	}
	return true
}

// Start returns the inclusive global start of the cursor's range.
func (c *Cursor[T]) Start() int64 { return c.start }

// End returns the exclusive global end of the cursor's range.
func (c *Cursor[T]) End() int64 { return c.end }

// Close detaches the cursor from its array so the pages can be collected.
func (c *Cursor[T]) Close() {
	c.pages = nil
	c.Array = nil
	c.lastPage = -1
}
