package adjacency

// NodeFilter translates root node ids into a filtered id space. It returns
// NotFound for nodes outside the subset and must be monotonic over the
// selected nodes. *idmap.Filtered implements it.
type NodeFilter interface {
	ToFilteredNodeID(rootID int64) int64
}

// FilteredCursor wraps a cursor over root ids and yields only targets inside
// a node subset, translated to filtered ids.
//
// Degree and Remaining report the inner cursor's counts, which are upper
// bounds for the filtered run. HasNext is exact.
type FilteredCursor struct {
	inner  Cursor
	filter NodeFilter

	pending    int64
	hasPending bool
	returned   bool
	props      []float64
}

var _ Cursor = (*FilteredCursor)(nil)

// NewFilteredCursor decorates inner with filter.
func NewFilteredCursor(inner Cursor, filter NodeFilter) *FilteredCursor {
	f := &FilteredCursor{}
	f.Init(inner, filter)
	return f
}

// Init repositions the decorator on a new inner cursor.
func (f *FilteredCursor) Init(inner Cursor, filter NodeFilter) {
	f.inner = inner
	f.filter = filter
	f.hasPending = false
	f.returned = false
	f.pending = NotFound
	n := inner.PropertyCount()
	if cap(f.props) < n {
		f.props = make([]float64, n)
	}
	f.props = f.props[:n]
}

func (f *FilteredCursor) fill() bool {
	if f.hasPending {
		return true
	}
	for f.inner.HasNext() {
		mapped := f.filter.ToFilteredNodeID(f.inner.NextID())
		if mapped != NotFound {
			f.pending = mapped
			f.hasPending = true
			return true
		}
	}
	return false
}

// Degree returns the inner degree.
func (f *FilteredCursor) Degree() int { return f.inner.Degree() }

// Remaining returns the inner remaining count.
func (f *FilteredCursor) Remaining() int {
	if f.hasPending {
		return f.inner.Remaining() + 1
	}
	return f.inner.Remaining()
}

// HasNext reports whether another target inside the subset exists.
func (f *FilteredCursor) HasNext() bool { return f.fill() }

// NextID returns the next filtered target.
func (f *FilteredCursor) NextID() int64 {
	if !f.fill() {
		return NotFound
	}
	f.hasPending = false
	f.returned = true
	for k := range f.props {
		f.props[k] = f.inner.Property(k)
	}
	return f.pending
}

// PeekID returns the next filtered target without consuming it, or NotFound.
func (f *FilteredCursor) PeekID() int64 {
	if !f.fill() {
		return NotFound
	}
	return f.pending
}

// SkipUntil returns the first filtered target strictly greater than target.
func (f *FilteredCursor) SkipUntil(target int64) int64 {
	for f.HasNext() {
		if id := f.NextID(); id > target {
			return id
		}
	}
	return NotFound
}

// AdvanceTo returns the first filtered target greater than or equal to target.
func (f *FilteredCursor) AdvanceTo(target int64) int64 {
	for f.HasNext() {
		if id := f.NextID(); id >= target {
			return id
		}
	}
	return NotFound
}

// PropertyCount returns the inner property count.
func (f *FilteredCursor) PropertyCount() int { return len(f.props) }

// Property returns property k of the relationship last returned, or the
// inner cursor's fallback before the first target.
func (f *FilteredCursor) Property(k int) float64 {
	if !f.returned || k < 0 || k >= len(f.props) {
		return f.inner.Property(-1)
	}
	return f.props[k]
}
