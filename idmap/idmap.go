package idmap

import (
	"fmt"

	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/paged"
)

// NotFound is returned by lookups for ids that are not part of the mapping.
const NotFound int64 = -1

// Mapping is the read-only view shared by Map and Filtered.
type Mapping interface {
	NodeCount() int64
	ToMappedNodeID(externalID int64) int64
	ToOriginalNodeID(internalID int64) int64
	Contains(externalID int64) bool
}

const (
	// minDirectPages is the page-table length below which the reverse lookup
	// is always a direct sparse array.
	minDirectPages = 1 << 16

	// directPagesPerNode bounds the page table of the direct reverse lookup
	// relative to the node count. Sparser id domains are resolved by binary
	// search over the forward array.
	directPagesPerNode = 4
)

// Map is the bijection between external ids and internal ids [0, NodeCount()).
//
// The reverse direction is a sparse array indexed by external id while the id
// domain is dense enough; otherwise backward is nil and lookups binary search
// the ascending forward array.
type Map struct {
	forward   *paged.Array[int64]
	backward  *paged.SparseArray[int64]
	nodeCount int64
	highestID int64
}

var _ Mapping = (*Map)(nil)

type options struct {
	pageOpts []paged.Option
}

// Option configures Map construction.
type Option func(*options)

// WithPageBytes sets the page byte budget of both lookup arrays.
func WithPageBytes(b int) Option {
	return func(o *options) {
		o.pageOpts = append(o.pageOpts, paged.WithPageBytes(b))
	}
}

// WithMemoryTracker accounts the pages of both lookup directions against t.
func WithMemoryTracker(t paged.MemoryTracker) Option {
	return func(o *options) {
		o.pageOpts = append(o.pageOpts, paged.WithMemoryTracker(t))
	}
}

// New builds a Map from strictly ascending, non-negative external ids.
func New(ids []int64, optFns ...Option) (*Map, error) {
	o := buildOptions(optFns)

	forward, err := paged.New[int64](int64(len(ids)), o.pageOpts...)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		forward.Set(int64(i), id)
	}
	m, err := build(forward, o)
	if err != nil {
		forward.Release()
		return nil, err
	}
	return m, nil
}

// FromArray builds a Map whose forward direction is the given array. The
// array is owned by the Map afterwards and must not be modified.
func FromArray(forward *paged.Array[int64], optFns ...Option) (*Map, error) {
	if forward == nil {
		return nil, fmt.Errorf("%w: idmap: nil forward array", errs.ErrInvalidInput)
	}
	return build(forward, buildOptions(optFns))
}

func build(forward *paged.Array[int64], o options) (*Map, error) {
	nodeCount := forward.Size()

	prev := NotFound
	c := forward.NewCursor()
	for c.Next() {
		for i := c.Offset; i < c.Limit; i++ {
			id := c.Array[i]
			switch {
			case id < 0:
				return nil, fmt.Errorf("%w: idmap: negative external id %d at %d", errs.ErrInvalidInput, id, c.Base+int64(i))
			case id <= prev:
				return nil, fmt.Errorf("%w: idmap: external ids not strictly ascending at %d (%d after %d)", errs.ErrInvalidInput, c.Base+int64(i), id, prev)
			}
			prev = id
		}
	}
	highest := prev

	m := &Map{
		forward:   forward,
		nodeCount: nodeCount,
		highestID: highest,
	}

	if !directLookup(highest+1, nodeCount, o.pageOpts) {
		return m, nil
	}

	backward, err := paged.NewSparse[int64](highest+1, NotFound, o.pageOpts...)
	if err != nil {
		return nil, err
	}

	c = forward.NewCursor()
	for c.Next() {
		for i := c.Offset; i < c.Limit; i++ {
			if err := backward.Put(c.Array[i], c.Base+int64(i)); err != nil {
				backward.Release()
				return nil, err
			}
		}
	}
	m.backward = backward

	return m, nil
}

func directLookup(capacity, nodeCount int64, pageOpts []paged.Option) bool {
	pages := paged.SparsePagesFor[int64](capacity, pageOpts...)
	return pages <= min(paged.MaxSparsePages, max(minDirectPages, directPagesPerNode*nodeCount))
}

func buildOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// NodeCount returns the number of mapped nodes.
func (m *Map) NodeCount() int64 { return m.nodeCount }

// HighestOriginalID returns the largest external id, or NotFound when empty.
func (m *Map) HighestOriginalID() int64 { return m.highestID }

// ToMappedNodeID returns the internal id of externalID or NotFound.
func (m *Map) ToMappedNodeID(externalID int64) int64 {
	if m.backward != nil {
		return m.backward.Get(externalID)
	}
	if externalID < 0 || externalID > m.highestID {
		return NotFound
	}
	idx, err := paged.BinarySearch(m.forward, externalID)
	if err != nil || idx < 0 {
		return NotFound
	}
	return idx
}

// ToOriginalNodeID returns the external id of internalID or NotFound when
// internalID is outside [0, NodeCount()).
func (m *Map) ToOriginalNodeID(internalID int64) int64 {
	if internalID < 0 || internalID >= m.nodeCount {
		return NotFound
	}
	return m.forward.Get(internalID)
}

// Contains reports whether externalID is mapped.
func (m *Map) Contains(externalID int64) bool {
	return m.ToMappedNodeID(externalID) != NotFound
}

// DirectLookup reports whether external ids resolve through the sparse
// reverse array rather than binary search.
func (m *Map) DirectLookup() bool { return m.backward != nil }

// ForEachNode calls fn with every internal id in ascending order until fn
// returns false.
func (m *Map) ForEachNode(fn func(internalID int64) bool) {
	for i := int64(0); i < m.nodeCount; i++ {
		if !fn(i) {
			return
		}
	}
}

// OriginalIDs returns a cursor over the external ids in internal id order.
func (m *Map) OriginalIDs() *paged.Cursor[int64] {
	return m.forward.NewCursor()
}

// SizeOf returns the bytes held by both lookup directions.
func (m *Map) SizeOf() int64 {
	if m.backward == nil {
		return m.forward.SizeOf()
	}
	return m.forward.SizeOf() + m.backward.SizeOf()
}

// Release frees both lookup directions and returns the freed bytes to the
// memory tracker. The Map must not be used afterwards.
func (m *Map) Release() int64 {
	freed := m.forward.Release()
	if m.backward != nil {
		freed += m.backward.Release()
		m.backward = nil
	}
	m.nodeCount = 0
	return freed
}

func (m *Map) String() string {
	return fmt.Sprintf("idmap.Map{nodes=%d, highest=%d}", m.nodeCount, m.highestID)
}

// EstimateBytes returns the expected footprint of a Map with nodeCount nodes
// whose largest external id is highestID. Every node is assumed to populate
// its own backward page, which is the worst case for sparse id domains.
func EstimateBytes(nodeCount, highestID int64, pageBytes int) int64 {
	if nodeCount <= 0 {
		return 0
	}
	highestID = max(highestID, nodeCount-1)
	forward := paged.EstimateBytes(nodeCount, 8, pageBytes)
	var pageOpts []paged.Option
	if pageBytes > 0 {
		pageOpts = append(pageOpts, paged.WithPageBytes(pageBytes))
	}
	if !directLookup(highestID+1, nodeCount, pageOpts) {
		return forward
	}
	return forward + paged.EstimateSparseBytes(highestID+1, nodeCount, 8, pageBytes)
}
