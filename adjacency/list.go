package adjacency

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hugegraph/internal/arena"
	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/paged"
)

// List is an immutable compressed adjacency list over nodes [0, NodeCount()).
type List struct {
	nodeCount         int64
	relationshipCount int64
	maxDegree         int

	offsets   *paged.Array[uint64]
	pages     [][]byte
	pageShift uint
	pageMask  uint64

	propertyOffsets []*paged.Array[uint64]
	propertyPages   [][][]byte
	fallback        float64

	arenas []*arena.Arena
}

func (l *List) block(addr uint64) []byte {
	return l.pages[addr>>l.pageShift][addr&l.pageMask:]
}

func (l *List) propertyBlock(k int, addr uint64) []byte {
	return l.propertyPages[k][addr>>l.pageShift][addr&l.pageMask:]
}

// NodeCount returns the number of nodes.
func (l *List) NodeCount() int64 { return l.nodeCount }

// RelationshipCount returns the number of stored relationships.
func (l *List) RelationshipCount() int64 { return l.relationshipCount }

// MaxDegree returns the largest degree of any node.
func (l *List) MaxDegree() int { return l.maxDegree }

// PropertyCount returns the number of properties per relationship.
func (l *List) PropertyCount() int { return len(l.propertyOffsets) }

// Degree returns the degree of node from its block header without decoding
// the targets. node must be in [0, NodeCount()).
func (l *List) Degree(node int64) int {
	addr := l.offsets.Get(node)
	if addr == 0 {
		return 0
	}
	return readDegree(l.block(addr))
}

// DegreeOf is the checked variant of Degree.
func (l *List) DegreeOf(node int64) (int, error) {
	if l.nodeCount == 0 {
		return 0, fmt.Errorf("%w: adjacency: degree of empty list", errs.ErrUnsupported)
	}
	if node < 0 || node >= l.nodeCount {
		return 0, errs.OutOfRange("adjacency.List.DegreeOf", node, l.nodeCount)
	}
	return l.Degree(node), nil
}

// NewCursor returns an unpositioned cursor for use with InitCursor.
func (l *List) NewCursor() *DecompressingCursor {
	c := NewDecompressingCursor()
	c.Fallback = l.fallback
	return c
}

// InitCursor positions c at node's targets and returns it.
func (l *List) InitCursor(c *DecompressingCursor, node int64) *DecompressingCursor {
	addr := l.offsets.Get(node)
	if addr == 0 {
		c.reset(nil, l.fallback)
		return c
	}
	c.reset(l.block(addr), l.fallback)
	for k, offsets := range l.propertyOffsets {
		c.props = append(c.props, l.propertyBlock(k, offsets.Get(node)))
	}
	return c
}

// Cursor returns a cursor over node's targets. When reuse is nil and the node
// has no relationships the shared Empty cursor is returned; otherwise reuse
// (or a new cursor) is repositioned.
func (l *List) Cursor(node int64, reuse *DecompressingCursor) Cursor {
	if reuse == nil {
		if l.offsets.Get(node) == 0 {
			return Empty
		}
		reuse = l.NewCursor()
	}
	return l.InitCursor(reuse, node)
}

// PropertyCursor returns a cursor over property k of node's relationships.
// When the list stores no property k, the cursor yields fallback for every
// relationship.
func (l *List) PropertyCursor(node int64, k int, fallback float64, reuse *PropertyCursor) *PropertyCursor {
	if reuse == nil {
		reuse = &PropertyCursor{}
	}
	*reuse = PropertyCursor{fallback: fallback}

	addr := l.offsets.Get(node)
	if addr == 0 {
		return reuse
	}
	reuse.degree = readDegree(l.block(addr))
	if k >= 0 && k < len(l.propertyOffsets) {
		reuse.block = l.propertyBlock(k, l.propertyOffsets[k].Get(node))
		reuse.hasValues = true
	}
	return reuse
}

// ForEachTarget calls fn for each target of node until fn returns false.
func (l *List) ForEachTarget(node int64, c *DecompressingCursor, fn func(target int64) bool) {
	if c == nil {
		c = l.NewCursor()
	}
	l.InitCursor(c, node)
	for c.HasNext() {
		if !fn(c.NextID()) {
			return
		}
	}
}

// SizeOf returns the bytes held by pages and offset arrays.
func (l *List) SizeOf() int64 {
	n := l.offsets.SizeOf()
	for _, o := range l.propertyOffsets {
		n += o.SizeOf()
	}
	for _, a := range l.arenas {
		n += int64(a.Stats().BytesReserved) //nolint:gosec // bounded by memory
	}
	return n
}

// Release frees every page. The list and all cursors over it become invalid.
func (l *List) Release() error {
	var errList []error
	for _, a := range l.arenas {
		if err := a.Free(); err != nil {
			errList = append(errList, err)
		}
	}
	l.offsets.Release()
	for _, o := range l.propertyOffsets {
		o.Release()
	}
	l.pages = nil
	l.propertyPages = nil
	l.arenas = nil
	return errors.Join(errList...)
}

func (l *List) String() string {
	return fmt.Sprintf("adjacency.List{nodes=%d, relationships=%d, properties=%d, maxDegree=%d}",
		l.nodeCount, l.relationshipCount, l.PropertyCount(), l.maxDegree)
}
