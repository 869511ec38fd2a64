package adjacency

import (
	"encoding/binary"
	"math"
)

// NotFound is returned by cursor lookups that run past the last target.
const NotFound int64 = -1

// Cursor iterates the targets of one node in non-decreasing order.
//
// Calling NextID without a preceding successful HasNext is a precondition
// violation. Property refers to the relationship last returned by NextID,
// SkipUntil or AdvanceTo.
type Cursor interface {
	// Degree returns the number of targets of the node.
	Degree() int
	// Remaining returns how many targets have not been returned yet.
	Remaining() int
	// HasNext reports whether another target exists.
	HasNext() bool
	// NextID returns the next target.
	NextID() int64
	// PeekID returns the next target without consuming it, or NotFound.
	PeekID() int64
	// SkipUntil consumes targets up to and including the first one strictly
	// greater than target and returns it, or NotFound.
	SkipUntil(target int64) int64
	// AdvanceTo consumes targets up to and including the first one greater
	// than or equal to target and returns it, or NotFound.
	AdvanceTo(target int64) int64
	// PropertyCount returns the number of properties per relationship.
	PropertyCount() int
	// Property returns property k of the current relationship, or the
	// cursor's fallback when k is out of range or nothing was returned yet.
	Property(k int) float64
}

// DecompressingCursor decodes a topology block in place. It never allocates
// after its first use and can be repositioned with List.InitCursor.
type DecompressingCursor struct {
	// Fallback is returned by Property for properties the list does not store.
	Fallback float64

	block    []byte
	pos      int
	degree   int
	decoded  int
	returned int
	last     int64
	peeked   bool
	props    [][]byte
}

var _ Cursor = (*DecompressingCursor)(nil)

// NewDecompressingCursor returns an unpositioned cursor that reports no targets.
func NewDecompressingCursor() *DecompressingCursor {
	return &DecompressingCursor{Fallback: math.NaN()}
}

// Reset detaches the cursor from its list so it no longer references any
// pages. It reports no targets until repositioned with List.InitCursor.
func (c *DecompressingCursor) Reset() {
	clear(c.props[:cap(c.props)])
	c.reset(nil, math.NaN())
}

func (c *DecompressingCursor) reset(block []byte, fallback float64) {
	c.Fallback = fallback
	c.props = c.props[:0]
	c.decoded = 0
	c.returned = 0
	c.last = 0
	c.peeked = false
	if len(block) == 0 {
		c.block = nil
		c.degree = 0
		c.pos = 0
		return
	}
	c.block = block
	c.degree = readDegree(block)
	c.pos = headerBytes
}

func (c *DecompressingCursor) decode() int64 {
	delta, n := binary.Uvarint(c.block[c.pos:])
	c.pos += n
	if c.decoded == 0 {
		c.last = int64(delta) //nolint:gosec // encoded from int64
	} else {
		c.last += int64(delta) //nolint:gosec // encoded from int64
	}
	c.decoded++
	return c.last
}

// Degree returns the node's degree.
func (c *DecompressingCursor) Degree() int { return c.degree }

// Remaining returns the number of targets not yet returned.
func (c *DecompressingCursor) Remaining() int { return c.degree - c.returned }

// HasNext reports whether another target exists.
func (c *DecompressingCursor) HasNext() bool { return c.returned < c.degree }

// NextID returns the next target.
func (c *DecompressingCursor) NextID() int64 {
	c.returned++
	if c.peeked {
		c.peeked = false
		return c.last
	}
	return c.decode()
}

// PeekID returns the next target without consuming it, or NotFound.
func (c *DecompressingCursor) PeekID() int64 {
	if !c.HasNext() {
		return NotFound
	}
	if !c.peeked {
		c.decode()
		c.peeked = true
	}
	return c.last
}

// SkipUntil returns the first remaining target strictly greater than target.
func (c *DecompressingCursor) SkipUntil(target int64) int64 {
	for c.HasNext() {
		if id := c.NextID(); id > target {
			return id
		}
	}
	return NotFound
}

// AdvanceTo returns the first remaining target greater than or equal to target.
func (c *DecompressingCursor) AdvanceTo(target int64) int64 {
	for c.HasNext() {
		if id := c.NextID(); id >= target {
			return id
		}
	}
	return NotFound
}

// PropertyCount returns the number of property blocks attached.
func (c *DecompressingCursor) PropertyCount() int { return len(c.props) }

// Property returns property k of the relationship last returned.
func (c *DecompressingCursor) Property(k int) float64 {
	if k < 0 || k >= len(c.props) || c.returned == 0 {
		return c.Fallback
	}
	return readProperty(c.props[k], c.returned-1)
}

// PropertyCursor iterates one property of a node's relationships in target
// order.
type PropertyCursor struct {
	block     []byte
	degree    int
	index     int
	fallback  float64
	hasValues bool
}

// NextProperty returns the next value. Same precondition as Cursor.NextID.
func (p *PropertyCursor) NextProperty() float64 {
	i := p.index
	p.index++
	if !p.hasValues {
		return p.fallback
	}
	return readProperty(p.block, i)
}

// HasNext reports whether another value exists.
func (p *PropertyCursor) HasNext() bool { return p.index < p.degree }

// Remaining returns the number of values not yet returned.
func (p *PropertyCursor) Remaining() int { return p.degree - p.index }

// Degree returns the node's degree.
func (p *PropertyCursor) Degree() int { return p.degree }

type emptyCursor struct{}

// Empty is the shared cursor of nodes without relationships.
var Empty Cursor = emptyCursor{}

func (emptyCursor) Degree() int           { return 0 }
func (emptyCursor) Remaining() int        { return 0 }
func (emptyCursor) HasNext() bool         { return false }
func (emptyCursor) NextID() int64         { return NotFound }
func (emptyCursor) PeekID() int64         { return NotFound }
func (emptyCursor) SkipUntil(int64) int64 { return NotFound }
func (emptyCursor) AdvanceTo(int64) int64 { return NotFound }
func (emptyCursor) PropertyCount() int    { return 0 }
func (emptyCursor) Property(int) float64  { return math.NaN() }
