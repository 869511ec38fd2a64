package paged

import (
	"math/bits"
	"sync/atomic"
)

const (
	// bitSegmentShift gives 65536 bits per segment.
	bitSegmentShift = 16
	bitSegmentBits  = 1 << bitSegmentShift
	bitSegmentMask  = bitSegmentBits - 1
	wordsPerSegment = bitSegmentBits / 64
)

type bitSegment [wordsPerSegment]atomic.Uint64

// BitSet is a fixed-size, lock-free bitset over [0, Size()) with segments
// allocated on first Set. All methods are safe for concurrent use.
type BitSet struct {
	segments []atomic.Pointer[bitSegment]
	size     int64
}

// NewBitSet creates a BitSet of size bits, all clear.
func NewBitSet(size int64) *BitSet {
	if size < 0 {
		size = 0
	}
	return &BitSet{
		segments: make([]atomic.Pointer[bitSegment], NumPagesFor(size, bitSegmentShift)),
		size:     size,
	}
}

// Size returns the number of addressable bits.
func (b *BitSet) Size() int64 { return b.size }

func (b *BitSet) segment(i int64) *bitSegment {
	ptr := &b.segments[i>>bitSegmentShift]
	if seg := ptr.Load(); seg != nil {
		return seg
	}
	fresh := new(bitSegment)
	if ptr.CompareAndSwap(nil, fresh) {
		return fresh
	}
	return ptr.Load()
}

func wordAndMask(i int64) (int, uint64) {
	offset := i & bitSegmentMask
	return int(offset >> 6), uint64(1) << (offset & 63)
}

// Set sets bit i. Indices outside [0, Size()) are ignored.
func (b *BitSet) Set(i int64) {
	if i < 0 || i >= b.size {
		return
	}
	word, mask := wordAndMask(i)
	b.segment(i)[word].Or(mask)
}

// GetAndSet sets bit i and reports whether it was already set.
func (b *BitSet) GetAndSet(i int64) bool {
	if i < 0 || i >= b.size {
		return false
	}
	word, mask := wordAndMask(i)
	return b.segment(i)[word].Or(mask)&mask != 0
}

// Get reports whether bit i is set.
func (b *BitSet) Get(i int64) bool {
	if i < 0 || i >= b.size {
		return false
	}
	seg := b.segments[i>>bitSegmentShift].Load()
	if seg == nil {
		return false
	}
	word, mask := wordAndMask(i)
	return seg[word].Load()&mask != 0
}

// Clear clears bit i.
func (b *BitSet) Clear(i int64) {
	if i < 0 || i >= b.size {
		return
	}
	seg := b.segments[i>>bitSegmentShift].Load()
	if seg == nil {
		return
	}
	word, mask := wordAndMask(i)
	seg[word].And(^mask)
}

// ClearAll drops every segment. Not atomic with respect to concurrent Set.
func (b *BitSet) ClearAll() {
	for i := range b.segments {
		b.segments[i].Store(nil)
	}
}

// Cardinality counts the set bits.
func (b *BitSet) Cardinality() int64 {
	var n int64
	for i := range b.segments {
		seg := b.segments[i].Load()
		if seg == nil {
			continue
		}
		for w := range seg {
			n += int64(bits.OnesCount64(seg[w].Load()))
		}
	}
	return n
}

// NextSetBit returns the first set bit at or after from, or -1.
func (b *BitSet) NextSetBit(from int64) int64 {
	if from < 0 {
		from = 0
	}
	for from < b.size {
		segIdx := from >> bitSegmentShift
		seg := b.segments[segIdx].Load()
		if seg == nil {
			from = (segIdx + 1) << bitSegmentShift
			continue
		}

		word, _ := wordAndMask(from)
		val := seg[word].Load() &^ ((uint64(1) << (from & 63)) - 1)
		for {
			if val != 0 {
				idx := segIdx<<bitSegmentShift + int64(word)<<6 + int64(bits.TrailingZeros64(val))
				if idx >= b.size {
					return -1
				}
				return idx
			}
			word++
			if word == wordsPerSegment {
				break
			}
			val = seg[word].Load()
		}
		from = (segIdx + 1) << bitSegmentShift
	}
	return -1
}

// ForEachSetBit calls fn for set bits in ascending order until fn returns false.
func (b *BitSet) ForEachSetBit(fn func(i int64) bool) {
	for i := b.NextSetBit(0); i >= 0; i = b.NextSetBit(i + 1) {
		if !fn(i) {
			return
		}
	}
}

// SizeOf returns the bytes held by allocated segments.
func (b *BitSet) SizeOf() int64 {
	var n int64
	for i := range b.segments {
		if b.segments[i].Load() != nil {
			n += bitSegmentBits / 8
		}
	}
	return n + int64(len(b.segments))*8
}
