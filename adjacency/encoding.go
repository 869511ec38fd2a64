package adjacency

import (
	"encoding/binary"
	"math"
)

const (
	// headerBytes is the size of the degree header.
	headerBytes = 4

	// MaxDegree is the largest degree representable in a block header.
	MaxDegree = math.MaxUint32
)

// uvarintLen returns the encoded size of v.
func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// encodedTargetBytes returns the block size for targets, header included.
// targets must be non-decreasing and non-negative.
func encodedTargetBytes(targets []int64) int {
	if len(targets) == 0 {
		return 0
	}
	n := headerBytes + uvarintLen(uint64(targets[0])) //nolint:gosec // non-negative
	for i := 1; i < len(targets); i++ {
		n += uvarintLen(uint64(targets[i] - targets[i-1])) //nolint:gosec // non-decreasing
	}
	return n
}

// encodeTargets writes the block for targets into dst, which must hold
// encodedTargetBytes(targets) bytes. It returns the number of bytes written.
func encodeTargets(dst []byte, targets []int64) int {
	binary.LittleEndian.PutUint32(dst, uint32(len(targets))) //nolint:gosec // checked by the builder
	pos := headerBytes
	prev := int64(0)
	for _, t := range targets {
		pos += binary.PutUvarint(dst[pos:], uint64(t-prev)) //nolint:gosec // non-decreasing
		prev = t
	}
	return pos
}

// readDegree decodes the degree header at the start of block.
func readDegree(block []byte) int {
	return int(binary.LittleEndian.Uint32(block))
}

// encodeProperties writes values as little-endian float64 bits.
func encodeProperties(dst []byte, values []float64) {
	for i, v := range values {
		binary.LittleEndian.PutUint64(dst[i*8:], math.Float64bits(v))
	}
}

// readProperty decodes the i-th value of a property block.
func readProperty(block []byte, i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(block[i*8:]))
}

// EncodeBlock encodes a non-decreasing target run into a standalone block.
// An empty run yields nil.
func EncodeBlock(targets []int64) []byte {
	size := encodedTargetBytes(targets)
	if size == 0 {
		return nil
	}
	buf := make([]byte, size)
	encodeTargets(buf, targets)
	return buf
}

// DecodeBlock decodes a block produced by EncodeBlock.
func DecodeBlock(block []byte) []int64 {
	if len(block) < headerBytes {
		return nil
	}
	var c DecompressingCursor
	c.reset(block, 0)
	out := make([]int64, 0, c.Degree())
	for c.HasNext() {
		out = append(out, c.NextID())
	}
	return out
}
