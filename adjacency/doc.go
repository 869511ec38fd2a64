// Package adjacency stores relationship topology as compressed per-node
// blocks and decodes it lazily through reusable cursors.
//
// # Block format
//
// A node's topology block is
//
//	uint32 degree (little endian)
//	uvarint target[0]
//	uvarint target[i] - target[i-1]   for i in [1, degree)
//
// Targets are internal node ids in non-decreasing order, so every delta is
// non-negative. Each property of a node is a separate block of degree
// little-endian float64 values, aligned positionally with the targets.
//
// Blocks are bump-allocated from fixed-size byte pages and addressed by
// pageIndex<<pageShift | offsetInPage. A block never straddles a page;
// blocks larger than a page get a dedicated page. Address 0 is reserved and
// marks a node without relationships.
//
// # Concurrency
//
// A List is immutable and may be read by any number of goroutines, provided
// each uses its own cursor. A cursor must never be shared.
package adjacency
