// Package paged provides page-backed "huge" arrays for per-node data.
//
// A paged array stores its elements in fixed-size pages of 2^shift slots and
// translates an int64 index into (page, slot) with a shift and a mask. No
// single allocation ever has to hold the whole array, and growth only
// reallocates the page-reference slice.
//
// # Types
//
//   - Array: dense generic array; Get/Set are O(1)
//   - SparseArray: lazily allocated pages, unallocated pages read as a default
//   - AtomicInt64Array / AtomicFloat64Array: dense arrays with atomic element operations
//   - SparseAtomicInt64Array: sparse counters shared between partitions
//   - BitSet: atomic bitset with lazily allocated pages
//   - Cursor: non-allocating page-by-page iteration window over an Array
//
// # Cursor Protocol
//
// A cursor exposes the current page slice through exported fields. After
// every successful Next the caller re-reads Array, Offset and Limit:
//
//	c := arr.NewCursor()
//	for c.Next() {
//	    for i := c.Offset; i < c.Limit; i++ {
//	        sum += c.Array[i] // global index: c.Base + int64(i)
//	    }
//	}
//
// The same cursor is reused for another range with InitCursorRange; no call
// on a cursor allocates.
//
// # Thread Safety
//
// Reads are safe from any number of goroutines. Plain Set is safe when
// goroutines write disjoint indices. Indices written from more than one
// goroutine must use the atomic array variants. Grow is never safe
// concurrently with anything else; result arrays are sized before a
// computation starts.
package paged
