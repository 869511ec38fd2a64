// Package arena provides a page-based bump allocator for adjacency blocks.
//
// # Addressing
//
// Every allocation is identified by a global address
//
//	address = pageIndex << pageShift | offsetInPage
//
// so a single uint64 per node locates its encoded block. Address 0 is
// reserved and never handed out; callers use it as "no block".
//
// # Concurrency Model
//
// Alloc is safe for concurrent use and lock-free in the common case (CAS on
// the current page's offset). A new page is installed under a mutex. Reads
// through Bytes are safe concurrently with allocation. Free must not run
// concurrently with anything else.
//
// # Oversized Blocks
//
// A block larger than the page size gets a dedicated page of exactly its
// size. Its address has offset 0, and the block extends past the nominal
// page size within that page.
//
// # Memory
//
// Pages are either heap slices or anonymous mappings (WithOffHeap). An
// optional MemoryAcquirer accounts for every page.
package arena
