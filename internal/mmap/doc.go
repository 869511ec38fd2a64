// Package mmap provides anonymous memory mappings for off-heap page storage.
//
// Adjacency pages can be several hundred kilobytes each and a large graph
// holds tens of thousands of them. Mapping them outside the Go heap keeps
// them out of the garbage collector's mark phase.
//
//	m, err := mmap.MapAnon(1 << 18)
//	if err != nil { ... }
//	defer m.Close()
//	page := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Other platforms: heap-allocated fallback with identical semantics
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure
// no goroutine accesses Bytes() after Close() returns.
package mmap
