package mem

import (
	"unsafe"
)

// CacheLine is the alignment of every page returned by Page.
const CacheLine = 64

// Page returns a zeroed byte slice of length size whose first byte lies on
// a CacheLine boundary. It over-allocates by at most CacheLine bytes; the
// backing array stays alive through the returned slice.
func Page(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+CacheLine)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // address arithmetic only
	offset := int((CacheLine - addr%CacheLine) % CacheLine)
	return buf[offset : offset+size : offset+size]
}
