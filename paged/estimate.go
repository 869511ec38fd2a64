package paged

// EstimateBytes returns the bytes a dense Array of size elements of
// elementBytes each would occupy with pages of pageBytes (0 means
// DefaultPageBytes). Whole pages are counted, plus the page-reference slice.
func EstimateBytes(size int64, elementBytes, pageBytes int) int64 {
	if size <= 0 {
		return 0
	}
	if pageBytes <= 0 {
		pageBytes = DefaultPageBytes
	}
	pageSize := PageSizeFor(pageBytes, elementBytes)
	numPages := NumPagesFor(size, shiftFor(pageSize))
	return numPages*int64(pageSize)*int64(elementBytes) + numPages*sliceHeaderBytes
}

// EstimateSparseBytes returns the page-table bytes of a SparseArray with the
// given capacity plus the bytes of populatedPages full pages.
func EstimateSparseBytes(capacity int64, populatedPages int64, elementBytes, pageBytes int) int64 {
	if capacity <= 0 {
		return 0
	}
	if pageBytes <= 0 {
		pageBytes = DefaultPageBytes
	}
	pageSize := PageSizeFor(pageBytes, elementBytes)
	numPages := NumPagesFor(capacity, shiftFor(pageSize))
	populatedPages = min(populatedPages, numPages)
	return numPages*8 + populatedPages*int64(pageSize)*int64(elementBytes)
}
