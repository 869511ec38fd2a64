package adjacency

import (
	"github.com/hupe1980/hugegraph/internal/arena"
	"github.com/hupe1980/hugegraph/paged"
)

// EstimateBytes returns the lower and upper footprint bounds of a List.
//
// The lower bound assumes single-byte deltas and relationships concentrated
// on as few nodes as possible. The upper bound assumes full-width deltas,
// one block header per node with relationships, and one partially used page
// per page store.
func EstimateBytes(nodeCount, relationshipCount int64, propertyCount, pageBytes int) (minBytes, maxBytes int64) {
	if nodeCount <= 0 {
		return 0, 0
	}
	if pageBytes <= 0 {
		pageBytes = arena.DefaultPageSize
	}
	relationshipCount = max(relationshipCount, 0)
	stores := int64(1 + propertyCount)

	offsets := stores * paged.EstimateBytes(nodeCount, 8, 0)
	properties := relationshipCount * 8 * int64(propertyCount)

	minBytes = offsets + properties + relationshipCount
	if relationshipCount > 0 {
		minBytes += headerBytes
	}

	deltaWidth := int64(uvarintLen(uint64(nodeCount - 1))) //nolint:gosec // nodeCount > 0
	maxBytes = offsets + properties +
		relationshipCount*deltaWidth +
		min(nodeCount, relationshipCount)*headerBytes +
		stores*int64(pageBytes)
	return minBytes, maxBytes
}
