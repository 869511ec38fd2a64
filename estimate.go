package hugegraph

import (
	"fmt"

	"github.com/hupe1980/hugegraph/adjacency"
	"github.com/hupe1980/hugegraph/idmap"
	"github.com/hupe1980/hugegraph/paged"
)

// cursorBytes approximates one DecompressingCursor plus its task-local state.
const cursorBytes = 256

// MemoryRange is a lower and upper bound in bytes.
type MemoryRange struct {
	Min int64
	Max int64
}

// Add returns the element-wise sum of r and o.
func (r MemoryRange) Add(o MemoryRange) MemoryRange {
	return MemoryRange{Min: r.Min + o.Min, Max: r.Max + o.Max}
}

func (r MemoryRange) String() string {
	return fmt.Sprintf("[%s ... %s]", formatBytes(r.Min), formatBytes(r.Max))
}

// EstimateMemory returns the expected footprint of a graph with the given
// size. The maximum includes the transient grouping arrays Builder.Build
// holds while encoding. Ids are assumed to be dense.
func EstimateMemory(nodeCount, relationshipCount int64, concurrency, pageBytes, propertyCount int) MemoryRange {
	if nodeCount <= 0 {
		return MemoryRange{}
	}
	concurrency = max(concurrency, 1)

	nodes := idmap.EstimateBytes(nodeCount, nodeCount-1, pageBytes)
	adjMin, adjMax := adjacency.EstimateBytes(nodeCount, relationshipCount, propertyCount, pageBytes)
	workers := int64(concurrency) * cursorBytes

	transient := paged.EstimateBytes(nodeCount+1, 8, pageBytes) + // offsets
		paged.EstimateBytes(nodeCount, 8, pageBytes) + // degrees
		paged.EstimateBytes(relationshipCount, 8, pageBytes) // order

	return MemoryRange{
		Min: nodes + adjMin + workers,
		Max: nodes + adjMax + workers + transient,
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
