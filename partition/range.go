package partition

import (
	"fmt"

	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/paged"
)

// Range splits [0, nodeCount) into min(concurrency, ceil(nodeCount/minBatchSize))
// contiguous partitions whose sizes differ by at most one. Values below 1 for
// concurrency or minBatchSize are treated as 1.
func Range(concurrency int, nodeCount, minBatchSize int64) []Partition {
	if nodeCount <= 0 {
		return nil
	}
	concurrency = max(concurrency, 1)
	minBatchSize = max(minBatchSize, 1)

	count := min(int64(concurrency), ceilDiv(nodeCount, minBatchSize))
	base, extra := nodeCount/count, nodeCount%count

	partitions := make([]Partition, 0, count)
	start := int64(0)
	for i := range count {
		size := base
		if i < extra {
			size++
		}
		partitions = append(partitions, New(start, size))
		start += size
	}
	return partitions
}

// RangeWithBatchSize splits [0, nodeCount) into batches of batchSize nodes;
// the last batch may be shorter.
func RangeWithBatchSize(nodeCount, batchSize int64) []Partition {
	if nodeCount <= 0 {
		return nil
	}
	batchSize = max(batchSize, 1)

	partitions := make([]Partition, 0, ceilDiv(nodeCount, batchSize))
	for start := int64(0); start < nodeCount; start += batchSize {
		partitions = append(partitions, New(start, min(batchSize, nodeCount-start)))
	}
	return partitions
}

// NumberAligned splits [0, nodeCount) into batches whose start nodes are
// multiples of alignTo, aiming for concurrency batches.
func NumberAligned(concurrency int, nodeCount, alignTo int64) []Partition {
	partitions, _ := NumberAlignedWithMaxSize(concurrency, nodeCount, alignTo, 1<<62)
	return partitions
}

// NumberAlignedWithMaxSize is NumberAligned with an upper bound on the batch
// size. maxPartitionSize must be at least alignTo.
func NumberAlignedWithMaxSize(concurrency int, nodeCount, alignTo, maxPartitionSize int64) ([]Partition, error) {
	alignTo = max(alignTo, 1)
	if maxPartitionSize < alignTo {
		return nil, fmt.Errorf("%w: partition: max partition size %d is smaller than alignment %d",
			errs.ErrInvalidInput, maxPartitionSize, alignTo)
	}

	batchSize := adjustedBatchSize(nodeCount, concurrency, alignTo)
	if rem := batchSize % alignTo; rem != 0 {
		batchSize += alignTo - rem
	}
	if batchSize > maxPartitionSize {
		batchSize = maxPartitionSize - maxPartitionSize%alignTo
	}
	return RangeWithBatchSize(nodeCount, batchSize), nil
}

// BlockAligned partitions the internal ids of an ascending external id array
// so that every partition covers external ids of one block (id >> blockShift).
// Empty blocks produce no partition.
func BlockAligned(sortedIDs *paged.Array[int64], blockShift uint) []Partition {
	size := sortedIDs.Size()
	if size == 0 {
		return nil
	}

	var partitions []Partition
	blockStart := int64(0)
	prevBlock := sortedIDs.Get(0) >> blockShift

	c := sortedIDs.NewCursor()
	for c.Next() {
		for i := c.Offset; i < c.Limit; i++ {
			block := c.Array[i] >> blockShift
			if block == prevBlock {
				continue
			}
			internalID := c.Base + int64(i)
			partitions = append(partitions, New(blockStart, internalID-blockStart))
			blockStart = internalID
			prevBlock = block
		}
	}
	return append(partitions, New(blockStart, size-blockStart))
}

// adjustedBatchSize returns max(minBatchSize, ceil(nodeCount/concurrency)).
func adjustedBatchSize(nodeCount int64, concurrency int, minBatchSize int64) int64 {
	if concurrency <= 0 {
		concurrency = 1
	}
	return max(minBatchSize, ceilDiv(nodeCount, int64(concurrency)))
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
