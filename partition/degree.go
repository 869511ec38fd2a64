package partition

import (
	"math"

	"github.com/hupe1980/hugegraph/paged"
)

const (
	// MinPartitionCapacity is the share of the batch size a degree partition
	// must reach before it may be closed.
	MinPartitionCapacity = 0.67

	// minLastPartitionShare is the share of the batch size below which the
	// last degree partition is merged into its predecessor.
	minLastPartitionShare = 0.2
)

// Degree splits [0, nodeCount) into at most concurrency partitions of roughly
// equal summed degree. It builds a prefix sum of the degrees and places each
// boundary with a binary search, so hub nodes do not unbalance the load.
// Each batch carries at least minBatchSize relationships.
func Degree(nodeCount int64, degrees DegreeFunc, concurrency int, minBatchSize int64) ([]DegreePartition, error) {
	if nodeCount <= 0 {
		return nil, nil
	}

	prefix, err := PrefixSum(nodeCount, degrees)
	if err != nil {
		return nil, err
	}
	total := prefix.Get(nodeCount)
	if concurrency <= 1 || total == 0 {
		return []DegreePartition{{Partition: New(0, nodeCount), TotalDegree: total}}, nil
	}

	batch := max(max(minBatchSize, 1), ceilDiv(total, int64(concurrency)))

	partitions := make([]DegreePartition, 0, concurrency)
	start := int64(0)
	for start < nodeCount {
		target := prefix.Get(start) + batch
		end := lowerBound(prefix, start+1, nodeCount, target)
		if len(partitions) == concurrency-1 {
			end = nodeCount
		}
		end = min(end, start+MaxNodeCount, nodeCount)
		partitions = append(partitions, DegreePartition{
			Partition:   New(start, end-start),
			TotalDegree: prefix.Get(end) - prefix.Get(start),
		})
		start = end
	}
	return partitions, nil
}

// PrefixSum returns an array p of size nodeCount+1 with p[i] the summed
// degree of nodes [0, i).
func PrefixSum(nodeCount int64, degrees DegreeFunc) (*paged.Array[int64], error) {
	prefix, err := paged.New[int64](nodeCount + 1)
	if err != nil {
		return nil, err
	}
	var sum int64
	for node := range nodeCount {
		prefix.Set(node, sum)
		sum += int64(degrees(node))
	}
	prefix.Set(nodeCount, sum)
	return prefix, nil
}

// lowerBound returns the smallest i in [lo, hi] with prefix[i] >= target,
// or hi when none is.
func lowerBound(prefix *paged.Array[int64], lo, hi, target int64) int64 {
	for lo < hi {
		mid := int64(uint64(lo+hi) >> 1)
		if prefix.Get(mid) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// DegreeWithBatchSize greedily fills partitions up to batchSize summed
// degree. A partition is only closed once it holds MinPartitionCapacity of a
// batch, and a final partition below a fifth of a batch is merged into its
// predecessor.
func DegreeWithBatchSize(nodeCount int64, degrees DegreeFunc, batchSize int64) []DegreePartition {
	if nodeCount <= 0 {
		return nil
	}
	batchSize = max(batchSize, 1)
	minPartitionSize := int64(math.Round(float64(batchSize) * MinPartitionCapacity))

	var partitions []DegreePartition
	for start := int64(0); start < nodeCount; {
		var size int64
		node := start - 1
		for node < nodeCount-1 && node-start < MaxNodeCount {
			degree := int64(degrees(node + 1))
			if size+degree > batchSize && size >= minPartitionSize {
				break
			}
			node++
			size += degree
		}
		end := node + 1
		partitions = append(partitions, DegreePartition{Partition: New(start, end-start), TotalDegree: size})
		start = end
	}

	minLast := int64(math.Round(minLastPartitionShare * float64(batchSize)))
	if n := len(partitions); n > 1 && partitions[n-1].TotalDegree < minLast {
		last, prev := partitions[n-1], partitions[n-2]
		partitions = append(partitions[:n-2], DegreePartition{
			Partition:   New(prev.start, prev.nodeCount+last.nodeCount),
			TotalDegree: prev.TotalDegree + last.TotalDegree,
		})
	}
	return partitions
}

// BitSetPartition covers Length consecutive set bits of a BitSet, starting
// at bit Start.
type BitSetPartition struct {
	bits   *paged.BitSet
	Start  int64
	Length int64
}

// Consume calls fn for each node of the partition in ascending order.
func (p BitSetPartition) Consume(fn func(node int64)) {
	node := p.Start
	for range p.Length {
		fn(node)
		node = p.bits.NextSetBit(node + 1)
	}
}

// DegreeOverBitSet groups the set bits of bits into partitions holding at
// least degreesPerBatch summed degree each (the last one may hold less).
func DegreeOverBitSet(bits *paged.BitSet, degrees DegreeFunc, degreesPerBatch int64) []BitSetPartition {
	degreesPerBatch = max(degreesPerBatch, 1)

	var partitions []BitSetPartition
	node := bits.NextSetBit(0)
	for node >= 0 {
		start := node
		length := int64(1)
		current := int64(degrees(node))
		node = bits.NextSetBit(node + 1)

		for node >= 0 && current < degreesPerBatch && length < MaxNodeCount {
			current += int64(degrees(node))
			length++
			node = bits.NextSetBit(node + 1)
		}
		partitions = append(partitions, BitSetPartition{bits: bits, Start: start, Length: length})
	}
	return partitions
}
