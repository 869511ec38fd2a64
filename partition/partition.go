package partition

import (
	"fmt"
	"math"
)

const (
	// DefaultBatchSize is the minimum batch size used when none is given.
	DefaultBatchSize = 10_000

	// DefaultDegreeBatchSize is the minimum summed degree of a degree
	// partition used when none is given.
	DefaultDegreeBatchSize = 10_000

	// CheckInterval is the number of nodes consumed between two
	// termination checks.
	CheckInterval = 10_000

	// MaxNodeCount bounds the size of a single partition.
	MaxNodeCount = (math.MaxInt32 - 32) >> 1
)

// Flag is polled by ConsumeWithFlag. A non-nil Err stops consumption.
// context.Context and *concurrency.TerminationFlag implement it.
type Flag interface {
	Err() error
}

// Partition is the node range [StartNode(), EndNode()).
type Partition struct {
	start     int64
	nodeCount int64
}

// New returns the partition [start, start+nodeCount).
func New(start, nodeCount int64) Partition {
	return Partition{start: start, nodeCount: nodeCount}
}

// StartNode returns the first node.
func (p Partition) StartNode() int64 { return p.start }

// NodeCount returns the number of nodes.
func (p Partition) NodeCount() int64 { return p.nodeCount }

// EndNode returns the exclusive end.
func (p Partition) EndNode() int64 { return p.start + p.nodeCount }

// Consume calls fn for every node in ascending order.
func (p Partition) Consume(fn func(node int64)) {
	for node, end := p.start, p.EndNode(); node < end; node++ {
		fn(node)
	}
}

// ConsumeWithFlag is Consume that polls flag before every CheckInterval
// nodes and returns its error once it trips.
func (p Partition) ConsumeWithFlag(flag Flag, fn func(node int64)) error {
	end := p.EndNode()
	for node := p.start; node < end; {
		if err := flag.Err(); err != nil {
			return err
		}
		batchEnd := min(node+CheckInterval, end)
		for ; node < batchEnd; node++ {
			fn(node)
		}
	}
	return nil
}

func (p Partition) String() string {
	return fmt.Sprintf("Partition{start=%d, nodes=%d}", p.start, p.nodeCount)
}

// DegreePartition is a Partition that also records the summed degree of its
// nodes.
type DegreePartition struct {
	Partition
	TotalDegree int64
}

func (p DegreePartition) String() string {
	return fmt.Sprintf("DegreePartition{start=%d, nodes=%d, degree=%d}", p.start, p.nodeCount, p.TotalDegree)
}

// DegreeFunc returns the degree of a node. (*adjacency.List).Degree fits.
type DegreeFunc func(node int64) int
