// Package partition splits the node id space into contiguous work units.
//
// All partitionings of [0, nodeCount) are disjoint and exhaustive. Each
// partition visits its nodes in ascending order; there is no ordering
// between partitions.
package partition
