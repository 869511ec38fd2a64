// Package hugegraph provides an in-memory graph storage core for parallel
// graph algorithms.
//
// A Graph combines three immutable structures built once per snapshot:
//
//   - an idmap.Map translating external node ids into dense internal ids,
//   - an adjacency.List holding compressed, lazily decoded neighbor runs,
//   - an optional set of relationship properties aligned with the targets.
//
// Algorithms allocate their own result storage from package paged, split the
// node space with package partition and run the partitions through a
// concurrency.Executor.
//
// # Quick Start
//
//	b := hugegraph.NewBuilder(hugegraph.WithConcurrency(8))
//	_ = b.AddRelationship(100, 200)
//	_ = b.AddRelationship(100, 300)
//	g, _ := b.Build(ctx)
//	defer g.Release()
//
//	ranks, _ := paged.NewAtomicFloat64(g.NodeCount())
//	_ = g.ForEachNode(ctx, nil, func(node int64) {
//	    c := g.Cursor(node, nil)
//	    for c.HasNext() {
//	        ranks.AddTo(c.NextID(), 1)
//	    }
//	})
//
// # Filtered views
//
// Graph.Filter selects a node subset and returns a Graph that renumbers the
// selected nodes densely. The adjacency data is shared with the root graph;
// cursors skip targets outside the subset.
//
// # Memory
//
// EstimateMemory computes the expected footprint from node and relationship
// counts without building anything. WithMemoryLimit enforces a hard budget
// during construction.
package hugegraph
