package hugegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/hugegraph/adjacency"
	"github.com/hupe1980/hugegraph/concurrency"
	"github.com/hupe1980/hugegraph/idmap"
	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/internal/pool"
	"github.com/hupe1980/hugegraph/internal/resource"
	"github.com/hupe1980/hugegraph/paged"
	"github.com/hupe1980/hugegraph/partition"
)

// Graph is an immutable graph snapshot. It is safe for concurrent readers as
// long as every goroutine uses its own cursors.
type Graph struct {
	nodes             idmap.Mapping
	root              *idmap.Map
	filter            *idmap.Filtered
	adjacency         *adjacency.List
	relationshipCount int64

	opts       options
	controller *resource.Controller
	exec       *concurrency.Executor
}

// FromParts assembles a Graph from an id map and an adjacency list built by
// an external loader. Both must cover the same nodes.
func FromParts(nodes *idmap.Map, list *adjacency.List, optFns ...Option) (*Graph, error) {
	if nodes == nil || list == nil {
		return nil, fmt.Errorf("%w: nil id map or adjacency list", ErrInvalidInput)
	}
	if nodes.NodeCount() != list.NodeCount() {
		return nil, fmt.Errorf("%w: id map has %d nodes, adjacency list %d",
			ErrInvalidInput, nodes.NodeCount(), list.NodeCount())
	}
	o := buildOptions(optFns)
	controller := newController(o)
	return newGraph(nodes, list, o, controller, newExecutor(o, controller)), nil
}

func newController(o options) *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes: o.memoryLimit,
		MaxWorkers:       int64(o.concurrency),
	})
}

func newExecutor(o options, controller *resource.Controller) *concurrency.Executor {
	return concurrency.NewExecutor(
		concurrency.WithConcurrency(o.concurrency),
		concurrency.WithController(controller),
		concurrency.WithLogger(o.logger.Logger),
		concurrency.WithObserver(runObserver{o}),
	)
}

func newGraph(nodes *idmap.Map, list *adjacency.List, o options, controller *resource.Controller, exec *concurrency.Executor) *Graph {
	return &Graph{
		nodes:             nodes,
		root:              nodes,
		adjacency:         list,
		relationshipCount: list.RelationshipCount(),
		opts:              o,
		controller:        controller,
		exec:              exec,
	}
}

// runObserver forwards executor runs to the metrics collector and logger.
type runObserver struct {
	opts options
}

func (r runObserver) RecordRun(stats concurrency.RunStats) {
	r.opts.metricsCollector.RecordRun(stats)
	r.opts.logger.LogRun(context.Background(), stats)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int64 { return g.nodes.NodeCount() }

// RelationshipCount returns the number of relationships between nodes of
// this graph.
func (g *Graph) RelationshipCount() int64 { return g.relationshipCount }

// PropertyCount returns the number of properties per relationship.
func (g *Graph) PropertyCount() int { return g.adjacency.PropertyCount() }

// IsFiltered reports whether g is a filtered view.
func (g *Graph) IsFiltered() bool { return g.filter != nil }

// IDMap returns the node id mapping of this graph.
func (g *Graph) IDMap() idmap.Mapping { return g.nodes }

// Adjacency returns the underlying adjacency list. Its node ids are root ids.
func (g *Graph) Adjacency() *adjacency.List { return g.adjacency }

// Executor returns the graph's executor.
func (g *Graph) Executor() *concurrency.Executor { return g.exec }

// Concurrency returns the configured concurrency.
func (g *Graph) Concurrency() int { return g.opts.concurrency }

// ToMappedNodeID returns the internal id of an external id, or idmap.NotFound.
func (g *Graph) ToMappedNodeID(externalID int64) int64 { return g.nodes.ToMappedNodeID(externalID) }

// ToOriginalNodeID returns the external id of an internal id, or idmap.NotFound.
func (g *Graph) ToOriginalNodeID(node int64) int64 { return g.nodes.ToOriginalNodeID(node) }

// Contains reports whether the external id is part of the graph.
func (g *Graph) Contains(externalID int64) bool { return g.nodes.Contains(externalID) }

func (g *Graph) rootID(node int64) int64 {
	if g.filter == nil {
		return node
	}
	return g.filter.ToRootNodeID(node)
}

// Degree returns the number of relationships of node. It is O(1) for root
// graphs; filtered views count the targets inside the subset.
// node must be in [0, NodeCount()).
func (g *Graph) Degree(node int64) int {
	if g.filter == nil {
		return g.adjacency.Degree(node)
	}
	cursors := pool.Get()
	defer pool.Put(cursors)

	c := g.pooledCursor(cursors, node)
	n := 0
	for c.HasNext() {
		c.NextID()
		n++
	}
	return n
}

// Cursor returns a cursor over the targets of node. For root graphs reuse is
// repositioned when given; filtered views wrap it in a new FilteredCursor.
// Loops over many nodes should use InitCursor instead.
func (g *Graph) Cursor(node int64, reuse *adjacency.DecompressingCursor) adjacency.Cursor {
	inner := g.adjacency.Cursor(g.rootID(node), reuse)
	if g.filter == nil {
		return inner
	}
	return adjacency.NewFilteredCursor(inner, g.filter)
}

// NodeCursor holds the cursor state InitCursor repositions. The zero value
// is ready to use; a NodeCursor must not be shared between goroutines.
type NodeCursor struct {
	adjacency adjacency.DecompressingCursor
	filtered  adjacency.FilteredCursor
}

// InitCursor positions c on node and returns it as a cursor over node's
// targets. It does not allocate once c has been used on a node with the
// graph's property count. The returned cursor is valid until the next call
// with the same c.
func (g *Graph) InitCursor(c *NodeCursor, node int64) adjacency.Cursor {
	inner := g.adjacency.InitCursor(&c.adjacency, g.rootID(node))
	if g.filter == nil {
		return inner
	}
	c.filtered.Init(inner, g.filter)
	return &c.filtered
}

func (g *Graph) pooledCursor(cursors *pool.Cursors, node int64) adjacency.Cursor {
	if g.filter == nil {
		return cursors.AdjacencyCursor(g.adjacency, node)
	}
	return cursors.FilteredCursor(g.adjacency, g.filter.ToRootNodeID(node), g.filter)
}

// PropertyCursor returns a cursor over property k of node's relationships.
// It is only available on root graphs, where targets and properties align.
func (g *Graph) PropertyCursor(node int64, k int, reuse *adjacency.PropertyCursor) (*adjacency.PropertyCursor, error) {
	if g.filter != nil {
		return nil, fmt.Errorf("%w: property cursors on filtered graphs", ErrUnsupported)
	}
	return g.adjacency.PropertyCursor(node, k, g.opts.propertyFallback, reuse), nil
}

// ForEachRelationship calls fn for every relationship of node until fn
// returns false.
func (g *Graph) ForEachRelationship(node int64, fn func(source, target int64) bool) {
	cursors := pool.Get()
	defer pool.Put(cursors)

	c := g.pooledCursor(cursors, node)
	for c.HasNext() {
		if !fn(node, c.NextID()) {
			return
		}
	}
}

// ForEachRelationshipWithProperty is ForEachRelationship that also passes
// property k of every relationship.
func (g *Graph) ForEachRelationshipWithProperty(node int64, k int, fn func(source, target int64, property float64) bool) {
	cursors := pool.Get()
	defer pool.Put(cursors)

	c := g.pooledCursor(cursors, node)
	for c.HasNext() {
		target := c.NextID()
		if !fn(node, target, c.Property(k)) {
			return
		}
	}
}

// RangePartitions splits the node space into balanced node ranges.
func (g *Graph) RangePartitions() []partition.Partition {
	partitions := partition.Range(g.opts.concurrency, g.NodeCount(), g.opts.minBatchSize)
	g.opts.logger.LogPartitioning(context.Background(), "range", len(partitions), g.NodeCount())
	return partitions
}

// DegreePartitions splits the node space into ranges of similar summed degree.
func (g *Graph) DegreePartitions() ([]partition.DegreePartition, error) {
	partitions, err := partition.Degree(g.NodeCount(), g.Degree, g.opts.concurrency, g.opts.minDegreeBatch)
	if err != nil {
		return nil, err
	}
	g.opts.logger.LogPartitioning(context.Background(), "degree", len(partitions), g.NodeCount())
	return partitions, nil
}

// Run executes tasks on the graph's executor.
func (g *Graph) Run(ctx context.Context, tasks []concurrency.Task) error {
	return concurrency.Run(ctx, g.exec, tasks)
}

// ForEachNode calls fn for every node in parallel range partitions. A nil
// flag is derived from ctx.
func (g *Graph) ForEachNode(ctx context.Context, flag *concurrency.TerminationFlag, fn func(node int64)) error {
	return concurrency.ForEachNode(ctx, g.exec, flag, g.NodeCount(), g.opts.minBatchSize, fn)
}

// Filter returns a view over the given internal node ids of g. Relationships
// whose target lies outside the subset are hidden. The view shares storage
// with g; releasing g invalidates it.
func (g *Graph) Filter(ctx context.Context, nodes []int64) (*Graph, error) {
	rootIDs := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		if n < 0 || n >= g.NodeCount() {
			return nil, errs.OutOfRange("hugegraph.Graph.Filter", n, g.NodeCount())
		}
		rootIDs = append(rootIDs, g.rootID(n))
	}

	filtered, err := idmap.FilterIDs(g.root, rootIDs)
	if err != nil {
		g.opts.logger.LogFilter(ctx, int64(len(nodes)), 0, err)
		return nil, err
	}

	view := &Graph{
		nodes:      filtered,
		root:       g.root,
		filter:     filtered,
		adjacency:  g.adjacency,
		opts:       g.opts,
		controller: g.controller,
		exec:       g.exec,
	}

	count, err := view.countRelationships(ctx)
	if err != nil {
		g.opts.logger.LogFilter(ctx, filtered.NodeCount(), 0, err)
		return nil, err
	}
	view.relationshipCount = count
	g.opts.logger.LogFilter(ctx, filtered.NodeCount(), count, nil)
	return view, nil
}

func (g *Graph) countRelationships(ctx context.Context) (int64, error) {
	partitions := g.RangePartitions()
	counts, err := paged.NewAtomicInt64(int64(len(partitions)))
	if err != nil {
		return 0, err
	}

	tasks := make([]concurrency.Task, len(partitions))
	for i, p := range partitions {
		tasks[i] = func(ctx context.Context) error {
			return p.ConsumeWithFlag(ctx, func(node int64) {
				counts.AddTo(int64(i), int64(g.Degree(node)))
			})
		}
	}
	if err := g.Run(ctx, tasks); err != nil {
		return 0, err
	}

	var total int64
	for i := range int64(len(partitions)) {
		total += counts.Get(i)
	}
	return total, nil
}

// MemoryUsage returns the bytes held by the graph's structures. Filtered
// views report the view only.
func (g *Graph) MemoryUsage() int64 {
	if g.filter != nil {
		return g.filter.SizeOf()
	}
	return g.root.SizeOf() + g.adjacency.SizeOf()
}

// PeakMemoryUsage returns the tracked peak during construction.
func (g *Graph) PeakMemoryUsage() int64 { return g.controller.PeakMemoryUsage() }

// Release frees the adjacency pages and the id map. Filtered views do not
// own storage and release nothing.
func (g *Graph) Release() error {
	if g.filter != nil {
		return nil
	}
	err := g.adjacency.Release()
	g.root.Release()
	return err
}

// DegreeStats summarises the degree distribution.
type DegreeStats struct {
	Min       int64
	Max       int64
	Mean      float64
	Isolated  int64
	Histogram []int64 // Histogram[i] counts nodes with degree in [2^(i-1), 2^i); index 0 counts degree 0
}

const histogramBuckets = 34

// DegreeStats computes the degree distribution in parallel.
func (g *Graph) DegreeStats(ctx context.Context) (DegreeStats, error) {
	n := g.NodeCount()
	if n == 0 {
		return DegreeStats{}, fmt.Errorf("%w: degree statistics of empty graph", ErrUnsupported)
	}

	hist, err := paged.NewAtomicInt64(histogramBuckets)
	if err != nil {
		return DegreeStats{}, err
	}
	extremes, err := paged.NewAtomicInt64(2)
	if err != nil {
		return DegreeStats{}, err
	}
	extremes.Set(0, int64(^uint64(0)>>1))

	start := time.Now()
	progress := concurrency.NewProgress(g.opts.logger.Logger, "degree-stats", n)
	err = g.ForEachNode(ctx, nil, func(node int64) {
		d := int64(g.Degree(node))
		hist.AddTo(int64(bucketOf(d)), 1)
		extremes.Update(0, func(v int64) int64 { return min(v, d) })
		extremes.Update(1, func(v int64) int64 { return max(v, d) })
		if (node+1)%partition.CheckInterval == 0 {
			progress.Add(partition.CheckInterval)
		}
	})
	if err != nil {
		return DegreeStats{}, err
	}
	progress.Finish()
	g.opts.logger.DebugContext(ctx, "degree statistics computed", "duration", time.Since(start))

	stats := DegreeStats{
		Min:       extremes.Get(0),
		Max:       extremes.Get(1),
		Mean:      float64(g.RelationshipCount()) / float64(n),
		Isolated:  hist.Get(0),
		Histogram: make([]int64, histogramBuckets),
	}
	last := 0
	for i := range stats.Histogram {
		stats.Histogram[i] = hist.Get(int64(i))
		if stats.Histogram[i] > 0 {
			last = i
		}
	}
	stats.Histogram = stats.Histogram[:last+1]
	return stats, nil
}

func bucketOf(degree int64) int {
	b := 0
	for degree > 0 {
		degree >>= 1
		b++
	}
	return min(b, histogramBuckets-1)
}
