package hugegraph

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/hugegraph/adjacency"
	"github.com/hupe1980/hugegraph/concurrency"
	"github.com/hupe1980/hugegraph/idmap"
	"github.com/hupe1980/hugegraph/internal/resource"
	"github.com/hupe1980/hugegraph/paged"
	"github.com/hupe1980/hugegraph/partition"
)

// Builder collects nodes and relationships in external ids and in any order,
// and turns them into a Graph. Add methods are safe for concurrent use.
type Builder struct {
	opts options

	mu         sync.Mutex
	nodes      []int64
	sources    []int64
	targets    []int64
	properties [][]float64
	built      bool
}

// NewBuilder creates an empty Builder.
func NewBuilder(optFns ...Option) (*Builder, error) {
	o := buildOptions(optFns)
	if o.propertyCount < 0 {
		return nil, fmt.Errorf("%w: negative property count %d", ErrInvalidInput, o.propertyCount)
	}
	if len(o.aggregations) > o.propertyCount {
		return nil, fmt.Errorf("%w: %d aggregations for %d properties", ErrInvalidInput, len(o.aggregations), o.propertyCount)
	}
	return &Builder{
		opts:       o,
		properties: make([][]float64, o.propertyCount),
	}, nil
}

// AddNode adds a node without relationships. Adding a node twice is a no-op.
func (b *Builder) AddNode(id int64) error {
	return b.AddNodes(id)
}

// AddNodes adds several nodes.
func (b *Builder) AddNodes(ids ...int64) error {
	for _, id := range ids {
		if id < 0 {
			return fmt.Errorf("%w: negative node id %d", ErrInvalidInput, id)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return errBuilt
	}
	b.nodes = append(b.nodes, ids...)
	return nil
}

// AddRelationship adds a relationship from source to target. Both endpoints
// become nodes of the graph. properties must hold one value per configured
// property.
func (b *Builder) AddRelationship(source, target int64, properties ...float64) error {
	if source < 0 || target < 0 {
		return fmt.Errorf("%w: negative node id in relationship (%d, %d)", ErrInvalidInput, source, target)
	}
	if len(properties) != b.opts.propertyCount {
		return fmt.Errorf("%w: got %d properties, want %d", ErrInvalidInput, len(properties), b.opts.propertyCount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return errBuilt
	}
	b.sources = append(b.sources, source)
	b.targets = append(b.targets, target)
	for k, v := range properties {
		b.properties[k] = append(b.properties[k], v)
	}
	return nil
}

var errBuilt = fmt.Errorf("%w: builder already built", ErrUnsupported)

// Build assigns internal ids in ascending external id order, groups the
// relationships by source in parallel and encodes them. Relationships of one
// source are ordered by target and then by insertion order.
func (b *Builder) Build(ctx context.Context) (*Graph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, errBuilt
	}
	b.built = true

	start := time.Now()
	controller := newController(b.opts)
	exec := newExecutor(b.opts, controller)

	g, err := b.build(ctx, controller, exec)

	var nodes, relationships int64
	if g != nil {
		nodes, relationships = g.NodeCount(), g.RelationshipCount()
	}
	duration := time.Since(start)
	b.opts.metricsCollector.RecordBuild(BuildStats{
		Nodes:         nodes,
		Relationships: relationships,
		Duration:      duration,
		Err:           err,
	})
	b.opts.logger.LogBuild(ctx, nodes, relationships, duration, err)

	b.nodes, b.sources, b.targets, b.properties = nil, nil, nil, nil
	return g, err
}

func (b *Builder) build(ctx context.Context, controller *resource.Controller, exec *concurrency.Executor) (_ *Graph, err error) {
	ids := slices.Concat(b.nodes, b.sources, b.targets)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	nodeMap, err := idmap.New(ids,
		idmap.WithPageBytes(b.opts.pageBytes),
		idmap.WithMemoryTracker(controller),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			nodeMap.Release()
		}
	}()
	nodeCount := nodeMap.NodeCount()
	relCount := int64(len(b.sources))

	groups, err := b.groupBySource(ctx, exec, controller, nodeMap)
	if err != nil {
		return nil, err
	}
	defer groups.release()

	ab, err := adjacency.NewBuilder(nodeCount,
		adjacency.WithPropertyCount(b.opts.propertyCount),
		adjacency.WithDuplicatePolicy(b.opts.duplicatePolicy),
		adjacency.WithAggregation(b.opts.aggregations...),
		adjacency.WithPropertyFallback(b.opts.propertyFallback),
		adjacency.WithPageBytes(b.opts.pageBytes),
		adjacency.WithOffHeap(b.opts.offHeap),
		adjacency.WithMemoryTracker(controller),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ab.Release())
		}
	}()

	partitions, err := partition.Degree(nodeCount, groups.degree, b.opts.concurrency, b.opts.minDegreeBatch)
	if err != nil {
		return nil, err
	}
	b.opts.logger.LogPartitioning(ctx, "degree", len(partitions), nodeCount)

	progress := concurrency.NewProgress(b.opts.logger.Logger, "encode", relCount)
	tasks := make([]concurrency.Task, len(partitions))
	for i, p := range partitions {
		tasks[i] = func(ctx context.Context) error {
			enc := newNodeEncoder(b, nodeMap)
			var encodeErr error
			err := p.ConsumeWithFlag(ctx, func(node int64) {
				if encodeErr != nil {
					return
				}
				encodeErr = enc.encode(ab, node, groups)
			})
			progress.Add(p.TotalDegree)
			if encodeErr != nil {
				return encodeErr
			}
			return err
		}
	}
	if err := concurrency.Run(ctx, exec, tasks); err != nil {
		return nil, err
	}
	progress.Finish()

	list, err := ab.Build()
	if err != nil {
		return nil, err
	}
	return newGraph(nodeMap, list, b.opts, controller, exec), nil
}

// sourceGroups holds relationship indices grouped by internal source id:
// order[offsets[n]:offsets[n+1]] are the relationships of node n.
type sourceGroups struct {
	offsets *paged.Array[int64]
	order   *paged.Array[int64]
}

func (s sourceGroups) degree(node int64) int {
	return int(s.offsets.Get(node+1) - s.offsets.Get(node))
}

func (s sourceGroups) release() {
	s.offsets.Release()
	s.order.Release()
}

// groupBySource counts the out-degree of every node in parallel, turns the
// counts into offsets and scatters the relationship indices into their slots.
func (b *Builder) groupBySource(ctx context.Context, exec *concurrency.Executor, controller *resource.Controller, nodeMap *idmap.Map) (sourceGroups, error) {
	nodeCount := nodeMap.NodeCount()
	relCount := int64(len(b.sources))
	relPartitions := partition.Range(b.opts.concurrency, relCount, b.opts.minBatchSize)

	degrees, err := paged.NewAtomicInt64(nodeCount, paged.WithMemoryTracker(controller))
	if err != nil {
		return sourceGroups{}, err
	}
	defer degrees.Release()

	err = concurrency.RunPartitions(ctx, exec, relPartitions, func(ctx context.Context, p partition.Partition) error {
		return p.ConsumeWithFlag(ctx, func(rel int64) {
			degrees.AddTo(nodeMap.ToMappedNodeID(b.sources[rel]), 1)
		})
	})
	if err != nil {
		return sourceGroups{}, err
	}

	offsets, err := partition.PrefixSum(nodeCount, func(node int64) int { return int(degrees.Get(node)) })
	if err != nil {
		return sourceGroups{}, err
	}
	order, err := paged.New[int64](relCount, paged.WithMemoryTracker(controller))
	if err != nil {
		offsets.Release()
		return sourceGroups{}, err
	}
	groups := sourceGroups{offsets: offsets, order: order}

	// degrees becomes the next free slot per node
	for node := range nodeCount {
		degrees.Set(node, offsets.Get(node))
	}
	err = concurrency.RunPartitions(ctx, exec, relPartitions, func(ctx context.Context, p partition.Partition) error {
		return p.ConsumeWithFlag(ctx, func(rel int64) {
			slot := degrees.GetAndAdd(nodeMap.ToMappedNodeID(b.sources[rel]), 1)
			order.Set(slot, rel)
		})
	})
	if err != nil {
		groups.release()
		return sourceGroups{}, err
	}
	return groups, nil
}

// nodeEncoder sorts and encodes the relationships of one node at a time.
// Each task owns one; its buffers are reused across nodes.
type nodeEncoder struct {
	b       *Builder
	nodeMap *idmap.Map
	rels    []int64
	targets []int64
	props   [][]float64
}

func newNodeEncoder(b *Builder, nodeMap *idmap.Map) *nodeEncoder {
	return &nodeEncoder{
		b:       b,
		nodeMap: nodeMap,
		props:   make([][]float64, b.opts.propertyCount),
	}
}

func (e *nodeEncoder) encode(ab *adjacency.Builder, node int64, groups sourceGroups) error {
	from, to := groups.offsets.Get(node), groups.offsets.Get(node+1)
	if from == to {
		return nil
	}

	e.rels = e.rels[:0]
	for i := from; i < to; i++ {
		e.rels = append(e.rels, groups.order.Get(i))
	}
	slices.SortFunc(e.rels, func(x, y int64) int {
		if c := cmp.Compare(e.b.targets[x], e.b.targets[y]); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	})

	e.targets = e.targets[:0]
	for k := range e.props {
		e.props[k] = e.props[k][:0]
	}
	for _, rel := range e.rels {
		e.targets = append(e.targets, e.nodeMap.ToMappedNodeID(e.b.targets[rel]))
		for k := range e.props {
			e.props[k] = append(e.props[k], e.b.properties[k][rel])
		}
	}
	return ab.Add(node, e.targets, e.props...)
}
