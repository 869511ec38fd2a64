package adjacency

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/hupe1980/hugegraph/internal/arena"
	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/paged"
)

// Builder encodes per-node target runs into a List.
//
// Add may be called concurrently for distinct nodes. Build must be called
// once, after every Add has returned. A builder that is abandoned before
// Build must be released with Release.
type Builder struct {
	opts      options
	nodeCount int64

	topology        *arena.Arena
	offsets         *paged.Array[uint64]
	properties      []*arena.Arena
	propertyOffsets []*paged.Array[uint64]
	added           *paged.BitSet

	relationships atomic.Int64
	maxDegree     atomic.Int64
	built         atomic.Bool
}

// NewBuilder creates a Builder for nodes [0, nodeCount).
func NewBuilder(nodeCount int64, optFns ...Option) (*Builder, error) {
	if nodeCount < 0 {
		return nil, fmt.Errorf("%w: adjacency: negative node count %d", errs.ErrInvalidInput, nodeCount)
	}

	o := options{fallback: math.NaN()}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.propertyCount < 0 {
		return nil, fmt.Errorf("%w: adjacency: negative property count %d", errs.ErrInvalidInput, o.propertyCount)
	}

	b := &Builder{
		opts:      o,
		nodeCount: nodeCount,
		added:     paged.NewBitSet(nodeCount),
	}

	var err error
	if b.topology, err = b.newArena(); err != nil {
		return nil, err
	}
	if b.offsets, err = paged.New[uint64](nodeCount, paged.WithMemoryTracker(o.tracker)); err != nil {
		return nil, errors.Join(err, b.Release())
	}

	for range o.propertyCount {
		a, err := b.newArena()
		if err != nil {
			return nil, errors.Join(err, b.Release())
		}
		b.properties = append(b.properties, a)

		offsets, err := paged.New[uint64](nodeCount, paged.WithMemoryTracker(o.tracker))
		if err != nil {
			return nil, errors.Join(err, b.Release())
		}
		b.propertyOffsets = append(b.propertyOffsets, offsets)
	}
	return b, nil
}

func (b *Builder) newArena() (*arena.Arena, error) {
	return arena.New(b.opts.pageBytes,
		arena.WithMemoryAcquirer(b.opts.tracker),
		arena.WithOffHeap(b.opts.offHeap),
	)
}

// NodeCount returns the number of nodes the builder accepts.
func (b *Builder) NodeCount() int64 { return b.nodeCount }

// Add stores the relationships of node. targets must be non-decreasing
// internal ids in [0, NodeCount()); properties must hold one slice per
// configured property, each aligned with targets. The slices are not retained.
func (b *Builder) Add(node int64, targets []int64, properties ...[]float64) error {
	if b.built.Load() {
		return fmt.Errorf("%w: adjacency: builder already built", errs.ErrUnsupported)
	}
	if node < 0 || node >= b.nodeCount {
		return errs.OutOfRange("adjacency.Builder.Add", node, b.nodeCount)
	}
	if len(properties) != b.opts.propertyCount {
		return fmt.Errorf("%w: adjacency: node %d: got %d property slices, want %d",
			errs.ErrInvalidInput, node, len(properties), b.opts.propertyCount)
	}
	for k, values := range properties {
		if len(values) != len(targets) {
			return fmt.Errorf("%w: adjacency: node %d: property %d has %d values for %d targets",
				errs.ErrInvalidInput, node, k, len(values), len(targets))
		}
	}
	if err := b.validateTargets(node, targets); err != nil {
		return err
	}
	if b.added.GetAndSet(node) {
		return fmt.Errorf("%w: adjacency: node %d added twice", errs.ErrInvalidInput, node)
	}

	if b.opts.policy == Deduplicate {
		targets, properties = b.dedupe(targets, properties)
	}
	if len(targets) == 0 {
		return nil
	}
	if int64(len(targets)) > MaxDegree {
		return fmt.Errorf("%w: adjacency: node %d: degree %d exceeds %d", errs.ErrInvalidInput, node, len(targets), MaxDegree)
	}

	addr, block, err := b.topology.Alloc(encodedTargetBytes(targets))
	if err != nil {
		return err
	}
	encodeTargets(block, targets)
	b.offsets.Set(node, addr)

	for k, values := range properties {
		addr, block, err := b.properties[k].Alloc(len(values) * 8)
		if err != nil {
			return err
		}
		encodeProperties(block, values)
		b.propertyOffsets[k].Set(node, addr)
	}

	degree := int64(len(targets))
	b.relationships.Add(degree)
	for {
		current := b.maxDegree.Load()
		if degree <= current || b.maxDegree.CompareAndSwap(current, degree) {
			break
		}
	}
	return nil
}

func (b *Builder) validateTargets(node int64, targets []int64) error {
	prev := int64(-1)
	for i, t := range targets {
		if t < 0 || t >= b.nodeCount {
			return errs.OutOfRange("adjacency.Builder.Add", t, b.nodeCount)
		}
		if t < prev {
			return fmt.Errorf("%w: adjacency: node %d: targets not sorted at %d (%d after %d)",
				errs.ErrInvalidInput, node, i, t, prev)
		}
		prev = t
	}
	return nil
}

func (b *Builder) dedupe(targets []int64, properties [][]float64) ([]int64, [][]float64) {
	out := make([]int64, 0, len(targets))
	outProps := make([][]float64, len(properties))
	for k := range outProps {
		outProps[k] = make([]float64, 0, len(targets))
	}

	for i, t := range targets {
		if n := len(out); n > 0 && out[n-1] == t {
			for k := range outProps {
				outProps[k][n-1] = b.opts.aggregation(k).combine(outProps[k][n-1], properties[k][i])
			}
			continue
		}
		out = append(out, t)
		for k := range outProps {
			outProps[k] = append(outProps[k], properties[k][i])
		}
	}
	return out, outProps
}

// Build freezes the builder and returns the List. Further calls to Add or
// Build fail.
func (b *Builder) Build() (*List, error) {
	if !b.built.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: adjacency: builder already built", errs.ErrUnsupported)
	}

	l := &List{
		nodeCount:         b.nodeCount,
		relationshipCount: b.relationships.Load(),
		maxDegree:         int(b.maxDegree.Load()),
		offsets:           b.offsets,
		pages:             b.topology.Pages(),
		pageShift:         b.topology.PageShift(),
		pageMask:          uint64(b.topology.PageSize() - 1), //nolint:gosec // power of two
		propertyOffsets:   b.propertyOffsets,
		fallback:          b.opts.fallback,
		arenas:            append([]*arena.Arena{b.topology}, b.properties...),
	}
	for _, a := range b.properties {
		l.propertyPages = append(l.propertyPages, a.Pages())
	}
	b.added = nil
	return l, nil
}

// Release frees the pages of a builder that will not be built and makes
// further Add and Build calls fail. After a successful Build the pages belong
// to the List and Release does nothing. Release must not run concurrently
// with Add.
func (b *Builder) Release() error {
	if !b.built.CompareAndSwap(false, true) {
		return nil
	}

	var errList []error
	if b.topology != nil {
		errList = append(errList, b.topology.Free())
	}
	if b.offsets != nil {
		b.offsets.Release()
	}
	for _, a := range b.properties {
		errList = append(errList, a.Free())
	}
	for _, o := range b.propertyOffsets {
		o.Release()
	}
	b.topology, b.offsets, b.properties, b.propertyOffsets, b.added = nil, nil, nil, nil, nil
	return errors.Join(errList...)
}
