package adjacency

import (
	"math"

	"github.com/hupe1980/hugegraph/paged"
)

// DuplicatePolicy decides what happens to repeated targets of one node.
type DuplicatePolicy int

const (
	// KeepDuplicates stores every relationship as given.
	KeepDuplicates DuplicatePolicy = iota
	// Deduplicate collapses equal targets into one relationship whose
	// properties are combined with the configured Aggregation.
	Deduplicate
)

func (p DuplicatePolicy) String() string {
	switch p {
	case KeepDuplicates:
		return "keep"
	case Deduplicate:
		return "deduplicate"
	default:
		return "unknown"
	}
}

// Aggregation combines property values of collapsed duplicates.
type Aggregation int

const (
	// Single keeps the first value.
	Single Aggregation = iota
	// Sum adds the values.
	Sum
	// Min keeps the smallest value.
	Min
	// Max keeps the largest value.
	Max
)

func (a Aggregation) String() string {
	switch a {
	case Single:
		return "single"
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

func (a Aggregation) combine(acc, v float64) float64 {
	switch a {
	case Sum:
		return acc + v
	case Min:
		return math.Min(acc, v)
	case Max:
		return math.Max(acc, v)
	default:
		return acc
	}
}

type options struct {
	propertyCount int
	policy        DuplicatePolicy
	aggregations  []Aggregation
	fallback      float64
	pageBytes     int
	offHeap       bool
	tracker       paged.MemoryTracker
}

// Option configures a Builder.
type Option func(*options)

// WithPropertyCount sets the number of float64 properties per relationship.
func WithPropertyCount(n int) Option {
	return func(o *options) {
		o.propertyCount = n
	}
}

// WithDuplicatePolicy selects how repeated targets are stored.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithAggregation sets the per-property aggregation used by Deduplicate.
// A single value applies to every property.
func WithAggregation(aggs ...Aggregation) Option {
	return func(o *options) {
		o.aggregations = aggs
	}
}

// WithPropertyFallback sets the value cursors return for missing properties.
func WithPropertyFallback(v float64) Option {
	return func(o *options) {
		o.fallback = v
	}
}

// WithPageBytes sets the size of topology and property pages.
func WithPageBytes(b int) Option {
	return func(o *options) {
		o.pageBytes = b
	}
}

// WithOffHeap places topology and property pages in anonymous mappings.
func WithOffHeap(enabled bool) Option {
	return func(o *options) {
		o.offHeap = enabled
	}
}

// WithMemoryTracker accounts every page against t.
func WithMemoryTracker(t paged.MemoryTracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}

func (o *options) aggregation(k int) Aggregation {
	switch {
	case len(o.aggregations) == 0:
		return Single
	case k < len(o.aggregations):
		return o.aggregations[k]
	default:
		return o.aggregations[0]
	}
}
