package hugegraph

import (
	"math"
	"runtime"

	"github.com/hupe1980/hugegraph/adjacency"
	"github.com/hupe1980/hugegraph/partition"
)

type options struct {
	concurrency      int
	minBatchSize     int64
	minDegreeBatch   int64
	logger           *Logger
	metricsCollector MetricsCollector
	memoryLimit      int64
	pageBytes        int
	offHeap          bool
	propertyCount    int
	propertyFallback float64
	duplicatePolicy  adjacency.DuplicatePolicy
	aggregations     []adjacency.Aggregation
}

// Option configures graph construction and the graph's executor.
type Option func(*options)

func defaultOptions() options {
	return options{
		concurrency:      runtime.GOMAXPROCS(0),
		minBatchSize:     partition.DefaultBatchSize,
		minDegreeBatch:   partition.DefaultDegreeBatchSize,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		propertyFallback: math.NaN(),
		duplicatePolicy:  adjacency.KeepDuplicates,
	}
}

func buildOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithConcurrency sets the number of partitions processed at once.
// Values below 1 keep the default of runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMinBatchSize sets the smallest number of nodes per range partition.
func WithMinBatchSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.minBatchSize = n
		}
	}
}

// WithMinDegreeBatchSize sets the smallest summed degree, in relationships,
// per degree partition.
func WithMinDegreeBatchSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.minDegreeBatch = n
		}
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMemoryLimit enforces a hard budget on the bytes held by paged
// structures during construction. 0 disables the limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithPageBytes sets the page size of the adjacency page stores.
func WithPageBytes(b int) Option {
	return func(o *options) {
		o.pageBytes = b
	}
}

// WithOffHeapPages places adjacency pages in anonymous memory mappings
// instead of the Go heap.
func WithOffHeapPages(enabled bool) Option {
	return func(o *options) {
		o.offHeap = enabled
	}
}

// WithPropertyCount sets the number of float64 properties per relationship.
func WithPropertyCount(n int) Option {
	return func(o *options) {
		o.propertyCount = n
	}
}

// WithPropertyFallback sets the value returned for missing properties.
func WithPropertyFallback(v float64) Option {
	return func(o *options) {
		o.propertyFallback = v
	}
}

// WithDuplicatePolicy selects whether parallel relationships are kept.
func WithDuplicatePolicy(p adjacency.DuplicatePolicy) Option {
	return func(o *options) {
		o.duplicatePolicy = p
	}
}

// WithAggregation sets how properties of collapsed duplicates are combined.
func WithAggregation(aggs ...adjacency.Aggregation) Option {
	return func(o *options) {
		o.aggregations = aggs
	}
}
