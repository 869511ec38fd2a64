package hugegraph

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/hugegraph/concurrency"
)

// BuildStats describes one graph construction.
type BuildStats struct {
	Nodes         int64
	Relationships int64
	Duration      time.Duration
	Err           error
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each graph construction.
	RecordBuild(stats BuildStats)

	// RecordRun is called after each parallel run on the graph's executor.
	RecordRun(stats concurrency.RunStats)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(BuildStats)         {}
func (NoopMetricsCollector) RecordRun(concurrency.RunStats) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	BuildCount         atomic.Int64
	BuildErrors        atomic.Int64
	BuildTotalNanos    atomic.Int64
	NodesBuilt         atomic.Int64
	RelationshipsBuilt atomic.Int64
	RunCount           atomic.Int64
	RunTasks           atomic.Int64
	RunFailures        atomic.Int64
	RunCancellations   atomic.Int64
	RunTotalNanos      atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(stats BuildStats) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(stats.Duration.Nanoseconds())
	if stats.Err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.NodesBuilt.Add(stats.Nodes)
	b.RelationshipsBuilt.Add(stats.Relationships)
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(stats concurrency.RunStats) {
	b.RunCount.Add(1)
	b.RunTasks.Add(int64(stats.Tasks))
	b.RunTotalNanos.Add(stats.Duration.Nanoseconds())
	if stats.Failed {
		b.RunFailures.Add(1)
	}
	if stats.Cancelled {
		b.RunCancellations.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:         b.BuildCount.Load(),
		BuildErrors:        b.BuildErrors.Load(),
		BuildAvgNanos:      avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		NodesBuilt:         b.NodesBuilt.Load(),
		RelationshipsBuilt: b.RelationshipsBuilt.Load(),
		RunCount:           b.RunCount.Load(),
		RunTasks:           b.RunTasks.Load(),
		RunFailures:        b.RunFailures.Load(),
		RunCancellations:   b.RunCancellations.Load(),
		RunAvgNanos:        avg(b.RunTotalNanos.Load(), b.RunCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount         int64
	BuildErrors        int64
	BuildAvgNanos      int64
	NodesBuilt         int64
	RelationshipsBuilt int64
	RunCount           int64
	RunTasks           int64
	RunFailures        int64
	RunCancellations   int64
	RunAvgNanos        int64
}
