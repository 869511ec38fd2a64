// Package prommetrics exports hugegraph build and run metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, err := prommetrics.New(reg, "hugegraph")
//	...
//	b, err := hugegraph.NewBuilder(hugegraph.WithMetricsCollector(mc))
package prommetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/hugegraph"
	"github.com/hupe1980/hugegraph/concurrency"
)

// Collector implements hugegraph.MetricsCollector with Prometheus metrics.
type Collector struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	nodes         prometheus.Gauge
	relationships prometheus.Gauge
	runs          *prometheus.CounterVec
	runTasks      prometheus.Counter
	runDuration   prometheus.Histogram
}

var _ hugegraph.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg under namespace.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Graph constructions by result.",
		}, []string{"result"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of graph constructions.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Node count of the last built graph.",
		}),
		relationships: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relationships",
			Help:      "Relationship count of the last built graph.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Parallel runs by outcome.",
		}, []string{"outcome"}),
		runTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_tasks_total",
			Help:      "Tasks submitted to parallel runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of parallel runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, m := range []prometheus.Collector{
		c.builds, c.buildDuration, c.nodes, c.relationships,
		c.runs, c.runTasks, c.runDuration,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordBuild implements hugegraph.MetricsCollector.
func (c *Collector) RecordBuild(stats hugegraph.BuildStats) {
	c.buildDuration.Observe(stats.Duration.Seconds())
	if stats.Err != nil {
		c.builds.WithLabelValues("error").Inc()
		return
	}
	c.builds.WithLabelValues("ok").Inc()
	c.nodes.Set(float64(stats.Nodes))
	c.relationships.Set(float64(stats.Relationships))
}

// RecordRun implements hugegraph.MetricsCollector.
func (c *Collector) RecordRun(stats concurrency.RunStats) {
	outcome := "ok"
	switch {
	case stats.Cancelled:
		outcome = "cancelled"
	case stats.Failed:
		outcome = "failed"
	}
	c.runs.WithLabelValues(outcome).Inc()
	c.runTasks.Add(float64(stats.Tasks))
	c.runDuration.Observe(stats.Duration.Seconds())
}
