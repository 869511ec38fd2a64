package concurrency

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/hugegraph/internal/resource"
	"github.com/hupe1980/hugegraph/partition"
)

// Task is one unit of parallel work.
type Task func(ctx context.Context) error

// RunStats summarises one Run for observers.
type RunStats struct {
	Tasks       int
	Concurrency int
	Duration    time.Duration
	Failed      bool
	Cancelled   bool
}

// Observer receives run statistics. hugegraph.MetricsCollector implements it.
type Observer interface {
	RecordRun(stats RunStats)
}

type options struct {
	concurrency int
	controller  *resource.Controller
	logger      *slog.Logger
	observer    Observer
}

// Option configures an Executor.
type Option func(*options)

// WithConcurrency bounds the number of tasks running at once in one Run.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithController shares worker slots across every Run on the executor (and
// any other executor using the same controller).
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithLogger sets the logger for run and progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver reports every Run to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// Executor is a reusable bounded worker pool configuration.
type Executor struct {
	concurrency int
	controller  *resource.Controller
	logger      *slog.Logger
	observer    Observer
}

// NewExecutor creates an Executor.
func NewExecutor(optFns ...Option) *Executor {
	o := options{}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		concurrency: o.concurrency,
		controller:  o.controller,
		logger:      o.logger,
		observer:    o.observer,
	}
}

// Concurrency returns the per-run worker bound.
func (e *Executor) Concurrency() int { return e.concurrency }

// Logger returns the executor's logger.
func (e *Executor) Logger() *slog.Logger { return e.logger }

// Run executes tasks on exec and blocks until all of them have returned.
//
// The first failing task cancels the context seen by its siblings and its
// error is returned as a *TaskError once every task has stopped. If ctx is
// done before all tasks completed, Run returns an ErrCancelled error.
func Run(ctx context.Context, exec *Executor, tasks []Task) error {
	if exec == nil {
		exec = NewExecutor()
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exec.concurrency)

	submitted := 0
	for i, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return exec.runTask(gctx, i, task)
		})
		submitted++
	}

	err := g.Wait()
	if err == nil && submitted < len(tasks) {
		err = cancelled(context.Cause(ctx))
	}

	stats := RunStats{
		Tasks:       len(tasks),
		Concurrency: exec.concurrency,
		Duration:    time.Since(start),
		Failed:      err != nil && !IsCancellation(err),
		Cancelled:   err != nil && IsCancellation(err),
	}
	if exec.observer != nil {
		exec.observer.RecordRun(stats)
	}
	exec.logger.Debug("run finished",
		"tasks", stats.Tasks,
		"concurrency", stats.Concurrency,
		"duration", stats.Duration,
		"error", err,
	)
	return err
}

func (e *Executor) runTask(ctx context.Context, index int, task Task) (err error) {
	if err := e.controller.AcquireWorker(ctx); err != nil {
		return cancelled(err)
	}
	defer e.controller.ReleaseWorker()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task panicked", "task", index, "panic", r, "stack", string(debug.Stack()))
			err = &TaskError{Index: index, Err: fmt.Errorf("%v", r), Panicked: true}
		}
	}()

	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	if err := task(ctx); err != nil {
		if IsCancellation(err) {
			return cancelled(err)
		}
		return &TaskError{Index: index, Err: err}
	}
	return nil
}

// RunPartitions runs fn once per partition on exec.
func RunPartitions(ctx context.Context, exec *Executor, partitions []partition.Partition, fn func(ctx context.Context, p partition.Partition) error) error {
	tasks := make([]Task, len(partitions))
	for i, p := range partitions {
		tasks[i] = func(ctx context.Context) error { return fn(ctx, p) }
	}
	return Run(ctx, exec, tasks)
}

// ForEachNode partitions [0, nodeCount) with partition.Range and calls fn for
// every node, polling flag every partition.CheckInterval nodes.
func ForEachNode(ctx context.Context, exec *Executor, flag *TerminationFlag, nodeCount, minBatchSize int64, fn func(node int64)) error {
	if exec == nil {
		exec = NewExecutor()
	}
	if flag == nil {
		flag = NewTerminationFlag(ctx)
	}
	partitions := partition.Range(exec.Concurrency(), nodeCount, minBatchSize)
	return RunPartitions(ctx, exec, partitions, func(taskCtx context.Context, p partition.Partition) error {
		return p.ConsumeWithFlag(eitherFlag{flag, taskCtx}, fn)
	})
}

// eitherFlag trips when the termination flag or the task context does, so a
// failing sibling also stops long partitions.
type eitherFlag struct {
	flag *TerminationFlag
	ctx  context.Context
}

func (f eitherFlag) Err() error {
	if err := f.flag.Err(); err != nil {
		return err
	}
	return cancelled(f.ctx.Err())
}
