package concurrency

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hugegraph/internal/resource"
	"github.com/hupe1980/hugegraph/partition"
)

type recordingObserver struct {
	mu   sync.Mutex
	runs []RunStats
}

func (r *recordingObserver) RecordRun(stats RunStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, stats)
}

func TestRunAllTasks(t *testing.T) {
	obs := &recordingObserver{}
	exec := NewExecutor(WithConcurrency(3), WithObserver(obs))

	var sum atomic.Int64
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			sum.Add(int64(i))
			return nil
		}
	}

	require.NoError(t, Run(context.Background(), exec, tasks))
	assert.Equal(t, int64(45), sum.Load())

	require.Len(t, obs.runs, 1)
	assert.Equal(t, 10, obs.runs[0].Tasks)
	assert.Equal(t, 3, obs.runs[0].Concurrency)
	assert.False(t, obs.runs[0].Failed)
}

func TestRunBoundsConcurrency(t *testing.T) {
	exec := NewExecutor(WithConcurrency(2))

	var running, peak atomic.Int64
	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}
	}

	require.NoError(t, Run(context.Background(), exec, tasks))
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRunSharedController(t *testing.T) {
	controller := resource.NewController(resource.Config{MaxWorkers: 1})
	exec := NewExecutor(WithConcurrency(4), WithController(controller))

	var running, peak atomic.Int64
	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n := running.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return nil
		}
	}

	require.NoError(t, Run(context.Background(), exec, tasks))
	assert.Equal(t, int64(1), peak.Load())
}

func TestRunFirstFailureWins(t *testing.T) {
	obs := &recordingObserver{}
	exec := NewExecutor(WithConcurrency(4), WithObserver(obs))
	boom := errors.New("boom")

	var finished atomic.Int64
	tasks := []Task{
		func(ctx context.Context) error {
			<-ctx.Done()
			finished.Add(1)
			return ctx.Err()
		},
		func(context.Context) error {
			return boom
		},
		func(ctx context.Context) error {
			<-ctx.Done()
			finished.Add(1)
			return ctx.Err()
		},
	}

	err := Run(context.Background(), exec, tasks)
	require.ErrorIs(t, err, boom)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, 1, taskErr.Index)
	assert.False(t, taskErr.Panicked)
	assert.Equal(t, int64(2), finished.Load())

	require.Len(t, obs.runs, 1)
	assert.True(t, obs.runs[0].Failed)
}

func TestRunRecoversPanics(t *testing.T) {
	exec := NewExecutor(WithConcurrency(2))
	tasks := []Task{
		func(context.Context) error { return nil },
		func(context.Context) error { panic("bad partition") },
	}

	err := Run(context.Background(), exec, tasks)
	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.True(t, taskErr.Panicked)
	assert.Equal(t, 1, taskErr.Index)
	assert.Contains(t, err.Error(), "bad partition")
}

func TestRunCancelledContext(t *testing.T) {
	obs := &recordingObserver{}
	exec := NewExecutor(WithConcurrency(1), WithObserver(obs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int64
	tasks := []Task{
		func(context.Context) error { ran.Add(1); return nil },
		func(context.Context) error { ran.Add(1); return nil },
	}

	err := Run(ctx, exec, tasks)
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ran.Load())
	assert.True(t, obs.runs[0].Cancelled)
}

func TestRunTerminationFlag(t *testing.T) {
	exec := NewExecutor(WithConcurrency(4))
	flag := NewTerminationFlag(context.Background())

	var visited atomic.Int64
	partitions := partition.Range(4, 1<<40, 1)

	done := make(chan error, 1)
	go func() {
		done <- RunPartitions(context.Background(), exec, partitions, func(_ context.Context, p partition.Partition) error {
			return p.ConsumeWithFlag(flag, func(int64) { visited.Add(1) })
		})
	}()

	require.Eventually(t, func() bool { return visited.Load() > 0 }, 5*time.Second, time.Millisecond)
	flag.Stop()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrCancelled)
		assert.False(t, flag.Running())
	case <-time.After(10 * time.Second):
		t.Fatal("run did not observe termination")
	}
}

func TestForEachNode(t *testing.T) {
	exec := NewExecutor(WithConcurrency(4))
	seen := make([]atomic.Int32, 1000)

	err := ForEachNode(context.Background(), exec, nil, 1000, 10, func(node int64) {
		seen[node].Add(1)
	})
	require.NoError(t, err)
	for i := range seen {
		require.Equal(t, int32(1), seen[i].Load())
	}
}

func TestForEachNodeStopsOnCancel(t *testing.T) {
	exec := NewExecutor(WithConcurrency(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var visited atomic.Int64
	err := ForEachNode(ctx, exec, nil, 1<<40, 1, func(int64) {
		if visited.Add(1) == 100 {
			cancel()
		}
	})
	require.ErrorIs(t, err, ErrCancelled)
}

func TestTerminationFlag(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	flag := NewTerminationFlag(ctx)
	assert.True(t, flag.Running())
	require.NoError(t, flag.Err())

	cancel()
	assert.False(t, flag.Running())
	require.ErrorIs(t, flag.Err(), ErrCancelled)
	require.ErrorIs(t, flag.Err(), context.Canceled)

	manual := NewTerminationFlag(nil) //nolint:staticcheck // nil selects Background
	manual.Stop()
	require.ErrorIs(t, manual.Err(), ErrCancelled)
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewProgressWithInterval(logger, "scan", 100, time.Hour)

	p.Add(10)
	p.Add(20)
	assert.Equal(t, int64(30), p.Done())
	p.Finish()

	out := buf.String()
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("msg=progress")))
	assert.Contains(t, out, "task=scan")
	assert.Contains(t, out, "msg=finished")
}
