package hugegraph

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/hugegraph/concurrency"
)

// Logger wraps slog.Logger with hugegraph-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithNodeCount adds a node count field to the logger.
func (l *Logger) WithNodeCount(n int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("nodes", n),
	}
}

// WithConcurrency adds a concurrency field to the logger.
func (l *Logger) WithConcurrency(c int) *Logger {
	return &Logger{
		Logger: l.Logger.With("concurrency", c),
	}
}

// WithTask adds a task name field to the logger.
func (l *Logger) WithTask(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("task", name),
	}
}

// LogBuild logs a graph construction.
func (l *Logger) LogBuild(ctx context.Context, nodes, relationships int64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "graph build failed",
			"nodes", nodes,
			"relationships", relationships,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "graph built",
			"nodes", nodes,
			"relationships", relationships,
			"duration", duration,
		)
	}
}

// LogPartitioning logs the result of a partitioning step.
func (l *Logger) LogPartitioning(ctx context.Context, kind string, partitions int, nodes int64) {
	l.DebugContext(ctx, "partitioned",
		"kind", kind,
		"partitions", partitions,
		"nodes", nodes,
	)
}

// LogFilter logs the creation of a filtered view.
func (l *Logger) LogFilter(ctx context.Context, selected, relationships int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "filter failed",
			"selected", selected,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "filtered view created",
			"selected", selected,
			"relationships", relationships,
		)
	}
}

// LogRun logs the outcome of a parallel run.
func (l *Logger) LogRun(ctx context.Context, stats concurrency.RunStats) {
	switch {
	case stats.Cancelled:
		l.WarnContext(ctx, "run cancelled",
			"tasks", stats.Tasks,
			"concurrency", stats.Concurrency,
			"duration", stats.Duration,
		)
	case stats.Failed:
		l.ErrorContext(ctx, "run failed",
			"tasks", stats.Tasks,
			"concurrency", stats.Concurrency,
			"duration", stats.Duration,
		)
	default:
		l.DebugContext(ctx, "run completed",
			"tasks", stats.Tasks,
			"concurrency", stats.Concurrency,
			"duration", stats.Duration,
		)
	}
}
