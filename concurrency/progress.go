package concurrency

import (
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultProgressInterval is the minimum time between two progress messages.
const DefaultProgressInterval = 2 * time.Second

// Progress counts processed units across tasks and logs at most once per
// interval. It is safe for concurrent use.
type Progress struct {
	logger    *slog.Logger
	task      string
	total     int64
	done      atomic.Int64
	start     time.Time
	sometimes rate.Sometimes
}

// NewProgress creates a Progress for total units of the named task.
func NewProgress(logger *slog.Logger, task string, total int64) *Progress {
	return NewProgressWithInterval(logger, task, total, DefaultProgressInterval)
}

// NewProgressWithInterval is NewProgress with a custom log interval.
func NewProgressWithInterval(logger *slog.Logger, task string, total int64, interval time.Duration) *Progress {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Progress{
		logger:    logger,
		task:      task,
		total:     total,
		start:     time.Now(),
		sometimes: rate.Sometimes{Interval: interval},
	}
}

// Add records n processed units and may log.
func (p *Progress) Add(n int64) {
	done := p.done.Add(n)
	p.sometimes.Do(func() {
		p.logger.Info("progress",
			"task", p.task,
			"done", done,
			"total", p.total,
			"percent", p.percent(done),
		)
	})
}

// Done returns the processed unit count.
func (p *Progress) Done() int64 { return p.done.Load() }

// Finish logs the final count and elapsed time.
func (p *Progress) Finish() {
	done := p.done.Load()
	p.logger.Info("finished",
		"task", p.task,
		"done", done,
		"total", p.total,
		"elapsed", time.Since(p.start),
	)
}

func (p *Progress) percent(done int64) float64 {
	if p.total <= 0 {
		return 100
	}
	return float64(done) * 100 / float64(p.total)
}
