package concurrency

import (
	"context"
	"sync/atomic"
)

// TerminationFlag is the cooperative stop signal shared by all tasks of a
// computation. It trips when Stop is called or its context is done.
type TerminationFlag struct {
	ctx     context.Context
	stopped atomic.Bool
}

// NewTerminationFlag returns a running flag bound to ctx.
func NewTerminationFlag(ctx context.Context) *TerminationFlag {
	if ctx == nil {
		ctx = context.Background()
	}
	return &TerminationFlag{ctx: ctx}
}

// Running reports whether the flag has not tripped.
func (f *TerminationFlag) Running() bool {
	return f.Err() == nil
}

// Stop trips the flag.
func (f *TerminationFlag) Stop() {
	f.stopped.Store(true)
}

// Err returns nil while running and an ErrCancelled error afterwards.
func (f *TerminationFlag) Err() error {
	if f.stopped.Load() {
		return ErrCancelled
	}
	if err := f.ctx.Err(); err != nil {
		return cancelled(err)
	}
	return nil
}

// Context returns the context the flag was created with.
func (f *TerminationFlag) Context() context.Context { return f.ctx }
