// Package resource tracks memory and bounds worker concurrency.
//
// The Controller manages two resource types:
//
//   - Memory: bytes held by paged arrays and adjacency pages (non-blocking, fail-fast)
//   - Workers: a process-wide budget of concurrently running partition tasks
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic
// counters for usage and peak tracking. AcquireMemory never blocks:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(pageBytes); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(pageBytes)
//
// # Worker Limits
//
// Several algorithms may run against the same graph at once, each with its
// own concurrency setting. The worker budget caps the sum:
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
