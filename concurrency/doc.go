// Package concurrency runs partition tasks on a bounded worker pool.
//
// Run is the only blocking entry point: it submits every task, waits for all
// of them and reports the first failure. Cancellation is cooperative; tasks
// poll a TerminationFlag (or their context) every partition.CheckInterval
// nodes.
package concurrency
