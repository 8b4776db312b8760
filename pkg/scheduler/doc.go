// Package scheduler provides the deduplicating job queue that batches
// reactive reruns into discrete flush passes.
//
// Jobs are identified by their *Job handle: enqueuing the same job twice
// before a flush collapses into one pending run. A flush executes the
// currently queued jobs once, in enqueue order; jobs enqueued during a
// flush are deferred to the next flush, never run in the current one.
//
// There is no OS microtask in Go, so a flush is a single pass driven either
// synchronously by the host (Flush, the way an event loop drains work after
// each event) or by the background kicker enabled with WithAutoFlush.
// NextTick returns a channel that closes after the pending flush completes,
// or an already-closed channel when nothing is pending.
package scheduler
