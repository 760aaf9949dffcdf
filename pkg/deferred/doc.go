// Package deferred runs work on a small background pool and hands the
// results back to a single foreground goroutine.
//
// Jobs are submitted with Scheduler.Offload. When a job finishes, its
// result is appended to a Queue together with the collector that should
// receive it. The foreground calls Scheduler.Tick once per beat; each tick
// drains at most a fixed number of items and invokes their collectors on
// the calling goroutine, so collectors never race with foreground state.
//
// # Queue discipline
//
// The queue removes items FIFO by default. LIFO is available for hosts that
// need the ordering of earlier releases, where the most recently completed
// result was drained first.
//
// # Waiting
//
// Scheduler.WaitForCompletion polls until no job with a given name is in
// flight or queued. It must not be called from the goroutine that ticks,
// since the tick is what empties the queue.
package deferred
