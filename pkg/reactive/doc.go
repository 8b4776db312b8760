// Package reactive implements reflow's dependency-tracking state engine:
// stores (object-like reactive containers), lists (array-like containers),
// boxed refs, lazily-recomputed computed values, and watchers, all wired
// through a per-Runtime dependency graph.
//
// A Runtime owns the dependency graph, the active-subscriber stack, the
// wrapper identity cache, and the job scheduler. Runtimes are independent:
// state created on one runtime never notifies subscribers of another.
//
// Execution is single-threaded and cooperative. A Runtime and the state
// created on it must be confined to one goroutine; the dependency graph
// carries no locks because all access is serialized by that confinement.
// Deferred work (scheduler flushes, FlushPost watchers) runs on whichever
// goroutine drives Scheduler.Flush, which must be the same one.
package reactive
