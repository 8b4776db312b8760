package reactive

import (
	"log/slog"
	"sync/atomic"

	"github.com/reflow-ui/reflow/pkg/scheduler"
)

// sourceIDCounter is the source of unique IDs for trackable values.
// IDs are monotonically increasing and never reused.
var sourceIDCounter uint64

// nextID returns the next unique ID for a trackable value.
func nextID() uint64 {
	return atomic.AddUint64(&sourceIDCounter, 1)
}

// subscriberSet is one dependency bucket: the subscribers currently
// depending on a single (source, key) pair.
type subscriberSet map[*Subscriber]struct{}

// Runtime owns the reactive state for one renderer instance: the
// dependency graph, the active-subscriber stack, the wrapper identity
// caches, and the job scheduler.
type Runtime struct {
	// deps is the dependency graph: source ID -> property key -> subscribers.
	// A bucket exists only while at least one subscriber depends on it.
	deps map[uint64]map[string]subscriberSet

	// active is the stack of currently executing subscribers. The top
	// entry receives new dependency edges; a nil top entry suppresses
	// tracking (Untracked).
	active []*Subscriber

	// stores and lists cache wrappers by the identity of their source,
	// so wrapping the same map or slice twice yields the same wrapper.
	stores map[uintptr]*Store
	lists  map[uintptr]*List

	// batchDepth > 0 defers trigger delivery until the outermost batch ends.
	batchDepth int
	pending    []*Subscriber

	sched    *scheduler.Scheduler
	logger   *slog.Logger
	watchObs func(delta int)
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithScheduler sets the job scheduler. By default the runtime creates
// its own host-driven scheduler.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(rt *Runtime) {
		rt.sched = s
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithWatchObserver registers fn to receive watcher lifecycle deltas:
// +1 when a watcher starts, -1 when it stops. Hosts feed this into a
// liveness gauge.
func WithWatchObserver(fn func(delta int)) Option {
	return func(rt *Runtime) {
		rt.watchObs = fn
	}
}

// observeWatcher reports a new watcher to the observer and arranges the
// matching -1 on Stop.
func (rt *Runtime) observeWatcher(sub *Subscriber) {
	if rt.watchObs == nil {
		return
	}
	rt.watchObs(1)
	sub.onStop = func() { rt.watchObs(-1) }
}

// New creates an independent reactive runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		deps:   make(map[uint64]map[string]subscriberSet),
		stores: make(map[uintptr]*Store),
		lists:  make(map[uintptr]*List),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.sched == nil {
		rt.sched = scheduler.New()
	}
	if rt.logger == nil {
		rt.logger = slog.Default().With("component", "reactive")
	}
	return rt
}

// Scheduler returns the runtime's job scheduler.
func (rt *Runtime) Scheduler() *scheduler.Scheduler {
	return rt.sched
}

// track records that the currently executing subscriber depends on
// (source, key). Outside any subscriber this is a no-op: top-level reads
// of reactive state are inert.
func (rt *Runtime) track(source uint64, key string) {
	if len(rt.active) == 0 {
		return
	}
	sub := rt.active[len(rt.active)-1]
	if sub == nil {
		return
	}

	keys := rt.deps[source]
	if keys == nil {
		keys = make(map[string]subscriberSet)
		rt.deps[source] = keys
	}
	set := keys[key]
	if set == nil {
		set = make(subscriberSet)
		keys[key] = set
	}
	if _, ok := set[sub]; ok {
		return
	}
	set[sub] = struct{}{}
	sub.deps = append(sub.deps, set)
}

// trigger notifies every subscriber depending on (source, key). Each
// subscriber's scheduler runs if it has one, otherwise the subscriber
// reruns directly. Inside a batch, delivery is deferred and deduplicated
// until the outermost batch completes.
func (rt *Runtime) trigger(source uint64, key string) {
	keys := rt.deps[source]
	if keys == nil {
		return
	}
	set := keys[key]
	if len(set) == 0 {
		return
	}

	// Copy before delivery: a rerun mutates the set it is registered in.
	subs := make([]*Subscriber, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}

	if rt.batchDepth > 0 {
		rt.pending = append(rt.pending, subs...)
		return
	}
	for _, sub := range subs {
		sub.notify()
	}
}

// Batch groups writes so that subscribers touched by several triggers
// within fn are notified once, after fn returns. Batches nest; delivery
// happens when the outermost batch completes.
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 {
			rt.deliverPending()
		}
	}()
	fn()
}

// deliverPending deduplicates and notifies the subscribers collected
// during a batch.
func (rt *Runtime) deliverPending() {
	pending := rt.pending
	rt.pending = nil
	if len(pending) == 0 {
		return
	}

	seen := make(map[*Subscriber]struct{}, len(pending))
	for _, sub := range pending {
		if _, dup := seen[sub]; dup {
			continue
		}
		seen[sub] = struct{}{}
		sub.notify()
	}
}

// Untracked runs fn with dependency tracking suppressed: reactive reads
// inside fn register no edges for the enclosing subscriber.
func (rt *Runtime) Untracked(fn func()) {
	rt.active = append(rt.active, nil)
	defer func() {
		rt.active = rt.active[:len(rt.active)-1]
	}()
	fn()
}
