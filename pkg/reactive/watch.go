package reactive

import (
	"github.com/reflow-ui/reflow/pkg/scheduler"
)

// OnInvalidate registers a cleanup to run immediately before the next
// invocation of the watcher callback. Registering again replaces the
// previous cleanup; at most one is retained.
type OnInvalidate func(func())

// WatchCallback receives the old and new value of the watched source
// plus a cleanup-registration function.
type WatchCallback func(oldValue, newValue any, onInvalidate OnInvalidate)

// watchConfig collects watcher options.
type watchConfig struct {
	immediate bool
	post      bool
}

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

// Immediate runs the callback once up front, with a nil old value,
// instead of merely priming the old-value cache.
func Immediate() WatchOption {
	return func(c *watchConfig) {
		c.immediate = true
	}
}

// FlushPost defers callback runs to the next scheduler flush instead of
// running them synchronously inside the trigger.
func FlushPost() WatchOption {
	return func(c *watchConfig) {
		c.post = true
	}
}

// Watch subscribes cb to changes of source. The source normalizes to a
// getter: a Ref or Computed unwraps to its value, a func() any is used
// as-is, and a Store or List is deep-traversed so every reachable key
// registers a dependency. Returns the underlying subscriber; Stop it to
// end the watch.
func (rt *Runtime) Watch(source any, cb WatchCallback, opts ...WatchOption) *Subscriber {
	var cfg watchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	getter := rt.normalizeSource(source)

	var (
		sub     *Subscriber
		oldV    any
		newV    any
		cleanup func()
	)
	onInvalidate := func(fn func()) {
		cleanup = fn
	}

	job := func() {
		if sub.Stopped() {
			return
		}
		sub.Run() // re-evaluate the getter under tracking
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
		cb(oldV, newV, onInvalidate)
		oldV = newV
	}

	var sched func()
	if cfg.post {
		j := scheduler.NewJob(job)
		sched = func() { rt.sched.Enqueue(j) }
	} else {
		sched = job
	}

	sub = rt.NewSubscriber(
		func() { newV = getter() },
		Lazy(),
		WithRunScheduler(sched),
	)

	if cfg.immediate {
		job()
	} else {
		sub.Run()
		oldV = newV
	}
	rt.observeWatcher(sub)
	return sub
}

// WatchEffect runs fn once immediately and reruns it synchronously
// whenever any reactive state it touched changes. fn receives a
// cleanup-registration function with the same semantics as Watch.
func (rt *Runtime) WatchEffect(fn func(onInvalidate OnInvalidate)) *Subscriber {
	var cleanup func()
	onInvalidate := func(f func()) {
		cleanup = f
	}
	sub := rt.NewSubscriber(func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
		fn(onInvalidate)
	})
	rt.observeWatcher(sub)
	return sub
}

// normalizeSource turns any supported watch source into a getter.
func (rt *Runtime) normalizeSource(source any) func() any {
	switch src := source.(type) {
	case *Ref:
		return func() any { return src.Get() }
	case *Computed:
		return func() any { return src.Get() }
	case func() any:
		return src
	case *Store:
		return func() any {
			rt.traverse(src, make(map[any]struct{}))
			return src
		}
	case *List:
		return func() any {
			rt.traverse(src, make(map[any]struct{}))
			return src
		}
	}
	// Non-reactive source: constant getter.
	return func() any { return source }
}

// traverse visits every reachable key of a reactive value purely to
// force dependency registration, following nested wrappers and refs.
func (rt *Runtime) traverse(v any, seen map[any]struct{}) {
	switch t := v.(type) {
	case *Store:
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		for _, k := range t.Keys() {
			rt.traverse(t.Get(k), seen)
		}
	case *List:
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		n := t.Len()
		for i := 0; i < n; i++ {
			rt.traverse(t.Index(i), seen)
		}
	case *Ref:
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		rt.traverse(t.Get(), seen)
	case *Computed:
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		rt.traverse(t.Get(), seen)
	}
}
