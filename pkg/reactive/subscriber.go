package reactive

// Subscriber is a rerunnable computation registered with the dependency
// graph. It carries the wrapped function, the dependency buckets it
// currently belongs to (for cleanup before each rerun), and an optional
// scheduler that replaces direct reruns on trigger.
type Subscriber struct {
	rt *Runtime
	fn func()

	// deps are back-references to every bucket this subscriber sits in,
	// cleared before each run so conditional reads cannot leave stale edges.
	deps []subscriberSet

	// scheduler, when set, is invoked on trigger instead of Run.
	scheduler func()

	// onStop, when set, runs once when the subscriber stops.
	onStop func()

	lazy    bool
	stopped bool
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// Lazy defers the first run: the subscriber is created without executing
// its function. Computed values and watchers run their subscribers on
// demand.
func Lazy() SubscriberOption {
	return func(s *Subscriber) {
		s.lazy = true
	}
}

// WithRunScheduler replaces direct reruns: when a dependency triggers,
// fn is invoked instead of running the subscriber synchronously.
func WithRunScheduler(fn func()) SubscriberOption {
	return func(s *Subscriber) {
		s.scheduler = fn
	}
}

// NewSubscriber creates a subscriber over fn and, unless Lazy was given,
// runs it immediately to establish its initial dependencies.
func (rt *Runtime) NewSubscriber(fn func(), opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		rt: rt,
		fn: fn,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.lazy {
		s.Run()
	}
	return s
}

// Run executes the subscriber: prior dependency edges are cleared, the
// subscriber is pushed on the runtime's active stack so reads during fn
// register fresh edges, and the caller's frame is restored on exit.
// Nested subscribers are supported; a stopped subscriber does nothing.
func (s *Subscriber) Run() {
	if s.stopped {
		return
	}

	s.clearDeps()

	rt := s.rt
	rt.active = append(rt.active, s)
	defer func() {
		rt.active = rt.active[:len(rt.active)-1]
	}()

	s.fn()
}

// Stop removes the subscriber from every dependency bucket permanently.
// Further triggers and Run calls are no-ops. Component teardown stops the
// instance's render effect so unmounted components do not leak edges.
func (s *Subscriber) Stop() {
	if s.stopped {
		return
	}
	s.clearDeps()
	s.stopped = true
	if s.onStop != nil {
		s.onStop()
	}
}

// Stopped reports whether Stop has been called.
func (s *Subscriber) Stopped() bool {
	return s.stopped
}

// notify delivers a trigger: through the scheduler if one is attached,
// otherwise by rerunning directly.
func (s *Subscriber) notify() {
	if s.stopped {
		return
	}
	if s.scheduler != nil {
		s.scheduler()
		return
	}
	s.Run()
}

// clearDeps removes the subscriber from all buckets it belongs to.
func (s *Subscriber) clearDeps() {
	for _, set := range s.deps {
		delete(set, s)
	}
	s.deps = s.deps[:0]
}
