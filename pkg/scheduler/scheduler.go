package scheduler

import (
	"sync"
	"sync/atomic"
)

// jobIDCounter is the source of unique IDs for jobs.
var jobIDCounter uint64

// Job is a rerunnable unit of work owned by whoever scheduled it
// (typically a component's render effect or a deferred watcher callback).
type Job struct {
	id uint64
	fn func()
}

// NewJob creates a job around fn. The returned handle is the job's
// identity for deduplication.
func NewJob(fn func()) *Job {
	return &Job{
		id: atomic.AddUint64(&jobIDCounter, 1),
		fn: fn,
	}
}

// ID returns the unique identifier for this job.
func (j *Job) ID() uint64 {
	return j.id
}

// Scheduler is a deduplicating queue of pending jobs with a single
// in-flight flush.
type Scheduler struct {
	mu       sync.Mutex
	queue    []*Job
	queued   map[uint64]struct{}
	flushing bool
	pending  bool

	// waiters are closed when the current flush completes.
	waiters []chan struct{}

	// autoFlush starts a background flush after each enqueue burst.
	autoFlush bool

	// onFlush is an optional observation hook invoked after every flush
	// with the number of jobs that ran. Used for metrics.
	onFlush func(jobs int)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAutoFlush makes the scheduler start a flush on its own goroutine
// whenever jobs become pending. Without it the host drives flushes.
func WithAutoFlush() Option {
	return func(s *Scheduler) {
		s.autoFlush = true
	}
}

// WithFlushObserver registers a hook called after every flush with the
// number of jobs executed.
func WithFlushObserver(fn func(jobs int)) Option {
	return func(s *Scheduler) {
		s.onFlush = fn
	}
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		queued: make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue adds a job to the pending queue. Enqueuing a job that is
// already pending is a no-op, so any number of triggers within one tick
// collapse into a single run on the next flush.
func (s *Scheduler) Enqueue(j *Job) {
	if j == nil {
		return
	}

	s.mu.Lock()
	if _, dup := s.queued[j.id]; dup {
		s.mu.Unlock()
		return
	}
	s.queued[j.id] = struct{}{}
	s.queue = append(s.queue, j)

	kick := false
	if !s.pending {
		s.pending = true
		kick = s.autoFlush && !s.flushing
	}
	s.mu.Unlock()

	if kick {
		go s.Flush()
	}
}

// HasPending reports whether any jobs await the next flush.
func (s *Scheduler) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

// Flush runs all currently queued jobs once, in enqueue order. Jobs
// enqueued while the flush is running are deferred to the next flush.
// Reentrant calls and calls with an empty queue return immediately.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	jobs := s.queue
	s.queue = nil
	for _, j := range jobs {
		delete(s.queued, j.id)
	}
	s.mu.Unlock()

	for _, j := range jobs {
		j.fn()
	}

	s.mu.Lock()
	s.flushing = false
	s.pending = len(s.queue) > 0
	waiters := s.waiters
	s.waiters = nil
	kick := s.pending && s.autoFlush
	s.mu.Unlock()

	if s.onFlush != nil {
		s.onFlush(len(jobs))
	}
	for _, w := range waiters {
		close(w)
	}
	if kick {
		go s.Flush()
	}
}

// closedCh is returned by NextTick when no flush is pending.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NextTick returns a channel that closes after the current flush (the one
// covering already-queued jobs) completes. If nothing is pending or
// flushing, the returned channel is already closed. If fn is non-nil it
// runs after the signal resolves, on the flushing goroutine or — when
// nothing was pending — synchronously.
func (s *Scheduler) NextTick(fn func()) <-chan struct{} {
	s.mu.Lock()
	idle := !s.pending && !s.flushing
	var ch chan struct{}
	if idle {
		ch = closedCh
	} else {
		ch = make(chan struct{})
		s.waiters = append(s.waiters, ch)
	}
	s.mu.Unlock()

	if fn == nil {
		return ch
	}
	if idle {
		fn()
		return ch
	}
	done := make(chan struct{})
	go func() {
		<-ch
		fn()
		close(done)
	}()
	return done
}
