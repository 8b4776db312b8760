package scheduler

import (
	"testing"
	"time"
)

func TestEnqueueDeduplicates(t *testing.T) {
	s := New()

	runs := 0
	job := NewJob(func() { runs++ })

	s.Enqueue(job)
	s.Enqueue(job)
	s.Enqueue(job)
	s.Flush()

	if runs != 1 {
		t.Errorf("expected one run for a deduplicated job, got %d", runs)
	}

	// The job can be enqueued again after the flush.
	s.Enqueue(job)
	s.Flush()
	if runs != 2 {
		t.Errorf("expected rerun after re-enqueue, got %d", runs)
	}
}

func TestFlushRunsInEnqueueOrder(t *testing.T) {
	s := New()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		s.Enqueue(NewJob(func() { order = append(order, i) }))
	}
	s.Flush()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", order)
	}
}

func TestEnqueueDuringFlushDefers(t *testing.T) {
	s := New()

	runs := 0
	late := NewJob(func() { runs++ })

	s.Enqueue(NewJob(func() {
		s.Enqueue(late)
	}))
	s.Flush()

	// The job enqueued mid-flush waits for the next flush.
	if runs != 0 {
		t.Fatalf("expected deferred job not to run in the same flush, got %d runs", runs)
	}
	if !s.HasPending() {
		t.Fatal("expected pending job after flush")
	}
	s.Flush()
	if runs != 1 {
		t.Errorf("expected deferred job to run on the next flush, got %d runs", runs)
	}
}

func TestNextTickIdleResolvesImmediately(t *testing.T) {
	s := New()

	select {
	case <-s.NextTick(nil):
	default:
		t.Error("expected NextTick to resolve immediately when idle")
	}

	ran := false
	<-s.NextTick(func() { ran = true })
	if !ran {
		t.Error("expected fn to run synchronously when idle")
	}
}

func TestNextTickResolvesAfterFlush(t *testing.T) {
	s := New()

	ran := false
	s.Enqueue(NewJob(func() { ran = true }))
	ch := s.NextTick(nil)

	select {
	case <-ch:
		t.Fatal("expected NextTick to wait for the flush")
	default:
	}

	s.Flush()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected NextTick to resolve after the flush")
	}
	if !ran {
		t.Error("expected the queued job to have run")
	}
}

func TestNextTickChainsFn(t *testing.T) {
	s := New()
	s.Enqueue(NewJob(func() {}))

	done := s.NextTick(func() {})
	s.Flush()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected chained fn to complete after the flush")
	}
}

func TestFlushObserver(t *testing.T) {
	var observed []int
	s := New(WithFlushObserver(func(jobs int) {
		observed = append(observed, jobs)
	}))

	s.Enqueue(NewJob(func() {}))
	s.Enqueue(NewJob(func() {}))
	s.Flush()

	if len(observed) != 1 || observed[0] != 2 {
		t.Errorf("expected observer to see one flush of 2 jobs, got %v", observed)
	}
}

func TestAutoFlush(t *testing.T) {
	s := New(WithAutoFlush())

	done := make(chan struct{})
	s.Enqueue(NewJob(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected auto flush to run the job")
	}
}
