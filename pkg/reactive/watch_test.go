package reactive

import (
	"testing"
)

func TestWatchCapturesOldAndNew(t *testing.T) {
	rt := New()
	r := rt.NewRef(1)

	var calls [][2]any
	rt.Watch(r, func(oldV, newV any, _ OnInvalidate) {
		calls = append(calls, [2]any{oldV, newV})
	})

	// Default mode primes the old value without calling back.
	if len(calls) != 0 {
		t.Fatalf("expected no call before a change, got %d", len(calls))
	}

	r.Set(2)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0][0] != 1 || calls[0][1] != 2 {
		t.Errorf("expected old=1 new=2, got old=%v new=%v", calls[0][0], calls[0][1])
	}

	r.Set(5)
	if calls[1][0] != 2 || calls[1][1] != 5 {
		t.Errorf("expected old=2 new=5, got old=%v new=%v", calls[1][0], calls[1][1])
	}
}

func TestWatchImmediate(t *testing.T) {
	rt := New()
	r := rt.NewRef(3)

	var calls [][2]any
	rt.Watch(r, func(oldV, newV any, _ OnInvalidate) {
		calls = append(calls, [2]any{oldV, newV})
	}, Immediate())

	if len(calls) != 1 {
		t.Fatalf("expected immediate call, got %d", len(calls))
	}
	if calls[0][0] != nil || calls[0][1] != 3 {
		t.Errorf("expected old=nil new=3, got old=%v new=%v", calls[0][0], calls[0][1])
	}
}

func TestWatchCleanupRunsBeforeNextCallback(t *testing.T) {
	rt := New()
	r := rt.NewRef(0)

	var order []string
	rt.Watch(r, func(_, newV any, onInvalidate OnInvalidate) {
		v := newV
		order = append(order, "cb")
		onInvalidate(func() {
			order = append(order, "cleanup")
			_ = v
		})
	})

	r.Set(1)
	r.Set(2)

	want := []string{"cb", "cleanup", "cb"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestWatchCleanupSupersedes(t *testing.T) {
	rt := New()
	r := rt.NewRef(0)

	cleanups := 0
	rt.Watch(r, func(_, _ any, onInvalidate OnInvalidate) {
		// Registering twice keeps only the second.
		onInvalidate(func() { cleanups += 100 })
		onInvalidate(func() { cleanups++ })
	})

	r.Set(1)
	r.Set(2)
	if cleanups != 1 {
		t.Errorf("expected only the superseding cleanup to run, got %d", cleanups)
	}
}

func TestWatchGetterSource(t *testing.T) {
	rt := New()
	a := rt.NewRef(1)
	b := rt.NewRef(2)

	var got any
	rt.Watch(func() any {
		return a.Get().(int) + b.Get().(int)
	}, func(_, newV any, _ OnInvalidate) {
		got = newV
	})

	b.Set(5)
	if got != 6 {
		t.Errorf("expected 6, got %v", got)
	}
}

func TestWatchDeepStore(t *testing.T) {
	rt := New()
	s := rt.WrapMap(map[string]any{
		"user": map[string]any{"name": "ada"},
	})

	calls := 0
	rt.Watch(s, func(_, _ any, _ OnInvalidate) {
		calls++
	})

	// A nested write is reachable through deep traversal.
	s.Peek("user").(*Store).Set("name", "grace")
	if calls != 1 {
		t.Errorf("expected deep watch to see nested write, got %d calls", calls)
	}
}

func TestWatchFlushPost(t *testing.T) {
	rt := New()
	r := rt.NewRef(1)

	calls := 0
	rt.Watch(r, func(_, _ any, _ OnInvalidate) {
		calls++
	}, FlushPost())

	r.Set(2)
	r.Set(3)
	if calls != 0 {
		t.Fatalf("expected deferred callback, got %d calls before flush", calls)
	}

	rt.Scheduler().Flush()
	if calls != 1 {
		t.Errorf("expected one call per flush, got %d", calls)
	}
}

func TestWatchStop(t *testing.T) {
	rt := New()
	r := rt.NewRef(1)

	calls := 0
	sub := rt.Watch(r, func(_, _ any, _ OnInvalidate) {
		calls++
	})

	sub.Stop()
	r.Set(2)
	if calls != 0 {
		t.Errorf("expected no call after Stop, got %d", calls)
	}
}

func TestWatchEffect(t *testing.T) {
	rt := New()
	r := rt.NewRef(1)

	runs := 0
	cleanups := 0
	rt.WatchEffect(func(onInvalidate OnInvalidate) {
		runs++
		_ = r.Get()
		onInvalidate(func() { cleanups++ })
	})

	if runs != 1 {
		t.Fatalf("expected immediate run, got %d", runs)
	}

	r.Set(2)
	if runs != 2 {
		t.Errorf("expected synchronous rerun, got %d runs", runs)
	}
	if cleanups != 1 {
		t.Errorf("expected cleanup before rerun, got %d", cleanups)
	}
}

func TestWatchObserverTracksLiveWatchers(t *testing.T) {
	live := 0
	rt := New(WithWatchObserver(func(delta int) { live += delta }))
	r := rt.NewRef(1)

	w1 := rt.Watch(r, func(_, _ any, _ OnInvalidate) {})
	w2 := rt.WatchEffect(func(_ OnInvalidate) { _ = r.Get() })
	if live != 2 {
		t.Fatalf("expected 2 live watchers, got %d", live)
	}

	w1.Stop()
	if live != 1 {
		t.Errorf("expected 1 after stop, got %d", live)
	}
	w1.Stop()
	if live != 1 {
		t.Errorf("expected repeated stop to report once, got %d", live)
	}
	w2.Stop()
	if live != 0 {
		t.Errorf("expected 0 after all stopped, got %d", live)
	}
}
