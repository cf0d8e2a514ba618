package store

import (
	"sync"
	"testing"

	"github.com/ValentinKolb/rKV/lib/logger"
)

func newTestRegistry(t *testing.T) *WatcherRegistry[string] {
	t.Helper()
	return NewWatcherRegistry[string](logger.GetLogger("store-test"))
}

// TestNotifyOrder verifies that callbacks fire in registration order.
func TestNotifyOrder(t *testing.T) {
	r := newTestRegistry(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		r.Register("flag", func(value string, loaded bool) {
			got = append(got, i)
		})
	}

	r.Notify("flag", "v1", true)

	if len(got) != 5 {
		t.Fatalf("Expected 5 invocations, got %d", len(got))
	}
	for i, idx := range got {
		if idx != i {
			t.Errorf("Expected callback %d at position %d, got %d", i, i, idx)
		}
	}
}

// TestNotifyPanicIsolation verifies that a panicking callback does not stop
// the remaining callbacks and does not propagate to the caller.
func TestNotifyPanicIsolation(t *testing.T) {
	r := newTestRegistry(t)

	secondCalled := false
	r.Register("flag", func(value string, loaded bool) {
		panic("watcher exploded")
	})
	r.Register("flag", func(value string, loaded bool) {
		secondCalled = true
		if value != "v2" || !loaded {
			t.Errorf("Expected (v2, true), got (%s, %t)", value, loaded)
		}
	})

	r.Notify("flag", "v2", true) // must not panic

	if !secondCalled {
		t.Errorf("Expected second watcher to run after first panicked")
	}
}

// TestNotifyKeyScoping verifies that watchers only see their own key.
func TestNotifyKeyScoping(t *testing.T) {
	r := newTestRegistry(t)

	called := false
	r.Register("a", func(value string, loaded bool) { called = true })

	r.Notify("b", "v", true)

	if called {
		t.Errorf("Watcher for key a must not fire for key b")
	}
}

// TestClear verifies that cleared registrations never fire again.
func TestClear(t *testing.T) {
	r := newTestRegistry(t)

	called := false
	r.Register("flag", func(value string, loaded bool) { called = true })

	r.Clear()
	if r.Count("flag") != 0 {
		t.Fatalf("Expected empty registry after Clear")
	}

	r.Notify("flag", "v", true)
	if called {
		t.Errorf("Watcher fired after Clear")
	}
}

// TestConcurrentRegisterNotify exercises the registry mutex: registrations
// and notifications from many goroutines must not race.
func TestConcurrentRegisterNotify(t *testing.T) {
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("flag", func(value string, loaded bool) {})
		}()
		go func() {
			defer wg.Done()
			r.Notify("flag", "v", true)
		}()
	}
	wg.Wait()

	if r.Count("flag") != 50 {
		t.Errorf("Expected 50 registrations, got %d", r.Count("flag"))
	}
}
