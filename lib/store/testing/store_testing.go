package testing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/rKV/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an
// IStore implementation. Every call must yield an isolated keyspace.
type StoreFactory func() store.IStore[string]

// RunStoreTests runs a comprehensive conformance suite for an IStore
// implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Create&Get", func(t *testing.T) {
			testCreateGet(t, factory())
		})

		t.Run("CreateExclusive", func(t *testing.T) {
			testCreateExclusive(t, factory())
		})

		t.Run("ConcurrentCreate", func(t *testing.T) {
			testConcurrentCreate(t, factory())
		})

		t.Run("UpdateRequiresExistence", func(t *testing.T) {
			testUpdateRequiresExistence(t, factory())
		})

		t.Run("UpdateOverwrites", func(t *testing.T) {
			testUpdateOverwrites(t, factory())
		})

		t.Run("DeleteIdempotent", func(t *testing.T) {
			testDeleteIdempotent(t, factory())
		})

		t.Run("CASAbsentGuard", func(t *testing.T) {
			testCASAbsentGuard(t, factory())
		})

		t.Run("CASMismatch", func(t *testing.T) {
			testCASMismatch(t, factory())
		})

		t.Run("CASSequence", func(t *testing.T) {
			testCASSequence(t, factory())
		})

		t.Run("ConcurrentCAS", func(t *testing.T) {
			testConcurrentCAS(t, factory())
		})

		t.Run("ListPrefix", func(t *testing.T) {
			testListPrefix(t, factory())
		})

		t.Run("ListEmpty", func(t *testing.T) {
			testListEmpty(t, factory())
		})

		t.Run("WatcherOrder", func(t *testing.T) {
			testWatcherOrder(t, factory())
		})

		t.Run("WatcherPanicIsolation", func(t *testing.T) {
			testWatcherPanicIsolation(t, factory())
		})

		t.Run("DeleteNotifiesAbsent", func(t *testing.T) {
			testDeleteNotifiesAbsent(t, factory())
		})

		t.Run("Disconnect", func(t *testing.T) {
			testDisconnect(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func ptr(s string) *string {
	return &s
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testCreateGet(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	if err := s.CreateKey(ctx, "config/db-url", "postgres://one"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	value, loaded, err := s.GetKey(ctx, "config/db-url")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if !loaded {
		t.Fatalf("Expected key to exist after CreateKey")
	}
	if value != "postgres://one" {
		t.Errorf("Expected value postgres://one, got %s", value)
	}

	// absent key is reported via loaded=false, not via a zero value
	_, loaded, err = s.GetKey(ctx, "config/missing")
	if err != nil {
		t.Fatalf("GetKey on absent key failed: %v", err)
	}
	if loaded {
		t.Errorf("Expected absent key to return loaded=false")
	}
}

func testCreateExclusive(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	if err := s.CreateKey(ctx, "leader", "node-1"); err != nil {
		t.Fatalf("First CreateKey failed: %v", err)
	}

	err := s.CreateKey(ctx, "leader", "node-2")
	if !store.IsAlreadyExists(err) {
		t.Fatalf("Expected AlreadyExists error, got %v", err)
	}

	// the losing create must not have overwritten the value
	value, _, err := s.GetKey(ctx, "leader")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if value != "node-1" {
		t.Errorf("Expected winner value node-1, got %s", value)
	}
}

func testConcurrentCreate(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	const writers = 32

	var wg sync.WaitGroup
	var successes, exists atomic.Int32

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := s.CreateKey(ctx, "election", fmt.Sprintf("candidate-%d", id))
			switch {
			case err == nil:
				successes.Add(1)
			case store.IsAlreadyExists(err):
				exists.Add(1)
			default:
				t.Errorf("Unexpected error from concurrent CreateKey: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("Expected exactly one winner, got %d", successes.Load())
	}
	if exists.Load() != writers-1 {
		t.Errorf("Expected %d AlreadyExists losers, got %d", writers-1, exists.Load())
	}
}

func testUpdateRequiresExistence(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	err := s.UpdateValue(ctx, "ghost", "v1")
	if !store.IsNotFound(err) {
		t.Fatalf("Expected NotFound error, got %v", err)
	}

	// the failed update must not have created the key
	_, loaded, err := s.GetKey(ctx, "ghost")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if loaded {
		t.Errorf("Failed update created key ghost as a side effect")
	}
}

func testUpdateOverwrites(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	if err := s.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	if err := s.UpdateValue(ctx, "flag", "v2"); err != nil {
		t.Fatalf("UpdateValue failed: %v", err)
	}

	value, _, err := s.GetKey(ctx, "flag")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if value != "v2" {
		t.Errorf("Expected value v2 after update, got %s", value)
	}
}

func testDeleteIdempotent(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	// deleting a key that never existed is not an error
	if err := s.DeleteKey(ctx, "never-created"); err != nil {
		t.Fatalf("DeleteKey on absent key failed: %v", err)
	}

	if err := s.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	if err := s.DeleteKey(ctx, "flag"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}

	_, loaded, err := s.GetKey(ctx, "flag")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if loaded {
		t.Errorf("Expected key to be gone after delete")
	}

	if err := s.DeleteKey(ctx, "flag"); err != nil {
		t.Fatalf("Second DeleteKey failed: %v", err)
	}
}

func testCASAbsentGuard(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	// nil expected succeeds only on a genuinely missing key
	if !s.CompareAndSet(ctx, "flag", nil, "v1") {
		t.Fatalf("Expected CAS with nil expected to succeed on fresh key")
	}
	if s.CompareAndSet(ctx, "flag", nil, "v2") {
		t.Fatalf("Expected CAS with nil expected to fail on existing key")
	}

	value, _, err := s.GetKey(ctx, "flag")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if value != "v1" {
		t.Errorf("Expected value v1, got %s", value)
	}
}

func testCASMismatch(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	if err := s.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	if s.CompareAndSet(ctx, "flag", ptr("other"), "v2") {
		t.Fatalf("Expected CAS with mismatching expected value to fail")
	}

	// a stored value never matches an absent-expectation either
	if s.CompareAndSet(ctx, "missing", ptr("v1"), "v2") {
		t.Fatalf("Expected CAS on absent key with non-nil expected to fail")
	}

	value, _, err := s.GetKey(ctx, "flag")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if value != "v1" {
		t.Errorf("Losing CAS modified the value: got %s", value)
	}
}

func testCASSequence(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	if err := s.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	if !s.CompareAndSet(ctx, "flag", ptr("v1"), "v2") {
		t.Fatalf("Expected CAS v1->v2 to succeed")
	}

	// the stale expectation v1 must now lose
	if s.CompareAndSet(ctx, "flag", ptr("v1"), "v3") {
		t.Fatalf("Expected stale CAS v1->v3 to fail")
	}

	value, _, err := s.GetKey(ctx, "flag")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if value != "v2" {
		t.Errorf("Expected value v2, got %s", value)
	}
}

func testConcurrentCAS(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	const writers = 16

	if err := s.CreateKey(ctx, "counter", "base"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	// all writers race with the same expectation, exactly one can win: the
	// first committed write invalidates every other writer's expectation
	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if s.CompareAndSet(ctx, "counter", ptr("base"), fmt.Sprintf("writer-%d", id)) {
				successes.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("Expected exactly one CAS winner, got %d", successes.Load())
	}
}

func testListPrefix(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	for i := 0; i < 12; i++ {
		if err := s.CreateKey(ctx, fmt.Sprintf("org/42/key-%d", i), "x"); err != nil {
			t.Fatalf("CreateKey failed: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := s.CreateKey(ctx, fmt.Sprintf("org/7/key-%d", i), "y"); err != nil {
			t.Fatalf("CreateKey failed: %v", err)
		}
	}

	keys, err := s.ListKeysInDirectory(ctx, "org/42/")
	if err != nil {
		t.Fatalf("ListKeysInDirectory failed: %v", err)
	}

	if len(keys) != 12 {
		t.Fatalf("Expected 12 keys under org/42/, got %d (%v)", len(keys), keys)
	}

	seen := make(map[string]struct{})
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			t.Errorf("Duplicate key in enumeration: %s", key)
		}
		seen[key] = struct{}{}

		if len(key) < len("org/42/") || key[:len("org/42/")] != "org/42/" {
			t.Errorf("Key %s leaked in from another directory", key)
		}
	}
}

func testListEmpty(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	keys, err := s.ListKeysInDirectory(ctx, "empty/")
	if err != nil {
		t.Fatalf("ListKeysInDirectory failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Expected empty enumeration, got %v", keys)
	}
}

func testWatcherOrder(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		s.WatchKey("flag", func(value string, loaded bool) {
			order = append(order, i)
			if value != "v1" || !loaded {
				t.Errorf("Watcher %d: expected (v1, true), got (%s, %t)", i, value, loaded)
			}
		})
	}

	if err := s.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	if len(order) != 3 {
		t.Fatalf("Expected 3 watcher invocations, got %d", len(order))
	}
	for i, idx := range order {
		if idx != i {
			t.Errorf("Watchers fired out of registration order: %v", order)
			break
		}
	}
}

func testWatcherPanicIsolation(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	if err := s.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	var secondGot string
	s.WatchKey("flag", func(value string, loaded bool) {
		panic("first watcher broken")
	})
	s.WatchKey("flag", func(value string, loaded bool) {
		secondGot = value
	})

	// the panicking watcher must neither fail the update nor starve the
	// second watcher
	if err := s.UpdateValue(ctx, "flag", "v2"); err != nil {
		t.Fatalf("UpdateValue failed despite watcher panic: %v", err)
	}
	if secondGot != "v2" {
		t.Errorf("Expected second watcher to receive v2, got %q", secondGot)
	}
}

func testDeleteNotifiesAbsent(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()
	defer func() { _ = s.Disconnect(ctx) }()

	if err := s.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	notified := false
	s.WatchKey("flag", func(value string, loaded bool) {
		notified = true
		if loaded {
			t.Errorf("Expected delete notification with loaded=false, got value %q", value)
		}
	})

	if err := s.DeleteKey(ctx, "flag"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if !notified {
		t.Errorf("Expected watcher to fire on delete")
	}
}

func testDisconnect(t *testing.T, s store.IStore[string]) {
	ctx := context.Background()

	if !s.HealthCheck(ctx) {
		t.Fatalf("Expected healthy store before disconnect")
	}

	s.WatchKey("flag", func(value string, loaded bool) {
		t.Errorf("Watcher fired after disconnect")
	})

	if err := s.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if s.HealthCheck(ctx) {
		t.Errorf("Expected health check to fail after disconnect")
	}

	// disconnect twice is a no-op
	if err := s.Disconnect(ctx); err != nil {
		t.Fatalf("Second Disconnect failed: %v", err)
	}
}
