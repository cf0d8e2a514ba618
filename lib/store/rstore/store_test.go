package rstore

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ValentinKolb/rKV/lib/serializer"
	"github.com/ValentinKolb/rKV/lib/store"
	storetesting "github.com/ValentinKolb/rKV/lib/store/testing"
)

// testConfig builds a store configuration pointing at the given miniredis.
func testConfig(t testing.TB, m *miniredis.Miniredis) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Host = m.Host()
	port, err := strconv.Atoi(m.Port())
	if err != nil {
		t.Fatalf("invalid miniredis port %q: %v", m.Port(), err)
	}
	cfg.Port = port
	cfg.ConnectTimeout = time.Second
	cfg.MaxRetries = 1
	return cfg
}

// newTestStore spins up a private miniredis and connects a string store to it.
func newTestStore(t testing.TB) *RStore[string] {
	t.Helper()
	m := miniredis.RunT(t)
	s, err := New[string](context.Background(), testConfig(t, m), serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store to miniredis: %v", err)
	}
	return s
}

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "RStore", func() store.IStore[string] {
		return newTestStore(t)
	})
}

// TestNamespaceIsolation verifies that two stores with different namespaces
// on one shared Redis never see each other's keys, and that a logical key
// which happens to look like another store's namespace is not truncated.
func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	m := miniredis.RunT(t)

	cfgA := testConfig(t, m)
	cfgA.Namespace = "svc-a:"
	cfgB := testConfig(t, m)
	cfgB.Namespace = "svc-b:"

	a, err := New[string](ctx, cfgA, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store a: %v", err)
	}
	defer func() { _ = a.Disconnect(ctx) }()

	b, err := New[string](ctx, cfgB, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store b: %v", err)
	}
	defer func() { _ = b.Disconnect(ctx) }()

	// a logical key in store a that carries store b's namespace as text
	trickyKey := "svc-b:shared"
	if err := a.CreateKey(ctx, trickyKey, "belongs-to-a"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	if err := b.CreateKey(ctx, "shared", "belongs-to-b"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	value, loaded, err := a.GetKey(ctx, trickyKey)
	if err != nil || !loaded {
		t.Fatalf("GetKey failed: %v, loaded=%t", err, loaded)
	}
	if value != "belongs-to-a" {
		t.Errorf("Expected belongs-to-a, got %s", value)
	}

	keys, err := a.ListKeysInDirectory(ctx, "")
	if err != nil {
		t.Fatalf("ListKeysInDirectory failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != trickyKey {
		t.Errorf("Expected exactly [%s] in store a, got %v", trickyKey, keys)
	}

	keys, err = b.ListKeysInDirectory(ctx, "")
	if err != nil {
		t.Fatalf("ListKeysInDirectory failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "shared" {
		t.Errorf("Expected exactly [shared] in store b, got %v", keys)
	}
}

// TestEnumerationCompleteness verifies that enumeration pages through SCAN
// cursors and returns every key even when the count exceeds any single page.
func TestEnumerationCompleteness(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	defer func() { _ = s.Disconnect(ctx) }()

	const total = 250
	for i := 0; i < total; i++ {
		if err := s.CreateKey(ctx, fmt.Sprintf("org/42/key-%03d", i), "x"); err != nil {
			t.Fatalf("CreateKey failed: %v", err)
		}
	}
	for i := 0; i < 30; i++ {
		if err := s.CreateKey(ctx, fmt.Sprintf("org/7/key-%03d", i), "y"); err != nil {
			t.Fatalf("CreateKey failed: %v", err)
		}
	}

	keys, err := s.ListKeysInDirectory(ctx, "org/42/")
	if err != nil {
		t.Fatalf("ListKeysInDirectory failed: %v", err)
	}
	if len(keys) != total {
		t.Fatalf("Expected %d keys, got %d", total, len(keys))
	}

	seen := make(map[string]struct{}, total)
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			t.Errorf("Duplicate key in enumeration: %s", key)
		}
		seen[key] = struct{}{}
	}
}

// TestCASRaceDetection plays through the racing-writers scenario: writer a
// reads the current value, writer b commits an update through a second store
// instance, then a's compare-and-set with the now-stale expectation must
// fail and b's value must survive.
func TestCASRaceDetection(t *testing.T) {
	ctx := context.Background()
	m := miniredis.RunT(t)
	cfg := testConfig(t, m)

	a, err := New[string](ctx, cfg, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store a: %v", err)
	}
	defer func() { _ = a.Disconnect(ctx) }()

	b, err := New[string](ctx, cfg, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store b: %v", err)
	}
	defer func() { _ = b.Disconnect(ctx) }()

	if err := a.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	// a reads v1 and plans to swap it for v3
	expected, loaded, err := a.GetKey(ctx, "flag")
	if err != nil || !loaded {
		t.Fatalf("GetKey failed: %v, loaded=%t", err, loaded)
	}

	// b gets there first
	if err := b.UpdateValue(ctx, "flag", "v2"); err != nil {
		t.Fatalf("UpdateValue failed: %v", err)
	}

	if a.CompareAndSet(ctx, "flag", &expected, "v3") {
		t.Fatalf("Expected CAS with stale expectation to lose")
	}

	value, _, err := a.GetKey(ctx, "flag")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if value != "v2" {
		t.Errorf("Expected winning value v2, got %s", value)
	}
}

// TestInvalidationBroadcast verifies that successful mutations publish the
// bare logical key on the invalidation channel where any process can pick
// it up.
func TestInvalidationBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := miniredis.RunT(t)
	cfg := testConfig(t, m)

	pub, err := New[string](ctx, cfg, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect publisher: %v", err)
	}
	defer func() { _ = pub.Disconnect(ctx) }()

	sub, err := New[string](ctx, cfg, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect subscriber: %v", err)
	}
	defer func() { _ = sub.Disconnect(ctx) }()

	invalidations, err := sub.Invalidations(ctx)
	if err != nil {
		t.Fatalf("Invalidations failed: %v", err)
	}

	if err := pub.CreateKey(ctx, "cache/user-1", "profile"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	select {
	case key := <-invalidations:
		if key != "cache/user-1" {
			t.Errorf("Expected invalidation for cache/user-1, got %q", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for invalidation message")
	}
}

// TestPostDisconnectInertness verifies that watchers of a disconnected
// instance stay silent even when the same physical key is mutated through a
// different instance.
func TestPostDisconnectInertness(t *testing.T) {
	ctx := context.Background()
	m := miniredis.RunT(t)
	cfg := testConfig(t, m)

	a, err := New[string](ctx, cfg, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store a: %v", err)
	}

	b, err := New[string](ctx, cfg, serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store b: %v", err)
	}
	defer func() { _ = b.Disconnect(ctx) }()

	a.WatchKey("flag", func(value string, loaded bool) {
		t.Errorf("Watcher of disconnected instance fired")
	})
	if err := a.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if err := b.CreateKey(ctx, "flag", "v1"); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
}

// TestHealthCheck verifies the probe in both directions.
func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	m := miniredis.RunT(t)

	s, err := New[string](ctx, testConfig(t, m), serializer.NewStringSerializer())
	if err != nil {
		t.Fatalf("failed to connect store: %v", err)
	}
	defer func() { _ = s.Disconnect(ctx) }()

	if !s.HealthCheck(ctx) {
		t.Fatalf("Expected healthy store")
	}

	m.Close()

	if s.HealthCheck(ctx) {
		t.Errorf("Expected health check to fail after backend went away")
	}
}

// TestConnectFailure verifies that New reports a connection error after
// exhausting the linear backoff schedule.
func TestConnectFailure(t *testing.T) {
	ctx := context.Background()

	m := miniredis.RunT(t)
	cfg := testConfig(t, m)
	m.Close() // address is now dead

	_, err := New[string](ctx, cfg, serializer.NewStringSerializer())
	if err == nil {
		t.Fatalf("Expected connection error for dead endpoint")
	}
	if store.CodeOf(err) != store.RetCConnectionError {
		t.Errorf("Expected RetCConnectionError, got %v", err)
	}
}
