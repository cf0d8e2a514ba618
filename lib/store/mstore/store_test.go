package mstore

import (
	"context"
	"testing"

	"github.com/ValentinKolb/rKV/lib/serializer"
	"github.com/ValentinKolb/rKV/lib/store"
	storetesting "github.com/ValentinKolb/rKV/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "MStore", func() store.IStore[string] {
		return New[string](serializer.NewStringSerializer())
	})
}

// configEntry is a struct value type exercising the JSON serializer path.
type configEntry struct {
	URL     string
	Retries int
}

// TestStructValues verifies that struct values round trip through the store
// and that CAS compares serialized bytes, not struct identity.
func TestStructValues(t *testing.T) {
	ctx := context.Background()
	s := New[configEntry](serializer.NewJSONSerializer[configEntry]())
	defer func() { _ = s.Disconnect(ctx) }()

	v1 := configEntry{URL: "db.internal:5432", Retries: 3}
	if err := s.CreateKey(ctx, "config/db", v1); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	got, loaded, err := s.GetKey(ctx, "config/db")
	if err != nil || !loaded {
		t.Fatalf("GetKey failed: %v, loaded=%t", err, loaded)
	}
	if got != v1 {
		t.Errorf("Expected %+v, got %+v", v1, got)
	}

	// an equal-by-value struct must match in the CAS comparison
	expected := configEntry{URL: "db.internal:5432", Retries: 3}
	v2 := configEntry{URL: "db.internal:5432", Retries: 5}
	if !s.CompareAndSet(ctx, "config/db", &expected, v2) {
		t.Fatalf("Expected CAS with equal-by-value expectation to succeed")
	}

	got, _, _ = s.GetKey(ctx, "config/db")
	if got != v2 {
		t.Errorf("Expected %+v after CAS, got %+v", v2, got)
	}
}

func BenchmarkCreateGet(b *testing.B) {
	ctx := context.Background()
	s := New[string](serializer.NewStringSerializer())
	defer func() { _ = s.Disconnect(ctx) }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := "bench-key"
		_ = s.DeleteKey(ctx, key)
		_ = s.CreateKey(ctx, key, "bench-value")
		_, _, _ = s.GetKey(ctx, key)
	}
}

func BenchmarkCompareAndSet(b *testing.B) {
	ctx := context.Background()
	s := New[string](serializer.NewStringSerializer())
	defer func() { _ = s.Disconnect(ctx) }()

	_ = s.CreateKey(ctx, "bench-key", "v0")
	current := "v0"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next := current + "x"
		if len(next) > 8 {
			next = "v0"
		}
		if s.CompareAndSet(ctx, "bench-key", &current, next) {
			current = next
		}
	}
}
