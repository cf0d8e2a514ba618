// Package testing provides a standardised conformance suite for store
// implementations that satisfy the store.IStore interface.
//
// The suite exercises the full coordination contract: create exclusivity
// (including a concurrent-writer storm), existence-gated updates, idempotent
// deletes, the compare-and-set absent-guard and race semantics, complete
// prefix enumeration, watcher ordering and panic isolation, and disconnect
// behavior. Every backend implementation runs the same suite through a
// factory, mirroring how the benchmarks are shared as well.
//
// Usage:
//
//	func Test(t *testing.T) {
//		storetesting.RunStoreTests(t, "MStore", func() store.IStore[string] {
//			return mstore.New[string](serializer.NewStringSerializer())
//		})
//	}
package testing
