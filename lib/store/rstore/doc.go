// Package rstore implements the store.IStore interface on top of Redis.
//
// Redis offers none of the coordination-service primitives (atomic create,
// guarded update, compare-and-set, prefix watch) as a single operation, so
// each is assembled from lower-level atomic commands:
//
//   - CreateKey uses SETNX, whose single-key atomicity guarantees exactly one
//     winner among concurrent creators.
//   - UpdateValue uses SET with the XX flag so a failed update can never
//     create the key as a side effect.
//   - CompareAndSet runs the classic optimistic WATCH / GET / MULTI / EXEC
//     sequence: the watched key is read, the stored bytes are compared
//     against the serialized expected value, and the conditional write only
//     commits if no other writer touched the key since WATCH. Losing the
//     race is a normal outcome reported as false, never as an error.
//   - ListKeysInDirectory drives the cursor-based SCAN command until the
//     cursor cycles back to zero, so enumeration is complete regardless of
//     the server's page size.
//
// Change notification is two-tiered. Watchers registered via WatchKey are
// strictly in-process: they observe mutations performed through their own
// store instance only. This intentionally falls short of what a
// coordination-service-native backend could provide - the gap is documented
// on the interface rather than papered over. For cross-process cache
// invalidation the store additionally publishes the bare logical key of
// every successful mutation to a well-known pub/sub channel on a best-effort
// basis; Invalidations exposes the consumer side of that channel.
package rstore
