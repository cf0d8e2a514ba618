// Package mstore implements the store.IStore interface on a process-local
// concurrent map. It exists for embedding and for tests that need the full
// coordination contract (atomic create, guarded update, compare-and-set,
// prefix enumeration, local watch) without a running Redis.
//
// Values pass through the same serializer as in the Redis backend and are
// stored as bytes, so compare-and-set compares serialized bytes in exactly
// the same way and behavioral parity between the two backends holds down to
// the round-trip contract. All single-key mutations are atomic via the
// underlying map's Compute primitive.
//
// There is no cross-process invalidation broadcast here: the store is
// process-local by definition.
package mstore
