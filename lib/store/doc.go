// Package store provides a uniform interface for coordination-oriented
// key-value storage: atomic create-if-absent, existence-gated updates,
// optimistic compare-and-set, prefix enumeration and local change
// notification, with unified error handling across backends.
//
// The package focuses on:
//   - A generic interface (IStore[T]) for coordination operations, so that
//     different backing technologies can be interchanged behind one contract
//   - Values of any type T, encoded through a serializer strategy supplied
//     at construction (see the serializer package)
//   - A shared, mutex-guarded watcher registry (WatcherRegistry) used by all
//     implementations for in-process change fan-out
//
// Key Components:
//
//   - IStore Interface: The core abstraction. All implementations share this
//     common interface, allowing applications to switch between backends
//     without code changes. Expected, recoverable outcomes (key already
//     exists, key not found) are reported as typed *Error values; losing a
//     compare-and-set race is reported as a plain false, never as an error.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes and descriptive messages, plus IsAlreadyExists/IsNotFound helpers
//     for the two outcomes callers routinely branch on.
//
//   - WatcherRegistry: Per-key, insertion-ordered callback lists with panic
//     isolation. Watchers observe only mutations performed through their own
//     store instance - this is an in-process mechanism, not a distributed
//     watch (see the WatchKey documentation).
//
// Implementations:
//
//	The package includes two implementations of the IStore interface:
//
//	- Redis Store (rstore): Emulates coordination-service semantics on top of
//	  Redis primitives (SETNX, WATCH/MULTI/EXEC, cursor SCAN, pub/sub).
//	  Available in the "github.com/ValentinKolb/rKV/lib/store/rstore" package.
//
//	- Memory Store (mstore): A process-local implementation backed by a
//	  concurrent map, suitable for embedding and tests.
//	  Available in the "github.com/ValentinKolb/rKV/lib/store/mstore" package.
package store
