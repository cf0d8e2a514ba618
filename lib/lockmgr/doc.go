// Package lockmgr implements a locking mechanism using key-value stores
// that implement the store.IStore interface. It provides a simple yet
// robust way to coordinate access to shared resources across multiple
// processes.
//
// The lockmgr only ever stores in the provided IStore and has no other
// internal state. Therefore it is safe to be created multiple times on the
// same store. It is even possible to create a new lockmgr for every acquire
// and or release operation. As long as the same store is used every time,
// all locks will work as expected.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Locks are implemented by leveraging the atomic conditional operations
//	of the underlying store. Specifically:
//
//	- Lock Acquisition: Attempts to create a key using CreateKey, which
//	  guarantees that only one requester can successfully create the key.
//	  The value contains a randomly generated owner ID that identifies the
//	  lock holder. A requester that loses the race gets (false, nil, nil)
//	  rather than an error.
//
//	- Safe Release: The ReleaseLock operation first verifies that the
//	  requester is the legitimate owner of the lock by comparing owner IDs
//	  before executing the DeleteKey operation. Releasing a lock that no
//	  longer exists succeeds, matching the idempotent delete semantics of
//	  the store.
//
// Thread Safety:
//
//	The lockmgr is as thread-safe as the underlying store.IStore
//	implementation. All operations are performed through the store
//	interface, which typically provides thread safety guarantees.
//
// Distributed Considerations:
//
//	When used with a shared backend like rstore, the lockmgr provides
//	cross-process locking backed by the atomicity of the Redis SETNX
//	primitive. Note that locks never expire on their own. A client that
//	crashes while holding a lock leaves it behind until another party
//	deletes the key out of band.
//
// Usage Example:
//
//	// Create a lock provider with a store backend
//	lockProvider := lockmgr.NewLockManager(store)
//
//	// Try to acquire a lock
//	acquired, ownerID, err := lockProvider.AcquireLock(ctx, "resource:123")
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    // Release the lock when done
//	    released, err := lockProvider.ReleaseLock(ctx, "resource:123", ownerID)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
//
// Security Considerations:
//
//	The lock mechanism uses randomly generated owner IDs, which provides
//	reasonable protection against accidental lock stealing. However, it is
//	not designed to resist malicious attacks, as an attacker with access to
//	the underlying store could potentially manipulate lock data directly.
//
// Performance Impact:
//
//	Lock operations require 1-2 store operations each:
//	- AcquireLock: One CreateKey
//	- ReleaseLock: One GetKey followed by a conditional DeleteKey
//
//	The performance characteristics therefore depend primarily on the
//	underlying store implementation.
package lockmgr
