package lockmgr

import "context"

// ILockManager defines the interface for a lockmgr provider.
type ILockManager interface {
	// AcquireLock tries to acquire the lock for the given key.
	// Returns a boolean indicating whether the lock was acquired, the owner ID
	// needed to release it, and an error if any. Losing the race to another
	// holder is not an error.
	AcquireLock(ctx context.Context, key string) (ok bool, ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key.
	// Returns a boolean indicating whether the lock was released, and an error
	// if any. The method will also return true if the lock did not exist.
	ReleaseLock(ctx context.Context, key string, ownerID []byte) (ok bool, err error)
}
