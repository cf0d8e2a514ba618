package lockmgr

import (
	"bytes"
	"context"

	"github.com/ValentinKolb/rKV/lib/store"
)

type lockMgrImpl struct {
	store store.IStore[[]byte]
}

// NewLockManager creates a lock provider on top of the given store. The
// provider keeps no state of its own, so any number of providers may share
// one store.
func NewLockManager(s store.IStore[[]byte]) ILockManager {
	return &lockMgrImpl{
		store: s,
	}
}

func (lm *lockMgrImpl) AcquireLock(ctx context.Context, key string) (bool, []byte, error) {
	// Generate owner ID (256 bit random value)
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lock (create-if-absent admits exactly one winner)
	err = lm.store.CreateKey(ctx, key, ownerID)
	if store.IsAlreadyExists(err) {
		// Lock is held by someone else
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	return true, ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(ctx context.Context, key string, ownerID []byte) (bool, error) {
	// Check if the lock exists
	value, ok, err := lm.store.GetKey(ctx, key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock
	err = lm.store.DeleteKey(ctx, key)
	return err == nil, err
}
