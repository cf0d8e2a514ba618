package lockmgr

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/rKV/lib/serializer"
	"github.com/ValentinKolb/rKV/lib/store/mstore"
)

func newTestManager() ILockManager {
	return NewLockManager(mstore.New[[]byte](serializer.NewRawSerializer()))
}

func TestAcquireRelease(t *testing.T) {
	ctx := context.Background()
	lm := newTestManager()

	ok, ownerID, err := lm.AcquireLock(ctx, "resource")
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !ok || len(ownerID) == 0 {
		t.Fatalf("Expected to acquire free lock, ok=%t ownerID=%d bytes", ok, len(ownerID))
	}

	released, err := lm.ReleaseLock(ctx, "resource", ownerID)
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if !released {
		t.Fatalf("Expected owner to release its own lock")
	}

	// the lock must be acquirable again afterwards
	ok, _, err = lm.AcquireLock(ctx, "resource")
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected lock to be free after release")
	}
}

func TestAcquireHeldLock(t *testing.T) {
	ctx := context.Background()
	lm := newTestManager()

	ok, _, err := lm.AcquireLock(ctx, "resource")
	if err != nil || !ok {
		t.Fatalf("AcquireLock failed: ok=%t err=%v", ok, err)
	}

	// second acquire must lose without an error
	ok, ownerID, err := lm.AcquireLock(ctx, "resource")
	if err != nil {
		t.Fatalf("AcquireLock returned error for held lock: %v", err)
	}
	if ok || ownerID != nil {
		t.Errorf("Expected held lock to be unacquirable, ok=%t ownerID=%v", ok, ownerID)
	}
}

func TestReleaseForeignLock(t *testing.T) {
	ctx := context.Background()
	lm := newTestManager()

	_, ownerID, err := lm.AcquireLock(ctx, "resource")
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	// a wrong owner ID must not release the lock
	released, err := lm.ReleaseLock(ctx, "resource", []byte("not-the-owner"))
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if released {
		t.Fatalf("Expected foreign release attempt to fail")
	}

	// the real owner still can
	released, err = lm.ReleaseLock(ctx, "resource", ownerID)
	if err != nil || !released {
		t.Errorf("Expected owner release to succeed, released=%t err=%v", released, err)
	}
}

func TestReleaseMissingLock(t *testing.T) {
	ctx := context.Background()
	lm := newTestManager()

	released, err := lm.ReleaseLock(ctx, "never-locked", []byte("whoever"))
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if !released {
		t.Errorf("Expected release of missing lock to succeed")
	}
}

func TestConcurrentAcquire(t *testing.T) {
	ctx := context.Background()

	// all managers share one store, so they compete for the same lock
	s := mstore.New[[]byte](serializer.NewRawSerializer())

	const contenders = 32
	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := NewLockManager(s).AcquireLock(ctx, "resource")
			if err != nil {
				t.Errorf("AcquireLock failed: %v", err)
			}
			if ok {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := acquired.Load(); got != 1 {
		t.Errorf("Expected exactly one winner, got %d", got)
	}
}
