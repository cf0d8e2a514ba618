package mstore

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/rKV/lib/logger"
	"github.com/ValentinKolb/rKV/lib/serializer"
	"github.com/ValentinKolb/rKV/lib/store"
)

var log = logger.GetLogger("mstore")

// MStore implements store.IStore on an in-process concurrent map.
type MStore[T any] struct {
	data     *xsync.MapOf[string, []byte]
	ser      serializer.ISerializer[T]
	watchers *store.WatcherRegistry[T]
	closed   atomic.Bool
}

var _ store.IStore[string] = (*MStore[string])(nil)

// New creates an empty in-memory store bound to the given serializer.
func New[T any](ser serializer.ISerializer[T]) *MStore[T] {
	return &MStore[T]{
		data:     xsync.NewMapOf[string, []byte](),
		ser:      ser,
		watchers: store.NewWatcherRegistry[T](log),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *MStore[T]) CreateKey(_ context.Context, key string, value T) error {
	data, err := s.ser.Serialize(value)
	if err != nil {
		return store.NewErrorf(store.RetCSerializationError, "failed to serialize value for key %q: %v", key, err)
	}

	if _, loaded := s.data.LoadOrStore(key, data); loaded {
		return store.NewErrorf(store.RetCAlreadyExists, "key %q already exists", key)
	}

	s.watchers.Notify(key, value, true)
	return nil
}

func (s *MStore[T]) UpdateValue(_ context.Context, key string, value T) error {
	data, err := s.ser.Serialize(value)
	if err != nil {
		return store.NewErrorf(store.RetCSerializationError, "failed to serialize value for key %q: %v", key, err)
	}

	found := false
	s.data.Compute(key, func(old []byte, loaded bool) ([]byte, bool) {
		if !loaded {
			// returning delete=true on an absent key leaves the map unchanged
			return nil, true
		}
		found = true
		return data, false
	})
	if !found {
		return store.NewErrorf(store.RetCNotFound, "key %q does not exist", key)
	}

	s.watchers.Notify(key, value, true)
	return nil
}

func (s *MStore[T]) GetKey(_ context.Context, key string) (T, bool, error) {
	var zero T

	data, loaded := s.data.Load(key)
	if !loaded {
		return zero, false, nil
	}

	value, err := s.ser.Deserialize(data)
	if err != nil {
		return zero, false, store.NewErrorf(store.RetCSerializationError, "failed to deserialize value of key %q: %v", key, err)
	}
	return value, true, nil
}

func (s *MStore[T]) DeleteKey(_ context.Context, key string) error {
	s.data.Delete(key)

	var zero T
	s.watchers.Notify(key, zero, false)
	return nil
}

func (s *MStore[T]) ListKeysInDirectory(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	s.data.Range(func(key string, _ []byte) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, nil
}

func (s *MStore[T]) CompareAndSet(_ context.Context, key string, expected *T, next T) bool {
	nextData, err := s.ser.Serialize(next)
	if err != nil {
		log.Errorf("compare-and-set on key %q: failed to serialize next value: %v", key, err)
		return false
	}

	var expectedData []byte
	if expected != nil {
		if expectedData, err = s.ser.Serialize(*expected); err != nil {
			log.Errorf("compare-and-set on key %q: failed to serialize expected value: %v", key, err)
			return false
		}
	}

	// the Compute closure runs atomically for this key, read-compare-write
	// cannot interleave with concurrent writers
	swapped := false
	s.data.Compute(key, func(old []byte, loaded bool) ([]byte, bool) {
		if expected == nil {
			if loaded {
				return old, false
			}
			swapped = true
			return nextData, false
		}
		if !loaded {
			return nil, true
		}
		if !bytes.Equal(old, expectedData) {
			return old, false
		}
		swapped = true
		return nextData, false
	})

	if swapped {
		s.watchers.Notify(key, next, true)
	}
	return swapped
}

func (s *MStore[T]) WatchKey(key string, fn store.WatchFunc[T]) {
	s.watchers.Register(key, fn)
}

func (s *MStore[T]) HealthCheck(_ context.Context) bool {
	return !s.closed.Load()
}

func (s *MStore[T]) Disconnect(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.watchers.Clear()
	s.data.Clear()
	return nil
}
