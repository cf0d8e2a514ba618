package rstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/redis/go-redis/v9"

	"github.com/ValentinKolb/rKV/lib/logger"
	"github.com/ValentinKolb/rKV/lib/serializer"
	"github.com/ValentinKolb/rKV/lib/store"
)

var log = logger.GetLogger("rstore")

// errCompareFailed signals inside the CAS transaction that the stored value
// did not match the expected one. It is never returned to callers.
var errCompareFailed = errors.New("compare-and-set: current value does not match expected value")

// RStore implements store.IStore on top of a single Redis connection. One
// instance exclusively owns its client, its watcher registry and its
// namespace; instances must not share a connection unless their namespaces
// are disjoint.
type RStore[T any] struct {
	cfg      Config
	rdb      *redis.Client
	ser      serializer.ISerializer[T]
	watchers *store.WatcherRegistry[T]
	closed   atomic.Bool
}

var _ store.IStore[string] = (*RStore[string])(nil)

// New connects to the configured Redis endpoint and returns a store bound to
// the given serializer. The initial connection is verified with a PING and
// retried up to cfg.MaxRetries times on the linear RetryBackoff schedule;
// afterwards the go-redis client manages reconnection internally.
func New[T any](ctx context.Context, cfg Config, ser serializer.ISerializer[T]) (*RStore[T], error) {
	cfg = cfg.withDefaults()
	rdb := redis.NewClient(cfg.options())

	var err error
	for attempt := 1; ; attempt++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			break
		}
		if attempt > cfg.MaxRetries {
			_ = rdb.Close()
			return nil, store.NewErrorf(store.RetCConnectionError,
				"failed to connect to redis at %s: %v", cfg.Addr(), err)
		}
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, store.NewErrorf(store.RetCConnectionError,
				"failed to connect to redis at %s: %v", cfg.Addr(), ctx.Err())
		case <-time.After(RetryBackoff(attempt)):
		}
	}

	log.Infof("connected to redis at %s (namespace %q)", cfg.Addr(), cfg.Namespace)

	return &RStore[T]{
		cfg:      cfg,
		rdb:      rdb,
		ser:      ser,
		watchers: store.NewWatcherRegistry[T](log),
	}, nil
}

// --------------------------------------------------------------------------
// Key Namespacing
// --------------------------------------------------------------------------

// physicalKey maps a logical key to its namespaced form stored in Redis.
func (s *RStore[T]) physicalKey(key string) string {
	return s.cfg.Namespace + key
}

// logicalKey strips the namespace off a physical key. Keys that do not carry
// this store's namespace pass through unchanged, so a logical key starting
// with namespace-like text from another namespace is never truncated.
func (s *RStore[T]) logicalKey(physical string) string {
	return strings.TrimPrefix(physical, s.cfg.Namespace)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *RStore[T]) CreateKey(ctx context.Context, key string, value T) error {
	data, err := s.ser.Serialize(value)
	if err != nil {
		return store.NewErrorf(store.RetCSerializationError, "failed to serialize value for key %q: %v", key, err)
	}

	created, err := s.rdb.SetNX(ctx, s.physicalKey(key), data, 0).Result()
	if err != nil {
		return store.NewErrorf(store.RetCConnectionError, "failed to create key %q: %v", key, err)
	}
	if !created {
		return store.NewErrorf(store.RetCAlreadyExists, "key %q already exists", key)
	}

	opsTotal("create").Inc()
	s.afterMutation(ctx, key, value, true)
	return nil
}

func (s *RStore[T]) UpdateValue(ctx context.Context, key string, value T) error {
	data, err := s.ser.Serialize(value)
	if err != nil {
		return store.NewErrorf(store.RetCSerializationError, "failed to serialize value for key %q: %v", key, err)
	}

	// SET with XX only succeeds on an existing key, a failed update can
	// therefore never create the key as a side effect
	updated, err := s.rdb.SetXX(ctx, s.physicalKey(key), data, 0).Result()
	if err != nil {
		return store.NewErrorf(store.RetCConnectionError, "failed to update key %q: %v", key, err)
	}
	if !updated {
		return store.NewErrorf(store.RetCNotFound, "key %q does not exist", key)
	}

	opsTotal("update").Inc()
	s.afterMutation(ctx, key, value, true)
	return nil
}

func (s *RStore[T]) GetKey(ctx context.Context, key string) (T, bool, error) {
	var zero T

	data, err := s.rdb.Get(ctx, s.physicalKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, store.NewErrorf(store.RetCConnectionError, "failed to read key %q: %v", key, err)
	}

	value, err := s.ser.Deserialize(data)
	if err != nil {
		return zero, false, store.NewErrorf(store.RetCSerializationError, "failed to deserialize value of key %q: %v", key, err)
	}

	opsTotal("get").Inc()
	return value, true, nil
}

func (s *RStore[T]) DeleteKey(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.physicalKey(key)).Err(); err != nil {
		return store.NewErrorf(store.RetCConnectionError, "failed to delete key %q: %v", key, err)
	}

	opsTotal("delete").Inc()
	var zero T
	s.afterMutation(ctx, key, zero, false)
	return nil
}

func (s *RStore[T]) ListKeysInDirectory(ctx context.Context, prefix string) ([]string, error) {
	// glob metacharacters in the namespace or prefix must match literally,
	// only the trailing star is a wildcard
	pattern := escapeGlob(s.physicalKey(prefix)) + "*"

	// SCAN may return a key more than once over a full iteration, so the
	// accumulated result is de-duplicated while preserving first-seen order.
	keys := make([]string, 0)
	seen := make(map[string]struct{})

	var cursor uint64
	for {
		page, next, err := s.rdb.Scan(ctx, cursor, pattern, 0).Result()
		if err != nil {
			return nil, store.NewErrorf(store.RetCConnectionError, "failed to scan prefix %q: %v", prefix, err)
		}
		for _, physical := range page {
			logical := s.logicalKey(physical)
			if _, ok := seen[logical]; ok {
				continue
			}
			seen[logical] = struct{}{}
			keys = append(keys, logical)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	opsTotal("list").Inc()
	return keys, nil
}

func (s *RStore[T]) CompareAndSet(ctx context.Context, key string, expected *T, next T) bool {
	pkey := s.physicalKey(key)

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

	// Optimistic concurrency: WATCH the key, read and compare, then commit
	// the write in a transaction that Redis rejects if any other writer
	// touched the key since WATCH. The read and the conditional write are
	// the only two suspension points, the gap between them is exactly what
	// the transaction protects.
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, pkey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// key absent, only a nil expected matches
			if expected != nil {
				return errCompareFailed
			}
		case err != nil:
			return err
		default:
			if expected == nil || !bytes.Equal(current, expectedData) {
				return errCompareFailed
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pkey, nextData, 0)
			return nil
		})
		return err
	}, pkey)

	switch {
	case err == nil:
		opsTotal("cas").Inc()
		s.afterMutation(ctx, key, next, true)
		return true
	case errors.Is(err, errCompareFailed), errors.Is(err, redis.TxFailedErr):
		// losing the race is a normal outcome, not an error
		casConflicts.Inc()
		return false
	default:
		// backend errors collapse into the same false outcome so CAS keeps
		// its two-valued result; the cause is only reported here
		log.Errorf("compare-and-set on key %q failed: %v", key, err)
		casErrors.Inc()
		return false
	}
}

func (s *RStore[T]) WatchKey(key string, fn store.WatchFunc[T]) {
	s.watchers.Register(key, fn)
}

func (s *RStore[T]) HealthCheck(ctx context.Context) bool {
	if s.closed.Load() {
		return false
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		log.Warningf("health check failed: %v", err)
		return false
	}
	return true
}

func (s *RStore[T]) Disconnect(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	// watcher registrations are cleared before the connection goes away so
	// no callback can fire on a half-closed store
	s.watchers.Clear()
	if err := s.rdb.Close(); err != nil {
		return store.NewErrorf(store.RetCConnectionError, "failed to close redis connection: %v", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Invalidation Broadcast
// --------------------------------------------------------------------------

// Invalidations subscribes to the store's invalidation channel and returns a
// stream of logical key names published by any process mutating the shared
// keyspace. The broadcast is advisory and best-effort: consumers use it to
// drop stale cached copies, never for correctness. The returned channel is
// closed when ctx is cancelled or the subscription dies.
func (s *RStore[T]) Invalidations(ctx context.Context) (<-chan string, error) {
	pubsub := s.rdb.Subscribe(ctx, s.cfg.InvalidationChannel)

	// confirm the subscription before handing out the channel
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, store.NewErrorf(store.RetCConnectionError,
			"failed to subscribe to %q: %v", s.cfg.InvalidationChannel, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// escapeGlob escapes the SCAN MATCH metacharacters in s.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// afterMutation runs the local watcher fan-out and the best-effort
// invalidation broadcast for a successfully mutated logical key.
func (s *RStore[T]) afterMutation(ctx context.Context, key string, value T, loaded bool) {
	s.watchers.Notify(key, value, loaded)

	// fire-and-forget: the payload is the bare logical key, no envelope
	if err := s.rdb.Publish(ctx, s.cfg.InvalidationChannel, key).Err(); err != nil {
		log.Warningf("failed to publish invalidation for key %q: %v", key, err)
		invalidationErrors.Inc()
	}
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	casConflicts       = metrics.GetOrCreateCounter(`rkv_cas_conflicts_total`)
	casErrors          = metrics.GetOrCreateCounter(`rkv_cas_errors_total`)
	invalidationErrors = metrics.GetOrCreateCounter(`rkv_invalidation_errors_total`)
)

func opsTotal(op string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_store_ops_total{op=%q}`, op))
}
