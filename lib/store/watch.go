package store

import (
	"sync"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ValentinKolb/rKV/lib/logger"
)

var watcherPanics = metrics.GetOrCreateCounter(`rkv_watcher_panics_total`)

// --------------------------------------------------------------------------
// Watcher Registry
// --------------------------------------------------------------------------

// WatcherRegistry holds the per-key watcher lists of one store instance.
// Registration order is preserved and callbacks fire in that order. The
// registry is safe for concurrent use: registration and fan-out can race
// across goroutines, so both paths take the registry mutex.
//
// The registry is exclusively owned by its store instance. It only ever sees
// mutations performed through that instance - it is the building block of the
// local watch mechanism, not a cross-process notification channel.
type WatcherRegistry[T any] struct {
	mu       sync.Mutex
	watchers map[string][]WatchFunc[T]
	log      logger.ILogger
}

// NewWatcherRegistry creates an empty registry that reports callback panics
// to the given logger.
func NewWatcherRegistry[T any](log logger.ILogger) *WatcherRegistry[T] {
	return &WatcherRegistry[T]{
		watchers: make(map[string][]WatchFunc[T]),
		log:      log,
	}
}

// Register appends fn to the watcher list of the given logical key.
func (r *WatcherRegistry[T]) Register(key string, fn WatchFunc[T]) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[key] = append(r.watchers[key], fn)
}

// Notify invokes all callbacks registered for key, in registration order,
// synchronously on the calling goroutine. A panicking callback is caught and
// logged; the remaining callbacks still run and the caller never observes
// the panic, so a broken watcher cannot fail the mutation that triggered it.
func (r *WatcherRegistry[T]) Notify(key string, value T, loaded bool) {
	r.mu.Lock()
	fns := make([]WatchFunc[T], len(r.watchers[key]))
	copy(fns, r.watchers[key])
	r.mu.Unlock()

	for _, fn := range fns {
		r.invoke(key, fn, value, loaded)
	}
}

// Count returns the number of watchers currently registered for key.
func (r *WatcherRegistry[T]) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers[key])
}

// Clear drops every registration. Called on disconnect, after which no
// previously registered watcher fires again.
func (r *WatcherRegistry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = make(map[string][]WatchFunc[T])
}

// invoke runs one callback with panic isolation.
func (r *WatcherRegistry[T]) invoke(key string, fn WatchFunc[T], value T, loaded bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("watcher for key %q panicked: %v", key, rec)
			watcherPanics.Inc()
		}
	}()
	fn(value, loaded)
}
