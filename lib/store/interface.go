package store

import (
	"context"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// WatchFunc is a callback registered via IStore.WatchKey. It is invoked with
// the new value after every successful mutation of the watched key performed
// through the owning store instance. For deletions, loaded is false and value
// is the zero value of T.
type WatchFunc[T any] func(value T, loaded bool)

// IStore is the generic interface for interacting with a coordination
// key-value store. All write operations return a *Error (nil on success),
// while read operations return the requested data along with a *Error
// (nil on success). CompareAndSet is the sole exception: it reports its
// outcome purely as a boolean (see method documentation).
type IStore[T any] interface {
	// CreateKey inserts a key-value pair if and only if the key does not
	// exist yet. The insert is atomic: of N concurrent callers racing on the
	// same fresh key exactly one succeeds, all others receive an error with
	// code RetCAlreadyExists. A present key is never silently overwritten.
	CreateKey(ctx context.Context, key string, value T) (err error)
	// UpdateValue overwrites the value of an existing key. If the key is
	// absent an error with code RetCNotFound is returned and the key is NOT
	// created as a side effect.
	UpdateValue(ctx context.Context, key string, value T) (err error)
	// GetKey returns the value for a key. The boolean return value indicates
	// whether the key was found; an absent key yields (zero, false, nil) and
	// is never conflated with a stored zero value of T.
	GetKey(ctx context.Context, key string) (value T, loaded bool, err error)
	// DeleteKey removes a key-value pair. Deleting an absent key is not an
	// error (the operation is idempotent).
	DeleteKey(ctx context.Context, key string) (err error)
	// ListKeysInDirectory returns every logical key stored under the given
	// prefix, complete regardless of how many keys exist: implementations
	// must page through the backend and never truncate at an internal page
	// boundary. Zero matches yield an empty slice.
	ListKeysInDirectory(ctx context.Context, prefix string) (keys []string, err error)
	// CompareAndSet atomically replaces the value of key with next if the
	// currently stored bytes equal the serialized expected value. A nil
	// expected means "succeed only if the key does not exist". The operation
	// is a single attempt: losing the optimistic race, a failed comparison
	// and any backend error all yield false (backend errors are logged, never
	// returned) - callers that need eventual success must loop themselves.
	CompareAndSet(ctx context.Context, key string, expected *T, next T) (swapped bool)
	// WatchKey registers a local observer for the given logical key. The
	// callback fires synchronously, in registration order, after every
	// successful mutation performed through THIS store instance. Mutations by
	// other instances, other processes or other replicas of the backing
	// technology are NOT observed - this is a deliberate scope limitation of
	// the in-process watch, not a distributed notification mechanism. A
	// panicking callback is caught and logged and neither stops later
	// callbacks nor fails the triggering mutation. Registrations live until
	// Disconnect.
	WatchKey(key string, fn WatchFunc[T])
	// HealthCheck performs one cheap liveness round trip against the backend
	// and reports the result. It never returns an error: probe failures map
	// to false.
	HealthCheck(ctx context.Context) (ok bool)
	// Disconnect clears all watcher registrations and releases the
	// connection. The store instance is not reusable afterwards; the
	// behavior of operations invoked after Disconnect is undefined.
	Disconnect(ctx context.Context) (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCAlreadyExists:
		errorCode = "AlreadyExists"
	case RetCNotFound:
		errorCode = "NotFound"
	case RetCSerializationError:
		errorCode = "SerializationError"
	case RetCConnectionError:
		errorCode = "ConnectionError"
	case RetCInternalError:
		errorCode = "InternalError"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("KVStoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// NewErrorf creates a new KVStoreError with the given code and a formatted message.
func NewErrorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// IsAlreadyExists reports whether err carries the RetCAlreadyExists code.
func IsAlreadyExists(err error) bool {
	return CodeOf(err) == RetCAlreadyExists
}

// IsNotFound reports whether err carries the RetCNotFound code.
func IsNotFound(err error) bool {
	return CodeOf(err) == RetCNotFound
}

// CodeOf extracts the RetCode from an error. A nil error yields RetCSuccess,
// a non-store error yields RetCInternalError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess            RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                     // 1: Operation failed due to an internal error.
	RetCConnectionError                   // 2: Backend is unreachable or the connection failed.
	RetCAlreadyExists                     // 3: CreateKey found the key already present.
	RetCNotFound                          // 4: UpdateValue found the key absent.
	RetCSerializationError                // 5: The serializer rejected a value or stored bytes.
)
