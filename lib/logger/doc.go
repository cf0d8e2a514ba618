// Package logger provides the named logger facility used throughout rKV.
// Each package obtains its own logger via GetLogger (e.g. logger.GetLogger("store")),
// whose level can be adjusted independently at runtime. The implementation is
// backed by go.uber.org/zap with a compact console format.
package logger
