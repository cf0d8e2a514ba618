// Package cmd implements the command-line interface for the rKV coordination
// store. It provides a hierarchical command structure for interacting with a
// Redis backend through the rstore client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations (create, set, get, del, ls, cas, watch)
//   - lock: Commands for locking operations (acquire, release)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See rkv -help for a list of all commands.
package cmd
