// Package serializer defines the value serialization strategy used by the
// rKV stores. A store instance is bound to one ISerializer at construction
// time and never inspects value contents itself - everything it persists is
// the byte sequence produced here.
//
// The package ships three implementations:
//
//   - JSON (NewJSONSerializer): human-readable, interoperable with other
//     consumers of the backing store. The default for the CLI.
//   - GOB (NewGOBSerializer): Go's native binary encoding, more compact for
//     rich struct values.
//   - Raw (NewRawSerializer / NewStringSerializer): passthrough for []byte
//     and string values with zero encoding overhead.
//
// The round-trip invariant Deserialize(Serialize(v)) == v is the caller's
// responsibility: the compare-and-set machinery of the stores compares
// serialized bytes, so two values the caller considers equal must serialize
// to identical bytes.
package serializer
