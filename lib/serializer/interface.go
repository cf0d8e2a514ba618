package serializer

// ISerializer is the interface for all value serializers. A store is generic
// over its value type T and delegates all encoding and decoding to an
// ISerializer[T] supplied at construction.
type ISerializer[T any] interface {
	// Serialize encodes a value into a byte slice.
	// It returns the encoded bytes and an error if any.
	Serialize(value T) ([]byte, error)
	// Deserialize decodes a byte slice back into a value.
	// It returns the decoded value and an error if any.
	Deserialize(b []byte) (T, error)
}
