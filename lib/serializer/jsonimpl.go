package serializer

import (
	"encoding/json"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer[T any]() ISerializer[T] {
	return &jsonSerializerImpl[T]{}
}

// jsonSerializerImpl implements the ISerializer interface using json encoding
type jsonSerializerImpl[T any] struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl[T]) Serialize(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (j jsonSerializerImpl[T]) Deserialize(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}
