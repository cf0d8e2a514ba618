package serializer

import (
	"bytes"
	"encoding/gob"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer[T any]() ISerializer[T] {
	return &gobSerializerImpl[T]{}
}

// gobSerializerImpl implements the ISerializer interface using gob encoding
type gobSerializerImpl[T any] struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl[T]) Serialize(value T) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl[T]) Deserialize(b []byte) (T, error) {
	var value T
	dec := gob.NewDecoder(bytes.NewBuffer(b))
	err := dec.Decode(&value)
	return value, err
}
