package serializer

// NewRawSerializer creates a passthrough serializer for []byte values.
// Serialize copies the slice so the store never aliases caller memory.
func NewRawSerializer() ISerializer[[]byte] {
	return &rawSerializerImpl{}
}

type rawSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializer)
// --------------------------------------------------------------------------

func (r rawSerializerImpl) Serialize(value []byte) ([]byte, error) {
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (r rawSerializerImpl) Deserialize(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// NewStringSerializer creates a passthrough serializer for string values.
func NewStringSerializer() ISerializer[string] {
	return &stringSerializerImpl{}
}

type stringSerializerImpl struct {
}

func (s stringSerializerImpl) Serialize(value string) ([]byte, error) {
	return []byte(value), nil
}

func (s stringSerializerImpl) Deserialize(b []byte) (string, error) {
	return string(b), nil
}
