package serializer

import (
	"bytes"
	"reflect"
	"testing"
)

// testValue is a representative struct value for the generic serializers.
type testValue struct {
	Name    string
	Count   int
	Enabled bool
	Tags    []string
	Payload []byte
}

// structSerializers is a map of serializer name to factory function
var structSerializers = map[string]func() ISerializer[testValue]{
	"JSON": NewJSONSerializer[testValue],
	"GOB":  NewGOBSerializer[testValue],
}

func testValues() []testValue {
	return []testValue{
		// Zero value
		{},

		// Typical configuration entry
		{
			Name:    "feature-flag",
			Count:   3,
			Enabled: true,
			Tags:    []string{"org/42", "beta"},
		},

		// Binary payload
		{
			Name:    "secret",
			Payload: []byte{0x00, 0xff, 0x10, 0x7f},
		},
	}
}

// TestStructRoundTrip tests that struct values survive a serialize/deserialize
// cycle unchanged for every struct-capable serializer.
func TestStructRoundTrip(t *testing.T) {
	values := testValues()

	for name, factory := range structSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, value := range values {
				data, err := s.Serialize(value)
				if err != nil {
					t.Errorf("Failed to serialize value %d: %v", i, err)
					continue
				}

				result, err := s.Deserialize(data)
				if err != nil {
					t.Errorf("Failed to deserialize value %d: %v", i, err)
					continue
				}

				// json round-trips empty slices as nil, normalize before comparing
				if len(value.Tags) == 0 && len(result.Tags) == 0 {
					result.Tags = value.Tags
				}
				if len(value.Payload) == 0 && len(result.Payload) == 0 {
					result.Payload = value.Payload
				}

				if !reflect.DeepEqual(value, result) {
					t.Errorf("Value %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, value, result)
				}
			}
		})
	}
}

// TestStringSerializer tests the passthrough string serializer.
func TestStringSerializer(t *testing.T) {
	s := NewStringSerializer()

	for _, value := range []string{"", "plain", "with\x00binary\xff", "unicode äöü"} {
		data, err := s.Serialize(value)
		if err != nil {
			t.Fatalf("Failed to serialize %q: %v", value, err)
		}
		result, err := s.Deserialize(data)
		if err != nil {
			t.Fatalf("Failed to deserialize %q: %v", value, err)
		}
		if result != value {
			t.Errorf("Round trip mismatch: expected %q, got %q", value, result)
		}
	}
}

// TestRawSerializer tests the passthrough byte serializer and verifies that it
// copies instead of aliasing the caller's slice.
func TestRawSerializer(t *testing.T) {
	s := NewRawSerializer()

	value := []byte("owner-id-bytes")
	data, err := s.Serialize(value)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	// Mutating the original must not change the serialized copy
	value[0] = 'X'
	if bytes.Equal(data, value) {
		t.Errorf("Serialize aliased the input slice")
	}

	result, err := s.Deserialize(data)
	if err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if !bytes.Equal(result, []byte("owner-id-bytes")) {
		t.Errorf("Round trip mismatch: got %q", result)
	}

	// Mutating the deserialized value must not change the stored bytes
	result[0] = 'Y'
	if bytes.Equal(data, result) {
		t.Errorf("Deserialize aliased the stored slice")
	}
}

// TestJSONSerializerInvalidData tests that corrupt data is rejected with an error.
func TestJSONSerializerInvalidData(t *testing.T) {
	s := NewJSONSerializer[testValue]()

	if _, err := s.Deserialize([]byte("{not json")); err == nil {
		t.Errorf("Expected error for invalid json but got none")
	}
}
