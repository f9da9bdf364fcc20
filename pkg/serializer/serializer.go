// Package serializer defines the pluggable codec boundary between a
// vault's raw secret bytes and the richer value types a caller of the
// library might want to store. The core never inspects user types itself:
// it always operates on []byte, and delegates the optional string/value
// conversion to a Codec.
package serializer

import "encoding/json"

// Codec converts between a value and the raw bytes stored in a blob.
// Implementations must round-trip: Deserialize(Serialize(v)) == v for
// every v they accept.
type Codec interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, out any) error
}

// Default is the mandatory baseline codec: strings are stored as raw UTF-8
// with no byte-order mark, and []byte values are stored unmodified. It
// does not attempt to serialize any other type.
type Default struct{}

// Serialize returns the raw UTF-8 bytes of a string, or the bytes
// themselves for a []byte. Any other type is rejected: richer structured
// values require an explicit codec such as JSON.
func (Default) Serialize(v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	default:
		return nil, &UnsupportedTypeError{Value: v}
	}
}

// Deserialize writes raw bytes into out, which must be a *string or
// *[]byte.
func (Default) Deserialize(data []byte, out any) error {
	switch t := out.(type) {
	case *string:
		*t = string(data)
		return nil
	case *[]byte:
		*t = append([]byte(nil), data...)
		return nil
	default:
		return &UnsupportedTypeError{Value: out}
	}
}

// UnsupportedTypeError is returned by Default when asked to serialize or
// deserialize a type it does not know how to handle.
type UnsupportedTypeError struct {
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return "serializer: unsupported value type"
}

// JSON is an optional codec that marshals/unmarshals arbitrary Go values
// through encoding/json.
type JSON struct{}

// Serialize JSON-encodes v.
func (JSON) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize JSON-decodes data into out, which must be a pointer.
func (JSON) Deserialize(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
