package protocol

import "github.com/sugawarayuuta/sonnet"

// Serializer defines the contract for serializing and deserializing event
// payloads that leave the binary queue format, such as snapshots and
// downstream feed messages. This allows different consumers to choose their
// preferred format (JSON, Protobuf, SBE, etc.).
type Serializer interface {
	// Marshal serializes a Go struct into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes bytes into a Go struct.
	// v must be a pointer to the target struct.
	Unmarshal(data []byte, v any) error
}

// JSONSerializer is the default Serializer. It uses sonnet, a drop-in
// replacement for encoding/json with a faster decoder.
type JSONSerializer struct{}

// Marshal implements Serializer.
func (JSONSerializer) Marshal(v any) ([]byte, error) {
	return sonnet.Marshal(v)
}

// Unmarshal implements Serializer.
func (JSONSerializer) Unmarshal(data []byte, v any) error {
	return sonnet.Unmarshal(data, v)
}
