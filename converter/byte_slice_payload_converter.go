package converter

import (
	"fmt"
	"reflect"

	"go.flowcore.dev/sdk/internal/bridge"
)

// byteSlicePayloadConverter passes raw []byte values through verbatim
// under the binary/plain encoding.
type byteSlicePayloadConverter struct{}

// NewByteSlicePayloadConverter returns the binary/plain converter.
func NewByteSlicePayloadConverter() PayloadConverter { return &byteSlicePayloadConverter{} }

func (c *byteSlicePayloadConverter) ToPayload(value interface{}) (*bridge.Payload, error) {
	b, ok := value.([]byte)
	if !ok {
		return nil, nil
	}
	return &bridge.Payload{
		Metadata: map[string][]byte{MetadataEncoding: []byte(c.Encoding())},
		Data:     b,
	}, nil
}

func (c *byteSlicePayloadConverter) FromPayload(payload *bridge.Payload, valuePtr interface{}) error {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("cannot decode binary/plain payload into %T, want *[]byte", valuePtr)
	}
	v := rv.Elem()
	if !v.CanSet() {
		return fmt.Errorf("value of type %T is not settable", valuePtr)
	}
	v.SetBytes(payload.Data)
	return nil
}

func (c *byteSlicePayloadConverter) Encoding() string { return MetadataEncodingPlain }

func (c *byteSlicePayloadConverter) ToString(payload *bridge.Payload) string {
	return fmt.Sprintf("%x", payload.Data)
}
