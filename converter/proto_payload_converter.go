package converter

import (
	"fmt"
	"reflect"

	gogoproto "github.com/gogo/protobuf/proto"
	"google.golang.org/protobuf/proto"

	"go.flowcore.dev/sdk/internal/bridge"
)

// protoPayloadConverter converts proto.Message values to/from their
// canonical binary wire form, with the same APIv2/gogo dual dispatch as the
// JSON variant.
type protoPayloadConverter struct{}

// NewProtoPayloadConverter returns the binary/protobuf converter.
func NewProtoPayloadConverter() PayloadConverter { return &protoPayloadConverter{} }

func (c *protoPayloadConverter) ToPayload(value interface{}) (*bridge.Payload, error) {
	if v, ok := value.(proto.Message); ok {
		b, err := proto.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unable to encode proto to binary: %w", err)
		}
		return &bridge.Payload{Metadata: map[string][]byte{MetadataEncoding: []byte(c.Encoding())}, Data: b}, nil
	}
	if v, ok := value.(gogoproto.Message); ok {
		b, err := gogoproto.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unable to encode gogo proto to binary: %w", err)
		}
		return &bridge.Payload{Metadata: map[string][]byte{MetadataEncoding: []byte(c.Encoding())}, Data: b}, nil
	}
	return nil, nil
}

func (c *protoPayloadConverter) FromPayload(payload *bridge.Payload, valuePtr interface{}) error {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Ptr {
		return fmt.Errorf("value: %T must be pointer to pointer to proto message", valuePtr)
	}
	elem := rv.Elem()
	if elem.IsNil() {
		elem.Set(reflect.New(elem.Type().Elem()))
	}
	protoValue := elem.Interface()
	if protoMessage, ok := protoValue.(proto.Message); ok {
		if err := proto.Unmarshal(payload.Data, protoMessage); err != nil {
			return fmt.Errorf("unable to decode binary to proto: %w", err)
		}
		return nil
	}
	if gogoMessage, ok := protoValue.(gogoproto.Message); ok {
		if err := gogoproto.Unmarshal(payload.Data, gogoMessage); err != nil {
			return fmt.Errorf("unable to decode binary to gogo proto: %w", err)
		}
		return nil
	}
	return fmt.Errorf("value %T does not implement proto.Message or gogoproto.Message", valuePtr)
}

func (c *protoPayloadConverter) Encoding() string { return MetadataEncodingProto }

func (c *protoPayloadConverter) ToString(payload *bridge.Payload) string {
	return fmt.Sprintf("%x", payload.Data)
}
