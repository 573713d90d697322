package converter

import (
	"bytes"
	"fmt"
	"reflect"

	gogojsonpb "github.com/gogo/protobuf/jsonpb"
	gogoproto "github.com/gogo/protobuf/proto"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"go.flowcore.dev/sdk/internal/bridge"
)

// protoJSONPayloadConverter converts proto.Message values (both APIv2
// google.golang.org/protobuf and gogo/protobuf) to/from their JSON form.
//
// Proto golang structs might be generated with different protoc plugin
// lineages; APIv2 messages and gogo messages need separate marshalers, and
// APIv2 must be checked first because its messages may also satisfy the gogo
// interface.
type protoJSONPayloadConverter struct {
	gogoMarshaler   gogojsonpb.Marshaler
	gogoUnmarshaler gogojsonpb.Unmarshaler
}

// NewJSONProtoPayloadConverter returns the json/protobuf converter.
func NewJSONProtoPayloadConverter() PayloadConverter {
	return &protoJSONPayloadConverter{
		gogoMarshaler:   gogojsonpb.Marshaler{},
		gogoUnmarshaler: gogojsonpb.Unmarshaler{},
	}
}

func (c *protoJSONPayloadConverter) ToPayload(value interface{}) (*bridge.Payload, error) {
	if v, ok := value.(proto.Message); ok {
		b, err := protojson.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unable to encode proto to JSON: %w", err)
		}
		return c.newPayload(b), nil
	}
	if v, ok := value.(gogoproto.Message); ok {
		var buf bytes.Buffer
		if err := c.gogoMarshaler.Marshal(&buf, v); err != nil {
			return nil, fmt.Errorf("unable to encode gogo proto to JSON: %w", err)
		}
		return c.newPayload(buf.Bytes()), nil
	}
	return nil, nil
}

func (c *protoJSONPayloadConverter) newPayload(data []byte) *bridge.Payload {
	return &bridge.Payload{Metadata: map[string][]byte{MetadataEncoding: []byte(c.Encoding())}, Data: data}
}

func (c *protoJSONPayloadConverter) FromPayload(payload *bridge.Payload, valuePtr interface{}) error {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Ptr {
		return fmt.Errorf("value: %T must be pointer to pointer to proto message", valuePtr)
	}
	elem := rv.Elem()
	protoValue := elem.Interface()

	if protoMessage, ok := protoValue.(proto.Message); ok {
		if protoMessage == nil || reflect.ValueOf(protoMessage).IsNil() {
			elem.Set(reflect.New(elem.Type().Elem()))
			protoMessage = elem.Interface().(proto.Message)
		}
		if err := protojson.Unmarshal(payload.Data, protoMessage); err != nil {
			return fmt.Errorf("unable to decode JSON to proto: %w", err)
		}
		return nil
	}
	if gogoMessage, ok := protoValue.(gogoproto.Message); ok {
		if gogoMessage == nil || reflect.ValueOf(gogoMessage).IsNil() {
			elem.Set(reflect.New(elem.Type().Elem()))
			gogoMessage = elem.Interface().(gogoproto.Message)
		}
		if err := c.gogoUnmarshaler.Unmarshal(bytes.NewReader(payload.Data), gogoMessage); err != nil {
			return fmt.Errorf("unable to decode JSON to gogo proto: %w", err)
		}
		return nil
	}
	return fmt.Errorf("value %T does not implement proto.Message or gogoproto.Message", valuePtr)
}

func (c *protoJSONPayloadConverter) Encoding() string { return MetadataEncodingJSONProto }

func (c *protoJSONPayloadConverter) ToString(payload *bridge.Payload) string {
	return string(payload.Data)
}
