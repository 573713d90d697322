// Package converter implements the payload codec pipeline: an
// ordered chain of PayloadConverters that turn typed values into
// bridge.Payload and back, plus an optional outer PayloadCodec transform
// (compression, encryption) applied after converters run.
package converter

import (
	"fmt"

	"go.flowcore.dev/sdk/internal/bridge"
)

const (
	// MetadataEncoding is the metadata key naming the converter that
	// produced a payload.
	MetadataEncoding = "encoding"

	MetadataEncodingNull       = "binary/null"
	MetadataEncodingPlain      = "binary/plain"
	MetadataEncodingJSONProto  = "json/protobuf"
	MetadataEncodingProto      = "binary/protobuf"
	MetadataEncodingJSON       = "json/plain"
)

// PayloadConverter converts a single Go value to/from a bridge.Payload. It
// declines encoding by returning a nil payload and nil error.
type PayloadConverter interface {
	ToPayload(value interface{}) (*bridge.Payload, error)
	FromPayload(payload *bridge.Payload, valuePtr interface{}) error
	Encoding() string
}

// PayloadCodec is the optional outer transform (compression, encryption)
// applied after the converter chain runs, symmetric on encode/decode, and
// idempotent on metadata it does not recognize.
type PayloadCodec interface {
	Encode(payloads []*bridge.Payload) ([]*bridge.Payload, error)
	Decode(payloads []*bridge.Payload) ([]*bridge.Payload, error)
}

// DataConverter converts lists of Go values to/from lists of payloads.
type DataConverter interface {
	ToPayloads(values ...interface{}) ([]*bridge.Payload, error)
	FromPayloads(payloads []*bridge.Payload, valuePtrs ...interface{}) error
	ToString(payload *bridge.Payload) string
}

// DataConverterError is returned on decode failure, carrying a dotted field
// path for diagnostics.
type DataConverterError struct {
	FieldPath string
	Cause     error
}

func (e *DataConverterError) Error() string {
	return fmt.Sprintf("data converter: %s: %v", e.FieldPath, e.Cause)
}

func (e *DataConverterError) Unwrap() error { return e.Cause }

// compositeDataConverter is the default DataConverter: it runs the
// converter chain (first-match-wins on encode, encoding-tag dispatch on
// decode) and then applies an optional codec chain.
type compositeDataConverter struct {
	converters []PayloadConverter
	byEncoding map[string]PayloadConverter
	codecs     []PayloadCodec
}

// NewCompositeDataConverter builds a DataConverter from an ordered
// converter chain and zero or more outer codecs applied in order on encode
// and reverse order on decode.
func NewCompositeDataConverter(converters []PayloadConverter, codecs ...PayloadCodec) DataConverter {
	byEncoding := make(map[string]PayloadConverter, len(converters))
	for _, c := range converters {
		byEncoding[c.Encoding()] = c
	}
	return &compositeDataConverter{converters: converters, byEncoding: byEncoding, codecs: codecs}
}

// DefaultPayloadConverters is the default chain, in priority order.
// Encoding picks the first converter that accepts the value; decoding
// dispatches on the payload's encoding metadata.
func DefaultPayloadConverters() []PayloadConverter {
	return []PayloadConverter{
		NewNilPayloadConverter(),
		NewByteSlicePayloadConverter(),
		NewJSONProtoPayloadConverter(),
		NewProtoPayloadConverter(),
		NewJSONPayloadConverter(),
	}
}

// DefaultDataConverter is the package-level default, with no outer codec.
var DefaultDataConverter DataConverter = NewCompositeDataConverter(DefaultPayloadConverters())

func (dc *compositeDataConverter) ToPayloads(values ...interface{}) ([]*bridge.Payload, error) {
	if len(values) == 0 {
		return nil, nil
	}
	result := make([]*bridge.Payload, len(values))
	for i, v := range values {
		p, err := dc.toPayload(v)
		if err != nil {
			return nil, &DataConverterError{FieldPath: fmt.Sprintf("input.%d", i), Cause: err}
		}
		result[i] = p
	}
	encoded, err := dc.applyCodecsEncode(result)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

func (dc *compositeDataConverter) toPayload(value interface{}) (*bridge.Payload, error) {
	for _, c := range dc.converters {
		p, err := c.ToPayload(value)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no payload converter accepted value of type %T", value)
}

func (dc *compositeDataConverter) FromPayloads(payloads []*bridge.Payload, valuePtrs ...interface{}) error {
	decoded, err := dc.applyCodecsDecode(payloads)
	if err != nil {
		return err
	}
	for i, p := range decoded {
		if i >= len(valuePtrs) {
			break
		}
		if err := dc.fromPayload(p, valuePtrs[i]); err != nil {
			return &DataConverterError{FieldPath: fmt.Sprintf("input.%d", i), Cause: err}
		}
	}
	return nil
}

func (dc *compositeDataConverter) fromPayload(payload *bridge.Payload, valuePtr interface{}) error {
	if payload == nil {
		return nil
	}
	encoding, ok := payload.Metadata[MetadataEncoding]
	if !ok {
		return fmt.Errorf("payload missing %q metadata", MetadataEncoding)
	}
	c, ok := dc.byEncoding[string(encoding)]
	if !ok {
		return fmt.Errorf("no payload converter registered for encoding %q", encoding)
	}
	return c.FromPayload(payload, valuePtr)
}

func (dc *compositeDataConverter) applyCodecsEncode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	out := payloads
	var err error
	for _, codec := range dc.codecs {
		out, err = codec.Encode(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (dc *compositeDataConverter) applyCodecsDecode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	out := payloads
	var err error
	for i := len(dc.codecs) - 1; i >= 0; i-- {
		out, err = dc.codecs[i].Decode(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (dc *compositeDataConverter) ToString(payload *bridge.Payload) string {
	if payload == nil {
		return "nil"
	}
	encoding := string(payload.Metadata[MetadataEncoding])
	if c, ok := dc.byEncoding[encoding]; ok {
		if s, ok := c.(interface{ ToString(*bridge.Payload) string }); ok {
			return s.ToString(payload)
		}
	}
	return string(payload.Data)
}

// CodecChain composes multiple PayloadCodecs into one, applied in order on
// encode and reverse order on decode.
type CodecChain struct{ Codecs []PayloadCodec }

func (c *CodecChain) Encode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	out := payloads
	for _, codec := range c.Codecs {
		var err error
		out, err = codec.Encode(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *CodecChain) Decode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	out := payloads
	for i := len(c.Codecs) - 1; i >= 0; i-- {
		var err error
		out, err = c.Codecs[i].Decode(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
