package converter

import "go.flowcore.dev/sdk/internal/bridge"

// nilPayloadConverter handles the "void" special case: encoding
// nil/void yields a single binary/null payload with no data; decoding a nil
// pointer target or a binary/null payload is a no-op.
type nilPayloadConverter struct{}

// NewNilPayloadConverter returns the binary/null converter.
func NewNilPayloadConverter() PayloadConverter { return &nilPayloadConverter{} }

func (c *nilPayloadConverter) ToPayload(value interface{}) (*bridge.Payload, error) {
	if value != nil {
		return nil, nil
	}
	return &bridge.Payload{Metadata: map[string][]byte{MetadataEncoding: []byte(c.Encoding())}}, nil
}

func (c *nilPayloadConverter) FromPayload(payload *bridge.Payload, valuePtr interface{}) error {
	// Tolerate either no payload or a binary/null payload (void handling).
	return nil
}

func (c *nilPayloadConverter) Encoding() string { return MetadataEncodingNull }
