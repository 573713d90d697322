package converter

import (
	"encoding/json"
	"fmt"

	"go.flowcore.dev/sdk/internal/bridge"
)

// jsonPayloadConverter is the catch-all converter for arbitrary Go values.
// It never declines, so it must be last in the default chain.
type jsonPayloadConverter struct{}

// NewJSONPayloadConverter returns the json/plain converter.
func NewJSONPayloadConverter() PayloadConverter { return &jsonPayloadConverter{} }

func (c *jsonPayloadConverter) ToPayload(value interface{}) (*bridge.Payload, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("unable to encode to JSON: %w", err)
	}
	return &bridge.Payload{
		Metadata: map[string][]byte{MetadataEncoding: []byte(c.Encoding())},
		Data:     data,
	}, nil
}

func (c *jsonPayloadConverter) FromPayload(payload *bridge.Payload, valuePtr interface{}) error {
	if err := json.Unmarshal(payload.Data, valuePtr); err != nil {
		return fmt.Errorf("unable to decode JSON: %w", err)
	}
	return nil
}

func (c *jsonPayloadConverter) Encoding() string { return MetadataEncodingJSON }

func (c *jsonPayloadConverter) ToString(payload *bridge.Payload) string {
	return string(payload.Data)
}
