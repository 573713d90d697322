package converter

import "go.flowcore.dev/sdk/internal/bridge"

// EncodedValues lazily decodes a list of payloads into strongly typed Go
// values, used for activity/child-workflow heartbeat and failure details.
type EncodedValues struct {
	payloads []*bridge.Payload
	dc       DataConverter
}

// NewEncodedValues wraps payloads with the converter that will decode them.
func NewEncodedValues(payloads []*bridge.Payload, dc DataConverter) *EncodedValues {
	if dc == nil {
		dc = DefaultDataConverter
	}
	return &EncodedValues{payloads: payloads, dc: dc}
}

// HasValues reports whether any payload was encoded.
func (b *EncodedValues) HasValues() bool { return len(b.payloads) > 0 }

// Get decodes the wrapped payloads into valuePtrs, in order.
func (b *EncodedValues) Get(valuePtrs ...interface{}) error {
	if !b.HasValues() {
		return nil
	}
	return b.dc.FromPayloads(b.payloads, valuePtrs...)
}

// Payloads exposes the raw wrapped payloads, e.g. to re-attach them to a
// Failure without a decode round trip.
func (b *EncodedValues) Payloads() []*bridge.Payload { return b.payloads }
