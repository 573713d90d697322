package converter

import (
	"bytes"
	"compress/zlib"
	"io"

	"go.flowcore.dev/sdk/internal/bridge"
)

const metadataEncodingZlib = "binary/zlib"

// ZlibCodec is a reference PayloadCodec ("typical use:
// compression"). It is idempotent on payloads it did not produce: Decode
// only unwraps payloads tagged with its own encoding, leaving others
// untouched, per the codec contract.
type ZlibCodec struct{}

func (ZlibCodec) Encode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	result := make([]*bridge.Payload, len(payloads))
	for i, p := range payloads {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(p.Data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		metadata := map[string][]byte{metadataEncodingOuter: []byte(metadataEncodingZlib)}
		for k, v := range p.Metadata {
			metadata[innerMetadataPrefix+k] = v
		}
		result[i] = &bridge.Payload{Data: buf.Bytes(), Metadata: metadata}
	}
	return result, nil
}

func (ZlibCodec) Decode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	result := make([]*bridge.Payload, len(payloads))
	for i, p := range payloads {
		if string(p.Metadata[metadataEncodingOuter]) != metadataEncodingZlib {
			result[i] = p
			continue
		}
		r, err := zlib.NewReader(bytes.NewReader(p.Data))
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		metadata := map[string][]byte{}
		for k, v := range p.Metadata {
			if k == metadataEncodingOuter {
				continue
			}
			if n := len(innerMetadataPrefix); len(k) > n && k[:n] == innerMetadataPrefix {
				metadata[k[n:]] = v
				continue
			}
			metadata[k] = v
		}
		result[i] = &bridge.Payload{Data: data, Metadata: metadata}
	}
	return result, nil
}

const metadataEncodingOuter = "outer-encoding"

// innerMetadataPrefix marks the wrapped payload's own metadata entries so
// they cannot collide with the codec's outer tag.
const innerMetadataPrefix = "inner-"
