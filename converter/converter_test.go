package converter

import (
	"testing"

	gogotypes "github.com/gogo/protobuf/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.flowcore.dev/sdk/internal/bridge"
)

type order struct {
	ID    string
	Total float64
	Items []string
}

func TestRoundTripJSON(t *testing.T) {
	dc := DefaultDataConverter

	in := order{ID: "o-1", Total: 12.5, Items: []string{"a", "b"}}
	payloads, err := dc.ToPayloads(in)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Equal(t, MetadataEncodingJSON, string(payloads[0].Metadata[MetadataEncoding]))

	var out order
	require.NoError(t, dc.FromPayloads(payloads, &out))
	assert.Equal(t, in, out)
}

func TestRoundTripByteSlice(t *testing.T) {
	dc := DefaultDataConverter

	in := []byte{0x01, 0x02, 0xff}
	payloads, err := dc.ToPayloads(in)
	require.NoError(t, err)
	assert.Equal(t, MetadataEncodingPlain, string(payloads[0].Metadata[MetadataEncoding]))

	var out []byte
	require.NoError(t, dc.FromPayloads(payloads, &out))
	assert.Equal(t, in, out)
}

func TestNilEncodesAsBinaryNull(t *testing.T) {
	dc := DefaultDataConverter

	payloads, err := dc.ToPayloads(nil)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Equal(t, MetadataEncodingNull, string(payloads[0].Metadata[MetadataEncoding]))
	assert.Empty(t, payloads[0].Data)

	// Decoding void tolerates a binary/null payload.
	var out *order
	require.NoError(t, dc.FromPayloads(payloads, &out))
	assert.Nil(t, out)
}

func TestRoundTripProtoJSON(t *testing.T) {
	dc := DefaultDataConverter

	payloads, err := dc.ToPayloads(wrapperspb.String("hello"))
	require.NoError(t, err)
	assert.Equal(t, MetadataEncodingJSONProto, string(payloads[0].Metadata[MetadataEncoding]))

	var out *wrapperspb.StringValue
	require.NoError(t, dc.FromPayloads(payloads, &out))
	assert.Equal(t, "hello", out.GetValue())
}

func TestRoundTripGogoProtoJSON(t *testing.T) {
	dc := DefaultDataConverter

	payloads, err := dc.ToPayloads(&gogotypes.StringValue{Value: "hola"})
	require.NoError(t, err)
	assert.Equal(t, MetadataEncodingJSONProto, string(payloads[0].Metadata[MetadataEncoding]))

	var out *gogotypes.StringValue
	require.NoError(t, dc.FromPayloads(payloads, &out))
	assert.Equal(t, "hola", out.GetValue())
}

func TestBinaryProtoConverterRoundTrip(t *testing.T) {
	c := NewProtoPayloadConverter()

	p, err := c.ToPayload(wrapperspb.Int64(42))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, MetadataEncodingProto, string(p.Metadata[MetadataEncoding]))

	var out *wrapperspb.Int64Value
	require.NoError(t, c.FromPayload(p, &out))
	assert.Equal(t, int64(42), out.GetValue())
}

func TestEncodingPicksFirstAcceptingConverter(t *testing.T) {
	dc := DefaultDataConverter

	// A []byte is accepted by the byte-slice converter before JSON gets a
	// chance, a proto message by the proto-JSON converter.
	payloads, err := dc.ToPayloads([]byte("raw"), wrapperspb.Bool(true), "plain")
	require.NoError(t, err)
	require.Len(t, payloads, 3)
	assert.Equal(t, MetadataEncodingPlain, string(payloads[0].Metadata[MetadataEncoding]))
	assert.Equal(t, MetadataEncodingJSONProto, string(payloads[1].Metadata[MetadataEncoding]))
	assert.Equal(t, MetadataEncodingJSON, string(payloads[2].Metadata[MetadataEncoding]))
}

func TestDecodeErrorCarriesFieldPath(t *testing.T) {
	dc := DefaultDataConverter

	payloads, err := dc.ToPayloads("first", "not-a-number")
	require.NoError(t, err)

	var a string
	var b int
	err = dc.FromPayloads(payloads, &a, &b)
	require.Error(t, err)
	var dcErr *DataConverterError
	require.ErrorAs(t, err, &dcErr)
	assert.Equal(t, "input.1", dcErr.FieldPath)
}

func TestMissingEncodingMetadataRejected(t *testing.T) {
	dc := DefaultDataConverter
	var out string
	err := dc.FromPayloads([]*bridge.Payload{{Data: []byte(`"x"`)}}, &out)
	require.Error(t, err)
}

func TestZlibCodecRoundTrip(t *testing.T) {
	dc := NewCompositeDataConverter(DefaultPayloadConverters(), ZlibCodec{})

	in := order{ID: "o-2", Total: 99, Items: []string{"x"}}
	payloads, err := dc.ToPayloads(in)
	require.NoError(t, err)
	assert.Equal(t, metadataEncodingZlib, string(payloads[0].Metadata[metadataEncodingOuter]))

	var out order
	require.NoError(t, dc.FromPayloads(payloads, &out))
	assert.Equal(t, in, out)
}

func TestZlibCodecLeavesForeignPayloadsAlone(t *testing.T) {
	codec := ZlibCodec{}
	plain := &bridge.Payload{
		Data:     []byte(`"untouched"`),
		Metadata: map[string][]byte{MetadataEncoding: []byte(MetadataEncodingJSON)},
	}
	out, err := codec.Decode([]*bridge.Payload{plain})
	require.NoError(t, err)
	assert.Equal(t, plain, out[0], "decode must be a no-op on payloads it did not produce")
}

func TestCodecChainAppliesInOrderAndReversesOnDecode(t *testing.T) {
	chain := &CodecChain{Codecs: []PayloadCodec{tagCodec{"a"}, tagCodec{"b"}}}

	in := []*bridge.Payload{{Data: []byte("v"), Metadata: map[string][]byte{}}}
	encoded, err := chain.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte("v/a/b"), encoded[0].Data)

	decoded, err := chain.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), decoded[0].Data)
}

// tagCodec appends "/<tag>" on encode and strips it on decode.
type tagCodec struct{ tag string }

func (c tagCodec) Encode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	out := make([]*bridge.Payload, len(payloads))
	for i, p := range payloads {
		out[i] = &bridge.Payload{Data: append(append([]byte{}, p.Data...), []byte("/"+c.tag)...), Metadata: p.Metadata}
	}
	return out, nil
}

func (c tagCodec) Decode(payloads []*bridge.Payload) ([]*bridge.Payload, error) {
	out := make([]*bridge.Payload, len(payloads))
	suffix := "/" + c.tag
	for i, p := range payloads {
		out[i] = &bridge.Payload{Data: p.Data[:len(p.Data)-len(suffix)], Metadata: p.Metadata}
	}
	return out, nil
}

func TestEncodedValuesLazyDecode(t *testing.T) {
	payloads, err := DefaultDataConverter.ToPayloads("x", 2)
	require.NoError(t, err)

	values := NewEncodedValues(payloads, nil)
	require.True(t, values.HasValues())
	var s string
	var n int
	require.NoError(t, values.Get(&s, &n))
	assert.Equal(t, "x", s)
	assert.Equal(t, 2, n)
}
