// Package encoder is the CBOR layer for the records the store keeps outside the compact
// layout: block headers and signatures.
package encoder

import (
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// maxArrayElements bounds the length of any decoded CBOR array or map.
const maxArrayElements = 1 << 20

var modes = sync.OnceValues(func() (cbor.EncMode, cbor.DecMode) {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err := cbor.DecOptions{
		MaxArrayElements:  maxArrayElements,
		MaxMapPairs:       maxArrayElements,
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return encMode, decMode
})

// Marshal returns the deterministic encoding of v
func Marshal(v any) ([]byte, error) {
	encMode, _ := modes()
	return encMode.Marshal(v)
}

// Unmarshal decodes v from b. Unknown struct fields and duplicate map keys are rejected.
func Unmarshal(b []byte, v any) error {
	_, decMode := modes()
	return decMode.Unmarshal(b, v)
}

// UnmarshalFirst decodes the first CBOR data item into v and returns the remaining bytes
func UnmarshalFirst(b []byte, v any) ([]byte, error) {
	_, decMode := modes()
	return decMode.UnmarshalFirst(b, v)
}

// TestSymmetry checks that a value survives an encode/decode cycle unchanged
func TestSymmetry(t *testing.T, value any) {
	t.Helper()
	cborBytes, err := Marshal(value)
	require.NoError(t, err)

	unmarshaled := reflect.New(reflect.TypeOf(value))
	require.NoError(t, Unmarshal(cborBytes, unmarshaled.Interface()))
	assert.Equal(t, value, unmarshaled.Elem().Interface())
}

type Encoder interface {
	Encode(v any) error
}

// NewEncoder returns a new encoder that writes to w
func NewEncoder(w io.Writer) Encoder {
	encMode, _ := modes()
	return encMode.NewEncoder(w)
}

type Decoder interface {
	Decode(v any) error
}

// NewDecoder returns a new decoder that reads from r
func NewDecoder(r io.Reader) Decoder {
	_, decMode := modes()
	return decMode.NewDecoder(r)
}
