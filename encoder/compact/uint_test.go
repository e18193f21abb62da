package compact_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintBoundaries(t *testing.T) {
	tests := map[string]struct {
		value   uint64
		encoded []byte
	}{
		"zero":                   {0, []byte{0x00}},
		"largest single byte":    {63, []byte{0xfc}},
		"smallest two bytes":     {64, []byte{0x01, 0x01}},
		"largest two bytes":      {16383, []byte{0xfd, 0xff}},
		"smallest four bytes":    {16384, []byte{0x02, 0x00, 0x01, 0x00}},
		"largest four bytes":     {1<<30 - 1, []byte{0xfe, 0xff, 0xff, 0xff}},
		"smallest big integer":   {1 << 30, []byte{0x03, 0x00, 0x00, 0x00, 0x40}},
		"largest 4 byte big int": {math.MaxUint32, []byte{0x03, 0xff, 0xff, 0xff, 0xff}},
		"five byte big integer":  {1 << 32, []byte{0x07, 0x00, 0x00, 0x00, 0x00, 0x01}},
		"max uint64": {
			math.MaxUint64,
			[]byte{0x13, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			encoded := compact.EncodeUint(test.value)
			assert.Equal(t, test.encoded, encoded)
			assert.Equal(t, len(encoded), compact.SizeUint(test.value))

			decoded, rest, err := compact.DecodeUint(append(encoded, 0xaa))
			require.NoError(t, err)
			assert.Equal(t, test.value, decoded)
			assert.Equal(t, []byte{0xaa}, rest)
		})
	}
}

func TestDecodeUintErrors(t *testing.T) {
	tests := map[string]struct {
		input []byte
		err   error
	}{
		"empty":                       {nil, compact.ErrTruncated},
		"truncated two bytes":         {[]byte{0x01}, compact.ErrTruncated},
		"truncated four bytes":        {[]byte{0x02, 0x00, 0x01}, compact.ErrTruncated},
		"truncated big integer":       {[]byte{0x03, 0x00, 0x00}, compact.ErrTruncated},
		"width above ceiling":         {[]byte{0x17, 1, 1, 1, 1, 1, 1, 1, 1, 1}, compact.ErrInvalidWidth},
		"63 in two bytes":             {[]byte{0xfd, 0x00}, compact.ErrNonCanonical},
		"zero in two bytes":           {[]byte{0x01, 0x00}, compact.ErrNonCanonical},
		"16383 in four bytes":         {[]byte{0xfe, 0xff, 0x00, 0x00}, compact.ErrNonCanonical},
		"2^30-1 as big integer":       {[]byte{0x03, 0xff, 0xff, 0xff, 0x3f}, compact.ErrNonCanonical},
		"big integer with zero top":   {[]byte{0x07, 0x00, 0x00, 0x00, 0x40, 0x00}, compact.ErrNonCanonical},
		"eight bytes for a small int": {[]byte{0x13, 1, 0, 0, 0, 0, 0, 0, 0}, compact.ErrNonCanonical},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := compact.DecodeUint(test.input)
			require.ErrorIs(t, err, test.err)

			var structuralErr *compact.StructuralError
			assert.ErrorAs(t, err, &structuralErr)
		})
	}
}

func TestUintRoundTrip(t *testing.T) {
	for shift := 0; shift < 64; shift++ {
		for _, delta := range []int64{-1, 0, 1} {
			v := uint64(1)<<shift + uint64(delta)
			decoded, rest, err := compact.DecodeUint(compact.EncodeUint(v))
			require.NoError(t, err, v)
			assert.Equal(t, v, decoded)
			assert.Empty(t, rest)
		}
	}
}

func FuzzDecodeUint(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x01, 0x01})
	f.Add([]byte{0x02, 0x00, 0x01, 0x00})
	f.Add([]byte{0x03, 0x00, 0x00, 0x00, 0x40})
	f.Add([]byte{0x13, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, input []byte) {
		v, rest, err := compact.DecodeUint(input)
		if err != nil {
			return
		}

		consumed := input[:len(input)-len(rest)]
		if !bytes.Equal(consumed, compact.EncodeUint(v)) {
			t.Fatalf("decoded %d from %x, re-encodes as %x", v, consumed, compact.EncodeUint(v))
		}
	})
}

func BenchmarkEncodeUint(b *testing.B) {
	values := []uint64{7, 1000, 1 << 20, 1 << 40}
	buf := make([]byte, 0, 16)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = compact.AppendUint(buf[:0], values[i%len(values)])
	}
}

func BenchmarkDecodeUint(b *testing.B) {
	inputs := [][]byte{
		compact.EncodeUint(7),
		compact.EncodeUint(1000),
		compact.EncodeUint(1 << 20),
		compact.EncodeUint(1 << 40),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := compact.DecodeUint(inputs[i%len(inputs)]); err != nil {
			b.Fatal(err)
		}
	}
}
