package felt

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalJson(t *testing.T) {
	var with Felt
	assert.NoError(t, with.UnmarshalJSON([]byte("0x4437ab")))

	var without Felt
	assert.NoError(t, without.UnmarshalJSON([]byte("4437ab")))
	assert.Equal(t, true, without.Equal(&with))

	var quoted Felt
	assert.NoError(t, quoted.UnmarshalJSON([]byte(`"0x4437ab"`)))
	assert.Equal(t, with, quoted)

	var decimal Felt
	assert.NoError(t, decimal.UnmarshalJSON([]byte("123")))
	assert.Equal(t, FromUint64(123), decimal)

	t.Run("out of field", func(t *testing.T) {
		var f Felt
		modulus := "0x" + fp.Modulus().Text(16)
		assert.ErrorIs(t, f.UnmarshalJSON([]byte(modulus)), ErrNotCanonical)
	})

	t.Run("garbage", func(t *testing.T) {
		var f Felt
		assert.Error(t, f.UnmarshalJSON([]byte(`"zz"`)))
	})
}

func TestMarshalJson(t *testing.T) {
	type wrapper struct {
		Value Felt  `json:"value"`
		Ptr   *Felt `json:"ptr"`
	}

	v := FromUint64(0x7b)
	out, err := json.Marshal(wrapper{Value: v, Ptr: &v})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"0x7b","ptr":"0x7b"}`, string(out))

	var back wrapper
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, v, back.Value)
	assert.Equal(t, v, *back.Ptr)
}

func TestFeltCbor(t *testing.T) {
	var val Felt
	_, err := val.SetRandom()
	assert.NoError(t, err)

	bytes, err := cbor.Marshal(val)
	assert.NoError(t, err)

	var unmarshaledFelt Felt
	assert.NoError(t, cbor.Unmarshal(bytes, &unmarshaledFelt))
	assert.Equal(t, val, unmarshaledFelt)
}

func TestSetBytesCanonical(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		v := FromUint64(0xdeadbeef)
		b := v.Bytes()

		var got Felt
		require.NoError(t, got.SetBytesCanonical(b[:]))
		assert.Equal(t, v, got)
	})

	t.Run("p - 1 is accepted", func(t *testing.T) {
		pMinusOne := new(big.Int).Sub(fp.Modulus(), big.NewInt(1))
		var b [32]byte
		pMinusOne.FillBytes(b[:])

		var got Felt
		require.NoError(t, got.SetBytesCanonical(b[:]))
		assert.Equal(t, 0, got.BigInt(new(big.Int)).Cmp(pMinusOne))
	})

	t.Run("p is rejected", func(t *testing.T) {
		var b [32]byte
		fp.Modulus().FillBytes(b[:])

		var got Felt
		assert.ErrorIs(t, got.SetBytesCanonical(b[:]), ErrNotCanonical)
	})

	t.Run("wrong length", func(t *testing.T) {
		var got Felt
		assert.ErrorIs(t, got.SetBytesCanonical(make([]byte, 31)), ErrNotCanonical)
	})
}

func TestString(t *testing.T) {
	assert.Equal(t, "0x0", Zero.String())
	assert.Equal(t, "0x1", One.String())

	f := FromUint64(0xabc)
	assert.Equal(t, "0xabc", f.String())
	assert.Equal(t, "2748", f.Text(10))
}

func TestUint64(t *testing.T) {
	f := FromUint64(42)
	v, err := f.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	wide := new(Felt).SetBigInt(new(big.Int).Lsh(big.NewInt(1), 64))
	_, err = wide.Uint64()
	assert.Error(t, err)
}

func TestGenericHelpers(t *testing.T) {
	a := Address(FromUint64(1))
	b := Address(FromUint64(2))

	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
	assert.Equal(t, 0, Cmp(a, a))
	assert.True(t, Equal(a, Address(FromUint64(1))))
	assert.True(t, IsZero(ClassHash{}))
	assert.False(t, IsZero(a))
}

func TestTypedFeltJSON(t *testing.T) {
	addresses := map[Address]ClassHash{
		Address(FromUint64(0x10)): ClassHash(FromUint64(0x20)),
	}
	out, err := json.Marshal(addresses)
	require.NoError(t, err)
	assert.JSONEq(t, `{"0x10":"0x20"}`, string(out))

	var back map[Address]ClassHash
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, addresses, back)
}
