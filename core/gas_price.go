package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/goccy/go-json"
)

// GasPrice is an unsigned 128 bit amount of the smallest unit of a fee token.
type GasPrice struct {
	hi uint64
	lo uint64
}

func NewGasPrice(hi, lo uint64) GasPrice {
	return GasPrice{hi: hi, lo: lo}
}

func GasPriceFromUint64(v uint64) GasPrice {
	return GasPrice{lo: v}
}

// GasPriceFromBig fails with a RangeError for negative values and values wider than 128 bits.
func GasPriceFromBig(v *big.Int) (GasPrice, error) {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return GasPrice{}, compact.NewRangeError(v.String(), errors.New("gas price must fit in 128 bits"))
	}
	var b [16]byte
	v.FillBytes(b[:])
	return GasPrice{
		hi: binary.BigEndian.Uint64(b[:8]),
		lo: binary.BigEndian.Uint64(b[8:]),
	}, nil
}

// Bytes returns the 16 big-endian bytes of the price
func (p GasPrice) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], p.hi)
	binary.BigEndian.PutUint64(b[8:], p.lo)
	return b
}

func (p GasPrice) BigInt() *big.Int {
	b := p.Bytes()
	return new(big.Int).SetBytes(b[:])
}

func (p GasPrice) IsZero() bool {
	return p.hi == 0 && p.lo == 0
}

// String returns the 0x-prefixed hex representation without leading zeroes
func (p GasPrice) String() string {
	if p.hi == 0 {
		return "0x" + strconv.FormatUint(p.lo, 16)
	}
	return fmt.Sprintf("0x%x%016x", p.hi, p.lo)
}

func (p GasPrice) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts a hex string or a plain JSON number.
func (p *GasPrice) UnmarshalJSON(data []byte) error {
	var value any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return err
	}

	v := new(big.Int)
	switch value := value.(type) {
	case string:
		digits := strings.TrimPrefix(value, "0x")
		if _, ok := v.SetString(digits, 16); !ok || digits == "" {
			return compact.NewRangeError(value, errors.New("not a hex number"))
		}
	case json.Number:
		if _, ok := v.SetString(value.String(), 10); !ok {
			return compact.NewRangeError(value.String(), errors.New("not an integer"))
		}
	default:
		return fmt.Errorf("unsupported type in JSON payload: %T", value)
	}

	price, err := GasPriceFromBig(v)
	if err != nil {
		return err
	}
	*p = price
	return nil
}

// MarshalBinary emits the 16 big-endian bytes of the price.
func (p GasPrice) MarshalBinary() ([]byte, error) {
	b := p.Bytes()
	return b[:], nil
}

func (p *GasPrice) UnmarshalBinary(data []byte) error {
	if len(data) != 16 {
		return fmt.Errorf("gas price: expected 16 bytes, got %d", len(data))
	}
	p.hi = binary.BigEndian.Uint64(data[:8])
	p.lo = binary.BigEndian.Uint64(data[8:])
	return nil
}
