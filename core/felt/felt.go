package felt

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Felt is an element of the Starknet prime field, p = 2^251 + 17*2^192 + 1.
type Felt fp.Element

// FeltLike is satisfied by every felt-backed identifier (hashes, addresses, keys).
type FeltLike interface {
	~[4]uint64
}

const (
	Limbs = fp.Limbs // number of 64 bits words needed to represent a Element
	Bits  = fp.Bits  // number of bits needed to represent a Element
	Bytes = fp.Bytes // number of bytes needed to represent a Element
)

var (
	Zero = Felt{}
	One  = FromUint64(1)

	ErrNotCanonical = errors.New("value is not a canonical field element")
)

var bigIntPool = sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func NewFelt(element *fp.Element) *Felt {
	return (*Felt)(element)
}

func FromUint64(v uint64) Felt {
	var f Felt
	f.SetUint64(v)
	return f
}

// FromBytes interprets b as a big-endian integer reduced modulo p.
func FromBytes(b []byte) Felt {
	var f Felt
	f.SetBytes(b)
	return f
}

// Impl returns the underlying field element type
func (z *Felt) Impl() *fp.Element {
	return (*fp.Element)(z)
}

// UnmarshalJSON accepts numbers and strings as input.
// See Element.SetString for valid prefixes (0x, 0b, ...).
// If there is an error, we try to explicitly unmarshal from hex before
// returning an error. Values outside [0, p) are rejected.
func (z *Felt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) > fp.Bits*3 {
		return errors.New("value too large (max = Element.Bits * 3)")
	}

	// we accept numbers and strings, remove leading and trailing quotes if any
	if len(s) > 0 && s[0] == '"' {
		s = s[1:]
	}
	if len(s) > 0 && s[len(s)-1] == '"' {
		s = s[:len(s)-1]
	}

	vv := bigIntPool.Get().(*big.Int)
	defer bigIntPool.Put(vv)

	if _, ok := vv.SetString(s, 0); !ok {
		if _, ok := vv.SetString(s, 16); !ok {
			return errors.New("can't parse into a big.Int: " + s)
		}
	}

	if vv.Sign() < 0 || vv.Cmp(fp.Modulus()) >= 0 {
		return fmt.Errorf("%w: %s", ErrNotCanonical, s)
	}

	z.Impl().SetBigInt(vv)
	return nil
}

// MarshalJSON emits the 0x-prefixed hex representation
func (z Felt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + z.String() + `"`), nil
}

// MarshalText emits the 0x-prefixed hex representation
func (z Felt) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText accepts the same inputs as UnmarshalJSON without the quotes
func (z *Felt) UnmarshalText(data []byte) error {
	return z.UnmarshalJSON(data)
}

// SetBytes interprets e as a big-endian integer and reduces it modulo p
func (z *Felt) SetBytes(e []byte) *Felt {
	z.Impl().SetBytes(e)
	return z
}

// SetBytesCanonical interprets e as the 32 big-endian bytes of a value that must be lower than p.
func (z *Felt) SetBytesCanonical(e []byte) error {
	if len(e) != Bytes {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrNotCanonical, Bytes, len(e))
	}

	vv := bigIntPool.Get().(*big.Int)
	defer bigIntPool.Put(vv)

	vv.SetBytes(e)
	if vv.Cmp(fp.Modulus()) >= 0 {
		return fmt.Errorf("%w: 0x%x", ErrNotCanonical, e)
	}
	z.Impl().SetBigInt(vv)
	return nil
}

// SetString forwards the call to underlying field element implementation
func (z *Felt) SetString(number string) (*Felt, error) {
	_, err := z.Impl().SetString(number)
	return z, err
}

// SetUint64 forwards the call to underlying field element implementation
func (z *Felt) SetUint64(v uint64) *Felt {
	z.Impl().SetUint64(v)
	return z
}

// SetBigInt forwards the call to underlying field element implementation
func (z *Felt) SetBigInt(v *big.Int) *Felt {
	z.Impl().SetBigInt(v)
	return z
}

// SetRandom forwards the call to underlying field element implementation
func (z *Felt) SetRandom() (*Felt, error) {
	_, err := z.Impl().SetRandom()
	return z, err
}

// BigInt writes the regular (non-Montgomery) value into res and returns it
func (z *Felt) BigInt(res *big.Int) *big.Int {
	return z.Impl().BigInt(res)
}

// Uint64 returns the value if it fits in 64 bits
func (z *Felt) Uint64() (uint64, error) {
	if !z.Impl().IsUint64() {
		return 0, fmt.Errorf("felt %s does not fit in uint64", z)
	}
	return z.Impl().Uint64(), nil
}

// String returns the 0x-prefixed hex representation without leading zeroes
func (z Felt) String() string {
	return "0x" + z.Text(16)
}

// Text forwards the call to underlying field element implementation
func (z Felt) Text(base int) string {
	return (*fp.Element)(&z).Text(base)
}

// Equal forwards the call to underlying field element implementation
func (z *Felt) Equal(x *Felt) bool {
	return z.Impl().Equal(x.Impl())
}

// Marshal forwards the call to underlying field element implementation
func (z *Felt) Marshal() []byte {
	return z.Impl().Marshal()
}

// Bytes returns the 32 big-endian bytes of the regular value
func (z Felt) Bytes() [32]byte {
	return (*fp.Element)(&z).Bytes()
}

// IsOne forwards the call to underlying field element implementation
func (z *Felt) IsOne() bool {
	return z.Impl().IsOne()
}

// IsZero forwards the call to underlying field element implementation
func (z *Felt) IsZero() bool {
	return z.Impl().IsZero()
}

// Cmp compares the regular values of z and x
func (z *Felt) Cmp(x *Felt) int {
	return z.Impl().Cmp(x.Impl())
}

// Add forwards the call to underlying field element implementation
func (z *Felt) Add(x, y *Felt) *Felt {
	z.Impl().Add(x.Impl(), y.Impl())
	return z
}

// Sub forwards the call to underlying field element implementation
func (z *Felt) Sub(x, y *Felt) *Felt {
	z.Impl().Sub(x.Impl(), y.Impl())
	return z
}

// Mul forwards the call to underlying field element implementation
func (z *Felt) Mul(x, y *Felt) *Felt {
	z.Impl().Mul(x.Impl(), y.Impl())
	return z
}
