package crypto

import (
	"errors"
	"io"
	"math/big"

	"github.com/NethermindEth/starknet-api/core/felt"
	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

var ErrInvalidPrivateKey = errors.New("private key must be in [1, n)")

// PrivateKey is a Stark curve signing key. It exists for tooling and tests; sequencers keep their
// keys elsewhere.
type PrivateKey struct {
	d      *big.Int
	public PublicKey
}

func NewPrivateKey(d *big.Int) (*PrivateKey, error) {
	if d.Sign() <= 0 || d.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrInvalidPrivateKey
	}

	_, g := starkcurve.Generators()
	var q starkcurve.G1Affine
	q.ScalarMultiplication(&g, d)

	x := felt.Felt(q.X)
	return &PrivateKey{d: new(big.Int).Set(d), public: NewPublicKey(&x)}, nil
}

// GeneratePrivateKey draws a key uniformly from [1, n).
func GeneratePrivateKey(rand io.Reader) (*PrivateKey, error) {
	bound := new(big.Int).Sub(fr.Modulus(), one)
	d, err := randInt(rand, bound)
	if err != nil {
		return nil, err
	}
	return NewPrivateKey(d.Add(d, one))
}

func (k *PrivateKey) Public() PublicKey {
	return k.public
}

// Sign produces a signature over msg with nonces drawn from rand. Nonces leading to r, s or s^-1
// outside [1, 2^251) are discarded, so every returned signature passes Verify.
func (k *PrivateKey) Sign(rand io.Reader, msg *felt.Felt) (Signature, error) {
	z := msg.BigInt(new(big.Int))
	if z.Cmp(elementUpperBound) >= 0 {
		return Signature{}, &VerificationError{Kind: InvalidMessageHash, Value: *msg}
	}

	order := fr.Modulus()
	_, g := starkcurve.Generators()
	for {
		nonce, err := randInt(rand, order)
		if err != nil {
			return Signature{}, err
		}
		if nonce.Sign() == 0 {
			continue
		}

		var p starkcurve.G1Affine
		p.ScalarMultiplication(&g, nonce)
		r := p.X.BigInt(new(big.Int))
		if !inUpperBound(r) {
			continue
		}

		// s = k^-1 * (z + r*d) mod n
		s := new(big.Int).Mul(r, k.d)
		s.Add(s, z).Mod(s, order)
		s.Mul(s, new(big.Int).ModInverse(nonce, order)).Mod(s, order)
		if !inUpperBound(s) {
			continue
		}
		if w := new(big.Int).ModInverse(s, order); w == nil || !inUpperBound(w) {
			continue
		}

		var sig Signature
		sig.R.SetBigInt(r)
		sig.S.SetBigInt(s)
		return sig, nil
	}
}

// randInt returns a uniform value in [0, upper).
func randInt(rand io.Reader, upper *big.Int) (*big.Int, error) {
	buf := make([]byte, (upper.BitLen()+7)/8)
	excess := uint(len(buf)*8 - upper.BitLen())
	v := new(big.Int)
	for {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, err
		}
		buf[0] &= byte(0xff >> excess)
		if v.SetBytes(buf).Cmp(upper) < 0 {
			return v, nil
		}
	}
}
