package crypto

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/starknet-api/core/felt"
	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

// VerificationErrorKind names the argument that made a verification impossible.
type VerificationErrorKind uint8

const (
	InvalidPublicKey VerificationErrorKind = iota + 1
	InvalidMessageHash
	InvalidR
	InvalidS
)

func (k VerificationErrorKind) String() string {
	switch k {
	case InvalidPublicKey:
		return "invalid public key"
	case InvalidMessageHash:
		return "invalid message hash"
	case InvalidR:
		return "invalid r"
	case InvalidS:
		return "invalid s"
	default:
		return fmt.Sprintf("VerificationErrorKind(%d)", uint8(k))
	}
}

// VerificationError reports a structurally invalid verification input together with its value.
type VerificationError struct {
	Kind  VerificationErrorKind
	Value felt.Felt
}

func (e *VerificationError) Error() string {
	return e.Kind.String() + " " + e.Value.String()
}

// Is matches any VerificationError of the same kind.
func (e *VerificationError) Is(target error) bool {
	t, ok := target.(*VerificationError)
	return ok && t.Kind == e.Kind && (t.Value.IsZero() || t.Value == e.Value)
}

var (
	// elementUpperBound is 2^251, the bound on messages, r and s
	elementUpperBound = new(big.Int).Lsh(big.NewInt(1), 251)
	// curveBeta is the b coefficient of y^2 = x^3 + x + b
	curveBeta = mustElement("0x6f21413efbe40de150e596d72f7a8c5609ad26c15c915c1f4cdfcb99cee9e89")
	one       = big.NewInt(1)
)

func mustElement(s string) fp.Element {
	var e fp.Element
	if _, err := e.SetString(s); err != nil {
		panic(err)
	}
	return e
}

type Signature struct {
	R felt.Felt `json:"r"`
	S felt.Felt `json:"s"`
}

type PublicKey struct {
	x felt.Felt
}

// NewPublicKey wraps the x coordinate of a Stark curve point.
func NewPublicKey(x *felt.Felt) PublicKey {
	return PublicKey{x: *x}
}

func (k *PublicKey) X() felt.Felt {
	return k.x
}

// point recovers one of the two curve points with the key's x coordinate.
func (k *PublicKey) point() (starkcurve.G1Affine, bool) {
	var x, rhs fp.Element
	x.Set(k.x.Impl())
	rhs.Square(&x).Mul(&rhs, &x).Add(&rhs, &x).Add(&rhs, &curveBeta)

	var y fp.Element
	if y.Sqrt(&rhs) == nil {
		return starkcurve.G1Affine{}, false
	}
	return starkcurve.G1Affine{X: x, Y: y}, true
}

// Verify checks signature over msg. Inputs outside their valid domain return a *VerificationError;
// a well-formed signature that does not match returns false and no error.
func (k *PublicKey) Verify(signature *Signature, msg *felt.Felt) (bool, error) {
	z := msg.BigInt(new(big.Int))
	if z.Cmp(elementUpperBound) >= 0 {
		return false, &VerificationError{Kind: InvalidMessageHash, Value: *msg}
	}

	r := signature.R.BigInt(new(big.Int))
	if !inUpperBound(r) {
		return false, &VerificationError{Kind: InvalidR, Value: signature.R}
	}
	s := signature.S.BigInt(new(big.Int))
	if !inUpperBound(s) {
		return false, &VerificationError{Kind: InvalidS, Value: signature.S}
	}

	q, ok := k.point()
	if !ok {
		return false, &VerificationError{Kind: InvalidPublicKey, Value: k.x}
	}

	order := fr.Modulus()
	w := new(big.Int).ModInverse(s, order)
	if w == nil || !inUpperBound(w) {
		return false, &VerificationError{Kind: InvalidS, Value: signature.S}
	}

	zw := new(big.Int).Mul(z, w)
	zw.Mod(zw, order)
	rw := new(big.Int).Mul(r, w)
	rw.Mod(rw, order)

	_, g := starkcurve.Generators()
	var zwG, rwQ starkcurve.G1Affine
	zwG.ScalarMultiplication(&g, zw)
	rwQ.ScalarMultiplication(&q, rw)

	var sum, diff, rwQJac starkcurve.G1Jac
	rwQJac.FromAffine(&rwQ)
	sum.FromAffine(&zwG).AddAssign(&rwQJac)
	diff.FromAffine(&zwG).SubAssign(&rwQJac)

	var rElement fp.Element
	rElement.SetBigInt(r)
	for _, candidate := range []*starkcurve.G1Jac{&sum, &diff} {
		var p starkcurve.G1Affine
		p.FromJacobian(candidate)
		if p.X.Equal(&rElement) {
			return true, nil
		}
	}
	return false, nil
}

func inUpperBound(v *big.Int) bool {
	return v.Cmp(one) >= 0 && v.Cmp(elementUpperBound) < 0
}
