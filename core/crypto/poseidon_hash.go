package crypto

import (
	junocrypto "github.com/NethermindEth/juno/core/crypto"
	junofelt "github.com/NethermindEth/juno/core/felt"
	"github.com/NethermindEth/starknet-api/core/felt"
)

// Poseidon implements the two-input [Poseidon hash].
//
// [Poseidon hash]: https://docs.starknet.io/documentation/architecture_and_concepts/Cryptography/hash-functions/#poseidon_hash
func Poseidon(x, y *felt.Felt) *felt.Felt {
	h := junocrypto.Poseidon(toJuno(x), toJuno(y))
	return fromJuno(h)
}

// PoseidonArray hashes an arbitrary number of elements with the Poseidon sponge.
func PoseidonArray(elems ...*felt.Felt) *felt.Felt {
	in := make([]*junofelt.Felt, len(elems))
	for i, e := range elems {
		in[i] = toJuno(e)
	}
	return fromJuno(junocrypto.PoseidonArray(in...))
}

func toJuno(f *felt.Felt) *junofelt.Felt {
	return junofelt.NewFelt(f.Impl())
}

func fromJuno(f *junofelt.Felt) *felt.Felt {
	out := *f.Impl()
	return felt.NewFelt(&out)
}
