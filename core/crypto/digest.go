package crypto

import "github.com/NethermindEth/starknet-api/core/felt"

type Digest interface {
	Update(...*felt.Felt) Digest
	Finish() *felt.Felt
}
