package core

import (
	"math/big"

	"github.com/NethermindEth/starknet-api/core/crypto"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
)

var (
	// patriciaKeyUpperBound is 2^251, contract addresses and storage keys are below it
	patriciaKeyUpperBound = new(big.Int).Lsh(big.NewInt(1), 251)
	// l2AddressUpperBound is 2^251 - 256, computed contract addresses are reduced modulo it
	l2AddressUpperBound = new(big.Int).Sub(patriciaKeyUpperBound, big.NewInt(256))

	contractAddressPrefix = new(felt.Felt).SetBytes([]byte("STARKNET_CONTRACT_ADDRESS"))
)

func checkPatriciaKey[F felt.FeltLike](v F) error {
	f := felt.Felt(v)
	if f.BigInt(new(big.Int)).Cmp(patriciaKeyUpperBound) >= 0 {
		return compact.NewRangeError(f.String(), nil)
	}
	return nil
}

// NewContractAddress fails with a RangeError when v is not below 2^251.
func NewContractAddress(v *felt.Felt) (felt.Address, error) {
	if err := checkPatriciaKey(*v); err != nil {
		return felt.Address{}, err
	}
	return felt.Address(*v), nil
}

// NewStorageKey fails with a RangeError when v is not below 2^251.
func NewStorageKey(v *felt.Felt) (felt.StorageKey, error) {
	if err := checkPatriciaKey(*v); err != nil {
		return felt.StorageKey{}, err
	}
	return felt.StorageKey(*v), nil
}

// CalculateContractAddress computes the address of a contract deployed by deployer.
// https://docs.starknet.io/architecture-and-concepts/smart-contracts/contract-address/
func CalculateContractAddress(salt *felt.Felt, classHash *felt.ClassHash, constructorCallData []*felt.Felt,
	deployer *felt.Address,
) felt.Address {
	callDataHash := crypto.PedersenArray(constructorCallData...)
	h := crypto.PedersenArray(
		contractAddressPrefix,
		(*felt.Felt)(deployer),
		salt,
		(*felt.Felt)(classHash),
		callDataHash,
	)

	v := h.BigInt(new(big.Int))
	v.Mod(v, l2AddressUpperBound)

	var addr felt.Felt
	addr.SetBigInt(v)
	return felt.Address(addr)
}

func readContractAddress(r *compact.Reader) (felt.Address, error) {
	addr, err := compact.ReadFeltLike[felt.Address](r)
	if err != nil {
		return addr, err
	}
	return addr, checkPatriciaKey(addr)
}

func readStorageKey(r *compact.Reader) (felt.StorageKey, error) {
	key, err := compact.ReadFeltLike[felt.StorageKey](r)
	if err != nil {
		return key, err
	}
	return key, checkPatriciaKey(key)
}
