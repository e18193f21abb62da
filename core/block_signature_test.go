package core_test

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/NethermindEth/starknet-api/core"
	"github.com/NethermindEth/starknet-api/core/crypto"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequencer struct {
	key    *crypto.PrivateKey
	public crypto.PublicKey
}

func newSequencer(t *testing.T) sequencer {
	t.Helper()

	key, err := crypto.GeneratePrivateKey(rand.Reader)
	require.NoError(t, err)
	return sequencer{key: key, public: key.Public()}
}

func (s sequencer) signBlock(t *testing.T, blockHash, commitment *felt.Hash) core.BlockSignature {
	t.Helper()

	msg := core.BlockSignatureMessage((*felt.Felt)(blockHash), (*felt.Felt)(commitment))
	sig, err := s.key.Sign(rand.Reader, msg)
	require.NoError(t, err)
	return core.BlockSignature(sig)
}

func TestBlockSignatureMessage(t *testing.T) {
	blockHash := utils.HexToFelt(t, "0x1")
	commitment := utils.HexToFelt(t, "0x2")

	msg := core.BlockSignatureMessage(blockHash, commitment)
	assert.Equal(t, crypto.PoseidonArray(blockHash, commitment), msg)
	assert.NotEqual(t, core.BlockSignatureMessage(commitment, blockHash), msg)
	assert.NotEqual(t, crypto.Poseidon(blockHash, commitment), msg)
}

func TestVerifyBlockSignature(t *testing.T) {
	seq := newSequencer(t)
	blockHash := utils.HexTo[felt.Hash](t, "0x7d328a71faf48c5c3857e99f20a77b18522480956d1cd5bff1ff2df3c8b427b")
	commitment := utils.HexTo[felt.Hash](t, "0x64e8e1b5b2b0b5b2c3f0c7e6d6b2f6b0d6a7e3e1c1f1a2b3c4d5e6f708090a")
	sig := seq.signBlock(t, blockHash, commitment)

	t.Run("valid", func(t *testing.T) {
		ok, err := core.VerifyBlockSignature(&seq.public, &sig, commitment, blockHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("arguments swapped", func(t *testing.T) {
		ok, err := core.VerifyBlockSignature(&seq.public, &sig, blockHash, commitment)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("other key", func(t *testing.T) {
		other := newSequencer(t)
		ok, err := core.VerifyBlockSignature(&other.public, &sig, commitment, blockHash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("bit flips", func(t *testing.T) {
		for _, bit := range []int{0, 5, 64, 130, 249} {
			flipped := sig
			flipped.S = flipBit(flipped.S, bit)

			ok, err := core.VerifyBlockSignature(&seq.public, &flipped, commitment, blockHash)
			assert.False(t, ok, "bit %d", bit)
			if err != nil {
				assert.ErrorIs(t, err, &crypto.VerificationError{Kind: crypto.InvalidS}, "bit %d", bit)
			}
		}
	})

	t.Run("malformed input", func(t *testing.T) {
		bad := sig
		bad.R = felt.Zero

		ok, err := core.VerifyBlockSignature(&seq.public, &bad, commitment, blockHash)
		assert.False(t, ok)
		require.ErrorIs(t, err, &crypto.VerificationError{Kind: crypto.InvalidR, Value: felt.Zero})

		var blockErr *core.BlockSignatureVerificationError
		require.ErrorAs(t, err, &blockErr)
		assert.Equal(t, *blockHash, blockErr.BlockHash)
		assert.Contains(t, err.Error(), blockHash.String())
	})

	t.Run("custom message hash", func(t *testing.T) {
		auth := core.NewBlockAuthenticator(core.WithMessageHash(crypto.Poseidon))
		ok, err := auth.Verify(&seq.public, &sig, commitment, blockHash)
		require.NoError(t, err)
		assert.False(t, ok)

		msg := crypto.Poseidon((*felt.Felt)(blockHash), (*felt.Felt)(commitment))
		raw, err := seq.key.Sign(rand.Reader, msg)
		require.NoError(t, err)
		custom := core.BlockSignature(raw)
		ok, err = auth.Verify(&seq.public, &custom, commitment, blockHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func flipBit(f felt.Felt, bit int) felt.Felt {
	v := f.BigInt(new(big.Int))
	v.SetBit(v, bit, v.Bit(bit)^1)
	var out felt.Felt
	out.SetBigInt(v)
	return out
}

func TestVerifyBatch(t *testing.T) {
	seq := newSequencer(t)
	auth := core.NewBlockAuthenticator()

	blocks := make([]core.SignedBlock, 6)
	for i := range blocks {
		blocks[i].BlockHash = felt.Hash(felt.FromUint64(uint64(100 + i)))
		blocks[i].StateDiffCommitment = felt.Hash(felt.FromUint64(uint64(200 + i)))
		blocks[i].Signature = seq.signBlock(t, &blocks[i].BlockHash, &blocks[i].StateDiffCommitment)
	}
	blocks[2].StateDiffCommitment = felt.Hash(felt.FromUint64(1))
	blocks[4].Signature.S = felt.Zero

	results, err := auth.VerifyBatch(context.Background(), &seq.public, blocks, 3)
	require.NoError(t, err)
	require.Len(t, results, len(blocks))

	for i, result := range results {
		switch i {
		case 2:
			assert.False(t, result.Valid)
			assert.NoError(t, result.Err)
		case 4:
			assert.False(t, result.Valid)
			assert.ErrorIs(t, result.Err, &crypto.VerificationError{Kind: crypto.InvalidS})
		default:
			assert.True(t, result.Valid, "block %d", i)
			assert.NoError(t, result.Err)
		}
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := auth.VerifyBatch(ctx, &seq.public, blocks, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
