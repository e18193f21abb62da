package core

import (
	"context"
	"fmt"

	"github.com/NethermindEth/starknet-api/core/crypto"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sourcegraph/conc/pool"
)

// BlockSignature is the sequencer's signature over a block.
type BlockSignature crypto.Signature

// BlockSignatureVerificationError reports a block whose signature inputs were malformed.
type BlockSignatureVerificationError struct {
	BlockHash felt.Hash
	Err       error
}

func (e *BlockSignatureVerificationError) Error() string {
	return fmt.Sprintf("verify signature of block %s: %v", e.BlockHash, e.Err)
}

func (e *BlockSignatureVerificationError) Unwrap() error {
	return e.Err
}

var signatureVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "starknet_api",
	Name:      "block_signature_verifications_total",
	Help:      "Block signature verifications by outcome",
}, []string{"outcome"})

// MessageHash folds a block hash and a state diff commitment into the signed message.
type MessageHash func(blockHash, stateDiffCommitment *felt.Felt) *felt.Felt

// BlockSignatureMessage is the Poseidon hash of [block_hash, state_diff_commitment].
func BlockSignatureMessage(blockHash, stateDiffCommitment *felt.Felt) *felt.Felt {
	return crypto.PoseidonArray(blockHash, stateDiffCommitment)
}

// BlockAuthenticator checks sequencer signatures over blocks.
type BlockAuthenticator struct {
	messageHash MessageHash
}

type AuthenticatorOption func(*BlockAuthenticator)

// WithMessageHash replaces the function computing the signed message.
func WithMessageHash(h MessageHash) AuthenticatorOption {
	return func(a *BlockAuthenticator) {
		a.messageHash = h
	}
}

func NewBlockAuthenticator(opts ...AuthenticatorOption) *BlockAuthenticator {
	a := &BlockAuthenticator{messageHash: BlockSignatureMessage}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Verify returns false without error when the signature is well-formed but was not made by
// pubKey over this block. Malformed inputs return a *BlockSignatureVerificationError wrapping a
// *crypto.VerificationError.
func (a *BlockAuthenticator) Verify(pubKey *crypto.PublicKey, signature *BlockSignature,
	stateDiffCommitment, blockHash *felt.Hash,
) (bool, error) {
	msg := a.messageHash((*felt.Felt)(blockHash), (*felt.Felt)(stateDiffCommitment))

	ok, err := pubKey.Verify((*crypto.Signature)(signature), msg)
	switch {
	case err != nil:
		signatureVerifications.WithLabelValues("error").Inc()
		return false, &BlockSignatureVerificationError{BlockHash: *blockHash, Err: err}
	case ok:
		signatureVerifications.WithLabelValues("valid").Inc()
	default:
		signatureVerifications.WithLabelValues("invalid").Inc()
	}
	return ok, nil
}

var defaultAuthenticator = NewBlockAuthenticator()

// VerifyBlockSignature verifies signature over the block with the default message hash.
func VerifyBlockSignature(pubKey *crypto.PublicKey, signature *BlockSignature,
	stateDiffCommitment, blockHash *felt.Hash,
) (bool, error) {
	return defaultAuthenticator.Verify(pubKey, signature, stateDiffCommitment, blockHash)
}

// SignedBlock is one item of a batch verification.
type SignedBlock struct {
	BlockHash           felt.Hash      `json:"block_hash"`
	StateDiffCommitment felt.Hash      `json:"state_diff_commitment"`
	Signature           BlockSignature `json:"signature"`
}

// BlockVerification is the outcome of verifying one SignedBlock.
type BlockVerification struct {
	Valid bool
	Err   error
}

// VerifyBatch verifies blocks on at most maxGoroutines goroutines. results[i] belongs to blocks[i].
// Cancelling ctx stops items that have not started yet, the returned error is then ctx's error.
func (a *BlockAuthenticator) VerifyBatch(ctx context.Context, pubKey *crypto.PublicKey,
	blocks []SignedBlock, maxGoroutines int,
) ([]BlockVerification, error) {
	if maxGoroutines < 1 {
		maxGoroutines = 1
	}

	results := make([]BlockVerification, len(blocks))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(maxGoroutines)
	for i := range blocks {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &blocks[i]
			valid, err := a.Verify(pubKey, &b.Signature, &b.StateDiffCommitment, &b.BlockHash)
			results[i] = BlockVerification{Valid: valid, Err: err}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
