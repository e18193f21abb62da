package core

import (
	"fmt"
	"iter"

	"github.com/NethermindEth/starknet-api/core/felt"
)

// BlockNumber is the height of a block, genesis being 0.
type BlockNumber uint64

func (n BlockNumber) Next() BlockNumber {
	return n + 1
}

// Prev returns the previous block number, ok is false for the genesis block.
func (n BlockNumber) Prev() (BlockNumber, bool) {
	if n == 0 {
		return 0, false
	}
	return n - 1, true
}

// IterUpTo yields the block numbers in [n, end).
func (n BlockNumber) IterUpTo(end BlockNumber) iter.Seq[BlockNumber] {
	return func(yield func(BlockNumber) bool) {
		for i := n; i < end; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// BlockTimestamp is the time, in seconds since the epoch, at which the sequencer started the block.
type BlockTimestamp uint64

type BlockStatus uint8

const (
	AcceptedOnL2 BlockStatus = iota
	Pending
	AcceptedOnL1
	Rejected
)

var BlockStatusTable = NewDiscriminantTable("block status", 1,
	Discriminant[BlockStatus]{Value: Pending, Tag: 0, Name: "PENDING"},
	Discriminant[BlockStatus]{Value: AcceptedOnL2, Tag: 1, Name: "ACCEPTED_ON_L2"},
	Discriminant[BlockStatus]{Value: AcceptedOnL1, Tag: 2, Name: "ACCEPTED_ON_L1"},
	Discriminant[BlockStatus]{Value: Rejected, Tag: 3, Name: "REJECTED"},
)

func (s BlockStatus) String() string {
	if name, ok := BlockStatusTable.Name(s); ok {
		return name
	}
	return fmt.Sprintf("BlockStatus(%d)", uint8(s))
}

func (s BlockStatus) MarshalText() ([]byte, error) {
	return BlockStatusTable.MarshalText(s)
}

func (s *BlockStatus) UnmarshalText(text []byte) error {
	v, err := BlockStatusTable.UnmarshalText(text)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// L1DAMode is the way a block publishes its state diff on L1.
type L1DAMode uint8

const (
	Calldata L1DAMode = iota
	Blob
)

var L1DAModeTable = NewDiscriminantTable("l1 data availability mode", 1,
	Discriminant[L1DAMode]{Value: Calldata, Tag: 0, Name: "CALLDATA"},
	Discriminant[L1DAMode]{Value: Blob, Tag: 1, Name: "BLOB"},
)

func (m L1DAMode) String() string {
	if name, ok := L1DAModeTable.Name(m); ok {
		return name
	}
	return fmt.Sprintf("L1DAMode(%d)", uint8(m))
}

func (m L1DAMode) MarshalText() ([]byte, error) {
	return L1DAModeTable.MarshalText(m)
}

func (m *L1DAMode) UnmarshalText(text []byte) error {
	v, err := L1DAModeTable.UnmarshalText(text)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

type GasPricePerToken struct {
	PriceInFri GasPrice `json:"price_in_fri" cbor:"1,keyasint"`
	PriceInWei GasPrice `json:"price_in_wei" cbor:"2,keyasint"`
}

// BlockHeader carries everything about a block except its transactions and state diff.
type BlockHeader struct {
	BlockHash  felt.Hash   `json:"block_hash" cbor:"1,keyasint"`
	ParentHash felt.Hash   `json:"parent_hash" cbor:"2,keyasint"`
	Number     BlockNumber `json:"block_number" cbor:"3,keyasint"`
	// Prices of a unit of L1 gas and of L1 data gas
	L1GasPrice     GasPricePerToken `json:"l1_gas_price" cbor:"4,keyasint"`
	L1DataGasPrice GasPricePerToken `json:"l1_data_gas_price" cbor:"5,keyasint"`
	// The global state root after this block
	StateRoot        felt.Hash      `json:"state_root" cbor:"6,keyasint"`
	SequencerAddress felt.Address   `json:"sequencer_address" cbor:"7,keyasint"`
	Timestamp        BlockTimestamp `json:"timestamp" cbor:"8,keyasint"`
	L1DAMode         L1DAMode       `json:"l1_da_mode" cbor:"9,keyasint"`
	// Commitments are absent for blocks older than Starknet 0.13.2
	StateDiffCommitment   *felt.Hash      `json:"state_diff_commitment,omitempty" cbor:"10,keyasint,omitempty"`
	TransactionCommitment *felt.Hash      `json:"transaction_commitment,omitempty" cbor:"11,keyasint,omitempty"`
	EventCommitment       *felt.Hash      `json:"event_commitment,omitempty" cbor:"12,keyasint,omitempty"`
	TransactionCount      uint64          `json:"n_transactions" cbor:"13,keyasint"`
	EventCount            uint64          `json:"n_events" cbor:"14,keyasint"`
	StarknetVersion       StarknetVersion `json:"starknet_version" cbor:"15,keyasint"`
}
