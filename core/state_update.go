package core

import (
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
)

// StateUpdate is the state transition of a block, from OldRoot to NewRoot.
type StateUpdate struct {
	BlockHash felt.Hash `json:"block_hash"`
	NewRoot   felt.Hash `json:"new_root"`
	OldRoot   felt.Hash `json:"old_root"`
	StateDiff StateDiff `json:"state_diff"`
}

// ThinStateUpdate is a StateUpdate whose diff was reduced to its thin form.
type ThinStateUpdate struct {
	BlockHash felt.Hash     `json:"block_hash"`
	NewRoot   felt.Hash     `json:"new_root"`
	OldRoot   felt.Hash     `json:"old_root"`
	StateDiff ThinStateDiff `json:"state_diff"`
}

// Reduce splits the update into its thin form and the bodies of the classes it declares.
// The update must not be used afterwards.
func (u *StateUpdate) Reduce() (ThinStateUpdate, DeclaredClasses, DeprecatedDeclaredClasses) {
	thin, declared, deprecated := NewThinStateDiff(u.StateDiff)
	return ThinStateUpdate{
		BlockHash: u.BlockHash,
		NewRoot:   u.NewRoot,
		OldRoot:   u.OldRoot,
		StateDiff: thin,
	}, declared, deprecated
}

// EncodeCompact writes block_hash, new_root, old_root and then the thin diff.
func (u *ThinStateUpdate) EncodeCompact(w *compact.Writer) {
	compact.WriteFeltLike(w, u.BlockHash)
	compact.WriteFeltLike(w, u.NewRoot)
	compact.WriteFeltLike(w, u.OldRoot)
	u.StateDiff.EncodeCompact(w)
}

func (u *ThinStateUpdate) DecodeCompact(r *compact.Reader) error {
	var (
		out ThinStateUpdate
		err error
	)
	if out.BlockHash, err = compact.ReadFeltLike[felt.Hash](r); err != nil {
		return compact.Field("block_hash", err)
	}
	if out.NewRoot, err = compact.ReadFeltLike[felt.Hash](r); err != nil {
		return compact.Field("new_root", err)
	}
	if out.OldRoot, err = compact.ReadFeltLike[felt.Hash](r); err != nil {
		return compact.Field("old_root", err)
	}
	if err = out.StateDiff.DecodeCompact(r); err != nil {
		return compact.Field("state_diff", err)
	}

	*u = out
	return nil
}

// StateNumber identifies a state: StateNumber(n) is the state right before block n, which is also
// the state right after block n-1.
type StateNumber uint64

func RightBeforeBlock(n BlockNumber) StateNumber {
	return StateNumber(n)
}

func RightAfterBlock(n BlockNumber) StateNumber {
	return StateNumber(n.Next())
}

// IsBefore reports whether block n was not yet applied to the state.
func (s StateNumber) IsBefore(n BlockNumber) bool {
	return uint64(s) <= uint64(n)
}

// IsAfter reports whether block n was already applied to the state.
func (s StateNumber) IsAfter(n BlockNumber) bool {
	return !s.IsBefore(n)
}

// BlockAfter is the first block not applied to the state.
func (s StateNumber) BlockAfter() BlockNumber {
	return BlockNumber(s)
}
