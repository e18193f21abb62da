package core

import (
	"fmt"

	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/utils"
)

// Builtin is a Cairo VM builtin whose usage is metered.
type Builtin uint8

const (
	RangeCheck Builtin = iota
	Pedersen
	Poseidon
	EcOp
	Ecdsa
	Bitwise
	Keccak
	SegmentArena
)

var BuiltinTable = NewDiscriminantTable("builtin", 1,
	Discriminant[Builtin]{Value: RangeCheck, Tag: 0, Name: "range_check_builtin_applications"},
	Discriminant[Builtin]{Value: Pedersen, Tag: 1, Name: "pedersen_builtin_applications"},
	Discriminant[Builtin]{Value: Poseidon, Tag: 2, Name: "poseidon_builtin_applications"},
	Discriminant[Builtin]{Value: EcOp, Tag: 3, Name: "ec_op_builtin_applications"},
	Discriminant[Builtin]{Value: Ecdsa, Tag: 4, Name: "ecdsa_builtin_applications"},
	Discriminant[Builtin]{Value: Bitwise, Tag: 5, Name: "bitwise_builtin_applications"},
	Discriminant[Builtin]{Value: Keccak, Tag: 6, Name: "keccak_builtin_applications"},
	Discriminant[Builtin]{Value: SegmentArena, Tag: 7, Name: "segment_arena_builtin"},
)

func (b Builtin) String() string {
	if name, ok := BuiltinTable.Name(b); ok {
		return name
	}
	return fmt.Sprintf("Builtin(%d)", uint8(b))
}

func (b Builtin) MarshalText() ([]byte, error) {
	return BuiltinTable.MarshalText(b)
}

func (b *Builtin) UnmarshalText(text []byte) error {
	v, err := BuiltinTable.UnmarshalText(text)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ExecutionResources is the Cairo VM usage of a transaction.
type ExecutionResources struct {
	Steps                  uint64                            `json:"n_steps"`
	BuiltinInstanceCounter utils.OrderedMap[Builtin, uint64] `json:"builtin_instance_counter"`
	MemoryHoles            uint64                            `json:"n_memory_holes"`
}

func (e *ExecutionResources) EncodeCompact(w *compact.Writer) {
	w.WriteUint(e.Steps)
	compact.WriteMap(w, &e.BuiltinInstanceCounter, func(w *compact.Writer, b Builtin, count uint64) {
		BuiltinTable.Write(w, b)
		w.WriteUint(count)
	})
	w.WriteUint(e.MemoryHoles)
}

func (e *ExecutionResources) DecodeCompact(r *compact.Reader) error {
	var (
		out ExecutionResources
		err error
	)
	if out.Steps, err = r.ReadUint(); err != nil {
		return compact.Field("n_steps", err)
	}
	out.BuiltinInstanceCounter, err = compact.ReadMap(r, func(r *compact.Reader) (Builtin, uint64, error) {
		b, err := BuiltinTable.Read(r)
		if err != nil {
			return b, 0, err
		}
		count, err := r.ReadUint()
		return b, count, compact.Field(b.String(), err)
	})
	if err != nil {
		return compact.Field("builtin_instance_counter", err)
	}
	if out.MemoryHoles, err = r.ReadUint(); err != nil {
		return compact.Field("n_memory_holes", err)
	}

	*e = out
	return nil
}
