package core

import (
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
)

// ContractClass is a Sierra (Cairo 1) class body.
type ContractClass struct {
	SierraProgram     []felt.Felt                   `json:"sierra_program"`
	EntryPointsByType EntryPointsByType[EntryPoint] `json:"entry_point_by_type"`
	ABI               string                        `json:"abi"`
}

// FunctionIndex is the position of a function in the Sierra program.
type FunctionIndex uint64

// EntryPoint of a Sierra class.
type EntryPoint struct {
	FunctionIdx FunctionIndex `json:"function_idx"`
	Selector    felt.Felt     `json:"selector"`
}

func writeEntryPoint(w *compact.Writer, ep EntryPoint) {
	w.WriteUint64(uint64(ep.FunctionIdx))
	w.WriteFelt(ep.Selector)
}

func readEntryPoint(r *compact.Reader) (EntryPoint, error) {
	idx, err := r.ReadUint64()
	if err != nil {
		return EntryPoint{}, compact.Field("function_idx", err)
	}
	selector, err := r.ReadFelt()
	if err != nil {
		return EntryPoint{}, compact.Field("selector", err)
	}
	return EntryPoint{FunctionIdx: FunctionIndex(idx), Selector: selector}, nil
}

// EncodeCompact writes the program, the entry points by type and the ABI text, in that order.
func (c *ContractClass) EncodeCompact(w *compact.Writer) {
	compact.WriteSequence(w, c.SierraProgram, (*compact.Writer).WriteFelt)
	writeEntryPoints(w, &c.EntryPointsByType, writeEntryPoint)
	w.WriteString(c.ABI)
}

func (c *ContractClass) DecodeCompact(r *compact.Reader) error {
	program, err := compact.ReadSequence(r, (*compact.Reader).ReadFelt)
	if err != nil {
		return compact.Field("sierra_program", err)
	}
	entryPoints, err := readEntryPoints(r, readEntryPoint)
	if err != nil {
		return compact.Field("entry_point_by_type", err)
	}
	abi, err := r.ReadString()
	if err != nil {
		return compact.Field("abi", err)
	}

	*c = ContractClass{
		SierraProgram:     program,
		EntryPointsByType: entryPoints,
		ABI:               abi,
	}
	return nil
}
