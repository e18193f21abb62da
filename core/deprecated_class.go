package core

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/encoder/opaque"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/goccy/go-json"
)

// DeprecatedContractClass is a Cairo 0 class body.
type DeprecatedContractClass struct {
	// Starknet never validated the ABI of Cairo 0 classes, an ABI that cannot be parsed is
	// dropped. A nil ABI is absent, an empty non-nil ABI is present without entries.
	ABI               []AbiEntry                              `json:"abi"`
	Program           Program                                 `json:"program"`
	EntryPointsByType EntryPointsByType[DeprecatedEntryPoint] `json:"entry_points_by_type"`
}

// Program is the compiled Cairo 0 program, kept as an opaque JSON document.
type Program struct {
	opaque.Blob
}

// ProgramFields are the top level members of a Cairo 0 program.
type ProgramFields struct {
	Attributes       json.RawMessage `json:"attributes,omitempty"`
	Builtins         json.RawMessage `json:"builtins"`
	CompilerVersion  json.RawMessage `json:"compiler_version,omitempty"`
	Data             json.RawMessage `json:"data"`
	DebugInfo        json.RawMessage `json:"debug_info"`
	Hints            json.RawMessage `json:"hints"`
	Identifiers      json.RawMessage `json:"identifiers"`
	MainScope        json.RawMessage `json:"main_scope"`
	Prime            json.RawMessage `json:"prime"`
	ReferenceManager json.RawMessage `json:"reference_manager"`
}

// NewProgram canonicalises the JSON text of a program.
func NewProgram(data []byte) (Program, error) {
	blob, err := opaque.FromJSON(data)
	if err != nil {
		return Program{}, err
	}
	return Program{Blob: blob}, nil
}

// Fields parses the program members on demand.
func (p Program) Fields() (ProgramFields, error) {
	var fields ProgramFields
	if err := p.Decode(&fields); err != nil {
		return ProgramFields{}, err
	}
	return fields, nil
}

// EntryPointOffset is the bytecode offset of a Cairo 0 entry point. JSON accepts a number or a
// hex string and always emits a hex string.
type EntryPointOffset uint64

func (o EntryPointOffset) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + strconv.FormatUint(uint64(o), 16) + `"`), nil
}

func (o *EntryPointOffset) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(strings.TrimPrefix(unquoted, "0x"), 16, 64)
		if err != nil {
			return compact.NewRangeError(unquoted, err)
		}
		*o = EntryPointOffset(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return compact.NewRangeError(n.String(), err)
	}
	*o = EntryPointOffset(v)
	return nil
}

// DeprecatedEntryPoint of a Cairo 0 class.
type DeprecatedEntryPoint struct {
	Selector felt.Felt        `json:"selector"`
	Offset   EntryPointOffset `json:"offset"`
}

func writeDeprecatedEntryPoint(w *compact.Writer, ep DeprecatedEntryPoint) {
	w.WriteFelt(ep.Selector)
	w.WriteUint64(uint64(ep.Offset))
}

func readDeprecatedEntryPoint(r *compact.Reader) (DeprecatedEntryPoint, error) {
	selector, err := r.ReadFelt()
	if err != nil {
		return DeprecatedEntryPoint{}, compact.Field("selector", err)
	}
	offset, err := r.ReadUint64()
	if err != nil {
		return DeprecatedEntryPoint{}, compact.Field("offset", err)
	}
	return DeprecatedEntryPoint{Selector: selector, Offset: EntryPointOffset(offset)}, nil
}

// EncodeCompact writes the optional ABI, the program blob and the entry points by type.
func (c *DeprecatedContractClass) EncodeCompact(w *compact.Writer) {
	w.WriteBool(c.ABI != nil)
	if c.ABI != nil {
		compact.WriteSequence(w, c.ABI, writeAbiEntry)
	}
	c.Program.EncodeCompact(w)
	writeEntryPoints(w, &c.EntryPointsByType, writeDeprecatedEntryPoint)
}

func (c *DeprecatedContractClass) DecodeCompact(r *compact.Reader) error {
	hasABI, err := r.ReadBool()
	if err != nil {
		return compact.Field("abi", err)
	}

	var abi []AbiEntry
	if hasABI {
		if abi, err = compact.ReadSequence(r, readAbiEntry); err != nil {
			return compact.Field("abi", err)
		}
	}

	var program Program
	if err = program.DecodeCompact(r); err != nil {
		return compact.Field("program", err)
	}

	entryPoints, err := readEntryPoints(r, readDeprecatedEntryPoint)
	if err != nil {
		return compact.Field("entry_points_by_type", err)
	}

	*c = DeprecatedContractClass{
		ABI:               abi,
		Program:           program,
		EntryPointsByType: entryPoints,
	}
	return nil
}

func (c *DeprecatedContractClass) UnmarshalJSON(data []byte) error {
	var raw struct {
		ABI               json.RawMessage                         `json:"abi"`
		Program           Program                                 `json:"program"`
		EntryPointsByType EntryPointsByType[DeprecatedEntryPoint] `json:"entry_points_by_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = DeprecatedContractClass{
		ABI:               parseAbi(raw.ABI),
		Program:           raw.Program,
		EntryPointsByType: raw.EntryPointsByType,
	}
	return nil
}

func entryPointOffsetFromBig(v *big.Int) (EntryPointOffset, error) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, compact.NewRangeError(v.String(), nil)
	}
	return EntryPointOffset(v.Uint64()), nil
}

// NewDeprecatedEntryPoint builds an entry point from the big integer selector and offset of a
// compiled (CASM) entry point.
func NewDeprecatedEntryPoint(selector *big.Int, offset *big.Int) (DeprecatedEntryPoint, error) {
	if selector.Sign() < 0 || selector.Cmp(fp.Modulus()) >= 0 {
		return DeprecatedEntryPoint{}, compact.NewRangeError("0x"+selector.Text(16), nil)
	}
	o, err := entryPointOffsetFromBig(offset)
	if err != nil {
		return DeprecatedEntryPoint{}, fmt.Errorf("entry point offset: %w", err)
	}

	var ep DeprecatedEntryPoint
	ep.Selector.SetBigInt(selector)
	ep.Offset = o
	return ep, nil
}
