package core

import (
	"bytes"
	"fmt"

	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/goccy/go-json"
)

// AbiEntry is one entry of a Cairo 0 ABI: *EventAbiEntry, *FunctionAbiEntry or *StructAbiEntry.
type AbiEntry interface {
	AbiEntryKind() AbiEntryKind
}

type AbiEntryKind uint8

const (
	AbiEvent AbiEntryKind = iota
	AbiFunction
	AbiStruct
)

var AbiEntryKindTable = NewDiscriminantTable("abi entry kind", 1,
	Discriminant[AbiEntryKind]{Value: AbiEvent, Tag: 0, Name: "event"},
	Discriminant[AbiEntryKind]{Value: AbiFunction, Tag: 1, Name: "function"},
	Discriminant[AbiEntryKind]{Value: AbiStruct, Tag: 2, Name: "struct"},
)

type FunctionAbiEntryType uint8

const (
	FunctionAbiFunction FunctionAbiEntryType = iota
	FunctionAbiConstructor
	FunctionAbiL1Handler
)

var FunctionAbiEntryTypeTable = NewDiscriminantTable("function abi entry type", 1,
	Discriminant[FunctionAbiEntryType]{Value: FunctionAbiConstructor, Tag: 0, Name: "constructor"},
	Discriminant[FunctionAbiEntryType]{Value: FunctionAbiL1Handler, Tag: 1, Name: "l1_handler"},
	Discriminant[FunctionAbiEntryType]{Value: FunctionAbiFunction, Tag: 2, Name: "function"},
)

func (t FunctionAbiEntryType) MarshalText() ([]byte, error) {
	return FunctionAbiEntryTypeTable.MarshalText(t)
}

func (t *FunctionAbiEntryType) UnmarshalText(text []byte) error {
	v, err := FunctionAbiEntryTypeTable.UnmarshalText(text)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type FunctionStateMutability uint8

const (
	View FunctionStateMutability = iota
)

var FunctionStateMutabilityTable = NewDiscriminantTable("function state mutability", 1,
	Discriminant[FunctionStateMutability]{Value: View, Tag: 0, Name: "view"},
)

func (m FunctionStateMutability) MarshalText() ([]byte, error) {
	return FunctionStateMutabilityTable.MarshalText(m)
}

func (m *FunctionStateMutability) UnmarshalText(text []byte) error {
	v, err := FunctionStateMutabilityTable.UnmarshalText(text)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

type TypedParameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type EventAbiEntry struct {
	Name string           `json:"name"`
	Keys []TypedParameter `json:"keys"`
	Data []TypedParameter `json:"data"`
}

func (*EventAbiEntry) AbiEntryKind() AbiEntryKind { return AbiEvent }

func (e *EventAbiEntry) MarshalJSON() ([]byte, error) {
	type plain EventAbiEntry
	out := plain{Name: e.Name, Keys: nonNil(e.Keys), Data: nonNil(e.Data)}
	return withType("event", &out)
}

type FunctionAbiEntry struct {
	Type            FunctionAbiEntryType     `json:"type"`
	Name            string                   `json:"name"`
	Inputs          []TypedParameter         `json:"inputs"`
	Outputs         []TypedParameter         `json:"outputs"`
	StateMutability *FunctionStateMutability `json:"stateMutability,omitempty"`
}

func (*FunctionAbiEntry) AbiEntryKind() AbiEntryKind { return AbiFunction }

func (e *FunctionAbiEntry) MarshalJSON() ([]byte, error) {
	type plain FunctionAbiEntry
	out := plain(*e)
	out.Inputs, out.Outputs = nonNil(e.Inputs), nonNil(e.Outputs)
	return json.Marshal(&out)
}

type StructMember struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset uint64 `json:"offset"`
}

type StructAbiEntry struct {
	Name    string         `json:"name"`
	Size    uint64         `json:"size"`
	Members []StructMember `json:"members"`
}

func (*StructAbiEntry) AbiEntryKind() AbiEntryKind { return AbiStruct }

func (s *StructAbiEntry) MarshalJSON() ([]byte, error) {
	type plain StructAbiEntry
	out := plain{Name: s.Name, Size: s.Size, Members: nonNil(s.Members)}
	return withType("struct", &out)
}

// nonNil keeps empty parameter lists as [] in JSON.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// withType prepends a "type" member to the JSON object of v.
func withType(typ string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimPrefix(body, []byte("{"))

	out := make([]byte, 0, len(body)+len(typ)+12)
	out = append(out, `{"type":"`...)
	out = append(out, typ...)
	out = append(out, '"')
	if len(body) > 1 {
		out = append(out, ',')
	}
	return append(out, body...), nil
}

type abiEntryJSON struct {
	Type            string                   `json:"type"`
	Name            *string                  `json:"name"`
	Keys            json.RawMessage          `json:"keys"`
	Data            json.RawMessage          `json:"data"`
	Inputs          json.RawMessage          `json:"inputs"`
	Outputs         json.RawMessage          `json:"outputs"`
	Size            *uint64                  `json:"size"`
	Members         json.RawMessage          `json:"members"`
	StateMutability *FunctionStateMutability `json:"stateMutability"`
}

// abiList decodes a list member of an ABI entry. A missing member is an error, null reads as empty.
func abiList[T any](entry, member string, raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: missing %s", entry, member)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", entry, member, err)
	}
	return nonNil(items), nil
}

// parseAbi returns nil when raw is absent, null or not a valid Cairo 0 ABI.
func parseAbi(raw json.RawMessage) []AbiEntry {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}

	var items []abiEntryJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	entries := make([]AbiEntry, 0, len(items))
	for i := range items {
		entry, err := items[i].entry()
		if err != nil {
			return nil
		}
		entries = append(entries, entry)
	}
	return entries
}

func (e *abiEntryJSON) entry() (AbiEntry, error) {
	if e.Name == nil {
		return nil, fmt.Errorf("abi entry without a name")
	}

	switch {
	case e.Type == "event" || e.Type == "" && e.Keys != nil && e.Data != nil:
		keys, err := abiList[TypedParameter]("event "+*e.Name, "keys", e.Keys)
		if err != nil {
			return nil, err
		}
		data, err := abiList[TypedParameter]("event "+*e.Name, "data", e.Data)
		if err != nil {
			return nil, err
		}
		return &EventAbiEntry{Name: *e.Name, Keys: keys, Data: data}, nil
	case e.Type == "struct" || e.Type == "" && e.Members != nil:
		if e.Size == nil {
			return nil, fmt.Errorf("struct %s: missing size", *e.Name)
		}
		members, err := abiList[StructMember]("struct "+*e.Name, "members", e.Members)
		if err != nil {
			return nil, err
		}
		return &StructAbiEntry{Name: *e.Name, Size: *e.Size, Members: members}, nil
	default:
		var typ FunctionAbiEntryType
		if err := typ.UnmarshalText([]byte(e.Type)); err != nil {
			return nil, err
		}
		inputs, err := abiList[TypedParameter]("function "+*e.Name, "inputs", e.Inputs)
		if err != nil {
			return nil, err
		}
		outputs, err := abiList[TypedParameter]("function "+*e.Name, "outputs", e.Outputs)
		if err != nil {
			return nil, err
		}
		return &FunctionAbiEntry{
			Type:            typ,
			Name:            *e.Name,
			Inputs:          inputs,
			Outputs:         outputs,
			StateMutability: e.StateMutability,
		}, nil
	}
}

func writeTypedParameter(w *compact.Writer, p TypedParameter) {
	w.WriteString(p.Name)
	w.WriteString(p.Type)
}

func readTypedParameter(r *compact.Reader) (TypedParameter, error) {
	name, err := r.ReadString()
	if err != nil {
		return TypedParameter{}, compact.Field("name", err)
	}
	typ, err := r.ReadString()
	if err != nil {
		return TypedParameter{}, compact.Field("type", err)
	}
	return TypedParameter{Name: name, Type: typ}, nil
}

func writeStructMember(w *compact.Writer, m StructMember) {
	w.WriteString(m.Name)
	w.WriteString(m.Type)
	w.WriteUint64(m.Offset)
}

func readStructMember(r *compact.Reader) (StructMember, error) {
	param, err := readTypedParameter(r)
	if err != nil {
		return StructMember{}, err
	}
	offset, err := r.ReadUint64()
	if err != nil {
		return StructMember{}, compact.Field("offset", err)
	}
	return StructMember{Name: param.Name, Type: param.Type, Offset: offset}, nil
}

func writeAbiEntry(w *compact.Writer, entry AbiEntry) {
	AbiEntryKindTable.Write(w, entry.AbiEntryKind())
	switch e := entry.(type) {
	case *EventAbiEntry:
		w.WriteString(e.Name)
		compact.WriteSequence(w, e.Keys, writeTypedParameter)
		compact.WriteSequence(w, e.Data, writeTypedParameter)
	case *FunctionAbiEntry:
		FunctionAbiEntryTypeTable.Write(w, e.Type)
		w.WriteString(e.Name)
		compact.WriteSequence(w, e.Inputs, writeTypedParameter)
		compact.WriteSequence(w, e.Outputs, writeTypedParameter)
		w.WriteBool(e.StateMutability != nil)
		if e.StateMutability != nil {
			FunctionStateMutabilityTable.Write(w, *e.StateMutability)
		}
	case *StructAbiEntry:
		w.WriteString(e.Name)
		w.WriteUint64(e.Size)
		compact.WriteSequence(w, e.Members, writeStructMember)
	default:
		panic(fmt.Sprintf("unknown abi entry %T", entry))
	}
}

func readAbiEntry(r *compact.Reader) (AbiEntry, error) {
	kind, err := AbiEntryKindTable.Read(r)
	if err != nil {
		return nil, err
	}

	switch kind {
	case AbiEvent:
		return readEventAbiEntry(r)
	case AbiFunction:
		return readFunctionAbiEntry(r)
	default:
		return readStructAbiEntry(r)
	}
}

func readEventAbiEntry(r *compact.Reader) (*EventAbiEntry, error) {
	var (
		e   EventAbiEntry
		err error
	)
	if e.Name, err = r.ReadString(); err != nil {
		return nil, compact.Field("name", err)
	}
	if e.Keys, err = compact.ReadSequence(r, readTypedParameter); err != nil {
		return nil, compact.Field("keys", err)
	}
	if e.Data, err = compact.ReadSequence(r, readTypedParameter); err != nil {
		return nil, compact.Field("data", err)
	}
	return &e, nil
}

func readFunctionAbiEntry(r *compact.Reader) (*FunctionAbiEntry, error) {
	var (
		e   FunctionAbiEntry
		err error
	)
	if e.Type, err = FunctionAbiEntryTypeTable.Read(r); err != nil {
		return nil, compact.Field("type", err)
	}
	if e.Name, err = r.ReadString(); err != nil {
		return nil, compact.Field("name", err)
	}
	if e.Inputs, err = compact.ReadSequence(r, readTypedParameter); err != nil {
		return nil, compact.Field("inputs", err)
	}
	if e.Outputs, err = compact.ReadSequence(r, readTypedParameter); err != nil {
		return nil, compact.Field("outputs", err)
	}

	hasMutability, err := r.ReadBool()
	if err != nil {
		return nil, compact.Field("state_mutability", err)
	}
	if hasMutability {
		m, err := FunctionStateMutabilityTable.Read(r)
		if err != nil {
			return nil, compact.Field("state_mutability", err)
		}
		e.StateMutability = &m
	}
	return &e, nil
}

func readStructAbiEntry(r *compact.Reader) (*StructAbiEntry, error) {
	var (
		e   StructAbiEntry
		err error
	)
	if e.Name, err = r.ReadString(); err != nil {
		return nil, compact.Field("name", err)
	}
	if e.Size, err = r.ReadUint64(); err != nil {
		return nil, compact.Field("size", err)
	}
	if e.Members, err = compact.ReadSequence(r, readStructMember); err != nil {
		return nil, compact.Field("members", err)
	}
	return &e, nil
}
