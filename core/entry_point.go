package core

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/NethermindEth/starknet-api/core/crypto"
	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/goccy/go-json"
)

// EntryPointType distinguishes the three kinds of class entry points. The zero value is External,
// the type assumed when none is given.
type EntryPointType uint8

const (
	External EntryPointType = iota
	Constructor
	L1Handler
)

// EntryPointTypeTable fixes the wire tags and interchange names of EntryPointType. Tags must never
// change once a version is published.
var EntryPointTypeTable = NewDiscriminantTable("entry point type", 1,
	Discriminant[EntryPointType]{Value: Constructor, Tag: 0, Name: "CONSTRUCTOR"},
	Discriminant[EntryPointType]{Value: External, Tag: 1, Name: "EXTERNAL"},
	Discriminant[EntryPointType]{Value: L1Handler, Tag: 2, Name: "L1_HANDLER"},
)

func (t EntryPointType) String() string {
	if name, ok := EntryPointTypeTable.Name(t); ok {
		return name
	}
	return fmt.Sprintf("EntryPointType(%d)", uint8(t))
}

func (t EntryPointType) MarshalText() ([]byte, error) {
	return EntryPointTypeTable.MarshalText(t)
}

func (t *EntryPointType) UnmarshalText(text []byte) error {
	v, err := EntryPointTypeTable.UnmarshalText(text)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// SelectorFromName returns the entry point selector of a function name.
func SelectorFromName(name string) felt.Felt {
	return crypto.StarknetKeccak([]byte(name))
}

var (
	DefaultEntryPointSelector   = SelectorFromName("__default__")
	DefaultL1EntryPointSelector = SelectorFromName("__l1_default__")
	ConstructorSelector         = SelectorFromName("constructor")
)

// EntryPointsByType maps entry point types to their entry points, keeping insertion order.
type EntryPointsByType[E any] struct {
	utils.OrderedMap[EntryPointType, []E]
}

// MarshalJSON emits the types in iteration order.
func (m EntryPointsByType[E]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for t, entryPoints := range m.All() {
		name, err := t.MarshalText()
		if err != nil {
			return nil, err
		}
		if entryPoints == nil {
			entryPoints = []E{}
		}
		raw, err := json.Marshal(entryPoints)
		if err != nil {
			return nil, err
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(strconv.Quote(string(name)))
		buf.WriteByte(':')
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON inserts the types in tag order since JSON objects carry no order.
func (m *EntryPointsByType[E]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for name := range raw {
		if _, ok := EntryPointTypeTable.FromName(name); !ok {
			return fmt.Errorf("unknown entry point type %q", name)
		}
	}

	var out EntryPointsByType[E]
	for _, row := range EntryPointTypeTable.Rows() {
		msg, ok := raw[row.Name]
		if !ok {
			continue
		}
		var entryPoints []E
		if err := json.Unmarshal(msg, &entryPoints); err != nil {
			return fmt.Errorf("%s entry points: %w", row.Name, err)
		}
		out.Put(row.Value, entryPoints)
	}
	*m = out
	return nil
}

// Count reports the total number of entry points across all types.
func (m *EntryPointsByType[E]) Count() int {
	count := 0
	for _, entryPoints := range m.All() {
		count += len(entryPoints)
	}
	return count
}

func writeEntryPoints[E any](w *compact.Writer, m *EntryPointsByType[E], enc func(*compact.Writer, E)) {
	compact.WriteMap(w, &m.OrderedMap, func(w *compact.Writer, t EntryPointType, entryPoints []E) {
		EntryPointTypeTable.Write(w, t)
		compact.WriteSequence(w, entryPoints, enc)
	})
}

func readEntryPoints[E any](r *compact.Reader, dec func(*compact.Reader) (E, error)) (EntryPointsByType[E], error) {
	m, err := compact.ReadMap(r, func(r *compact.Reader) (EntryPointType, []E, error) {
		t, err := EntryPointTypeTable.Read(r)
		if err != nil {
			return t, nil, err
		}
		entryPoints, err := compact.ReadSequence(r, dec)
		return t, entryPoints, compact.Field(t.String(), err)
	})
	return EntryPointsByType[E]{OrderedMap: m}, err
}
