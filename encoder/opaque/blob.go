// Package opaque carries JSON payloads that have no fixed schema. A Blob stores canonical JSON
// text (sorted object keys, no insignificant whitespace, numbers kept verbatim) and parses it only
// on demand.
package opaque

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/NethermindEth/starknet-api/encoder/compact"
	"github.com/goccy/go-json"
)

var ErrNotObject = errors.New("blob is not a JSON object")

var null = []byte("null")

// Blob is an immutable canonical JSON document. The zero value is JSON null.
type Blob struct {
	raw []byte
}

// New marshals v and canonicalises the result.
func New(v any) (Blob, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Blob{}, err
	}
	return FromJSON(data)
}

// FromJSON canonicalises data. Canonical text is only stable for this encoder: other producers
// may order keys or format numbers differently.
func FromJSON(data []byte) (Blob, error) {
	raw, err := canonicalise(data)
	if err != nil {
		return Blob{}, err
	}
	return Blob{raw: raw}, nil
}

func canonicalise(data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return nil, compact.NewStructuralError(compact.ErrInvalidJSON, "%d bytes", len(data))
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, compact.NewStructuralError(compact.ErrInvalidJSON, "%v", err)
	}
	if v == nil {
		return nil, nil
	}

	raw, err := json.MarshalNoEscape(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalise blob: %w", err)
	}
	return raw, nil
}

func (b Blob) IsNull() bool {
	return len(b.raw) == 0
}

// Bytes returns the canonical JSON text
func (b Blob) Bytes() []byte {
	if b.IsNull() {
		return null
	}
	return b.raw
}

func (b Blob) String() string {
	return string(b.Bytes())
}

func (b Blob) Equal(other Blob) bool {
	return bytes.Equal(b.raw, other.raw)
}

// Decode parses the blob into v.
func (b Blob) Decode(v any) error {
	return json.Unmarshal(b.Bytes(), v)
}

// Field returns the raw JSON value stored under name when the blob is an object.
func (b Blob) Field(name string) (json.RawMessage, bool, error) {
	if b.IsNull() {
		return nil, false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b.raw, &fields); err != nil {
		return nil, false, ErrNotObject
	}
	v, ok := fields[name]
	return v, ok, nil
}

func (b Blob) MarshalJSON() ([]byte, error) {
	return b.Bytes(), nil
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	raw, err := canonicalise(data)
	if err != nil {
		return err
	}
	b.raw = raw
	return nil
}

// EncodeCompact writes the canonical text as a length-prefixed byte string.
func (b Blob) EncodeCompact(w *compact.Writer) {
	w.WriteBytes(b.Bytes())
}

// DecodeCompact reads a length-prefixed JSON text. The text is validated but kept as received so
// that re-encoding reproduces the input bytes.
func (b *Blob) DecodeCompact(r *compact.Reader) error {
	data, err := r.ReadBytes()
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return compact.NewStructuralError(compact.ErrInvalidJSON, "%d bytes", len(data))
	}

	if bytes.Equal(data, null) {
		b.raw = nil
	} else {
		b.raw = data
	}
	return nil
}
