package core

import (
	"fmt"

	"github.com/NethermindEth/starknet-api/encoder/compact"
)

// Discriminant binds an enum value to its single-byte wire tag and its interchange name.
type Discriminant[T comparable] struct {
	Value T
	Tag   byte
	Name  string
}

// DiscriminantTable is the versioned tag table of an enum. Rows are kept in tag order.
type DiscriminantTable[T comparable] struct {
	Kind    string
	Version uint
	rows    []Discriminant[T]
}

func NewDiscriminantTable[T comparable](kind string, version uint, rows ...Discriminant[T]) DiscriminantTable[T] {
	for i, row := range rows {
		for _, other := range rows[:i] {
			if row.Value == other.Value || row.Tag == other.Tag || row.Name == other.Name {
				panic(fmt.Sprintf("%s table: duplicate row %+v", kind, row))
			}
		}
	}
	return DiscriminantTable[T]{Kind: kind, Version: version, rows: rows}
}

// Rows returns a copy of the table
func (t DiscriminantTable[T]) Rows() []Discriminant[T] {
	return append([]Discriminant[T](nil), t.rows...)
}

func (t DiscriminantTable[T]) Tag(v T) (byte, bool) {
	for _, row := range t.rows {
		if row.Value == v {
			return row.Tag, true
		}
	}
	return 0, false
}

func (t DiscriminantTable[T]) FromTag(tag byte) (T, bool) {
	for _, row := range t.rows {
		if row.Tag == tag {
			return row.Value, true
		}
	}
	var zero T
	return zero, false
}

func (t DiscriminantTable[T]) Name(v T) (string, bool) {
	for _, row := range t.rows {
		if row.Value == v {
			return row.Name, true
		}
	}
	return "", false
}

func (t DiscriminantTable[T]) FromName(name string) (T, bool) {
	for _, row := range t.rows {
		if row.Name == name {
			return row.Value, true
		}
	}
	var zero T
	return zero, false
}

// Write emits the tag of v. Values missing from the table are a programming error.
func (t DiscriminantTable[T]) Write(w *compact.Writer, v T) {
	tag, ok := t.Tag(v)
	if !ok {
		panic(fmt.Sprintf("%s table v%d has no tag for %v", t.Kind, t.Version, v))
	}
	w.WriteTag(tag)
}

func (t DiscriminantTable[T]) Read(r *compact.Reader) (T, error) {
	var zero T
	tag, err := r.ReadByte()
	if err != nil {
		return zero, err
	}
	v, ok := t.FromTag(tag)
	if !ok {
		return zero, compact.NewStructuralError(compact.ErrInvalidDiscriminant, "%s tag %d", t.Kind, tag)
	}
	return v, nil
}

func (t DiscriminantTable[T]) MarshalText(v T) ([]byte, error) {
	name, ok := t.Name(v)
	if !ok {
		return nil, fmt.Errorf("unknown %s %v", t.Kind, v)
	}
	return []byte(name), nil
}

func (t DiscriminantTable[T]) UnmarshalText(text []byte) (T, error) {
	v, ok := t.FromName(string(text))
	if !ok {
		return v, fmt.Errorf("unknown %s %q", t.Kind, text)
	}
	return v, nil
}
