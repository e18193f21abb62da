package pebble

import (
	"slices"

	"github.com/NethermindEth/starknet-api/db"
	"github.com/cockroachdb/pebble"
)

var _ db.Iterator = (*iterator)(nil)

type iterator struct {
	iter       *pebble.Iterator
	positioned bool
}

// Valid : see db.Iterator.Valid
func (i *iterator) Valid() bool {
	return i.iter.Valid()
}

// Key : see db.Iterator.Key
func (i *iterator) Key() []byte {
	return i.iter.Key()
}

// Value : see db.Iterator.Value
func (i *iterator) Value() ([]byte, error) {
	val, err := i.iter.ValueAndErr()
	if err != nil {
		return nil, err
	}
	return slices.Clone(val), nil
}

// Next : see db.Iterator.Next
func (i *iterator) Next() bool {
	if !i.positioned {
		i.positioned = true
		return i.iter.First()
	}
	return i.iter.Next()
}

// Seek : see db.Iterator.Seek
func (i *iterator) Seek(key []byte) bool {
	i.positioned = true
	return i.iter.SeekGE(key)
}

// Close : see db.Iterator.Close
func (i *iterator) Close() error {
	return i.iter.Close()
}
