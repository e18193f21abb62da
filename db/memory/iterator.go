package memory

import (
	"bytes"
	"errors"
	"slices"

	"github.com/NethermindEth/starknet-api/db"
)

var _ db.Iterator = (*iterator)(nil)

type iterator struct {
	curInd int
	keys   []string
	values [][]byte
}

func (i *iterator) Valid() bool {
	return i.curInd >= 0 && i.curInd < len(i.keys)
}

func (i *iterator) Next() bool {
	if i.curInd >= len(i.keys) {
		return false
	}
	i.curInd++
	return i.Valid()
}

func (i *iterator) Key() []byte {
	if !i.Valid() {
		return nil
	}

	return []byte(i.keys[i.curInd])
}

func (i *iterator) Value() ([]byte, error) {
	if !i.Valid() {
		return nil, errors.New("iterator is not valid")
	}

	return slices.Clone(i.values[i.curInd]), nil
}

func (i *iterator) Seek(key []byte) bool {
	for j := range i.keys {
		if bytes.Compare(key, []byte(i.keys[j])) <= 0 {
			i.curInd = j
			return true
		}
	}

	i.curInd = len(i.keys)
	return false
}

func (i *iterator) Close() error {
	i.curInd = -1
	i.keys = nil
	i.values = nil
	return nil
}
