package pebble

import (
	"errors"
	"time"

	"github.com/NethermindEth/starknet-api/db"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/cockroachdb/pebble"
)

var _ db.Snapshot = (*snapshot)(nil)

type snapshot struct {
	snapshot *pebble.Snapshot
	listener db.EventListener
}

func newSnapshot(pDB *pebble.DB, listener db.EventListener) *snapshot {
	return &snapshot{snapshot: pDB.NewSnapshot(), listener: listener}
}

func (s *snapshot) Has(key []byte) (bool, error) {
	_, closer, err := s.snapshot.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, closer.Close()
}

func (s *snapshot) Get(key []byte, cb func(value []byte) error) error {
	start := time.Now()
	defer func() { s.listener.OnIO(false, time.Since(start)) }()

	data, closer, err := s.snapshot.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return db.ErrKeyNotFound
		}
		return err
	}

	return utils.RunAndWrapOnError(closer.Close, cb(data))
}

func (s *snapshot) NewIterator(prefix []byte, withUpperBound bool) (db.Iterator, error) {
	iterOpt := &pebble.IterOptions{LowerBound: prefix}
	if withUpperBound {
		iterOpt.UpperBound = db.UpperBound(prefix)
	}

	it, err := s.snapshot.NewIter(iterOpt)
	if err != nil {
		return nil, err
	}

	return &iterator{iter: it}, nil
}

func (s *snapshot) Close() error {
	return s.snapshot.Close()
}
