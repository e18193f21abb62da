package pebble

import (
	"errors"
	"time"

	"github.com/NethermindEth/starknet-api/db"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/cockroachdb/pebble"
)

var _ db.Batch = (*batch)(nil)

type batch struct {
	batch *pebble.Batch
	db    *DB
	size  int // size of the batch in bytes
}

func newBatch(dbBatch *pebble.Batch, db *DB) *batch {
	return &batch{
		batch: dbBatch,
		db:    db,
	}
}

func (b *batch) Delete(key []byte) error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	start := time.Now()
	defer func() { b.db.listener.OnIO(true, time.Since(start)) }()

	if err := b.batch.Delete(key, pebble.Sync); err != nil {
		return err
	}
	b.size += len(key)
	return nil
}

func (b *batch) Get(key []byte, cb func(value []byte) error) error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	start := time.Now()
	defer func() { b.db.listener.OnIO(false, time.Since(start)) }()

	val, closer, err := b.batch.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return db.ErrKeyNotFound
		}
		return err
	}

	return utils.RunAndWrapOnError(closer.Close, cb(val))
}

func (b *batch) Has(key []byte) (bool, error) {
	if b.batch == nil {
		return false, pebble.ErrClosed
	}

	_, closer, err := b.batch.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, closer.Close()
}

func (b *batch) Put(key, value []byte) error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	start := time.Now()
	defer func() { b.db.listener.OnIO(true, time.Since(start)) }()

	if err := b.batch.Set(key, value, pebble.Sync); err != nil {
		return err
	}
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	start := time.Now()
	defer func() { b.db.listener.OnCommit(time.Since(start)) }()

	b.db.closeLock.RLock()
	defer b.db.closeLock.RUnlock()

	if b.db.closed {
		return pebble.ErrClosed
	}

	if err := b.batch.Commit(pebble.Sync); err != nil {
		return utils.RunAndWrapOnError(b.close, err)
	}

	return b.close()
}

func (b *batch) Reset() {
	if b.batch != nil {
		b.batch.Reset()
	}
	b.size = 0
}

func (b *batch) close() error {
	if b.batch == nil {
		return nil
	}

	err := b.batch.Close()
	b.batch = nil
	b.size = 0
	return err
}
