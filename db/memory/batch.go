package memory

import (
	"slices"
	"time"

	"github.com/NethermindEth/starknet-api/db"
)

var _ db.Batch = (*batch)(nil)

type batch struct {
	db *Database
	// Only the latest write per key matters for the result, but writes are replayed
	// in order to mimic the behaviour of the persistent store.
	writes   []keyValue
	writeMap map[string]keyValue
	size     int
}

type keyValue struct {
	key    string
	value  []byte
	delete bool
}

func newBatch(db *Database) *batch {
	return &batch{
		db:       db,
		writeMap: make(map[string]keyValue),
	}
}

func (b *batch) Get(key []byte, cb func(value []byte) error) error {
	if val, ok := b.writeMap[string(key)]; ok {
		if val.delete {
			return db.ErrKeyNotFound
		}
		return cb(val.value)
	}

	return b.db.Get(key, cb)
}

func (b *batch) Has(key []byte) (bool, error) {
	if val, ok := b.writeMap[string(key)]; ok {
		return !val.delete, nil
	}

	return b.db.Has(key)
}

func (b *batch) Put(key, value []byte) error {
	kv := keyValue{key: string(key), value: slices.Clone(value)}
	b.writes = append(b.writes, kv)
	b.writeMap[string(key)] = kv
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	kv := keyValue{key: string(key), delete: true}
	b.writes = append(b.writes, kv)
	b.writeMap[string(key)] = kv
	b.size += len(key)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	start := time.Now()
	b.db.lock.Lock()
	defer func() {
		b.db.lock.Unlock()
		b.db.listener.OnCommit(time.Since(start))
	}()

	if b.db.db == nil {
		return db.ErrClosed
	}

	for _, write := range b.writes {
		if write.delete {
			delete(b.db.db, write.key)
		} else {
			b.db.db[write.key] = write.value
		}
	}

	b.Reset()
	return nil
}

func (b *batch) Reset() {
	b.size = 0
	b.writes = b.writes[:0]
	b.writeMap = make(map[string]keyValue)
}
