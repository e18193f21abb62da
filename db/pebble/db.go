package pebble

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/starknet-api/db"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

var _ db.KeyValueStore = (*DB)(nil)

type DB struct {
	pebble    *pebble.DB
	closeLock sync.RWMutex
	closed    bool
	listener  db.EventListener
}

// New opens a new database at the given path
func New(path string, opts ...Option) (*DB, error) {
	options := &pebble.Options{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return newPebble(path, options)
}

// NewMem opens a new in-memory database
func NewMem() (*DB, error) {
	return newPebble("", &pebble.Options{
		FS: vfs.NewMem(),
	})
}

// NewMemTest opens a new in-memory database and closes it when the test ends
func NewMemTest(t testing.TB) *DB {
	t.Helper()

	memDB, err := NewMem()
	if err != nil {
		t.Fatalf("create in-memory db: %v", err)
	}
	t.Cleanup(func() {
		if err := memDB.Close(); err != nil && !errors.Is(err, pebble.ErrClosed) {
			t.Errorf("close in-memory db: %v", err)
		}
	})
	return memDB
}

func newPebble(path string, options *pebble.Options) (*DB, error) {
	pDB, err := pebble.Open(path, options)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %q: %w", path, err)
	}
	return &DB{pebble: pDB, listener: &db.SelectiveListener{}}, nil
}

// WithListener registers an EventListener
func (d *DB) WithListener(listener db.EventListener) db.KeyValueStore {
	d.listener = listener
	return d
}

func (d *DB) Has(key []byte) (bool, error) {
	_, closer, err := d.pebble.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, closer.Close()
}

func (d *DB) Get(key []byte, cb func(value []byte) error) error {
	start := time.Now()
	defer func() { d.listener.OnIO(false, time.Since(start)) }()

	val, closer, err := d.pebble.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return db.ErrKeyNotFound
		}
		return err
	}

	return utils.RunAndWrapOnError(closer.Close, cb(val))
}

func (d *DB) Put(key, value []byte) error {
	start := time.Now()
	defer func() { d.listener.OnIO(true, time.Since(start)) }()

	return d.pebble.Set(key, value, pebble.Sync)
}

func (d *DB) Delete(key []byte) error {
	start := time.Now()
	defer func() { d.listener.OnIO(true, time.Since(start)) }()

	return d.pebble.Delete(key, pebble.Sync)
}

func (d *DB) NewBatch() db.Batch {
	return newBatch(d.pebble.NewIndexedBatch(), d)
}

func (d *DB) NewSnapshot() db.Snapshot {
	return newSnapshot(d.pebble, d.listener)
}

func (d *DB) NewIterator(prefix []byte, withUpperBound bool) (db.Iterator, error) {
	iterOpt := &pebble.IterOptions{LowerBound: prefix}
	if withUpperBound {
		iterOpt.UpperBound = db.UpperBound(prefix)
	}

	it, err := d.pebble.NewIter(iterOpt)
	if err != nil {
		return nil, err
	}

	return &iterator{iter: it}, nil
}

// Update applies fn to an indexed batch and commits it if fn succeeds
func (d *DB) Update(fn func(db.Batch) error) error {
	batch := newBatch(d.pebble.NewIndexedBatch(), d)
	defer discardOnPanic(batch)

	if err := fn(batch); err != nil {
		return utils.RunAndWrapOnError(batch.close, err)
	}
	return batch.Write()
}

// View applies fn to a snapshot of the database
func (d *DB) View(fn func(db.Snapshot) error) error {
	snap := d.NewSnapshot()
	return utils.RunAndWrapOnError(snap.Close, fn(snap))
}

// Close : see io.Closer.Close
func (d *DB) Close() error {
	d.closeLock.Lock()
	defer d.closeLock.Unlock()

	if d.closed {
		return pebble.ErrClosed
	}
	d.closed = true
	return d.pebble.Close()
}

// Impl : see db.Helper.Impl
func (d *DB) Impl() any {
	return d.pebble
}

func discardOnPanic(b *batch) {
	p := recover()
	if p != nil {
		if err := b.close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed discarding panicking batch err: %s", err)
		}
		panic(p)
	}
}
