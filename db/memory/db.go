package memory

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NethermindEth/starknet-api/db"
)

var _ db.KeyValueStore = (*Database)(nil)

// Database is an in-memory key-value store. It is safe for concurrent use.
type Database struct {
	db       map[string][]byte
	lock     sync.RWMutex
	listener db.EventListener
}

func New() *Database {
	return &Database{
		db:       make(map[string][]byte),
		listener: &db.SelectiveListener{},
	}
}

func (d *Database) Has(key []byte) (bool, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.db == nil {
		return false, db.ErrClosed
	}

	_, ok := d.db[string(key)]
	return ok, nil
}

func (d *Database) Get(key []byte, cb func(value []byte) error) error {
	start := time.Now()
	d.lock.RLock()
	defer func() {
		d.lock.RUnlock()
		d.listener.OnIO(false, time.Since(start))
	}()

	if d.db == nil {
		return db.ErrClosed
	}

	val, ok := d.db[string(key)]
	if !ok {
		return db.ErrKeyNotFound
	}

	return cb(val)
}

func (d *Database) Put(key, value []byte) error {
	start := time.Now()
	d.lock.Lock()
	defer func() {
		d.lock.Unlock()
		d.listener.OnIO(true, time.Since(start))
	}()

	if d.db == nil {
		return db.ErrClosed
	}

	d.db[string(key)] = slices.Clone(value)
	return nil
}

func (d *Database) Delete(key []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.db == nil {
		return db.ErrClosed
	}

	delete(d.db, string(key))
	return nil
}

func (d *Database) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.db = nil
	return nil
}

func (d *Database) NewBatch() db.Batch { return newBatch(d) }

func (d *Database) NewIterator(prefix []byte, withUpperBound bool) (db.Iterator, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.db == nil {
		return nil, db.ErrClosed
	}

	var upperBound []byte
	if withUpperBound {
		upperBound = db.UpperBound(prefix)
	}

	var (
		pr   = string(prefix)
		ub   = string(upperBound)
		keys = make([]string, 0, len(d.db))
		vals = make([][]byte, 0, len(d.db))
	)

	for k := range d.db {
		if k < pr {
			continue
		}
		if withUpperBound && (!strings.HasPrefix(k, pr) || (upperBound != nil && k >= ub)) {
			continue
		}
		keys = append(keys, k)
	}

	sort.Strings(keys)
	for _, k := range keys {
		vals = append(vals, d.db[k])
	}

	return &iterator{
		curInd: -1,
		keys:   keys,
		values: vals,
	}, nil
}

// NewSnapshot returns a deep copy of the store. It panics if the store is closed.
func (d *Database) NewSnapshot() db.Snapshot {
	d.lock.RLock()
	closed := d.db == nil
	d.lock.RUnlock()
	if closed {
		panic(db.ErrClosed)
	}
	return d.Copy()
}

func (d *Database) Update(fn func(db.Batch) error) error {
	batch := d.NewBatch()
	if err := fn(batch); err != nil {
		return err
	}

	return batch.Write()
}

func (d *Database) View(fn func(db.Snapshot) error) error {
	d.lock.RLock()
	closed := d.db == nil
	d.lock.RUnlock()
	if closed {
		return db.ErrClosed
	}

	snap := d.NewSnapshot()
	defer snap.Close()
	return fn(snap)
}

func (d *Database) WithListener(listener db.EventListener) db.KeyValueStore {
	d.listener = listener
	return d
}

// Copy returns a deep copy of the key-value store
func (d *Database) Copy() *Database {
	d.lock.RLock()
	defer d.lock.RUnlock()

	cp := &Database{
		db:       make(map[string][]byte, len(d.db)),
		listener: &db.SelectiveListener{},
	}

	for k, v := range d.db {
		cp.db[k] = slices.Clone(v)
	}

	return cp
}

func (d *Database) Impl() any {
	return d.db
}
