package db

import "io"

// KeyValueReader reads from the data store
type KeyValueReader interface {
	// Has reports whether the key exists in the data store
	Has(key []byte) (bool, error)
	// Get calls cb with the value stored under key. The value is only valid for the duration of cb.
	Get(key []byte, cb func(value []byte) error) error
}

// KeyValueWriter writes to the data store
type KeyValueWriter interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// Helper groups the callback style accessors
type Helper interface {
	// Update applies fn to a fresh batch and writes it if fn succeeds
	Update(fn func(Batch) error) error
	// View applies fn to a read-only snapshot
	View(fn func(Snapshot) error) error
	// Impl returns the underlying database
	Impl() any
}

// KeyValueStore is a key-value data store with atomic batches and point-in-time snapshots
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	Batcher
	Snapshotter
	Iterable
	Helper
	Listener
	io.Closer
}

// Iterable produces iterators over the data store
type Iterable interface {
	// NewIterator iterates over keys starting at prefix. With withUpperBound set, iteration stops
	// at the first key that does not share the prefix.
	NewIterator(prefix []byte, withUpperBound bool) (Iterator, error)
}

// Listener allows registering an EventListener on a store
type Listener interface {
	WithListener(listener EventListener) KeyValueStore
}

// UpperBound returns the smallest key that is greater than every key sharing the prefix,
// or nil if there is none.
func UpperBound(prefix []byte) []byte {
	var ub []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] == 0xff {
			continue
		}
		ub = make([]byte, i+1)
		copy(ub, prefix)
		ub[i]++
		return ub
	}
	return nil
}
