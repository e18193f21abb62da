package db

import "io"

// Iterator walks a database's key/value pairs in ascending key order.
// It must be closed after use. A single iterator cannot be used concurrently, multiple iterators can.
type Iterator interface {
	io.Closer

	// Valid returns true if the iterator is positioned at a valid key/value pair.
	Valid() bool

	// Next moves the iterator to the next key/value pair. The first call positions the
	// iterator on the first pair. Once invalid, the iterator remains invalid.
	Next() bool

	// Key returns the key at the current position.
	Key() []byte

	// Value returns a copy of the value at the current position.
	Value() ([]byte, error)

	// Seek moves to the provided key if present, otherwise to the next key in lexicographical order.
	Seek(key []byte) bool
}
