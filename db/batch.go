package db

// Batch gathers writes in memory and applies them to the store in a single atomic operation.
// Reads through a batch observe its own pending writes.
type Batch interface {
	KeyValueReader
	KeyValueWriter
	// Size returns the number of key and value bytes waiting to be written
	Size() int
	// Write flushes the pending writes to the store
	Write() error
	// Reset drops the pending writes
	Reset()
}

// Batcher produces batches
type Batcher interface {
	NewBatch() Batch
}
