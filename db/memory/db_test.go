package memory_test

import (
	"testing"

	"github.com/NethermindEth/starknet-api/db"
	"github.com/NethermindEth/starknet-api/db/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDB(t *testing.T) {
	db.TestKeyValueStoreSuite(t, func(t *testing.T) db.KeyValueStore {
		return memory.New()
	})
}

func TestClosed(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Close())

	_, err := store.Has([]byte("a"))
	assert.ErrorIs(t, err, db.ErrClosed)
	assert.ErrorIs(t, store.Put([]byte("a"), nil), db.ErrClosed)
	assert.ErrorIs(t, store.NewBatch().Write(), db.ErrClosed)
	assert.ErrorIs(t, store.View(func(db.Snapshot) error { return nil }), db.ErrClosed)
	assert.Panics(t, func() { store.NewSnapshot() })
}
