package db

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeyValueStoreSuite runs a suite of tests against a KeyValueStore implementation.
//
//nolint:funlen
func TestKeyValueStoreSuite(t *testing.T, newDB func(t *testing.T) KeyValueStore) {
	t.Run("Iterator", func(t *testing.T) {
		tests := []struct {
			name      string
			content   map[string]string
			prefix    string
			start     string
			unbounded bool
			order     []string
		}{
			{
				name:    "empty database",
				content: map[string]string{},
			},
			{
				name:    "multi-item database",
				content: map[string]string{"k1": "v1", "k3": "v3", "k2": "v2"},
				order:   []string{"k1", "k2", "k3"},
			},
			{
				name:    "non-matching prefix",
				content: map[string]string{"k1": "v1", "k3": "v3", "k2": "v2"},
				prefix:  "l",
			},
			{
				name: "specific prefix",
				content: map[string]string{
					"ka1": "va1", "ka3": "va3", "ka2": "va2",
					"kb1": "vb1", "kb2": "vb2",
				},
				prefix: "ka",
				order:  []string{"ka1", "ka2", "ka3"},
			},
			{
				name: "prefix without upper bound",
				content: map[string]string{
					"ka1": "va1", "ka2": "va2", "kb1": "vb1", "a": "x",
				},
				prefix:    "ka2",
				unbounded: true,
				order:     []string{"ka2", "kb1"},
			},
			{
				name: "prefix and start position",
				content: map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1",
				},
				prefix: "ka",
				start:  "ka3",
				order:  []string{"ka3", "ka4", "ka5"},
			},
			{
				name:    "out of range start position",
				content: map[string]string{"ka1": "va1", "ka2": "va2", "kb1": "vb1"},
				prefix:  "ka",
				start:   "ka8",
			},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				store := newDB(t)
				for k, v := range test.content {
					require.NoError(t, store.Put([]byte(k), []byte(v)))
				}

				it, err := store.NewIterator([]byte(test.prefix), !test.unbounded)
				require.NoError(t, err)
				t.Cleanup(func() { require.NoError(t, it.Close()) })

				var got []string
				valid := false
				if test.start != "" {
					valid = it.Seek([]byte(test.start))
				} else {
					valid = it.Next()
				}
				for ; valid; valid = it.Next() {
					key := string(it.Key())
					value, err := it.Value()
					require.NoError(t, err)
					assert.Equal(t, test.content[key], string(value))
					got = append(got, key)
				}
				assert.Equal(t, test.order, got)
			})
		}
	})

	t.Run("Get Put Has Delete", func(t *testing.T) {
		store := newDB(t)
		key, value := []byte("key"), []byte("value")

		has, err := store.Has(key)
		require.NoError(t, err)
		assert.False(t, has)
		require.ErrorIs(t, store.Get(key, func([]byte) error { return nil }), ErrKeyNotFound)

		require.NoError(t, store.Put(key, value))
		has, err = store.Has(key)
		require.NoError(t, err)
		assert.True(t, has)
		require.NoError(t, store.Get(key, func(got []byte) error {
			assert.Equal(t, value, got)
			return nil
		}))

		require.NoError(t, store.Delete(key))
		require.ErrorIs(t, store.Get(key, func([]byte) error { return nil }), ErrKeyNotFound)
	})

	t.Run("Batch", func(t *testing.T) {
		store := newDB(t)
		require.NoError(t, store.Put([]byte("gone"), []byte("x")))

		batch := store.NewBatch()
		require.NoError(t, batch.Put([]byte("a"), []byte("1")))
		require.NoError(t, batch.Put([]byte("b"), []byte("2")))
		require.NoError(t, batch.Delete([]byte("gone")))
		assert.Equal(t, 2+2+len("gone"), batch.Size())

		// pending writes are visible through the batch only
		has, err := batch.Has([]byte("a"))
		require.NoError(t, err)
		assert.True(t, has)
		has, err = batch.Has([]byte("gone"))
		require.NoError(t, err)
		assert.False(t, has)
		has, err = store.Has([]byte("a"))
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, batch.Write())
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, dump(t, store))
	})

	t.Run("Update rolls back on error", func(t *testing.T) {
		store := newDB(t)
		err := store.Update(func(b Batch) error {
			require.NoError(t, b.Put([]byte("a"), []byte("1")))
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, dump(t, store))

		require.NoError(t, store.Update(func(b Batch) error {
			return b.Put([]byte("a"), []byte("1"))
		}))
		assert.Equal(t, map[string]string{"a": "1"}, dump(t, store))
	})

	t.Run("Snapshot is isolated from later writes", func(t *testing.T) {
		store := newDB(t)
		require.NoError(t, store.Put([]byte("a"), []byte("1")))

		snap := store.NewSnapshot()
		require.NoError(t, store.Put([]byte("a"), []byte("2")))
		require.NoError(t, store.Put([]byte("b"), []byte("3")))

		require.NoError(t, snap.Get([]byte("a"), func(v []byte) error {
			assert.Equal(t, "1", string(v))
			return nil
		}))
		has, err := snap.Has([]byte("b"))
		require.NoError(t, err)
		assert.False(t, has)
		require.NoError(t, snap.Close())

		require.NoError(t, store.View(func(s Snapshot) error {
			return s.Get([]byte("a"), func(v []byte) error {
				assert.Equal(t, "2", string(v))
				return nil
			})
		}))
	})
}

func dump(t *testing.T, store KeyValueStore) map[string]string {
	t.Helper()

	it, err := store.NewIterator(nil, false)
	require.NoError(t, err)
	defer func() { require.NoError(t, it.Close()) }()

	out := make(map[string]string)
	var keys []string
	for it.Next() {
		value, err := it.Value()
		require.NoError(t, err)
		out[string(it.Key())] = string(value)
		keys = append(keys, string(it.Key()))
	}
	require.True(t, sort.StringsAreSorted(keys))
	return out
}
