package utils

import (
	"cmp"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMap(t *testing.T) {
	t.Run("zero value", func(t *testing.T) {
		var m OrderedMap[string, int]

		assert.Equal(t, 0, m.Len())
		assert.Empty(t, m.Keys())
		assert.Empty(t, m.Values())
		assert.False(t, m.Has("a"))
	})

	t.Run("insertion order is kept", func(t *testing.T) {
		m := NewOrderedMap[string, int](3)
		m.Put("c", 3)
		m.Put("a", 1)
		m.Put("b", 2)

		assert.Equal(t, []string{"c", "a", "b"}, m.Keys())
		assert.Equal(t, []int{3, 1, 2}, m.Values())

		var keys []string
		for k := range m.All() {
			keys = append(keys, k)
		}
		assert.Equal(t, []string{"c", "a", "b"}, keys)
	})

	t.Run("updating existing keys", func(t *testing.T) {
		var m OrderedMap[string, int]
		m.Put("a", 1)
		m.Put("b", 2)
		m.Put("a", 10)

		assert.Equal(t, []int{10, 2}, m.Values())
		assert.Equal(t, []string{"a", "b"}, m.Keys())

		val, exists := m.Get("a")
		assert.True(t, exists)
		assert.Equal(t, 10, val)
	})

	t.Run("non-existent keys", func(t *testing.T) {
		var m OrderedMap[string, int]

		val, exists := m.Get("nonexistent")
		assert.False(t, exists)
		assert.Zero(t, val)
	})

	t.Run("early break", func(t *testing.T) {
		var m OrderedMap[int, int]
		for i := range 10 {
			m.Put(i, i*i)
		}

		count := 0
		for range m.All() {
			count++
			if count == 3 {
				break
			}
		}
		assert.Equal(t, 3, count)
	})

	t.Run("same content same order is equal", func(t *testing.T) {
		a := NewOrderedMap[int, string](2)
		a.Put(1, "x")
		a.Put(2, "y")

		var b OrderedMap[int, string]
		b.Put(1, "x")
		b.Put(2, "y")

		assert.Equal(t, *a, b)
	})

	t.Run("copies share entries", func(t *testing.T) {
		var original OrderedMap[string, int]
		original.Put("a", 1)

		alias := original
		alias.Put("b", 2)
		alias.Put("a", 10)

		val, exists := original.Get("b")
		assert.True(t, exists)
		assert.Equal(t, 2, val)
		assert.Equal(t, []string{"a", "b"}, original.Keys())
		assert.Equal(t, []int{10, 2}, original.Values())
	})

	t.Run("clone is independent", func(t *testing.T) {
		var original OrderedMap[string, int]
		original.Put("a", 1)

		clone := original.Clone()
		clone.Put("b", 2)
		clone.Put("a", 10)

		assert.False(t, original.Has("b"))
		val, _ := original.Get("a")
		assert.Equal(t, 1, val)
		assert.Equal(t, []string{"a"}, original.Keys())
		assert.Equal(t, []string{"a", "b"}, clone.Keys())

		var empty OrderedMap[string, int]
		emptyClone := empty.Clone()
		emptyClone.Put("a", 1)
		assert.Equal(t, 0, empty.Len())
	})

	t.Run("sortedness", func(t *testing.T) {
		var m OrderedMap[int, struct{}]
		assert.True(t, m.IsSortedFunc(cmp.Compare[int]))

		m.Put(1, struct{}{})
		m.Put(5, struct{}{})
		assert.True(t, m.IsSortedFunc(cmp.Compare[int]))

		m.Put(3, struct{}{})
		assert.False(t, m.IsSortedFunc(cmp.Compare[int]))
	})
}

type upperKey string

func (k upperKey) MarshalText() ([]byte, error) {
	return []byte("K" + string(k)), nil
}

func (k *upperKey) UnmarshalText(text []byte) error {
	if len(text) == 0 || text[0] != 'K' {
		return errors.New("bad key")
	}
	*k = upperKey(text[1:])
	return nil
}

func TestOrderedMapJSON(t *testing.T) {
	t.Run("document order is kept", func(t *testing.T) {
		var m OrderedMap[string, int]
		require.NoError(t, json.Unmarshal([]byte(`{"z": 1, "a": 2, "m": 3}`), &m))
		assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

		out, err := json.Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, `{"z":1,"a":2,"m":3}`, string(out))
	})

	t.Run("text keys", func(t *testing.T) {
		var m OrderedMap[upperKey, []int]
		m.Put("b", []int{1})
		m.Put("a", nil)

		out, err := json.Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, `{"Kb":[1],"Ka":null}`, string(out))

		var decoded OrderedMap[upperKey, []int]
		require.NoError(t, json.Unmarshal(out, &decoded))
		assert.Equal(t, m, decoded)

		assert.Error(t, json.Unmarshal([]byte(`{"x":[]}`), &decoded))
	})

	t.Run("null and empty", func(t *testing.T) {
		var m OrderedMap[string, int]
		require.NoError(t, json.Unmarshal([]byte(`null`), &m))
		assert.Equal(t, 0, m.Len())

		out, err := json.Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(out))
	})

	t.Run("not an object", func(t *testing.T) {
		var m OrderedMap[string, int]
		assert.Error(t, json.Unmarshal([]byte(`[1]`), &m))
		assert.Error(t, json.Unmarshal([]byte(`{"a":"b"}`), &m))
	})
}
